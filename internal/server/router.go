package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// RouterDependencies collects handler dependencies.
type RouterDependencies struct {
	Health           HealthService
	API              *APIHandlers
	Metrics          http.Handler
	AllowedOrigins   []string
	AllowCredentials bool
}

// route binds a mux pattern to its handler. Only browser routes are offered
// to the CORS allow-list; admin and operational endpoints never are.
type route struct {
	pattern string
	group   string
	methods []string
	browser bool
	handler http.Handler
}

func gameRoutes(api *APIHandlers) []route {
	get := []string{http.MethodGet}
	post := []string{http.MethodPost}
	return []route{
		{pattern: "/players", group: "explorer", methods: get, browser: true, handler: http.HandlerFunc(api.handlePlayers)},
		{pattern: "/stats", group: "explorer", methods: get, browser: true, handler: http.HandlerFunc(api.handleStats)},
		{pattern: "/explorer/path", group: "explorer", methods: get, browser: true, handler: http.HandlerFunc(api.handleExplorerPath)},
		{pattern: "/difficulties", group: "quiz", methods: get, browser: true, handler: http.HandlerFunc(api.handleDifficulties)},
		{pattern: "/quiz/sessions", group: "quiz", methods: post, browser: true, handler: http.HandlerFunc(api.handleSessions)},
		{
			pattern: "/quiz/sessions/",
			group:   "quiz",
			methods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			browser: true,
			handler: http.HandlerFunc(api.handleSession),
		},
		{pattern: "/admin/reload", group: "admin", methods: post, handler: http.HandlerFunc(api.handleReload)},
	}
}

// NewRouter wires the HTTP routes exposed by the game API.
func NewRouter(logger *slog.Logger, deps RouterDependencies) http.Handler {
	routes := []route{{pattern: "/healthz", group: "ops", handler: healthHandler(logger, deps.Health)}}
	if deps.Metrics != nil {
		routes = append(routes, route{pattern: "/metrics", group: "ops", handler: deps.Metrics})
	}
	if deps.API != nil {
		routes = append(routes, gameRoutes(deps.API)...)
	}

	origins := newOriginSet(deps.AllowedOrigins)
	mux := http.NewServeMux()
	groups := make(map[string]string, len(routes))
	for _, rt := range routes {
		h := rt.handler
		if rt.browser && origins.enabled() {
			h = corsMiddleware(origins, deps.AllowCredentials, rt.methods, h)
		}
		mux.Handle(rt.pattern, h)
		groups[rt.pattern] = rt.group
	}
	return requestLogger(logger, mux, groups)
}

func healthHandler(logger *slog.Logger, health HealthService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		payload := map[string]any{
			"status": "ok",
		}

		if health != nil {
			if err := health.Probe(ctx); err != nil {
				logger.Error("health check failed", "error", err)
				status = http.StatusServiceUnavailable
				payload["status"] = "degraded"
				payload["error"] = err.Error()
			}
		}

		respondJSON(w, status, payload)
	})
}

// requestLogger logs one line per request, tagged with the route group and,
// for quiz session routes, the session id and action.
func requestLogger(logger *slog.Logger, mux *http.ServeMux, groups map[string]string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		mux.ServeHTTP(rec, r)

		_, pattern := mux.Handler(r)
		group, ok := groups[pattern]
		if !ok {
			group = "unrouted"
		}
		attrs := []any{
			"group", group,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if pattern == "/quiz/sessions/" {
			if id, action := sessionPath(r.URL.Path); id != "" {
				attrs = append(attrs, "session_id", id)
				if action != "" {
					attrs = append(attrs, "action", action)
				}
			}
		}

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "request completed", attrs...)
	})
}

// sessionPath splits "/quiz/sessions/{id}/{action}".
func sessionPath(path string) (id, action string) {
	rest := strings.Trim(strings.TrimPrefix(path, "/quiz/sessions/"), "/")
	id, action, _ = strings.Cut(rest, "/")
	return id, action
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// originSet is the trimmed CORS allow-list. "*" admits any origin.
type originSet map[string]struct{}

func newOriginSet(origins []string) originSet {
	set := make(originSet, len(origins))
	for _, origin := range origins {
		if origin = strings.TrimSpace(origin); origin != "" {
			set[origin] = struct{}{}
		}
	}
	return set
}

func (s originSet) enabled() bool { return len(s) > 0 }

func (s originSet) allows(origin string) bool {
	if origin == "" {
		return false
	}
	_, exact := s[origin]
	_, wildcard := s["*"]
	return exact || wildcard
}

// corsMiddleware answers pre-flights for one browser route, advertising only
// the methods that route serves.
func corsMiddleware(origins originSet, allowCredentials bool, methods []string, next http.Handler) http.Handler {
	allowMethods := strings.Join(append(append([]string(nil), methods...), http.MethodOptions), ", ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if !origins.allows(origin) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
		if allowCredentials {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", allowMethods)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
