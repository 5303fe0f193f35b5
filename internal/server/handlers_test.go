package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/separation/internal/config"
	"github.com/vanshika/separation/internal/dataset"
	"github.com/vanshika/separation/internal/graph"
	"github.com/vanshika/separation/internal/logging"
	"github.com/vanshika/separation/internal/metrics"
	"github.com/vanshika/separation/internal/puzzle"
	"github.com/vanshika/separation/internal/quiz"
	"github.com/vanshika/separation/internal/service"
)

// fixtureSnapshot is the chain 1-2-3-4-5-6 plus the isolated pair 900-901.
func fixtureSnapshot() *dataset.Snapshot {
	var tables dataset.Tables
	for i := 1; i <= 6; i++ {
		tables.Players = append(tables.Players, dataset.PlayerRecord{
			PlayerID:    fmt.Sprint(i),
			Name:        fmt.Sprintf("Player %d (%d)", i, i),
			DateOfBirth: "1990-05-05",
			Club:        "FC Chain",
			Citizenship: "Brazil",
		})
		if i > 1 {
			tables.Teammates = append(tables.Teammates, dataset.TeammateRecord{
				PlayerID: fmt.Sprint(i - 1), TeammateID: fmt.Sprint(i), Minutes: "2500", JointGoals: "0",
			})
		}
	}
	tables.Players = append(tables.Players,
		dataset.PlayerRecord{PlayerID: "900", Name: "Island One"},
		dataset.PlayerRecord{PlayerID: "901", Name: "Island Two"},
	)
	tables.Teammates = append(tables.Teammates, dataset.TeammateRecord{PlayerID: "900", TeammateID: "901"})
	return dataset.Build(tables, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

type testEnv struct {
	handler  http.Handler
	sessions *quiz.Registry
}

func newTestEnv(t *testing.T, health HealthService) testEnv {
	t.Helper()
	return newTestEnvWith(t, health, logging.Discard())
}

func newTestEnvWith(t *testing.T, health HealthService, logger *slog.Logger, origins ...string) testEnv {
	t.Helper()
	m := metrics.New()
	store := dataset.NewStaticStore(fixtureSnapshot())
	game := service.NewGame(store, puzzle.NewGenerator(puzzle.WithSeed(7)), nil, service.WithMetrics(m))
	sessions := quiz.NewRegistry(time.Hour, quiz.DefaultMaxHintLevels, m)

	if health == nil {
		health = HealthChecks{store}
	}
	handler := NewRouter(logger, RouterDependencies{
		Health:         health,
		API:            NewAPIHandlers(logging.Discard(), game, sessions),
		Metrics:        m.Handler(),
		AllowedOrigins: origins,
	})
	return testEnv{handler: handler, sessions: sessions}
}

func (e testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	degraded := newTestEnv(t, HealthChecks{GraphHealthService{
		Client: graph.NewMemoryClient().WithConnectivityError(errors.New("bolt down")),
	}})
	rec = degraded.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "bolt down")
}

func TestHandlePlayersSearch(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/players?search=player%203&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decode[playersResponse](t, rec)
	require.Len(t, payload.Items, 1)
	assert.Equal(t, "Player 3", payload.Items[0].Name)
	assert.Equal(t, "Player 3 (FC Chain, 34 yrs)", payload.Items[0].Display)
	assert.Equal(t, 2, payload.Items[0].Connections)

	rec = env.do(t, http.MethodPost, "/players", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
}

func TestSearchLimit(t *testing.T) {
	cases := map[string]int{
		"":     defaultSearchLimit,
		"abc":  defaultSearchLimit,
		"0":    defaultSearchLimit,
		"-5":   defaultSearchLimit,
		"3":    3,
		"50":   50,
		"200":  maxSearchLimit,
		"1000": maxSearchLimit,
	}
	for raw, want := range cases {
		assert.Equal(t, want, searchLimit(raw), "limit %q", raw)
	}
}

func TestHandlePlayersSearchLimit(t *testing.T) {
	env := newTestEnv(t, nil)

	payload := decode[playersResponse](t, env.do(t, http.MethodGet, "/players?limit=3", nil))
	assert.Len(t, payload.Items, 3)

	payload = decode[playersResponse](t, env.do(t, http.MethodGet, "/players?limit=1000", nil))
	assert.Len(t, payload.Items, 8)
}

func TestHandleStatsAndDifficulties(t *testing.T) {
	env := newTestEnv(t, nil)

	stats := decode[statsResponse](t, env.do(t, http.MethodGet, "/stats", nil))
	assert.Equal(t, 8, stats.Players)
	assert.Equal(t, 6, stats.Connections)

	var diffs struct {
		Items []difficultyResponse `json:"items"`
	}
	rec := env.do(t, http.MethodGet, "/difficulties", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &diffs))
	require.Len(t, diffs.Items, 3)
	assert.Equal(t, "Easy", diffs.Items[0].Name)
	assert.Equal(t, 2, diffs.Items[0].MinDegrees)
}

func TestHandleExplorerPath(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/explorer/path?fromId=1&toId=4", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decode[connectionResponse](t, rec)
	assert.Equal(t, 3, payload.Degrees)
	require.Len(t, payload.Path, 4)
	assert.Equal(t, "Player 1", payload.Path[0].Name)
	require.Len(t, payload.Links, 3)
	assert.Equal(t, "2,500 mins together", payload.Links[0].Summary)

	rec = env.do(t, http.MethodGet, "/explorer/path?from=Player%201%20(FC%20Chain,%2034%20yrs)&to=Player%202%20(FC%20Chain,%2034%20yrs)", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[connectionResponse](t, rec).Degrees)

	rec = env.do(t, http.MethodGet, "/explorer/path?fromId=777&toId=777", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Zero(t, decode[connectionResponse](t, rec).Degrees)
}

func TestHandleExplorerPathErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	cases := []struct {
		name   string
		target string
		status int
	}{
		{"missing player", "/explorer/path?from=&to=x", http.StatusBadRequest},
		{"same player", "/explorer/path?from=a&to=a", http.StatusBadRequest},
		{"unknown player", "/explorer/path?from=a&to=b", http.StatusUnprocessableEntity},
		{"bad id", "/explorer/path?fromId=x&toId=2", http.StatusBadRequest},
		{"disjoint", "/explorer/path?fromId=1&toId=900", http.StatusNotFound},
		{"id outside graph", "/explorer/path?fromId=1&toId=12345", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tc.target, nil)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestQuizSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/quiz/sessions", roundRequest{Difficulty: "Easy"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := decode[sessionResponse](t, rec)

	assert.Equal(t, "active", session.State)
	assert.Equal(t, "Easy", session.Difficulty)
	assert.GreaterOrEqual(t, session.Degrees, 2)
	assert.LessOrEqual(t, session.Degrees, 3)
	require.NotNil(t, session.NextHidden)
	assert.Equal(t, 1, *session.NextHidden)
	assert.True(t, session.Chain[0].Revealed)
	assert.NotNil(t, session.Chain[0].PlayerID)
	assert.False(t, session.Chain[1].Revealed)
	assert.Nil(t, session.Chain[1].PlayerID)

	base := "/quiz/sessions/" + session.SessionID

	rec = env.do(t, http.MethodPost, base+"/hint", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	hint := decode[hintResponse](t, rec)
	assert.Equal(t, 0, hint.Level)
	assert.Equal(t, "Hint 1/5 (4 more available)", hint.Header)
	assert.Equal(t, "First letter: P, Name length: 8 characters", hint.Lines[0])

	rec = env.do(t, http.MethodPost, base+"/guess", guessRequest{Display: "Island One (Unknown)"})
	require.Equal(t, http.StatusOK, rec.Code)
	guess := decode[guessResponse](t, rec)
	assert.False(t, guess.Correct)

	rec = env.do(t, http.MethodPost, base+"/guess", guessRequest{Display: "Nobody (Nowhere)"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var last revealResponse
	for i := 0; i < session.Degrees-1; i++ {
		rec = env.do(t, http.MethodPost, base+"/reveal", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		last = decode[revealResponse](t, rec)
	}
	assert.True(t, last.Completed)
	assert.Equal(t, "complete", last.Session.State)
	assert.Equal(t, 0, last.Session.Score)
	assert.Equal(t, session.Degrees, last.Session.Total, "one per reveal plus one for completion")

	rec = env.do(t, http.MethodPost, base+"/reveal", positionRequest{Position: intPtr(1)})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, base+"/rounds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	next := decode[sessionResponse](t, rec)
	assert.Equal(t, "active", next.State)
	assert.Equal(t, "Easy", next.Difficulty)
	assert.Equal(t, last.Session.Total, next.Total, "totals persist across rounds")

	rec = env.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQuizSessionExhausted(t *testing.T) {
	// Three players in a row are never four or more degrees apart.
	snap := dataset.Build(dataset.Tables{
		Players: []dataset.PlayerRecord{
			{PlayerID: "1", Name: "A"}, {PlayerID: "2", Name: "B"}, {PlayerID: "3", Name: "C"},
		},
		Teammates: []dataset.TeammateRecord{
			{PlayerID: "1", TeammateID: "2"}, {PlayerID: "2", TeammateID: "3"},
		},
	}, time.Now())
	game := service.NewGame(dataset.NewStaticStore(snap), puzzle.NewGenerator(puzzle.WithMaxAttempts(10)), nil)
	sessions := quiz.NewRegistry(0, quiz.DefaultMaxHintLevels, nil)
	env := testEnv{
		handler:  NewRouter(logging.Discard(), RouterDependencies{API: NewAPIHandlers(logging.Discard(), game, sessions)}),
		sessions: sessions,
	}

	rec := env.do(t, http.MethodPost, "/quiz/sessions", roundRequest{Difficulty: "Hard"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "try again")
	assert.Equal(t, 0, sessions.Len(), "failed sessions are dropped")
}

func TestQuizUnknownSession(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/quiz/sessions/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReloadOnStaticStore(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/admin/reload", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 8, decode[statsResponse](t, rec).Players)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodGet, "/explorer/path?fromId=1&toId=3", nil)

	rec := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "separation_path_searches_total")
}

func preflight(t *testing.T, env testEnv, target, origin string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodOptions, target, nil)
	req.Header.Set("Origin", origin)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnvWith(t, nil, logging.Discard(), "http://localhost:3000")

	rec := preflight(t, env, "/players", "http://localhost:3000")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))

	rec = preflight(t, env, "/players", "http://evil.example")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCORSFollowsGameRoutes(t *testing.T) {
	env := newTestEnvWith(t, nil, logging.Discard(), " http://localhost:3000 ", "")

	rec := preflight(t, env, "/quiz/sessions/abc/guess", "http://localhost:3000")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, POST, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))

	rec = preflight(t, env, "/quiz/sessions", "http://localhost:3000")
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))

	// Admin and operational routes are never offered cross-origin.
	for _, target := range []string{"/admin/reload", "/healthz", "/metrics"} {
		rec = preflight(t, env, target, "http://localhost:3000")
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"), target)
	}

	// A plain request from an allowed origin still gets the header.
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	get := httptest.NewRecorder()
	env.handler.ServeHTTP(get, req)
	assert.Equal(t, http.StatusOK, get.Code)
	assert.Equal(t, "http://localhost:3000", get.Header().Get("Access-Control-Allow-Origin"))

	wildcard := newTestEnvWith(t, nil, logging.Discard(), "*")
	rec = preflight(t, wildcard, "/explorer/path", "http://anywhere.example")
	assert.Equal(t, "http://anywhere.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLogTagsGameRoutes(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(config.LoggingConfig{Level: "debug", Format: "json"}, &buf)
	env := newTestEnvWith(t, nil, logger)

	created := env.do(t, http.MethodPost, "/quiz/sessions", roundRequest{Difficulty: "Easy"})
	require.Equal(t, http.StatusCreated, created.Code)
	id := decode[sessionResponse](t, created).SessionID
	env.do(t, http.MethodPost, "/quiz/sessions/"+id+"/hint", nil)
	env.do(t, http.MethodGet, "/explorer/path?fromId=1&toId=3", nil)
	env.do(t, http.MethodGet, "/nowhere", nil)

	var lines []map[string]any
	for _, raw := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var line map[string]any
		require.NoError(t, json.Unmarshal(raw, &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 4)

	assert.Equal(t, "quiz", lines[0]["group"])
	assert.NotContains(t, lines[0], "session_id")

	assert.Equal(t, "quiz", lines[1]["group"])
	assert.Equal(t, id, lines[1]["session_id"])
	assert.Equal(t, "hint", lines[1]["action"])

	assert.Equal(t, "explorer", lines[2]["group"])
	assert.Equal(t, "unrouted", lines[3]["group"])
	assert.EqualValues(t, http.StatusNotFound, lines[3]["status"])
}

func TestSessionPath(t *testing.T) {
	id, action := sessionPath("/quiz/sessions/abc/guess/")
	assert.Equal(t, "abc", id)
	assert.Equal(t, "guess", action)

	id, action = sessionPath("/quiz/sessions/")
	assert.Empty(t, id)
	assert.Empty(t, action)
}

func TestHealthChecksJoinErrors(t *testing.T) {
	checks := HealthChecks{
		dataset.NewStore(nil),
		GraphHealthService{},
		nil,
	}
	err := checks.Probe(context.Background())
	assert.ErrorIs(t, err, dataset.ErrNotLoaded)
}

func intPtr(v int) *int { return &v }
