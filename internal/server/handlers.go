package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vanshika/separation/internal/dataset"
	"github.com/vanshika/separation/internal/domain"
	"github.com/vanshika/separation/internal/pathfinder"
	"github.com/vanshika/separation/internal/puzzle"
	"github.com/vanshika/separation/internal/quiz"
	"github.com/vanshika/separation/internal/service"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 200
)

// APIHandlers bundles HTTP handlers for the explorer and quiz endpoints.
type APIHandlers struct {
	logger   *slog.Logger
	game     *service.Game
	sessions *quiz.Registry
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, game *service.Game, sessions *quiz.Registry) *APIHandlers {
	return &APIHandlers{
		logger:   logger,
		game:     game,
		sessions: sessions,
	}
}

func (h *APIHandlers) handlePlayers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	query := r.URL.Query()
	limit := searchLimit(query.Get("limit"))
	players, err := h.game.SearchPlayers(r.Context(), query.Get("search"), limit)
	if err != nil {
		h.writeServiceError(w, err, "failed to search players")
		return
	}

	items := make([]playerResponse, 0, len(players))
	for _, p := range players {
		items = append(items, playerResponse{
			ID:          int64(p.ID),
			Name:        p.Name,
			Display:     p.Display,
			Club:        p.Club,
			Connections: p.Connections,
		})
	}
	respondJSON(w, http.StatusOK, playersResponse{Items: items})
}

func (h *APIHandlers) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	stats, err := h.game.Stats(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "failed to load dataset")
		return
	}
	respondJSON(w, http.StatusOK, toStatsResponse(stats))
}

func (h *APIHandlers) handleDifficulties(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	profiles := h.game.Profiles()
	items := make([]difficultyResponse, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, difficultyResponse{
			Name:         p.Name,
			Description:  p.Description,
			MinDegrees:   p.MinDegrees,
			MaxDegrees:   p.MaxDegrees,
			MinTeammates: p.MinTeammates,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *APIHandlers) handleExplorerPath(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	query := r.URL.Query()
	var (
		conn service.Connection
		err  error
	)
	if query.Get("fromId") != "" || query.Get("toId") != "" {
		fromID, errFrom := strconv.ParseInt(query.Get("fromId"), 10, 64)
		toID, errTo := strconv.ParseInt(query.Get("toId"), 10, 64)
		if errFrom != nil || errTo != nil {
			writeError(w, http.StatusBadRequest, "fromId and toId must be integers")
			return
		}
		conn, err = h.game.FindPath(r.Context(), domain.PlayerID(fromID), domain.PlayerID(toID))
	} else {
		conn, err = h.game.Explore(r.Context(), query.Get("from"), query.Get("to"))
	}
	if err != nil {
		h.writeServiceError(w, err, "failed to find connection")
		return
	}

	respondJSON(w, http.StatusOK, toConnectionResponse(conn))
}

func (h *APIHandlers) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	stats, err := h.game.Reload(r.Context())
	if err != nil {
		h.logger.Error("dataset reload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "reload failed, previous dataset kept")
		return
	}
	respondJSON(w, http.StatusOK, toStatsResponse(stats))
}

func (h *APIHandlers) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req roundRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session := h.sessions.Create()
	if _, err := h.game.StartRound(r.Context(), session, req.Difficulty); err != nil {
		h.sessions.Delete(session.ID())
		h.writeServiceError(w, err, "failed to start quiz")
		return
	}
	h.respondSession(w, r, http.StatusCreated, session)
}

// handleSession dispatches /quiz/sessions/{id}[/{action}].
func (h *APIHandlers) handleSession(w http.ResponseWriter, r *http.Request) {
	id, action := sessionPath(r.URL.Path)
	if id == "" {
		writeError(w, http.StatusBadRequest, "session ID is required")
		return
	}

	session, ok := h.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "quiz session not found or expired")
		return
	}

	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.respondSession(w, r, http.StatusOK, session)
		case http.MethodDelete:
			h.sessions.Delete(id)
			w.WriteHeader(http.StatusNoContent)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodDelete)
		}
	case "rounds":
		h.postOnly(w, r, func() { h.nextRound(w, r, session) })
	case "guess":
		h.postOnly(w, r, func() { h.guess(w, r, session) })
	case "hint":
		h.postOnly(w, r, func() { h.hint(w, r, session) })
	case "reveal":
		h.postOnly(w, r, func() { h.reveal(w, r, session) })
	default:
		writeError(w, http.StatusNotFound, "unknown quiz action")
	}
}

func (h *APIHandlers) postOnly(w http.ResponseWriter, r *http.Request, fn func()) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	fn()
}

func (h *APIHandlers) nextRound(w http.ResponseWriter, r *http.Request, session *quiz.Session) {
	var req roundRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Difficulty == "" {
		req.Difficulty = session.Progress().Difficulty
	}
	if _, err := h.game.StartRound(r.Context(), session, req.Difficulty); err != nil {
		h.writeServiceError(w, err, "failed to start round")
		return
	}
	h.respondSession(w, r, http.StatusOK, session)
}

func (h *APIHandlers) guess(w http.ResponseWriter, r *http.Request, session *quiz.Session) {
	var req guessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	position := -1
	if req.Position != nil {
		position = *req.Position
	}

	out, err := h.game.Guess(r.Context(), session, position, req.Display)
	if err != nil {
		h.writeServiceError(w, err, "failed to check guess")
		return
	}

	snap, err := h.game.Load(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "failed to load dataset")
		return
	}
	respondJSON(w, http.StatusOK, guessResponse{
		Position:  out.Position,
		Correct:   out.Correct,
		Completed: out.Completed,
		Session:   toSessionResponse(session, snap),
	})
}

func (h *APIHandlers) hint(w http.ResponseWriter, r *http.Request, session *quiz.Session) {
	var req positionRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	position, ok := resolvePosition(req.Position, session)
	if !ok {
		h.writeServiceError(w, quiz.ErrNotActive, "")
		return
	}

	hint, err := h.game.Hint(r.Context(), session, position)
	if err != nil {
		h.writeServiceError(w, err, "failed to build hint")
		return
	}
	respondJSON(w, http.StatusOK, hintResponse{
		Position: position,
		Level:    hint.Level,
		Header:   hint.Header,
		Lines:    hint.Lines,
	})
}

func (h *APIHandlers) reveal(w http.ResponseWriter, r *http.Request, session *quiz.Session) {
	var req positionRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	position, ok := resolvePosition(req.Position, session)
	if !ok {
		h.writeServiceError(w, quiz.ErrNotActive, "")
		return
	}

	id, completed, err := session.Reveal(position)
	if err != nil {
		h.writeServiceError(w, err, "failed to reveal player")
		return
	}
	snap, err := h.game.Load(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "failed to load dataset")
		return
	}
	respondJSON(w, http.StatusOK, revealResponse{
		Position:  position,
		PlayerID:  int64(id),
		Name:      snap.Name(id),
		Completed: completed,
		Session:   toSessionResponse(session, snap),
	})
}

func (h *APIHandlers) respondSession(w http.ResponseWriter, r *http.Request, status int, session *quiz.Session) {
	snap, err := h.game.Load(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "failed to load dataset")
		return
	}
	respondJSON(w, status, toSessionResponse(session, snap))
}

// writeServiceError maps expected game outcomes onto client errors; anything
// else is logged and reported as fallback.
func (h *APIHandlers) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrMissingPlayer),
		errors.Is(err, service.ErrSamePlayer),
		errors.Is(err, quiz.ErrInvalidPosition):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, pathfinder.ErrNotFound):
		writeError(w, http.StatusNotFound, "no connection found between these players")
	case errors.Is(err, puzzle.ErrExhausted):
		writeError(w, http.StatusConflict, "could not generate a puzzle at this difficulty, try again")
	case errors.Is(err, quiz.ErrNotActive),
		errors.Is(err, quiz.ErrAlreadyRevealed),
		errors.Is(err, quiz.ErrInvalidPuzzle):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnknownPlayer):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, dataset.ErrNotLoaded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error(fallback, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func resolvePosition(requested *int, session *quiz.Session) (int, bool) {
	if requested != nil {
		return *requested, true
	}
	return session.NextHidden()
}

type playersResponse struct {
	Items []playerResponse `json:"items"`
}

type playerResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Display     string `json:"display"`
	Club        string `json:"club"`
	Connections int    `json:"connections"`
}

type statsResponse struct {
	Players     int    `json:"players"`
	Connections int    `json:"connections"`
	DroppedRows int    `json:"droppedRows"`
	Source      string `json:"source,omitempty"`
	LoadedAt    string `json:"loadedAt,omitempty"`
}

type difficultyResponse struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	MinDegrees   int    `json:"minDegrees"`
	MaxDegrees   int    `json:"maxDegrees"`
	MinTeammates int    `json:"minTeammates"`
}

type connectionResponse struct {
	Degrees int            `json:"degrees"`
	Path    []pathNode     `json:"path"`
	Links   []linkResponse `json:"links"`
}

type pathNode struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type linkResponse struct {
	From       int64    `json:"from"`
	To         int64    `json:"to"`
	Minutes    *float64 `json:"minutes,omitempty"`
	JointGoals *float64 `json:"jointGoals,omitempty"`
	Summary    string   `json:"summary,omitempty"`
}

type roundRequest struct {
	Difficulty string `json:"difficulty"`
}

type guessRequest struct {
	Position *int   `json:"position"`
	Display  string `json:"display"`
}

type positionRequest struct {
	Position *int `json:"position"`
}

type sessionResponse struct {
	SessionID  string      `json:"sessionId"`
	State      string      `json:"state"`
	Difficulty string      `json:"difficulty,omitempty"`
	Degrees    int         `json:"degrees"`
	Score      int         `json:"score"`
	Total      int         `json:"total"`
	HintsUsed  int         `json:"hintsUsed"`
	NextHidden *int        `json:"nextHidden,omitempty"`
	Chain      []chainSlot `json:"chain"`
}

type chainSlot struct {
	Position  int    `json:"position"`
	Revealed  bool   `json:"revealed"`
	PlayerID  *int64 `json:"playerId,omitempty"`
	Name      string `json:"name,omitempty"`
	Display   string `json:"display,omitempty"`
	HintLevel int    `json:"hintLevel,omitempty"`
}

type guessResponse struct {
	Position  int             `json:"position"`
	Correct   bool            `json:"correct"`
	Completed bool            `json:"completed"`
	Session   sessionResponse `json:"session"`
}

type hintResponse struct {
	Position int      `json:"position"`
	Level    int      `json:"level"`
	Header   string   `json:"header"`
	Lines    []string `json:"lines"`
}

type revealResponse struct {
	Position  int             `json:"position"`
	PlayerID  int64           `json:"playerId"`
	Name      string          `json:"name"`
	Completed bool            `json:"completed"`
	Session   sessionResponse `json:"session"`
}

func toStatsResponse(stats service.DatasetStats) statsResponse {
	return statsResponse{
		Players:     stats.Players,
		Connections: stats.Connections,
		DroppedRows: stats.DroppedRows,
		Source:      stats.Source,
		LoadedAt:    formatTime(stats.LoadedAt),
	}
}

func toConnectionResponse(conn service.Connection) connectionResponse {
	resp := connectionResponse{
		Degrees: conn.Degrees,
		Path:    make([]pathNode, 0, len(conn.Path)),
		Links:   make([]linkResponse, 0, len(conn.Links)),
	}
	for i, id := range conn.Path {
		resp.Path = append(resp.Path, pathNode{ID: int64(id), Name: conn.Names[i]})
	}
	for _, l := range conn.Links {
		resp.Links = append(resp.Links, linkResponse{
			From:       int64(l.From),
			To:         int64(l.To),
			Minutes:    l.Minutes,
			JointGoals: l.JointGoals,
			Summary:    l.Summary,
		})
	}
	return resp
}

// toSessionResponse exposes revealed players only; hidden slots carry their hint level.
func toSessionResponse(session *quiz.Session, snap *dataset.Snapshot) sessionResponse {
	p := session.Progress()
	resp := sessionResponse{
		SessionID:  p.SessionID,
		State:      p.State.String(),
		Difficulty: p.Difficulty,
		Degrees:    p.Degrees(),
		Score:      p.Score,
		Total:      p.Total,
		HintsUsed:  p.HintsUsed,
		Chain:      make([]chainSlot, 0, len(p.Path)),
	}
	if next, ok := session.NextHidden(); ok {
		resp.NextHidden = &next
	}
	for i, id := range p.Path {
		slot := chainSlot{Position: i, Revealed: p.Revealed[i]}
		if slot.Revealed {
			pid := int64(id)
			slot.PlayerID = &pid
			slot.Name = snap.Name(id)
			slot.Display = snap.IDToDisplay[id]
		} else {
			slot.HintLevel = p.HintLevels[i]
		}
		resp.Chain = append(resp.Chain, slot)
	}
	return resp
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

// decodeOptionalJSON accepts an empty body and leaves dst untouched.
func decodeOptionalJSON(r *http.Request, dst any) error {
	err := decodeJSON(r, dst)
	if err == nil || errors.Is(err, io.EOF) || r.Body == nil {
		return nil
	}
	return err
}

// searchLimit defaults missing or non-positive limits and caps large ones.
func searchLimit(raw string) int {
	limit := parseInt(raw, defaultSearchLimit)
	if limit <= 0 {
		return defaultSearchLimit
	}
	return min(limit, maxSearchLimit)
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
