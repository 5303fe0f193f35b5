package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vanshika/separation/internal/dataset"
	"github.com/vanshika/separation/internal/domain"
	"github.com/vanshika/separation/internal/logging"
	"github.com/vanshika/separation/internal/metrics"
	"github.com/vanshika/separation/internal/pathfinder"
	"github.com/vanshika/separation/internal/puzzle"
	"github.com/vanshika/separation/internal/quiz"
)

var (
	// ErrMissingPlayer means one of the two explorer selections is empty.
	ErrMissingPlayer = errors.New("select both players")
	// ErrSamePlayer means both explorer selections name the same player.
	ErrSamePlayer = errors.New("that's the same player, select two different players")
	// ErrUnknownPlayer means a display string or id is not in the loaded dataset.
	ErrUnknownPlayer = errors.New("could not find one or both players")
)

// SnapshotProvider is the dataset contract required by the game service.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (*dataset.Snapshot, error)
	Reload(ctx context.Context) (*dataset.Snapshot, error)
}

// Game is the narrow interface the presentation layers call into. It is safe
// for concurrent use; every call works against one immutable snapshot.
type Game struct {
	store         SnapshotProvider
	generator     *puzzle.Generator
	profiles      []domain.DifficultyProfile
	byName        map[string]domain.DifficultyProfile
	maxHintLevels int

	logger  *slog.Logger
	metrics *metrics.Metrics
	nowFn   func() time.Time
	printer *message.Printer
}

// GameOption customises a Game.
type GameOption func(*Game)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) GameOption {
	return func(g *Game) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics reports path searches to m.
func WithMetrics(m *metrics.Metrics) GameOption {
	return func(g *Game) { g.metrics = m }
}

// WithMaxHintLevels sets the number of hint levels used when rendering hints.
func WithMaxHintLevels(n int) GameOption {
	return func(g *Game) {
		if n > 0 {
			g.maxHintLevels = n
		}
	}
}

// NewGame wires the dataset store, generator and difficulty tiers together.
// Nil or empty profiles fall back to the built-in tiers.
func NewGame(store SnapshotProvider, generator *puzzle.Generator, profiles []domain.DifficultyProfile, opts ...GameOption) *Game {
	if generator == nil {
		generator = puzzle.NewGenerator()
	}
	if len(profiles) == 0 {
		profiles = domain.DefaultDifficultyProfiles()
	}
	g := &Game{
		store:         store,
		generator:     generator,
		profiles:      profiles,
		byName:        make(map[string]domain.DifficultyProfile, len(profiles)),
		maxHintLevels: quiz.DefaultMaxHintLevels,
		logger:        logging.Discard(),
		nowFn:         time.Now,
		printer:       message.NewPrinter(language.English),
	}
	for _, p := range profiles {
		g.byName[p.Name] = p
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithClock overrides the time provider (used primarily in tests).
func (g *Game) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		g.nowFn = nowFn
	}
}

// Load returns the cached dataset, reading it on first use.
func (g *Game) Load(ctx context.Context) (*dataset.Snapshot, error) {
	return g.store.Snapshot(ctx)
}

// Reload rebuilds the dataset from its source.
func (g *Game) Reload(ctx context.Context) (DatasetStats, error) {
	snap, err := g.store.Reload(ctx)
	if err != nil {
		return DatasetStats{}, err
	}
	return statsOf(snap), nil
}

// Stats returns the player and connection counts of the loaded dataset.
func (g *Game) Stats(ctx context.Context) (DatasetStats, error) {
	snap, err := g.store.Snapshot(ctx)
	if err != nil {
		return DatasetStats{}, err
	}
	return statsOf(snap), nil
}

// SearchPlayers lists players whose display string contains query.
func (g *Game) SearchPlayers(ctx context.Context, query string, limit int) ([]domain.PlayerSummary, error) {
	snap, err := g.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Search(query, limit), nil
}

// Profiles returns the configured difficulty tiers in their configured order.
func (g *Game) Profiles() []domain.DifficultyProfile {
	return append([]domain.DifficultyProfile(nil), g.profiles...)
}

// Profile resolves a tier by name. Unknown names resolve to Medium, or the
// first configured tier when Medium is not configured.
func (g *Game) Profile(name string) domain.DifficultyProfile {
	if p, ok := g.byName[name]; ok {
		return p
	}
	if p, ok := g.byName[domain.DifficultyMedium]; ok {
		return p
	}
	return g.profiles[0]
}

// FindPath resolves the shortest chain between two player ids. Any id is a
// graph node: one without teammates only reaches itself, and ids missing from
// the player table render by number.
func (g *Game) FindPath(ctx context.Context, startID, endID domain.PlayerID) (Connection, error) {
	snap, err := g.store.Snapshot(ctx)
	if err != nil {
		return Connection{}, err
	}
	return g.connect(snap, startID, endID)
}

// Explore validates two display strings and finds the chain between them.
func (g *Game) Explore(ctx context.Context, displayA, displayB string) (Connection, error) {
	displayA = strings.TrimSpace(displayA)
	displayB = strings.TrimSpace(displayB)
	if displayA == "" || displayB == "" {
		return Connection{}, ErrMissingPlayer
	}
	if displayA == displayB {
		g.metrics.ObservePath(metrics.ResultSame, 0, 0)
		return Connection{}, ErrSamePlayer
	}

	snap, err := g.store.Snapshot(ctx)
	if err != nil {
		return Connection{}, err
	}
	startID, okA := snap.Lookup(displayA)
	endID, okB := snap.Lookup(displayB)
	if !okA || !okB {
		return Connection{}, ErrUnknownPlayer
	}
	return g.connect(snap, startID, endID)
}

func (g *Game) connect(snap *dataset.Snapshot, startID, endID domain.PlayerID) (Connection, error) {
	started := g.nowFn()
	path, err := pathfinder.FindPath(startID, endID, snap.Adjacency)
	elapsed := g.nowFn().Sub(started)
	if err != nil {
		g.metrics.ObservePath(metrics.ResultNotFound, 0, elapsed)
		g.logger.Debug("no connection", "start", startID, "end", endID)
		return Connection{}, err
	}
	g.metrics.ObservePath(metrics.ResultFound, path.Degrees(), elapsed)
	return g.describe(snap, path), nil
}

func (g *Game) describe(snap *dataset.Snapshot, path domain.Path) Connection {
	conn := Connection{
		Start:   path.Start(),
		End:     path.End(),
		Path:    path,
		Names:   make([]string, len(path)),
		Degrees: path.Degrees(),
	}
	for i, id := range path {
		conn.Names[i] = snap.Name(id)
		if i == len(path)-1 {
			break
		}
		next := path[i+1]
		link := ConnectionLink{From: id, To: next}
		if st, ok := snap.Stats(id, next); ok {
			link.Minutes = st.Minutes
			link.JointGoals = st.JointGoals
			link.Summary = g.linkSummary(st)
		}
		conn.Links = append(conn.Links, link)
	}
	return conn
}

// linkSummary renders e.g. "1,234 mins together • 3 joint goals". Zero values are omitted.
func (g *Game) linkSummary(st domain.TeammateStats) string {
	var parts []string
	if st.Minutes != nil && int64(*st.Minutes) != 0 {
		parts = append(parts, g.printer.Sprintf("%d mins together", int64(*st.Minutes)))
	}
	if st.JointGoals != nil && int64(*st.JointGoals) != 0 {
		parts = append(parts, fmt.Sprintf("%d joint goals", int64(*st.JointGoals)))
	}
	return strings.Join(parts, " • ")
}

// GeneratePuzzle samples a pair whose shortest chain fits the named difficulty.
func (g *Game) GeneratePuzzle(ctx context.Context, difficulty string) (puzzle.Puzzle, error) {
	snap, err := g.store.Snapshot(ctx)
	if err != nil {
		return puzzle.Puzzle{}, err
	}
	profile := g.Profile(difficulty)
	pool := g.generator.CandidatePool(profile, snap.CandidateIDs(), snap.Adjacency)
	p, err := g.generator.Generate(profile, pool, snap.Adjacency)
	if errors.Is(err, puzzle.ErrEmptyPool) {
		return puzzle.Puzzle{}, fmt.Errorf("%w: %w", puzzle.ErrExhausted, err)
	}
	return p, err
}

// BuildHint renders the cumulative hint text for a hidden player at level.
func (g *Game) BuildHint(ctx context.Context, id domain.PlayerID, level int) (quiz.Hint, error) {
	snap, err := g.store.Snapshot(ctx)
	if err != nil {
		return quiz.Hint{}, err
	}
	details, ok := snap.Details[id]
	if !ok {
		return quiz.Hint{}, fmt.Errorf("player %d: %w", id, ErrUnknownPlayer)
	}
	return quiz.BuildHint(snap.Name(id), details, level, g.maxHintLevels), nil
}

// StartRound generates a puzzle and starts it on session.
func (g *Game) StartRound(ctx context.Context, session *quiz.Session, difficulty string) (puzzle.Puzzle, error) {
	p, err := g.GeneratePuzzle(ctx, difficulty)
	if err != nil {
		return puzzle.Puzzle{}, err
	}
	if err := session.Start(p); err != nil {
		return puzzle.Puzzle{}, err
	}
	g.logger.Debug("quiz round started",
		"session", session.ID(),
		"difficulty", p.Difficulty,
		"degrees", p.Degrees(),
		"attempts", p.Attempts,
	)
	return p, nil
}

// Guess resolves display and checks it against the hidden player at position.
// A negative position targets the first hidden player.
func (g *Game) Guess(ctx context.Context, session *quiz.Session, position int, display string) (GuessOutcome, error) {
	snap, err := g.store.Snapshot(ctx)
	if err != nil {
		return GuessOutcome{}, err
	}
	id, ok := snap.Lookup(strings.TrimSpace(display))
	if !ok {
		return GuessOutcome{}, ErrUnknownPlayer
	}
	if position < 0 {
		next, ok := session.NextHidden()
		if !ok {
			return GuessOutcome{}, quiz.ErrNotActive
		}
		position = next
	}
	res, err := session.Guess(position, id)
	if err != nil {
		return GuessOutcome{}, err
	}
	return GuessOutcome{Position: position, GuessedID: id, Correct: res.Correct, Completed: res.Completed}, nil
}

// Hint advances the hint level at position and renders the hint for the level before the advance.
func (g *Game) Hint(ctx context.Context, session *quiz.Session, position int) (quiz.Hint, error) {
	id, level, err := session.NextHint(position)
	if err != nil {
		return quiz.Hint{}, err
	}
	return g.BuildHint(ctx, id, level)
}

func statsOf(snap *dataset.Snapshot) DatasetStats {
	summary := snap.Summary()
	return DatasetStats{
		Players:     summary.Players,
		Connections: summary.Connections,
		DroppedRows: snap.DroppedRows,
		Source:      snap.SourceDetail,
		LoadedAt:    summary.LoadedAt,
	}
}
