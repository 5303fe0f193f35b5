// Package puzzle samples endpoint pairs whose shortest chain fits a difficulty profile.
package puzzle

import (
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/vanshika/separation/internal/domain"
	"github.com/vanshika/separation/internal/logging"
	"github.com/vanshika/separation/internal/metrics"
	"github.com/vanshika/separation/internal/pathfinder"
)

// ErrExhausted means no acceptable pair was found within the attempt budget.
// It is an expected outcome on small or sparse graphs; callers should offer a retry.
var ErrExhausted = errors.New("no puzzle found within attempt budget")

// ErrEmptyPool is returned when there are fewer than two candidates to sample from.
var ErrEmptyPool = errors.New("candidate pool has fewer than two players")

const (
	DefaultMaxAttempts = 100
	DefaultMinEligible = 100
)

// Puzzle is an accepted endpoint pair and the chain connecting them.
type Puzzle struct {
	Start      domain.PlayerID
	End        domain.PlayerID
	Path       domain.Path
	Difficulty string
	Attempts   int
}

// Degrees of separation between the endpoints.
func (p Puzzle) Degrees() int {
	return p.Path.Degrees()
}

// Hidden is the number of intermediate players to guess.
func (p Puzzle) Hidden() int {
	if len(p.Path) < 2 {
		return 0
	}
	return len(p.Path) - 2
}

// Generator draws random candidate pairs. It is safe for concurrent use.
type Generator struct {
	mu   sync.Mutex
	rand *rand.Rand

	maxAttempts int
	minEligible int
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// Option customises a Generator.
type Option func(*Generator)

// WithRand injects the random source, e.g. a seeded one for reproducible tests.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		if r != nil {
			g.rand = r
		}
	}
}

// WithSeed seeds the random source. Zero keeps the time-based seed.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		if seed != 0 {
			g.rand = rand.New(rand.NewSource(seed))
		}
	}
}

// WithMaxAttempts bounds the sampling loop.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithMinEligible sets the pool size below which the filter is abandoned.
func WithMinEligible(n int) Option {
	return func(g *Generator) {
		if n >= 0 {
			g.minEligible = n
		}
	}
}

// WithLogger sets the generator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetrics reports outcomes to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// NewGenerator returns a Generator with the default budget and a time-seeded source.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
		maxAttempts: DefaultMaxAttempts,
		minEligible: DefaultMinEligible,
		logger:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CandidatePool keeps players with at least profile.MinTeammates direct teammates.
// When that leaves fewer than the minimum eligible count, all players are returned.
func (g *Generator) CandidatePool(profile domain.DifficultyProfile, players []domain.PlayerID, adj domain.Adjacency) []domain.PlayerID {
	eligible := make([]domain.PlayerID, 0, len(players))
	for _, id := range players {
		if adj.Degree(id) >= profile.MinTeammates {
			eligible = append(eligible, id)
		}
	}
	if len(eligible) < g.minEligible {
		g.logger.Debug("candidate pool below minimum, using all players",
			"difficulty", profile.Name,
			"eligible", len(eligible),
			"minimum", g.minEligible,
		)
		return players
	}
	return eligible
}

// Generate samples pairs from pool until one's shortest path fits the profile.
func (g *Generator) Generate(profile domain.DifficultyProfile, pool []domain.PlayerID, adj domain.Adjacency) (Puzzle, error) {
	if len(pool) < 2 {
		g.metrics.ObservePuzzle(profile.Name, metrics.ResultExhausted, 0)
		return Puzzle{}, ErrEmptyPool
	}

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		a, b := g.pick(pool)
		if a == b {
			continue
		}
		path, err := pathfinder.FindPath(a, b, adj)
		if err != nil {
			continue
		}
		if profile.Accepts(path.Degrees()) {
			g.metrics.ObservePuzzle(profile.Name, metrics.ResultAccepted, attempt)
			return Puzzle{
				Start:      a,
				End:        b,
				Path:       path,
				Difficulty: profile.Name,
				Attempts:   attempt,
			}, nil
		}
	}

	g.metrics.ObservePuzzle(profile.Name, metrics.ResultExhausted, g.maxAttempts)
	g.logger.Info("puzzle generation exhausted", "difficulty", profile.Name, "attempts", g.maxAttempts, "pool", len(pool))
	return Puzzle{}, ErrExhausted
}

func (g *Generator) pick(pool []domain.PlayerID) (domain.PlayerID, domain.PlayerID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return pool[g.rand.Intn(len(pool))], pool[g.rand.Intn(len(pool))]
}
