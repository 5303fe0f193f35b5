package puzzle

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/separation/internal/domain"
	"github.com/vanshika/separation/internal/metrics"
)

// chain builds 1-2-...-n.
func chain(n int) (domain.Adjacency, []domain.PlayerID) {
	adj := domain.Adjacency{}
	ids := make([]domain.PlayerID, 0, n)
	for i := 1; i <= n; i++ {
		ids = append(ids, domain.PlayerID(i))
		if i > 1 {
			adj.Connect(domain.PlayerID(i-1), domain.PlayerID(i))
		}
	}
	return adj, ids
}

func profile(name string, min, max, teammates int) domain.DifficultyProfile {
	return domain.DifficultyProfile{Name: name, MinDegrees: min, MaxDegrees: max, MinTeammates: teammates}
}

func TestCandidatePool_FiltersByTeammates(t *testing.T) {
	adj, ids := chain(6)
	gen := NewGenerator(WithMinEligible(2))

	pool := gen.CandidatePool(profile("x", 1, 5, 2), ids, adj)
	assert.ElementsMatch(t, []domain.PlayerID{2, 3, 4, 5}, pool)
}

func TestCandidatePool_FallsBackToAllPlayers(t *testing.T) {
	adj, ids := chain(6)
	gen := NewGenerator(WithMinEligible(10))

	pool := gen.CandidatePool(profile("x", 1, 5, 2), ids, adj)
	assert.Equal(t, ids, pool)
}

func TestGenerate_RespectsDegreeBounds(t *testing.T) {
	adj, ids := chain(10)
	gen := NewGenerator(WithSeed(1), WithMaxAttempts(500))
	p := profile(domain.DifficultyMedium, 3, 4, 0)

	for i := 0; i < 50; i++ {
		puz, err := gen.Generate(p, ids, adj)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, puz.Degrees(), 3)
		assert.LessOrEqual(t, puz.Degrees(), 4)
		assert.NotEqual(t, puz.Start, puz.End)
		assert.Equal(t, puz.Start, puz.Path.Start())
		assert.Equal(t, puz.End, puz.Path.End())
		assert.Equal(t, puz.Degrees()-1, puz.Hidden())
		assert.Equal(t, domain.DifficultyMedium, puz.Difficulty)
		assert.Positive(t, puz.Attempts)
	}
}

func TestGenerate_SameSeedSameSequence(t *testing.T) {
	adj, ids := chain(12)
	p := profile("x", 2, 5, 0)

	a := NewGenerator(WithRand(rand.New(rand.NewSource(9))))
	b := NewGenerator(WithRand(rand.New(rand.NewSource(9))))
	for i := 0; i < 10; i++ {
		pa, err := a.Generate(p, ids, adj)
		require.NoError(t, err)
		pb, err := b.Generate(p, ids, adj)
		require.NoError(t, err)
		assert.Equal(t, pa, pb)
	}
}

func TestGenerate_Exhausted(t *testing.T) {
	adj, ids := chain(3)
	gen := NewGenerator(WithSeed(3), WithMaxAttempts(25), WithMetrics(metrics.New()))

	_, err := gen.Generate(profile(domain.DifficultyHard, 4, 5, 0), ids, adj)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestGenerate_DisconnectedPairsAreSkipped(t *testing.T) {
	adj := domain.Adjacency{}
	adj.Connect(1, 2)
	adj.Connect(3, 4)
	gen := NewGenerator(WithSeed(5), WithMaxAttempts(40))

	_, err := gen.Generate(profile("x", 2, 5, 0), []domain.PlayerID{1, 2, 3, 4}, adj)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestGenerate_EmptyPool(t *testing.T) {
	gen := NewGenerator()
	_, err := gen.Generate(profile("x", 1, 2, 0), []domain.PlayerID{1}, domain.Adjacency{})
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestPuzzleHidden(t *testing.T) {
	assert.Zero(t, Puzzle{}.Hidden())
	assert.Equal(t, 2, Puzzle{Path: domain.Path{1, 2, 3, 4}}.Hidden())
}
