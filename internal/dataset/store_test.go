package dataset

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/separation/internal/metrics"
)

func TestStore_LoadsOnceAndCaches(t *testing.T) {
	src := &tablesSource{tables: sampleTables()}
	store := NewStore(src, WithClock(func() time.Time { return year2024 }), WithMetrics(metrics.New()))

	require.ErrorIs(t, store.Probe(context.Background()), ErrNotLoaded)
	assert.Nil(t, store.Current())

	first, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	second, err := store.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, src.reads)
	assert.NoError(t, store.Probe(context.Background()))
}

func TestStore_ConcurrentFirstUse(t *testing.T) {
	src := &tablesSource{tables: sampleTables()}
	store := NewStore(src)

	var wg sync.WaitGroup
	results := make([]*Snapshot, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, err := store.Snapshot(context.Background())
			if err == nil {
				results[i] = snap
			}
		}(i)
	}
	wg.Wait()

	for _, snap := range results {
		assert.Same(t, store.Current(), snap)
	}
}

func TestStore_ReloadSwapsSnapshot(t *testing.T) {
	src := &tablesSource{tables: sampleTables()}
	store := NewStore(src)

	before, err := store.Snapshot(context.Background())
	require.NoError(t, err)

	src.tables.Players = src.tables.Players[:1]
	after, err := store.Reload(context.Background())
	require.NoError(t, err)

	assert.NotSame(t, before, after)
	assert.Len(t, after.DisplayNames, 1)
	assert.Len(t, before.DisplayNames, 3, "old snapshot is untouched")
	assert.Same(t, after, store.Current())
}

func TestStore_FailedReloadKeepsPrevious(t *testing.T) {
	src := &tablesSource{tables: sampleTables()}
	store := NewStore(src)

	before, err := store.Snapshot(context.Background())
	require.NoError(t, err)

	src.err = errors.New("disk on fire")
	_, err = store.Reload(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixture")
	assert.Same(t, before, store.Current())
}

func TestStore_FirstLoadFailure(t *testing.T) {
	store := NewStore(&tablesSource{err: errors.New("nope")})

	_, err := store.Snapshot(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, store.Probe(context.Background()), ErrNotLoaded)
}

// gatedSource blocks its first Read until release is closed; later reads return
// the reload tables immediately.
type gatedSource struct {
	entered chan struct{}
	release chan struct{}
	first   Tables
	reload  Tables
	calls   atomic.Int32
}

func (s *gatedSource) Read(context.Context) (Tables, error) {
	if s.calls.Add(1) == 1 {
		close(s.entered)
		<-s.release
		return s.first, nil
	}
	return s.reload, nil
}

func (s *gatedSource) Describe() string { return "gated" }

func TestStore_SlowFirstLoadDoesNotOverwriteReload(t *testing.T) {
	tables := sampleTables()
	src := &gatedSource{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		first:   tables,
		reload:  Tables{Players: tables.Players[:1]},
	}
	store := NewStore(src)

	type result struct {
		snap *Snapshot
		err  error
	}
	done := make(chan result, 1)
	go func() {
		snap, err := store.Snapshot(context.Background())
		done <- result{snap, err}
	}()
	<-src.entered

	reloaded, err := store.Reload(context.Background())
	require.NoError(t, err)
	require.Len(t, reloaded.DisplayNames, 1)

	close(src.release)
	res := <-done
	require.NoError(t, res.err)

	assert.Same(t, reloaded, res.snap, "first caller sees the newer snapshot")
	assert.Same(t, reloaded, store.Current())
}

func TestStaticStore(t *testing.T) {
	snap := Build(sampleTables(), year2024)
	store := NewStaticStore(snap)

	got, err := store.Reload(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap, got)
}
