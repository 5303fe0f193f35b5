package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vanshika/separation/internal/logging"
	"github.com/vanshika/separation/internal/metrics"
)

// ErrNotLoaded is returned by probes before the first successful load.
var ErrNotLoaded = errors.New("dataset not loaded")

const (
	flightLoad   = "load"
	flightReload = "reload"
)

// Store caches the snapshot for the lifetime of the process. Reload swaps in a
// freshly built snapshot atomically; readers never observe a partial update.
type Store struct {
	source  Source
	logger  *slog.Logger
	metrics *metrics.Metrics
	nowFn   func() time.Time

	current atomic.Pointer[Snapshot]
	flight  singleflight.Group
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics reports loads to m.
func WithMetrics(m *metrics.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// WithClock overrides the time provider used for age computation.
func WithClock(nowFn func() time.Time) StoreOption {
	return func(s *Store) {
		if nowFn != nil {
			s.nowFn = nowFn
		}
	}
}

// NewStore constructs a Store around src. Nothing is read until the first Snapshot call.
func NewStore(src Source, opts ...StoreOption) *Store {
	s := &Store{
		source: src,
		logger: logging.Discard(),
		nowFn:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewStaticStore wraps an already built snapshot; Reload is a no-op returning it.
func NewStaticStore(snap *Snapshot) *Store {
	s := NewStore(nil)
	s.current.Store(snap)
	return s
}

// Snapshot returns the cached snapshot, loading it on first use.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}
	v, err, _ := s.flight.Do(flightLoad, func() (any, error) {
		if snap := s.current.Load(); snap != nil {
			return snap, nil
		}
		return s.load(ctx, true)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Current returns the cached snapshot without loading, or nil.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Reload rebuilds the snapshot from the source. On failure the previous snapshot stays active.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	if s.source == nil {
		if snap := s.current.Load(); snap != nil {
			return snap, nil
		}
		return nil, ErrNotLoaded
	}
	v, err, _ := s.flight.Do(flightReload, func() (any, error) {
		return s.load(ctx, false)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Probe reports whether a snapshot is available.
func (s *Store) Probe(context.Context) error {
	if s.current.Load() == nil {
		return ErrNotLoaded
	}
	return nil
}

// load builds a snapshot from the source. A first load only publishes into an
// empty store; when a reload finished in the meantime its newer snapshot wins.
func (s *Store) load(ctx context.Context, first bool) (*Snapshot, error) {
	if s.source == nil {
		return nil, ErrNotLoaded
	}
	start := s.nowFn()
	snap, err := Load(ctx, s.source, start)
	if err != nil {
		s.metrics.ObserveLoad(err, 0, 0)
		s.logger.Error("dataset load failed", "source", s.source.Describe(), "error", err)
		return nil, fmt.Errorf("load dataset from %s: %w", s.source.Describe(), err)
	}

	if first {
		if !s.current.CompareAndSwap(nil, snap) {
			s.logger.Debug("initial load superseded by reload, keeping newer snapshot")
			return s.current.Load(), nil
		}
	} else {
		s.current.Store(snap)
	}

	summary := snap.Summary()
	s.metrics.ObserveLoad(nil, summary.Players, summary.Connections)
	s.logger.Info("dataset loaded",
		"source", snap.SourceDetail,
		"players", summary.Players,
		"connections", summary.Connections,
		"dropped_rows", snap.DroppedRows,
		"duration", time.Since(start).String(),
	)
	return snap, nil
}
