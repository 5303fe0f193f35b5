package quiz

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vanshika/separation/internal/metrics"
)

// Registry keeps quiz sessions isolated per client. Idle sessions expire after ttl.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl           time.Duration
	maxHintLevels int
	nowFn         func() time.Time
	metrics       *metrics.Metrics
}

// NewRegistry creates an empty registry. A non-positive ttl disables expiry.
func NewRegistry(ttl time.Duration, maxHintLevels int, m *metrics.Metrics) *Registry {
	return &Registry{
		sessions:      make(map[string]*Session),
		ttl:           ttl,
		maxHintLevels: maxHintLevels,
		nowFn:         time.Now,
		metrics:       m,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (r *Registry) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		r.nowFn = nowFn
	}
}

// Create registers a new inactive session under a random id.
func (r *Registry) Create() *Session {
	s := NewSession(uuid.NewString(), r.maxHintLevels, r.nowFn)

	r.mu.Lock()
	r.sessions[s.ID()] = s
	n := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetSessions(n)
	return s
}

// Get returns a live session.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok || r.expired(s) {
		return nil, false
	}
	return s, true
}

// Delete drops a session.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()
	r.metrics.SetSessions(n)
}

// Sweep removes expired sessions and returns how many were dropped.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	removed := 0
	for id, s := range r.sessions {
		if r.expired(s) {
			delete(r.sessions, id)
			removed++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetSessions(n)
	return removed
}

// Len returns the number of tracked sessions, expired or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) expired(s *Session) bool {
	if r.ttl <= 0 {
		return false
	}
	return r.nowFn().Sub(s.LastActive()) > r.ttl
}
