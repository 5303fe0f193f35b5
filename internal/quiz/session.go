// Package quiz holds per-session quiz progress. Sessions never touch the shared
// dataset; they only keep ids and counters.
package quiz

import (
	"errors"
	"sync"
	"time"

	"github.com/vanshika/separation/internal/domain"
	"github.com/vanshika/separation/internal/puzzle"
)

// State of a quiz round.
type State int

const (
	StateInactive State = iota
	StateActive
	StateComplete
)

// String returns the state name used in API payloads.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateComplete:
		return "complete"
	default:
		return "inactive"
	}
}

var (
	ErrNotActive       = errors.New("no active quiz")
	ErrInvalidPuzzle   = errors.New("puzzle needs at least one hidden link")
	ErrInvalidPosition = errors.New("position is not a hidden link of the chain")
	ErrAlreadyRevealed = errors.New("position already revealed")
)

// Progress is a copy of a session's state, safe to hand to callers.
type Progress struct {
	SessionID  string
	State      State
	Difficulty string
	Path       domain.Path
	Revealed   []bool
	HintLevels map[int]int
	HintsUsed  int
	Score      int
	Total      int
}

// Degrees returns the degrees of separation of the current puzzle.
func (p Progress) Degrees() int {
	return p.Path.Degrees()
}

// GuessResult reports the outcome of a guess.
type GuessResult struct {
	Correct   bool
	Completed bool
}

// Session tracks one player's quiz progress. Score and total accumulate across rounds.
type Session struct {
	mu sync.Mutex

	id            string
	maxHintLevels int
	nowFn         func() time.Time
	lastActive    time.Time

	state      State
	difficulty string
	path       domain.Path
	revealed   []bool
	hintLevels map[int]int
	hintsUsed  int
	score      int
	total      int
}

// NewSession creates an inactive session.
func NewSession(id string, maxHintLevels int, nowFn func() time.Time) *Session {
	if maxHintLevels <= 0 || maxHintLevels > DefaultMaxHintLevels {
		maxHintLevels = DefaultMaxHintLevels
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Session{
		id:            id,
		maxHintLevels: maxHintLevels,
		nowFn:         nowFn,
		lastActive:    nowFn(),
		hintLevels:    map[int]int{},
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Start begins a round with p. Allowed from any state; an active round is abandoned.
func (s *Session) Start(p puzzle.Puzzle) error {
	if len(p.Path) < 3 {
		return ErrInvalidPuzzle
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	s.state = StateActive
	s.difficulty = p.Difficulty
	s.path = append(domain.Path(nil), p.Path...)
	s.revealed = make([]bool, len(p.Path))
	s.revealed[0] = true
	s.revealed[len(p.Path)-1] = true
	s.hintLevels = map[int]int{}
	s.hintsUsed = 0
	return nil
}

// Guess checks id against the player at position. A wrong guess changes nothing.
func (s *Session) Guess(position int, id domain.PlayerID) (GuessResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkHidden(position); err != nil {
		return GuessResult{}, err
	}
	s.touch()
	if s.path[position] != id {
		return GuessResult{}, nil
	}
	s.revealed[position] = true
	s.score++
	return GuessResult{Correct: true, Completed: s.completeIfDone()}, nil
}

// Reveal gives up on position and exposes its player.
func (s *Session) Reveal(position int) (domain.PlayerID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkHidden(position); err != nil {
		return 0, false, err
	}
	s.touch()
	s.revealed[position] = true
	s.total++
	return s.path[position], s.completeIfDone(), nil
}

// NextHint returns the hint level to show for position and advances it, capped at
// the last level. Levels never go down.
func (s *Session) NextHint(position int) (domain.PlayerID, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkHidden(position); err != nil {
		return 0, 0, err
	}
	s.touch()
	level := s.hintLevels[position]
	if level < s.maxHintLevels-1 {
		s.hintLevels[position] = level + 1
	}
	s.hintsUsed++
	return s.path[position], level, nil
}

// NextHidden returns the first position still hidden.
func (s *Session) NextHidden() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return 0, false
	}
	for i, ok := range s.revealed {
		if !ok {
			return i, true
		}
	}
	return 0, false
}

// Progress returns a copy of the session state.
func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	levels := make(map[int]int, len(s.hintLevels))
	for k, v := range s.hintLevels {
		levels[k] = v
	}
	return Progress{
		SessionID:  s.id,
		State:      s.state,
		Difficulty: s.difficulty,
		Path:       append(domain.Path(nil), s.path...),
		Revealed:   append([]bool(nil), s.revealed...),
		HintLevels: levels,
		HintsUsed:  s.hintsUsed,
		Score:      s.score,
		Total:      s.total,
	}
}

// MaxHintLevels is the hint cap of this session.
func (s *Session) MaxHintLevels() int {
	return s.maxHintLevels
}

// LastActive reports the last time the session was used.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) checkHidden(position int) error {
	if s.state != StateActive {
		return ErrNotActive
	}
	if position <= 0 || position >= len(s.path)-1 {
		return ErrInvalidPosition
	}
	if s.revealed[position] {
		return ErrAlreadyRevealed
	}
	return nil
}

// completeIfDone closes the round once every position is revealed.
func (s *Session) completeIfDone() bool {
	for _, ok := range s.revealed {
		if !ok {
			return false
		}
	}
	s.total++
	s.state = StateComplete
	return true
}

func (s *Session) touch() {
	s.lastActive = s.nowFn()
}
