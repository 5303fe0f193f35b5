package service

import (
	"time"

	"github.com/vanshika/separation/internal/domain"
)

// Connection is a resolved chain between two players, ready for presentation.
type Connection struct {
	Start   domain.PlayerID
	End     domain.PlayerID
	Path    domain.Path
	Names   []string
	Degrees int
	Links   []ConnectionLink
}

// ConnectionLink describes one "played with" hop of a chain.
type ConnectionLink struct {
	From       domain.PlayerID
	To         domain.PlayerID
	Minutes    *float64
	JointGoals *float64
	// Summary is empty when neither stat is known or both are zero.
	Summary string
}

// DatasetStats is the header information for the loaded dataset.
type DatasetStats struct {
	Players     int
	Connections int
	DroppedRows int
	Source      string
	LoadedAt    time.Time
}

// GuessOutcome reports a quiz guess made by display string.
type GuessOutcome struct {
	Position  int
	GuessedID domain.PlayerID
	Correct   bool
	Completed bool
}
