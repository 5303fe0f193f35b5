package quiz

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vanshika/separation/internal/domain"
)

// DefaultMaxHintLevels is the number of progressively richer hints per position.
// Each level adds one attribute, so it is also the most a session can offer.
const DefaultMaxHintLevels = 5

// Hint is the cumulative clue shown for a hidden player at a given level.
type Hint struct {
	Level  int
	Header string
	Lines  []string
}

// Body joins the hint lines for plain-text display.
func (h Hint) Body() string {
	return strings.Join(h.Lines, "\n")
}

// BuildHint renders the clue for level. Every level repeats the previous lines and
// adds one attribute: name shape, then nationality, club, position and age.
func BuildHint(name string, details domain.PlayerDetails, level, maxLevels int) Hint {
	if maxLevels <= 0 || maxLevels > DefaultMaxHintLevels {
		maxLevels = DefaultMaxHintLevels
	}
	level = clampLevel(level, maxLevels)
	if name == "" {
		name = domain.UnknownValue
	}

	first, _ := utf8.DecodeRuneInString(name)
	lines := []string{
		fmt.Sprintf("First letter: %c, Name length: %d characters", first, utf8.RuneCountInString(name)),
	}
	if level >= 1 {
		lines = append(lines, "Nationality: "+orUnknown(details.Nationality))
	}
	if level >= 2 {
		lines = append(lines, "Current Club: "+orUnknown(details.Club))
	}
	if level >= 3 {
		lines = append(lines, "Position: "+orUnknown(details.Position))
	}
	if level >= 4 {
		if details.HasAge() {
			lines = append(lines, fmt.Sprintf("Age: %d years old", *details.Age))
		} else {
			lines = append(lines, "Age: "+domain.UnknownValue)
		}
	}

	header := fmt.Sprintf("Hint %d/%d", level+1, maxLevels)
	if remaining := maxLevels - (level + 1); remaining > 0 {
		header += fmt.Sprintf(" (%d more available)", remaining)
	} else {
		header += " (all hints revealed!)"
	}

	return Hint{Level: level, Header: header, Lines: lines}
}

func clampLevel(level, maxLevels int) int {
	if level < 0 {
		return 0
	}
	if level > maxLevels-1 {
		return maxLevels - 1
	}
	return level
}

func orUnknown(v string) string {
	if v == "" {
		return domain.UnknownValue
	}
	return v
}
