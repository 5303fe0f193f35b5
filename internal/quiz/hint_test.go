package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vanshika/separation/internal/domain"
)

func kloseDetails() domain.PlayerDetails {
	age := 46
	return domain.PlayerDetails{
		Name:        "Miroslav Klose",
		Club:        domain.UnknownValue,
		Nationality: "Germany",
		Position:    "Attack",
		Age:         &age,
	}
}

func TestBuildHint_FirstLevel(t *testing.T) {
	h := BuildHint("Miroslav Klose", kloseDetails(), 0, 5)

	assert.Equal(t, 0, h.Level)
	assert.Equal(t, "Hint 1/5 (4 more available)", h.Header)
	assert.Equal(t, []string{"First letter: M, Name length: 14 characters"}, h.Lines)
}

func TestBuildHint_IsCumulative(t *testing.T) {
	h := BuildHint("Miroslav Klose", kloseDetails(), 4, 5)

	assert.Equal(t, "Hint 5/5 (all hints revealed!)", h.Header)
	assert.Equal(t, []string{
		"First letter: M, Name length: 14 characters",
		"Nationality: Germany",
		"Current Club: Unknown",
		"Position: Attack",
		"Age: 46 years old",
	}, h.Lines)
	assert.Contains(t, h.Body(), "\nPosition: Attack\n")
}

func TestBuildHint_UnknownAgeAndClamp(t *testing.T) {
	details := kloseDetails()
	details.Age = nil
	details.Position = ""

	h := BuildHint("Thomas Müller", details, 12, 5)
	assert.Equal(t, 4, h.Level)
	assert.Equal(t, "Position: Unknown", h.Lines[3])
	assert.Equal(t, "Age: Unknown", h.Lines[4])
	// Rune count, not byte count.
	assert.Equal(t, "First letter: T, Name length: 13 characters", h.Lines[0])

	h = BuildHint("Pelé", details, -3, 0)
	assert.Equal(t, 0, h.Level)
	assert.Equal(t, "Hint 1/5 (4 more available)", h.Header)
}

func TestBuildHint_LevelsBeyondAttributesAreCapped(t *testing.T) {
	var previous []string
	for level := 0; level < 7; level++ {
		h := BuildHint("Miroslav Klose", kloseDetails(), level, 7)
		if level < DefaultMaxHintLevels {
			assert.Len(t, h.Lines, level+1, "each level adds one attribute")
			previous = h.Lines
			continue
		}
		assert.Equal(t, previous, h.Lines)
		assert.Equal(t, "Hint 5/5 (all hints revealed!)", h.Header)
	}
}

func TestBuildHint_FewerLevelsThanAttributes(t *testing.T) {
	h := BuildHint("Miroslav Klose", kloseDetails(), 2, 3)
	assert.Equal(t, "Hint 3/3 (all hints revealed!)", h.Header)
	assert.Len(t, h.Lines, 3)
}

func TestBuildHint_ZeroAgeIsUnknown(t *testing.T) {
	details := kloseDetails()
	zero := 0
	details.Age = &zero

	h := BuildHint("Someone", details, 4, 5)
	assert.Equal(t, "Age: Unknown", h.Lines[4])
}
