package domain

// DifficultyProfile constrains generated puzzles.
type DifficultyProfile struct {
	Name         string `yaml:"name" validate:"required"`
	Description  string `yaml:"description"`
	MinDegrees   int    `yaml:"min_degrees" validate:"gte=2"`
	MaxDegrees   int    `yaml:"max_degrees" validate:"gtefield=MinDegrees"`
	MinTeammates int    `yaml:"min_teammates" validate:"gte=0"`
}

// Accepts reports whether a path with the given degree count fits the profile.
func (p DifficultyProfile) Accepts(degrees int) bool {
	return degrees >= p.MinDegrees && degrees <= p.MaxDegrees
}

// Default difficulty names.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// DefaultDifficultyProfiles returns the built-in tiers in display order.
func DefaultDifficultyProfiles() []DifficultyProfile {
	return []DifficultyProfile{
		{Name: DifficultyEasy, Description: "2-3 degrees, popular players", MinDegrees: 2, MaxDegrees: 3, MinTeammates: 50},
		{Name: DifficultyMedium, Description: "3-4 degrees, mixed fame", MinDegrees: 3, MaxDegrees: 4, MinTeammates: 20},
		{Name: DifficultyHard, Description: "4-5 degrees, obscure players", MinDegrees: 4, MaxDegrees: 5, MinTeammates: 5},
	}
}
