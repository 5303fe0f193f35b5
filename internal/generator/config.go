package generator

// Config drives the synthetic football data generator.
type Config struct {
	NumPlayers int
	NumClubs   int
	Seasons    int
	// PairChance is the probability that two squad mates actually shared the pitch.
	PairChance float64
	// MissingClubChance blanks the current club to exercise the Unknown fallback.
	MissingClubChance float64
	// BadDOBChance writes an unparsable birth date.
	BadDOBChance float64
	Seed         int64
}

// DefaultConfig returns settings that give a connected graph with several degrees of separation.
func DefaultConfig() Config {
	return Config{
		NumPlayers:        1500,
		NumClubs:          60,
		Seasons:           6,
		PairChance:        0.35,
		MissingClubChance: 0.05,
		BadDOBChance:      0.03,
		Seed:              42,
	}
}
