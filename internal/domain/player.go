package domain

// PlayerID is the externally assigned identifier of a player.
type PlayerID int64

// UnknownValue is used for textual attributes that are missing in the source data.
const UnknownValue = "Unknown"

// PlayerDetails captures the attributes surfaced in hints and player listings.
type PlayerDetails struct {
	Name           string
	Club           string
	Nationality    string
	Position       string
	CountryOfBirth string
	Age            *int
	BirthYear      *int
}

// HasAge reports whether a usable age is known for the player.
func (d PlayerDetails) HasAge() bool {
	return d.Age != nil && *d.Age != 0
}

// PlayerSummary is the lightweight view used for search results.
type PlayerSummary struct {
	ID          PlayerID
	Name        string
	Display     string
	Club        string
	Connections int
}
