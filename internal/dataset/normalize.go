package dataset

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/vanshika/separation/internal/domain"
)

var disambiguatorRegex = regexp.MustCompile(`\s*\(\d+\)$`)

// CleanName strips a trailing numeric disambiguator such as " (123)".
func CleanName(raw string) string {
	return strings.TrimSpace(disambiguatorRegex.ReplaceAllString(raw, ""))
}

// BirthYear parses the year from the first four characters of a date of birth.
func BirthYear(dob string) (int, bool) {
	dob = strings.TrimSpace(dob)
	if dob == "" {
		return 0, false
	}
	if len(dob) > 4 {
		dob = dob[:4]
	}
	year, err := strconv.Atoi(strings.TrimSpace(dob))
	if err != nil {
		return 0, false
	}
	return year, true
}

// ComputeAge returns currentYear minus the birth year, or nil when the date is unusable.
func ComputeAge(dob string, currentYear int) *int {
	year, ok := BirthYear(dob)
	if !ok {
		return nil
	}
	age := currentYear - year
	return &age
}

// DisplayName renders the disambiguated label, e.g. "Miroslav Klose (Unknown, 48 yrs)".
func DisplayName(name, club string, age *int) string {
	if age != nil && *age != 0 {
		return fmt.Sprintf("%s (%s, %d yrs)", name, club, *age)
	}
	return fmt.Sprintf("%s (%s)", name, club)
}

func valueOrUnknown(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || isMissingToken(v) {
		return domain.UnknownValue
	}
	return v
}

func isMissingToken(v string) bool {
	switch strings.ToLower(v) {
	case "nan", "null", "none", "n/a":
		return true
	}
	return false
}

// parseID accepts integer ids, including float-formatted ones like "123.0".
func parseID(raw string) (domain.PlayerID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return domain.PlayerID(v), true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return domain.PlayerID(int64(f)), true
}

func parseOptionalFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || isMissingToken(raw) {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return nil
	}
	return &f
}

func formatID(id domain.PlayerID) string {
	return strconv.FormatInt(int64(id), 10)
}
