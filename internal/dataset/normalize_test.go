package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/separation/internal/domain"
)

func TestCleanName(t *testing.T) {
	cases := map[string]string{
		"Miroslav Klose (10)":   "Miroslav Klose",
		"Miroslav Klose":        "Miroslav Klose",
		"  Thomas Müller (25)":  "Thomas Müller",
		"Pelé (Edson)":          "Pelé (Edson)",
		"Ronaldo (9) (12)":      "Ronaldo (9)",
	}
	for raw, want := range cases {
		assert.Equal(t, want, CleanName(raw), raw)
	}
}

func TestComputeAge(t *testing.T) {
	age := ComputeAge("1978-06-09", 2024)
	require.NotNil(t, age)
	assert.Equal(t, 46, *age)

	assert.Nil(t, ComputeAge("", 2024))
	assert.Nil(t, ComputeAge("unknown", 2024))
	assert.Nil(t, ComputeAge("n/a", 2024))

	// Only the first four characters are read.
	age = ComputeAge("1990", 2024)
	require.NotNil(t, age)
	assert.Equal(t, 34, *age)
}

func TestDisplayName(t *testing.T) {
	age := 46
	zero := 0
	assert.Equal(t, "Miroslav Klose (Unknown, 46 yrs)", DisplayName("Miroslav Klose", domain.UnknownValue, &age))
	assert.Equal(t, "Miroslav Klose (Lazio)", DisplayName("Miroslav Klose", "Lazio", nil))
	assert.Equal(t, "Miroslav Klose (Lazio)", DisplayName("Miroslav Klose", "Lazio", &zero))
}

func TestParseID(t *testing.T) {
	id, ok := parseID("123")
	assert.True(t, ok)
	assert.Equal(t, domain.PlayerID(123), id)

	id, ok = parseID("123.0")
	assert.True(t, ok)
	assert.Equal(t, domain.PlayerID(123), id)

	for _, raw := range []string{"", "abc", "1.5", "NaN"} {
		_, ok := parseID(raw)
		assert.False(t, ok, raw)
	}
}

func TestParseOptionalFloat(t *testing.T) {
	v := parseOptionalFloat("1234.5")
	require.NotNil(t, v)
	assert.Equal(t, 1234.5, *v)

	assert.Nil(t, parseOptionalFloat(""))
	assert.Nil(t, parseOptionalFloat("nan"))
	assert.Nil(t, parseOptionalFloat("lots"))
}
