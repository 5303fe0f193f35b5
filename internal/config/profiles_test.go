package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/separation/internal/domain"
)

const customProfiles = `
profiles:
  - name: Warmup
    description: direct neighbours of neighbours
    min_degrees: 2
    max_degrees: 2
    min_teammates: 0
  - name: Marathon
    min_degrees: 5
    max_degrees: 8
    min_teammates: 3
`

func TestLoadProfiles_DefaultsWhenUnset(t *testing.T) {
	profiles, err := LoadProfiles("")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultDifficultyProfiles(), profiles)
}

func TestLoadProfiles_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(customProfiles), 0o644))

	profiles, err := LoadProfiles(path)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "Warmup", profiles[0].Name)
	assert.True(t, profiles[0].Accepts(2))
	assert.False(t, profiles[0].Accepts(3))
	assert.Equal(t, 3, profiles[1].MinTeammates)
}

func TestLoadProfiles_MissingFile(t *testing.T) {
	_, err := LoadProfiles(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseProfiles_Validation(t *testing.T) {
	cases := map[string]string{
		"empty":          "profiles: []\n",
		"not yaml":       "profiles: [\n",
		"missing name":   "profiles:\n  - min_degrees: 2\n    max_degrees: 3\n",
		"one degree":     "profiles:\n  - name: X\n    min_degrees: 1\n    max_degrees: 3\n",
		"inverted range": "profiles:\n  - name: X\n    min_degrees: 4\n    max_degrees: 3\n",
		"duplicate":      "profiles:\n  - name: X\n    min_degrees: 2\n    max_degrees: 3\n  - name: X\n    min_degrees: 3\n    max_degrees: 4\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseProfiles([]byte(doc))
			assert.Error(t, err)
		})
	}

	_, err := ParseProfiles([]byte("profiles: []\n"))
	assert.ErrorIs(t, err, ErrNoProfiles)
}

func TestDefaultProfilesAreValid(t *testing.T) {
	for _, p := range domain.DefaultDifficultyProfiles() {
		assert.NoError(t, profileValidate.Struct(p), p.Name)
	}
}
