package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vanshika/separation/internal/domain"
)

var profileValidate = validator.New()

// ErrNoProfiles indicates a profiles file that defines no tiers.
var ErrNoProfiles = errors.New("profiles file defines no difficulty tiers")

type profilesFile struct {
	Profiles []domain.DifficultyProfile `yaml:"profiles"`
}

// LoadProfiles returns the difficulty tiers. An empty path yields the built-in tiers.
func LoadProfiles(path string) ([]domain.DifficultyProfile, error) {
	if path == "" {
		return domain.DefaultDifficultyProfiles(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles %s: %w", path, err)
	}
	return ParseProfiles(raw)
}

// ParseProfiles decodes and validates a YAML profiles document.
func ParseProfiles(raw []byte) ([]domain.DifficultyProfile, error) {
	var file profilesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	if len(file.Profiles) == 0 {
		return nil, ErrNoProfiles
	}

	seen := make(map[string]struct{}, len(file.Profiles))
	for i, p := range file.Profiles {
		if err := profileValidate.Struct(p); err != nil {
			return nil, fmt.Errorf("profile %d (%q): %w", i, p.Name, err)
		}
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("duplicate profile %q", p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return file.Profiles, nil
}
