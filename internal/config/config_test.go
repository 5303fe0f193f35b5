package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t, "SERVER_HOST", "SERVER_PORT", "LOG_LEVEL", "LOG_FORMAT", "DATASET_SOURCE",
		"DATASET_PLAYERS_PATH", "DATASET_TEAMMATES_PATH", "QUIZ_MAX_ATTEMPTS", "QUIZ_SESSION_TTL",
		"SERVER_SHUTDOWN_TIMEOUT", "SERVER_METRICS_ENABLED", "GRAPH_URI")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.False(t, cfg.HTTP.MetricsEnabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, SourceCSV, cfg.Dataset.Source)
	assert.Equal(t, "data/player_profiles.csv", cfg.Dataset.PlayersPath)
	assert.Equal(t, "data/player_teammates_played_with.csv", cfg.Dataset.TeammatesPath)
	assert.Equal(t, DefaultMaxAttempts, cfg.Quiz.MaxAttempts)
	assert.Equal(t, 2*time.Hour, cfg.Quiz.SessionTTL)
	assert.Empty(t, cfg.Graph.URI)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_METRICS_ENABLED", "true")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("DATASET_SOURCE", "GRAPH")
	t.Setenv("DATASET_WATCH", "1")
	t.Setenv("DATASET_WATCH_DEBOUNCE", "2s")
	t.Setenv("QUIZ_MAX_ATTEMPTS", "250")
	t.Setenv("QUIZ_SEED", "7")
	t.Setenv("QUIZ_SESSION_TTL", "15m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.True(t, cfg.HTTP.MetricsEnabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.AllowedOrigins())
	assert.Equal(t, SourceGraph, cfg.Dataset.Source)
	assert.True(t, cfg.Dataset.Watch)
	assert.Equal(t, 2*time.Second, cfg.Dataset.WatchDebounce)
	assert.Equal(t, 250, cfg.Quiz.MaxAttempts)
	assert.Equal(t, int64(7), cfg.Quiz.Seed)
	assert.Equal(t, 15*time.Minute, cfg.Quiz.SessionTTL)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"port not a number": {"SERVER_PORT": "http"},
		"port out of range": {"SERVER_PORT": "70000"},
		"bad duration":      {"SERVER_READ_TIMEOUT": "soon"},
		"unknown source":    {"DATASET_SOURCE": "parquet"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_HintLevelsBounded(t *testing.T) {
	for _, v := range []string{"0", "6", "-2"} {
		t.Setenv("QUIZ_MAX_HINT_LEVELS", v)
		_, err := Load()
		assert.Error(t, err, v)
	}

	t.Setenv("QUIZ_MAX_HINT_LEVELS", "3")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Quiz.MaxHintLevels)
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	t.Setenv("QUIZ_MAX_HINT_LEVELS", "many")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxHintLevels, cfg.Quiz.MaxHintLevels)
}
