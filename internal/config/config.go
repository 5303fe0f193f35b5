package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig
	Graph   GraphConfig
	Logging LoggingConfig
	Dataset DatasetConfig
	Quiz    QuizConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MetricsEnabled    bool
	AllowedOriginsCSV string
}

// GraphConfig describes connectivity to the optional Neo4j export target.
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

// Dataset sources.
const (
	SourceCSV   = "csv"
	SourceGraph = "graph"
)

// DatasetConfig locates the player tables.
type DatasetConfig struct {
	Source        string
	PlayersPath   string
	TeammatesPath string
	Watch         bool
	WatchDebounce time.Duration
}

// QuizConfig tunes puzzle generation and quiz sessions.
type QuizConfig struct {
	MaxAttempts   int
	MinEligible   int
	MaxHintLevels int
	ProfilesPath  string
	SessionTTL    time.Duration
	Seed          int64
}

const (
	defaultHost             = "0.0.0.0"
	defaultPort             = 8080
	defaultReadTimeout      = 10 * time.Second
	defaultWriteTimeout     = 15 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultGraphMaxSessions = 10

	defaultPlayersPath   = "data/player_profiles.csv"
	defaultTeammatesPath = "data/player_teammates_played_with.csv"
	defaultWatchDebounce = 500 * time.Millisecond

	DefaultMaxAttempts   = 100
	DefaultMinEligible   = 100
	DefaultMaxHintLevels = 5
	defaultSessionTTL    = 2 * time.Hour
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Host:            valueOrDefault("SERVER_HOST", defaultHost),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Graph: GraphConfig{
			URI:            os.Getenv("GRAPH_URI"),
			Database:       valueOrDefault("GRAPH_DATABASE", ""),
			Username:       os.Getenv("GRAPH_USERNAME"),
			Password:       os.Getenv("GRAPH_PASSWORD"),
			MaxConnections: parseIntWithDefault("GRAPH_MAX_CONNECTIONS", defaultGraphMaxSessions),
		},
		Dataset: DatasetConfig{
			Source:        strings.ToLower(valueOrDefault("DATASET_SOURCE", SourceCSV)),
			PlayersPath:   valueOrDefault("DATASET_PLAYERS_PATH", defaultPlayersPath),
			TeammatesPath: valueOrDefault("DATASET_TEAMMATES_PATH", defaultTeammatesPath),
			Watch:         parseBoolWithDefault("DATASET_WATCH", false),
		},
		Quiz: QuizConfig{
			MaxAttempts:   parseIntWithDefault("QUIZ_MAX_ATTEMPTS", DefaultMaxAttempts),
			MinEligible:   parseIntWithDefault("QUIZ_MIN_ELIGIBLE", DefaultMinEligible),
			MaxHintLevels: parseIntWithDefault("QUIZ_MAX_HINT_LEVELS", DefaultMaxHintLevels),
			ProfilesPath:  os.Getenv("QUIZ_PROFILES_PATH"),
			Seed:          int64(parseIntWithDefault("QUIZ_SEED", 0)),
		},
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	durations := []struct {
		key      string
		target   *time.Duration
		fallback time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout, defaultReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout, defaultWriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout, defaultIdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout, defaultShutdownTimeout},
		{"DATASET_WATCH_DEBOUNCE", &cfg.Dataset.WatchDebounce, defaultWatchDebounce},
		{"QUIZ_SESSION_TTL", &cfg.Quiz.SessionTTL, defaultSessionTTL},
	}
	for _, d := range durations {
		val, err := parseDurationWithDefault(d.key, d.fallback)
		if err != nil {
			return Config{}, err
		}
		*d.target = val
	}

	if cfg.Quiz.MaxHintLevels < 1 || cfg.Quiz.MaxHintLevels > DefaultMaxHintLevels {
		return Config{}, fmt.Errorf("invalid QUIZ_MAX_HINT_LEVELS %d: want 1..%d", cfg.Quiz.MaxHintLevels, DefaultMaxHintLevels)
	}

	switch cfg.Dataset.Source {
	case SourceCSV, SourceGraph:
	default:
		return Config{}, fmt.Errorf("invalid DATASET_SOURCE %q: want %s or %s", cfg.Dataset.Source, SourceCSV, SourceGraph)
	}

	cfg.HTTP.MetricsEnabled = parseBoolWithDefault("SERVER_METRICS_ENABLED", false)
	cfg.HTTP.AllowedOriginsCSV = os.Getenv("SERVER_ALLOWED_ORIGINS")

	return cfg, nil
}

// AllowedOrigins splits the CORS origin list.
func (c HTTPConfig) AllowedOrigins() []string {
	if c.AllowedOriginsCSV == "" {
		return nil
	}
	var origins []string
	for _, part := range strings.Split(c.AllowedOriginsCSV, ",") {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseDurationWithDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
