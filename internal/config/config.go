// Package config reads run configuration from CADENCE_* environment
// variables. Command-line flags override these values.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Settings backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// RunConfig configures the run command.
type RunConfig struct {
	TickInterval time.Duration `env:"CADENCE_TICK_INTERVAL" envDefault:"16ms"`
	LogLevel     string        `env:"CADENCE_LOG_LEVEL" envDefault:"info"`
	LogDir       string        `env:"CADENCE_LOG_DIR" envDefault:"logs"`

	SettingsBackend string `env:"CADENCE_SETTINGS" envDefault:"file"`
	SettingsFile    string `env:"CADENCE_SETTINGS_FILE" envDefault:".cadence/settings.yaml"`
	RedisAddr       string `env:"CADENCE_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword   string `env:"CADENCE_REDIS_PASSWORD"`
	RedisDB         int    `env:"CADENCE_REDIS_DB"`
	RedisKey        string `env:"CADENCE_REDIS_KEY" envDefault:"cadence:settings"`
	SeedVariables   bool   `env:"CADENCE_SEED_VARIABLES"`

	RecordPath string `env:"CADENCE_RECORD_DB"`
	HTTPAddr   string `env:"CADENCE_HTTP_ADDR"`
	AssetDir   string `env:"CADENCE_ASSET_DIR"`

	KeyHold  time.Duration `env:"CADENCE_KEY_HOLD" envDefault:"600ms"`
	PauseKey string        "env:\"CADENCE_PAUSE_KEY\" envDefault:\"`\""
	QuitKey  string        `env:"CADENCE_QUIT_KEY" envDefault:"escape"`
}

// Load parses the environment.
func Load() (RunConfig, error) {
	var cfg RunConfig
	if err := env.Parse(&cfg); err != nil {
		return RunConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks values the environment parser cannot.
func (c RunConfig) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	}
	switch c.SettingsBackend {
	case BackendFile, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown settings backend %q (want file, redis or memory)", c.SettingsBackend)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Level returns the parsed log level, defaulting to info.
func (c RunConfig) Level() slog.Level {
	l, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

// ParseLevel accepts debug, info, warn and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}
