// Package config reads process defaults from the environment. Command
// line flags override every value loaded here.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds the environment defaults of the combatlens CLI.
type Config struct {
	// Database is the SQLite store path used when --db is not given.
	Database string `env:"COMBATLENS_DB" envDefault:"combatlens.db"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `env:"COMBATLENS_LOG_LEVEL" envDefault:"info"`

	// Concurrency bounds batch analysis. Zero runs one goroutine per
	// session.
	Concurrency int `env:"COMBATLENS_CONCURRENCY" envDefault:"4"`

	// OTelEndpoint enables span export over OTLP/HTTP when set.
	OTelEndpoint string `env:"COMBATLENS_OTEL_ENDPOINT"`

	// MaxFabrications overrides the engine's per-run fabrication quota
	// when positive.
	MaxFabrications int `env:"COMBATLENS_MAX_FABRICATIONS" envDefault:"0"`
}

// Load parses the environment into a Config and checks its values.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("COMBATLENS_CONCURRENCY must be non-negative, got %d", c.Concurrency)
	}
	if c.MaxFabrications < 0 {
		return fmt.Errorf("COMBATLENS_MAX_FABRICATIONS must be non-negative, got %d", c.MaxFabrications)
	}
	return nil
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: must be debug, info, warn or error", name)
	}
	return level, nil
}
