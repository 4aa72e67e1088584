package config

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"COMBATLENS_DB",
		"COMBATLENS_LOG_LEVEL",
		"COMBATLENS_CONCURRENCY",
		"COMBATLENS_OTEL_ENDPOINT",
		"COMBATLENS_MAX_FABRICATIONS",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "combatlens.db", cfg.Database)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Empty(t, cfg.OTelEndpoint)
	assert.Zero(t, cfg.MaxFabrications)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("COMBATLENS_DB", "/tmp/logs.db")
	t.Setenv("COMBATLENS_LOG_LEVEL", "debug")
	t.Setenv("COMBATLENS_CONCURRENCY", "0")
	t.Setenv("COMBATLENS_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("COMBATLENS_MAX_FABRICATIONS", "500")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Config{
		Database:        "/tmp/logs.db",
		LogLevel:        "debug",
		Concurrency:     0,
		OTelEndpoint:    "http://localhost:4318",
		MaxFabrications: 500,
	}, cfg)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"not an int", "COMBATLENS_CONCURRENCY", "many", "parse env:"},
		{"negative concurrency", "COMBATLENS_CONCURRENCY", "-1", "COMBATLENS_CONCURRENCY"},
		{"negative quota", "COMBATLENS_MAX_FABRICATIONS", "-5", "COMBATLENS_MAX_FABRICATIONS"},
		{"bad level", "COMBATLENS_LOG_LEVEL", "loud", "invalid log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}
