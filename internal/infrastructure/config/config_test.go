package config

import (
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)

	assert.Equal(t, 5*time.Second, cfg.Sandbox.ExecTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Sandbox.Settle2D)
	assert.Equal(t, time.Second, cfg.Sandbox.Settle3D)
	assert.Equal(t, 4, cfg.Sandbox.MaxParallel)
	assert.Equal(t, 3, cfg.Studio.FixAttempts)
	assert.Empty(t, cfg.Generator.APIKey)
}

// unsetConfigEnv removes every variable Load reads for the duration of t.
// envconfig treats an empty value as set, so the variables are unset rather
// than blanked.
func unsetConfigEnv(t *testing.T) {
	t.Helper()
	var walk func(reflect.Type)
	walk = func(typ reflect.Type) {
		for i := 0; i < typ.NumField(); i++ {
			f := typ.Field(i)
			if f.Type.Kind() == reflect.Struct {
				walk(f.Type)
				continue
			}
			key := f.Tag.Get("envconfig")
			if key == "" {
				continue
			}
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}
	walk(reflect.TypeOf(Config{}))
}

func TestLoadMatchesDefault(t *testing.T) {
	unsetConfigEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadIgnoresUnsetAmbientKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ambient")
	t.Setenv("PORT", "1234")
	unsetConfigEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Generator.APIKey)
	assert.Equal(t, "8000", cfg.Server.Port)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                 "9000",
		"CORS_ORIGINS":         "https://a.example,https://b.example",
		"LOG_LEVEL":            "debug",
		"LOG_DEV":              "true",
		"RATE_LIMIT_ENABLED":   "false",
		"SANDBOX_EXEC_TIMEOUT": "2s",
		"SANDBOX_SETTLE_3D":    "1500ms",
		"SANDBOX_MOUNT_WIDTH":  "1024",
		"API_BASE_URL":         "https://animations.example.com/api",
		"API_RETRIES":          "5",
		"FIX_ATTEMPTS":         "1",
		"ANTHROPIC_API_KEY":    "sk-test",
		"HISTORY_DB":           ":memory:",
	}
	unsetConfigEnv(t)
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Sandbox.ExecTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.Sandbox.Settle3D)
	assert.Equal(t, 1024, cfg.Sandbox.MountWidth)
	assert.Equal(t, "https://animations.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 5, cfg.API.Retries)
	assert.Equal(t, 1, cfg.Studio.FixAttempts)
	assert.Equal(t, "sk-test", cfg.Generator.APIKey)
	assert.Equal(t, ":memory:", cfg.Storage.HistoryDB)
}

func TestLoadInvalidValue(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad duration", "SANDBOX_SETTLE_2D", "soon"},
		{"bad int", "FIX_ATTEMPTS", "three"},
		{"bad bool", "LOG_DEV", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetConfigEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to load config")

			cfg := LoadOrDefault()
			assert.Equal(t, Default(), cfg)
		})
	}
}
