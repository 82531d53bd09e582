package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.True(t, cfg.App.Seed)
	assert.Equal(t, 30*time.Second, cfg.App.ShutdownTimeout)
	assert.Equal(t, time.Hour, cfg.App.ReconcileEvery)
	assert.Equal(t, "leave.db", cfg.Database.Path)
	assert.False(t, cfg.UseMemoryStore())
	assert.Empty(t, cfg.Policy.File)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("LEAVE_PORT", "9090")
	t.Setenv("LEAVE_DB", "memory")
	t.Setenv("LEAVE_SEED", "false")
	t.Setenv("LEAVE_LOG_LEVEL", "debug")
	t.Setenv("LEAVE_RECONCILE_INTERVAL", "0s")
	t.Setenv("LEAVE_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.True(t, cfg.UseMemoryStore())
	assert.False(t, cfg.App.Seed)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Zero(t, cfg.App.ReconcileEvery)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("LEAVE_PORT", "9090")

	cfg, err := config.Load([]string{"-port", "7070", "-db", ":memory:", "-policy", "strict.json", "-reconcile-every", "5m"})
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.App.Port)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.False(t, cfg.UseMemoryStore(), "in-memory SQLite is still SQLite")
	assert.Equal(t, "strict.json", cfg.Policy.File)
	assert.Equal(t, 5*time.Minute, cfg.App.ReconcileEvery)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"port not a number", map[string]string{"LEAVE_PORT": "http"}, nil},
		{"port out of range", nil, []string{"-port", "70000"}},
		{"bad seed", map[string]string{"LEAVE_SEED": "maybe"}, nil},
		{"bad duration", map[string]string{"LEAVE_SHUTDOWN_TIMEOUT": "soon"}, nil},
		{"bad log level", nil, []string{"-log-level", "loud"}},
		{"negative interval", nil, []string{"-reconcile-every", "-1m"}},
		{"unknown flag", nil, []string{"-verbose"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestParseLevel(t *testing.T) {
	l, err := config.ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)

	_, err = config.ParseLevel("verbose")
	assert.Error(t, err)
}
