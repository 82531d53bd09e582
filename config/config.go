// Package config loads runtime settings from .env, the environment and
// command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Policy   PolicyConfig
	CORS     CORSConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port            int
	LogLevel        string
	Seed            bool
	ShutdownTimeout time.Duration
	ReconcileEvery  time.Duration
}

// DatabaseConfig selects the store. Path "memory" uses the in-memory
// store; ":memory:" an in-memory SQLite database.
type DatabaseConfig struct {
	Path string
}

type PolicyConfig struct {
	File string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads .env (if present) and the LEAVE_* environment, then applies
// flags from args on top.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	port, err := strconv.Atoi(getEnv("LEAVE_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEAVE_PORT: %w", err)
	}
	seed, err := strconv.ParseBool(getEnv("LEAVE_SEED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEAVE_SEED: %w", err)
	}
	shutdown, err := time.ParseDuration(getEnv("LEAVE_SHUTDOWN_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEAVE_SHUTDOWN_TIMEOUT: %w", err)
	}
	reconcile, err := time.ParseDuration(getEnv("LEAVE_RECONCILE_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEAVE_RECONCILE_INTERVAL: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Port:            port,
			LogLevel:        getEnv("LEAVE_LOG_LEVEL", "info"),
			Seed:            seed,
			ShutdownTimeout: shutdown,
			ReconcileEvery:  reconcile,
		},
		Database: DatabaseConfig{Path: getEnv("LEAVE_DB", "leave.db")},
		Policy:   PolicyConfig{File: getEnv("LEAVE_POLICY_FILE", "")},
		CORS: CORSConfig{AllowedOrigins: getEnvSlice("LEAVE_ALLOWED_ORIGINS",
			[]string{"http://localhost:5173", "http://localhost:3000"})},
	}

	fs := flag.NewFlagSet("leave-server", flag.ContinueOnError)
	fs.IntVar(&cfg.App.Port, "port", cfg.App.Port, "HTTP server port")
	fs.StringVar(&cfg.Database.Path, "db", cfg.Database.Path, `SQLite database path (":memory:" for in-memory SQLite, "memory" for the in-memory store)`)
	fs.StringVar(&cfg.Policy.File, "policy", cfg.Policy.File, "JSON policy file (empty for defaults)")
	fs.StringVar(&cfg.App.LogLevel, "log-level", cfg.App.LogLevel, "debug, info, warn or error")
	fs.BoolVar(&cfg.App.Seed, "seed", cfg.App.Seed, "seed the default directory when the store is empty")
	fs.DurationVar(&cfg.App.ReconcileEvery, "reconcile-every", cfg.App.ReconcileEvery, "balance reconciliation interval (0 disables)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.App.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("LEAVE_DB is required")
	}
	if _, err := ParseLevel(c.App.LogLevel); err != nil {
		return err
	}
	if c.App.ReconcileEvery < 0 {
		return fmt.Errorf("reconcile interval must not be negative")
	}
	return nil
}

// ParseLevel maps a level name to slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// UseMemoryStore reports whether the non-persistent store was requested.
func (c *Config) UseMemoryStore() bool {
	return c.Database.Path == "memory"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
