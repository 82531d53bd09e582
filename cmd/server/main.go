/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, LEAVE_* environment, flags)
  2. Build the structured logger
  3. Initialize the store (SQLite file, SQLite in-memory, or in-memory)
  4. Load the leave policy (JSON file or defaults)
  5. Seed the default directory into an empty store
  6. Start the balance reconciliation scheduler
  7. Start the HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port             HTTP server port (default: 8080)
  -db               SQLite database path (default: leave.db)
                    ":memory:" for in-memory SQLite, "memory" for the in-memory store
  -policy           JSON policy file (default: built-in standard policy)
  -log-level        debug, info, warn, error (default: info)
  -seed             Seed default users when the store is empty (default: true)
  -reconcile-every  Reconciliation interval, 0 disables (default: 1h)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (LEAVE_SHUTDOWN_TIMEOUT)
  3. Stop the scheduler
  4. Close database connection

EXAMPLES:
  ./server -db="./data/leave.db"
  ./server -db=memory -policy=./policies/strict.json
  LEAVE_PORT=3000 ./server

SEE ALSO:
  - config/config.go: Configuration sources
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/config"
	"github.com/warp/leave-engine/factory"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/store/memory"
	"github.com/warp/leave-engine/store/sqlite"
	"github.com/warp/leave-engine/timeoff"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "leave-server: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	level, _ := config.ParseLevel(cfg.App.LogLevel)
	logger := api.NewLogger(os.Stdout, level)
	slog.SetDefault(logger)

	// Initialize store
	store, closer, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer closer.Close()

	// Load policy
	policy := timeoff.DefaultPolicyConfig()
	if cfg.Policy.File != "" {
		policy, err = factory.NewPolicyFactory().LoadFile(cfg.Policy.File)
		if err != nil {
			return err
		}
		logger.Info("policy loaded", slog.String("file", cfg.Policy.File))
	}

	handler := api.NewHandler(store, policy, generic.SystemClock{}, logger)

	ctx := context.Background()
	if cfg.App.Seed {
		seeded, err := handler.SeedIfEmpty(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed store: %w", err)
		}
		if seeded {
			logger.Info("seeded default directory", slog.Int("users", len(timeoff.DefaultUsers())))
		}
	}

	scheduler := api.NewReconciliationScheduler(store, logger, cfg.App.ReconcileEvery)
	handler.Scheduler = scheduler
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      api.NewRouter(handler, logger, cfg.CORS.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.Int("port", cfg.App.Port),
			slog.String("db", cfg.Database.Path))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func openStore(cfg *config.Config) (timeoff.TxStore, io.Closer, error) {
	if cfg.UseMemoryStore() {
		return memory.NewTxMemory(), io.NopCloser(nil), nil
	}
	s, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	return s, s, nil
}
