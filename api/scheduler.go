/*
scheduler.go - Automated balance reconciliation scheduler

PURPOSE:
  Periodically replays every user's balance journal and compares the result
  with the stored counters. Drift means a balance was written outside the
  ledger (or a journal entry was lost) and is logged at Warn level.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Runs once immediately on Start
  - Keeps the last report; GET /api/reconciliation?cached=true serves it
  - Never mutates balances; repair is a manual decision

CONFIGURATION:
  - CheckInterval: How often to check (LEAVE_RECONCILE_INTERVAL, default 1h)
  - Enabled: Whether scheduler is active (interval > 0)

USAGE:
  scheduler := NewReconciliationScheduler(store, logger, time.Hour)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: GetReconciliation endpoint (on-demand check)
  - timeoff/reconcile.go: ReconcileBalances
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/leave-engine/timeoff"
)

// ReconciliationScheduler runs timeoff.ReconcileBalances on a ticker.
type ReconciliationScheduler struct {
	Store         timeoff.Store
	Logger        *slog.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	lastMu     sync.RWMutex
	lastDrifts []timeoff.BalanceDrift
	lastRun    time.Time
}

// NewReconciliationScheduler creates a new scheduler. A non-positive
// interval disables it.
func NewReconciliationScheduler(store timeoff.Store, logger *slog.Logger, interval time.Duration) *ReconciliationScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconciliationScheduler{
		Store:         store,
		Logger:        logger.With(slog.String("component", "reconciliation")),
		CheckInterval: interval,
		Enabled:       interval > 0,
	}
}

// Start begins the scheduler.
func (rs *ReconciliationScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Logger.Info("scheduler disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)
	go rs.run(rs.ticker.C, rs.stop)

	rs.Logger.Info("scheduler started", slog.Duration("interval", rs.CheckInterval))
}

// Stop stops the scheduler and waits for an in-flight check to finish.
func (rs *ReconciliationScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.Logger.Info("scheduler stopped")
	}
}

func (rs *ReconciliationScheduler) run(ticks <-chan time.Time, stop <-chan struct{}) {
	defer rs.wg.Done()

	rs.RunNow(context.Background())

	for {
		select {
		case <-ticks:
			rs.RunNow(context.Background())
		case <-stop:
			return
		}
	}
}

// RunNow performs one reconciliation pass and records the result.
func (rs *ReconciliationScheduler) RunNow(ctx context.Context) ([]timeoff.BalanceDrift, error) {
	started := time.Now()
	drifts, err := timeoff.ReconcileBalances(ctx, rs.Store)
	if err != nil {
		rs.Logger.Error("reconciliation failed", slog.String("error", err.Error()))
		return nil, err
	}

	rs.lastMu.Lock()
	rs.lastDrifts = drifts
	rs.lastRun = started
	rs.lastMu.Unlock()

	for _, d := range drifts {
		rs.Logger.Warn("balance drift",
			slog.String("user_id", d.UserID),
			slog.String("type", string(d.Type)),
			slog.Int("stored", d.Stored),
			slog.Int("replayed", d.Replayed),
			slog.String("reason", d.Reason))
	}
	rs.Logger.Info("reconciliation complete",
		slog.Int("drifts", len(drifts)),
		slog.Duration("took", time.Since(started)))
	return drifts, nil
}

// Last returns the most recent report; ok is false before the first run.
func (rs *ReconciliationScheduler) Last() (drifts []timeoff.BalanceDrift, at time.Time, ok bool) {
	rs.lastMu.RLock()
	defer rs.lastMu.RUnlock()
	return rs.lastDrifts, rs.lastRun, !rs.lastRun.IsZero()
}
