/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for demos. Each scenario resets the directory to the default users
	and teams, then adds applications that exercise a specific rule.

AVAILABLE SCENARIOS:

	default:          15 users, 3 managers, no applications
	busy-team:        Seven employees away on the same days (capacity rule)
	emergency-heavy:  One employee with three recent emergency leaves (throttling)
	mixed-history:    Applications in every status (dashboards, queue, reapply)

HOW SCENARIOS WORK:
 1. Reset the directory (users, teams; balances and applications cleared)
 2. Insert applications with back-dated appliedOn timestamps
 3. Deduct/restore balances through the ledger so the journal reconciles

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "busy-team"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler
  - timeoff/users.go: DefaultUsers, DefaultAssignments
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "default",
		Name:        "Default Directory",
		Description: "15 users across three teams, no leave applications",
	},
	{
		ID:          "busy-team",
		Name:        "Busy Team",
		Description: "Seven employees away on the same days; one more request hits team capacity",
	},
	{
		ID:          "emergency-heavy",
		Name:        "Emergency Heavy",
		Description: "John Doe has used three emergency leaves in the past 30 days",
	},
	{
		ID:          "mixed-history",
		Name:        "Mixed History",
		Description: "Pending, approved, rejected and recalled applications for the manager queue",
	},
}

var errUnknownScenario = errors.New("unknown scenario")

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.LoadScenarioByID(r.Context(), req.ScenarioID); err != nil {
		if errors.Is(err, errUnknownScenario) {
			writeError(w, http.StatusBadRequest, "Unknown scenario", err)
			return
		}
		h.writeDomainError(w, r, "Failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase restores the default directory and clears all applications.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Directory.Reset(r.Context(), timeoff.DefaultUsers(), timeoff.DefaultAssignments()); err != nil {
		h.writeDomainError(w, r, "Failed to reset database", err)
		return
	}
	h.setScenario("")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// LoadScenarioByID resets the store and loads scenario id.
func (h *Handler) LoadScenarioByID(ctx context.Context, id string) error {
	var load func(context.Context) error
	switch id {
	case "default":
		load = func(context.Context) error { return nil }
	case "busy-team":
		load = h.loadBusyTeamScenario
	case "emergency-heavy":
		load = h.loadEmergencyHeavyScenario
	case "mixed-history":
		load = h.loadMixedHistoryScenario
	default:
		return fmt.Errorf("%w: %q", errUnknownScenario, id)
	}

	if err := h.Directory.Reset(ctx, timeoff.DefaultUsers(), timeoff.DefaultAssignments()); err != nil {
		return err
	}
	h.setScenario("")
	if err := load(ctx); err != nil {
		return fmt.Errorf("scenario %s: %w", id, err)
	}
	h.setScenario(id)
	h.Logger.Info("scenario loaded", "scenario", id)
	return nil
}

// SeedIfEmpty loads the default scenario when the store has no users.
func (h *Handler) SeedIfEmpty(ctx context.Context) (bool, error) {
	users, err := h.Store.LoadUsers(ctx)
	if err != nil {
		return false, err
	}
	if len(users) > 0 {
		return false, nil
	}
	return true, h.LoadScenarioByID(ctx, "default")
}

func (h *Handler) setScenario(id string) {
	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadBusyTeamScenario(ctx context.Context) error {
	start := generic.Today(h.Clock).AddDays(14)
	var apps []timeoff.Application
	for _, id := range []string{"1", "4", "5", "6", "7", "8", "10"} {
		a := h.demoApplication(id, timeoff.LeaveMiscellaneous, start, 1, 2, "Team offsite travel")
		approve(&a, h.managerFor(id))
		apps = append(apps, a)
	}
	return h.insertApplications(ctx, apps)
}

func (h *Handler) loadEmergencyHeavyScenario(ctx context.Context) error {
	today := generic.Today(h.Clock)
	var apps []timeoff.Application
	for _, daysAgo := range []int{20, 14, 9} {
		a := h.demoApplication("1", timeoff.LeaveSick, today.AddDays(-daysAgo), 1, daysAgo, "Sudden fever")
		a.IsEmergency = true
		a.Status = timeoff.StatusApproved
		a.ApprovedOn = &a.AppliedOn
		apps = append(apps, a)
	}
	return h.insertApplications(ctx, apps)
}

func (h *Handler) loadMixedHistoryScenario(ctx context.Context) error {
	today := generic.Today(h.Clock)
	now := h.Clock.Now()

	pending := h.demoApplication("1", timeoff.LeavePaid, today.AddDays(10), 2, 1, "Family visit")

	approved := h.demoApplication("1", timeoff.LeaveCasual, today.AddDays(20), 1, 3, "Personal errand")
	approve(&approved, "3")

	rejected := h.demoApplication("1", timeoff.LeavePaid, today.AddDays(5), 2, 4, "Long weekend")
	rejected.Status = timeoff.StatusRejected
	rejected.RejectionReason = "Release week, please pick other dates"

	recalled := h.demoApplication("4", timeoff.LeaveSick, today.AddDays(3), 2, 6, "Dental surgery recovery")
	approve(&recalled, "3")

	emergency := h.demoApplication("7", timeoff.LeaveSick, today, 1, 0, "Child is unwell")
	emergency.IsEmergency = true
	approve(&emergency, "")

	other := h.demoApplication("10", timeoff.LeavePaid, today.AddDays(12), 3, 2, "Wedding")

	if err := h.insertApplications(ctx, []timeoff.Application{pending, approved, rejected, recalled, emergency, other}); err != nil {
		return err
	}

	// Recall through the ledger so the journal shows deduct then restore.
	return h.Store.WithTx(ctx, func(tx timeoff.Store) error {
		apps, err := tx.LoadApplications(ctx)
		if err != nil {
			return err
		}
		for i := range apps {
			if apps[i].ID != recalled.ID {
				continue
			}
			apps[i].Status = timeoff.StatusRecalled
			apps[i].RecalledOn = &now
			apps[i].RecallReason = "Surgery rescheduled"
			apps[i].Version++
			if _, err := timeoff.NewBalanceLedger(tx, h.Clock).Restore(ctx, apps[i].UserID, apps[i].Type, apps[i].Duration(), apps[i].ID); err != nil {
				return err
			}
		}
		return tx.SaveApplications(ctx, apps)
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) demoApplication(userID string, t timeoff.LeaveType, start generic.TimePoint, days, appliedDaysAgo int, reason string) timeoff.Application {
	return timeoff.Application{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      t,
		StartDate: start,
		EndDate:   start.AddDays(days - 1),
		Status:    timeoff.StatusPending,
		Reason:    reason,
		AppliedOn: h.Clock.Now().Add(-time.Duration(appliedDaysAgo) * 24 * time.Hour),
		Version:   1,
	}
}

func approve(a *timeoff.Application, approverID string) {
	on := a.AppliedOn.Add(2 * time.Hour)
	a.Status = timeoff.StatusApproved
	a.ApprovedBy = approverID
	a.ApprovedOn = &on
}

func (h *Handler) managerFor(employeeID string) string {
	for _, a := range timeoff.DefaultAssignments() {
		if a.Has(employeeID) {
			return a.ManagerID
		}
	}
	return ""
}

// insertApplications stores apps as-is and deducts the approved ones.
func (h *Handler) insertApplications(ctx context.Context, apps []timeoff.Application) error {
	return h.Store.WithTx(ctx, func(tx timeoff.Store) error {
		existing, err := tx.LoadApplications(ctx)
		if err != nil {
			return err
		}
		if err := tx.SaveApplications(ctx, append(existing, apps...)); err != nil {
			return fmt.Errorf("failed to save applications: %w", err)
		}

		ledger := timeoff.NewBalanceLedger(tx, h.Clock)
		for _, a := range apps {
			if a.Status != timeoff.StatusApproved {
				continue
			}
			if _, err := ledger.Deduct(ctx, a.UserID, a.Type, a.Duration(), a.ID); err != nil {
				return fmt.Errorf("failed to deduct %s: %w", a.ID, err)
			}
		}
		return nil
	})
}
