package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/store/memory"
	"github.com/warp/leave-engine/timeoff"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// Monday 2025-03-03, 09:00 UTC.
var testNow = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) (*chi.Mux, *api.Handler) {
	t.Helper()
	logger := api.NewLogger(io.Discard, slog.LevelError)
	h := api.NewHandler(memory.NewTxMemory(), timeoff.DefaultPolicyConfig(), generic.FixedClock{At: testNow}, logger)
	seeded, err := h.SeedIfEmpty(context.Background())
	require.NoError(t, err)
	require.True(t, seeded)
	return api.NewRouter(h, logger, []string{"http://localhost:5173"}), h
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func submit(t *testing.T, router http.Handler, req api.SubmitApplicationRequest) timeoff.Application {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/applications", req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[api.SubmitResponse](t, rec).Application
}

func paidRequest(userID, start, end string) api.SubmitApplicationRequest {
	return api.SubmitApplicationRequest{UserID: userID, Type: "paid", StartDate: start, EndDate: end, Reason: "Family trip"}
}

// =============================================================================
// APPLICATION LIFECYCLE
// =============================================================================

func TestSubmitApproveFlow(t *testing.T) {
	// GIVEN: A seeded directory
	// WHEN: John submits three paid days and Mike approves them twice
	// THEN: The first approval deducts, the second is a conflict
	router, _ := newTestRouter(t)

	app := submit(t, router, paidRequest("1", "2025-03-10", "2025-03-12"))
	assert.Equal(t, timeoff.StatusPending, app.Status)

	rec := do(t, router, http.MethodPost, "/api/applications/"+app.ID+"/approve", api.ApproveRequest{ApproverID: "3"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decode[timeoff.Application](t, rec)
	assert.Equal(t, timeoff.StatusApproved, approved.Status)
	assert.Equal(t, "3", approved.ApprovedBy)

	rec = do(t, router, http.MethodPost, "/api/applications/"+app.ID+"/approve", api.ApproveRequest{ApproverID: "3"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/balances/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 9, decode[timeoff.LeaveBalance](t, rec).Paid)

	rec = do(t, router, http.MethodGet, "/api/balances/1/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]generic.Transaction](t, rec)
	require.NotEmpty(t, history)
	assert.Equal(t, generic.TxDeduct, history[len(history)-1].Type)
}

func TestSubmit_PolicyViolations(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/applications", api.SubmitApplicationRequest{
		UserID: "1", Type: "paid", StartDate: "2025-02-28", EndDate: "2025-02-28", Reason: "Trip",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[api.ErrorResponse](t, rec)
	assert.Equal(t, []string{"Start date cannot be in the past"}, resp.Violations)

	rec = do(t, router, http.MethodPost, "/api/applications", api.SubmitApplicationRequest{
		UserID: "1", Type: "paid", StartDate: "03/10/2025", EndDate: "2025-03-10", Reason: "Trip",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/applications?userId=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]timeoff.Application](t, rec), "rejected submissions are not stored")
}

func TestValidate_AlwaysOK(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/applications/validate", api.SubmitApplicationRequest{UserID: "1", Type: "paid"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.ValidateResponse](t, rec)
	assert.False(t, resp.Valid)
	assert.Equal(t, []string{"Start date is required", "End date is required", "Reason is required"}, resp.Violations)

	rec = do(t, router, http.MethodPost, "/api/applications/validate", paidRequest("1", "2025-05-26", "2025-05-27"))
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[api.ValidateResponse](t, rec)
	assert.True(t, resp.Valid)
	assert.Empty(t, resp.Violations)
	require.Len(t, resp.Holidays, 1)
	assert.Equal(t, "Memorial Day", resp.Holidays[0].Name)
}

func TestTransitions_Errors(t *testing.T) {
	router, _ := newTestRouter(t)
	app := submit(t, router, paidRequest("1", "2025-03-10", "2025-03-10"))

	rec := do(t, router, http.MethodPost, "/api/applications/"+app.ID+"/approve", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "approverId is required")

	rec = do(t, router, http.MethodPost, "/api/applications/"+app.ID+"/reject", api.RejectRequest{ApproverID: "3"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "rejection needs a reason")

	rec = do(t, router, http.MethodPost, "/api/applications/"+app.ID+"/reject", api.RejectRequest{ApproverID: "3", Reason: "Release week"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/applications/"+app.ID+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/applications/"+app.ID+"/reapply", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	draft := decode[api.ReapplyResponse](t, rec).Draft
	assert.Equal(t, "2025-03-10", draft.StartDate)
	assert.Contains(t, draft.Reason, "Family trip")

	rec = do(t, router, http.MethodPost, "/api/applications/missing/recall", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// USERS & VIEWS
// =============================================================================

func TestUsersAndManagers(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]timeoff.User](t, rec), 15)

	rec = do(t, router, http.MethodGet, "/api/users/404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/users/1/manager", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", decode[timeoff.User](t, rec).ID)

	rec = do(t, router, http.MethodGet, "/api/users/2/manager", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/users/15/team", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]timeoff.User](t, rec), 2)

	email := "not-an-email"
	rec = do(t, router, http.MethodPut, "/api/users/1", api.UpdateProfileRequest{Email: &email})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDashboard(t *testing.T) {
	router, _ := newTestRouter(t)
	app := submit(t, router, paidRequest("1", "2025-03-10", "2025-03-11"))
	rec := do(t, router, http.MethodPost, "/api/applications/"+app.ID+"/approve", api.ApproveRequest{ApproverID: "3"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/users/1/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[api.DashboardResponse](t, rec)

	assert.Equal(t, "John Doe", dash.User.Name)
	assert.Equal(t, 10, dash.Balance.Paid)
	require.Len(t, dash.Upcoming, 1)
	assert.Equal(t, app.ID, dash.Upcoming[0].ID)
	assert.Len(t, dash.Recent, 1)
	assert.Zero(t, dash.EmergencyUsage.Last30Days)
	require.NotNil(t, dash.Manager)
	assert.Equal(t, "3", dash.Manager.ID)
}

func TestCalendarAndHolidays(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/calendar?year=2025&month=12", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	days := decode[[]timeoff.CalendarDay](t, rec)
	require.Len(t, days, 31)
	assert.Equal(t, "Christmas Day", days[24].Holiday)

	rec = do(t, router, http.MethodGet, "/api/calendar?month=13", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/holidays", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]generic.Holiday](t, rec), 10)

	rec = do(t, router, http.MethodGet, "/api/calendar/conflicts?userId=1&start=2025-03-12&end=2025-03-10", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "reversed period")
}

// =============================================================================
// SCENARIOS & ADMIN
// =============================================================================

func TestScenario_BusyTeamHitsCapacity(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: "busy-team"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "busy-team", decode[api.ScenarioDTO](t, rec).ID)

	rec = do(t, router, http.MethodPost, "/api/applications", paidRequest("11", "2025-03-17", "2025-03-17"))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t,
		[]string{"Too many team members are on leave on 2025-03-17. Please choose different dates."},
		decode[api.ErrorResponse](t, rec).Violations)
}

func TestScenario_EmergencyHeavyThrottles(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: "emergency-heavy"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/applications", api.SubmitApplicationRequest{
		UserID: "1", StartDate: "2025-03-03", EndDate: "2025-03-03",
		Reason: "Sudden migraine attack", IsEmergency: true,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[api.ErrorResponse](t, rec).Violations,
		"You have already used the maximum allowed emergency leaves (3) in the past 30 days")
}

func TestScenario_MixedHistory_QueueAndReconciliation(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: "mixed-history"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/manager/queue?managerId=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	queue := decode[api.ManagerQueueResponse](t, rec)
	require.Len(t, queue.Pending, 1)
	assert.Equal(t, "1", queue.Pending[0].UserID)
	assert.Len(t, queue.RecentlyProcessed, 2)
	require.Len(t, queue.RecentlyRecalled, 1)
	assert.Equal(t, "4", queue.RecentlyRecalled[0].UserID)

	rec = do(t, router, http.MethodGet, "/api/manager/queue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[api.ManagerQueueResponse](t, rec).Pending, 2)

	rec = do(t, router, http.MethodGet, "/api/reconciliation", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[api.ReconciliationResponse](t, rec)
	assert.True(t, report.Consistent, "drifts: %v", report.Drifts)
}

func TestScenario_UnknownAndReset(t *testing.T) {
	router, h := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/scenarios/load", api.LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	submit(t, router, paidRequest("1", "2025-03-10", "2025-03-10"))
	rec = do(t, router, http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	apps, err := h.Store.LoadApplications(context.Background())
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestAssignmentsAndAudit(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPut, "/api/assignments/15", api.AssignTeamRequest{ActorID: "2", EmployeeIDs: []string{"1"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/users/1/manager", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "15", decode[timeoff.User](t, rec).ID)

	rec = do(t, router, http.MethodPut, "/api/assignments/1", api.AssignTeamRequest{ActorID: "2", EmployeeIDs: []string{"4"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/audit?actorId=2&action=manager_assignment", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]generic.AuditEntry](t, rec), 1)
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
