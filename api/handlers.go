/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the leave engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the timeoff services.

ENDPOINTS:
  Users:
    GET    /api/users                    List users
    GET    /api/users/{id}               Get user
    PUT    /api/users/{id}               Update name/email
    GET    /api/users/{id}/dashboard     Employee dashboard
    GET    /api/users/{id}/manager       Assigned manager
    GET    /api/users/{id}/team          Employees of a manager

  Balances:
    GET    /api/balances/{id}            Balance (created on first read)
    GET    /api/balances/{id}/history    Balance journal

  Applications:
    GET    /api/applications             List (userId, status, type, year)
    POST   /api/applications             Submit
    POST   /api/applications/validate    Dry run of the policy rules
    GET    /api/applications/{id}        Get one
    POST   /api/applications/{id}/approve|reject|cancel|recall
    GET    /api/applications/{id}/reapply  Prefilled draft from a rejected one

  Views:
    GET    /api/calendar                 Team calendar (year, month)
    GET    /api/calendar/conflicts       Per-day conflicts (userId, start, end)
    GET    /api/holidays                 Public holidays (start, end)
    GET    /api/manager/queue            Manager dashboard (managerId)

  Admin:
    GET    /api/assignments              Manager assignments
    PUT    /api/assignments/{managerId}  Replace a manager's team
    GET    /api/audit                    Audit log (userId, actorId, action)
    GET    /api/reconciliation           Ledger drift report

ERROR HANDLING:
  Domain errors are mapped in writeDomainError:
  - 400: Malformed input
  - 404: Unknown user or application
  - 409: Invalid status transition, concurrent modification, duplicate journal key
  - 422: Policy violations (all messages in "violations")
  - 503: Store unavailable
  - 500: Anything else

SECURITY NOTE:
  No authentication. Actor IDs come from the request body.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Store       timeoff.TxStore
	Policy      timeoff.PolicyConfig
	Requests    *timeoff.RequestService
	Assignments *timeoff.AssignmentService
	Directory   *timeoff.Directory
	Holidays    generic.HolidayCalendar
	Clock       generic.Clock
	Logger      *slog.Logger
	Scheduler   *ReconciliationScheduler // optional

	mu              sync.RWMutex
	currentScenario string
}

// NewHandler wires the timeoff services around one store, policy and clock.
func NewHandler(store timeoff.TxStore, policy timeoff.PolicyConfig, clock generic.Clock, logger *slog.Logger) *Handler {
	if clock == nil {
		clock = generic.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	eval := timeoff.NewEvaluator(policy, clock)
	return &Handler{
		Store:       store,
		Policy:      policy,
		Requests:    timeoff.NewRequestService(store, eval, clock, logger),
		Assignments: timeoff.NewAssignmentService(store, clock, logger),
		Directory:   timeoff.NewDirectory(store, clock, logger),
		Holidays:    timeoff.PublicHolidays2025(),
		Clock:       clock,
		Logger:      logger,
	}
}

// =============================================================================
// USER ENDPOINTS
// =============================================================================

// ListUsers returns the directory.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Directory.List(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetUser returns a single user.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Directory.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get user", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile changes a user's name and/or email.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Directory.UpdateProfile(r.Context(), chi.URLParam(r, "id"), timeoff.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		h.writeDomainError(w, r, "Failed to update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetBalance returns a user's balance, creating the default one on first read.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.balance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get balance", err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// GetTransactions returns the balance journal, oldest first.
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if _, err := h.Directory.Get(r.Context(), userID); err != nil {
		h.writeDomainError(w, r, "Failed to get transactions", err)
		return
	}

	txs, err := timeoff.NewBalanceLedger(h.Store, h.Clock).History(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, r, "Failed to get transactions", err)
		return
	}
	if txs == nil {
		txs = []generic.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// GetDashboard returns the employee dashboard: balance, upcoming approved
// leave, recent applications, emergency usage and the assigned manager.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "id")

	user, err := h.Directory.Get(ctx, userID)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load dashboard", err)
		return
	}
	balance, err := h.balance(ctx, userID)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load dashboard", err)
		return
	}
	apps, err := h.Store.LoadApplications(ctx)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load dashboard", err)
		return
	}

	own := timeoff.ForUser(apps, userID)
	resp := DashboardResponse{
		User:           user,
		Balance:        *balance,
		Upcoming:       timeoff.UpcomingLeaves(own, generic.Today(h.Clock), h.Policy.UpcomingWindowDays),
		Recent:         timeoff.RecentApplications(own, h.Policy.RecentLimit),
		EmergencyUsage: timeoff.EmergencyUsageFor(apps, userID, h.Clock.Now(), h.Policy.EmergencyWindowDays),
	}

	manager, ok, err := h.Assignments.ManagerOf(ctx, userID)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load dashboard", err)
		return
	}
	if ok {
		resp.Manager = &manager
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetManager returns the manager assigned to a user, or 404.
func (h *Handler) GetManager(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	manager, ok, err := h.Assignments.ManagerOf(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, r, "Failed to get manager", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "No manager assigned", nil)
		return
	}
	writeJSON(w, http.StatusOK, manager)
}

// GetTeam returns the employees assigned to a manager.
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.Assignments.TeamOf(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get team", err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

// =============================================================================
// APPLICATION ENDPOINTS
// =============================================================================

// ListApplications returns applications, most recent first.
// Query params: userId, status, type, year.
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := timeoff.ApplicationFilter{
		UserID: q.Get("userId"),
		Status: timeoff.Status(q.Get("status")),
		Type:   timeoff.LeaveType(q.Get("type")),
	}
	if y := q.Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		f.Year = year
	}

	apps, err := h.Requests.List(r.Context(), f)
	if err != nil {
		h.writeDomainError(w, r, "Failed to list applications", err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// GetApplication returns a single application.
func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.Requests.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get application", err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// SubmitApplication evaluates and creates an application.
// Emergency applications come back already approved.
func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	var req SubmitApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	draft, err := toDraft(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	app, err := h.Requests.Submit(r.Context(), draft)
	if err != nil {
		h.writeDomainError(w, r, "Failed to submit application", err)
		return
	}
	writeJSON(w, http.StatusCreated, SubmitResponse{
		Application: *app,
		Holidays:    timeoff.HolidayWarnings(h.Holidays, app.Period()),
	})
}

// ValidateApplication runs the policy rules without creating anything.
// It always answers 200; violations are in the body.
func (h *Handler) ValidateApplication(w http.ResponseWriter, r *http.Request) {
	var req SubmitApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	draft, err := toDraft(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	violations, err := h.Requests.Validate(r.Context(), draft)
	if err != nil {
		if v := generic.Violations(err); v != nil {
			violations = v
		} else {
			h.writeDomainError(w, r, "Failed to validate application", err)
			return
		}
	}
	if violations == nil {
		violations = []string{}
	}

	holidays := []generic.Holiday{}
	if draft.HasDates() {
		holidays = timeoff.HolidayWarnings(h.Holidays, draft.Period())
	}
	writeJSON(w, http.StatusOK, ValidateResponse{
		Valid:      len(violations) == 0,
		Violations: violations,
		Holidays:   holidays,
	})
}

// ApproveApplication approves a pending application and deducts the balance.
func (h *Handler) ApproveApplication(w http.ResponseWriter, r *http.Request) {
	var req ApproveRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ApproverID == "" {
		writeError(w, http.StatusBadRequest, "approverId is required", nil)
		return
	}

	app, err := h.Requests.Approve(r.Context(), chi.URLParam(r, "id"), req.ApproverID)
	if err != nil {
		h.writeDomainError(w, r, "Failed to approve application", err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// RejectApplication rejects a pending application with a mandatory reason.
func (h *Handler) RejectApplication(w http.ResponseWriter, r *http.Request) {
	var req RejectRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	app, err := h.Requests.Reject(r.Context(), chi.URLParam(r, "id"), req.ApproverID, req.Reason)
	if err != nil {
		h.writeDomainError(w, r, "Failed to reject application", err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// CancelApplication withdraws a pending application.
func (h *Handler) CancelApplication(w http.ResponseWriter, r *http.Request) {
	var req ReasonRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	app, err := h.Requests.Cancel(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		h.writeDomainError(w, r, "Failed to cancel application", err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// RecallApplication recalls a pending or approved application.
func (h *Handler) RecallApplication(w http.ResponseWriter, r *http.Request) {
	var req ReasonRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	app, err := h.Requests.Recall(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		h.writeDomainError(w, r, "Failed to recall application", err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// ReapplyApplication returns a prefilled draft for a rejected application.
func (h *Handler) ReapplyApplication(w http.ResponseWriter, r *http.Request) {
	draft, err := h.Requests.Reapply(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, "Failed to reapply", err)
		return
	}
	writeJSON(w, http.StatusOK, ReapplyResponse{Draft: draftToRequest(draft)})
}

// =============================================================================
// CALENDAR & HOLIDAY ENDPOINTS
// =============================================================================

// GetTeamCalendar returns one entry per day of the requested month.
// Query params: year, month (1-12). Defaults to the current month.
func (h *Handler) GetTeamCalendar(w http.ResponseWriter, r *http.Request) {
	today := generic.Today(h.Clock)
	year, month := today.Year(), today.Month()

	q := r.URL.Query()
	if y := q.Get("year"); y != "" {
		v, err := strconv.Atoi(y)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = v
	}
	if m := q.Get("month"); m != "" {
		v, err := strconv.Atoi(m)
		if err != nil || v < 1 || v > 12 {
			writeError(w, http.StatusBadRequest, "Invalid month", err)
			return
		}
		month = time.Month(v)
	}

	ctx := r.Context()
	apps, err := h.Store.LoadApplications(ctx)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load calendar", err)
		return
	}
	users, err := h.Store.LoadUsers(ctx)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, timeoff.TeamCalendar(apps, users, h.Holidays, year, month))
}

// GetConflicts returns, for each day in [start, end], the user's own active
// applications and who else is away.
func (h *Handler) GetConflicts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", nil)
		return
	}
	p, err := parsePeriod(q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	apps, err := h.Store.LoadApplications(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to load conflicts", err)
		return
	}
	writeJSON(w, http.StatusOK, timeoff.Conflicts(apps, h.Holidays, userID, p))
}

// ListHolidays returns public holidays in [start, end]; defaults to the
// current calendar year.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := q.Get("start"), q.Get("end")
	if start == "" && end == "" {
		year := generic.Today(h.Clock).Year()
		start = generic.NewTimePoint(year, time.January, 1).String()
		end = generic.NewTimePoint(year, time.December, 31).String()
	}
	p, err := parsePeriod(start, end)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	holidays := h.Holidays.HolidaysIn(p)
	if holidays == nil {
		holidays = []generic.Holiday{}
	}
	writeJSON(w, http.StatusOK, holidays)
}

// =============================================================================
// MANAGER ENDPOINTS
// =============================================================================

// GetManagerQueue returns pending, recently processed and recently recalled
// applications. With managerId set, only that manager's team is included.
func (h *Handler) GetManagerQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	apps, err := h.Store.LoadApplications(ctx)
	if err != nil {
		h.writeDomainError(w, r, "Failed to load queue", err)
		return
	}

	if managerID := r.URL.Query().Get("managerId"); managerID != "" {
		team, err := h.Assignments.TeamOf(ctx, managerID)
		if err != nil {
			h.writeDomainError(w, r, "Failed to load queue", err)
			return
		}
		apps = teamApplications(apps, team)
	}

	writeJSON(w, http.StatusOK, ManagerQueueResponse{
		Pending:           timeoff.PendingQueue(apps),
		RecentlyProcessed: timeoff.RecentlyProcessed(apps, h.Policy.RecentLimit),
		RecentlyRecalled:  timeoff.RecentlyRecalled(apps, h.Policy.RecentLimit),
	})
}

// ListAssignments returns every manager assignment.
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.Assignments.List(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list assignments", err)
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}

// AssignTeam replaces a manager's team. Employees are moved off any other
// manager they were assigned to.
func (h *Handler) AssignTeam(w http.ResponseWriter, r *http.Request) {
	var req AssignTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	a, err := h.Assignments.Assign(r.Context(), req.ActorID, chi.URLParam(r, "managerId"), req.EmployeeIDs)
	if err != nil {
		h.writeDomainError(w, r, "Failed to assign team", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// =============================================================================
// ADMIN ENDPOINTS
// =============================================================================

// ListAudit returns audit entries. Query params: userId, actorId, action.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f generic.AuditFilter
	if v := q.Get("userId"); v != "" {
		id := generic.EntityID(v)
		f.EntityID = &id
	}
	if v := q.Get("actorId"); v != "" {
		f.ActorID = &v
	}
	for _, a := range q["action"] {
		f.Actions = append(f.Actions, generic.AuditAction(a))
	}

	entries, err := h.Store.QueryAudit(r.Context(), f)
	if err != nil {
		h.writeDomainError(w, r, "Failed to query audit log", err)
		return
	}
	if entries == nil {
		entries = []generic.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetReconciliation replays every balance journal and reports drift.
// With cached=true the scheduler's last report is returned instead.
func (h *Handler) GetReconciliation(w http.ResponseWriter, r *http.Request) {
	if h.Scheduler != nil && r.URL.Query().Get("cached") == "true" {
		if drifts, at, ok := h.Scheduler.Last(); ok {
			writeJSON(w, http.StatusOK, ReconciliationResponse{
				Consistent: len(drifts) == 0,
				Drifts:     drifts,
				CheckedAt:  at.Format(time.RFC3339),
			})
			return
		}
	}

	drifts, err := timeoff.ReconcileBalances(r.Context(), h.Store)
	if err != nil {
		h.writeDomainError(w, r, "Failed to reconcile balances", err)
		return
	}
	writeJSON(w, http.StatusOK, ReconciliationResponse{
		Consistent: len(drifts) == 0,
		Drifts:     drifts,
		CheckedAt:  h.Clock.Now().Format(time.RFC3339),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// balance reads (and lazily creates) a balance inside a transaction so the
// record and its opening journal entries land together.
func (h *Handler) balance(ctx context.Context, userID string) (*timeoff.LeaveBalance, error) {
	var out *timeoff.LeaveBalance
	err := h.Store.WithTx(ctx, func(tx timeoff.Store) error {
		b, err := timeoff.NewBalanceLedger(tx, h.Clock).Balance(ctx, userID)
		out = b
		return err
	})
	return out, err
}

func toDraft(req SubmitApplicationRequest) (timeoff.Draft, error) {
	d := timeoff.Draft{
		UserID:      req.UserID,
		Type:        timeoff.LeaveType(req.Type),
		Reason:      req.Reason,
		IsEmergency: req.IsEmergency,
	}
	var err error
	if req.StartDate != "" {
		if d.StartDate, err = generic.ParseDate(req.StartDate); err != nil {
			return d, fmt.Errorf("startDate: %w", err)
		}
	}
	if req.EndDate != "" {
		if d.EndDate, err = generic.ParseDate(req.EndDate); err != nil {
			return d, fmt.Errorf("endDate: %w", err)
		}
	}
	return d, nil
}

func parsePeriod(start, end string) (generic.Period, error) {
	s, err := generic.ParseDate(start)
	if err != nil {
		return generic.Period{}, fmt.Errorf("start: %w", err)
	}
	e, err := generic.ParseDate(end)
	if err != nil {
		return generic.Period{}, fmt.Errorf("end: %w", err)
	}
	return generic.NewPeriod(s, e)
}

func teamApplications(apps []timeoff.Application, team []timeoff.User) []timeoff.Application {
	members := make(map[string]bool, len(team))
	for _, u := range team {
		members[u.ID] = true
	}
	out := []timeoff.Application{}
	for _, a := range apps {
		if members[a.UserID] {
			out = append(out, a)
		}
	}
	return out
}

// decodeOptional decodes a JSON body when one is present. Recall and cancel
// accept an empty body.
func decodeOptional(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps generic error categories to HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case errors.Is(err, generic.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:      message,
			Violations: generic.Violations(err),
		})
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, generic.ErrInvalidTransition),
		errors.Is(err, generic.ErrConcurrentModification),
		errors.Is(err, generic.ErrDuplicateIdempotencyKey):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, generic.ErrInvalidPeriod):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, generic.ErrStoreUnavailable):
		h.Logger.ErrorContext(r.Context(), message, slog.String("error", err.Error()))
		writeError(w, http.StatusServiceUnavailable, message, err)
	default:
		h.Logger.ErrorContext(r.Context(), message, slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
