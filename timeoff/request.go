package timeoff

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/leave-engine/generic"
)

// ReapplyPrefix is prepended to the reason of a draft built from a rejected
// application.
const ReapplyPrefix = "Reapplying for previously rejected leave. "

const (
	defaultCancelReason = "Canceled by employee"
	defaultRecallReason = "No reason provided"
)

// =============================================================================
// REQUEST SERVICE - Handles the application lifecycle with transactional guarantees
// =============================================================================

// RequestService owns status transitions. Every transition runs inside
// Store.WithTx so the status change, the balance mutation and the audit
// entry commit or roll back together.
type RequestService struct {
	Store     TxStore
	Evaluator *Evaluator
	Clock     generic.Clock
	Logger    *slog.Logger
}

func NewRequestService(store TxStore, eval *Evaluator, clock generic.Clock, logger *slog.Logger) *RequestService {
	if clock == nil {
		clock = generic.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestService{Store: store, Evaluator: eval, Clock: clock, Logger: logger}
}

// =============================================================================
// SUBMIT
// =============================================================================

// Validate runs the evaluator against the current state without persisting
// anything. The UI calls it while the form is being filled.
func (rs *RequestService) Validate(ctx context.Context, d Draft) ([]string, error) {
	d, err := normalizeDraft(d)
	if err != nil {
		return nil, err
	}
	ec, err := rs.evalContext(ctx, rs.Store, d.UserID, false)
	if err != nil {
		return nil, err
	}
	return rs.Evaluator.Evaluate(d, ec), nil
}

// Submit evaluates d and, when it passes, creates the application.
// Emergency leave is created approved and deducted immediately; everything
// else starts pending.
func (rs *RequestService) Submit(ctx context.Context, d Draft) (*Application, error) {
	d, err := normalizeDraft(d)
	if err != nil {
		return nil, err
	}

	var created Application
	err = rs.Store.WithTx(ctx, func(tx Store) error {
		ec, err := rs.evalContext(ctx, tx, d.UserID, true)
		if err != nil {
			return err
		}
		if violations := rs.Evaluator.Evaluate(d, ec); len(violations) > 0 {
			return &generic.ValidationError{Violations: violations}
		}

		now := rs.Clock.Now()
		app := Application{
			ID:          uuid.NewString(),
			UserID:      d.UserID,
			Type:        d.Type,
			StartDate:   d.StartDate,
			EndDate:     d.EndDate,
			Status:      StatusPending,
			Reason:      d.Reason,
			AppliedOn:   now,
			IsEmergency: d.IsEmergency,
			Version:     1,
		}
		if d.IsEmergency {
			app.Status = StatusApproved
			app.ApprovedOn = &now
		}

		apps := append(ec.Applications, app)
		if err := tx.SaveApplications(ctx, apps); err != nil {
			return fmt.Errorf("failed to save application: %w", err)
		}
		if d.IsEmergency {
			ledger := NewBalanceLedger(tx, rs.Clock)
			if _, err := ledger.Deduct(ctx, app.UserID, app.Type, app.Duration(), app.ID); err != nil {
				return fmt.Errorf("failed to deduct emergency leave: %w", err)
			}
		}

		created = app
		return tx.AppendAudit(ctx, rs.auditEntry(d.UserID, generic.AuditRequestCreated, app, map[string]any{
			"type":      string(app.Type),
			"days":      app.Duration(),
			"emergency": app.IsEmergency,
			"status":    string(app.Status),
		}))
	})
	if err != nil {
		return nil, err
	}

	rs.Logger.Info("leave application submitted",
		slog.String("application_id", created.ID),
		slog.String("user_id", created.UserID),
		slog.String("type", string(created.Type)),
		slog.String("status", string(created.Status)),
		slog.Int("days", created.Duration()))
	return &created, nil
}

// normalizeDraft fills the emergency default type and rejects unknown types.
func normalizeDraft(d Draft) (Draft, error) {
	if d.UserID == "" {
		return d, generic.NewValidationError("User is required")
	}
	if d.Type == "" && d.IsEmergency {
		d.Type = LeaveSick
	}
	if _, err := ParseLeaveType(string(d.Type)); err != nil {
		return d, generic.NewValidationError(fmt.Sprintf("Leave type must be one of %s",
			strings.Join(generic.ListResourcesByDomain(Domain), ", ")))
	}
	return d, nil
}

// evalContext loads the snapshot the evaluator needs. With create set the
// submitter's balance is lazily created; otherwise a missing balance is
// judged as the default one.
func (rs *RequestService) evalContext(ctx context.Context, s Store, userID string, create bool) (EvalContext, error) {
	users, err := s.LoadUsers(ctx)
	if err != nil {
		return EvalContext{}, err
	}
	if _, ok := findUser(users, userID); !ok {
		return EvalContext{}, &generic.NotFoundError{Kind: "user", ID: userID}
	}
	apps, err := s.LoadApplications(ctx)
	if err != nil {
		return EvalContext{}, err
	}

	var balance *LeaveBalance
	if create {
		balance, err = NewBalanceLedger(s, rs.Clock).Balance(ctx, userID)
		if err != nil {
			return EvalContext{}, err
		}
	} else {
		balances, err := s.LoadBalances(ctx)
		if err != nil {
			return EvalContext{}, err
		}
		b := NewLeaveBalance(userID)
		if i, ok := findBalance(balances, userID); ok {
			b = balances[i]
		}
		balance = &b
	}
	return EvalContext{Applications: apps, Balance: balance, Users: users}, nil
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Approve moves a pending application to approved and deducts its duration.
func (rs *RequestService) Approve(ctx context.Context, id, approverID string) (*Application, error) {
	return rs.transition(ctx, id, "approve", approverID, generic.AuditRequestApproved,
		[]Status{StatusPending},
		func(tx Store, app *Application, now time.Time) error {
			app.Status = StatusApproved
			app.ApprovedBy = approverID
			app.ApprovedOn = &now
			_, err := NewBalanceLedger(tx, rs.Clock).Deduct(ctx, app.UserID, app.Type, app.Duration(), app.ID)
			return err
		})
}

// Reject moves a pending application to rejected. A reason is mandatory.
func (rs *RequestService) Reject(ctx context.Context, id, approverID, reason string) (*Application, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, generic.NewValidationError("Rejection reason is required")
	}
	return rs.transition(ctx, id, "reject", approverID, generic.AuditRequestRejected,
		[]Status{StatusPending},
		func(_ Store, app *Application, _ time.Time) error {
			app.Status = StatusRejected
			app.RejectionReason = reason
			return nil
		})
}

// Cancel withdraws a pending application. It ends up rejected with the
// given reason, or "Canceled by employee".
func (rs *RequestService) Cancel(ctx context.Context, id, reason string) (*Application, error) {
	if strings.TrimSpace(reason) == "" {
		reason = defaultCancelReason
	}
	return rs.transition(ctx, id, "cancel", "", generic.AuditRequestCanceled,
		[]Status{StatusPending},
		func(_ Store, app *Application, _ time.Time) error {
			app.Status = StatusRejected
			app.RejectionReason = reason
			return nil
		})
}

// Recall reverses a pending or approved application. Only an approved one
// had its balance deducted, so only that case restores.
func (rs *RequestService) Recall(ctx context.Context, id, reason string) (*Application, error) {
	if strings.TrimSpace(reason) == "" {
		reason = defaultRecallReason
	}
	return rs.transition(ctx, id, "recall", "", generic.AuditRequestRecalled,
		[]Status{StatusPending, StatusApproved},
		func(tx Store, app *Application, now time.Time) error {
			wasApproved := app.Status == StatusApproved
			app.Status = StatusRecalled
			app.RecalledOn = &now
			app.RecallReason = reason
			if !wasApproved {
				return nil
			}
			_, err := NewBalanceLedger(tx, rs.Clock).Restore(ctx, app.UserID, app.Type, app.Duration(), app.ID)
			return err
		})
}

type mutation func(tx Store, app *Application, now time.Time) error

func (rs *RequestService) transition(ctx context.Context, id, action, actorID string, audit generic.AuditAction, from []Status, mutate mutation) (*Application, error) {
	var updated Application
	var prev Status
	err := rs.Store.WithTx(ctx, func(tx Store) error {
		apps, err := tx.LoadApplications(ctx)
		if err != nil {
			return err
		}
		i, ok := findApplication(apps, id)
		if !ok {
			return &generic.NotFoundError{Kind: "application", ID: id}
		}

		app := apps[i]
		prev = app.Status
		if !statusIn(prev, from) {
			return &generic.InvalidTransitionError{ID: id, Action: action, From: string(prev)}
		}

		if err := mutate(tx, &app, rs.Clock.Now()); err != nil {
			return fmt.Errorf("failed to %s application: %w", action, err)
		}
		app.Version++
		apps[i] = app
		if err := tx.SaveApplications(ctx, apps); err != nil {
			return fmt.Errorf("failed to save application: %w", err)
		}

		updated = app
		actor := actorID
		if actor == "" {
			actor = app.UserID
		}
		payload := map[string]any{"from": string(prev), "to": string(app.Status), "days": app.Duration()}
		if app.RejectionReason != "" && app.Status == StatusRejected {
			payload["reason"] = app.RejectionReason
		}
		if app.RecallReason != "" && app.Status == StatusRecalled {
			payload["reason"] = app.RecallReason
		}
		return tx.AppendAudit(ctx, rs.auditEntry(actor, audit, app, payload))
	})
	if err != nil {
		return nil, err
	}

	rs.Logger.Info("leave application "+action,
		slog.String("application_id", id),
		slog.String("user_id", updated.UserID),
		slog.String("from", string(prev)),
		slog.String("to", string(updated.Status)))
	return &updated, nil
}

func statusIn(s Status, allowed []Status) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}

func (rs *RequestService) auditEntry(actorID string, action generic.AuditAction, app Application, payload map[string]any) generic.AuditEntry {
	return generic.AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: rs.Clock.Now(),
		ActorID:   actorID,
		Action:    action,
		EntityID:  generic.EntityID(app.UserID),
		SubjectID: app.ID,
		Payload:   payload,
	}
}

// =============================================================================
// REAPPLY & READS
// =============================================================================

// Reapply builds a new draft from a rejected application. The original is
// left untouched; the caller submits the draft like any other.
func (rs *RequestService) Reapply(ctx context.Context, id string) (Draft, error) {
	app, err := rs.Get(ctx, id)
	if err != nil {
		return Draft{}, err
	}
	if app.Status != StatusRejected {
		return Draft{}, &generic.InvalidTransitionError{ID: id, Action: "reapply", From: string(app.Status)}
	}
	reason := app.Reason
	if !strings.HasPrefix(reason, ReapplyPrefix) {
		reason = ReapplyPrefix + reason
	}
	return Draft{
		UserID:    app.UserID,
		Type:      app.Type,
		StartDate: app.StartDate,
		EndDate:   app.EndDate,
		Reason:    reason,
	}, nil
}

func (rs *RequestService) Get(ctx context.Context, id string) (*Application, error) {
	apps, err := rs.Store.LoadApplications(ctx)
	if err != nil {
		return nil, err
	}
	i, ok := findApplication(apps, id)
	if !ok {
		return nil, &generic.NotFoundError{Kind: "application", ID: id}
	}
	app := apps[i]
	return &app, nil
}

// ApplicationFilter narrows List. Zero fields match everything.
type ApplicationFilter struct {
	UserID string
	Status Status
	Type   LeaveType
	Year   int // calendar year of StartDate
}

func (f ApplicationFilter) Matches(a Application) bool {
	if f.UserID != "" && a.UserID != f.UserID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Type != "" && a.Type != f.Type {
		return false
	}
	if f.Year != 0 && a.StartDate.Year() != f.Year {
		return false
	}
	return true
}

// List returns matching applications, most recently applied first.
func (rs *RequestService) List(ctx context.Context, f ApplicationFilter) ([]Application, error) {
	apps, err := rs.Store.LoadApplications(ctx)
	if err != nil {
		return nil, err
	}
	out := []Application{}
	for _, a := range apps {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AppliedOn.After(out[j].AppliedOn) })
	return out, nil
}
