package generic

import (
	"context"
	"time"
)

// =============================================================================
// AUDIT LOG - Separate from the journal, tracks who did what when
// =============================================================================

// AuditEntry records who did what when.
type AuditEntry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	ActorID   string         `json:"actorId,omitempty"`
	Action    AuditAction    `json:"action"`
	EntityID  EntityID       `json:"entityId"`
	SubjectID string         `json:"subjectId,omitempty"` // application or assignment the action touched
	Payload   map[string]any `json:"payload,omitempty"`
}

type AuditAction string

const (
	AuditRequestCreated  AuditAction = "request_created"
	AuditRequestApproved AuditAction = "request_approved"
	AuditRequestRejected AuditAction = "request_rejected"
	AuditRequestCanceled AuditAction = "request_canceled"
	AuditRequestRecalled AuditAction = "request_recalled"
	AuditAssignment      AuditAction = "manager_assignment"
	AuditProfileChanged  AuditAction = "profile_changed"
	AuditReset           AuditAction = "reset"
)

// AuditLog stores audit entries. Also append-only.
type AuditLog interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	QueryAudit(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}

type AuditFilter struct {
	EntityID *EntityID
	ActorID  *string
	Actions  []AuditAction
	From     *time.Time
	To       *time.Time
}

// Matches reports whether e passes every set field of the filter.
func (f AuditFilter) Matches(e AuditEntry) bool {
	if f.EntityID != nil && e.EntityID != *f.EntityID {
		return false
	}
	if f.ActorID != nil && e.ActorID != *f.ActorID {
		return false
	}
	if len(f.Actions) > 0 {
		found := false
		for _, a := range f.Actions {
			if a == e.Action {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.From != nil && e.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Timestamp.After(*f.To) {
		return false
	}
	return true
}
