/*
Package generic provides the domain-agnostic building blocks of the leave engine.

PURPOSE:
  Calendar-day arithmetic, the error taxonomy, and the append-only journal
  and audit log that sit underneath the balance ledger. Nothing here knows
  about leave types, statuses or policy rules; that lives in package timeoff.

KEY CONCEPTS IN THIS FILE (types.go):
  - ResourceType: What a balance counter measures (paid, sick, ...)
  - Transaction: An immutable journal entry recording one balance change
  - JournalStore: Append-only persistence for transactions

DESIGN PRINCIPLES:
  1. Immutability: Journal entries are never modified
  2. Idempotency: Every entry carries a key; a duplicate key is rejected
  3. Auditability: Every balance change names its reason and reference

SEE ALSO:
  - time.go: TimePoint, Clock, InclusiveDays
  - period.go: Inclusive day ranges
  - audit.go: Who did what when
*/
package generic

import (
	"context"
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EntityID string
type TransactionID string

// ResourceType identifies what kind of balance is being tracked.
// Domain packages define their own concrete types and register them.
type ResourceType interface {
	// ResourceID returns the unique identifier for this resource type.
	ResourceID() string

	// ResourceDomain returns which domain this resource belongs to.
	ResourceDomain() string
}

// =============================================================================
// TRANSACTION - Journal entry for a balance change
// =============================================================================

type TransactionType string

const (
	TxDeduct  TransactionType = "deduct"  // Leave approved (or auto-approved)
	TxRestore TransactionType = "restore" // Approved leave recalled
	TxOpen    TransactionType = "open"    // Balance record created with its entitlement
)

// Transaction records a single change to one counter. Delta is the change
// actually applied after clamping, so replaying a journal reproduces the
// counter exactly.
type Transaction struct {
	ID             TransactionID   `json:"id"`
	EntityID       EntityID        `json:"entityId"`
	Resource       string          `json:"resource"`
	Type           TransactionType `json:"type"`
	Requested      int             `json:"requested"`
	Delta          int             `json:"delta"`
	BalanceAfter   int             `json:"balanceAfter"`
	ReferenceID    string          `json:"referenceId,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	IdempotencyKey string          `json:"idempotencyKey"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Clamped reports whether the requested change was cut short by a bound.
func (t Transaction) Clamped() bool {
	d := t.Delta
	if d < 0 {
		d = -d
	}
	return d != t.Requested
}

// JournalStore is the append-only persistence for transactions.
// There is no Update and no Delete.
type JournalStore interface {
	// AppendTransaction persists tx. Returns ErrDuplicateIdempotencyKey if
	// the key already exists.
	AppendTransaction(ctx context.Context, tx Transaction) error

	// Transactions returns all entries for entity, oldest first.
	Transactions(ctx context.Context, entityID EntityID) ([]Transaction, error)

	// TransactionExists checks if an idempotency key already exists.
	TransactionExists(ctx context.Context, idempotencyKey string) (bool, error)
}
