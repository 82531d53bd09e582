/*
store.go - Persistence interface for the leave collections

PURPOSE:
  Defines the interface between the domain logic and the database. No
  component reads ambient state: every service receives a Store.

COLLECTIONS:
  Users, balances, applications and manager assignments are loaded and
  saved as whole collections (atomic replace), matching the key-value
  layout the application grew up with. An absent collection reads as empty.

JOURNAL & AUDIT:
  Balance changes are also appended to an idempotent journal, and every
  lifecycle transition to the audit log. Both are append-only.

CONCURRENCY:
  Records carry a Version. Writers bump it on every change; a store MUST
  reject a save where an incoming record is older than the stored one with
  generic.ErrConcurrentModification. TxStore.WithTx serializes the whole
  read-validate-write sequence.

IMPLEMENTATIONS:
  - store/sqlite: SQLite (default)
  - store/memory: In-memory for testing
*/
package timeoff

import (
	"context"
	"fmt"

	"github.com/warp/leave-engine/generic"
)

// Store is the persistence boundary of the leave engine.
type Store interface {
	generic.JournalStore
	generic.AuditLog

	LoadUsers(ctx context.Context) ([]User, error)
	SaveUsers(ctx context.Context, users []User) error

	LoadBalances(ctx context.Context) ([]LeaveBalance, error)
	SaveBalances(ctx context.Context, balances []LeaveBalance) error

	LoadApplications(ctx context.Context) ([]Application, error)
	SaveApplications(ctx context.Context, apps []Application) error

	LoadManagerAssignments(ctx context.Context) ([]ManagerAssignment, error)
	SaveManagerAssignments(ctx context.Context, assignments []ManagerAssignment) error
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, all writes made through the Store passed to fn
	// are rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// LOOKUP HELPERS
// =============================================================================

func findUser(users []User, id string) (User, bool) {
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

func findApplication(apps []Application, id string) (int, bool) {
	for i, a := range apps {
		if a.ID == id {
			return i, true
		}
	}
	return -1, false
}

func findBalance(balances []LeaveBalance, userID string) (int, bool) {
	for i, b := range balances {
		if b.UserID == userID {
			return i, true
		}
	}
	return -1, false
}

// =============================================================================
// OPTIMISTIC CONCURRENCY
// =============================================================================

// CheckApplicationVersions fails with generic.ErrConcurrentModification when
// an incoming application is older than the stored one with the same ID.
func CheckApplicationVersions(stored, incoming []Application) error {
	return checkVersions(stored, incoming,
		func(a Application) string { return a.ID },
		func(a Application) int { return a.Version })
}

// CheckBalanceVersions is CheckApplicationVersions for balances, keyed by user.
func CheckBalanceVersions(stored, incoming []LeaveBalance) error {
	return checkVersions(stored, incoming,
		func(b LeaveBalance) string { return b.UserID },
		func(b LeaveBalance) int { return b.Version })
}

func checkVersions[T any](stored, incoming []T, key func(T) string, version func(T) int) error {
	current := make(map[string]int, len(stored))
	for _, s := range stored {
		current[key(s)] = version(s)
	}
	for _, in := range incoming {
		if v, ok := current[key(in)]; ok && version(in) < v {
			return fmt.Errorf("%s at version %d, stored %d: %w",
				key(in), version(in), v, generic.ErrConcurrentModification)
		}
	}
	return nil
}
