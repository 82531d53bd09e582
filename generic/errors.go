/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The domain package returns these (wrapped with context); the API layer
  maps them to HTTP statuses with errors.Is / errors.As.

ERROR CATEGORIES:
  1. ValidationFailure  - Policy violations; recoverable, shown to the submitter
  2. InvalidTransition  - Status change not allowed from the current status
  3. NotFound           - Referenced user/application/balance is absent
  4. StoreUnavailable   - Persistence read/write failure
  5. Concurrency        - Optimistic version check failed (retryable)

SEE ALSO:
  - timeoff/request.go: Returns ValidationError and InvalidTransitionError
  - api/handlers.go: Maps these to HTTP responses
*/
package generic

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is wrapped by ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is wrapped by InvalidTransitionError.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable wraps persistence failures. An absent collection is
	// NOT an error; it reads as empty.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrConcurrentModification is returned when optimistic locking detects a conflict.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrDuplicateIdempotencyKey is returned when a journal entry with the same
	// key already exists, i.e. a balance mutation was attempted twice for the
	// same status transition.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError carries every violated rule, in evaluation order.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError is a convenience for single-message failures.
func NewValidationError(violations ...string) *ValidationError {
	return &ValidationError{Violations: violations}
}

// InvalidTransitionError describes a rejected status change.
type InvalidTransitionError struct {
	ID     string
	Action string
	From   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s application %s in status %s", e.Action, e.ID, e.From)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string // "user", "application", "balance"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// StoreError wraps a backend failure with the operation that failed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error { return []error{ErrStoreUnavailable, e.Err} }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification) || errors.Is(err, ErrStoreUnavailable)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrDuplicateIdempotencyKey)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Violations extracts the violation list from err, if it is a ValidationError.
func Violations(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Violations
	}
	return nil
}
