/*
ledger.go - Balance ledger: remaining/max counters plus an idempotent journal

PURPOSE:
  The only component that mutates LeaveBalance. Approval deducts, recall of
  an approved application restores. Nothing else touches the counters.

CLAMPING:
  Deduct never takes a counter below 0 even when the duration exceeds what
  is left (best effort, not an error). Restore never takes it above max, so
  repeated recalls cannot over-credit.

EXACTLY ONCE:
  Each mutation appends a generic.Transaction with idempotency key
  "<ref>:deduct" or "<ref>:restore". The second attempt for the same
  reference fails with generic.ErrDuplicateIdempotencyKey and leaves the
  counter untouched.

LAZY CREATION:
  A balance is created on first read with all counters at 12/12.

EXAMPLE:
  ledger := timeoff.NewBalanceLedger(store, clock)
  bal, err := ledger.Deduct(ctx, "1", timeoff.LeavePaid, 3, app.ID)
*/
package timeoff

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/warp/leave-engine/generic"
)

// BalanceLedger owns every write to LeaveBalance.
type BalanceLedger struct {
	Store Store
	Clock generic.Clock
}

func NewBalanceLedger(store Store, clock generic.Clock) *BalanceLedger {
	if clock == nil {
		clock = generic.SystemClock{}
	}
	return &BalanceLedger{Store: store, Clock: clock}
}

// Balance returns userID's balance, creating the default record on first use.
func (l *BalanceLedger) Balance(ctx context.Context, userID string) (*LeaveBalance, error) {
	balances, err := l.Store.LoadBalances(ctx)
	if err != nil {
		return nil, err
	}
	if i, ok := findBalance(balances, userID); ok {
		b := balances[i]
		return &b, nil
	}

	users, err := l.Store.LoadUsers(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := findUser(users, userID); !ok {
		return nil, &generic.NotFoundError{Kind: "user", ID: userID}
	}

	b := NewLeaveBalance(userID)
	b.Version = 1
	balances = append(balances, b)
	if err := l.Store.SaveBalances(ctx, balances); err != nil {
		return nil, fmt.Errorf("failed to create balance: %w", err)
	}
	for _, t := range LeaveTypes {
		id := uuid.NewString()
		if err := l.Store.AppendTransaction(ctx, generic.Transaction{
			ID:             generic.TransactionID(id),
			EntityID:       generic.EntityID(userID),
			Resource:       t.ResourceID(),
			Type:           generic.TxOpen,
			Requested:      b.Max(t),
			Delta:          b.Remaining(t),
			BalanceAfter:   b.Remaining(t),
			Reason:         "balance opened",
			IdempotencyKey: fmt.Sprintf("open:%s:%s:%s", userID, t, id),
			CreatedAt:      l.Clock.Now(),
		}); err != nil {
			return nil, fmt.Errorf("failed to journal opening balance: %w", err)
		}
	}
	return &b, nil
}

// Deduct lowers the remaining counter by days, clamped at 0.
func (l *BalanceLedger) Deduct(ctx context.Context, userID string, t LeaveType, days int, ref string) (*LeaveBalance, error) {
	return l.apply(ctx, userID, t, -days, generic.TxDeduct, ref)
}

// Restore raises the remaining counter by days, clamped at max.
func (l *BalanceLedger) Restore(ctx context.Context, userID string, t LeaveType, days int, ref string) (*LeaveBalance, error) {
	return l.apply(ctx, userID, t, days, generic.TxRestore, ref)
}

// History returns the journal for userID, oldest first.
func (l *BalanceLedger) History(ctx context.Context, userID string) ([]generic.Transaction, error) {
	return l.Store.Transactions(ctx, generic.EntityID(userID))
}

func (l *BalanceLedger) apply(ctx context.Context, userID string, t LeaveType, delta int, txType generic.TransactionType, ref string) (*LeaveBalance, error) {
	if days := abs(delta); days == 0 {
		return l.Balance(ctx, userID)
	}

	key := fmt.Sprintf("%s:%s", ref, txType)
	exists, err := l.Store.TransactionExists(ctx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%s for %s: %w", txType, ref, generic.ErrDuplicateIdempotencyKey)
	}

	// Ensure the record exists before loading the collection for update.
	if _, err := l.Balance(ctx, userID); err != nil {
		return nil, err
	}
	balances, err := l.Store.LoadBalances(ctx)
	if err != nil {
		return nil, err
	}
	i, ok := findBalance(balances, userID)
	if !ok {
		return nil, &generic.NotFoundError{Kind: "balance", ID: userID}
	}

	b := balances[i]
	before := b.Remaining(t)
	after := b.setRemaining(t, before+delta)
	b.Version++
	balances[i] = b

	if err := l.Store.SaveBalances(ctx, balances); err != nil {
		return nil, fmt.Errorf("failed to save balance: %w", err)
	}
	if err := l.Store.AppendTransaction(ctx, generic.Transaction{
		ID:             generic.TransactionID(uuid.NewString()),
		EntityID:       generic.EntityID(userID),
		Resource:       t.ResourceID(),
		Type:           txType,
		Requested:      abs(delta),
		Delta:          after - before,
		BalanceAfter:   after,
		ReferenceID:    ref,
		IdempotencyKey: key,
		CreatedAt:      l.Clock.Now(),
	}); err != nil {
		return nil, fmt.Errorf("failed to journal %s: %w", txType, err)
	}
	return &b, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
