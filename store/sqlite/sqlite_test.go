package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/store/sqlite"
	"github.com/warp/leave-engine/timeoff"
)

var now = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_UsersAndAssignmentsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveUsers(ctx, timeoff.DefaultUsers()))
	require.NoError(t, s.SaveManagerAssignments(ctx, timeoff.DefaultAssignments()))

	users, err := s.LoadUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, timeoff.DefaultUsers(), users, "order is preserved")

	assignments, err := s.LoadManagerAssignments(ctx)
	require.NoError(t, err)
	assert.Equal(t, timeoff.DefaultAssignments(), assignments)
}

func TestStore_ApplicationRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	approvedOn := now.Add(2 * time.Hour)
	recalledOn := now.Add(48 * time.Hour)
	app := timeoff.Application{
		ID:           "a1",
		UserID:       "1",
		Type:         timeoff.LeaveSick,
		StartDate:    generic.MustParseDate("2025-03-10"),
		EndDate:      generic.MustParseDate("2025-03-14"),
		Status:       timeoff.StatusRecalled,
		Reason:       "Flu, medical certificate attached",
		AppliedOn:    now,
		IsEmergency:  true,
		RecalledOn:   &recalledOn,
		RecallReason: "Recovered early",
		ApprovedBy:   "3",
		ApprovedOn:   &approvedOn,
		Version:      3,
	}
	require.NoError(t, s.SaveApplications(ctx, []timeoff.Application{app}))

	apps, err := s.LoadApplications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	got := apps[0]
	assert.Equal(t, app.ID, got.ID)
	assert.Equal(t, app.StartDate, got.StartDate)
	assert.Equal(t, app.EndDate, got.EndDate)
	assert.True(t, app.AppliedOn.Equal(got.AppliedOn))
	assert.True(t, got.IsEmergency)
	require.NotNil(t, got.RecalledOn)
	assert.True(t, recalledOn.Equal(*got.RecalledOn))
	require.NotNil(t, got.ApprovedOn)
	assert.Equal(t, "3", got.ApprovedBy)
	assert.Equal(t, "Recovered early", got.RecallReason)
	assert.Empty(t, got.RejectionReason)
	assert.Equal(t, 3, got.Version)
}

func TestStore_VersionConflicts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := timeoff.NewLeaveBalance("1")
	b.Version = 2
	require.NoError(t, s.SaveBalances(ctx, []timeoff.LeaveBalance{b}))

	stale := b
	stale.Version = 1
	stale.Paid = 0
	err := s.SaveBalances(ctx, []timeoff.LeaveBalance{stale})
	assert.ErrorIs(t, err, generic.ErrConcurrentModification)

	balances, err := s.LoadBalances(ctx)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, 12, balances[0].Paid)
}

func TestStore_JournalAppendOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendTransaction(ctx, generic.Transaction{
		ID: "t2", EntityID: "1", Resource: "paid", Type: generic.TxDeduct,
		Requested: 3, Delta: -3, BalanceAfter: 9, ReferenceID: "a1",
		IdempotencyKey: "a1:deduct", CreatedAt: now.Add(time.Minute),
	}))
	require.NoError(t, s.AppendTransaction(ctx, generic.Transaction{
		ID: "t1", EntityID: "1", Resource: "paid", Type: generic.TxOpen,
		Requested: 12, Delta: 12, BalanceAfter: 12, Reason: "balance opened",
		IdempotencyKey: "open:1:paid:x", CreatedAt: now,
	}))

	err := s.AppendTransaction(ctx, generic.Transaction{
		ID: "t3", EntityID: "1", Resource: "paid", Type: generic.TxDeduct,
		IdempotencyKey: "a1:deduct", CreatedAt: now,
	})
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)

	txs, err := s.Transactions(ctx, "1")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, generic.TransactionID("t1"), txs[0].ID, "ordered by creation time")
	assert.Equal(t, "a1", txs[1].ReferenceID)
	assert.Equal(t, -3, txs[1].Delta)
	assert.True(t, now.Add(time.Minute).Equal(txs[1].CreatedAt))

	exists, err := s.TransactionExists(ctx, "a1:deduct")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_AuditQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendAudit(ctx, generic.AuditEntry{
		ID: "e1", Timestamp: now, ActorID: "1", Action: generic.AuditRequestCreated,
		EntityID: "1", SubjectID: "a1", Payload: map[string]any{"days": 3},
	}))
	require.NoError(t, s.AppendAudit(ctx, generic.AuditEntry{
		ID: "e2", Timestamp: now.Add(time.Hour), ActorID: "3", Action: generic.AuditRequestApproved,
		EntityID: "1", SubjectID: "a1",
	}))
	require.NoError(t, s.AppendAudit(ctx, generic.AuditEntry{
		ID: "e3", Timestamp: now, Action: generic.AuditReset, EntityID: "system",
	}))

	user := generic.EntityID("1")
	entries, err := s.QueryAudit(ctx, generic.AuditFilter{EntityID: &user})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "e1", entries[0].ID)
	assert.Equal(t, float64(3), entries[0].Payload["days"], "payload is stored as JSON")

	manager := "3"
	entries, err = s.QueryAudit(ctx, generic.AuditFilter{ActorID: &manager})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, generic.AuditRequestApproved, entries[0].Action)
}

func TestStore_WithTxRollback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveUsers(ctx, timeoff.DefaultUsers()))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx timeoff.Store) error {
		if err := tx.SaveUsers(ctx, nil); err != nil {
			return err
		}
		if err := tx.AppendTransaction(ctx, generic.Transaction{
			ID: "t1", EntityID: "1", Resource: "paid", Type: generic.TxOpen,
			IdempotencyKey: "open:1", CreatedAt: now,
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	users, err := s.LoadUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 15)

	exists, err := s.TransactionExists(ctx, "open:1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_FileDatabaseSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leave.db")
	ctx := context.Background()

	s, err := sqlite.New(path)
	require.NoError(t, err)
	ledger := timeoff.NewBalanceLedger(s, generic.FixedClock{At: now})
	require.NoError(t, s.SaveUsers(ctx, timeoff.DefaultUsers()))
	_, err = ledger.Deduct(ctx, "1", timeoff.LeavePaid, 2, "a1")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = sqlite.New(path)
	require.NoError(t, err)
	defer s.Close()

	balances, err := s.LoadBalances(ctx)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, 10, balances[0].Paid)

	drifts, err := timeoff.ReconcileBalances(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}
