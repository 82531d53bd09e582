package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/store/memory"
	"github.com/warp/leave-engine/timeoff"
)

var now = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

func testApplication(id string, version int) timeoff.Application {
	return timeoff.Application{
		ID:        id,
		UserID:    "1",
		Type:      timeoff.LeavePaid,
		StartDate: generic.MustParseDate("2025-03-10"),
		EndDate:   generic.MustParseDate("2025-03-12"),
		Status:    timeoff.StatusPending,
		Reason:    "Family trip",
		AppliedOn: now,
		Version:   version,
	}
}

func TestMemory_CollectionsAreCopied(t *testing.T) {
	m := memory.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SaveManagerAssignments(ctx, timeoff.DefaultAssignments()))
	got, err := m.LoadManagerAssignments(ctx)
	require.NoError(t, err)
	got[0].EmployeeIDs[0] = "mutated"

	again, err := m.LoadManagerAssignments(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", again[0].EmployeeIDs[0], "callers cannot alias stored slices")
}

func TestMemory_ApplicationVersionConflict(t *testing.T) {
	m := memory.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SaveApplications(ctx, []timeoff.Application{testApplication("a1", 2)}))

	err := m.SaveApplications(ctx, []timeoff.Application{testApplication("a1", 1)})
	assert.ErrorIs(t, err, generic.ErrConcurrentModification)

	apps, err := m.LoadApplications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, 2, apps[0].Version, "stale save wrote nothing")
}

func TestMemory_Journal(t *testing.T) {
	m := memory.NewMemory()
	ctx := context.Background()

	late := generic.Transaction{ID: "t2", EntityID: "1", Resource: "paid", Type: generic.TxDeduct, IdempotencyKey: "a:deduct", CreatedAt: now.Add(time.Hour)}
	early := generic.Transaction{ID: "t1", EntityID: "1", Resource: "paid", Type: generic.TxOpen, IdempotencyKey: "open:1", CreatedAt: now}
	require.NoError(t, m.AppendTransaction(ctx, late))
	require.NoError(t, m.AppendTransaction(ctx, early))

	err := m.AppendTransaction(ctx, generic.Transaction{ID: "t3", EntityID: "1", IdempotencyKey: "a:deduct", CreatedAt: now})
	assert.ErrorIs(t, err, generic.ErrDuplicateIdempotencyKey)

	txs, err := m.Transactions(ctx, "1")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, generic.TransactionID("t1"), txs[0].ID, "oldest first")

	exists, err := m.TransactionExists(ctx, "a:deduct")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTxMemory_RollbackOnError(t *testing.T) {
	// GIVEN: A store holding one application
	// WHEN: A transaction writes an application, a journal entry and an
	//       audit entry, then fails
	// THEN: None of the writes are visible
	tm := memory.NewTxMemory()
	ctx := context.Background()
	require.NoError(t, tm.SaveApplications(ctx, []timeoff.Application{testApplication("a1", 1)}))

	boom := errors.New("boom")
	err := tm.WithTx(ctx, func(s timeoff.Store) error {
		apps, err := s.LoadApplications(ctx)
		require.NoError(t, err)
		apps = append(apps, testApplication("a2", 1))
		require.NoError(t, s.SaveApplications(ctx, apps))
		require.NoError(t, s.AppendTransaction(ctx, generic.Transaction{ID: "t1", EntityID: "1", IdempotencyKey: "a2:deduct", CreatedAt: now}))
		require.NoError(t, s.AppendAudit(ctx, generic.AuditEntry{ID: "e1", Timestamp: now, Action: generic.AuditRequestCreated, EntityID: "1"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	apps, err := tm.LoadApplications(ctx)
	require.NoError(t, err)
	assert.Len(t, apps, 1)

	exists, err := tm.TransactionExists(ctx, "a2:deduct")
	require.NoError(t, err)
	assert.False(t, exists)

	entries, err := tm.QueryAudit(ctx, generic.AuditFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTxMemory_CommitOnSuccess(t *testing.T) {
	tm := memory.NewTxMemory()
	ctx := context.Background()

	err := tm.WithTx(ctx, func(s timeoff.Store) error {
		if err := s.SaveUsers(ctx, timeoff.DefaultUsers()); err != nil {
			return err
		}
		return s.AppendAudit(ctx, generic.AuditEntry{ID: "e1", Timestamp: now, Action: generic.AuditReset, EntityID: "system"})
	})
	require.NoError(t, err)

	users, err := tm.LoadUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 15)

	system := generic.EntityID("system")
	entries, err := tm.QueryAudit(ctx, generic.AuditFilter{EntityID: &system})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
