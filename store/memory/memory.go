// Package memory provides an in-memory timeoff.TxStore.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	state state
}

type state struct {
	users        []timeoff.User
	balances     []timeoff.LeaveBalance
	applications []timeoff.Application
	assignments  []timeoff.ManagerAssignment
	transactions map[generic.EntityID][]generic.Transaction
	idempotency  map[string]bool
	audit        []generic.AuditEntry
}

func NewMemory() *Memory {
	return &Memory{state: state{
		transactions: make(map[generic.EntityID][]generic.Transaction),
		idempotency:  make(map[string]bool),
	}}
}

// Users

func (m *Memory) LoadUsers(_ context.Context) ([]timeoff.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.loadUsers(), nil
}

func (m *Memory) SaveUsers(_ context.Context, users []timeoff.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.saveUsers(users)
}

// Balances

func (m *Memory) LoadBalances(_ context.Context) ([]timeoff.LeaveBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.loadBalances(), nil
}

func (m *Memory) SaveBalances(_ context.Context, balances []timeoff.LeaveBalance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.saveBalances(balances)
}

// Applications

func (m *Memory) LoadApplications(_ context.Context) ([]timeoff.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.loadApplications(), nil
}

func (m *Memory) SaveApplications(_ context.Context, apps []timeoff.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.saveApplications(apps)
}

// Assignments

func (m *Memory) LoadManagerAssignments(_ context.Context) ([]timeoff.ManagerAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.loadAssignments(), nil
}

func (m *Memory) SaveManagerAssignments(_ context.Context, assignments []timeoff.ManagerAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.saveAssignments(assignments)
}

// Journal

// AppendTransaction adds a single transaction. Append-only.
func (m *Memory) AppendTransaction(_ context.Context, tx generic.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.appendTransaction(tx)
}

func (m *Memory) Transactions(_ context.Context, entityID generic.EntityID) ([]generic.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.loadTransactions(entityID), nil
}

func (m *Memory) TransactionExists(_ context.Context, idempotencyKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.idempotency[idempotencyKey], nil
}

// Audit

func (m *Memory) AppendAudit(_ context.Context, entry generic.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.audit = append(m.state.audit, entry)
	return nil
}

func (m *Memory) QueryAudit(_ context.Context, filter generic.AuditFilter) ([]generic.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.queryAudit(filter), nil
}

// =============================================================================
// STATE - Unlocked operations shared by Memory and the transactional view
// =============================================================================

func (s *state) loadUsers() []timeoff.User {
	return append([]timeoff.User{}, s.users...)
}

func (s *state) saveUsers(users []timeoff.User) error {
	s.users = append([]timeoff.User{}, users...)
	return nil
}

func (s *state) loadBalances() []timeoff.LeaveBalance {
	return append([]timeoff.LeaveBalance{}, s.balances...)
}

func (s *state) saveBalances(balances []timeoff.LeaveBalance) error {
	if err := timeoff.CheckBalanceVersions(s.balances, balances); err != nil {
		return err
	}
	s.balances = append([]timeoff.LeaveBalance{}, balances...)
	return nil
}

func (s *state) loadApplications() []timeoff.Application {
	return append([]timeoff.Application{}, s.applications...)
}

func (s *state) saveApplications(apps []timeoff.Application) error {
	if err := timeoff.CheckApplicationVersions(s.applications, apps); err != nil {
		return err
	}
	s.applications = append([]timeoff.Application{}, apps...)
	return nil
}

func (s *state) loadAssignments() []timeoff.ManagerAssignment {
	return copyAssignments(s.assignments)
}

func (s *state) saveAssignments(assignments []timeoff.ManagerAssignment) error {
	s.assignments = copyAssignments(assignments)
	return nil
}

func copyAssignments(in []timeoff.ManagerAssignment) []timeoff.ManagerAssignment {
	out := make([]timeoff.ManagerAssignment, 0, len(in))
	for _, a := range in {
		out = append(out, timeoff.ManagerAssignment{
			ManagerID:   a.ManagerID,
			EmployeeIDs: append([]string{}, a.EmployeeIDs...),
		})
	}
	return out
}

func (s *state) appendTransaction(tx generic.Transaction) error {
	if tx.IdempotencyKey != "" && s.idempotency[tx.IdempotencyKey] {
		return generic.ErrDuplicateIdempotencyKey
	}
	txs := s.transactions[tx.EntityID]

	// Binary search for insertion point: O(log n) instead of O(n log n)
	i := sort.Search(len(txs), func(i int) bool {
		return txs[i].CreatedAt.After(tx.CreatedAt)
	})

	txs = append(txs, generic.Transaction{})
	copy(txs[i+1:], txs[i:])
	txs[i] = tx
	s.transactions[tx.EntityID] = txs

	if tx.IdempotencyKey != "" {
		s.idempotency[tx.IdempotencyKey] = true
	}
	return nil
}

func (s *state) loadTransactions(entityID generic.EntityID) []generic.Transaction {
	return append([]generic.Transaction{}, s.transactions[entityID]...)
}

func (s *state) queryAudit(filter generic.AuditFilter) []generic.AuditEntry {
	out := []generic.AuditEntry{}
	for _, e := range s.audit {
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func (s *state) clone() state {
	txsCopy := make(map[generic.EntityID][]generic.Transaction, len(s.transactions))
	for k, v := range s.transactions {
		txsCopy[k] = append([]generic.Transaction{}, v...)
	}
	idempCopy := make(map[string]bool, len(s.idempotency))
	for k, v := range s.idempotency {
		idempCopy[k] = v
	}
	return state{
		users:        s.loadUsers(),
		balances:     s.loadBalances(),
		applications: s.loadApplications(),
		assignments:  s.loadAssignments(),
		transactions: txsCopy,
		idempotency:  idempCopy,
		audit:        append([]generic.AuditEntry{}, s.audit...),
	}
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
// Writers are serialized: fn runs under the store's write lock.
func (tm *TxMemory) WithTx(_ context.Context, fn func(timeoff.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.state.clone()

	if err := fn(&txMemoryView{state: &tm.state}); err != nil {
		tm.state = snapshot
		return err
	}
	return nil
}

// txMemoryView runs against the parent's state while WithTx holds the lock.
type txMemoryView struct {
	state *state
}

func (tv *txMemoryView) LoadUsers(context.Context) ([]timeoff.User, error) {
	return tv.state.loadUsers(), nil
}

func (tv *txMemoryView) SaveUsers(_ context.Context, users []timeoff.User) error {
	return tv.state.saveUsers(users)
}

func (tv *txMemoryView) LoadBalances(context.Context) ([]timeoff.LeaveBalance, error) {
	return tv.state.loadBalances(), nil
}

func (tv *txMemoryView) SaveBalances(_ context.Context, balances []timeoff.LeaveBalance) error {
	return tv.state.saveBalances(balances)
}

func (tv *txMemoryView) LoadApplications(context.Context) ([]timeoff.Application, error) {
	return tv.state.loadApplications(), nil
}

func (tv *txMemoryView) SaveApplications(_ context.Context, apps []timeoff.Application) error {
	return tv.state.saveApplications(apps)
}

func (tv *txMemoryView) LoadManagerAssignments(context.Context) ([]timeoff.ManagerAssignment, error) {
	return tv.state.loadAssignments(), nil
}

func (tv *txMemoryView) SaveManagerAssignments(_ context.Context, assignments []timeoff.ManagerAssignment) error {
	return tv.state.saveAssignments(assignments)
}

func (tv *txMemoryView) AppendTransaction(_ context.Context, tx generic.Transaction) error {
	return tv.state.appendTransaction(tx)
}

func (tv *txMemoryView) Transactions(_ context.Context, entityID generic.EntityID) ([]generic.Transaction, error) {
	return tv.state.loadTransactions(entityID), nil
}

func (tv *txMemoryView) TransactionExists(_ context.Context, idempotencyKey string) (bool, error) {
	return tv.state.idempotency[idempotencyKey], nil
}

func (tv *txMemoryView) AppendAudit(_ context.Context, entry generic.AuditEntry) error {
	tv.state.audit = append(tv.state.audit, entry)
	return nil
}

func (tv *txMemoryView) QueryAudit(_ context.Context, filter generic.AuditFilter) ([]generic.AuditEntry, error) {
	return tv.state.queryAudit(filter), nil
}

var (
	_ timeoff.TxStore = (*TxMemory)(nil)
	_ timeoff.Store   = (*txMemoryView)(nil)
)
