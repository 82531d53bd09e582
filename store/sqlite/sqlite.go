/*
Package sqlite provides a SQLite-backed implementation of timeoff.TxStore.

PURPOSE:
  Persists the four leave collections, the balance journal and the audit
  log in SQLite. This is the default backend of the server.

COLLECTIONS:
  users, balances, applications and manager_assignments hold one row per
  record. A Save replaces the whole collection inside one SQL transaction,
  so readers see either the old or the new collection, never a mix. A
  position column keeps the caller's order.

APPEND-ONLY ENFORCEMENT:
  The journal and the audit log are never updated or deleted:
  - No UPDATE or DELETE statements on transactions or audit_log
  - idempotency_key is UNIQUE; a duplicate insert maps to
    generic.ErrDuplicateIdempotencyKey

OPTIMISTIC CONCURRENCY:
  Saving an application or balance whose version is lower than the stored
  row fails with generic.ErrConcurrentModification and nothing is written.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety; WithTx holds the write lock for the
  whole read-validate-write sequence.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - timeoff/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements timeoff.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		email TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS balances (
		user_id TEXT PRIMARY KEY,
		paid INTEGER NOT NULL,
		sick INTEGER NOT NULL,
		casual INTEGER NOT NULL,
		miscellaneous INTEGER NOT NULL,
		max_paid INTEGER NOT NULL,
		max_sick INTEGER NOT NULL,
		max_casual INTEGER NOT NULL,
		max_miscellaneous INTEGER NOT NULL,
		version INTEGER NOT NULL DEFAULT 0,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS applications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT NOT NULL,
		applied_on TEXT NOT NULL,
		is_emergency INTEGER NOT NULL DEFAULT 0,
		rejection_reason TEXT,
		recalled_on TEXT,
		recall_reason TEXT,
		approved_by TEXT,
		approved_on TEXT,
		version INTEGER NOT NULL DEFAULT 0,
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_applications_user
		ON applications(user_id);
	CREATE INDEX IF NOT EXISTS idx_applications_status
		ON applications(status);

	CREATE TABLE IF NOT EXISTS manager_assignments (
		manager_id TEXT PRIMARY KEY,
		employee_ids_json TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	-- Balance journal (append-only)
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		entity_id TEXT NOT NULL,
		resource TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		requested INTEGER NOT NULL,
		delta INTEGER NOT NULL,
		balance_after INTEGER NOT NULL,
		reference_id TEXT,
		reason TEXT,
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_entity
		ON transactions(entity_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_transactions_reference
		ON transactions(reference_id) WHERE reference_id IS NOT NULL;

	-- Audit log (append-only)
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		actor_id TEXT,
		action TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		subject_id TEXT,
		payload_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_entity
		ON audit_log(entity_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// STORE (timeoff.Store interface)
// =============================================================================

func (s *Store) LoadUsers(ctx context.Context) ([]timeoff.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return conn{s.db}.loadUsers(ctx)
}

func (s *Store) SaveUsers(ctx context.Context, users []timeoff.User) error {
	return s.WithTx(ctx, func(tx timeoff.Store) error { return tx.SaveUsers(ctx, users) })
}

func (s *Store) LoadBalances(ctx context.Context) ([]timeoff.LeaveBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return conn{s.db}.loadBalances(ctx)
}

func (s *Store) SaveBalances(ctx context.Context, balances []timeoff.LeaveBalance) error {
	return s.WithTx(ctx, func(tx timeoff.Store) error { return tx.SaveBalances(ctx, balances) })
}

func (s *Store) LoadApplications(ctx context.Context) ([]timeoff.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return conn{s.db}.loadApplications(ctx)
}

func (s *Store) SaveApplications(ctx context.Context, apps []timeoff.Application) error {
	return s.WithTx(ctx, func(tx timeoff.Store) error { return tx.SaveApplications(ctx, apps) })
}

func (s *Store) LoadManagerAssignments(ctx context.Context) ([]timeoff.ManagerAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return conn{s.db}.loadAssignments(ctx)
}

func (s *Store) SaveManagerAssignments(ctx context.Context, assignments []timeoff.ManagerAssignment) error {
	return s.WithTx(ctx, func(tx timeoff.Store) error { return tx.SaveManagerAssignments(ctx, assignments) })
}

// AppendTransaction adds a transaction to the journal.
func (s *Store) AppendTransaction(ctx context.Context, tx generic.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return conn{s.db}.appendTransaction(ctx, tx)
}

// Transactions returns the journal of one entity, oldest first.
func (s *Store) Transactions(ctx context.Context, entityID generic.EntityID) ([]generic.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return conn{s.db}.transactions(ctx, entityID)
}

// TransactionExists checks if an idempotency key exists.
func (s *Store) TransactionExists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return conn{s.db}.transactionExists(ctx, idempotencyKey)
}

func (s *Store) AppendAudit(ctx context.Context, entry generic.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return conn{s.db}.appendAudit(ctx, entry)
}

func (s *Store) QueryAudit(ctx context.Context, filter generic.AuditFilter) ([]generic.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return conn{s.db}.queryAudit(ctx, filter)
}

// =============================================================================
// TRANSACTIONAL STORE (timeoff.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store timeoff.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &generic.StoreError{Op: "begin", Err: err}
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{conn: conn{sqlTx}}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return &generic.StoreError{Op: "commit", Err: err}
	}
	return nil
}

// txStore is the Store handed to WithTx callbacks. Every call runs on the
// open *sql.Tx; no locking, the parent holds the write lock.
type txStore struct {
	conn conn
}

func (ts *txStore) LoadUsers(ctx context.Context) ([]timeoff.User, error) {
	return ts.conn.loadUsers(ctx)
}

func (ts *txStore) SaveUsers(ctx context.Context, users []timeoff.User) error {
	return ts.conn.saveUsers(ctx, users)
}

func (ts *txStore) LoadBalances(ctx context.Context) ([]timeoff.LeaveBalance, error) {
	return ts.conn.loadBalances(ctx)
}

func (ts *txStore) SaveBalances(ctx context.Context, balances []timeoff.LeaveBalance) error {
	return ts.conn.saveBalances(ctx, balances)
}

func (ts *txStore) LoadApplications(ctx context.Context) ([]timeoff.Application, error) {
	return ts.conn.loadApplications(ctx)
}

func (ts *txStore) SaveApplications(ctx context.Context, apps []timeoff.Application) error {
	return ts.conn.saveApplications(ctx, apps)
}

func (ts *txStore) LoadManagerAssignments(ctx context.Context) ([]timeoff.ManagerAssignment, error) {
	return ts.conn.loadAssignments(ctx)
}

func (ts *txStore) SaveManagerAssignments(ctx context.Context, assignments []timeoff.ManagerAssignment) error {
	return ts.conn.saveAssignments(ctx, assignments)
}

func (ts *txStore) AppendTransaction(ctx context.Context, tx generic.Transaction) error {
	return ts.conn.appendTransaction(ctx, tx)
}

func (ts *txStore) Transactions(ctx context.Context, entityID generic.EntityID) ([]generic.Transaction, error) {
	return ts.conn.transactions(ctx, entityID)
}

func (ts *txStore) TransactionExists(ctx context.Context, idempotencyKey string) (bool, error) {
	return ts.conn.transactionExists(ctx, idempotencyKey)
}

func (ts *txStore) AppendAudit(ctx context.Context, entry generic.AuditEntry) error {
	return ts.conn.appendAudit(ctx, entry)
}

func (ts *txStore) QueryAudit(ctx context.Context, filter generic.AuditFilter) ([]generic.AuditEntry, error) {
	return ts.conn.queryAudit(ctx, filter)
}

var (
	_ timeoff.TxStore = (*Store)(nil)
	_ timeoff.Store   = (*txStore)(nil)
)

// =============================================================================
// QUERIES - Shared by *sql.DB and *sql.Tx
// =============================================================================

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type conn struct {
	q querier
}

// Users

func (c conn) loadUsers(ctx context.Context) ([]timeoff.User, error) {
	rows, err := c.q.QueryContext(ctx, `SELECT id, name, role, email FROM users ORDER BY position`)
	if err != nil {
		return nil, &generic.StoreError{Op: "load users", Err: err}
	}
	defer rows.Close()

	users := []timeoff.User{}
	for rows.Next() {
		var u timeoff.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Role, &u.Email); err != nil {
			return nil, &generic.StoreError{Op: "scan user", Err: err}
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (c conn) saveUsers(ctx context.Context, users []timeoff.User) error {
	if _, err := c.q.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return &generic.StoreError{Op: "save users", Err: err}
	}
	for i, u := range users {
		if _, err := c.q.ExecContext(ctx,
			`INSERT INTO users (id, name, role, email, position) VALUES (?, ?, ?, ?, ?)`,
			u.ID, u.Name, string(u.Role), u.Email, i,
		); err != nil {
			return &generic.StoreError{Op: "save users", Err: err}
		}
	}
	return nil
}

// Balances

func (c conn) loadBalances(ctx context.Context) ([]timeoff.LeaveBalance, error) {
	rows, err := c.q.QueryContext(ctx, `
		SELECT user_id, paid, sick, casual, miscellaneous,
		       max_paid, max_sick, max_casual, max_miscellaneous, version
		FROM balances ORDER BY position`)
	if err != nil {
		return nil, &generic.StoreError{Op: "load balances", Err: err}
	}
	defer rows.Close()

	balances := []timeoff.LeaveBalance{}
	for rows.Next() {
		var b timeoff.LeaveBalance
		if err := rows.Scan(&b.UserID, &b.Paid, &b.Sick, &b.Casual, &b.Miscellaneous,
			&b.MaxPaid, &b.MaxSick, &b.MaxCasual, &b.MaxMiscellaneous, &b.Version); err != nil {
			return nil, &generic.StoreError{Op: "scan balance", Err: err}
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

func (c conn) saveBalances(ctx context.Context, balances []timeoff.LeaveBalance) error {
	stored, err := c.loadBalances(ctx)
	if err != nil {
		return err
	}
	if err := timeoff.CheckBalanceVersions(stored, balances); err != nil {
		return err
	}

	if _, err := c.q.ExecContext(ctx, `DELETE FROM balances`); err != nil {
		return &generic.StoreError{Op: "save balances", Err: err}
	}
	for i, b := range balances {
		if _, err := c.q.ExecContext(ctx, `
			INSERT INTO balances
			(user_id, paid, sick, casual, miscellaneous,
			 max_paid, max_sick, max_casual, max_miscellaneous, version, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.UserID, b.Paid, b.Sick, b.Casual, b.Miscellaneous,
			b.MaxPaid, b.MaxSick, b.MaxCasual, b.MaxMiscellaneous, b.Version, i,
		); err != nil {
			return &generic.StoreError{Op: "save balances", Err: err}
		}
	}
	return nil
}

// Applications

func (c conn) loadApplications(ctx context.Context) ([]timeoff.Application, error) {
	rows, err := c.q.QueryContext(ctx, `
		SELECT id, user_id, leave_type, start_date, end_date, status, reason,
		       applied_on, is_emergency, rejection_reason, recalled_on,
		       recall_reason, approved_by, approved_on, version
		FROM applications ORDER BY position`)
	if err != nil {
		return nil, &generic.StoreError{Op: "load applications", Err: err}
	}
	defer rows.Close()

	apps := []timeoff.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

func scanApplication(rows *sql.Rows) (timeoff.Application, error) {
	var (
		a               timeoff.Application
		startDate       string
		endDate         string
		appliedOn       string
		rejectionReason sql.NullString
		recalledOn      sql.NullString
		recallReason    sql.NullString
		approvedBy      sql.NullString
		approvedOn      sql.NullString
	)

	err := rows.Scan(
		&a.ID, &a.UserID, &a.Type, &startDate, &endDate, &a.Status, &a.Reason,
		&appliedOn, &a.IsEmergency, &rejectionReason, &recalledOn,
		&recallReason, &approvedBy, &approvedOn, &a.Version,
	)
	if err != nil {
		return a, &generic.StoreError{Op: "scan application", Err: err}
	}

	if a.StartDate, err = generic.ParseDate(startDate); err != nil {
		return a, &generic.StoreError{Op: "scan application", Err: err}
	}
	if a.EndDate, err = generic.ParseDate(endDate); err != nil {
		return a, &generic.StoreError{Op: "scan application", Err: err}
	}
	if a.AppliedOn, err = time.Parse(timeLayout, appliedOn); err != nil {
		return a, &generic.StoreError{Op: "scan application", Err: err}
	}
	a.RejectionReason = rejectionReason.String
	a.RecallReason = recallReason.String
	a.ApprovedBy = approvedBy.String
	a.RecalledOn = parseOptionalTime(recalledOn)
	a.ApprovedOn = parseOptionalTime(approvedOn)
	return a, nil
}

func (c conn) saveApplications(ctx context.Context, apps []timeoff.Application) error {
	stored, err := c.loadApplications(ctx)
	if err != nil {
		return err
	}
	if err := timeoff.CheckApplicationVersions(stored, apps); err != nil {
		return err
	}

	if _, err := c.q.ExecContext(ctx, `DELETE FROM applications`); err != nil {
		return &generic.StoreError{Op: "save applications", Err: err}
	}
	for i, a := range apps {
		if _, err := c.q.ExecContext(ctx, `
			INSERT INTO applications
			(id, user_id, leave_type, start_date, end_date, status, reason,
			 applied_on, is_emergency, rejection_reason, recalled_on,
			 recall_reason, approved_by, approved_on, version, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.UserID, string(a.Type), a.StartDate.String(), a.EndDate.String(),
			string(a.Status), a.Reason, a.AppliedOn.UTC().Format(timeLayout), a.IsEmergency,
			nullString(a.RejectionReason), formatOptionalTime(a.RecalledOn),
			nullString(a.RecallReason), nullString(a.ApprovedBy), formatOptionalTime(a.ApprovedOn),
			a.Version, i,
		); err != nil {
			return &generic.StoreError{Op: "save applications", Err: err}
		}
	}
	return nil
}

// Assignments

func (c conn) loadAssignments(ctx context.Context) ([]timeoff.ManagerAssignment, error) {
	rows, err := c.q.QueryContext(ctx,
		`SELECT manager_id, employee_ids_json FROM manager_assignments ORDER BY position`)
	if err != nil {
		return nil, &generic.StoreError{Op: "load assignments", Err: err}
	}
	defer rows.Close()

	assignments := []timeoff.ManagerAssignment{}
	for rows.Next() {
		var (
			a   timeoff.ManagerAssignment
			ids string
		)
		if err := rows.Scan(&a.ManagerID, &ids); err != nil {
			return nil, &generic.StoreError{Op: "scan assignment", Err: err}
		}
		if err := json.Unmarshal([]byte(ids), &a.EmployeeIDs); err != nil {
			return nil, &generic.StoreError{Op: "decode assignment", Err: err}
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (c conn) saveAssignments(ctx context.Context, assignments []timeoff.ManagerAssignment) error {
	if _, err := c.q.ExecContext(ctx, `DELETE FROM manager_assignments`); err != nil {
		return &generic.StoreError{Op: "save assignments", Err: err}
	}
	for i, a := range assignments {
		ids := a.EmployeeIDs
		if ids == nil {
			ids = []string{}
		}
		b, err := json.Marshal(ids)
		if err != nil {
			return fmt.Errorf("failed to encode assignment: %w", err)
		}
		if _, err := c.q.ExecContext(ctx,
			`INSERT INTO manager_assignments (manager_id, employee_ids_json, position) VALUES (?, ?, ?)`,
			a.ManagerID, string(b), i,
		); err != nil {
			return &generic.StoreError{Op: "save assignments", Err: err}
		}
	}
	return nil
}

// Journal

func (c conn) appendTransaction(ctx context.Context, tx generic.Transaction) error {
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO transactions
		(id, entity_id, resource, tx_type, requested, delta, balance_after,
		 reference_id, reason, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(tx.ID),
		string(tx.EntityID),
		tx.Resource,
		string(tx.Type),
		tx.Requested,
		tx.Delta,
		tx.BalanceAfter,
		nullString(tx.ReferenceID),
		nullString(tx.Reason),
		nullString(tx.IdempotencyKey),
		tx.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateIdempotencyKey
		}
		return &generic.StoreError{Op: "append transaction", Err: err}
	}
	return nil
}

func (c conn) transactions(ctx context.Context, entityID generic.EntityID) ([]generic.Transaction, error) {
	rows, err := c.q.QueryContext(ctx, `
		SELECT id, entity_id, resource, tx_type, requested, delta, balance_after,
		       reference_id, reason, idempotency_key, created_at
		FROM transactions
		WHERE entity_id = ?
		ORDER BY created_at ASC, rowid ASC`, string(entityID))
	if err != nil {
		return nil, &generic.StoreError{Op: "load transactions", Err: err}
	}
	defer rows.Close()

	txs := []generic.Transaction{}
	for rows.Next() {
		var (
			tx             generic.Transaction
			referenceID    sql.NullString
			reason         sql.NullString
			idempotencyKey sql.NullString
			createdAt      string
		)
		if err := rows.Scan(&tx.ID, &tx.EntityID, &tx.Resource, &tx.Type, &tx.Requested,
			&tx.Delta, &tx.BalanceAfter, &referenceID, &reason, &idempotencyKey, &createdAt); err != nil {
			return nil, &generic.StoreError{Op: "scan transaction", Err: err}
		}
		tx.ReferenceID = referenceID.String
		tx.Reason = reason.String
		tx.IdempotencyKey = idempotencyKey.String
		tx.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (c conn) transactionExists(ctx context.Context, idempotencyKey string) (bool, error) {
	var count int
	err := c.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE idempotency_key = ?",
		idempotencyKey,
	).Scan(&count)
	if err != nil {
		return false, &generic.StoreError{Op: "check idempotency key", Err: err}
	}
	return count > 0, nil
}

// Audit

func (c conn) appendAudit(ctx context.Context, e generic.AuditEntry) error {
	var payload sql.NullString
	if len(e.Payload) > 0 {
		b, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode audit payload: %w", err)
		}
		payload = sql.NullString{String: string(b), Valid: true}
	}
	_, err := c.q.ExecContext(ctx, `
		INSERT INTO audit_log (id, timestamp, actor_id, action, entity_id, subject_id, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UTC().Format(timeLayout), nullString(e.ActorID),
		string(e.Action), string(e.EntityID), nullString(e.SubjectID), payload,
	)
	if err != nil {
		return &generic.StoreError{Op: "append audit", Err: err}
	}
	return nil
}

func (c conn) queryAudit(ctx context.Context, filter generic.AuditFilter) ([]generic.AuditEntry, error) {
	query := `SELECT id, timestamp, actor_id, action, entity_id, subject_id, payload_json FROM audit_log`
	var args []any
	if filter.EntityID != nil {
		query += ` WHERE entity_id = ?`
		args = append(args, string(*filter.EntityID))
	}
	query += ` ORDER BY timestamp ASC, rowid ASC`

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &generic.StoreError{Op: "query audit", Err: err}
	}
	defer rows.Close()

	entries := []generic.AuditEntry{}
	for rows.Next() {
		var (
			e         generic.AuditEntry
			timestamp string
			actorID   sql.NullString
			subjectID sql.NullString
			payload   sql.NullString
		)
		if err := rows.Scan(&e.ID, &timestamp, &actorID, &e.Action, &e.EntityID, &subjectID, &payload); err != nil {
			return nil, &generic.StoreError{Op: "scan audit", Err: err}
		}
		e.Timestamp, _ = time.Parse(timeLayout, timestamp)
		e.ActorID = actorID.String
		e.SubjectID = subjectID.String
		if payload.Valid && payload.String != "" {
			if err := json.Unmarshal([]byte(payload.String), &e.Payload); err != nil {
				return nil, &generic.StoreError{Op: "decode audit payload", Err: err}
			}
		}
		// The remaining filter fields are applied in Go.
		if filter.Matches(e) {
			entries = append(entries, e)
		}
	}
	return entries, rows.Err()
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatOptionalTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}

func parseOptionalTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}
