package timeoff

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// USER DIRECTORY
// =============================================================================

// DefaultUsers is the seeded directory.
func DefaultUsers() []User {
	return []User{
		{ID: "1", Name: "John Doe", Role: RoleEmployee, Email: "john@example.com"},
		{ID: "2", Name: "Jane Smith", Role: RoleAdmin, Email: "jane@example.com"},
		{ID: "3", Name: "Mike Johnson", Role: RoleManager, Email: "mike@example.com"},
		{ID: "4", Name: "Sarah Williams", Role: RoleEmployee, Email: "sarah@example.com"},
		{ID: "5", Name: "Alex Brown", Role: RoleEmployee, Email: "alex@example.com"},
		{ID: "6", Name: "Emily Chen", Role: RoleEmployee, Email: "emily@example.com"},
		{ID: "7", Name: "David Kim", Role: RoleEmployee, Email: "david@example.com"},
		{ID: "8", Name: "Maria Rodriguez", Role: RoleEmployee, Email: "maria@example.com"},
		{ID: "9", Name: "Robert Taylor", Role: RoleManager, Email: "robert@example.com"},
		{ID: "10", Name: "Lisa Johnson", Role: RoleEmployee, Email: "lisa@example.com"},
		{ID: "11", Name: "Michael Patel", Role: RoleEmployee, Email: "michael@example.com"},
		{ID: "12", Name: "Jennifer Wong", Role: RoleAdmin, Email: "jennifer@example.com"},
		{ID: "13", Name: "Thomas Wilson", Role: RoleEmployee, Email: "thomas@example.com"},
		{ID: "14", Name: "Sophia Garcia", Role: RoleEmployee, Email: "sophia@example.com"},
		{ID: "15", Name: "Daniel Martinez", Role: RoleManager, Email: "daniel@example.com"},
	}
}

// DefaultAssignments is the seeded org chart: three managers, the
// remaining employees split between them.
func DefaultAssignments() []ManagerAssignment {
	return []ManagerAssignment{
		{ManagerID: "3", EmployeeIDs: []string{"1", "4", "5", "6"}},
		{ManagerID: "9", EmployeeIDs: []string{"7", "8", "10", "11"}},
		{ManagerID: "15", EmployeeIDs: []string{"13", "14"}},
	}
}

type Directory struct {
	Store  TxStore
	Clock  generic.Clock
	Logger *slog.Logger
}

func NewDirectory(store TxStore, clock generic.Clock, logger *slog.Logger) *Directory {
	if clock == nil {
		clock = generic.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{Store: store, Clock: clock, Logger: logger}
}

func (d *Directory) List(ctx context.Context) ([]User, error) {
	return d.Store.LoadUsers(ctx)
}

func (d *Directory) Get(ctx context.Context, id string) (User, error) {
	users, err := d.Store.LoadUsers(ctx)
	if err != nil {
		return User{}, err
	}
	u, ok := findUser(users, id)
	if !ok {
		return User{}, &generic.NotFoundError{Kind: "user", ID: id}
	}
	return u, nil
}

// ProfileUpdate carries the fields a user may change on the profile screen.
// Nil fields are left as they are.
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// UpdateProfile changes a user's name and/or email.
func (d *Directory) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (User, error) {
	var violations []string
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		violations = append(violations, "Name is required")
	}
	if upd.Email != nil {
		if _, err := mail.ParseAddress(*upd.Email); err != nil {
			violations = append(violations, "Email address is invalid")
		}
	}
	if len(violations) > 0 {
		return User{}, &generic.ValidationError{Violations: violations}
	}

	var updated User
	err := d.Store.WithTx(ctx, func(tx Store) error {
		users, err := tx.LoadUsers(ctx)
		if err != nil {
			return err
		}
		idx := -1
		for i, u := range users {
			if u.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return &generic.NotFoundError{Kind: "user", ID: id}
		}

		changes := map[string]any{}
		if upd.Name != nil {
			users[idx].Name = strings.TrimSpace(*upd.Name)
			changes["name"] = users[idx].Name
		}
		if upd.Email != nil {
			users[idx].Email = *upd.Email
			changes["email"] = users[idx].Email
		}
		if err := tx.SaveUsers(ctx, users); err != nil {
			return fmt.Errorf("failed to save users: %w", err)
		}
		updated = users[idx]
		return tx.AppendAudit(ctx, generic.AuditEntry{
			ID:        uuid.NewString(),
			Timestamp: d.Clock.Now(),
			ActorID:   id,
			Action:    generic.AuditProfileChanged,
			EntityID:  generic.EntityID(id),
			Payload:   changes,
		})
	})
	if err != nil {
		return User{}, err
	}
	d.Logger.Info("profile updated", slog.String("user_id", id))
	return updated, nil
}

// Reset replaces the directory with users and clears balances, applications
// and assignments. The journal and audit log are append-only and survive;
// the reset itself is audited.
func (d *Directory) Reset(ctx context.Context, users []User, assignments []ManagerAssignment) error {
	err := d.Store.WithTx(ctx, func(tx Store) error {
		if err := tx.SaveUsers(ctx, users); err != nil {
			return err
		}
		if err := tx.SaveBalances(ctx, []LeaveBalance{}); err != nil {
			return err
		}
		if err := tx.SaveApplications(ctx, []Application{}); err != nil {
			return err
		}
		if assignments == nil {
			assignments = []ManagerAssignment{}
		}
		if err := tx.SaveManagerAssignments(ctx, assignments); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, generic.AuditEntry{
			ID:        uuid.NewString(),
			Timestamp: d.Clock.Now(),
			Action:    generic.AuditReset,
			EntityID:  "system",
			Payload:   map[string]any{"users": len(users), "assignments": len(assignments)},
		})
	})
	if err != nil {
		return fmt.Errorf("failed to reset directory: %w", err)
	}
	d.Logger.Info("directory reset", slog.Int("users", len(users)))
	return nil
}
