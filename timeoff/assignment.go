/*
assignment.go - Manager/employee assignments

PURPOSE:
  Records which employees report to which manager. The manager queue and
  the "my manager" card on the profile screen both resolve through here.

INVARIANT:
  An employee reports to at most one manager. Assign enforces it at write
  time: employees given to a manager are removed from every other
  manager's set in the same transaction.
*/
package timeoff

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/warp/leave-engine/generic"
)

type AssignmentService struct {
	Store  TxStore
	Clock  generic.Clock
	Logger *slog.Logger
}

func NewAssignmentService(store TxStore, clock generic.Clock, logger *slog.Logger) *AssignmentService {
	if clock == nil {
		clock = generic.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AssignmentService{Store: store, Clock: clock, Logger: logger}
}

// Assign replaces managerID's team with employeeIDs. The manager must have
// the manager role and every employee the employee role.
func (s *AssignmentService) Assign(ctx context.Context, actorID, managerID string, employeeIDs []string) (*ManagerAssignment, error) {
	var result ManagerAssignment
	err := s.Store.WithTx(ctx, func(tx Store) error {
		users, err := tx.LoadUsers(ctx)
		if err != nil {
			return err
		}
		manager, ok := findUser(users, managerID)
		if !ok {
			return &generic.NotFoundError{Kind: "user", ID: managerID}
		}
		if manager.Role != RoleManager {
			return generic.NewValidationError(fmt.Sprintf("%s is not a manager", manager.Name))
		}

		team := dedupe(employeeIDs)
		var violations []string
		for _, id := range team {
			u, ok := findUser(users, id)
			if !ok {
				return &generic.NotFoundError{Kind: "user", ID: id}
			}
			if u.Role != RoleEmployee {
				violations = append(violations, fmt.Sprintf("%s is not an employee", u.Name))
			}
		}
		if len(violations) > 0 {
			return &generic.ValidationError{Violations: violations}
		}

		assignments, err := tx.LoadManagerAssignments(ctx)
		if err != nil {
			return err
		}
		assignments = reassign(assignments, managerID, team)
		if err := tx.SaveManagerAssignments(ctx, assignments); err != nil {
			return fmt.Errorf("failed to save assignments: %w", err)
		}

		result = ManagerAssignment{ManagerID: managerID, EmployeeIDs: team}
		return tx.AppendAudit(ctx, generic.AuditEntry{
			ID:        uuid.NewString(),
			Timestamp: s.Clock.Now(),
			ActorID:   actorID,
			Action:    generic.AuditAssignment,
			EntityID:  generic.EntityID(managerID),
			Payload:   map[string]any{"employees": team},
		})
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info("manager assignment updated",
		slog.String("manager_id", managerID),
		slog.Int("employees", len(result.EmployeeIDs)))
	return &result, nil
}

// reassign sets managerID's team and strips those employees from everyone else.
func reassign(assignments []ManagerAssignment, managerID string, team []string) []ManagerAssignment {
	taken := make(map[string]bool, len(team))
	for _, id := range team {
		taken[id] = true
	}

	out := make([]ManagerAssignment, 0, len(assignments)+1)
	found := false
	for _, a := range assignments {
		if a.ManagerID == managerID {
			found = true
			out = append(out, ManagerAssignment{ManagerID: managerID, EmployeeIDs: team})
			continue
		}
		kept := []string{}
		for _, id := range a.EmployeeIDs {
			if !taken[id] {
				kept = append(kept, id)
			}
		}
		out = append(out, ManagerAssignment{ManagerID: a.ManagerID, EmployeeIDs: kept})
	}
	if !found {
		out = append(out, ManagerAssignment{ManagerID: managerID, EmployeeIDs: team})
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := []string{}
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// ManagerOf resolves an employee's manager. ok is false when unassigned.
func (s *AssignmentService) ManagerOf(ctx context.Context, employeeID string) (User, bool, error) {
	assignments, err := s.Store.LoadManagerAssignments(ctx)
	if err != nil {
		return User{}, false, err
	}
	for _, a := range assignments {
		if !a.Has(employeeID) {
			continue
		}
		users, err := s.Store.LoadUsers(ctx)
		if err != nil {
			return User{}, false, err
		}
		m, ok := findUser(users, a.ManagerID)
		return m, ok, nil
	}
	return User{}, false, nil
}

// TeamOf returns the users reporting to managerID, sorted by name.
func (s *AssignmentService) TeamOf(ctx context.Context, managerID string) ([]User, error) {
	assignments, err := s.Store.LoadManagerAssignments(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.Store.LoadUsers(ctx)
	if err != nil {
		return nil, err
	}
	team := []User{}
	for _, a := range assignments {
		if a.ManagerID != managerID {
			continue
		}
		for _, id := range a.EmployeeIDs {
			if u, ok := findUser(users, id); ok {
				team = append(team, u)
			}
		}
	}
	sort.Slice(team, func(i, j int) bool { return team[i].Name < team[j].Name })
	return team, nil
}

func (s *AssignmentService) List(ctx context.Context) ([]ManagerAssignment, error) {
	return s.Store.LoadManagerAssignments(ctx)
}
