// Package timeoff implements the leave-management rules on top of the generic
// primitives: the data model, the balance ledger, the policy evaluator, the
// application lifecycle, and the read-only views the UI is built from.
package timeoff

import (
	"fmt"
	"time"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// LEAVE TYPE (resource)
// =============================================================================

// LeaveType is the concrete resource type for the leave domain.
// Implements generic.ResourceType interface.
type LeaveType string

func (t LeaveType) ResourceID() string     { return string(t) }
func (t LeaveType) ResourceDomain() string { return Domain }

// Compile-time check that LeaveType implements generic.ResourceType
var _ generic.ResourceType = LeaveType("")

const Domain = "timeoff"

const (
	LeavePaid          LeaveType = "paid"
	LeaveSick          LeaveType = "sick"
	LeaveCasual        LeaveType = "casual"
	LeaveMiscellaneous LeaveType = "miscellaneous"
)

// LeaveTypes lists every type in display order.
var LeaveTypes = []LeaveType{LeavePaid, LeaveSick, LeaveCasual, LeaveMiscellaneous}

func init() {
	for _, t := range LeaveTypes {
		generic.RegisterResource(t)
	}
}

// ParseLeaveType resolves a wire value through the resource registry.
func ParseLeaveType(s string) (LeaveType, error) {
	r, ok := generic.LookupResource(Domain, s)
	if !ok {
		return "", fmt.Errorf("unknown leave type %q", s)
	}
	return r.(LeaveType), nil
}

// =============================================================================
// USERS & ASSIGNMENTS
// =============================================================================

type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
)

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Email string `json:"email"`
}

// ManagerAssignment lists the employees reporting to one manager.
type ManagerAssignment struct {
	ManagerID   string   `json:"managerId"`
	EmployeeIDs []string `json:"employeeIds"`
}

// Has reports whether employeeID reports to this manager.
func (a ManagerAssignment) Has(employeeID string) bool {
	for _, id := range a.EmployeeIDs {
		if id == employeeID {
			return true
		}
	}
	return false
}

// =============================================================================
// BALANCE
// =============================================================================

// DefaultEntitlement is the remaining and max value of every counter on a
// freshly created balance.
const DefaultEntitlement = 12

// LeaveBalance holds one user's remaining/maximum counters.
// INVARIANT: 0 <= remaining <= max for each type.
type LeaveBalance struct {
	UserID           string `json:"userId"`
	Paid             int    `json:"paid"`
	Sick             int    `json:"sick"`
	Casual           int    `json:"casual"`
	Miscellaneous    int    `json:"miscellaneous"`
	MaxPaid          int    `json:"maxPaid"`
	MaxSick          int    `json:"maxSick"`
	MaxCasual        int    `json:"maxCasual"`
	MaxMiscellaneous int    `json:"maxMiscellaneous"`
	Version          int    `json:"version"`
}

// NewLeaveBalance returns the lazily-created default balance.
func NewLeaveBalance(userID string) LeaveBalance {
	return LeaveBalance{
		UserID:           userID,
		Paid:             DefaultEntitlement,
		Sick:             DefaultEntitlement,
		Casual:           DefaultEntitlement,
		Miscellaneous:    DefaultEntitlement,
		MaxPaid:          DefaultEntitlement,
		MaxSick:          DefaultEntitlement,
		MaxCasual:        DefaultEntitlement,
		MaxMiscellaneous: DefaultEntitlement,
	}
}

// Remaining returns the remaining counter for t.
func (b LeaveBalance) Remaining(t LeaveType) int {
	switch t {
	case LeavePaid:
		return b.Paid
	case LeaveSick:
		return b.Sick
	case LeaveCasual:
		return b.Casual
	case LeaveMiscellaneous:
		return b.Miscellaneous
	}
	return 0
}

// Max returns the maximum counter for t.
func (b LeaveBalance) Max(t LeaveType) int {
	switch t {
	case LeavePaid:
		return b.MaxPaid
	case LeaveSick:
		return b.MaxSick
	case LeaveCasual:
		return b.MaxCasual
	case LeaveMiscellaneous:
		return b.MaxMiscellaneous
	}
	return 0
}

// setRemaining clamps v into [0, max] before storing it.
func (b *LeaveBalance) setRemaining(t LeaveType, v int) int {
	if v < 0 {
		v = 0
	}
	if m := b.Max(t); v > m {
		v = m
	}
	switch t {
	case LeavePaid:
		b.Paid = v
	case LeaveSick:
		b.Sick = v
	case LeaveCasual:
		b.Casual = v
	case LeaveMiscellaneous:
		b.Miscellaneous = v
	}
	return v
}

// =============================================================================
// LEAVE APPLICATION
// =============================================================================

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusRecalled Status = "recalled"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool { return s == StatusRejected || s == StatusRecalled }

// Application is a leave request and its lifecycle state. Applications are
// never deleted; transitions mutate them in place.
type Application struct {
	ID              string            `json:"id"`
	UserID          string            `json:"userId"`
	Type            LeaveType         `json:"type"`
	StartDate       generic.TimePoint `json:"startDate"`
	EndDate         generic.TimePoint `json:"endDate"`
	Status          Status            `json:"status"`
	Reason          string            `json:"reason"`
	AppliedOn       time.Time         `json:"appliedOn"`
	IsEmergency     bool              `json:"isEmergency"`
	RejectionReason string            `json:"rejectionReason,omitempty"`
	RecalledOn      *time.Time        `json:"recalledOn,omitempty"`
	RecallReason    string            `json:"recallReason,omitempty"`
	ApprovedBy      string            `json:"approvedBy,omitempty"`
	ApprovedOn      *time.Time        `json:"approvedOn,omitempty"`
	Version         int               `json:"version"`
}

// Period is the inclusive range the application covers.
func (a Application) Period() generic.Period {
	return generic.Period{Start: a.StartDate, End: a.EndDate}
}

// Duration is the inclusive day count.
func (a Application) Duration() int {
	return generic.InclusiveDays(a.StartDate, a.EndDate)
}

// Active reports whether the application still holds its dates
// (pending or approved).
func (a Application) Active() bool {
	return a.Status == StatusPending || a.Status == StatusApproved
}

// Draft is a candidate leave request before it becomes an Application.
type Draft struct {
	UserID      string            `json:"userId"`
	Type        LeaveType         `json:"type"`
	StartDate   generic.TimePoint `json:"startDate"`
	EndDate     generic.TimePoint `json:"endDate"`
	Reason      string            `json:"reason"`
	IsEmergency bool              `json:"isEmergency"`
}

// HasDates reports whether both ends are set and ordered.
func (d Draft) HasDates() bool {
	return !d.StartDate.IsZero() && !d.EndDate.IsZero() && !d.EndDate.Before(d.StartDate)
}

// Period is the inclusive range the draft asks for.
func (d Draft) Period() generic.Period {
	return generic.Period{Start: d.StartDate, End: d.EndDate}
}

// Duration is the inclusive day count.
func (d Draft) Duration() int {
	return generic.InclusiveDays(d.StartDate, d.EndDate)
}
