/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain records
  (timeoff.User, timeoff.Application, timeoff.LeaveBalance) already carry
  the wire field names the UI was built against and are returned as-is;
  the types here are request bodies and composite responses.

NAMING CONVENTION:
  - *Request:  Request body types from clients
  - *Response: Complex response wrappers
  - *DTO:      Response types with no domain equivalent

VALIDATION:
  Validation is done in handlers and the domain, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - timeoff/types.go: Domain records
*/
package api

import (
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// SubmitApplicationRequest is the apply-form body. Dates are YYYY-MM-DD.
type SubmitApplicationRequest struct {
	UserID      string `json:"userId"`
	Type        string `json:"type"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Reason      string `json:"reason"`
	IsEmergency bool   `json:"isEmergency"`
}

// ApproveRequest is the body of POST /applications/{id}/approve.
type ApproveRequest struct {
	ApproverID string `json:"approverId"`
}

// RejectRequest is the body of POST /applications/{id}/reject.
type RejectRequest struct {
	ApproverID string `json:"approverId"`
	Reason     string `json:"reason"`
}

// ReasonRequest is the optional body of recall and cancel.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// UpdateProfileRequest is the body of PUT /users/{id}.
type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// AssignTeamRequest is the body of PUT /assignments/{managerId}.
type AssignTeamRequest struct {
	ActorID     string   `json:"actorId"`
	EmployeeIDs []string `json:"employeeIds"`
}

// LoadScenarioRequest is the body of POST /scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// SubmitResponse returns the created application with the public holidays
// its range touches.
type SubmitResponse struct {
	Application timeoff.Application `json:"application"`
	Holidays    []generic.Holiday   `json:"holidays"`
}

// ValidateResponse is the dry-run result of the apply form.
type ValidateResponse struct {
	Valid      bool              `json:"valid"`
	Violations []string          `json:"violations"`
	Holidays   []generic.Holiday `json:"holidays"`
}

// DashboardResponse is everything the employee dashboard shows.
type DashboardResponse struct {
	User           timeoff.User           `json:"user"`
	Balance        timeoff.LeaveBalance   `json:"balance"`
	Upcoming       []timeoff.Application  `json:"upcoming"`
	Recent         []timeoff.Application  `json:"recent"`
	EmergencyUsage timeoff.EmergencyUsage `json:"emergencyUsage"`
	Manager        *timeoff.User          `json:"manager,omitempty"`
}

// ManagerQueueResponse is the manager dashboard.
type ManagerQueueResponse struct {
	Pending           []timeoff.Application `json:"pending"`
	RecentlyProcessed []timeoff.Application `json:"recentlyProcessed"`
	RecentlyRecalled  []timeoff.Application `json:"recentlyRecalled"`
}

// ReapplyResponse carries the draft the apply form is prefilled with.
type ReapplyResponse struct {
	Draft SubmitApplicationRequest `json:"draft"`
}

// ReconciliationResponse reports ledger drift.
type ReconciliationResponse struct {
	Consistent bool                   `json:"consistent"`
	Drifts     []timeoff.BalanceDrift `json:"drifts"`
	CheckedAt  string                 `json:"checkedAt"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is returned on any error.
type ErrorResponse struct {
	Error      string   `json:"error"`
	Details    string   `json:"details,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

func draftToRequest(d timeoff.Draft) SubmitApplicationRequest {
	return SubmitApplicationRequest{
		UserID:      d.UserID,
		Type:        string(d.Type),
		StartDate:   d.StartDate.String(),
		EndDate:     d.EndDate.String(),
		Reason:      d.Reason,
		IsEmergency: d.IsEmergency,
	}
}
