/*
projection.go - Read-only views derived from applications

PURPOSE:
  Pure functions over a slice of applications (and users). Nothing here
  touches the Store; callers load the collections once and build whatever
  views a screen needs from the same snapshot.

VIEWS:
  UpcomingLeaves      approved, starting within the next N days, soonest first
  RecentApplications  last N by appliedOn
  TeamCalendar        per-day membership of a month (approved only)
  EmergencyUsage      rolling emergency counters for one user
  PendingQueue        manager queue: emergency first, then newest
  RecentlyProcessed   last N approved or rejected
  RecentlyRecalled    last N recalled, by recall time
  Conflicts           own and team leave per day of a candidate range
*/
package timeoff

import (
	"sort"
	"time"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// DASHBOARD VIEWS
// =============================================================================

// UpcomingLeaves returns approved applications whose start lies within
// [today, today+windowDays], sorted by start date.
func UpcomingLeaves(apps []Application, today generic.TimePoint, windowDays int) []Application {
	until := today.AddDays(windowDays)
	out := []Application{}
	for _, a := range apps {
		if a.Status == StatusApproved && a.StartDate.AfterOrEqual(today) && a.StartDate.BeforeOrEqual(until) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}

// RecentApplications returns the n most recently applied-for applications.
func RecentApplications(apps []Application, n int) []Application {
	out := append([]Application{}, apps...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].AppliedOn.After(out[j].AppliedOn) })
	return limit(out, n)
}

// ForUser keeps the applications of one user.
func ForUser(apps []Application, userID string) []Application {
	out := []Application{}
	for _, a := range apps {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out
}

// =============================================================================
// TEAM CALENDAR
// =============================================================================

type CalendarEntry struct {
	ApplicationID string    `json:"applicationId"`
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName,omitempty"`
	Type          LeaveType `json:"type"`
}

type CalendarDay struct {
	Date     generic.TimePoint `json:"date"`
	HasLeave bool              `json:"hasLeave"`
	Holiday  string            `json:"holiday,omitempty"`
	Leaves   []CalendarEntry   `json:"leaves"`
}

// TeamCalendar returns one entry per day of the month. A day has leave when
// any approved application covers it. users and cal are optional and only
// decorate the result.
func TeamCalendar(apps []Application, users []User, cal generic.HolidayCalendar, year int, month time.Month) []CalendarDay {
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	var days []CalendarDay
	for _, d := range generic.MonthPeriod(year, month).Days() {
		day := CalendarDay{Date: d, Leaves: []CalendarEntry{}}
		for _, a := range apps {
			if a.Status == StatusApproved && a.Period().Contains(d) {
				day.Leaves = append(day.Leaves, CalendarEntry{
					ApplicationID: a.ID,
					UserID:        a.UserID,
					UserName:      names[a.UserID],
					Type:          a.Type,
				})
			}
		}
		day.HasLeave = len(day.Leaves) > 0
		if cal != nil {
			if h, ok := cal.IsHoliday(d); ok {
				day.Holiday = h.Name
			}
		}
		days = append(days, day)
	}
	return days
}

// =============================================================================
// EMERGENCY USAGE
// =============================================================================

type EmergencyUsage struct {
	Last30Days int               `json:"last30Days"`
	LastYear   int               `json:"lastYear"`
	MostRecent generic.TimePoint `json:"mostRecent"`
}

// EmergencyUsageFor counts userID's emergency applications by appliedOn.
// MostRecent is the start date of the latest one applied for in the last year.
func EmergencyUsageFor(apps []Application, userID string, now time.Time, windowDays int) EmergencyUsage {
	windowStart := now.AddDate(0, 0, -windowDays)
	yearStart := now.AddDate(-1, 0, 0)

	var usage EmergencyUsage
	var latest *Application
	for i, a := range apps {
		if a.UserID != userID || !a.IsEmergency {
			continue
		}
		if !a.AppliedOn.Before(windowStart) {
			usage.Last30Days++
		}
		if !a.AppliedOn.Before(yearStart) {
			usage.LastYear++
			if latest == nil || a.AppliedOn.After(latest.AppliedOn) {
				latest = &apps[i]
			}
		}
	}
	if latest != nil {
		usage.MostRecent = latest.StartDate
	}
	return usage
}

// =============================================================================
// MANAGER VIEWS
// =============================================================================

// PendingQueue returns pending applications, emergencies first, then newest.
func PendingQueue(apps []Application) []Application {
	out := []Application{}
	for _, a := range apps {
		if a.Status == StatusPending {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsEmergency != out[j].IsEmergency {
			return out[i].IsEmergency
		}
		return out[i].AppliedOn.After(out[j].AppliedOn)
	})
	return out
}

// RecentlyProcessed returns the n newest approved or rejected applications.
func RecentlyProcessed(apps []Application, n int) []Application {
	var out []Application
	for _, a := range apps {
		if a.Status == StatusApproved || a.Status == StatusRejected {
			out = append(out, a)
		}
	}
	return RecentApplications(out, n)
}

// RecentlyRecalled returns the n most recently recalled applications.
func RecentlyRecalled(apps []Application, n int) []Application {
	out := []Application{}
	for _, a := range apps {
		if a.Status == StatusRecalled && a.RecalledOn != nil {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecalledOn.After(*out[j].RecalledOn) })
	return limit(out, n)
}

// =============================================================================
// CONFLICTS
// =============================================================================

// DayConflicts lists who is already away on one day of a candidate range.
type DayConflicts struct {
	Date        generic.TimePoint `json:"date"`
	Own         []Application     `json:"own"`
	TeamOnLeave []string          `json:"teamOnLeave"`
	Holiday     string            `json:"holiday,omitempty"`
}

// HasConflict reports whether the user already holds leave on the day.
func (d DayConflicts) HasConflict() bool { return len(d.Own) > 0 }

// Conflicts returns, for each day of p, userID's own pending/approved
// applications and the other users with approved leave.
func Conflicts(apps []Application, cal generic.HolidayCalendar, userID string, p generic.Period) []DayConflicts {
	var out []DayConflicts
	for _, d := range p.Days() {
		dc := DayConflicts{Date: d, Own: []Application{}, TeamOnLeave: []string{}}
		for _, a := range apps {
			if a.UserID == userID && a.Active() && a.Period().Contains(d) {
				dc.Own = append(dc.Own, a)
			}
		}
		for _, id := range UsersOnLeave(apps, d) {
			if id != userID {
				dc.TeamOnLeave = append(dc.TeamOnLeave, id)
			}
		}
		if cal != nil {
			if h, ok := cal.IsHoliday(d); ok {
				dc.Holiday = h.Name
			}
		}
		out = append(out, dc)
	}
	return out
}

func limit(apps []Application, n int) []Application {
	if apps == nil {
		apps = []Application{}
	}
	if n >= 0 && len(apps) > n {
		return apps[:n]
	}
	return apps
}
