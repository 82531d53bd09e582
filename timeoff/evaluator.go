/*
evaluator.go - Policy evaluator: the rules a leave draft must satisfy

PURPOSE:
  Evaluate is a pure function of (draft, store snapshot, clock). It checks
  every rule and returns every violation as a human-readable message, in a
  fixed order, so the submitter sees all problems at once. An empty result
  means the draft may be submitted.

RULE ORDER:
  1. Required fields        (start, end, reason; sick reason length)
  2. Date sanity            (no past start unless emergency; end >= start)
  3. Emergency throttling   (emergency only)
  4. Overlap                (non-emergency; own pending/approved)
  5. Team capacity          (non-emergency; first over-capacity day only)
  6. Balance sufficiency    (skipped for emergency sick)
  7. Extended sick leave    (medical certificate mention)
  8. Per-type caps          (non-emergency; casual/misc length, casual
                             adjacency, paid month span and monthly total)

  Rules 4-8 need a usable range. When a date is missing or End < Start,
  rules 1-2 already report it and the range rules are skipped.

SEE ALSO:
  - policies.go: Thresholds
  - request.go: Submit/Validate call Evaluate inside a transaction
*/
package timeoff

import (
	"fmt"
	"strings"

	"github.com/warp/leave-engine/generic"
)

// Evaluator checks drafts against PolicyConfig.
type Evaluator struct {
	Config PolicyConfig
	Clock  generic.Clock
}

func NewEvaluator(cfg PolicyConfig, clock generic.Clock) *Evaluator {
	if clock == nil {
		clock = generic.SystemClock{}
	}
	return &Evaluator{Config: cfg, Clock: clock}
}

// EvalContext is the store snapshot a draft is judged against.
type EvalContext struct {
	Applications []Application // every user's applications
	Balance      *LeaveBalance // the submitter's balance; nil skips rule 6
	Users        []User        // team size for capacity
}

// Evaluate returns all violations of draft, empty when it is acceptable.
func (e *Evaluator) Evaluate(d Draft, ec EvalContext) []string {
	var v []string

	v = append(v, e.checkRequired(d)...)
	v = append(v, e.checkDates(d)...)
	if d.IsEmergency {
		v = append(v, e.checkEmergency(d, ec.Applications)...)
	}

	if !d.HasDates() {
		return v
	}

	if !d.IsEmergency {
		v = append(v, e.checkOverlap(d, ec.Applications)...)
		v = append(v, e.checkCapacity(d, ec.Applications, ec.Users)...)
	}
	v = append(v, e.checkBalance(d, ec.Balance)...)
	v = append(v, e.checkSickCertificate(d)...)
	if !d.IsEmergency {
		v = append(v, e.checkCaps(d, ec.Applications)...)
	}
	return v
}

// =============================================================================
// RULES
// =============================================================================

func (e *Evaluator) checkRequired(d Draft) []string {
	var v []string
	if d.StartDate.IsZero() {
		v = append(v, "Start date is required")
	}
	if d.EndDate.IsZero() {
		v = append(v, "End date is required")
	}
	if d.Reason == "" {
		v = append(v, "Reason is required")
	}
	if d.Type == LeaveSick && !d.IsEmergency && len(d.Reason) < e.Config.MinSickReasonLen {
		v = append(v, "Please provide more details about your illness for sick leave requests")
	}
	return v
}

func (e *Evaluator) checkDates(d Draft) []string {
	var v []string
	today := generic.Today(e.Clock)
	if !d.StartDate.IsZero() && d.StartDate.Before(today) && !d.IsEmergency {
		v = append(v, "Start date cannot be in the past")
	}
	if !d.StartDate.IsZero() && !d.EndDate.IsZero() && d.EndDate.Before(d.StartDate) {
		v = append(v, "End date cannot be before start date")
	}
	return v
}

func (e *Evaluator) checkEmergency(d Draft, apps []Application) []string {
	var v []string
	now := e.Clock.Now()
	windowStart := now.AddDate(0, 0, -e.Config.EmergencyWindowDays)
	cooldownStart := now.AddDate(0, 0, -e.Config.EmergencyCooldownDays)
	yesterday := generic.Today(e.Clock).AddDays(-1)

	var inWindow, inCooldown int
	var startedYesterday bool
	for _, a := range apps {
		if a.UserID != d.UserID || !a.IsEmergency {
			continue
		}
		if !a.AppliedOn.Before(windowStart) {
			inWindow++
		}
		if !a.AppliedOn.Before(cooldownStart) {
			inCooldown++
		}
		if a.StartDate.Equal(yesterday) {
			startedYesterday = true
		}
	}

	if inWindow >= e.Config.EmergencyMaxInWindow {
		v = append(v, fmt.Sprintf("You have already used the maximum allowed emergency leaves (%d) in the past %d days",
			e.Config.EmergencyMaxInWindow, e.Config.EmergencyWindowDays))
	}
	if inCooldown > 0 {
		v = append(v, fmt.Sprintf("You have already taken an emergency leave in the past %d days. Frequent emergency leaves require HR review.",
			e.Config.EmergencyCooldownDays))
	}
	if startedYesterday {
		v = append(v, "You cannot take emergency leaves on consecutive days. Please apply for a regular sick leave instead.")
	}
	return v
}

func (e *Evaluator) checkOverlap(d Draft, apps []Application) []string {
	p := d.Period()
	for _, a := range apps {
		if a.UserID == d.UserID && a.Active() && p.Overlaps(a.Period()) {
			return []string{"You already have approved or pending leave during this period"}
		}
	}
	return nil
}

// checkCapacity reports only the first day that would exceed capacity.
func (e *Evaluator) checkCapacity(d Draft, apps []Application, users []User) []string {
	limit := e.Config.TeamCapacity(len(users))
	for _, day := range d.Period().Days() {
		if len(UsersOnLeave(apps, day))+1 > limit {
			return []string{fmt.Sprintf("Too many team members are on leave on %s. Please choose different dates.", day)}
		}
	}
	return nil
}

func (e *Evaluator) checkBalance(d Draft, b *LeaveBalance) []string {
	if b == nil || (d.IsEmergency && d.Type == LeaveSick) {
		return nil
	}
	if have := b.Remaining(d.Type); d.Duration() > have {
		return []string{fmt.Sprintf("Not enough %s leave balance. You have %d days available.", d.Type, have)}
	}
	return nil
}

func (e *Evaluator) checkSickCertificate(d Draft) []string {
	if d.Type != LeaveSick || d.Duration() <= e.Config.SickCertificateThreshold {
		return nil
	}
	if strings.Contains(strings.ToLower(d.Reason), strings.ToLower(e.Config.SickCertificateKeyword)) {
		return nil
	}
	return []string{fmt.Sprintf("Sick leaves longer than %d days require a medical certificate (please mention this in your reason)",
		e.Config.SickCertificateThreshold)}
}

func (e *Evaluator) checkCaps(d Draft, apps []Application) []string {
	var v []string
	days := d.Duration()

	switch d.Type {
	case LeaveCasual:
		if days > e.Config.CasualMaxDays {
			v = append(v, "Only 1 casual leave per week is allowed")
			v = append(v, fmt.Sprintf("Casual leaves cannot exceed %s", dayCount(e.Config.CasualMaxDays)))
		}
		if hasAdjacentCasual(d, apps) {
			v = append(v, "Casual leaves cannot be taken on consecutive days, even across separate requests")
		}

	case LeaveMiscellaneous:
		if days > e.Config.MiscMaxDays {
			v = append(v, "Miscellaneous leaves cannot be taken for more than one day at a time")
		}

	case LeavePaid:
		if d.Period().SpansMonths() {
			v = append(v, "Paid leaves cannot span across different months")
			break
		}
		used := paidDaysInMonth(apps, d.UserID, d.StartDate)
		if used+days > e.Config.PaidMonthlyCap {
			v = append(v, fmt.Sprintf("You can only take %d paid leaves per month. You have already used or applied for %d days this month.",
				e.Config.PaidMonthlyCap, used))
		}
	}
	return v
}

// =============================================================================
// HELPERS
// =============================================================================

// UsersOnLeave returns the distinct users with an approved application
// covering day.
func UsersOnLeave(apps []Application, day generic.TimePoint) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, a := range apps {
		if a.Status == StatusApproved && a.Period().Contains(day) && !seen[a.UserID] {
			seen[a.UserID] = true
			ids = append(ids, a.UserID)
		}
	}
	return ids
}

func hasAdjacentCasual(d Draft, apps []Application) bool {
	dayBefore := d.StartDate.AddDays(-1)
	dayAfter := d.EndDate.AddDays(1)
	for _, a := range apps {
		if a.UserID != d.UserID || a.Type != LeaveCasual || !a.Active() {
			continue
		}
		if a.EndDate.Equal(dayBefore) || a.StartDate.Equal(dayAfter) {
			return true
		}
	}
	return false
}

// paidDaysInMonth sums pending and approved paid days of applications that
// start in the same calendar month (and year) as month.
func paidDaysInMonth(apps []Application, userID string, month generic.TimePoint) int {
	total := 0
	for _, a := range apps {
		if a.UserID == userID && a.Type == LeavePaid && a.Active() && a.StartDate.SameMonth(month) {
			total += a.Duration()
		}
	}
	return total
}

func dayCount(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// HolidayWarnings lists the public holidays inside p. They are shown next to
// the form and never block a submission.
func HolidayWarnings(cal generic.HolidayCalendar, p generic.Period) []generic.Holiday {
	if cal == nil || p.End.Before(p.Start) {
		return nil
	}
	return cal.HolidaysIn(p)
}
