package generic

import "time"

// =============================================================================
// PERIOD - Inclusive range of calendar days
// =============================================================================

// Period is the closed interval [Start, End] of days. A leave application
// covers exactly its period; so do calendar months and lookback windows.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// NewPeriod builds a period, reporting ErrInvalidPeriod when End < Start.
func NewPeriod(start, end TimePoint) (Period, error) {
	if end.Before(start) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

// MonthPeriod returns the whole calendar month.
func MonthPeriod(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Overlaps uses the three containment conditions the leave rules are
// specified with: other's start inside p, other's end inside p, or p
// containing other entirely.
func (p Period) Overlaps(other Period) bool {
	return (p.Start.BeforeOrEqual(other.End) && p.Start.AfterOrEqual(other.Start)) ||
		(p.End.BeforeOrEqual(other.End) && p.End.AfterOrEqual(other.Start)) ||
		(p.Start.BeforeOrEqual(other.Start) && p.End.AfterOrEqual(other.End))
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// Len is the inclusive day count.
func (p Period) Len() int { return InclusiveDays(p.Start, p.End) }

// SpansMonths reports whether Start and End fall in different calendar months.
func (p Period) SpansMonths() bool { return !p.Start.SameMonth(p.End) }

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
