package timeoff

import (
	"sort"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// PUBLIC HOLIDAYS
// =============================================================================

// HolidayList is a fixed generic.HolidayCalendar.
type HolidayList struct {
	byDate map[generic.TimePoint]generic.Holiday
}

// NewHolidayList indexes holidays by date. A later entry for the same date wins.
func NewHolidayList(holidays []generic.Holiday) *HolidayList {
	hl := &HolidayList{byDate: make(map[generic.TimePoint]generic.Holiday, len(holidays))}
	for _, h := range holidays {
		hl.byDate[h.Date] = h
	}
	return hl
}

// PublicHolidays2025 is the calendar shown on the apply and calendar screens.
func PublicHolidays2025() *HolidayList {
	return NewHolidayList([]generic.Holiday{
		{Date: generic.MustParseDate("2025-01-01"), Name: "New Year's Day"},
		{Date: generic.MustParseDate("2025-01-20"), Name: "Martin Luther King Jr. Day"},
		{Date: generic.MustParseDate("2025-02-17"), Name: "Presidents' Day"},
		{Date: generic.MustParseDate("2025-05-26"), Name: "Memorial Day"},
		{Date: generic.MustParseDate("2025-07-04"), Name: "Independence Day"},
		{Date: generic.MustParseDate("2025-09-01"), Name: "Labor Day"},
		{Date: generic.MustParseDate("2025-10-13"), Name: "Columbus Day"},
		{Date: generic.MustParseDate("2025-11-11"), Name: "Veterans Day"},
		{Date: generic.MustParseDate("2025-11-27"), Name: "Thanksgiving Day"},
		{Date: generic.MustParseDate("2025-12-25"), Name: "Christmas Day"},
	})
}

func (hl *HolidayList) IsHoliday(date generic.TimePoint) (generic.Holiday, bool) {
	h, ok := hl.byDate[date]
	return h, ok
}

// HolidaysIn returns the holidays inside p, ordered by date.
func (hl *HolidayList) HolidaysIn(p generic.Period) []generic.Holiday {
	var out []generic.Holiday
	for d, h := range hl.byDate {
		if p.Contains(d) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

var _ generic.HolidayCalendar = (*HolidayList)(nil)
