package timeoff_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

func ids(apps []timeoff.Application) []string {
	out := make([]string, 0, len(apps))
	for _, a := range apps {
		out = append(out, a.ID)
	}
	return out
}

func TestUpcomingLeaves_ApprovedWithinWindow(t *testing.T) {
	today := generic.DateOf(testNow)
	apps := []timeoff.Application{
		application("1", timeoff.LeavePaid, timeoff.StatusApproved, "2025-03-20", "2025-03-21"),
		application("1", timeoff.LeaveCasual, timeoff.StatusApproved, "2025-03-05", "2025-03-05"),
		application("1", timeoff.LeaveSick, timeoff.StatusPending, "2025-03-06", "2025-03-06"),
		application("1", timeoff.LeaveMiscellaneous, timeoff.StatusApproved, "2025-04-30", "2025-04-30"),
		application("1", timeoff.LeavePaid, timeoff.StatusApproved, "2025-02-20", "2025-02-20"),
	}

	got := timeoff.UpcomingLeaves(apps, today, 30)

	assert.Equal(t, []string{"1-casual-2025-03-05", "1-paid-2025-03-20"}, ids(got))
}

func TestRecentApplications_NewestFirst(t *testing.T) {
	old := application("1", timeoff.LeavePaid, timeoff.StatusApproved, "2025-03-10", "2025-03-10")
	old.AppliedOn = testNow.AddDate(0, 0, -10)
	mid := application("1", timeoff.LeaveSick, timeoff.StatusPending, "2025-03-11", "2025-03-11")
	mid.AppliedOn = testNow.AddDate(0, 0, -5)
	last := application("1", timeoff.LeaveCasual, timeoff.StatusRejected, "2025-03-12", "2025-03-12")
	last.AppliedOn = testNow

	got := timeoff.RecentApplications([]timeoff.Application{old, mid, last}, 2)

	assert.Equal(t, []string{last.ID, mid.ID}, ids(got))
}

func TestTeamCalendar_ApprovedOnly(t *testing.T) {
	apps := []timeoff.Application{
		application("1", timeoff.LeavePaid, timeoff.StatusApproved, "2025-02-27", "2025-03-02"),
		application("4", timeoff.LeaveSick, timeoff.StatusPending, "2025-03-10", "2025-03-10"),
		application("5", timeoff.LeaveCasual, timeoff.StatusApproved, "2025-03-10", "2025-03-10"),
	}

	days := timeoff.TeamCalendar(apps, timeoff.DefaultUsers(), timeoff.PublicHolidays2025(), 2025, time.March)

	require.Len(t, days, 31)
	assert.True(t, days[0].HasLeave, "leave started in February still covers March 1")
	assert.Equal(t, "1", days[0].Leaves[0].UserID)
	assert.NotEmpty(t, days[0].Leaves[0].UserName)
	assert.False(t, days[2].HasLeave)

	march10 := days[9]
	assert.Equal(t, "2025-03-10", march10.Date.String())
	require.Len(t, march10.Leaves, 1, "pending applications are not on the calendar")
	assert.Equal(t, "5", march10.Leaves[0].UserID)
}

func TestTeamCalendar_HolidayNames(t *testing.T) {
	days := timeoff.TeamCalendar(nil, nil, timeoff.PublicHolidays2025(), 2025, time.December)

	require.Len(t, days, 31)
	assert.Equal(t, "Christmas Day", days[24].Holiday)
	assert.Empty(t, days[23].Holiday)
	assert.Empty(t, days[24].Leaves)
}

func TestEmergencyUsageFor(t *testing.T) {
	apps := []timeoff.Application{
		emergencyApplied(3, "2025-02-28"),
		emergencyApplied(40, "2025-01-22"),
		emergencyApplied(400, "2024-01-25"),
		application("1", timeoff.LeaveSick, timeoff.StatusApproved, "2025-03-04", "2025-03-04"),
	}
	other := emergencyApplied(1, "2025-03-02")
	other.UserID = "4"
	apps = append(apps, other)

	usage := timeoff.EmergencyUsageFor(apps, "1", testNow, 30)

	assert.Equal(t, 1, usage.Last30Days)
	assert.Equal(t, 2, usage.LastYear)
	assert.Equal(t, "2025-02-28", usage.MostRecent.String())
}

func TestPendingQueue_EmergencyFirstThenNewest(t *testing.T) {
	older := application("1", timeoff.LeavePaid, timeoff.StatusPending, "2025-03-10", "2025-03-10")
	older.AppliedOn = testNow.AddDate(0, 0, -3)
	newer := application("4", timeoff.LeavePaid, timeoff.StatusPending, "2025-03-11", "2025-03-11")
	newer.AppliedOn = testNow
	emergency := application("5", timeoff.LeaveSick, timeoff.StatusPending, "2025-03-03", "2025-03-03")
	emergency.IsEmergency = true
	emergency.AppliedOn = testNow.AddDate(0, 0, -7)
	approved := application("6", timeoff.LeavePaid, timeoff.StatusApproved, "2025-03-12", "2025-03-12")

	got := timeoff.PendingQueue([]timeoff.Application{older, approved, newer, emergency})

	assert.Equal(t, []string{emergency.ID, newer.ID, older.ID}, ids(got))
}

func TestRecentlyProcessedAndRecalled(t *testing.T) {
	approved := application("1", timeoff.LeavePaid, timeoff.StatusApproved, "2025-03-10", "2025-03-10")
	rejected := application("4", timeoff.LeavePaid, timeoff.StatusRejected, "2025-03-11", "2025-03-11")
	rejected.AppliedOn = testNow
	pending := application("5", timeoff.LeavePaid, timeoff.StatusPending, "2025-03-12", "2025-03-12")

	firstRecall := testNow.AddDate(0, 0, -2)
	secondRecall := testNow.AddDate(0, 0, -1)
	recalledA := application("6", timeoff.LeaveSick, timeoff.StatusRecalled, "2025-03-13", "2025-03-13")
	recalledA.RecalledOn = &firstRecall
	recalledB := application("7", timeoff.LeaveSick, timeoff.StatusRecalled, "2025-03-14", "2025-03-14")
	recalledB.RecalledOn = &secondRecall

	apps := []timeoff.Application{approved, rejected, pending, recalledA, recalledB}

	assert.Equal(t, []string{rejected.ID, approved.ID}, ids(timeoff.RecentlyProcessed(apps, 10)))
	assert.Equal(t, []string{recalledB.ID, recalledA.ID}, ids(timeoff.RecentlyRecalled(apps, 10)))
	assert.Len(t, timeoff.RecentlyRecalled(apps, 1), 1)
	assert.NotNil(t, timeoff.RecentlyProcessed(nil, 10), "empty views encode as []")
}

func TestConflicts_OwnAndTeam(t *testing.T) {
	own := application("1", timeoff.LeavePaid, timeoff.StatusPending, "2025-03-11", "2025-03-11")
	team := application("4", timeoff.LeaveCasual, timeoff.StatusApproved, "2025-03-10", "2025-03-11")
	ownRejected := application("1", timeoff.LeaveSick, timeoff.StatusRejected, "2025-03-10", "2025-03-10")
	p := generic.Period{Start: day("2025-03-10"), End: day("2025-03-12")}

	got := timeoff.Conflicts([]timeoff.Application{own, team, ownRejected}, timeoff.PublicHolidays2025(), "1", p)

	require.Len(t, got, 3)
	assert.False(t, got[0].HasConflict(), "rejected applications do not hold dates")
	assert.Equal(t, []string{"4"}, got[0].TeamOnLeave)
	assert.True(t, got[1].HasConflict())
	assert.Equal(t, []string{"4"}, got[1].TeamOnLeave)
	assert.False(t, got[2].HasConflict())
	assert.Empty(t, got[2].TeamOnLeave)
}
