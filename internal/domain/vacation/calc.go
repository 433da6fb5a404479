package vacation

import (
	"time"

	"timeoff/internal/domain/settings"
)

// ChargeableDays counts the days in [start, end] inclusive that charge
// against a balance under the given policy. Callers must validate
// start <= end first; an inverted range yields 0.
//
// The result is deterministic for a given input because the count is
// persisted on the request at creation and must be reproducible.
func ChargeableDays(start, end time.Time, policy settings.WeekendPolicy) int {
	start = dateOnly(start)
	end = dateOnly(end)
	if end.Before(start) {
		return 0
	}

	days := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if policy.Excludes(day.Weekday()) {
			continue
		}
		days++
	}
	return days
}

// dateOnly strips the time component, keeping the calendar date in UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Overlaps reports whether two inclusive date ranges share at least one
// calendar day.
func Overlaps(start1, end1, start2, end2 time.Time) bool {
	return !start1.After(end2) && !start2.After(end1)
}
