package workcal

import "time"

// CountWorkingDays returns the inclusive number of Monday-Friday days in
// [start, end]. The caller guarantees end is not before start; if it is, the
// count is zero. Time-of-day and timezone components are ignored.
func CountWorkingDays(start, end time.Time) int {
	start = truncateToDay(start)
	end = truncateToDay(end)

	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		days++
	}
	return days
}

// IsWorkingDay reports whether t falls on a Monday-Friday day.
func IsWorkingDay(t time.Time) bool {
	return t.Weekday() != time.Saturday && t.Weekday() != time.Sunday
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
