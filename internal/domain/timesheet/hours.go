package timesheet

import "time"

// ComputeHours derives total and overtime hours from a check-in/check-out
// pair. An open entry (nil check-out) has zero hours. The mirror of the
// source system's generated columns: derived at write time, re-derived on
// read, never trusted from input.
func ComputeHours(checkIn time.Time, checkOut *time.Time) (total, overtime float64, err error) {
	if checkOut == nil {
		return 0, 0, nil
	}
	if !checkOut.After(checkIn) {
		return 0, 0, ErrCheckOutNotAfterCheckIn
	}

	total = checkOut.Sub(checkIn).Hours()
	if total > MaxDailyHours {
		return 0, 0, ErrHoursCeilingExceeded
	}

	overtime = total - RegularHoursPerDay
	if overtime < 0 {
		overtime = 0
	}
	if overtime > MaxOvertimeHours {
		overtime = MaxOvertimeHours
	}

	return total, overtime, nil
}

// ValidateWorkDate rejects work dates after the evaluation instant.
// Comparison is by calendar day in UTC.
func ValidateWorkDate(workDate, now time.Time) error {
	wd := workDate.UTC()
	today := now.UTC()
	w := time.Date(wd.Year(), wd.Month(), wd.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if w.After(t) {
		return ErrFutureWorkDate
	}
	return nil
}

// Overlaps reports whether the half-open interval [aStart, aEnd) intersects
// [bStart, bEnd). A nil end means the interval is still open and extends
// indefinitely.
func Overlaps(aStart time.Time, aEnd *time.Time, bStart time.Time, bEnd *time.Time) bool {
	aBeforeB := aEnd != nil && !aEnd.After(bStart)
	bBeforeA := bEnd != nil && !bEnd.After(aStart)
	return !aBeforeB && !bBeforeA
}
