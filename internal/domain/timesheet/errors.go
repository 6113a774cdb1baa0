package timesheet

import "errors"

// Timesheet domain errors. Each business rule fails with its own sentinel so
// callers can render a specific message.
var (
	ErrEntryNotFound = errors.New("timesheet entry not found")

	// Creation/update validation
	ErrOverlappingEntry        = errors.New("timesheet interval overlaps an existing entry")
	ErrHoursCeilingExceeded    = errors.New("total hours exceed the daily ceiling")
	ErrFutureWorkDate          = errors.New("work date may not be in the future")
	ErrCheckOutNotAfterCheckIn = errors.New("check-out must be after check-in")
	ErrDuplicateEntry          = errors.New("an entry for this employee and work date already exists")

	// Post-approval locks
	ErrEntryLocked    = errors.New("entry is approved; time fields are locked")
	ErrOvertimeLocked = errors.New("overtime is approved; overtime fields are locked")

	// State machine
	ErrInvalidTransition  = errors.New("operation not allowed from the entry's current status")
	ErrNoOvertimeToReview = errors.New("entry has no pending overtime")

	// Deletion
	ErrEntryReferenced = errors.New("entry is referenced by a monthly summary and cannot be deleted")
)
