package leave

import "errors"

var (
	ErrLeaveTypeNotFound    = errors.New("leave type not found")
	ErrDuplicateLeaveType   = errors.New("a leave type with this code already exists")
	ErrLeaveRequestNotFound = errors.New("leave request not found")
	ErrBalanceNotFound      = errors.New("leave balance not found for this employee, type and year")

	// ErrInsufficientBalance is returned when an approval would drive a
	// capped balance negative. The balance is left unchanged.
	ErrInsufficientBalance = errors.New("insufficient leave balance")

	// ErrRequestAlreadyProcessed is returned for transitions out of a
	// terminal state (rejected/cancelled). Approving an already-approved
	// request is a no-op, not an error.
	ErrRequestAlreadyProcessed = errors.New("leave request already processed")

	ErrInvalidDateRange = errors.New("end date must not be before start date")

	// ErrTimesheetConflict is returned when an approval would grant leave
	// over days that already carry a non-rejected timesheet entry.
	ErrTimesheetConflict = errors.New("a timesheet entry exists within the requested leave range")
)
