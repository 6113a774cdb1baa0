package response

import (
	"errors"
	"net/http"

	"github.com/worklane/timeledger-backend-go/internal/domain/leave"
	"github.com/worklane/timeledger-backend-go/internal/domain/summary"
	"github.com/worklane/timeledger-backend-go/internal/domain/timesheet"
	"github.com/worklane/timeledger-backend-go/internal/domain/user"
	"github.com/worklane/timeledger-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Timesheet domain errors
	case errors.Is(err, timesheet.ErrEntryNotFound):
		NotFound(w, "Timesheet entry not found")
	case errors.Is(err, timesheet.ErrOverlappingEntry):
		Conflict(w, "Entry overlaps an existing entry for this employee")
	case errors.Is(err, timesheet.ErrDuplicateEntry):
		Conflict(w, "An entry for this employee and date already exists")
	case errors.Is(err, timesheet.ErrHoursCeilingExceeded):
		BadRequest(w, "Entry exceeds the maximum daily hours", nil)
	case errors.Is(err, timesheet.ErrFutureWorkDate):
		BadRequest(w, "Work date must not be in the future", nil)
	case errors.Is(err, timesheet.ErrCheckOutNotAfterCheckIn):
		BadRequest(w, "Check-out must be after check-in", nil)
	case errors.Is(err, timesheet.ErrEntryLocked):
		Conflict(w, "Approved entries cannot be modified")
	case errors.Is(err, timesheet.ErrOvertimeLocked):
		Conflict(w, "Reviewed overtime cannot be modified")
	case errors.Is(err, timesheet.ErrInvalidTransition):
		Conflict(w, "Invalid status transition")
	case errors.Is(err, timesheet.ErrNoOvertimeToReview):
		BadRequest(w, "Entry has no overtime to review", nil)
	case errors.Is(err, timesheet.ErrEntryReferenced):
		Conflict(w, "Entry is referenced by a monthly summary")

	// Leave domain errors
	case errors.Is(err, leave.ErrLeaveTypeNotFound):
		NotFound(w, "Leave type not found")
	case errors.Is(err, leave.ErrDuplicateLeaveType):
		Conflict(w, "Leave type code already exists")
	case errors.Is(err, leave.ErrLeaveRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrBalanceNotFound):
		NotFound(w, "Leave balance not found")
	case errors.Is(err, leave.ErrInsufficientBalance):
		BadRequest(w, "Insufficient leave balance", nil)
	case errors.Is(err, leave.ErrRequestAlreadyProcessed):
		Conflict(w, "Leave request already processed")
	case errors.Is(err, leave.ErrInvalidDateRange):
		BadRequest(w, "Invalid leave date range", nil)
	case errors.Is(err, leave.ErrTimesheetConflict):
		Conflict(w, "A timesheet entry exists within the requested leave range")

	// Summary domain errors
	case errors.Is(err, summary.ErrSummaryNotFound):
		NotFound(w, "Monthly summary not found")
	case errors.Is(err, summary.ErrSummaryExists):
		Conflict(w, "A summary for this employee and month already exists")
	case errors.Is(err, summary.ErrInvalidTransition):
		Conflict(w, "Invalid summary status transition")
	case errors.Is(err, summary.ErrSummaryLocked):
		Conflict(w, "Approved summaries cannot be modified")
	case errors.Is(err, summary.ErrSignatureRequired):
		BadRequest(w, "Signature reference is required", nil)
	case errors.Is(err, summary.ErrRemarksRequired):
		BadRequest(w, "Rejection remarks are required", nil)
	case errors.Is(err, summary.ErrInvoiceAssigned):
		Conflict(w, "Invoice number already assigned")
	case errors.Is(err, summary.ErrDuplicateInvoice):
		Conflict(w, "Invoice number already in use")

	// User domain errors
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrInvalidCredentials):
		Unauthorized(w, "Invalid email or password")
	case errors.Is(err, user.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")
	case errors.Is(err, user.ErrNotRecordOwner):
		Forbidden(w, "Not the owner of this record")

	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
