package summary

import "errors"

var (
	ErrSummaryNotFound = errors.New("monthly summary not found")

	// ErrSummaryExists is returned when a non-rejected summary already exists
	// for the (employee, month, year) identity. Regenerate explicitly from a
	// rejected summary instead of overwriting.
	ErrSummaryExists = errors.New("a summary for this employee and month already exists")

	ErrInvalidTransition = errors.New("operation not allowed from the summary's current status")
	ErrSummaryLocked     = errors.New("summary is approved and can no longer change")

	ErrSignatureRequired = errors.New("signature reference is required")
	ErrRemarksRequired   = errors.New("remarks are required when rejecting a summary")

	ErrInvoiceAssigned  = errors.New("invoice number already assigned")
	ErrDuplicateInvoice = errors.New("invoice number already in use for this month")
)
