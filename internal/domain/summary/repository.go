package summary

import "context"

// Repository - interface for monthly_summaries table
type Repository interface {
	// Create inserts a new summary. The (employee, month, year) identity is
	// unique; a constraint violation surfaces as ErrSummaryExists so two
	// concurrent generations can never both succeed.
	Create(ctx context.Context, s Summary) (Summary, error)
	GetByID(ctx context.Context, id string) (Summary, error)
	GetByIDForUpdate(ctx context.Context, id string) (Summary, error)
	GetByEmployeeMonth(ctx context.Context, employeeID string, month, year int) (Summary, error)
	List(ctx context.Context, filter SummaryFilter) ([]Summary, int64, error)
	Update(ctx context.Context, update UpdateSummary) error

	// NextInvoiceSequence returns the next unused invoice sequence for the
	// month. Must be called inside a transaction; the implementation
	// serializes concurrent callers for the same month.
	NextInvoiceSequence(ctx context.Context, month, year int) (int, error)

	// ExistsNonRejected reports whether a summary in any non-rejected state
	// exists for the identity. Timesheet deletion uses it as a reference check.
	ExistsNonRejected(ctx context.Context, employeeID string, month, year int) (bool, error)
}
