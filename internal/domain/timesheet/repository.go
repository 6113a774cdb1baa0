package timesheet

import (
	"context"
	"time"
)

// EntryRepository - interface for timesheet_entries table
type EntryRepository interface {
	Create(ctx context.Context, entry Entry) (Entry, error)
	GetByID(ctx context.Context, id string) (Entry, error)
	// GetByIDForUpdate locks the row for the duration of the surrounding
	// transaction so concurrent status flips serialize.
	GetByIDForUpdate(ctx context.Context, id string) (Entry, error)
	List(ctx context.Context, filter EntryFilter) ([]Entry, int64, error)
	ListApprovedByEmployeeMonth(ctx context.Context, employeeID string, month, year int) ([]Entry, error)
	Update(ctx context.Context, update UpdateEntry) error
	Delete(ctx context.Context, id string) error

	// ExistsActiveInRange reports whether any non-rejected entry for the
	// employee falls on a working day within [from, to].
	ExistsActiveInRange(ctx context.Context, employeeID string, from, to time.Time) (bool, error)

	// CheckOverlapping reports whether any non-rejected entry for the
	// employee intersects [checkIn, checkOut). A nil checkOut means the
	// interval is still open. excludeID skips the entry being updated.
	CheckOverlapping(ctx context.Context, employeeID, excludeID string, checkIn time.Time, checkOut *time.Time) (bool, error)

	// AcquireEmployeeLock takes a transaction-scoped lock serializing all
	// interval checks for one employee. Must be called inside a transaction,
	// before CheckOverlapping.
	AcquireEmployeeLock(ctx context.Context, employeeID string) error
}
