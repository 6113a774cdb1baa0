package leave

import (
	"context"
	"time"
)

// TypeRepository - interface for leave_types table
type TypeRepository interface {
	Create(ctx context.Context, leaveType LeaveType) (LeaveType, error)
	GetByID(ctx context.Context, id string) (LeaveType, error)
	GetByCode(ctx context.Context, code string) (LeaveType, error)
	List(ctx context.Context) ([]LeaveType, error)
}

// BalanceRepository - interface for leave_balances table
type BalanceRepository interface {
	// Upsert creates the (employee, type, year) row or resets total_days on
	// the existing one. Idempotent.
	Upsert(ctx context.Context, balance Balance) (Balance, error)
	Get(ctx context.Context, employeeID, leaveTypeID string, year int) (Balance, error)
	// GetForUpdate row-locks the balance so concurrent approvals against the
	// same balance serialize. Must be called inside a transaction.
	GetForUpdate(ctx context.Context, employeeID, leaveTypeID string, year int) (Balance, error)
	// EnsureForUpdate is GetForUpdate that creates a zero-grant tracking row
	// when none exists (uncapped types record usage without an allocation).
	EnsureForUpdate(ctx context.Context, employeeID, leaveTypeID string, year int) (Balance, error)
	IncrementUsed(ctx context.Context, id string, days int) error
	ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]Balance, error)
}

// RequestRepository - interface for leave_requests table
type RequestRepository interface {
	Create(ctx context.Context, request Request) (Request, error)
	GetByID(ctx context.Context, id string) (Request, error)
	GetByIDForUpdate(ctx context.Context, id string) (Request, error)
	List(ctx context.Context, filter RequestFilter) ([]Request, int64, error)
	Update(ctx context.Context, update UpdateRequest) error
	// ListApprovedOverlapping returns approved requests whose date range
	// intersects [from, to]. Used by monthly summary aggregation.
	ListApprovedOverlapping(ctx context.Context, employeeID string, from, to time.Time) ([]Request, error)
}
