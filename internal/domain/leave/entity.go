package leave

import "time"

// LeaveType reference data. A nil MaxDaysPerYear means the type is uncapped:
// approvals never fail the balance check, usage is tracked for reporting only.
type LeaveType struct {
	ID   string
	Name string
	Code string

	RequiresApproval  bool
	MaxDaysPerYear    *int
	AutoResetAnnually bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Capped reports whether approvals draw down a finite yearly balance.
func (t LeaveType) Capped() bool {
	return t.MaxDaysPerYear != nil
}

// Seeded leave type codes.
const (
	TypeCodeAnnual = "ANNUAL"
	TypeCodeSick   = "SICK"
	TypeCodeUnpaid = "UNPAID"
)

// Balance is the per-employee, per-type, per-year day counter. RemainingDays
// is always recomputed from the other two; it is never stored independently.
type Balance struct {
	ID          string
	EmployeeID  string
	LeaveTypeID string
	Year        int

	TotalDays int
	UsedDays  int

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships (for responses)
	LeaveTypeName *string
	LeaveTypeCode *string
}

// RemainingDays derives the remaining balance. May be negative for uncapped
// types, where usage is tracked without a grant.
func (b Balance) RemainingDays() int {
	return b.TotalDays - b.UsedDays
}

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// Request is a leave request over an inclusive date range. NumberOfDays is
// derived from the range at creation via the working-day calendar and is
// immutable afterward; changing dates means a new request.
type Request struct {
	ID          string
	EmployeeID  string
	LeaveTypeID string

	StartDate    time.Time
	EndDate      time.Time
	NumberOfDays int

	Reason            *string
	ProjectID         *string
	MCDocumentURL     *string
	StandInEmployeeID *string

	Status          RequestStatus
	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectionReason *string
	CancelledAt     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships (for responses)
	LeaveTypeName *string
	LeaveTypeCode *string
	EmployeeName  *string
}

// Terminal reports whether the request can no longer change status. Pending
// is the only non-terminal state.
func (r Request) Terminal() bool {
	return r.Status != RequestStatusPending
}
