package timesheet

import "time"

// Working-hour policy constants. Hours above the regular day count as
// overtime, overtime is capped per day, and a day can never exceed the hard
// ceiling.
const (
	RegularHoursPerDay = 8.0
	MaxOvertimeHours   = 4.0
	MaxDailyHours      = 12.0
)

// DayStatus classifies the worked day itself.
type DayStatus string

const (
	DayStatusPresent DayStatus = "present"
	DayStatusAbsent  DayStatus = "absent"
	DayStatusHalfDay DayStatus = "half_day"
)

// ApprovalStatus is the entry's position in the approval pipeline.
type ApprovalStatus string

const (
	ApprovalStatusDraft     ApprovalStatus = "draft"
	ApprovalStatusSubmitted ApprovalStatus = "submitted"
	ApprovalStatusApproved  ApprovalStatus = "approved"
	ApprovalStatusRejected  ApprovalStatus = "rejected"
)

// OvertimeStatus tracks the independent overtime approval. Empty means the
// entry has no overtime to approve.
type OvertimeStatus string

const (
	OvertimeStatusNone     OvertimeStatus = ""
	OvertimeStatusPending  OvertimeStatus = "pending"
	OvertimeStatusApproved OvertimeStatus = "approved"
	OvertimeStatusRejected OvertimeStatus = "rejected"
)

// Entry is one employee's check-in/check-out record for one work date.
// TotalHours and OvertimeHours are derived from the check times and are never
// set directly by callers.
type Entry struct {
	ID         string
	EmployeeID string
	WorkDate   time.Time

	CheckIn  time.Time
	CheckOut *time.Time

	TotalHours    float64
	OvertimeHours float64

	ProjectID *string
	TaskType  *string
	Remarks   *string

	DayStatus      DayStatus
	ApprovalStatus ApprovalStatus
	ApprovedBy     *string
	ApprovedAt     *time.Time
	RejectionReason *string

	OvertimeStatus          OvertimeStatus
	OvertimeJustification   *string
	OvertimeApprovedBy      *string
	OvertimeApprovedAt      *time.Time
	OvertimeRejectionReason *string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships (for responses)
	EmployeeName *string
}

// TimeFieldsLocked reports whether check_in/check_out/work_date (and the
// hours derived from them) may no longer change.
func (e Entry) TimeFieldsLocked() bool {
	return e.ApprovalStatus == ApprovalStatusApproved
}

// OvertimeFieldsLocked reports whether overtime hours and justification may no
// longer change.
func (e Entry) OvertimeFieldsLocked() bool {
	return e.OvertimeStatus == OvertimeStatusApproved
}

func IsValidDayStatus(s string) bool {
	switch DayStatus(s) {
	case DayStatusPresent, DayStatusAbsent, DayStatusHalfDay:
		return true
	}
	return false
}
