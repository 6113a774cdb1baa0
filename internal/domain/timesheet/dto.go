package timesheet

import (
	"time"

	"github.com/worklane/timeledger-backend-go/internal/pkg/validator"
)

type CreateEntryRequest struct {
	EmployeeID string  `json:"employee_id"`
	WorkDate   string  `json:"work_date"`
	CheckIn    string  `json:"check_in"`
	CheckOut   *string `json:"check_out,omitempty"`
	ProjectID  *string `json:"project_id,omitempty"`
	TaskType   *string `json:"task_type,omitempty"`
	DayStatus  string  `json:"status"`
	Remarks    *string `json:"remarks,omitempty"`
}

func (r *CreateEntryRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if validator.IsEmpty(r.WorkDate) {
		errs = append(errs, validator.ValidationError{
			Field:   "work_date",
			Message: "work_date is required",
		})
	} else if _, ok := validator.IsValidDate(r.WorkDate); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "work_date",
			Message: "work_date must be in YYYY-MM-DD format",
		})
	}

	if validator.IsEmpty(r.CheckIn) {
		errs = append(errs, validator.ValidationError{
			Field:   "check_in",
			Message: "check_in is required",
		})
	} else if _, ok := validator.IsValidDateTime(r.CheckIn); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "check_in",
			Message: "check_in must be an ISO8601 timestamp",
		})
	}

	if r.CheckOut != nil {
		if _, ok := validator.IsValidDateTime(*r.CheckOut); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "check_out",
				Message: "check_out must be an ISO8601 timestamp",
			})
		}
	}

	if r.DayStatus == "" {
		r.DayStatus = string(DayStatusPresent)
	} else if !IsValidDayStatus(r.DayStatus) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: present, absent, half_day",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type UpdateEntryRequest struct {
	ID                    string  `json:"-"`
	WorkDate              *string `json:"work_date,omitempty"`
	CheckIn               *string `json:"check_in,omitempty"`
	CheckOut              *string `json:"check_out,omitempty"`
	ProjectID             *string `json:"project_id,omitempty"`
	TaskType              *string `json:"task_type,omitempty"`
	DayStatus             *string `json:"status,omitempty"`
	Remarks               *string `json:"remarks,omitempty"`
	OvertimeJustification *string `json:"ot_justification,omitempty"`
}

func (r *UpdateEntryRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}

	if r.WorkDate != nil {
		if _, ok := validator.IsValidDate(*r.WorkDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "work_date",
				Message: "work_date must be in YYYY-MM-DD format",
			})
		}
	}

	if r.CheckIn != nil {
		if _, ok := validator.IsValidDateTime(*r.CheckIn); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "check_in",
				Message: "check_in must be an ISO8601 timestamp",
			})
		}
	}

	if r.CheckOut != nil {
		if _, ok := validator.IsValidDateTime(*r.CheckOut); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "check_out",
				Message: "check_out must be an ISO8601 timestamp",
			})
		}
	}

	if r.DayStatus != nil && !IsValidDayStatus(*r.DayStatus) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: present, absent, half_day",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// UpdateEntry is the partial-update payload handed to the repository. Nil
// fields are left untouched.
type UpdateEntry struct {
	ID string

	WorkDate      *time.Time
	CheckIn       *time.Time
	CheckOut      *time.Time
	ClearCheckOut bool
	TotalHours    *float64
	OvertimeHours *float64

	ProjectID *string
	TaskType  *string
	Remarks   *string
	DayStatus *DayStatus

	ApprovalStatus  *ApprovalStatus
	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectionReason *string

	OvertimeStatus          *OvertimeStatus
	OvertimeJustification   *string
	OvertimeApprovedBy      *string
	OvertimeApprovedAt      *time.Time
	OvertimeRejectionReason *string
}

type EntryResponse struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	WorkDate   string `json:"work_date"`

	CheckIn  time.Time  `json:"check_in"`
	CheckOut *time.Time `json:"check_out,omitempty"`

	TotalHours    float64 `json:"total_hours"`
	OvertimeHours float64 `json:"ot_hours"`

	ProjectID *string `json:"project_id,omitempty"`
	TaskType  *string `json:"task_type,omitempty"`
	Remarks   *string `json:"remarks,omitempty"`

	DayStatus       string     `json:"status"`
	ApprovalStatus  string     `json:"approval_status"`
	ApprovedBy      *string    `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`

	OvertimeStatus          string     `json:"ot_approval_status,omitempty"`
	OvertimeJustification   *string    `json:"ot_justification,omitempty"`
	OvertimeApprovedBy      *string    `json:"ot_approved_by,omitempty"`
	OvertimeApprovedAt      *time.Time `json:"ot_approved_at,omitempty"`
	OvertimeRejectionReason *string    `json:"ot_rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EmployeeName *string `json:"employee_name,omitempty"`
}

func NewEntryResponse(e Entry) EntryResponse {
	return EntryResponse{
		ID:                      e.ID,
		EmployeeID:              e.EmployeeID,
		WorkDate:                e.WorkDate.Format("2006-01-02"),
		CheckIn:                 e.CheckIn,
		CheckOut:                e.CheckOut,
		TotalHours:              e.TotalHours,
		OvertimeHours:           e.OvertimeHours,
		ProjectID:               e.ProjectID,
		TaskType:                e.TaskType,
		Remarks:                 e.Remarks,
		DayStatus:               string(e.DayStatus),
		ApprovalStatus:          string(e.ApprovalStatus),
		ApprovedBy:              e.ApprovedBy,
		ApprovedAt:              e.ApprovedAt,
		RejectionReason:         e.RejectionReason,
		OvertimeStatus:          string(e.OvertimeStatus),
		OvertimeJustification:   e.OvertimeJustification,
		OvertimeApprovedBy:      e.OvertimeApprovedBy,
		OvertimeApprovedAt:      e.OvertimeApprovedAt,
		OvertimeRejectionReason: e.OvertimeRejectionReason,
		CreatedAt:               e.CreatedAt,
		UpdatedAt:               e.UpdatedAt,
		EmployeeName:            e.EmployeeName,
	}
}

func NewEntryResponses(entries []Entry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewEntryResponse(e))
	}
	return out
}

// EntryFilter narrows entry listings.
type EntryFilter struct {
	EmployeeID     *string
	ProjectID      *string
	ApprovalStatus *string
	OvertimeStatus *string
	DateFrom       *time.Time
	DateTo         *time.Time
	Page           int
	Limit          int
}
