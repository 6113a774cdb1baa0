package leave

import (
	"time"

	"github.com/worklane/timeledger-backend-go/internal/pkg/validator"
)

type CreateRequestRequest struct {
	EmployeeID        string  `json:"employee_id"`
	LeaveTypeID       string  `json:"leave_type_id"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	Reason            *string `json:"reason,omitempty"`
	ProjectID         *string `json:"project_id,omitempty"`
	MCDocumentURL     *string `json:"mc_document_url,omitempty"`
	StandInEmployeeID *string `json:"stand_in_employee_id,omitempty"`
}

func (r *CreateRequestRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if validator.IsEmpty(r.LeaveTypeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type_id",
			Message: "leave_type_id is required",
		})
	} else if !validator.IsValidUUID(r.LeaveTypeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type_id",
			Message: "leave_type_id must be a valid UUID",
		})
	}

	var start, end time.Time
	var startOK, endOK bool
	if validator.IsEmpty(r.StartDate) {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date is required",
		})
	} else if start, startOK = validator.IsValidDate(r.StartDate); !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}
	if validator.IsEmpty(r.EndDate) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date is required",
		})
	} else if end, endOK = validator.IsValidDate(r.EndDate); !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}

	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type AllocateBalanceRequest struct {
	EmployeeID  string `json:"employee_id"`
	LeaveTypeID string `json:"leave_type_id"`
	Year        int    `json:"year"`
	TotalDays   int    `json:"total_days"`
}

func (r *AllocateBalanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if validator.IsEmpty(r.LeaveTypeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type_id",
			Message: "leave_type_id is required",
		})
	} else if !validator.IsValidUUID(r.LeaveTypeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type_id",
			Message: "leave_type_id must be a valid UUID",
		})
	}
	if r.Year < 2000 || r.Year > 2200 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year is out of range",
		})
	}
	if r.TotalDays < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "total_days",
			Message: "total_days must not be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// UpdateRequest is the partial-update payload for leave requests. Only status
// and decision fields ever change after creation.
type UpdateRequest struct {
	ID              string
	Status          *RequestStatus
	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectionReason *string
	CancelledAt     *time.Time
}

type TypeResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Code              string `json:"code"`
	RequiresApproval  bool   `json:"requires_approval"`
	MaxDaysPerYear    *int   `json:"max_days_per_year,omitempty"`
	AutoResetAnnually bool   `json:"auto_reset_annually"`
}

func NewTypeResponse(t LeaveType) TypeResponse {
	return TypeResponse{
		ID:                t.ID,
		Name:              t.Name,
		Code:              t.Code,
		RequiresApproval:  t.RequiresApproval,
		MaxDaysPerYear:    t.MaxDaysPerYear,
		AutoResetAnnually: t.AutoResetAnnually,
	}
}

type BalanceResponse struct {
	ID            string  `json:"id"`
	EmployeeID    string  `json:"employee_id"`
	LeaveTypeID   string  `json:"leave_type_id"`
	LeaveTypeName *string `json:"leave_type_name,omitempty"`
	LeaveTypeCode *string `json:"leave_type_code,omitempty"`
	Year          int     `json:"year"`
	TotalDays     int     `json:"total_days"`
	UsedDays      int     `json:"used_days"`
	RemainingDays int     `json:"remaining_days"`
}

func NewBalanceResponse(b Balance) BalanceResponse {
	return BalanceResponse{
		ID:            b.ID,
		EmployeeID:    b.EmployeeID,
		LeaveTypeID:   b.LeaveTypeID,
		LeaveTypeName: b.LeaveTypeName,
		LeaveTypeCode: b.LeaveTypeCode,
		Year:          b.Year,
		TotalDays:     b.TotalDays,
		UsedDays:      b.UsedDays,
		RemainingDays: b.RemainingDays(),
	}
}

type RequestResponse struct {
	ID          string `json:"id"`
	EmployeeID  string `json:"employee_id"`
	LeaveTypeID string `json:"leave_type_id"`

	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	NumberOfDays int    `json:"number_of_days"`

	Reason            *string `json:"reason,omitempty"`
	ProjectID         *string `json:"project_id,omitempty"`
	MCDocumentURL     *string `json:"mc_document_url,omitempty"`
	StandInEmployeeID *string `json:"stand_in_employee_id,omitempty"`

	Status          string     `json:"status"`
	ApprovedBy      *string    `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LeaveTypeName *string `json:"leave_type_name,omitempty"`
	LeaveTypeCode *string `json:"leave_type_code,omitempty"`
	EmployeeName  *string `json:"employee_name,omitempty"`
}

func NewRequestResponse(r Request) RequestResponse {
	return RequestResponse{
		ID:                r.ID,
		EmployeeID:        r.EmployeeID,
		LeaveTypeID:       r.LeaveTypeID,
		StartDate:         r.StartDate.Format("2006-01-02"),
		EndDate:           r.EndDate.Format("2006-01-02"),
		NumberOfDays:      r.NumberOfDays,
		Reason:            r.Reason,
		ProjectID:         r.ProjectID,
		MCDocumentURL:     r.MCDocumentURL,
		StandInEmployeeID: r.StandInEmployeeID,
		Status:            string(r.Status),
		ApprovedBy:        r.ApprovedBy,
		ApprovedAt:        r.ApprovedAt,
		RejectionReason:   r.RejectionReason,
		CancelledAt:       r.CancelledAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		LeaveTypeName:     r.LeaveTypeName,
		LeaveTypeCode:     r.LeaveTypeCode,
		EmployeeName:      r.EmployeeName,
	}
}

func NewRequestResponses(requests []Request) []RequestResponse {
	out := make([]RequestResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, NewRequestResponse(r))
	}
	return out
}

// RequestFilter narrows request listings.
type RequestFilter struct {
	EmployeeID  *string
	LeaveTypeID *string
	Status      *string
	StartDate   *time.Time
	EndDate     *time.Time
	Page        int
	Limit       int
}
