package summary

import (
	"time"

	"github.com/worklane/timeledger-backend-go/internal/pkg/validator"
)

type GenerateRequest struct {
	EmployeeID string `json:"employee_id"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
}

func (r *GenerateRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if r.Month < 1 || r.Month > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}
	if r.Year < 2000 || r.Year > 2200 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year is out of range",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type SignRequest struct {
	SignatureRef string `json:"signature_ref"`
}

type DecisionRequest struct {
	SignatureRef string  `json:"signature_ref"`
	Remarks      *string `json:"remarks,omitempty"`
}

type FinancialsRequest struct {
	Subtotal      float64 `json:"subtotal"`
	TaxPercentage float64 `json:"tax_percentage"`
}

func (r *FinancialsRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Subtotal < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "subtotal",
			Message: "subtotal must not be negative",
		})
	}
	if r.TaxPercentage < 0 || r.TaxPercentage > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "tax_percentage",
			Message: "tax_percentage must be between 0 and 100",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// UpdateSummary is the partial-update payload handed to the repository.
// Clear* fields force the corresponding column to NULL; regeneration uses
// them to wipe the rejected attempt's signatures.
type UpdateSummary struct {
	ID string

	TotalWorkingDays   *int
	TotalWorkedHours   *float64
	TotalOvertimeHours *float64
	ApprovedLeaveDays  *int
	AbsentDays         *int
	Breakdown          *ProjectBreakdown

	Status *Status

	StaffSignatureRef *string
	StaffSignedAt     *time.Time
	StaffSignedBy     *string
	ClearStaffSig     bool

	AdminSignatureRef *string
	AdminApprovedAt   *time.Time
	AdminApprovedBy   *string
	AdminRemarks      *string
	ClearAdminSig     bool

	Subtotal      *float64
	TaxPercentage *float64
	TaxAmount     *float64
	TotalAmount   *float64
	InvoiceNumber *string
}

type SummaryResponse struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`

	TotalWorkingDays   int              `json:"total_working_days"`
	TotalWorkedHours   float64          `json:"total_worked_hours"`
	TotalOvertimeHours float64          `json:"total_ot_hours"`
	ApprovedLeaveDays  int              `json:"approved_leave_days"`
	AbsentDays         int              `json:"absent_days"`
	Breakdown          ProjectBreakdown `json:"breakdown"`

	Status string `json:"status"`

	StaffSignatureRef *string    `json:"staff_signature_ref,omitempty"`
	StaffSignedAt     *time.Time `json:"staff_signed_at,omitempty"`
	StaffSignedBy     *string    `json:"staff_signed_by,omitempty"`

	AdminSignatureRef *string    `json:"admin_signature_ref,omitempty"`
	AdminApprovedAt   *time.Time `json:"admin_approved_at,omitempty"`
	AdminApprovedBy   *string    `json:"admin_approved_by,omitempty"`
	AdminRemarks      *string    `json:"admin_remarks,omitempty"`

	Subtotal      *float64 `json:"subtotal,omitempty"`
	TaxPercentage *float64 `json:"tax_percentage,omitempty"`
	TaxAmount     *float64 `json:"tax_amount,omitempty"`
	TotalAmount   *float64 `json:"total_amount,omitempty"`
	InvoiceNumber *string  `json:"invoice_number,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EmployeeName *string `json:"employee_name,omitempty"`
}

func NewSummaryResponse(s Summary) SummaryResponse {
	return SummaryResponse{
		ID:                 s.ID,
		EmployeeID:         s.EmployeeID,
		Month:              s.Month,
		Year:               s.Year,
		TotalWorkingDays:   s.TotalWorkingDays,
		TotalWorkedHours:   s.TotalWorkedHours,
		TotalOvertimeHours: s.TotalOvertimeHours,
		ApprovedLeaveDays:  s.ApprovedLeaveDays,
		AbsentDays:         s.AbsentDays,
		Breakdown:          s.Breakdown,
		Status:             string(s.Status),
		StaffSignatureRef:  s.StaffSignatureRef,
		StaffSignedAt:      s.StaffSignedAt,
		StaffSignedBy:      s.StaffSignedBy,
		AdminSignatureRef:  s.AdminSignatureRef,
		AdminApprovedAt:    s.AdminApprovedAt,
		AdminApprovedBy:    s.AdminApprovedBy,
		AdminRemarks:       s.AdminRemarks,
		Subtotal:           s.Subtotal,
		TaxPercentage:      s.TaxPercentage,
		TaxAmount:          s.TaxAmount,
		TotalAmount:        s.TotalAmount,
		InvoiceNumber:      s.InvoiceNumber,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
		EmployeeName:       s.EmployeeName,
	}
}

func NewSummaryResponses(summaries []Summary) []SummaryResponse {
	out := make([]SummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, NewSummaryResponse(s))
	}
	return out
}

// SummaryFilter narrows summary listings.
type SummaryFilter struct {
	EmployeeID *string
	Month      *int
	Year       *int
	Status     *string
	Page       int
	Limit      int
}
