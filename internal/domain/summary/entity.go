package summary

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Status is the summary's position in the dual-signature pipeline.
type Status string

const (
	StatusDraft         Status = "draft"
	StatusSignedByStaff Status = "signed_by_staff"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
)

// ProjectStat is one row of the per-project breakdown.
type ProjectStat struct {
	ProjectID     string  `json:"project_id"`
	DaysWorked    int     `json:"days_worked"`
	TotalHours    float64 `json:"total_hours"`
	OvertimeHours float64 `json:"ot_hours"`
}

// ProjectBreakdown is stored as JSONB.
type ProjectBreakdown []ProjectStat

// Value implements driver.Valuer for database storage
func (pb ProjectBreakdown) Value() (driver.Value, error) {
	if pb == nil {
		return json.Marshal(ProjectBreakdown{})
	}
	return json.Marshal(pb)
}

// Scan implements sql.Scanner for database retrieval
func (pb *ProjectBreakdown) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan ProjectBreakdown: invalid type")
	}

	return json.Unmarshal(bytes, pb)
}

// Summary aggregates one employee's month of approved timesheet entries and
// approved leave into a two-party-signed document. Metric fields are written
// once at generation and only recomputed through an explicit regeneration;
// everything locks once the status reaches approved.
type Summary struct {
	ID         string
	EmployeeID string
	Month      int
	Year       int

	TotalWorkingDays   int
	TotalWorkedHours   float64
	TotalOvertimeHours float64
	ApprovedLeaveDays  int
	AbsentDays         int
	Breakdown          ProjectBreakdown

	Status Status

	StaffSignatureRef *string
	StaffSignedAt     *time.Time
	StaffSignedBy     *string

	AdminSignatureRef *string
	AdminApprovedAt   *time.Time
	AdminApprovedBy   *string
	AdminRemarks      *string

	Subtotal      *float64
	TaxPercentage *float64
	TaxAmount     *float64
	TotalAmount   *float64
	InvoiceNumber *string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships (for responses)
	EmployeeName *string
}

// Locked reports whether any field may still change.
func (s Summary) Locked() bool {
	return s.Status == StatusApproved
}
