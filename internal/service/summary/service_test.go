package summary

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worklane/timeledger-backend-go/internal/domain/leave"
	"github.com/worklane/timeledger-backend-go/internal/domain/summary"
	"github.com/worklane/timeledger-backend-go/internal/domain/timesheet"
)

type fakeTxManager struct{}

func (fakeTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeSummaryRepo struct {
	summaries   map[string]summary.Summary
	nextID      int
	invoiceSeqs map[string]int
}

func newFakeSummaryRepo() *fakeSummaryRepo {
	return &fakeSummaryRepo{
		summaries:   make(map[string]summary.Summary),
		invoiceSeqs: make(map[string]int),
	}
}

func (r *fakeSummaryRepo) Create(ctx context.Context, s summary.Summary) (summary.Summary, error) {
	for _, existing := range r.summaries {
		if existing.EmployeeID == s.EmployeeID && existing.Month == s.Month && existing.Year == s.Year &&
			existing.Status != summary.StatusRejected {
			return summary.Summary{}, summary.ErrSummaryExists
		}
	}
	r.nextID++
	s.ID = fmt.Sprintf("sum-%d", r.nextID)
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	r.summaries[s.ID] = s
	return s, nil
}

func (r *fakeSummaryRepo) GetByID(ctx context.Context, id string) (summary.Summary, error) {
	s, ok := r.summaries[id]
	if !ok {
		return summary.Summary{}, summary.ErrSummaryNotFound
	}
	return s, nil
}

func (r *fakeSummaryRepo) GetByIDForUpdate(ctx context.Context, id string) (summary.Summary, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeSummaryRepo) GetByEmployeeMonth(ctx context.Context, employeeID string, month, year int) (summary.Summary, error) {
	for _, s := range r.summaries {
		if s.EmployeeID == employeeID && s.Month == month && s.Year == year {
			return s, nil
		}
	}
	return summary.Summary{}, summary.ErrSummaryNotFound
}

func (r *fakeSummaryRepo) List(ctx context.Context, filter summary.SummaryFilter) ([]summary.Summary, int64, error) {
	var out []summary.Summary
	for _, s := range r.summaries {
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

func (r *fakeSummaryRepo) Update(ctx context.Context, update summary.UpdateSummary) error {
	s, ok := r.summaries[update.ID]
	if !ok {
		return summary.ErrSummaryNotFound
	}
	if update.TotalWorkingDays != nil {
		s.TotalWorkingDays = *update.TotalWorkingDays
	}
	if update.TotalWorkedHours != nil {
		s.TotalWorkedHours = *update.TotalWorkedHours
	}
	if update.TotalOvertimeHours != nil {
		s.TotalOvertimeHours = *update.TotalOvertimeHours
	}
	if update.ApprovedLeaveDays != nil {
		s.ApprovedLeaveDays = *update.ApprovedLeaveDays
	}
	if update.AbsentDays != nil {
		s.AbsentDays = *update.AbsentDays
	}
	if update.Breakdown != nil {
		s.Breakdown = *update.Breakdown
	}
	if update.Status != nil {
		s.Status = *update.Status
	}
	if update.StaffSignatureRef != nil {
		s.StaffSignatureRef = update.StaffSignatureRef
	}
	if update.StaffSignedAt != nil {
		s.StaffSignedAt = update.StaffSignedAt
	}
	if update.StaffSignedBy != nil {
		s.StaffSignedBy = update.StaffSignedBy
	}
	if update.ClearStaffSig {
		s.StaffSignatureRef = nil
		s.StaffSignedAt = nil
		s.StaffSignedBy = nil
	}
	if update.AdminSignatureRef != nil {
		s.AdminSignatureRef = update.AdminSignatureRef
	}
	if update.AdminApprovedAt != nil {
		s.AdminApprovedAt = update.AdminApprovedAt
	}
	if update.AdminApprovedBy != nil {
		s.AdminApprovedBy = update.AdminApprovedBy
	}
	if update.AdminRemarks != nil {
		s.AdminRemarks = update.AdminRemarks
	}
	if update.ClearAdminSig {
		s.AdminSignatureRef = nil
		s.AdminApprovedAt = nil
		s.AdminApprovedBy = nil
		s.AdminRemarks = nil
	}
	if update.Subtotal != nil {
		s.Subtotal = update.Subtotal
	}
	if update.TaxPercentage != nil {
		s.TaxPercentage = update.TaxPercentage
	}
	if update.TaxAmount != nil {
		s.TaxAmount = update.TaxAmount
	}
	if update.TotalAmount != nil {
		s.TotalAmount = update.TotalAmount
	}
	if update.InvoiceNumber != nil {
		s.InvoiceNumber = update.InvoiceNumber
	}
	s.UpdatedAt = time.Now()
	r.summaries[update.ID] = s
	return nil
}

func (r *fakeSummaryRepo) NextInvoiceSequence(ctx context.Context, month, year int) (int, error) {
	key := fmt.Sprintf("%d-%d", month, year)
	r.invoiceSeqs[key]++
	return r.invoiceSeqs[key], nil
}

func (r *fakeSummaryRepo) ExistsNonRejected(ctx context.Context, employeeID string, month, year int) (bool, error) {
	for _, s := range r.summaries {
		if s.EmployeeID == employeeID && s.Month == month && s.Year == year &&
			s.Status != summary.StatusRejected {
			return true, nil
		}
	}
	return false, nil
}

type fakeEntryRepo struct {
	entries []timesheet.Entry
}

func (r *fakeEntryRepo) Create(ctx context.Context, e timesheet.Entry) (timesheet.Entry, error) {
	r.entries = append(r.entries, e)
	return e, nil
}
func (r *fakeEntryRepo) GetByID(ctx context.Context, id string) (timesheet.Entry, error) {
	return timesheet.Entry{}, timesheet.ErrEntryNotFound
}
func (r *fakeEntryRepo) GetByIDForUpdate(ctx context.Context, id string) (timesheet.Entry, error) {
	return timesheet.Entry{}, timesheet.ErrEntryNotFound
}
func (r *fakeEntryRepo) List(ctx context.Context, filter timesheet.EntryFilter) ([]timesheet.Entry, int64, error) {
	return nil, 0, nil
}
func (r *fakeEntryRepo) ListApprovedByEmployeeMonth(ctx context.Context, employeeID string, month, year int) ([]timesheet.Entry, error) {
	var out []timesheet.Entry
	for _, e := range r.entries {
		if e.EmployeeID == employeeID && e.ApprovalStatus == timesheet.ApprovalStatusApproved &&
			int(e.WorkDate.Month()) == month && e.WorkDate.Year() == year {
			out = append(out, e)
		}
	}
	return out, nil
}
func (r *fakeEntryRepo) Update(ctx context.Context, update timesheet.UpdateEntry) error { return nil }
func (r *fakeEntryRepo) Delete(ctx context.Context, id string) error                    { return nil }
func (r *fakeEntryRepo) CheckOverlapping(ctx context.Context, employeeID, excludeID string, checkIn time.Time, checkOut *time.Time) (bool, error) {
	return false, nil
}
func (r *fakeEntryRepo) ExistsActiveInRange(ctx context.Context, employeeID string, from, to time.Time) (bool, error) {
	return false, nil
}
func (r *fakeEntryRepo) AcquireEmployeeLock(ctx context.Context, employeeID string) error {
	return nil
}

type fakeLeaveRepo struct {
	requests []leave.Request
}

func (r *fakeLeaveRepo) Create(ctx context.Context, req leave.Request) (leave.Request, error) {
	r.requests = append(r.requests, req)
	return req, nil
}
func (r *fakeLeaveRepo) GetByID(ctx context.Context, id string) (leave.Request, error) {
	return leave.Request{}, leave.ErrLeaveRequestNotFound
}
func (r *fakeLeaveRepo) GetByIDForUpdate(ctx context.Context, id string) (leave.Request, error) {
	return leave.Request{}, leave.ErrLeaveRequestNotFound
}
func (r *fakeLeaveRepo) List(ctx context.Context, filter leave.RequestFilter) ([]leave.Request, int64, error) {
	return nil, 0, nil
}
func (r *fakeLeaveRepo) Update(ctx context.Context, update leave.UpdateRequest) error { return nil }
func (r *fakeLeaveRepo) ListApprovedOverlapping(ctx context.Context, employeeID string, from, to time.Time) ([]leave.Request, error) {
	var out []leave.Request
	for _, req := range r.requests {
		if req.EmployeeID == employeeID && req.Status == leave.RequestStatusApproved &&
			!req.StartDate.After(to) && !req.EndDate.Before(from) {
			out = append(out, req)
		}
	}
	return out, nil
}

func newTestService() (*Service, *fakeEntryRepo, *fakeLeaveRepo, *fakeSummaryRepo) {
	summaryRepo := newFakeSummaryRepo()
	entryRepo := &fakeEntryRepo{}
	leaveRepo := &fakeLeaveRepo{}
	return NewSummaryService(fakeTxManager{}, summaryRepo, entryRepo, leaveRepo), entryRepo, leaveRepo, summaryRepo
}

func strPtr(s string) *string { return &s }

func approvedEntry(employeeID string, day time.Time, hours, overtime float64, projectID string, otApproved bool) timesheet.Entry {
	e := timesheet.Entry{
		EmployeeID:     employeeID,
		WorkDate:       day,
		CheckIn:        day.Add(9 * time.Hour),
		TotalHours:     hours,
		OvertimeHours:  overtime,
		ApprovalStatus: timesheet.ApprovalStatusApproved,
		DayStatus:      timesheet.DayStatusPresent,
	}
	if projectID != "" {
		e.ProjectID = strPtr(projectID)
	}
	if overtime > 0 {
		if otApproved {
			e.OvertimeStatus = timesheet.OvertimeStatusApproved
		} else {
			e.OvertimeStatus = timesheet.OvertimeStatusPending
		}
	}
	return e
}

func day(year, month, d int) time.Time {
	return time.Date(year, time.Month(month), d, 0, 0, 0, 0, time.UTC)
}

func TestComputeMetrics(t *testing.T) {
	// June 2025 has 21 working days.
	entries := []timesheet.Entry{
		approvedEntry("emp-1", day(2025, 6, 2), 8, 0, "proj-a", false),
		approvedEntry("emp-1", day(2025, 6, 3), 10, 2, "proj-a", true),
		approvedEntry("emp-1", day(2025, 6, 4), 11, 3, "proj-b", false), // pending review, excluded
		approvedEntry("emp-1", day(2025, 6, 5), 8, 0, "", false),
	}
	leaves := []leave.Request{
		{EmployeeID: "emp-1", Status: leave.RequestStatusApproved,
			StartDate: day(2025, 6, 9), EndDate: day(2025, 6, 13), NumberOfDays: 5},
	}

	m := ComputeMetrics(6, 2025, entries, leaves)

	assert.Equal(t, 4, m.TotalWorkingDays)
	assert.Equal(t, 37.0, m.TotalWorkedHours)
	assert.Equal(t, 2.0, m.TotalOvertimeHours, "only reviewed overtime counts")
	assert.Equal(t, 5, m.ApprovedLeaveDays)
	assert.Equal(t, 12, m.AbsentDays)

	require.Len(t, m.Breakdown, 3)
	assert.Equal(t, "", m.Breakdown[0].ProjectID)
	assert.Equal(t, "proj-a", m.Breakdown[1].ProjectID)
	assert.Equal(t, 2, m.Breakdown[1].DaysWorked)
	assert.Equal(t, 18.0, m.Breakdown[1].TotalHours)
	assert.Equal(t, 2.0, m.Breakdown[1].OvertimeHours)
	assert.Equal(t, "proj-b", m.Breakdown[2].ProjectID)
	assert.Equal(t, 0.0, m.Breakdown[2].OvertimeHours)
}

func TestComputeMetricsClipsLeaveToMonth(t *testing.T) {
	// Leave runs Fri 2025-05-30 through Tue 2025-06-03; only Mon 2 and Tue 3
	// fall inside June.
	leaves := []leave.Request{
		{EmployeeID: "emp-1", Status: leave.RequestStatusApproved,
			StartDate: day(2025, 5, 30), EndDate: day(2025, 6, 3), NumberOfDays: 3},
	}

	m := ComputeMetrics(6, 2025, nil, leaves)
	assert.Equal(t, 2, m.ApprovedLeaveDays)
}

func TestGenerateSummary(t *testing.T) {
	svc, entryRepo, _, _ := newTestService()
	entryRepo.entries = []timesheet.Entry{
		approvedEntry("emp-1", day(2025, 6, 2), 8, 0, "proj-a", false),
	}

	s, err := svc.Generate(context.Background(), summary.GenerateRequest{
		EmployeeID: "emp-1", Month: 6, Year: 2025,
	})
	require.NoError(t, err)
	assert.Equal(t, summary.StatusDraft, s.Status)
	assert.Equal(t, 1, s.TotalWorkingDays)
	assert.Equal(t, 8.0, s.TotalWorkedHours)

	// Second generation for the same identity conflicts.
	_, err = svc.Generate(context.Background(), summary.GenerateRequest{
		EmployeeID: "emp-1", Month: 6, Year: 2025,
	})
	assert.ErrorIs(t, err, summary.ErrSummaryExists)
}

func TestSignatureLifecycle(t *testing.T) {
	svc, _, _, _ := newTestService()
	s, err := svc.Generate(context.Background(), summary.GenerateRequest{
		EmployeeID: "emp-1", Month: 6, Year: 2025,
	})
	require.NoError(t, err)

	// Admin cannot approve before the staff signature.
	_, err = svc.Approve(context.Background(), s.ID, "admin-1", summary.DecisionRequest{SignatureRef: "sig-admin"})
	assert.ErrorIs(t, err, summary.ErrInvalidTransition)

	signed, err := svc.SignByStaff(context.Background(), s.ID, "emp-1", summary.SignRequest{SignatureRef: "sig-staff"})
	require.NoError(t, err)
	assert.Equal(t, summary.StatusSignedByStaff, signed.Status)

	// Approval without a signature ref is refused.
	_, err = svc.Approve(context.Background(), s.ID, "admin-1", summary.DecisionRequest{})
	assert.ErrorIs(t, err, summary.ErrSignatureRequired)

	approved, err := svc.Approve(context.Background(), s.ID, "admin-1", summary.DecisionRequest{SignatureRef: "sig-admin"})
	require.NoError(t, err)
	assert.Equal(t, summary.StatusApproved, approved.Status)
	require.NotNil(t, approved.AdminSignatureRef)

	// Idempotent on repeat.
	again, err := svc.Approve(context.Background(), s.ID, "admin-2", summary.DecisionRequest{SignatureRef: "sig-other"})
	require.NoError(t, err)
	assert.Equal(t, "admin-1", *again.AdminApprovedBy)
}

func TestRejectAndRegenerate(t *testing.T) {
	svc, entryRepo, _, _ := newTestService()
	s, err := svc.Generate(context.Background(), summary.GenerateRequest{
		EmployeeID: "emp-1", Month: 6, Year: 2025,
	})
	require.NoError(t, err)

	_, err = svc.SignByStaff(context.Background(), s.ID, "emp-1", summary.SignRequest{SignatureRef: "sig-staff"})
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), s.ID, "admin-1", "")
	assert.ErrorIs(t, err, summary.ErrRemarksRequired)

	rejected, err := svc.Reject(context.Background(), s.ID, "admin-1", "missing entries")
	require.NoError(t, err)
	assert.Equal(t, summary.StatusRejected, rejected.Status)

	// A rejected summary is a dead document: no financials until it is
	// brought back to draft.
	_, err = svc.SetFinancials(context.Background(), s.ID, summary.FinancialsRequest{
		Subtotal: 5000, TaxPercentage: 11,
	})
	assert.ErrorIs(t, err, summary.ErrInvalidTransition)

	// Fix the underlying data, then regenerate: back to draft with fresh
	// metrics and no signatures.
	entryRepo.entries = []timesheet.Entry{
		approvedEntry("emp-1", day(2025, 6, 2), 8, 0, "proj-a", false),
	}

	regenerated, err := svc.Regenerate(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, summary.StatusDraft, regenerated.Status)
	assert.Equal(t, 1, regenerated.TotalWorkingDays)
	assert.Nil(t, regenerated.StaffSignatureRef)
	assert.Nil(t, regenerated.AdminSignatureRef)
	assert.Nil(t, regenerated.AdminRemarks)

	// Metrics are written once at generation; a draft cannot regenerate.
	_, err = svc.Regenerate(context.Background(), s.ID)
	assert.ErrorIs(t, err, summary.ErrInvalidTransition)
}

func TestSetFinancials(t *testing.T) {
	svc, _, _, _ := newTestService()
	s, err := svc.Generate(context.Background(), summary.GenerateRequest{
		EmployeeID: "emp-1", Month: 6, Year: 2025,
	})
	require.NoError(t, err)

	withFinancials, err := svc.SetFinancials(context.Background(), s.ID, summary.FinancialsRequest{
		Subtotal: 5000, TaxPercentage: 11,
	})
	require.NoError(t, err)
	require.NotNil(t, withFinancials.TaxAmount)
	assert.Equal(t, 550.0, *withFinancials.TaxAmount)
	assert.Equal(t, 5550.0, *withFinancials.TotalAmount)
	require.NotNil(t, withFinancials.InvoiceNumber)
	assert.Equal(t, "INV-2025-06-0001", *withFinancials.InvoiceNumber)

	// Updating the amounts keeps the invoice number.
	updated, err := svc.SetFinancials(context.Background(), s.ID, summary.FinancialsRequest{
		Subtotal: 6000, TaxPercentage: 11,
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-06-0001", *updated.InvoiceNumber)
	assert.Equal(t, 660.0, *updated.TaxAmount)

	// A second summary in the same month takes the next sequence.
	other, err := svc.Generate(context.Background(), summary.GenerateRequest{
		EmployeeID: "emp-2", Month: 6, Year: 2025,
	})
	require.NoError(t, err)
	otherFin, err := svc.SetFinancials(context.Background(), other.ID, summary.FinancialsRequest{
		Subtotal: 4000, TaxPercentage: 11,
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-06-0002", *otherFin.InvoiceNumber)
}

func TestSetFinancialsLockedAfterApproval(t *testing.T) {
	svc, _, _, _ := newTestService()
	s, err := svc.Generate(context.Background(), summary.GenerateRequest{
		EmployeeID: "emp-1", Month: 6, Year: 2025,
	})
	require.NoError(t, err)

	_, err = svc.SignByStaff(context.Background(), s.ID, "emp-1", summary.SignRequest{SignatureRef: "sig-staff"})
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), s.ID, "admin-1", summary.DecisionRequest{SignatureRef: "sig-admin"})
	require.NoError(t, err)

	_, err = svc.SetFinancials(context.Background(), s.ID, summary.FinancialsRequest{
		Subtotal: 5000, TaxPercentage: 11,
	})
	assert.ErrorIs(t, err, summary.ErrSummaryLocked)
}
