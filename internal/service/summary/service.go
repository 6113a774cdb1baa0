package summary

import (
	"context"
	"sort"
	"time"

	"github.com/worklane/timeledger-backend-go/internal/domain/leave"
	"github.com/worklane/timeledger-backend-go/internal/domain/summary"
	"github.com/worklane/timeledger-backend-go/internal/domain/timesheet"
	"github.com/worklane/timeledger-backend-go/internal/pkg/database"
	"github.com/worklane/timeledger-backend-go/internal/pkg/validator"
	"github.com/worklane/timeledger-backend-go/internal/pkg/workcal"
)

// Service drives the monthly summary through its dual-signature pipeline:
// generate as draft, staff sign, admin approve or reject, regenerate after a
// rejection. Financials attach between the staff signature and the admin
// decision.
type Service struct {
	db database.TxManager
	summary.Repository
	entryRepo timesheet.EntryRepository
	leaveRepo leave.RequestRepository
}

func NewSummaryService(
	db database.TxManager,
	summaryRepo summary.Repository,
	entryRepo timesheet.EntryRepository,
	leaveRepo leave.RequestRepository,
) *Service {
	return &Service{
		db:         db,
		Repository: summaryRepo,
		entryRepo:  entryRepo,
		leaveRepo:  leaveRepo,
	}
}

// Metrics is the aggregation of one employee-month, computed from approved
// timesheet entries and approved leave only.
type Metrics struct {
	TotalWorkingDays   int
	TotalWorkedHours   float64
	TotalOvertimeHours float64
	ApprovedLeaveDays  int
	AbsentDays         int
	Breakdown          summary.ProjectBreakdown
}

// ComputeMetrics folds a month of approved entries and leave into summary
// metrics. Only overtime that passed its review counts toward the overtime
// total. Leave spanning a month boundary contributes only the days that fall
// inside the month.
func ComputeMetrics(month, year int, entries []timesheet.Entry, leaves []leave.Request) Metrics {
	var m Metrics

	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	workedDays := make(map[string]bool)
	byProject := make(map[string]*summary.ProjectStat)

	for _, e := range entries {
		dayKey := e.WorkDate.UTC().Format("2006-01-02")
		m.TotalWorkedHours += e.TotalHours
		if e.OvertimeStatus == timesheet.OvertimeStatusApproved {
			m.TotalOvertimeHours += e.OvertimeHours
		}

		projectID := ""
		if e.ProjectID != nil {
			projectID = *e.ProjectID
		}
		stat, ok := byProject[projectID]
		if !ok {
			stat = &summary.ProjectStat{ProjectID: projectID}
			byProject[projectID] = stat
		}
		stat.TotalHours += e.TotalHours
		if e.OvertimeStatus == timesheet.OvertimeStatusApproved {
			stat.OvertimeHours += e.OvertimeHours
		}
		if !workedDays[dayKey] {
			workedDays[dayKey] = true
		}
		// Per-project day counts dedupe within the project, not globally: an
		// employee splitting one day across two projects counts a day in each.
		projectDayKey := projectID + "|" + dayKey
		if !workedDays[projectDayKey] {
			workedDays[projectDayKey] = true
			stat.DaysWorked++
		}
	}

	// workedDays holds both plain day keys and project|day keys; count only
	// the plain ones.
	for key := range workedDays {
		if len(key) == len("2006-01-02") {
			m.TotalWorkingDays++
		}
	}

	for _, l := range leaves {
		// Clip the leave range to the month before counting.
		from := l.StartDate
		if from.Before(monthStart) {
			from = monthStart
		}
		to := l.EndDate
		if to.After(monthEnd) {
			to = monthEnd
		}
		m.ApprovedLeaveDays += workcal.CountWorkingDays(from, to)
	}

	m.AbsentDays = workcal.CountWorkingDays(monthStart, monthEnd) - m.TotalWorkingDays - m.ApprovedLeaveDays
	if m.AbsentDays < 0 {
		m.AbsentDays = 0
	}

	m.Breakdown = make(summary.ProjectBreakdown, 0, len(byProject))
	for _, stat := range byProject {
		m.Breakdown = append(m.Breakdown, *stat)
	}
	sort.Slice(m.Breakdown, func(i, j int) bool {
		return m.Breakdown[i].ProjectID < m.Breakdown[j].ProjectID
	})

	return m
}

// Generate creates a draft summary for the employee-month. At most one
// non-rejected summary may exist per identity; a second generation fails with
// ErrSummaryExists.
func (s *Service) Generate(ctx context.Context, req summary.GenerateRequest) (summary.Summary, error) {
	if err := req.Validate(); err != nil {
		return summary.Summary{}, err
	}

	var created summary.Summary
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.Repository.ExistsNonRejected(ctx, req.EmployeeID, req.Month, req.Year)
		if err != nil {
			return err
		}
		if exists {
			return summary.ErrSummaryExists
		}

		m, err := s.aggregate(ctx, req.EmployeeID, req.Month, req.Year)
		if err != nil {
			return err
		}

		created, err = s.Repository.Create(ctx, summary.Summary{
			EmployeeID:         req.EmployeeID,
			Month:              req.Month,
			Year:               req.Year,
			TotalWorkingDays:   m.TotalWorkingDays,
			TotalWorkedHours:   m.TotalWorkedHours,
			TotalOvertimeHours: m.TotalOvertimeHours,
			ApprovedLeaveDays:  m.ApprovedLeaveDays,
			AbsentDays:         m.AbsentDays,
			Breakdown:          m.Breakdown,
			Status:             summary.StatusDraft,
		})
		return err
	})
	if err != nil {
		return summary.Summary{}, err
	}
	return created, nil
}

// Regenerate returns a rejected summary to draft with both signatures wiped
// and its metrics recomputed from current data. Metrics are otherwise written
// once, at generation.
func (s *Service) Regenerate(ctx context.Context, id string) (summary.Summary, error) {
	var result summary.Summary
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.Repository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != summary.StatusRejected {
			return summary.ErrInvalidTransition
		}

		m, err := s.aggregate(ctx, current.EmployeeID, current.Month, current.Year)
		if err != nil {
			return err
		}

		status := summary.StatusDraft
		err = s.Repository.Update(ctx, summary.UpdateSummary{
			ID:                 current.ID,
			TotalWorkingDays:   &m.TotalWorkingDays,
			TotalWorkedHours:   &m.TotalWorkedHours,
			TotalOvertimeHours: &m.TotalOvertimeHours,
			ApprovedLeaveDays:  &m.ApprovedLeaveDays,
			AbsentDays:         &m.AbsentDays,
			Breakdown:          &m.Breakdown,
			Status:             &status,
			ClearStaffSig:      true,
			ClearAdminSig:      true,
		})
		if err != nil {
			return err
		}

		result, err = s.Repository.GetByID(ctx, current.ID)
		return err
	})
	if err != nil {
		return summary.Summary{}, err
	}
	return result, nil
}

// SignByStaff attaches the staff signature and moves draft to signed_by_staff.
func (s *Service) SignByStaff(ctx context.Context, id, staffID string, req summary.SignRequest) (summary.Summary, error) {
	if validator.IsEmpty(req.SignatureRef) {
		return summary.Summary{}, validator.ValidationErrors{{
			Field:   "signature_ref",
			Message: "signature_ref is required",
		}}
	}

	var result summary.Summary
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.Repository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != summary.StatusDraft {
			return summary.ErrInvalidTransition
		}

		status := summary.StatusSignedByStaff
		now := time.Now()
		err = s.Repository.Update(ctx, summary.UpdateSummary{
			ID:                current.ID,
			Status:            &status,
			StaffSignatureRef: &req.SignatureRef,
			StaffSignedAt:     &now,
			StaffSignedBy:     &staffID,
		})
		if err != nil {
			return err
		}

		result, err = s.Repository.GetByID(ctx, current.ID)
		return err
	})
	if err != nil {
		return summary.Summary{}, err
	}
	return result, nil
}

// Approve is the admin countersignature. Valid only from signed_by_staff and
// only with a signature attached; after it, the summary is immutable.
func (s *Service) Approve(ctx context.Context, id, adminID string, req summary.DecisionRequest) (summary.Summary, error) {
	if validator.IsEmpty(req.SignatureRef) {
		return summary.Summary{}, summary.ErrSignatureRequired
	}

	var result summary.Summary
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.Repository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == summary.StatusApproved {
			result = current
			return nil
		}
		if current.Status != summary.StatusSignedByStaff {
			return summary.ErrInvalidTransition
		}

		status := summary.StatusApproved
		now := time.Now()
		err = s.Repository.Update(ctx, summary.UpdateSummary{
			ID:                current.ID,
			Status:            &status,
			AdminSignatureRef: &req.SignatureRef,
			AdminApprovedAt:   &now,
			AdminApprovedBy:   &adminID,
			AdminRemarks:      req.Remarks,
		})
		if err != nil {
			return err
		}

		result, err = s.Repository.GetByID(ctx, current.ID)
		return err
	})
	if err != nil {
		return summary.Summary{}, err
	}
	return result, nil
}

// Reject sends a staff-signed summary back with mandatory remarks. The
// summary stays rejected until someone regenerates it.
func (s *Service) Reject(ctx context.Context, id, adminID string, remarks string) (summary.Summary, error) {
	if validator.IsEmpty(remarks) {
		return summary.Summary{}, summary.ErrRemarksRequired
	}

	var result summary.Summary
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.Repository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != summary.StatusSignedByStaff {
			return summary.ErrInvalidTransition
		}

		status := summary.StatusRejected
		now := time.Now()
		err = s.Repository.Update(ctx, summary.UpdateSummary{
			ID:              current.ID,
			Status:          &status,
			AdminApprovedAt: &now,
			AdminApprovedBy: &adminID,
			AdminRemarks:    &remarks,
		})
		if err != nil {
			return err
		}

		result, err = s.Repository.GetByID(ctx, current.ID)
		return err
	})
	if err != nil {
		return summary.Summary{}, err
	}
	return result, nil
}

// SetFinancials computes tax and total from the subtotal and attaches an
// invoice number. The invoice number is assigned exactly once; later
// financial updates keep it.
func (s *Service) SetFinancials(ctx context.Context, id string, req summary.FinancialsRequest) (summary.Summary, error) {
	if err := req.Validate(); err != nil {
		return summary.Summary{}, err
	}

	var result summary.Summary
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.Repository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Locked() {
			return summary.ErrSummaryLocked
		}
		// A rejected summary is a dead document; regeneration brings it
		// back to draft before financials can change.
		if current.Status == summary.StatusRejected {
			return summary.ErrInvalidTransition
		}

		subtotal := summary.Round2(req.Subtotal)
		taxAmount, totalAmount := summary.ComputeFinancials(subtotal, req.TaxPercentage)

		update := summary.UpdateSummary{
			ID:            current.ID,
			Subtotal:      &subtotal,
			TaxPercentage: &req.TaxPercentage,
			TaxAmount:     &taxAmount,
			TotalAmount:   &totalAmount,
		}

		if current.InvoiceNumber == nil {
			seq, err := s.Repository.NextInvoiceSequence(ctx, current.Month, current.Year)
			if err != nil {
				return err
			}
			invoice := summary.FormatInvoiceNumber(current.Year, current.Month, seq)
			update.InvoiceNumber = &invoice
		}

		if err := s.Repository.Update(ctx, update); err != nil {
			return err
		}

		result, err = s.Repository.GetByID(ctx, current.ID)
		return err
	})
	if err != nil {
		return summary.Summary{}, err
	}
	return result, nil
}

func (s *Service) Get(ctx context.Context, id string) (summary.Summary, error) {
	return s.Repository.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter summary.SummaryFilter) ([]summary.Summary, int64, error) {
	return s.Repository.List(ctx, filter)
}

func (s *Service) aggregate(ctx context.Context, employeeID string, month, year int) (Metrics, error) {
	entries, err := s.entryRepo.ListApprovedByEmployeeMonth(ctx, employeeID, month, year)
	if err != nil {
		return Metrics{}, err
	}

	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)
	leaves, err := s.leaveRepo.ListApprovedOverlapping(ctx, employeeID, monthStart, monthEnd)
	if err != nil {
		return Metrics{}, err
	}

	return ComputeMetrics(month, year, entries, leaves), nil
}
