package timesheet

import (
	"context"
	"fmt"
	"time"

	"github.com/worklane/timeledger-backend-go/internal/domain/summary"
	"github.com/worklane/timeledger-backend-go/internal/domain/timesheet"
	"github.com/worklane/timeledger-backend-go/internal/pkg/database"
	"github.com/worklane/timeledger-backend-go/internal/pkg/validator"
)

// Service owns the timesheet entry lifecycle. Every mutating operation runs
// inside one transaction: the overlap check, the derived-hours write and the
// status flip either all land or none do.
type Service struct {
	db database.TxManager
	timesheet.EntryRepository
	summaryRepo summary.Repository
}

func NewTimesheetService(db database.TxManager, entryRepo timesheet.EntryRepository, summaryRepo summary.Repository) *Service {
	return &Service{
		db:              db,
		EntryRepository: entryRepo,
		summaryRepo:     summaryRepo,
	}
}

func (s *Service) Create(ctx context.Context, req timesheet.CreateEntryRequest) (timesheet.Entry, error) {
	if err := req.Validate(); err != nil {
		return timesheet.Entry{}, err
	}

	workDate, _ := validator.IsValidDate(req.WorkDate)
	checkIn, _ := validator.IsValidDateTime(req.CheckIn)

	var checkOut *time.Time
	if req.CheckOut != nil {
		t, _ := validator.IsValidDateTime(*req.CheckOut)
		checkOut = &t
	}

	if err := timesheet.ValidateWorkDate(workDate, time.Now()); err != nil {
		return timesheet.Entry{}, err
	}

	total, overtime, err := timesheet.ComputeHours(checkIn, checkOut)
	if err != nil {
		return timesheet.Entry{}, err
	}

	entry := timesheet.Entry{
		EmployeeID:     req.EmployeeID,
		WorkDate:       workDate,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		TotalHours:     total,
		OvertimeHours:  overtime,
		ProjectID:      req.ProjectID,
		TaskType:       req.TaskType,
		Remarks:        req.Remarks,
		DayStatus:      timesheet.DayStatus(req.DayStatus),
		ApprovalStatus: timesheet.ApprovalStatusDraft,
	}
	if overtime > 0 {
		entry.OvertimeStatus = timesheet.OvertimeStatusPending
	}

	var created timesheet.Entry
	err = s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.EntryRepository.AcquireEmployeeLock(ctx, req.EmployeeID); err != nil {
			return err
		}

		hasOverlap, err := s.EntryRepository.CheckOverlapping(ctx, req.EmployeeID, "", checkIn, checkOut)
		if err != nil {
			return fmt.Errorf("failed to check overlapping entries: %w", err)
		}
		if hasOverlap {
			return timesheet.ErrOverlappingEntry
		}

		created, err = s.EntryRepository.Create(ctx, entry)
		return err
	})
	if err != nil {
		return timesheet.Entry{}, err
	}

	return created, nil
}

func (s *Service) Update(ctx context.Context, req timesheet.UpdateEntryRequest) (timesheet.Entry, error) {
	if err := req.Validate(); err != nil {
		return timesheet.Entry{}, err
	}

	var updated timesheet.Entry
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		entry, err := s.EntryRepository.GetByIDForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}

		// Merge the request onto the current record, then re-run every
		// creation-time validation against the merged state.
		workDate := entry.WorkDate
		checkIn := entry.CheckIn
		checkOut := entry.CheckOut
		timeFieldsChanged := false

		if req.WorkDate != nil {
			workDate, _ = validator.IsValidDate(*req.WorkDate)
			timeFieldsChanged = timeFieldsChanged || !workDate.Equal(entry.WorkDate)
		}
		if req.CheckIn != nil {
			checkIn, _ = validator.IsValidDateTime(*req.CheckIn)
			timeFieldsChanged = timeFieldsChanged || !checkIn.Equal(entry.CheckIn)
		}
		if req.CheckOut != nil {
			t, _ := validator.IsValidDateTime(*req.CheckOut)
			checkOut = &t
			timeFieldsChanged = timeFieldsChanged || entry.CheckOut == nil || !t.Equal(*entry.CheckOut)
		}

		if timeFieldsChanged && entry.TimeFieldsLocked() {
			return timesheet.ErrEntryLocked
		}

		if err := timesheet.ValidateWorkDate(workDate, time.Now()); err != nil {
			return err
		}

		total, overtime, err := timesheet.ComputeHours(checkIn, checkOut)
		if err != nil {
			return err
		}

		if entry.OvertimeFieldsLocked() {
			if req.OvertimeJustification != nil || overtime != entry.OvertimeHours {
				return timesheet.ErrOvertimeLocked
			}
		}

		if err := s.EntryRepository.AcquireEmployeeLock(ctx, entry.EmployeeID); err != nil {
			return err
		}

		hasOverlap, err := s.EntryRepository.CheckOverlapping(ctx, entry.EmployeeID, entry.ID, checkIn, checkOut)
		if err != nil {
			return fmt.Errorf("failed to check overlapping entries: %w", err)
		}
		if hasOverlap {
			return timesheet.ErrOverlappingEntry
		}

		update := timesheet.UpdateEntry{
			ID:                    entry.ID,
			WorkDate:              &workDate,
			CheckIn:               &checkIn,
			CheckOut:              checkOut,
			TotalHours:            &total,
			OvertimeHours:         &overtime,
			ProjectID:             req.ProjectID,
			TaskType:              req.TaskType,
			Remarks:               req.Remarks,
			OvertimeJustification: req.OvertimeJustification,
		}
		if req.DayStatus != nil {
			ds := timesheet.DayStatus(*req.DayStatus)
			update.DayStatus = &ds
		}

		// Overtime appearing for the first time opens a pending overtime
		// review; overtime disappearing while still pending closes it.
		if overtime > 0 && entry.OvertimeStatus == timesheet.OvertimeStatusNone {
			status := timesheet.OvertimeStatusPending
			update.OvertimeStatus = &status
		}
		if overtime == 0 && entry.OvertimeStatus == timesheet.OvertimeStatusPending {
			status := timesheet.OvertimeStatusNone
			update.OvertimeStatus = &status
		}

		if err := s.EntryRepository.Update(ctx, update); err != nil {
			return err
		}

		updated, err = s.EntryRepository.GetByID(ctx, entry.ID)
		return err
	})
	if err != nil {
		return timesheet.Entry{}, err
	}

	return updated, nil
}

// Submit moves a draft entry into the approval queue. Valid only from draft.
func (s *Service) Submit(ctx context.Context, id string) (timesheet.Entry, error) {
	return s.transition(ctx, id, func(entry timesheet.Entry) (timesheet.UpdateEntry, error) {
		if entry.ApprovalStatus != timesheet.ApprovalStatusDraft {
			return timesheet.UpdateEntry{}, timesheet.ErrInvalidTransition
		}
		status := timesheet.ApprovalStatusSubmitted
		return timesheet.UpdateEntry{ID: entry.ID, ApprovalStatus: &status}, nil
	})
}

// Approve locks the entry's time fields. Approving an already-approved entry
// is a no-op so retried calls stay safe.
func (s *Service) Approve(ctx context.Context, id, approverID string) (timesheet.Entry, error) {
	return s.transition(ctx, id, func(entry timesheet.Entry) (timesheet.UpdateEntry, error) {
		if entry.ApprovalStatus == timesheet.ApprovalStatusApproved {
			return timesheet.UpdateEntry{}, nil
		}
		if entry.ApprovalStatus != timesheet.ApprovalStatusSubmitted {
			return timesheet.UpdateEntry{}, timesheet.ErrInvalidTransition
		}
		status := timesheet.ApprovalStatusApproved
		now := time.Now()
		return timesheet.UpdateEntry{
			ID:             entry.ID,
			ApprovalStatus: &status,
			ApprovedBy:     &approverID,
			ApprovedAt:     &now,
		}, nil
	})
}

func (s *Service) Reject(ctx context.Context, id, approverID, reason string) (timesheet.Entry, error) {
	if validator.IsEmpty(reason) {
		return timesheet.Entry{}, validator.ValidationErrors{{
			Field:   "reason",
			Message: "reason is required",
		}}
	}
	return s.transition(ctx, id, func(entry timesheet.Entry) (timesheet.UpdateEntry, error) {
		if entry.ApprovalStatus != timesheet.ApprovalStatusSubmitted {
			return timesheet.UpdateEntry{}, timesheet.ErrInvalidTransition
		}
		status := timesheet.ApprovalStatusRejected
		now := time.Now()
		return timesheet.UpdateEntry{
			ID:              entry.ID,
			ApprovalStatus:  &status,
			ApprovedBy:      &approverID,
			ApprovedAt:      &now,
			RejectionReason: &reason,
		}, nil
	})
}

// Reopen is the explicit path out of rejected back to an editable draft.
// Rejection never reopens implicitly.
func (s *Service) Reopen(ctx context.Context, id string) (timesheet.Entry, error) {
	return s.transition(ctx, id, func(entry timesheet.Entry) (timesheet.UpdateEntry, error) {
		if entry.ApprovalStatus != timesheet.ApprovalStatusRejected {
			return timesheet.UpdateEntry{}, timesheet.ErrInvalidTransition
		}
		status := timesheet.ApprovalStatusDraft
		return timesheet.UpdateEntry{ID: entry.ID, ApprovalStatus: &status}, nil
	})
}

// ApproveOvertime acts on the overtime review independent of the entry's own
// approval pipeline.
func (s *Service) ApproveOvertime(ctx context.Context, id, approverID string) (timesheet.Entry, error) {
	return s.transition(ctx, id, func(entry timesheet.Entry) (timesheet.UpdateEntry, error) {
		switch entry.OvertimeStatus {
		case timesheet.OvertimeStatusApproved:
			return timesheet.UpdateEntry{}, nil
		case timesheet.OvertimeStatusNone:
			return timesheet.UpdateEntry{}, timesheet.ErrNoOvertimeToReview
		case timesheet.OvertimeStatusRejected:
			return timesheet.UpdateEntry{}, timesheet.ErrInvalidTransition
		}
		status := timesheet.OvertimeStatusApproved
		now := time.Now()
		return timesheet.UpdateEntry{
			ID:                 entry.ID,
			OvertimeStatus:     &status,
			OvertimeApprovedBy: &approverID,
			OvertimeApprovedAt: &now,
		}, nil
	})
}

func (s *Service) RejectOvertime(ctx context.Context, id, approverID, reason string) (timesheet.Entry, error) {
	if validator.IsEmpty(reason) {
		return timesheet.Entry{}, validator.ValidationErrors{{
			Field:   "reason",
			Message: "reason is required",
		}}
	}
	return s.transition(ctx, id, func(entry timesheet.Entry) (timesheet.UpdateEntry, error) {
		switch entry.OvertimeStatus {
		case timesheet.OvertimeStatusNone:
			return timesheet.UpdateEntry{}, timesheet.ErrNoOvertimeToReview
		case timesheet.OvertimeStatusApproved, timesheet.OvertimeStatusRejected:
			return timesheet.UpdateEntry{}, timesheet.ErrInvalidTransition
		}
		status := timesheet.OvertimeStatusRejected
		now := time.Now()
		return timesheet.UpdateEntry{
			ID:                      entry.ID,
			OvertimeStatus:          &status,
			OvertimeApprovedBy:      &approverID,
			OvertimeApprovedAt:      &now,
			OvertimeRejectionReason: &reason,
		}, nil
	})
}

// Delete removes an entry. Approved entries and entries already rolled into a
// monthly summary stay.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		entry, err := s.EntryRepository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if entry.TimeFieldsLocked() {
			return timesheet.ErrEntryLocked
		}

		referenced, err := s.summaryRepo.ExistsNonRejected(ctx, entry.EmployeeID, int(entry.WorkDate.Month()), entry.WorkDate.Year())
		if err != nil {
			return fmt.Errorf("failed to check summary reference: %w", err)
		}
		if referenced {
			return timesheet.ErrEntryReferenced
		}

		return s.EntryRepository.Delete(ctx, id)
	})
}

func (s *Service) Get(ctx context.Context, id string) (timesheet.Entry, error) {
	return s.EntryRepository.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter timesheet.EntryFilter) ([]timesheet.Entry, int64, error) {
	return s.EntryRepository.List(ctx, filter)
}

// transition runs a status-machine step inside one transaction with the row
// locked. A zero-ID update from fn means no-op: return the current record.
func (s *Service) transition(ctx context.Context, id string, fn func(timesheet.Entry) (timesheet.UpdateEntry, error)) (timesheet.Entry, error) {
	var result timesheet.Entry
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		entry, err := s.EntryRepository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		update, err := fn(entry)
		if err != nil {
			return err
		}
		if update.ID == "" {
			result = entry
			return nil
		}

		if err := s.EntryRepository.Update(ctx, update); err != nil {
			return err
		}

		result, err = s.EntryRepository.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return timesheet.Entry{}, err
	}
	return result, nil
}
