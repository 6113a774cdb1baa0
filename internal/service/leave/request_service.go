package leave

import (
	"context"
	"time"

	"github.com/worklane/timeledger-backend-go/internal/domain/leave"
	"github.com/worklane/timeledger-backend-go/internal/pkg/database"
	"github.com/worklane/timeledger-backend-go/internal/pkg/validator"
	"github.com/worklane/timeledger-backend-go/internal/pkg/workcal"
)

// timesheetChecker is the slice of the timesheet repository the approval
// conflict check needs.
type timesheetChecker interface {
	ExistsActiveInRange(ctx context.Context, employeeID string, from, to time.Time) (bool, error)
}

// RequestService handles the leave request lifecycle. Approval is the only
// operation that touches a balance, and it does so under a row lock so a
// double-submitted approval deducts exactly once.
type RequestService struct {
	db database.TxManager
	leave.RequestRepository
	typeRepo    leave.TypeRepository
	balanceRepo leave.BalanceRepository
	timesheets  timesheetChecker
}

func NewRequestService(
	db database.TxManager,
	requestRepo leave.RequestRepository,
	typeRepo leave.TypeRepository,
	balanceRepo leave.BalanceRepository,
	timesheets timesheetChecker,
) *RequestService {
	return &RequestService{
		db:                db,
		RequestRepository: requestRepo,
		typeRepo:          typeRepo,
		balanceRepo:       balanceRepo,
		timesheets:        timesheets,
	}
}

func (s *RequestService) CreateRequest(ctx context.Context, req leave.CreateRequestRequest) (leave.Request, error) {
	if err := req.Validate(); err != nil {
		return leave.Request{}, err
	}

	if _, err := s.typeRepo.GetByID(ctx, req.LeaveTypeID); err != nil {
		return leave.Request{}, err
	}

	start, _ := validator.IsValidDate(req.StartDate)
	end, _ := validator.IsValidDate(req.EndDate)

	// Weekends inside the range do not consume balance. A range covering only
	// a weekend books nothing, so there is nothing to request.
	days := workcal.CountWorkingDays(start, end)
	if days == 0 {
		return leave.Request{}, validator.ValidationErrors{{
			Field:   "start_date",
			Message: "date range contains no working days",
		}}
	}

	request := leave.Request{
		EmployeeID:        req.EmployeeID,
		LeaveTypeID:       req.LeaveTypeID,
		StartDate:         start,
		EndDate:           end,
		NumberOfDays:      days,
		Reason:            req.Reason,
		ProjectID:         req.ProjectID,
		MCDocumentURL:     req.MCDocumentURL,
		StandInEmployeeID: req.StandInEmployeeID,
		Status:            leave.RequestStatusPending,
	}

	return s.RequestRepository.Create(ctx, request)
}

// Approve moves a pending request to approved and deducts the balance in the
// same transaction. Approving an already-approved request returns the current
// state without a second deduction.
func (s *RequestService) Approve(ctx context.Context, id, approverID string) (leave.Request, error) {
	var result leave.Request
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		request, err := s.RequestRepository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if request.Status == leave.RequestStatusApproved {
			result = request
			return nil
		}
		if request.Terminal() {
			return leave.ErrRequestAlreadyProcessed
		}

		// Leave over days the employee already logged work for makes the
		// monthly summary double-count; the entries must be resolved first.
		conflict, err := s.timesheets.ExistsActiveInRange(ctx, request.EmployeeID, request.StartDate, request.EndDate)
		if err != nil {
			return err
		}
		if conflict {
			return leave.ErrTimesheetConflict
		}

		leaveType, err := s.typeRepo.GetByID(ctx, request.LeaveTypeID)
		if err != nil {
			return err
		}

		year := request.StartDate.Year()
		if leaveType.Capped() {
			balance, err := s.balanceRepo.GetForUpdate(ctx, request.EmployeeID, request.LeaveTypeID, year)
			if err != nil {
				return err
			}
			if balance.RemainingDays() < request.NumberOfDays {
				return leave.ErrInsufficientBalance
			}
			if err := s.balanceRepo.IncrementUsed(ctx, balance.ID, request.NumberOfDays); err != nil {
				return err
			}
		} else {
			// Uncapped types track usage without a grant; never blocks.
			balance, err := s.balanceRepo.EnsureForUpdate(ctx, request.EmployeeID, request.LeaveTypeID, year)
			if err != nil {
				return err
			}
			if err := s.balanceRepo.IncrementUsed(ctx, balance.ID, request.NumberOfDays); err != nil {
				return err
			}
		}

		status := leave.RequestStatusApproved
		now := time.Now()
		err = s.RequestRepository.Update(ctx, leave.UpdateRequest{
			ID:         request.ID,
			Status:     &status,
			ApprovedBy: &approverID,
			ApprovedAt: &now,
		})
		if err != nil {
			return err
		}

		result, err = s.RequestRepository.GetByID(ctx, request.ID)
		return err
	})
	if err != nil {
		return leave.Request{}, err
	}
	return result, nil
}

// Reject closes a pending request without touching any balance.
func (s *RequestService) Reject(ctx context.Context, id, approverID, reason string) (leave.Request, error) {
	if validator.IsEmpty(reason) {
		return leave.Request{}, validator.ValidationErrors{{
			Field:   "reason",
			Message: "reason is required",
		}}
	}

	var result leave.Request
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		request, err := s.RequestRepository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if request.Terminal() {
			return leave.ErrRequestAlreadyProcessed
		}

		status := leave.RequestStatusRejected
		now := time.Now()
		err = s.RequestRepository.Update(ctx, leave.UpdateRequest{
			ID:              request.ID,
			Status:          &status,
			ApprovedBy:      &approverID,
			ApprovedAt:      &now,
			RejectionReason: &reason,
		})
		if err != nil {
			return err
		}

		result, err = s.RequestRepository.GetByID(ctx, request.ID)
		return err
	})
	if err != nil {
		return leave.Request{}, err
	}
	return result, nil
}

// Cancel withdraws a pending request. Approved requests cannot be cancelled;
// the deduction already happened and stays.
func (s *RequestService) Cancel(ctx context.Context, id string) (leave.Request, error) {
	var result leave.Request
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		request, err := s.RequestRepository.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if request.Terminal() {
			return leave.ErrRequestAlreadyProcessed
		}

		status := leave.RequestStatusCancelled
		now := time.Now()
		err = s.RequestRepository.Update(ctx, leave.UpdateRequest{
			ID:          request.ID,
			Status:      &status,
			CancelledAt: &now,
		})
		if err != nil {
			return err
		}

		result, err = s.RequestRepository.GetByID(ctx, request.ID)
		return err
	})
	if err != nil {
		return leave.Request{}, err
	}
	return result, nil
}

func (s *RequestService) Get(ctx context.Context, id string) (leave.Request, error) {
	return s.RequestRepository.GetByID(ctx, id)
}

func (s *RequestService) ListRequests(ctx context.Context, filter leave.RequestFilter) ([]leave.Request, int64, error) {
	return s.RequestRepository.List(ctx, filter)
}

func (s *RequestService) ListTypes(ctx context.Context) ([]leave.LeaveType, error) {
	return s.typeRepo.List(ctx)
}
