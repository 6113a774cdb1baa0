package leave

import (
	"context"
	"errors"
	"log/slog"

	"github.com/worklane/timeledger-backend-go/internal/domain/leave"
	"github.com/worklane/timeledger-backend-go/internal/domain/user"
)

// BalanceService manages yearly grants. Allocation is idempotent per
// (employee, type, year); re-allocating rewrites the grant instead of
// stacking a second one.
type BalanceService struct {
	balanceRepo leave.BalanceRepository
	typeRepo    leave.TypeRepository
	userRepo    user.Repository
}

func NewBalanceService(
	balanceRepo leave.BalanceRepository,
	typeRepo leave.TypeRepository,
	userRepo user.Repository,
) *BalanceService {
	return &BalanceService{
		balanceRepo: balanceRepo,
		typeRepo:    typeRepo,
		userRepo:    userRepo,
	}
}

func (s *BalanceService) Allocate(ctx context.Context, req leave.AllocateBalanceRequest) (leave.Balance, error) {
	if err := req.Validate(); err != nil {
		return leave.Balance{}, err
	}

	if _, err := s.typeRepo.GetByID(ctx, req.LeaveTypeID); err != nil {
		return leave.Balance{}, err
	}

	return s.balanceRepo.Upsert(ctx, leave.Balance{
		EmployeeID:  req.EmployeeID,
		LeaveTypeID: req.LeaveTypeID,
		Year:        req.Year,
		TotalDays:   req.TotalDays,
	})
}

func (s *BalanceService) GetBalances(ctx context.Context, employeeID string, year int) ([]leave.Balance, error) {
	return s.balanceRepo.ListByEmployeeYear(ctx, employeeID, year)
}

// EnsureYear creates the yearly default grant for every auto-reset leave
// type and every active employee that does not have one yet. Existing grants
// are left alone, so the daily cron run never clobbers a manual adjustment.
func (s *BalanceService) EnsureYear(ctx context.Context, year int) error {
	types, err := s.typeRepo.List(ctx)
	if err != nil {
		return err
	}

	employeeIDs, err := s.userRepo.ListActiveEmployeeIDs(ctx)
	if err != nil {
		return err
	}

	for _, leaveType := range types {
		if !leaveType.AutoResetAnnually || !leaveType.Capped() {
			continue
		}
		for _, employeeID := range employeeIDs {
			_, err := s.balanceRepo.Get(ctx, employeeID, leaveType.ID, year)
			if err == nil {
				continue
			}
			if !errors.Is(err, leave.ErrBalanceNotFound) {
				return err
			}
			_, err = s.balanceRepo.Upsert(ctx, leave.Balance{
				EmployeeID:  employeeID,
				LeaveTypeID: leaveType.ID,
				Year:        year,
				TotalDays:   *leaveType.MaxDaysPerYear,
			})
			if err != nil {
				slog.Error("yearly balance grant failed",
					slog.String("employee_id", employeeID),
					slog.String("leave_type", leaveType.Code),
					slog.Int("year", year),
					slog.Any("error", err),
				)
			}
		}
	}

	return nil
}

// AllocateYear grants the yearly default of every auto-reset leave type to
// every active employee. The January 1st sweep; safe to re-run because the
// underlying allocation is an upsert. Partial failure skips the employee and
// moves on.
func (s *BalanceService) AllocateYear(ctx context.Context, year int) error {
	types, err := s.typeRepo.List(ctx)
	if err != nil {
		return err
	}

	employeeIDs, err := s.userRepo.ListActiveEmployeeIDs(ctx)
	if err != nil {
		return err
	}

	for _, leaveType := range types {
		if !leaveType.AutoResetAnnually || !leaveType.Capped() {
			continue
		}
		for _, employeeID := range employeeIDs {
			_, err := s.balanceRepo.Upsert(ctx, leave.Balance{
				EmployeeID:  employeeID,
				LeaveTypeID: leaveType.ID,
				Year:        year,
				TotalDays:   *leaveType.MaxDaysPerYear,
			})
			if err != nil {
				slog.Error("yearly balance allocation failed",
					slog.String("employee_id", employeeID),
					slog.String("leave_type", leaveType.Code),
					slog.Int("year", year),
					slog.Any("error", err),
				)
			}
		}
	}

	return nil
}
