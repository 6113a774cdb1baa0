package leave

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worklane/timeledger-backend-go/internal/domain/leave"
	"github.com/worklane/timeledger-backend-go/internal/pkg/validator"
)

const (
	typeAnnualID  = "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d"
	typeUnpaidID  = "1b671a64-40d5-491e-99b0-da01ff1f3341"
	typeSickID    = "3f2504e0-4f89-41d3-9a0c-0305e82c3301"
	typeUnknownID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
)

type fakeTxManager struct{}

func (fakeTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeTypeRepo struct {
	types map[string]leave.LeaveType
}

func (r *fakeTypeRepo) Create(ctx context.Context, t leave.LeaveType) (leave.LeaveType, error) {
	r.types[t.ID] = t
	return t, nil
}

func (r *fakeTypeRepo) GetByID(ctx context.Context, id string) (leave.LeaveType, error) {
	t, ok := r.types[id]
	if !ok {
		return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
	}
	return t, nil
}

func (r *fakeTypeRepo) GetByCode(ctx context.Context, code string) (leave.LeaveType, error) {
	for _, t := range r.types {
		if t.Code == code {
			return t, nil
		}
	}
	return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
}

func (r *fakeTypeRepo) List(ctx context.Context) ([]leave.LeaveType, error) {
	var out []leave.LeaveType
	for _, t := range r.types {
		out = append(out, t)
	}
	return out, nil
}

type fakeBalanceRepo struct {
	balances map[string]leave.Balance
	nextID   int
}

func balanceKey(employeeID, leaveTypeID string, year int) string {
	return fmt.Sprintf("%s-%s-%d", employeeID, leaveTypeID, year)
}

func (r *fakeBalanceRepo) Upsert(ctx context.Context, b leave.Balance) (leave.Balance, error) {
	key := balanceKey(b.EmployeeID, b.LeaveTypeID, b.Year)
	if existing, ok := r.balances[key]; ok {
		existing.TotalDays = b.TotalDays
		r.balances[key] = existing
		return existing, nil
	}
	r.nextID++
	b.ID = fmt.Sprintf("bal-%d", r.nextID)
	r.balances[key] = b
	return b, nil
}

func (r *fakeBalanceRepo) Get(ctx context.Context, employeeID, leaveTypeID string, year int) (leave.Balance, error) {
	b, ok := r.balances[balanceKey(employeeID, leaveTypeID, year)]
	if !ok {
		return leave.Balance{}, leave.ErrBalanceNotFound
	}
	return b, nil
}

func (r *fakeBalanceRepo) GetForUpdate(ctx context.Context, employeeID, leaveTypeID string, year int) (leave.Balance, error) {
	return r.Get(ctx, employeeID, leaveTypeID, year)
}

func (r *fakeBalanceRepo) EnsureForUpdate(ctx context.Context, employeeID, leaveTypeID string, year int) (leave.Balance, error) {
	b, err := r.Get(ctx, employeeID, leaveTypeID, year)
	if err == nil {
		return b, nil
	}
	return r.Upsert(ctx, leave.Balance{EmployeeID: employeeID, LeaveTypeID: leaveTypeID, Year: year})
}

func (r *fakeBalanceRepo) IncrementUsed(ctx context.Context, id string, days int) error {
	for key, b := range r.balances {
		if b.ID == id {
			b.UsedDays += days
			r.balances[key] = b
			return nil
		}
	}
	return leave.ErrBalanceNotFound
}

func (r *fakeBalanceRepo) ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]leave.Balance, error) {
	var out []leave.Balance
	for _, b := range r.balances {
		if b.EmployeeID == employeeID && b.Year == year {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeRequestRepo struct {
	requests map[string]leave.Request
	nextID   int
}

func (r *fakeRequestRepo) Create(ctx context.Context, req leave.Request) (leave.Request, error) {
	r.nextID++
	req.ID = fmt.Sprintf("req-%d", r.nextID)
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	r.requests[req.ID] = req
	return req, nil
}

func (r *fakeRequestRepo) GetByID(ctx context.Context, id string) (leave.Request, error) {
	req, ok := r.requests[id]
	if !ok {
		return leave.Request{}, leave.ErrLeaveRequestNotFound
	}
	return req, nil
}

func (r *fakeRequestRepo) GetByIDForUpdate(ctx context.Context, id string) (leave.Request, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeRequestRepo) List(ctx context.Context, filter leave.RequestFilter) ([]leave.Request, int64, error) {
	var out []leave.Request
	for _, req := range r.requests {
		out = append(out, req)
	}
	return out, int64(len(out)), nil
}

func (r *fakeRequestRepo) Update(ctx context.Context, update leave.UpdateRequest) error {
	req, ok := r.requests[update.ID]
	if !ok {
		return leave.ErrLeaveRequestNotFound
	}
	if update.Status != nil {
		req.Status = *update.Status
	}
	if update.ApprovedBy != nil {
		req.ApprovedBy = update.ApprovedBy
	}
	if update.ApprovedAt != nil {
		req.ApprovedAt = update.ApprovedAt
	}
	if update.RejectionReason != nil {
		req.RejectionReason = update.RejectionReason
	}
	if update.CancelledAt != nil {
		req.CancelledAt = update.CancelledAt
	}
	req.UpdatedAt = time.Now()
	r.requests[update.ID] = req
	return nil
}

func (r *fakeRequestRepo) ListApprovedOverlapping(ctx context.Context, employeeID string, from, to time.Time) ([]leave.Request, error) {
	var out []leave.Request
	for _, req := range r.requests {
		if req.EmployeeID == employeeID && req.Status == leave.RequestStatusApproved &&
			!req.StartDate.After(to) && !req.EndDate.Before(from) {
			out = append(out, req)
		}
	}
	return out, nil
}

func intPtr(v int) *int { return &v }

// fakeTimesheetChecker records the working days an employee already has
// non-rejected entries on.
type fakeTimesheetChecker struct {
	workedDays map[string][]time.Time
}

func (c *fakeTimesheetChecker) ExistsActiveInRange(ctx context.Context, employeeID string, from, to time.Time) (bool, error) {
	for _, day := range c.workedDays[employeeID] {
		if !day.Before(from) && !day.After(to) {
			return true, nil
		}
	}
	return false, nil
}

func newTestService() (*RequestService, *fakeBalanceRepo, *fakeTimesheetChecker) {
	typeRepo := &fakeTypeRepo{types: map[string]leave.LeaveType{
		typeAnnualID: {ID: typeAnnualID, Name: "Annual Leave", Code: leave.TypeCodeAnnual, MaxDaysPerYear: intPtr(12), AutoResetAnnually: true},
		typeUnpaidID: {ID: typeUnpaidID, Name: "Unpaid Leave", Code: leave.TypeCodeUnpaid},
	}}
	balanceRepo := &fakeBalanceRepo{balances: make(map[string]leave.Balance)}
	requestRepo := &fakeRequestRepo{requests: make(map[string]leave.Request)}
	timesheets := &fakeTimesheetChecker{workedDays: make(map[string][]time.Time)}
	svc := NewRequestService(fakeTxManager{}, requestRepo, typeRepo, balanceRepo, timesheets)
	return svc, balanceRepo, timesheets
}

func grant(t *testing.T, repo *fakeBalanceRepo, employeeID, typeID string, year, days int) {
	t.Helper()
	_, err := repo.Upsert(context.Background(), leave.Balance{
		EmployeeID: employeeID, LeaveTypeID: typeID, Year: year, TotalDays: days,
	})
	require.NoError(t, err)
}

func TestCreateRequestCountsWorkingDays(t *testing.T) {
	svc, _, _ := newTestService()

	// Mon 2025-06-02 through Fri 2025-06-06: five working days.
	req, err := svc.CreateRequest(context.Background(), leave.CreateRequestRequest{
		EmployeeID:  "emp-1",
		LeaveTypeID: typeAnnualID,
		StartDate:   "2025-06-02",
		EndDate:     "2025-06-06",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, req.NumberOfDays)
	assert.Equal(t, leave.RequestStatusPending, req.Status)

	// Mon through next Monday spans a weekend: six working days.
	req, err = svc.CreateRequest(context.Background(), leave.CreateRequestRequest{
		EmployeeID:  "emp-1",
		LeaveTypeID: typeAnnualID,
		StartDate:   "2025-07-07",
		EndDate:     "2025-07-14",
	})
	require.NoError(t, err)
	assert.Equal(t, 6, req.NumberOfDays)

	// A weekend-only range books nothing and is refused outright.
	_, err = svc.CreateRequest(context.Background(), leave.CreateRequestRequest{
		EmployeeID:  "emp-1",
		LeaveTypeID: typeAnnualID,
		StartDate:   "2025-06-07",
		EndDate:     "2025-06-08",
	})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
}

func TestCreateRequestValidation(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateRequest(context.Background(), leave.CreateRequestRequest{
		EmployeeID:  "emp-1",
		LeaveTypeID: typeAnnualID,
		StartDate:   "2025-06-06",
		EndDate:     "2025-06-02",
	})
	assert.Error(t, err, "end before start")

	_, err = svc.CreateRequest(context.Background(), leave.CreateRequestRequest{
		EmployeeID:  "emp-1",
		LeaveTypeID: typeUnknownID,
		StartDate:   "2025-06-02",
		EndDate:     "2025-06-03",
	})
	assert.ErrorIs(t, err, leave.ErrLeaveTypeNotFound)
}

func TestApproveDeductsBalance(t *testing.T) {
	svc, balanceRepo, _ := newTestService()
	grant(t, balanceRepo, "emp-1", typeAnnualID, 2025, 12)

	req, err := svc.CreateRequest(context.Background(), leave.CreateRequestRequest{
		EmployeeID:  "emp-1",
		LeaveTypeID: typeAnnualID,
		StartDate:   "2025-06-02",
		EndDate:     "2025-06-06",
	})
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), req.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, leave.RequestStatusApproved, approved.Status)

	balance, err := balanceRepo.Get(context.Background(), "emp-1", typeAnnualID, 2025)
	require.NoError(t, err)
	assert.Equal(t, 5, balance.UsedDays)
	assert.Equal(t, 7, balance.RemainingDays())
}

func TestApproveIsIdempotent(t *testing.T) {
	svc, balanceRepo, _ := newTestService()
	grant(t, balanceRepo, "emp-1", typeAnnualID, 2025, 12)

	req, err := svc.CreateRequest(context.Background(), leave.CreateRequestRequest{
		EmployeeID:  "emp-1",
		LeaveTypeID: typeAnnualID,
		StartDate:   "2025-06-02",
		EndDate:     "2025-06-06",
	})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), req.ID, "admin-1")
	require.NoError(t, err)

	// The double-submit case: second approval must not deduct again.
	again, err := svc.Approve(context.Background(), req.ID, "admin-2")
	require.NoError(t, err)
	assert.Equal(t, leave.RequestStatusApproved, again.Status)
	assert.Equal(t, "admin-1", *again.ApprovedBy)

	balance, err := balanceRepo.Get(context.Background(), "emp-1", typeAnnualID, 2025)
	require.NoError(t, err)
	assert.Equal(t, 5, balance.UsedDays)
}

func TestApproveInsufficientBalance(t *testing.T) {
	svc, balanceRepo, _ := newTestService()
	grant(t, balanceRepo, "emp-1", typeAnnualID, 2025, 3)

	req, err := svc.CreateRequest(context.Background(), leave.CreateRequestRequest{
		EmployeeID:  "emp-1",
		LeaveTypeID: typeAnnualID,
		StartDate:   "2025-06-02",
		EndDate:     "2025-06-06",
	})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), req.ID, "admin-1")
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)

	// Request stays pending and the balance untouched.
	current, err := svc.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.RequestStatusPending, current.Status)

	balance, err := balanceRepo.Get(context.Background(), "emp-1", typeAnnualID, 2025)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.UsedDays)
}

func TestApproveUncappedType(t *testing.T) {
	svc, balanceRepo, _ := newTestService()

	// No grant exists for unpaid leave; approval still goes through and the
	// usage lands on a zero-grant tracking row.
	req, err := svc.CreateRequest(context.Background(), leave.CreateRequestRequest{
		EmployeeID:  "emp-1",
		LeaveTypeID: typeUnpaidID,
		StartDate:   "2025-06-02",
		EndDate:     "2025-06-06",
	})
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), req.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, leave.RequestStatusApproved, approved.Status)

	balance, err := balanceRepo.Get(context.Background(), "emp-1", typeUnpaidID, 2025)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.TotalDays)
	assert.Equal(t, 5, balance.UsedDays)
	assert.Equal(t, -5, balance.RemainingDays())
}

func TestApproveRefusesTimesheetConflict(t *testing.T) {
	svc, balanceRepo, timesheets := newTestService()
	grant(t, balanceRepo, "emp-1", typeAnnualID, 2025, 12)

	// Work was already logged on the Wednesday of the requested week.
	timesheets.workedDays["emp-1"] = []time.Time{
		time.Date(2025, time.June, 4, 0, 0, 0, 0, time.UTC),
	}

	req, err := svc.CreateRequest(context.Background(), leave.CreateRequestRequest{
		EmployeeID:  "emp-1",
		LeaveTypeID: typeAnnualID,
		StartDate:   "2025-06-02",
		EndDate:     "2025-06-06",
	})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), req.ID, "admin-1")
	assert.ErrorIs(t, err, leave.ErrTimesheetConflict)

	// Request stays pending and no balance was deducted.
	current, err := svc.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.RequestStatusPending, current.Status)

	balance, err := balanceRepo.Get(context.Background(), "emp-1", typeAnnualID, 2025)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.UsedDays)

	// A different week approves fine.
	clear, err := svc.CreateRequest(context.Background(), leave.CreateRequestRequest{
		EmployeeID:  "emp-1",
		LeaveTypeID: typeAnnualID,
		StartDate:   "2025-06-09",
		EndDate:     "2025-06-13",
	})
	require.NoError(t, err)
	approved, err := svc.Approve(context.Background(), clear.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, leave.RequestStatusApproved, approved.Status)
}

func TestRejectRequest(t *testing.T) {
	svc, balanceRepo, _ := newTestService()
	grant(t, balanceRepo, "emp-1", typeAnnualID, 2025, 12)

	req, err := svc.CreateRequest(context.Background(), leave.CreateRequestRequest{
		EmployeeID:  "emp-1",
		LeaveTypeID: typeAnnualID,
		StartDate:   "2025-06-02",
		EndDate:     "2025-06-06",
	})
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), req.ID, "admin-1", "")
	assert.Error(t, err, "reason is mandatory")

	rejected, err := svc.Reject(context.Background(), req.ID, "admin-1", "project deadline")
	require.NoError(t, err)
	assert.Equal(t, leave.RequestStatusRejected, rejected.Status)

	// No deduction on rejection, and the decision is final.
	balance, err := balanceRepo.Get(context.Background(), "emp-1", typeAnnualID, 2025)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.UsedDays)

	_, err = svc.Approve(context.Background(), req.ID, "admin-1")
	assert.ErrorIs(t, err, leave.ErrRequestAlreadyProcessed)
}

func TestCancelRequest(t *testing.T) {
	svc, _, _ := newTestService()

	req, err := svc.CreateRequest(context.Background(), leave.CreateRequestRequest{
		EmployeeID:  "emp-1",
		LeaveTypeID: typeUnpaidID,
		StartDate:   "2025-06-02",
		EndDate:     "2025-06-03",
	})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.RequestStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	_, err = svc.Cancel(context.Background(), req.ID)
	assert.ErrorIs(t, err, leave.ErrRequestAlreadyProcessed)
}
