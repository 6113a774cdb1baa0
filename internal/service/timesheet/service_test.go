package timesheet

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worklane/timeledger-backend-go/internal/domain/summary"
	"github.com/worklane/timeledger-backend-go/internal/domain/timesheet"
	"github.com/worklane/timeledger-backend-go/internal/pkg/workcal"
)

// fakeTxManager runs the function directly; the fakes below are not
// transactional.
type fakeTxManager struct{}

func (fakeTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeEntryRepo struct {
	entries map[string]timesheet.Entry
	nextID  int
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: make(map[string]timesheet.Entry)}
}

func (r *fakeEntryRepo) Create(ctx context.Context, entry timesheet.Entry) (timesheet.Entry, error) {
	r.nextID++
	entry.ID = fmt.Sprintf("entry-%d", r.nextID)
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	r.entries[entry.ID] = entry
	return entry, nil
}

func (r *fakeEntryRepo) GetByID(ctx context.Context, id string) (timesheet.Entry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return timesheet.Entry{}, timesheet.ErrEntryNotFound
	}
	return entry, nil
}

func (r *fakeEntryRepo) GetByIDForUpdate(ctx context.Context, id string) (timesheet.Entry, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeEntryRepo) List(ctx context.Context, filter timesheet.EntryFilter) ([]timesheet.Entry, int64, error) {
	var out []timesheet.Entry
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out, int64(len(out)), nil
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

func (r *fakeEntryRepo) Update(ctx context.Context, update timesheet.UpdateEntry) error {
	entry, ok := r.entries[update.ID]
	if !ok {
		return timesheet.ErrEntryNotFound
	}
	if update.WorkDate != nil {
		entry.WorkDate = *update.WorkDate
	}
	if update.CheckIn != nil {
		entry.CheckIn = *update.CheckIn
	}
	if update.CheckOut != nil {
		entry.CheckOut = update.CheckOut
	}
	if update.ClearCheckOut {
		entry.CheckOut = nil
	}
	if update.TotalHours != nil {
		entry.TotalHours = *update.TotalHours
	}
	if update.OvertimeHours != nil {
		entry.OvertimeHours = *update.OvertimeHours
	}
	if update.ProjectID != nil {
		entry.ProjectID = update.ProjectID
	}
	if update.TaskType != nil {
		entry.TaskType = update.TaskType
	}
	if update.Remarks != nil {
		entry.Remarks = update.Remarks
	}
	if update.DayStatus != nil {
		entry.DayStatus = *update.DayStatus
	}
	if update.ApprovalStatus != nil {
		entry.ApprovalStatus = *update.ApprovalStatus
	}
	if update.ApprovedBy != nil {
		entry.ApprovedBy = update.ApprovedBy
	}
	if update.ApprovedAt != nil {
		entry.ApprovedAt = update.ApprovedAt
	}
	if update.RejectionReason != nil {
		entry.RejectionReason = update.RejectionReason
	}
	if update.OvertimeStatus != nil {
		entry.OvertimeStatus = *update.OvertimeStatus
	}
	if update.OvertimeJustification != nil {
		entry.OvertimeJustification = update.OvertimeJustification
	}
	if update.OvertimeApprovedBy != nil {
		entry.OvertimeApprovedBy = update.OvertimeApprovedBy
	}
	if update.OvertimeApprovedAt != nil {
		entry.OvertimeApprovedAt = update.OvertimeApprovedAt
	}
	if update.OvertimeRejectionReason != nil {
		entry.OvertimeRejectionReason = update.OvertimeRejectionReason
	}
	entry.UpdatedAt = time.Now()
	r.entries[update.ID] = entry
	return nil
}

func (r *fakeEntryRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.entries[id]; !ok {
		return timesheet.ErrEntryNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *fakeEntryRepo) CheckOverlapping(ctx context.Context, employeeID, excludeID string, checkIn time.Time, checkOut *time.Time) (bool, error) {
	for _, e := range r.entries {
		if e.EmployeeID != employeeID || e.ID == excludeID || e.ApprovalStatus == timesheet.ApprovalStatusRejected {
			continue
		}
		if timesheet.Overlaps(checkIn, checkOut, e.CheckIn, e.CheckOut) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeEntryRepo) ExistsActiveInRange(ctx context.Context, employeeID string, from, to time.Time) (bool, error) {
	for _, e := range r.entries {
		if e.EmployeeID == employeeID && e.ApprovalStatus != timesheet.ApprovalStatusRejected &&
			!e.WorkDate.Before(from) && !e.WorkDate.After(to) && workcal.IsWorkingDay(e.WorkDate) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeEntryRepo) AcquireEmployeeLock(ctx context.Context, employeeID string) error {
	return nil
}

type fakeSummaryRepo struct {
	nonRejected map[string]bool
}

func (r *fakeSummaryRepo) Create(ctx context.Context, s summary.Summary) (summary.Summary, error) {
	return s, nil
}
func (r *fakeSummaryRepo) GetByID(ctx context.Context, id string) (summary.Summary, error) {
	return summary.Summary{}, summary.ErrSummaryNotFound
}
func (r *fakeSummaryRepo) GetByIDForUpdate(ctx context.Context, id string) (summary.Summary, error) {
	return summary.Summary{}, summary.ErrSummaryNotFound
}
func (r *fakeSummaryRepo) GetByEmployeeMonth(ctx context.Context, employeeID string, month, year int) (summary.Summary, error) {
	return summary.Summary{}, summary.ErrSummaryNotFound
}
func (r *fakeSummaryRepo) List(ctx context.Context, filter summary.SummaryFilter) ([]summary.Summary, int64, error) {
	return nil, 0, nil
}
func (r *fakeSummaryRepo) Update(ctx context.Context, update summary.UpdateSummary) error {
	return nil
}
func (r *fakeSummaryRepo) NextInvoiceSequence(ctx context.Context, month, year int) (int, error) {
	return 1, nil
}
func (r *fakeSummaryRepo) ExistsNonRejected(ctx context.Context, employeeID string, month, year int) (bool, error) {
	return r.nonRejected[fmt.Sprintf("%s-%d-%d", employeeID, month, year)], nil
}

func newTestService() (*Service, *fakeEntryRepo, *fakeSummaryRepo) {
	entryRepo := newFakeEntryRepo()
	summaryRepo := &fakeSummaryRepo{nonRejected: make(map[string]bool)}
	return NewTimesheetService(fakeTxManager{}, entryRepo, summaryRepo), entryRepo, summaryRepo
}

func pastDay(daysAgo int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -daysAgo)
}

func createReq(employeeID string, day time.Time, checkInHour, checkOutHour int) timesheet.CreateEntryRequest {
	checkIn := time.Date(day.Year(), day.Month(), day.Day(), checkInHour, 0, 0, 0, time.UTC).Format(time.RFC3339)
	checkOut := time.Date(day.Year(), day.Month(), day.Day(), checkOutHour, 0, 0, 0, time.UTC).Format(time.RFC3339)
	return timesheet.CreateEntryRequest{
		EmployeeID: employeeID,
		WorkDate:   day.Format("2006-01-02"),
		CheckIn:    checkIn,
		CheckOut:   &checkOut,
	}
}

func TestCreateEntry(t *testing.T) {
	svc, _, _ := newTestService()

	t.Run("derives hours and defaults status", func(t *testing.T) {
		entry, err := svc.Create(context.Background(), createReq("emp-1", pastDay(3), 9, 17))
		require.NoError(t, err)

		assert.Equal(t, 8.0, entry.TotalHours)
		assert.Equal(t, 0.0, entry.OvertimeHours)
		assert.Equal(t, timesheet.ApprovalStatusDraft, entry.ApprovalStatus)
		assert.Equal(t, timesheet.DayStatusPresent, entry.DayStatus)
		assert.Equal(t, timesheet.OvertimeStatusNone, entry.OvertimeStatus)
	})

	t.Run("overtime opens a pending review", func(t *testing.T) {
		entry, err := svc.Create(context.Background(), createReq("emp-2", pastDay(3), 9, 20))
		require.NoError(t, err)

		assert.Equal(t, 11.0, entry.TotalHours)
		assert.Equal(t, 3.0, entry.OvertimeHours)
		assert.Equal(t, timesheet.OvertimeStatusPending, entry.OvertimeStatus)
	})

	t.Run("rejects future work date", func(t *testing.T) {
		day := time.Now().UTC().AddDate(0, 0, 2)
		_, err := svc.Create(context.Background(), createReq("emp-3", day, 9, 17))
		assert.ErrorIs(t, err, timesheet.ErrFutureWorkDate)
	})

	t.Run("rejects shift over the daily ceiling", func(t *testing.T) {
		_, err := svc.Create(context.Background(), createReq("emp-3", pastDay(3), 6, 19))
		assert.ErrorIs(t, err, timesheet.ErrHoursCeilingExceeded)
	})

	t.Run("rejects checkout before checkin", func(t *testing.T) {
		_, err := svc.Create(context.Background(), createReq("emp-3", pastDay(3), 17, 9))
		assert.ErrorIs(t, err, timesheet.ErrCheckOutNotAfterCheckIn)
	})
}

func TestCreateEntryOverlap(t *testing.T) {
	svc, _, _ := newTestService()
	day := pastDay(3)

	_, err := svc.Create(context.Background(), createReq("emp-1", day, 9, 17))
	require.NoError(t, err)

	t.Run("intersecting interval rejected", func(t *testing.T) {
		_, err := svc.Create(context.Background(), createReq("emp-1", day, 16, 19))
		assert.ErrorIs(t, err, timesheet.ErrOverlappingEntry)
	})

	t.Run("touching boundary allowed", func(t *testing.T) {
		_, err := svc.Create(context.Background(), createReq("emp-1", day, 17, 19))
		assert.NoError(t, err)
	})

	t.Run("other employee unaffected", func(t *testing.T) {
		_, err := svc.Create(context.Background(), createReq("emp-2", day, 9, 17))
		assert.NoError(t, err)
	})
}

func TestCreateEntryOpenInterval(t *testing.T) {
	svc, _, _ := newTestService()
	day := pastDay(2)

	checkIn := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.UTC).Format(time.RFC3339)
	entry, err := svc.Create(context.Background(), timesheet.CreateEntryRequest{
		EmployeeID: "emp-1",
		WorkDate:   day.Format("2006-01-02"),
		CheckIn:    checkIn,
	})
	require.NoError(t, err)
	assert.Nil(t, entry.CheckOut)
	assert.Equal(t, 0.0, entry.TotalHours)

	// An open interval blocks everything after its check-in.
	_, err = svc.Create(context.Background(), createReq("emp-1", day, 14, 17))
	assert.ErrorIs(t, err, timesheet.ErrOverlappingEntry)
}

func TestUpdateEntry(t *testing.T) {
	t.Run("recomputes hours", func(t *testing.T) {
		svc, _, _ := newTestService()
		day := pastDay(3)
		entry, err := svc.Create(context.Background(), createReq("emp-1", day, 9, 17))
		require.NoError(t, err)

		checkOut := time.Date(day.Year(), day.Month(), day.Day(), 19, 0, 0, 0, time.UTC).Format(time.RFC3339)
		updated, err := svc.Update(context.Background(), timesheet.UpdateEntryRequest{
			ID:       entry.ID,
			CheckOut: &checkOut,
		})
		require.NoError(t, err)

		assert.Equal(t, 10.0, updated.TotalHours)
		assert.Equal(t, 2.0, updated.OvertimeHours)
		assert.Equal(t, timesheet.OvertimeStatusPending, updated.OvertimeStatus)
	})

	t.Run("approved entry locks time fields", func(t *testing.T) {
		svc, repo, _ := newTestService()
		day := pastDay(3)
		entry, err := svc.Create(context.Background(), createReq("emp-1", day, 9, 17))
		require.NoError(t, err)

		e := repo.entries[entry.ID]
		e.ApprovalStatus = timesheet.ApprovalStatusApproved
		repo.entries[entry.ID] = e

		checkOut := time.Date(day.Year(), day.Month(), day.Day(), 18, 0, 0, 0, time.UTC).Format(time.RFC3339)
		_, err = svc.Update(context.Background(), timesheet.UpdateEntryRequest{
			ID:       entry.ID,
			CheckOut: &checkOut,
		})
		assert.ErrorIs(t, err, timesheet.ErrEntryLocked)

		// Annotations stay editable.
		remarks := "client on-site"
		updated, err := svc.Update(context.Background(), timesheet.UpdateEntryRequest{
			ID:      entry.ID,
			Remarks: &remarks,
		})
		require.NoError(t, err)
		assert.Equal(t, "client on-site", *updated.Remarks)
	})

	t.Run("approved overtime locks overtime fields", func(t *testing.T) {
		svc, repo, _ := newTestService()
		day := pastDay(3)
		entry, err := svc.Create(context.Background(), createReq("emp-1", day, 9, 19))
		require.NoError(t, err)

		e := repo.entries[entry.ID]
		e.OvertimeStatus = timesheet.OvertimeStatusApproved
		repo.entries[entry.ID] = e

		justification := "release window"
		_, err = svc.Update(context.Background(), timesheet.UpdateEntryRequest{
			ID:                    entry.ID,
			OvertimeJustification: &justification,
		})
		assert.ErrorIs(t, err, timesheet.ErrOvertimeLocked)
	})
}

func TestApprovalLifecycle(t *testing.T) {
	svc, _, _ := newTestService()
	entry, err := svc.Create(context.Background(), createReq("emp-1", pastDay(3), 9, 17))
	require.NoError(t, err)

	// Draft cannot be approved directly.
	_, err = svc.Approve(context.Background(), entry.ID, "admin-1")
	assert.ErrorIs(t, err, timesheet.ErrInvalidTransition)

	submitted, err := svc.Submit(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, timesheet.ApprovalStatusSubmitted, submitted.ApprovalStatus)

	// Submitting twice is invalid.
	_, err = svc.Submit(context.Background(), entry.ID)
	assert.ErrorIs(t, err, timesheet.ErrInvalidTransition)

	approved, err := svc.Approve(context.Background(), entry.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, timesheet.ApprovalStatusApproved, approved.ApprovalStatus)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "admin-1", *approved.ApprovedBy)

	// Repeat approval is a no-op, not an error.
	again, err := svc.Approve(context.Background(), entry.ID, "admin-2")
	require.NoError(t, err)
	assert.Equal(t, "admin-1", *again.ApprovedBy)
}

func TestRejectAndReopen(t *testing.T) {
	svc, _, _ := newTestService()
	entry, err := svc.Create(context.Background(), createReq("emp-1", pastDay(3), 9, 17))
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), entry.ID)
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), entry.ID, "admin-1", "")
	assert.Error(t, err, "reason is mandatory")

	rejected, err := svc.Reject(context.Background(), entry.ID, "admin-1", "wrong project")
	require.NoError(t, err)
	assert.Equal(t, timesheet.ApprovalStatusRejected, rejected.ApprovalStatus)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "wrong project", *rejected.RejectionReason)

	// Rejected is not editable-in-place: it reopens to draft explicitly.
	reopened, err := svc.Reopen(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, timesheet.ApprovalStatusDraft, reopened.ApprovalStatus)

	_, err = svc.Reopen(context.Background(), entry.ID)
	assert.ErrorIs(t, err, timesheet.ErrInvalidTransition)
}

func TestOvertimeReview(t *testing.T) {
	t.Run("approve pending overtime", func(t *testing.T) {
		svc, _, _ := newTestService()
		entry, err := svc.Create(context.Background(), createReq("emp-1", pastDay(3), 9, 19))
		require.NoError(t, err)

		reviewed, err := svc.ApproveOvertime(context.Background(), entry.ID, "admin-1")
		require.NoError(t, err)
		assert.Equal(t, timesheet.OvertimeStatusApproved, reviewed.OvertimeStatus)

		// Idempotent on repeat.
		_, err = svc.ApproveOvertime(context.Background(), entry.ID, "admin-2")
		assert.NoError(t, err)
	})

	t.Run("no overtime to review", func(t *testing.T) {
		svc, _, _ := newTestService()
		entry, err := svc.Create(context.Background(), createReq("emp-1", pastDay(3), 9, 17))
		require.NoError(t, err)

		_, err = svc.ApproveOvertime(context.Background(), entry.ID, "admin-1")
		assert.ErrorIs(t, err, timesheet.ErrNoOvertimeToReview)
	})

	t.Run("reject requires reason", func(t *testing.T) {
		svc, _, _ := newTestService()
		entry, err := svc.Create(context.Background(), createReq("emp-1", pastDay(3), 9, 19))
		require.NoError(t, err)

		_, err = svc.RejectOvertime(context.Background(), entry.ID, "admin-1", "")
		assert.Error(t, err)

		reviewed, err := svc.RejectOvertime(context.Background(), entry.ID, "admin-1", "not pre-approved")
		require.NoError(t, err)
		assert.Equal(t, timesheet.OvertimeStatusRejected, reviewed.OvertimeStatus)
	})
}

func TestDeleteEntry(t *testing.T) {
	t.Run("draft entry deletes", func(t *testing.T) {
		svc, _, _ := newTestService()
		entry, err := svc.Create(context.Background(), createReq("emp-1", pastDay(3), 9, 17))
		require.NoError(t, err)

		require.NoError(t, svc.Delete(context.Background(), entry.ID))
		_, err = svc.Get(context.Background(), entry.ID)
		assert.ErrorIs(t, err, timesheet.ErrEntryNotFound)
	})

	t.Run("approved entry refuses", func(t *testing.T) {
		svc, repo, _ := newTestService()
		entry, err := svc.Create(context.Background(), createReq("emp-1", pastDay(3), 9, 17))
		require.NoError(t, err)

		e := repo.entries[entry.ID]
		e.ApprovalStatus = timesheet.ApprovalStatusApproved
		repo.entries[entry.ID] = e

		assert.ErrorIs(t, svc.Delete(context.Background(), entry.ID), timesheet.ErrEntryLocked)
	})

	t.Run("summarized month refuses", func(t *testing.T) {
		svc, _, summaryRepo := newTestService()
		day := pastDay(3)
		entry, err := svc.Create(context.Background(), createReq("emp-1", day, 9, 17))
		require.NoError(t, err)

		key := fmt.Sprintf("emp-1-%d-%d", int(day.Month()), day.Year())
		summaryRepo.nonRejected[key] = true

		assert.ErrorIs(t, svc.Delete(context.Background(), entry.ID), timesheet.ErrEntryReferenced)
	})
}
