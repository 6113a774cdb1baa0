package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/worklane/timeledger-backend-go/internal/domain/timesheet"
	"github.com/worklane/timeledger-backend-go/internal/pkg/database"
)

type timesheetRepositoryImpl struct {
	db *database.DB
}

func NewTimesheetRepository(db *database.DB) timesheet.EntryRepository {
	return &timesheetRepositoryImpl{db: db}
}

const timesheetColumns = `
	te.id, te.employee_id, te.work_date, te.check_in, te.check_out,
	te.total_hours, te.overtime_hours, te.project_id, te.task_type, te.remarks,
	te.day_status, te.approval_status, te.approved_by, te.approved_at, te.rejection_reason,
	te.ot_approval_status, te.ot_justification, te.ot_approved_by, te.ot_approved_at, te.ot_rejection_reason,
	te.created_at, te.updated_at
`

func scanTimesheetEntry(row pgx.Row) (timesheet.Entry, error) {
	var e timesheet.Entry
	var otStatus *string
	err := row.Scan(
		&e.ID, &e.EmployeeID, &e.WorkDate, &e.CheckIn, &e.CheckOut,
		&e.TotalHours, &e.OvertimeHours, &e.ProjectID, &e.TaskType, &e.Remarks,
		&e.DayStatus, &e.ApprovalStatus, &e.ApprovedBy, &e.ApprovedAt, &e.RejectionReason,
		&otStatus, &e.OvertimeJustification, &e.OvertimeApprovedBy, &e.OvertimeApprovedAt, &e.OvertimeRejectionReason,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return timesheet.Entry{}, err
	}
	if otStatus != nil {
		e.OvertimeStatus = timesheet.OvertimeStatus(*otStatus)
	}
	return e, nil
}

func otStatusParam(s timesheet.OvertimeStatus) *string {
	if s == timesheet.OvertimeStatusNone {
		return nil
	}
	v := string(s)
	return &v
}

func (r *timesheetRepositoryImpl) Create(ctx context.Context, entry timesheet.Entry) (timesheet.Entry, error) {
	q := database.GetQuerier(ctx, r.db)

	query := `
		INSERT INTO timesheet_entries (
			id, employee_id, work_date, check_in, check_out,
			total_hours, overtime_hours, project_id, task_type, remarks,
			day_status, approval_status, ot_approval_status, ot_justification,
			created_at, updated_at
		) VALUES (
			uuidv7(), $1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11, $12, $13,
			NOW(), NOW()
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		entry.EmployeeID, entry.WorkDate, entry.CheckIn, entry.CheckOut,
		entry.TotalHours, entry.OvertimeHours, entry.ProjectID, entry.TaskType, entry.Remarks,
		entry.DayStatus, entry.ApprovalStatus, otStatusParam(entry.OvertimeStatus), entry.OvertimeJustification,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return timesheet.Entry{}, timesheet.ErrDuplicateEntry
		}
		if isExclusionViolation(err) {
			return timesheet.Entry{}, timesheet.ErrOverlappingEntry
		}
		return timesheet.Entry{}, fmt.Errorf("failed to insert timesheet entry: %w", err)
	}

	return entry, nil
}

func (r *timesheetRepositoryImpl) GetByID(ctx context.Context, id string) (timesheet.Entry, error) {
	return r.getByID(ctx, id, false)
}

func (r *timesheetRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (timesheet.Entry, error) {
	return r.getByID(ctx, id, true)
}

func (r *timesheetRepositoryImpl) getByID(ctx context.Context, id string, forUpdate bool) (timesheet.Entry, error) {
	q := database.GetQuerier(ctx, r.db)

	query := `SELECT ` + timesheetColumns + ` FROM timesheet_entries te WHERE te.id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	entry, err := scanTimesheetEntry(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timesheet.Entry{}, timesheet.ErrEntryNotFound
		}
		return timesheet.Entry{}, err
	}
	return entry, nil
}

func (r *timesheetRepositoryImpl) List(ctx context.Context, filter timesheet.EntryFilter) ([]timesheet.Entry, int64, error) {
	q := database.GetQuerier(ctx, r.db)

	whereClauses := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("te.employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.ProjectID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("te.project_id = $%d", argIdx))
		args = append(args, *filter.ProjectID)
		argIdx++
	}
	if filter.ApprovalStatus != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("te.approval_status = $%d", argIdx))
		args = append(args, *filter.ApprovalStatus)
		argIdx++
	}
	if filter.OvertimeStatus != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("te.ot_approval_status = $%d", argIdx))
		args = append(args, *filter.OvertimeStatus)
		argIdx++
	}
	if filter.DateFrom != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("te.work_date >= $%d", argIdx))
		args = append(args, *filter.DateFrom)
		argIdx++
	}
	if filter.DateTo != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("te.work_date <= $%d", argIdx))
		args = append(args, *filter.DateTo)
		argIdx++
	}

	whereClause := strings.Join(whereClauses, " AND ")

	countQuery := "SELECT COUNT(*) FROM timesheet_entries te WHERE " + whereClause
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count timesheet entries: %w", err)
	}

	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.Limit == 0 {
		filter.Limit = 20
	}
	offset := (filter.Page - 1) * filter.Limit

	query := fmt.Sprintf(`
		SELECT %s FROM timesheet_entries te
		WHERE %s
		ORDER BY te.work_date DESC, te.check_in DESC
		LIMIT $%d OFFSET $%d
	`, timesheetColumns, whereClause, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query timesheet entries: %w", err)
	}
	defer rows.Close()

	var entries []timesheet.Entry
	for rows.Next() {
		entry, err := scanTimesheetEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan timesheet entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	return entries, total, nil
}

func (r *timesheetRepositoryImpl) ListApprovedByEmployeeMonth(ctx context.Context, employeeID string, month, year int) ([]timesheet.Entry, error) {
	q := database.GetQuerier(ctx, r.db)

	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	query := `
		SELECT ` + timesheetColumns + `
		FROM timesheet_entries te
		WHERE te.employee_id = $1
		AND te.approval_status = 'approved'
		AND te.work_date >= $2 AND te.work_date < $3
		ORDER BY te.work_date
	`

	rows, err := q.Query(ctx, query, employeeID, monthStart, monthEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to query approved entries: %w", err)
	}
	defer rows.Close()

	var entries []timesheet.Entry
	for rows.Next() {
		entry, err := scanTimesheetEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timesheet entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entries, nil
}

func (r *timesheetRepositoryImpl) Update(ctx context.Context, update timesheet.UpdateEntry) error {
	q := database.GetQuerier(ctx, r.db)

	updates := make([]string, 0)
	args := make([]interface{}, 0)
	argIdx := 1

	add := func(column string, value interface{}) {
		updates = append(updates, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if update.WorkDate != nil {
		add("work_date", *update.WorkDate)
	}
	if update.CheckIn != nil {
		add("check_in", *update.CheckIn)
	}
	if update.ClearCheckOut {
		updates = append(updates, "check_out = NULL")
	} else if update.CheckOut != nil {
		add("check_out", *update.CheckOut)
	}
	if update.TotalHours != nil {
		add("total_hours", *update.TotalHours)
	}
	if update.OvertimeHours != nil {
		add("overtime_hours", *update.OvertimeHours)
	}
	if update.ProjectID != nil {
		add("project_id", *update.ProjectID)
	}
	if update.TaskType != nil {
		add("task_type", *update.TaskType)
	}
	if update.Remarks != nil {
		add("remarks", *update.Remarks)
	}
	if update.DayStatus != nil {
		add("day_status", *update.DayStatus)
	}
	if update.ApprovalStatus != nil {
		add("approval_status", *update.ApprovalStatus)
	}
	if update.ApprovedBy != nil {
		add("approved_by", *update.ApprovedBy)
	}
	if update.ApprovedAt != nil {
		add("approved_at", *update.ApprovedAt)
	}
	if update.RejectionReason != nil {
		add("rejection_reason", *update.RejectionReason)
	}
	if update.OvertimeStatus != nil {
		add("ot_approval_status", otStatusParam(*update.OvertimeStatus))
	}
	if update.OvertimeJustification != nil {
		add("ot_justification", *update.OvertimeJustification)
	}
	if update.OvertimeApprovedBy != nil {
		add("ot_approved_by", *update.OvertimeApprovedBy)
	}
	if update.OvertimeApprovedAt != nil {
		add("ot_approved_at", *update.OvertimeApprovedAt)
	}
	if update.OvertimeRejectionReason != nil {
		add("ot_rejection_reason", *update.OvertimeRejectionReason)
	}

	if len(updates) == 0 {
		return fmt.Errorf("no updatable fields provided for timesheet entry update")
	}

	add("updated_at", time.Now())
	args = append(args, update.ID)

	sql := "UPDATE timesheet_entries SET " + strings.Join(updates, ", ") + fmt.Sprintf(" WHERE id = $%d RETURNING id", argIdx)

	var updatedID string
	if err := q.QueryRow(ctx, sql, args...).Scan(&updatedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timesheet.ErrEntryNotFound
		}
		if isUniqueViolation(err) {
			return timesheet.ErrDuplicateEntry
		}
		if isExclusionViolation(err) {
			return timesheet.ErrOverlappingEntry
		}
		return fmt.Errorf("failed to update timesheet entry with id %s: %w", update.ID, err)
	}
	return nil
}

func (r *timesheetRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := database.GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM timesheet_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if commandTag.RowsAffected() != 1 {
		return timesheet.ErrEntryNotFound
	}
	return nil
}

func (r *timesheetRepositoryImpl) CheckOverlapping(ctx context.Context, employeeID, excludeID string, checkIn time.Time, checkOut *time.Time) (bool, error) {
	q := database.GetQuerier(ctx, r.db)

	// Open intervals (no check-out yet) extend indefinitely; two open shifts
	// for the same employee always collide.
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM timesheet_entries
			WHERE employee_id = $1
			AND id::text <> $2
			AND approval_status <> 'rejected'
			AND check_in < COALESCE($4, 'infinity'::timestamptz)
			AND COALESCE(check_out, 'infinity'::timestamptz) > $3
		)
	`

	var exists bool
	err := q.QueryRow(ctx, query, employeeID, excludeID, checkIn, checkOut).Scan(&exists)
	return exists, err
}

func (r *timesheetRepositoryImpl) ExistsActiveInRange(ctx context.Context, employeeID string, from, to time.Time) (bool, error) {
	q := database.GetQuerier(ctx, r.db)

	// Weekend entries never collide with leave; leave only books Mon-Fri.
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM timesheet_entries
			WHERE employee_id = $1
			AND approval_status <> 'rejected'
			AND work_date >= $2 AND work_date <= $3
			AND EXTRACT(ISODOW FROM work_date) < 6
		)
	`

	var exists bool
	err := q.QueryRow(ctx, query, employeeID, from, to).Scan(&exists)
	return exists, err
}

func (r *timesheetRepositoryImpl) AcquireEmployeeLock(ctx context.Context, employeeID string) error {
	q := database.GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, employeeID)
	if err != nil {
		return fmt.Errorf("failed to acquire employee lock: %w", err)
	}
	return nil
}
