package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/worklane/timeledger-backend-go/internal/domain/summary"
	"github.com/worklane/timeledger-backend-go/internal/pkg/database"
)

type summaryRepositoryImpl struct {
	db *database.DB
}

func NewSummaryRepository(db *database.DB) summary.Repository {
	return &summaryRepositoryImpl{db: db}
}

const summaryColumns = `
	ms.id, ms.employee_id, ms.month, ms.year,
	ms.total_working_days, ms.total_worked_hours, ms.total_ot_hours,
	ms.approved_leave_days, ms.absent_days, ms.project_breakdown,
	ms.status,
	ms.staff_signature_ref, ms.staff_signed_at, ms.staff_signed_by,
	ms.admin_signature_ref, ms.admin_approved_at, ms.admin_approved_by, ms.admin_remarks,
	ms.subtotal, ms.tax_percentage, ms.tax_amount, ms.total_amount, ms.invoice_number,
	ms.created_at, ms.updated_at
`

func scanSummary(row pgx.Row) (summary.Summary, error) {
	var s summary.Summary
	err := row.Scan(
		&s.ID, &s.EmployeeID, &s.Month, &s.Year,
		&s.TotalWorkingDays, &s.TotalWorkedHours, &s.TotalOvertimeHours,
		&s.ApprovedLeaveDays, &s.AbsentDays, &s.Breakdown,
		&s.Status,
		&s.StaffSignatureRef, &s.StaffSignedAt, &s.StaffSignedBy,
		&s.AdminSignatureRef, &s.AdminApprovedAt, &s.AdminApprovedBy, &s.AdminRemarks,
		&s.Subtotal, &s.TaxPercentage, &s.TaxAmount, &s.TotalAmount, &s.InvoiceNumber,
		&s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func (r *summaryRepositoryImpl) Create(ctx context.Context, s summary.Summary) (summary.Summary, error) {
	q := database.GetQuerier(ctx, r.db)

	query := `
		INSERT INTO monthly_summaries (
			id, employee_id, month, year,
			total_working_days, total_worked_hours, total_ot_hours,
			approved_leave_days, absent_days, project_breakdown,
			status, created_at, updated_at
		) VALUES (
			uuidv7(), $1, $2, $3,
			$4, $5, $6,
			$7, $8, $9,
			$10, NOW(), NOW()
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		s.EmployeeID, s.Month, s.Year,
		s.TotalWorkingDays, s.TotalWorkedHours, s.TotalOvertimeHours,
		s.ApprovedLeaveDays, s.AbsentDays, s.Breakdown,
		s.Status,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return summary.Summary{}, summary.ErrSummaryExists
		}
		return summary.Summary{}, fmt.Errorf("failed to insert monthly summary: %w", err)
	}

	return s, nil
}

func (r *summaryRepositoryImpl) GetByID(ctx context.Context, id string) (summary.Summary, error) {
	return r.getByID(ctx, id, false)
}

func (r *summaryRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (summary.Summary, error) {
	return r.getByID(ctx, id, true)
}

func (r *summaryRepositoryImpl) getByID(ctx context.Context, id string, forUpdate bool) (summary.Summary, error) {
	q := database.GetQuerier(ctx, r.db)

	query := `SELECT ` + summaryColumns + ` FROM monthly_summaries ms WHERE ms.id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	s, err := scanSummary(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return summary.Summary{}, summary.ErrSummaryNotFound
		}
		return summary.Summary{}, err
	}
	return s, nil
}

func (r *summaryRepositoryImpl) GetByEmployeeMonth(ctx context.Context, employeeID string, month, year int) (summary.Summary, error) {
	q := database.GetQuerier(ctx, r.db)

	query := `
		SELECT ` + summaryColumns + `
		FROM monthly_summaries ms
		WHERE ms.employee_id = $1 AND ms.month = $2 AND ms.year = $3
	`

	s, err := scanSummary(q.QueryRow(ctx, query, employeeID, month, year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return summary.Summary{}, summary.ErrSummaryNotFound
		}
		return summary.Summary{}, err
	}
	return s, nil
}

func (r *summaryRepositoryImpl) List(ctx context.Context, filter summary.SummaryFilter) ([]summary.Summary, int64, error) {
	q := database.GetQuerier(ctx, r.db)

	whereClauses := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("ms.employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Month != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("ms.month = $%d", argIdx))
		args = append(args, *filter.Month)
		argIdx++
	}
	if filter.Year != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("ms.year = $%d", argIdx))
		args = append(args, *filter.Year)
		argIdx++
	}
	if filter.Status != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("ms.status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}

	whereClause := strings.Join(whereClauses, " AND ")

	countQuery := "SELECT COUNT(*) FROM monthly_summaries ms WHERE " + whereClause
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count monthly summaries: %w", err)
	}

	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.Limit == 0 {
		filter.Limit = 20
	}
	offset := (filter.Page - 1) * filter.Limit

	query := fmt.Sprintf(`
		SELECT %s FROM monthly_summaries ms
		WHERE %s
		ORDER BY ms.year DESC, ms.month DESC
		LIMIT $%d OFFSET $%d
	`, summaryColumns, whereClause, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query monthly summaries: %w", err)
	}
	defer rows.Close()

	var summaries []summary.Summary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan monthly summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	return summaries, total, nil
}

func (r *summaryRepositoryImpl) Update(ctx context.Context, update summary.UpdateSummary) error {
	q := database.GetQuerier(ctx, r.db)

	updates := make([]string, 0)
	args := make([]interface{}, 0)
	argIdx := 1

	add := func(column string, value interface{}) {
		updates = append(updates, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if update.TotalWorkingDays != nil {
		add("total_working_days", *update.TotalWorkingDays)
	}
	if update.TotalWorkedHours != nil {
		add("total_worked_hours", *update.TotalWorkedHours)
	}
	if update.TotalOvertimeHours != nil {
		add("total_ot_hours", *update.TotalOvertimeHours)
	}
	if update.ApprovedLeaveDays != nil {
		add("approved_leave_days", *update.ApprovedLeaveDays)
	}
	if update.AbsentDays != nil {
		add("absent_days", *update.AbsentDays)
	}
	if update.Breakdown != nil {
		add("project_breakdown", *update.Breakdown)
	}
	if update.Status != nil {
		add("status", *update.Status)
	}

	if update.ClearStaffSig {
		updates = append(updates, "staff_signature_ref = NULL", "staff_signed_at = NULL", "staff_signed_by = NULL")
	} else {
		if update.StaffSignatureRef != nil {
			add("staff_signature_ref", *update.StaffSignatureRef)
		}
		if update.StaffSignedAt != nil {
			add("staff_signed_at", *update.StaffSignedAt)
		}
		if update.StaffSignedBy != nil {
			add("staff_signed_by", *update.StaffSignedBy)
		}
	}

	if update.ClearAdminSig {
		updates = append(updates, "admin_signature_ref = NULL", "admin_approved_at = NULL", "admin_approved_by = NULL", "admin_remarks = NULL")
	} else {
		if update.AdminSignatureRef != nil {
			add("admin_signature_ref", *update.AdminSignatureRef)
		}
		if update.AdminApprovedAt != nil {
			add("admin_approved_at", *update.AdminApprovedAt)
		}
		if update.AdminApprovedBy != nil {
			add("admin_approved_by", *update.AdminApprovedBy)
		}
		if update.AdminRemarks != nil {
			add("admin_remarks", *update.AdminRemarks)
		}
	}

	if update.Subtotal != nil {
		add("subtotal", *update.Subtotal)
	}
	if update.TaxPercentage != nil {
		add("tax_percentage", *update.TaxPercentage)
	}
	if update.TaxAmount != nil {
		add("tax_amount", *update.TaxAmount)
	}
	if update.TotalAmount != nil {
		add("total_amount", *update.TotalAmount)
	}
	if update.InvoiceNumber != nil {
		add("invoice_number", *update.InvoiceNumber)
	}

	if len(updates) == 0 {
		return fmt.Errorf("no updatable fields provided for monthly summary update")
	}

	add("updated_at", time.Now())
	args = append(args, update.ID)

	sql := "UPDATE monthly_summaries SET " + strings.Join(updates, ", ") + fmt.Sprintf(" WHERE id = $%d RETURNING id", argIdx)

	var updatedID string
	if err := q.QueryRow(ctx, sql, args...).Scan(&updatedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return summary.ErrSummaryNotFound
		}
		if isUniqueViolation(err) {
			return summary.ErrDuplicateInvoice
		}
		return fmt.Errorf("failed to update monthly summary with id %s: %w", update.ID, err)
	}
	return nil
}

func (r *summaryRepositoryImpl) NextInvoiceSequence(ctx context.Context, month, year int) (int, error) {
	q := database.GetQuerier(ctx, r.db)

	// Serialize sequence assignment per month. The advisory lock is
	// transaction-scoped, so the MAX()+1 read stays exclusive until commit.
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, fmt.Sprintf("invoice-%04d-%02d", year, month)); err != nil {
		return 0, fmt.Errorf("failed to acquire invoice lock: %w", err)
	}

	query := `
		SELECT COALESCE(MAX(CAST(RIGHT(invoice_number, 4) AS INTEGER)), 0) + 1
		FROM monthly_summaries
		WHERE month = $1 AND year = $2 AND invoice_number IS NOT NULL
	`

	var next int
	if err := q.QueryRow(ctx, query, month, year).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to compute next invoice sequence: %w", err)
	}
	return next, nil
}

func (r *summaryRepositoryImpl) ExistsNonRejected(ctx context.Context, employeeID string, month, year int) (bool, error) {
	q := database.GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM monthly_summaries
			WHERE employee_id = $1 AND month = $2 AND year = $3
			AND status <> 'rejected'
		)
	`

	var exists bool
	err := q.QueryRow(ctx, query, employeeID, month, year).Scan(&exists)
	return exists, err
}
