package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/worklane/timeledger-backend-go/internal/domain/leave"
	"github.com/worklane/timeledger-backend-go/internal/pkg/database"
)

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.RequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

const leaveRequestColumns = `
	lr.id, lr.employee_id, lr.leave_type_id, lr.start_date, lr.end_date, lr.number_of_days,
	lr.reason, lr.project_id, lr.mc_document_url, lr.stand_in_employee_id,
	lr.status, lr.approved_by, lr.approved_at, lr.rejection_reason, lr.cancelled_at,
	lr.created_at, lr.updated_at
`

func scanLeaveRequest(row pgx.Row) (leave.Request, error) {
	var req leave.Request
	err := row.Scan(
		&req.ID, &req.EmployeeID, &req.LeaveTypeID, &req.StartDate, &req.EndDate, &req.NumberOfDays,
		&req.Reason, &req.ProjectID, &req.MCDocumentURL, &req.StandInEmployeeID,
		&req.Status, &req.ApprovedBy, &req.ApprovedAt, &req.RejectionReason, &req.CancelledAt,
		&req.CreatedAt, &req.UpdatedAt,
	)
	return req, err
}

func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, request leave.Request) (leave.Request, error) {
	q := database.GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_requests (
			id, employee_id, leave_type_id, start_date, end_date, number_of_days,
			reason, project_id, mc_document_url, stand_in_employee_id,
			status, created_at, updated_at
		) VALUES (
			uuidv7(), $1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, NOW(), NOW()
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		request.EmployeeID, request.LeaveTypeID, request.StartDate, request.EndDate, request.NumberOfDays,
		request.Reason, request.ProjectID, request.MCDocumentURL, request.StandInEmployeeID,
		request.Status,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)

	if err != nil {
		return leave.Request{}, fmt.Errorf("failed to insert leave request: %w", err)
	}

	return request, nil
}

func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string) (leave.Request, error) {
	return r.getByID(ctx, id, false)
}

func (r *leaveRequestRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (leave.Request, error) {
	return r.getByID(ctx, id, true)
}

func (r *leaveRequestRepositoryImpl) getByID(ctx context.Context, id string, forUpdate bool) (leave.Request, error) {
	q := database.GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveRequestColumns + ` FROM leave_requests lr WHERE lr.id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	req, err := scanLeaveRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Request{}, leave.ErrLeaveRequestNotFound
		}
		return leave.Request{}, err
	}
	return req, nil
}

func (r *leaveRequestRepositoryImpl) List(ctx context.Context, filter leave.RequestFilter) ([]leave.Request, int64, error) {
	q := database.GetQuerier(ctx, r.db)

	whereClauses := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("lr.employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.LeaveTypeID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("lr.leave_type_id = $%d", argIdx))
		args = append(args, *filter.LeaveTypeID)
		argIdx++
	}
	if filter.Status != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("lr.status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.StartDate != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("lr.start_date >= $%d", argIdx))
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("lr.end_date <= $%d", argIdx))
		args = append(args, *filter.EndDate)
		argIdx++
	}

	whereClause := strings.Join(whereClauses, " AND ")

	countQuery := "SELECT COUNT(*) FROM leave_requests lr WHERE " + whereClause
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leave requests: %w", err)
	}

	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.Limit == 0 {
		filter.Limit = 20
	}
	offset := (filter.Page - 1) * filter.Limit

	query := fmt.Sprintf(`
		SELECT %s,
			   lt.name as leave_type_name,
			   lt.code as leave_type_code
		FROM leave_requests lr
		JOIN leave_types lt ON lr.leave_type_id = lt.id
		WHERE %s
		ORDER BY lr.created_at DESC
		LIMIT $%d OFFSET $%d
	`, leaveRequestColumns, whereClause, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query leave requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		var req leave.Request
		var typeName, typeCode string
		err := rows.Scan(
			&req.ID, &req.EmployeeID, &req.LeaveTypeID, &req.StartDate, &req.EndDate, &req.NumberOfDays,
			&req.Reason, &req.ProjectID, &req.MCDocumentURL, &req.StandInEmployeeID,
			&req.Status, &req.ApprovedBy, &req.ApprovedAt, &req.RejectionReason, &req.CancelledAt,
			&req.CreatedAt, &req.UpdatedAt,
			&typeName, &typeCode,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan leave request: %w", err)
		}
		req.LeaveTypeName = &typeName
		req.LeaveTypeCode = &typeCode
		requests = append(requests, req)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	return requests, total, nil
}

func (r *leaveRequestRepositoryImpl) Update(ctx context.Context, update leave.UpdateRequest) error {
	q := database.GetQuerier(ctx, r.db)

	updates := make([]string, 0)
	args := make([]interface{}, 0)
	argIdx := 1

	if update.Status != nil {
		updates = append(updates, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *update.Status)
		argIdx++
	}
	if update.ApprovedBy != nil {
		updates = append(updates, fmt.Sprintf("approved_by = $%d", argIdx))
		args = append(args, *update.ApprovedBy)
		argIdx++
	}
	if update.ApprovedAt != nil {
		updates = append(updates, fmt.Sprintf("approved_at = $%d", argIdx))
		args = append(args, *update.ApprovedAt)
		argIdx++
	}
	if update.RejectionReason != nil {
		updates = append(updates, fmt.Sprintf("rejection_reason = $%d", argIdx))
		args = append(args, *update.RejectionReason)
		argIdx++
	}
	if update.CancelledAt != nil {
		updates = append(updates, fmt.Sprintf("cancelled_at = $%d", argIdx))
		args = append(args, *update.CancelledAt)
		argIdx++
	}

	if len(updates) == 0 {
		return fmt.Errorf("no updatable fields provided for leave request update")
	}

	updates = append(updates, fmt.Sprintf("updated_at = $%d", argIdx))
	args = append(args, time.Now())
	argIdx++

	args = append(args, update.ID)

	sql := "UPDATE leave_requests SET " + strings.Join(updates, ", ") + fmt.Sprintf(" WHERE id = $%d RETURNING id", argIdx)

	var updatedID string
	if err := q.QueryRow(ctx, sql, args...).Scan(&updatedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.ErrLeaveRequestNotFound
		}
		return fmt.Errorf("failed to update leave request with id %s: %w", update.ID, err)
	}
	return nil
}

func (r *leaveRequestRepositoryImpl) ListApprovedOverlapping(ctx context.Context, employeeID string, from, to time.Time) ([]leave.Request, error) {
	q := database.GetQuerier(ctx, r.db)

	query := `
		SELECT ` + leaveRequestColumns + `
		FROM leave_requests lr
		WHERE lr.employee_id = $1
		AND lr.status = 'approved'
		AND lr.start_date <= $3
		AND lr.end_date >= $2
		ORDER BY lr.start_date
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query approved leave requests: %w", err)
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		req, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, req)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return requests, nil
}
