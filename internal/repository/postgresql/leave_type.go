package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/worklane/timeledger-backend-go/internal/domain/leave"
	"github.com/worklane/timeledger-backend-go/internal/pkg/database"
)

type leaveTypeRepositoryImpl struct {
	db *database.DB
}

func NewLeaveTypeRepository(db *database.DB) leave.TypeRepository {
	return &leaveTypeRepositoryImpl{db: db}
}

func (r *leaveTypeRepositoryImpl) Create(ctx context.Context, leaveType leave.LeaveType) (leave.LeaveType, error) {
	q := database.GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_types (
			id, name, code, requires_approval, max_days_per_year, auto_reset_annually,
			created_at, updated_at
		) VALUES (
			uuidv7(), $1, $2, $3, $4, $5,
			NOW(), NOW()
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		leaveType.Name, leaveType.Code, leaveType.RequiresApproval,
		leaveType.MaxDaysPerYear, leaveType.AutoResetAnnually,
	).Scan(&leaveType.ID, &leaveType.CreatedAt, &leaveType.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return leave.LeaveType{}, leave.ErrDuplicateLeaveType
		}
		return leave.LeaveType{}, fmt.Errorf("failed to insert leave type: %w", err)
	}

	return leaveType, nil
}

func (r *leaveTypeRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveType, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *leaveTypeRepositoryImpl) GetByCode(ctx context.Context, code string) (leave.LeaveType, error) {
	return r.getOne(ctx, "code = $1", code)
}

func (r *leaveTypeRepositoryImpl) getOne(ctx context.Context, where string, arg interface{}) (leave.LeaveType, error) {
	q := database.GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, code, requires_approval, max_days_per_year, auto_reset_annually,
			   created_at, updated_at
		FROM leave_types
		WHERE ` + where

	var lt leave.LeaveType
	err := q.QueryRow(ctx, query, arg).Scan(
		&lt.ID, &lt.Name, &lt.Code, &lt.RequiresApproval, &lt.MaxDaysPerYear, &lt.AutoResetAnnually,
		&lt.CreatedAt, &lt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
		}
		return leave.LeaveType{}, err
	}

	return lt, nil
}

func (r *leaveTypeRepositoryImpl) List(ctx context.Context) ([]leave.LeaveType, error) {
	q := database.GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, code, requires_approval, max_days_per_year, auto_reset_annually,
			   created_at, updated_at
		FROM leave_types
		ORDER BY name
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave types: %w", err)
	}
	defer rows.Close()

	var types []leave.LeaveType
	for rows.Next() {
		var lt leave.LeaveType
		err := rows.Scan(
			&lt.ID, &lt.Name, &lt.Code, &lt.RequiresApproval, &lt.MaxDaysPerYear, &lt.AutoResetAnnually,
			&lt.CreatedAt, &lt.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave type: %w", err)
		}
		types = append(types, lt)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return types, nil
}
