package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/worklane/timeledger-backend-go/internal/domain/leave"
	"github.com/worklane/timeledger-backend-go/internal/pkg/database"
)

type leaveBalanceRepositoryImpl struct {
	db *database.DB
}

func NewLeaveBalanceRepository(db *database.DB) leave.BalanceRepository {
	return &leaveBalanceRepositoryImpl{db: db}
}

func (r *leaveBalanceRepositoryImpl) Upsert(ctx context.Context, balance leave.Balance) (leave.Balance, error) {
	q := database.GetQuerier(ctx, r.db)

	// Allocation is create-or-reset: a repeated allocation for the same
	// (employee, type, year) rewrites the grant, never stacks it.
	query := `
		INSERT INTO leave_balances (
			id, employee_id, leave_type_id, year, total_days, used_days,
			created_at, updated_at
		) VALUES (
			uuidv7(), $1, $2, $3, $4, 0,
			NOW(), NOW()
		)
		ON CONFLICT (employee_id, leave_type_id, year)
		DO UPDATE SET total_days = EXCLUDED.total_days, updated_at = NOW()
		RETURNING id, used_days, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		balance.EmployeeID, balance.LeaveTypeID, balance.Year, balance.TotalDays,
	).Scan(&balance.ID, &balance.UsedDays, &balance.CreatedAt, &balance.UpdatedAt)
	if err != nil {
		return leave.Balance{}, fmt.Errorf("failed to upsert leave balance: %w", err)
	}

	return balance, nil
}

const balanceColumns = `
	lb.id, lb.employee_id, lb.leave_type_id, lb.year, lb.total_days, lb.used_days,
	lb.created_at, lb.updated_at
`

func scanBalance(row pgx.Row) (leave.Balance, error) {
	var b leave.Balance
	err := row.Scan(
		&b.ID, &b.EmployeeID, &b.LeaveTypeID, &b.Year, &b.TotalDays, &b.UsedDays,
		&b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

func (r *leaveBalanceRepositoryImpl) Get(ctx context.Context, employeeID, leaveTypeID string, year int) (leave.Balance, error) {
	return r.get(ctx, employeeID, leaveTypeID, year, false)
}

func (r *leaveBalanceRepositoryImpl) GetForUpdate(ctx context.Context, employeeID, leaveTypeID string, year int) (leave.Balance, error) {
	return r.get(ctx, employeeID, leaveTypeID, year, true)
}

func (r *leaveBalanceRepositoryImpl) get(ctx context.Context, employeeID, leaveTypeID string, year int, forUpdate bool) (leave.Balance, error) {
	q := database.GetQuerier(ctx, r.db)

	query := `
		SELECT ` + balanceColumns + `
		FROM leave_balances lb
		WHERE lb.employee_id = $1 AND lb.leave_type_id = $2 AND lb.year = $3
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	b, err := scanBalance(q.QueryRow(ctx, query, employeeID, leaveTypeID, year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Balance{}, leave.ErrBalanceNotFound
		}
		return leave.Balance{}, err
	}
	return b, nil
}

func (r *leaveBalanceRepositoryImpl) EnsureForUpdate(ctx context.Context, employeeID, leaveTypeID string, year int) (leave.Balance, error) {
	b, err := r.GetForUpdate(ctx, employeeID, leaveTypeID, year)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, leave.ErrBalanceNotFound) {
		return leave.Balance{}, err
	}

	q := database.GetQuerier(ctx, r.db)

	// Zero-grant tracking row for usage on types without an allocation.
	// ON CONFLICT covers the race with a concurrent insert; the re-read below
	// takes the row lock either way.
	_, err = q.Exec(ctx, `
		INSERT INTO leave_balances (
			id, employee_id, leave_type_id, year, total_days, used_days, created_at, updated_at
		) VALUES (uuidv7(), $1, $2, $3, 0, 0, NOW(), NOW())
		ON CONFLICT (employee_id, leave_type_id, year) DO NOTHING
	`, employeeID, leaveTypeID, year)
	if err != nil {
		return leave.Balance{}, fmt.Errorf("failed to create tracking balance: %w", err)
	}

	return r.GetForUpdate(ctx, employeeID, leaveTypeID, year)
}

func (r *leaveBalanceRepositoryImpl) IncrementUsed(ctx context.Context, id string, days int) error {
	q := database.GetQuerier(ctx, r.db)

	var updatedID string
	err := q.QueryRow(ctx, `
		UPDATE leave_balances
		SET used_days = used_days + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id
	`, days, id).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.ErrBalanceNotFound
		}
		return fmt.Errorf("failed to increment used days for balance %s: %w", id, err)
	}
	return nil
}

func (r *leaveBalanceRepositoryImpl) ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]leave.Balance, error) {
	q := database.GetQuerier(ctx, r.db)

	query := `
		SELECT ` + balanceColumns + `,
			   lt.name as leave_type_name,
			   lt.code as leave_type_code
		FROM leave_balances lb
		JOIN leave_types lt ON lb.leave_type_id = lt.id
		WHERE lb.employee_id = $1 AND lb.year = $2
		ORDER BY lt.name
	`

	rows, err := q.Query(ctx, query, employeeID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave balances: %w", err)
	}
	defer rows.Close()

	var balances []leave.Balance
	for rows.Next() {
		var b leave.Balance
		var typeName, typeCode string
		err := rows.Scan(
			&b.ID, &b.EmployeeID, &b.LeaveTypeID, &b.Year, &b.TotalDays, &b.UsedDays,
			&b.CreatedAt, &b.UpdatedAt,
			&typeName, &typeCode,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave balance: %w", err)
		}
		b.LeaveTypeName = &typeName
		b.LeaveTypeCode = &typeCode
		balances = append(balances, b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return balances, nil
}
