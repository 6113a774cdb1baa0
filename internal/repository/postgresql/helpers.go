package postgresql

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the repositories translate into domain errors.
const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

func isUniqueViolation(err error) bool {
	return isPgError(err, pgUniqueViolation)
}

func isExclusionViolation(err error) bool {
	return isPgError(err, pgExclusionViolation)
}
