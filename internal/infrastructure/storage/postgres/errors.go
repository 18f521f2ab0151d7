package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes inspected by repositories.
const (
	sqlStateUniqueViolation = "23505"
	sqlStateCheckViolation  = "23514"
	sqlStateNotNull         = "23502"
)

// UniqueViolation returns the violated constraint name when err is a
// unique_violation, and ok=false otherwise.
func UniqueViolation(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// IsIntegrityViolation reports check and not-null violations, i.e. rows the
// database rejected as invalid.
func IsIntegrityViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlStateCheckViolation || pgErr.Code == sqlStateNotNull
}
