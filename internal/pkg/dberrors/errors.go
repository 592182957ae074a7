package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the repositories branch on.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeExclusionViolation  = "23P01"
	CodeLockNotAvailable    = "55P03"
	CodeQueryCanceled       = "57014"
)

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsDuplicateConstraintError checks if the error is a unique violation on the
// named constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == CodeUniqueViolation && pgErr.ConstraintName == constraintName
}

// IsUniqueViolation checks for a unique violation on any constraint.
func IsUniqueViolation(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == CodeUniqueViolation
}

// IsForeignKeyViolation checks for a foreign key violation on any constraint.
func IsForeignKeyViolation(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == CodeForeignKeyViolation
}

// ForeignKeyConstraint returns the name of the violated foreign key
// constraint, if err is a foreign key violation.
func ForeignKeyConstraint(err error) (string, bool) {
	pgErr, ok := pgError(err)
	if !ok || pgErr.Code != CodeForeignKeyViolation {
		return "", false
	}
	return pgErr.ConstraintName, true
}

// ExclusionConstraint returns the name of the violated exclusion constraint,
// if err is an exclusion violation.
func ExclusionConstraint(err error) (string, bool) {
	pgErr, ok := pgError(err)
	if !ok || pgErr.Code != CodeExclusionViolation {
		return "", false
	}
	return pgErr.ConstraintName, true
}

// IsLockTimeout reports whether the statement was aborted while waiting on a
// lock (lock_timeout or statement_timeout).
func IsLockTimeout(err error) bool {
	pgErr, ok := pgError(err)
	return ok && (pgErr.Code == CodeLockNotAvailable || pgErr.Code == CodeQueryCanceled)
}
