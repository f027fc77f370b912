package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn" // Import pgconn for PgError
)

// PostgreSQL SQLSTATE codes the repositories translate.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeLockNotAvailable    = "55P03"
	CodeDeadlockDetected    = "40P01"
)

// pgCode extracts the SQLSTATE of a PostgreSQL error, or "" for anything else.
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsDuplicateConstraintError checks if the error is a PostgreSQL unique violation error
// for a specific constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == CodeUniqueViolation && pgErr.ConstraintName == constraintName
}

// IsUniqueViolation reports a unique_violation on any constraint.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == CodeUniqueViolation
}

// IsForeignKeyViolation reports a foreign_key_violation.
func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == CodeForeignKeyViolation
}

// IsLockTimeout reports lock_not_available, raised when lock_timeout elapses.
func IsLockTimeout(err error) bool {
	return pgCode(err) == CodeLockNotAvailable
}

// IsDeadlock reports deadlock_detected.
func IsDeadlock(err error) bool {
	return pgCode(err) == CodeDeadlockDetected
}
