package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/courseenroll/internal/pkg/dberrors"
)

// translateError maps driver errors onto the storage sentinels and annotates
// them with the failing operation.
func translateError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case dberrors.IsLockTimeout(err):
		return fmt.Errorf("%s: %w: %w", op, ErrLockTimeout, err)
	case dberrors.IsDeadlock(err):
		return fmt.Errorf("%s: %w: %w", op, ErrDeadlock, err)
	case dberrors.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w: %w", op, ErrDuplicateKey, err)
	case dberrors.IsForeignKeyViolation(err):
		return fmt.Errorf("%s: %w: %w", op, ErrReferenceMissing, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
