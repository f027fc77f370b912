package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yigit/courseenroll/internal/app/models"
	"github.com/yigit/courseenroll/internal/app/repositories"
	"github.com/yigit/courseenroll/internal/pkg/apperrors"
)

// errMissingReference marks an insert rejected by a foreign key. PostgreSQL
// aborts the transaction on that error, so the caller resolves which side is
// missing in a fresh transaction (see resolveMissingReference).
var errMissingReference = errors.New("enrollment references a missing student or course")

func findCourse(ctx context.Context, repos repositories.TxRepositories, courseID int64) (*models.Course, error) {
	course, err := repos.Courses.FindByID(ctx, courseID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.CourseNotFound(courseID)
	}
	return course, err
}

func lockCourse(ctx context.Context, repos repositories.TxRepositories, courseID int64) (*models.Course, error) {
	course, err := repos.Courses.FindByIDForLock(ctx, courseID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.CourseNotFound(courseID)
	}
	return course, err
}

func lockStudent(ctx context.Context, repos repositories.TxRepositories, studentID int64) (*models.Student, error) {
	student, err := repos.Students.FindByIDForLock(ctx, studentID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.StudentNotFound(studentID)
	}
	return student, err
}

// insertActiveEnrollment stores an ACTIVE enrollment for the pair.
func insertActiveEnrollment(ctx context.Context, repos repositories.TxRepositories, studentID, courseID int64, now time.Time) (*models.Enrollment, error) {
	enrollment := models.NewEnrollment(studentID, courseID, now)
	err := repos.Enrollments.InsertActive(ctx, enrollment)
	switch {
	case err == nil:
		return enrollment, nil
	case errors.Is(err, repositories.ErrDuplicateKey):
		return nil, apperrors.DuplicateEnrollment(studentID, courseID)
	case errors.Is(err, repositories.ErrReferenceMissing):
		return nil, fmt.Errorf("%w: %w", errMissingReference, err)
	default:
		return nil, err
	}
}

// resolveMissingReference turns errMissingReference into StudentNotFound or
// CourseNotFound. Any other error is returned unchanged.
func resolveMissingReference(ctx context.Context, txManager repositories.TxManager, err error, studentID, courseID int64) error {
	if !errors.Is(err, errMissingReference) {
		return err
	}

	return txManager.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		studentExists, existsErr := repos.Students.ExistsByID(ctx, studentID)
		if existsErr != nil {
			return existsErr
		}
		if !studentExists {
			return apperrors.StudentNotFound(studentID)
		}
		return apperrors.CourseNotFound(courseID)
	})
}

// capacityFailure explains why IncrementIfAvailable changed no row.
func capacityFailure(ctx context.Context, repos repositories.TxRepositories, courseID int64) error {
	course, err := findCourse(ctx, repos, courseID)
	if err != nil {
		return err
	}
	return apperrors.CourseCapacityExceeded(course.ID, course.Capacity)
}

// isLockFailure reports lock waits that ended without the lock.
func isLockFailure(err error) bool {
	return errors.Is(err, repositories.ErrLockTimeout) || errors.Is(err, repositories.ErrDeadlock)
}

// asConcurrencyConflict reports lock failures from strategies that do not
// retry them as EnrollmentConcurrencyConflict.
func asConcurrencyConflict(err error, studentID, courseID int64, attempts int) error {
	if isLockFailure(err) {
		return apperrors.EnrollmentConcurrencyConflict(studentID, courseID, attempts)
	}
	return err
}
