package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/courseenroll/internal/app/repositories"
	"github.com/yigit/courseenroll/internal/pkg/apperrors"
)

// EnrollmentCancellationProcessor cancels enrollments for every strategy.
// Locks are taken course first, then enrollment.
type EnrollmentCancellationProcessor struct {
	txManager repositories.TxManager
	clock     func() time.Time
	logger    zerolog.Logger
}

// NewEnrollmentCancellationProcessor creates a new cancellation processor
func NewEnrollmentCancellationProcessor(txManager repositories.TxManager, logger zerolog.Logger) *EnrollmentCancellationProcessor {
	return &EnrollmentCancellationProcessor{
		txManager: txManager,
		clock:     time.Now,
		logger:    logger,
	}
}

// Cancel moves an ACTIVE enrollment to CANCELED and returns its seat.
func (p *EnrollmentCancellationProcessor) Cancel(ctx context.Context, enrollmentID int64) error {
	var studentID, courseID int64

	err := p.txManager.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		snapshot, err := repos.Enrollments.FindByID(ctx, enrollmentID)
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.EnrollmentNotFound(enrollmentID)
		}
		if err != nil {
			return err
		}
		studentID, courseID = snapshot.StudentID, snapshot.CourseID

		course, err := lockCourse(ctx, repos, snapshot.CourseID)
		if err != nil {
			return err
		}

		enrollment, err := repos.Enrollments.FindByIDForLock(ctx, enrollmentID)
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.EnrollmentNotFound(enrollmentID)
		}
		if err != nil {
			return err
		}

		if err := enrollment.Cancel(p.clock()); err != nil {
			return err
		}
		course.DecreaseEnrollment()

		if err := repos.Courses.Save(ctx, course); err != nil {
			return fmt.Errorf("cancel enrollment %d: %w", enrollmentID, err)
		}
		if err := repos.Enrollments.Save(ctx, enrollment); err != nil {
			return fmt.Errorf("cancel enrollment %d: %w", enrollmentID, err)
		}
		return nil
	})
	if err != nil {
		return asConcurrencyConflict(err, studentID, courseID, 1)
	}

	p.logger.Debug().
		Int64("enrollmentId", enrollmentID).
		Int64("studentId", studentID).
		Int64("courseId", courseID).
		Msg("Enrollment canceled")
	return nil
}
