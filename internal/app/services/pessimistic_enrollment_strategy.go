package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/courseenroll/internal/app/models"
	"github.com/yigit/courseenroll/internal/app/repositories"
)

// PessimisticEnrollmentStrategy serializes enrollments per course with row
// locks held until commit. Lock timeouts and deadlocks are retried.
type PessimisticEnrollmentStrategy struct {
	txManager repositories.TxManager
	validator *EnrollmentRuleValidator
	canceller *EnrollmentCancellationProcessor
	clock     func() time.Time
	logger    zerolog.Logger
}

// NewPessimisticEnrollmentStrategy creates a new pessimistic strategy
func NewPessimisticEnrollmentStrategy(
	txManager repositories.TxManager,
	validator *EnrollmentRuleValidator,
	canceller *EnrollmentCancellationProcessor,
	logger zerolog.Logger,
) *PessimisticEnrollmentStrategy {
	return &PessimisticEnrollmentStrategy{
		txManager: txManager,
		validator: validator,
		canceller: canceller,
		clock:     time.Now,
		logger:    logger.With().Str("strategy", string(StrategyPessimistic)).Logger(),
	}
}

// Type implements EnrollmentStrategy
func (s *PessimisticEnrollmentStrategy) Type() StrategyType {
	return StrategyPessimistic
}

// Enroll implements EnrollmentStrategy
func (s *PessimisticEnrollmentStrategy) Enroll(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	return retryEnrollment(ctx, s.logger, studentID, courseID, isLockFailure, func(ctx context.Context) (*models.Enrollment, error) {
		return s.enrollOnce(ctx, studentID, courseID)
	})
}

func (s *PessimisticEnrollmentStrategy) enrollOnce(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	var enrollment *models.Enrollment

	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		course, err := lockCourse(ctx, repos, courseID)
		if err != nil {
			return err
		}
		student, err := lockStudent(ctx, repos, studentID)
		if err != nil {
			return err
		}

		if err := s.validator.ValidatePreInsert(ctx, repos, student, course); err != nil {
			return err
		}
		if err := course.IncreaseEnrollment(); err != nil {
			return err
		}
		if err := repos.Courses.Save(ctx, course); err != nil {
			return fmt.Errorf("save course %d: %w", courseID, err)
		}

		enrollment, err = insertActiveEnrollment(ctx, repos, studentID, courseID, s.clock())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int64("enrollmentId", enrollment.ID).Msg("Enrollment confirmed")
	return enrollment, nil
}

// Cancel implements EnrollmentStrategy
func (s *PessimisticEnrollmentStrategy) Cancel(ctx context.Context, enrollmentID int64) error {
	return s.canceller.Cancel(ctx, enrollmentID)
}
