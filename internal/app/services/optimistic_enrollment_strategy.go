package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/courseenroll/internal/app/models"
	"github.com/yigit/courseenroll/internal/app/repositories"
)

// OptimisticEnrollmentStrategy reads the course without a lock and relies on
// the version check when saving it. Version conflicts are retried in a fresh
// transaction. The student row is still locked so two requests of the same
// student cannot both pass the credit and schedule checks.
type OptimisticEnrollmentStrategy struct {
	txManager repositories.TxManager
	validator *EnrollmentRuleValidator
	canceller *EnrollmentCancellationProcessor
	clock     func() time.Time
	logger    zerolog.Logger
}

// NewOptimisticEnrollmentStrategy creates a new optimistic strategy
func NewOptimisticEnrollmentStrategy(
	txManager repositories.TxManager,
	validator *EnrollmentRuleValidator,
	canceller *EnrollmentCancellationProcessor,
	logger zerolog.Logger,
) *OptimisticEnrollmentStrategy {
	return &OptimisticEnrollmentStrategy{
		txManager: txManager,
		validator: validator,
		canceller: canceller,
		clock:     time.Now,
		logger:    logger.With().Str("strategy", string(StrategyOptimistic)).Logger(),
	}
}

// Type implements EnrollmentStrategy
func (s *OptimisticEnrollmentStrategy) Type() StrategyType {
	return StrategyOptimistic
}

// Enroll implements EnrollmentStrategy
func (s *OptimisticEnrollmentStrategy) Enroll(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	retryable := func(err error) bool {
		return errors.Is(err, repositories.ErrVersionConflict)
	}

	attempts := 0
	enrollment, err := retryEnrollment(ctx, s.logger, studentID, courseID, retryable, func(ctx context.Context) (*models.Enrollment, error) {
		attempts++
		return s.enrollOnce(ctx, studentID, courseID)
	})
	if err != nil {
		// a student lock failure ends the loop on whichever attempt hit it
		return nil, asConcurrencyConflict(err, studentID, courseID, attempts)
	}
	return enrollment, nil
}

func (s *OptimisticEnrollmentStrategy) enrollOnce(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	var enrollment *models.Enrollment

	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		course, err := findCourse(ctx, repos, courseID)
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
			return err
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
func (s *OptimisticEnrollmentStrategy) Cancel(ctx context.Context, enrollmentID int64) error {
	return s.canceller.Cancel(ctx, enrollmentID)
}
