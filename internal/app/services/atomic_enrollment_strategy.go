package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/courseenroll/internal/app/models"
	"github.com/yigit/courseenroll/internal/app/repositories"
)

// AtomicEnrollmentStrategy inserts the enrollment row first and takes the seat
// with one guarded UPDATE. A failed rule check rolls both back together.
type AtomicEnrollmentStrategy struct {
	txManager repositories.TxManager
	validator *EnrollmentRuleValidator
	canceller *EnrollmentCancellationProcessor
	clock     func() time.Time
	logger    zerolog.Logger
}

// NewAtomicEnrollmentStrategy creates a new atomic strategy
func NewAtomicEnrollmentStrategy(
	txManager repositories.TxManager,
	validator *EnrollmentRuleValidator,
	canceller *EnrollmentCancellationProcessor,
	logger zerolog.Logger,
) *AtomicEnrollmentStrategy {
	return &AtomicEnrollmentStrategy{
		txManager: txManager,
		validator: validator,
		canceller: canceller,
		clock:     time.Now,
		logger:    logger.With().Str("strategy", string(StrategyAtomic)).Logger(),
	}
}

// Type implements EnrollmentStrategy
func (s *AtomicEnrollmentStrategy) Type() StrategyType {
	return StrategyAtomic
}

// Enroll implements EnrollmentStrategy
func (s *AtomicEnrollmentStrategy) Enroll(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	var enrollment *models.Enrollment

	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		var err error
		enrollment, err = insertActiveEnrollment(ctx, repos, studentID, courseID, s.clock())
		if err != nil {
			return err
		}

		affected, err := repos.Courses.IncrementIfAvailable(ctx, courseID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return capacityFailure(ctx, repos, courseID)
		}

		course, err := findCourse(ctx, repos, courseID)
		if err != nil {
			return err
		}
		student, err := lockStudent(ctx, repos, studentID)
		if err != nil {
			return err
		}

		return s.validator.ValidateAfterInsert(ctx, repos, student, course, enrollment.ID)
	})
	if err != nil {
		err = resolveMissingReference(ctx, s.txManager, err, studentID, courseID)
		return nil, asConcurrencyConflict(err, studentID, courseID, 1)
	}

	s.logger.Debug().Int64("enrollmentId", enrollment.ID).Msg("Enrollment confirmed")
	return enrollment, nil
}

// Cancel implements EnrollmentStrategy
func (s *AtomicEnrollmentStrategy) Cancel(ctx context.Context, enrollmentID int64) error {
	return s.canceller.Cancel(ctx, enrollmentID)
}
