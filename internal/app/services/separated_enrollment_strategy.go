package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/courseenroll/internal/app/models"
	"github.com/yigit/courseenroll/internal/app/repositories"
)

// SeparatedEnrollmentStrategy reserves a seat, finalizes the enrollment and,
// when finalizing fails, releases the seat. Each step is its own transaction,
// so enrolled_count may briefly exceed the ACTIVE rows of a course.
type SeparatedEnrollmentStrategy struct {
	txManager repositories.TxManager
	validator *EnrollmentRuleValidator
	canceller *EnrollmentCancellationProcessor
	clock     func() time.Time
	logger    zerolog.Logger
}

// NewSeparatedEnrollmentStrategy creates a new separated strategy
func NewSeparatedEnrollmentStrategy(
	txManager repositories.TxManager,
	validator *EnrollmentRuleValidator,
	canceller *EnrollmentCancellationProcessor,
	logger zerolog.Logger,
) *SeparatedEnrollmentStrategy {
	return &SeparatedEnrollmentStrategy{
		txManager: txManager,
		validator: validator,
		canceller: canceller,
		clock:     time.Now,
		logger:    logger.With().Str("strategy", string(StrategySeparated)).Logger(),
	}
}

// Type implements EnrollmentStrategy
func (s *SeparatedEnrollmentStrategy) Type() StrategyType {
	return StrategySeparated
}

// Enroll implements EnrollmentStrategy
func (s *SeparatedEnrollmentStrategy) Enroll(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	if err := s.reserveSeat(ctx, courseID); err != nil {
		return nil, asConcurrencyConflict(err, studentID, courseID, 1)
	}

	enrollment, err := s.finalize(ctx, studentID, courseID)
	if err != nil {
		s.releaseSeat(context.WithoutCancel(ctx), courseID)
		err = resolveMissingReference(ctx, s.txManager, err, studentID, courseID)
		return nil, asConcurrencyConflict(err, studentID, courseID, 1)
	}

	s.logger.Debug().Int64("enrollmentId", enrollment.ID).Msg("Enrollment confirmed")
	return enrollment, nil
}

func (s *SeparatedEnrollmentStrategy) reserveSeat(ctx context.Context, courseID int64) error {
	return s.txManager.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		if _, err := findCourse(ctx, repos, courseID); err != nil {
			return err
		}

		affected, err := repos.Courses.IncrementIfAvailable(ctx, courseID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return capacityFailure(ctx, repos, courseID)
		}
		return nil
	})
}

func (s *SeparatedEnrollmentStrategy) finalize(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	var enrollment *models.Enrollment

	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		student, err := lockStudent(ctx, repos, studentID)
		if err != nil {
			return err
		}
		course, err := findCourse(ctx, repos, courseID)
		if err != nil {
			return err
		}

		if err := s.validator.ValidatePreInsert(ctx, repos, student, course); err != nil {
			return err
		}

		enrollment, err = insertActiveEnrollment(ctx, repos, studentID, courseID, s.clock())
		return err
	})
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

// releaseSeat returns a reserved seat. Failures are logged and dropped so the
// caller still sees the finalize error.
func (s *SeparatedEnrollmentStrategy) releaseSeat(ctx context.Context, courseID int64) {
	var affected int64
	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		var err error
		affected, err = repos.Courses.DecrementIfPositive(ctx, courseID)
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("courseId", courseID).Msg("Failed to release reserved seat")
		return
	}
	if affected == 0 {
		s.logger.Warn().Int64("courseId", courseID).Msg("Reserved seat was already released")
	}
}

// Cancel implements EnrollmentStrategy
func (s *SeparatedEnrollmentStrategy) Cancel(ctx context.Context, enrollmentID int64) error {
	return s.canceller.Cancel(ctx, enrollmentID)
}
