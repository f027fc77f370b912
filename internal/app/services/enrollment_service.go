package services

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yigit/courseenroll/internal/app/models"
)

const tracerName = "github.com/yigit/courseenroll/internal/app/services"

// EnrollmentService is the entry point for enrollment requests. It routes
// each call to a concurrency strategy and traces it.
type EnrollmentService struct {
	router          *EnrollmentStrategyRouter
	defaultStrategy StrategyType
	tracer          trace.Tracer
	logger          zerolog.Logger
}

// NewEnrollmentService creates a new enrollment service. defaultStrategy must
// be registered in router.
func NewEnrollmentService(router *EnrollmentStrategyRouter, defaultStrategy StrategyType, logger zerolog.Logger) *EnrollmentService {
	// fail at startup rather than on the first request
	router.Get(defaultStrategy)

	return &EnrollmentService{
		router:          router,
		defaultStrategy: defaultStrategy,
		tracer:          otel.Tracer(tracerName),
		logger:          logger,
	}
}

// DefaultStrategy returns the strategy used by Enroll and Cancel
func (s *EnrollmentService) DefaultStrategy() StrategyType {
	return s.defaultStrategy
}

// Enroll enrolls with the default strategy
func (s *EnrollmentService) Enroll(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	return s.EnrollWith(ctx, s.defaultStrategy, studentID, courseID)
}

// EnrollPessimistic enrolls with row locks
func (s *EnrollmentService) EnrollPessimistic(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	return s.EnrollWith(ctx, StrategyPessimistic, studentID, courseID)
}

// EnrollOptimistic enrolls with version checks
func (s *EnrollmentService) EnrollOptimistic(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	return s.EnrollWith(ctx, StrategyOptimistic, studentID, courseID)
}

// EnrollAtomic enrolls with a guarded counter update
func (s *EnrollmentService) EnrollAtomic(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	return s.EnrollWith(ctx, StrategyAtomic, studentID, courseID)
}

// EnrollSeparated enrolls with reserve, finalize and release steps
func (s *EnrollmentService) EnrollSeparated(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	return s.EnrollWith(ctx, StrategySeparated, studentID, courseID)
}

// EnrollWith enrolls with the given strategy
func (s *EnrollmentService) EnrollWith(ctx context.Context, strategyType StrategyType, studentID, courseID int64) (*models.Enrollment, error) {
	ctx, span := s.tracer.Start(ctx, "enrollment.enroll", trace.WithAttributes(
		attribute.String("enrollment.strategy", string(strategyType)),
		attribute.Int64("enrollment.student_id", studentID),
		attribute.Int64("enrollment.course_id", courseID),
	))
	defer span.End()

	enrollment, err := s.router.Get(strategyType).Enroll(ctx, studentID, courseID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Debug().
			Err(err).
			Str("strategy", string(strategyType)).
			Int64("studentId", studentID).
			Int64("courseId", courseID).
			Msg("Enrollment rejected")
		return nil, err
	}

	span.SetAttributes(attribute.Int64("enrollment.id", enrollment.ID))
	return enrollment, nil
}

// Cancel cancels an enrollment through the default strategy
func (s *EnrollmentService) Cancel(ctx context.Context, enrollmentID int64) error {
	ctx, span := s.tracer.Start(ctx, "enrollment.cancel", trace.WithAttributes(
		attribute.String("enrollment.strategy", string(s.defaultStrategy)),
		attribute.Int64("enrollment.id", enrollmentID),
	))
	defer span.End()

	if err := s.router.Get(s.defaultStrategy).Cancel(ctx, enrollmentID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
