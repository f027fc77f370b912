package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/courseenroll/internal/app/models"
	"github.com/yigit/courseenroll/internal/pkg/apperrors"
)

// StrategyType identifies a concurrency-control technique
type StrategyType string

const (
	StrategyPessimistic StrategyType = "PESSIMISTIC"
	StrategyOptimistic  StrategyType = "OPTIMISTIC"
	StrategyAtomic      StrategyType = "ATOMIC"
	StrategySeparated   StrategyType = "SEPARATED"
)

// MaxEnrollmentAttempts bounds the retry loops of the pessimistic and
// optimistic strategies.
const MaxEnrollmentAttempts = 3

// ErrUnknownStrategy is returned by ParseStrategyType for unsupported input.
var ErrUnknownStrategy = errors.New("unknown enrollment strategy")

// AllStrategyTypes lists every strategy the router must serve.
func AllStrategyTypes() []StrategyType {
	return []StrategyType{StrategyPessimistic, StrategyOptimistic, StrategyAtomic, StrategySeparated}
}

// ParseStrategyType converts external input ("atomic", "ATOMIC") into a StrategyType.
func ParseStrategyType(value string) (StrategyType, error) {
	candidate := StrategyType(strings.ToUpper(strings.TrimSpace(value)))
	for _, strategyType := range AllStrategyTypes() {
		if candidate == strategyType {
			return strategyType, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, value)
}

// EnrollmentStrategy enrolls and cancels under one concurrency-control technique.
type EnrollmentStrategy interface {
	Type() StrategyType
	Enroll(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error)
	Cancel(ctx context.Context, enrollmentID int64) error
}

// retryEnrollment runs attempt up to MaxEnrollmentAttempts times while it
// fails with a retryable error, then reports a concurrency conflict.
func retryEnrollment(
	ctx context.Context,
	logger zerolog.Logger,
	studentID, courseID int64,
	retryable func(error) bool,
	attempt func(ctx context.Context) (*models.Enrollment, error),
) (*models.Enrollment, error) {
	var lastErr error
	for i := 1; i <= MaxEnrollmentAttempts; i++ {
		enrollment, err := attempt(ctx)
		if err == nil {
			return enrollment, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err

		logger.Warn().
			Err(err).
			Int("attempt", i).
			Int64("studentId", studentID).
			Int64("courseId", courseID).
			Msg("Enrollment attempt lost a concurrency race")

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
	}

	logger.Warn().
		Err(lastErr).
		Int64("studentId", studentID).
		Int64("courseId", courseID).
		Msg("Enrollment retries exhausted")
	return nil, apperrors.EnrollmentConcurrencyConflict(studentID, courseID, MaxEnrollmentAttempts)
}
