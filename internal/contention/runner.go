// Package contention fires concurrent enrollment requests at a store and
// checks that every strategy keeps seats, counters and ACTIVE rows consistent.
package contention

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yigit/courseenroll/internal/app/models"
	"github.com/yigit/courseenroll/internal/app/repositories"
	"github.com/yigit/courseenroll/internal/app/services"
	"github.com/yigit/courseenroll/internal/pkg/apperrors"
)

// Scenario names a contention pattern
type Scenario string

const (
	// ScenarioHotCourse sends many students at one small course.
	ScenarioHotCourse Scenario = "hot-course"
	// ScenarioSingleStudent sends one student at several overlapping courses at once.
	ScenarioSingleStudent Scenario = "single-student"
)

// Failure kinds that are not domain error codes
const (
	FailureCanceled   = "CANCELED"
	FailureUnexpected = "UNEXPECTED"
)

// Enroller is the part of services.EnrollmentService the runner drives
type Enroller interface {
	EnrollWith(ctx context.Context, strategyType services.StrategyType, studentID, courseID int64) (*models.Enrollment, error)
}

// Options sizes the scenarios
type Options struct {
	Strategies []services.StrategyType
	Scenarios  []Scenario
	// Students and Capacity shape the hot-course scenario.
	Students int
	Capacity int
	// Courses and RequestsPerCourse shape the single-student scenario.
	Courses           int
	RequestsPerCourse int
	// Concurrency bounds the number of in-flight requests.
	Concurrency int
}

// DefaultOptions returns the 100 students for 1 seat setup
func DefaultOptions() Options {
	return Options{
		Strategies:        services.AllStrategyTypes(),
		Scenarios:         []Scenario{ScenarioHotCourse, ScenarioSingleStudent},
		Students:          100,
		Capacity:          1,
		Courses:           5,
		RequestsPerCourse: 4,
		Concurrency:       32,
	}
}

// Validate rejects options no scenario can run with
func (o Options) Validate() error {
	switch {
	case len(o.Strategies) == 0:
		return errors.New("at least one strategy is required")
	case len(o.Scenarios) == 0:
		return errors.New("at least one scenario is required")
	case o.Students < 1 || o.Capacity < 1:
		return errors.New("students and capacity must be positive")
	case o.Courses < 1 || o.RequestsPerCourse < 1:
		return errors.New("courses and requests per course must be positive")
	case o.Concurrency < 1:
		return errors.New("concurrency must be positive")
	}
	for _, scenario := range o.Scenarios {
		if scenario != ScenarioHotCourse && scenario != ScenarioSingleStudent {
			return fmt.Errorf("unknown scenario %q", scenario)
		}
	}
	return nil
}

// Verdict is one invariant check of a run
type Verdict struct {
	Name   string
	Passed bool
	Detail string
}

// Result describes one scenario run under one strategy
type Result struct {
	Scenario      Scenario
	Strategy      services.StrategyType
	Requests      int
	Successes     int
	Failures      map[string]int
	Capacity      int
	EnrolledCount int
	ActiveRows    int
	Drift         int
	Elapsed       time.Duration
	Verdicts      []Verdict
}

// Passed reports whether every verdict held
func (r Result) Passed() bool {
	for _, v := range r.Verdicts {
		if !v.Passed {
			return false
		}
	}
	return true
}

// FailureSummary renders failures as "CODE=n" pairs in code order
func (r Result) FailureSummary() string {
	if len(r.Failures) == 0 {
		return "-"
	}
	kinds := make([]string, 0, len(r.Failures))
	for kind := range r.Failures {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		parts = append(parts, fmt.Sprintf("%s=%d", kind, r.Failures[kind]))
	}
	return strings.Join(parts, ", ")
}

// Runner executes contention scenarios
type Runner struct {
	txManager repositories.TxManager
	enroller  Enroller
	opts      Options
	logger    zerolog.Logger
}

// NewRunner creates a runner. Fixtures are created through txManager, requests go through enroller.
func NewRunner(txManager repositories.TxManager, enroller Enroller, opts Options, logger zerolog.Logger) (*Runner, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Runner{
		txManager: txManager,
		enroller:  enroller,
		opts:      opts,
		logger:    logger.With().Str("component", "contention").Logger(),
	}, nil
}

// Run executes every scenario for every strategy, each on fresh fixtures
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, len(r.opts.Strategies)*len(r.opts.Scenarios))
	for _, strategyType := range r.opts.Strategies {
		for _, scenario := range r.opts.Scenarios {
			var (
				result Result
				err    error
			)
			switch scenario {
			case ScenarioHotCourse:
				result, err = r.runHotCourse(ctx, strategyType)
			case ScenarioSingleStudent:
				result, err = r.runSingleStudent(ctx, strategyType)
			}
			if err != nil {
				return results, fmt.Errorf("%s/%s: %w", scenario, strategyType, err)
			}

			r.logger.Info().
				Str("scenario", string(scenario)).
				Str("strategy", string(strategyType)).
				Int("successes", result.Successes).
				Int("activeRows", result.ActiveRows).
				Int("drift", result.Drift).
				Bool("passed", result.Passed()).
				Dur("elapsed", result.Elapsed).
				Msg("Scenario finished")
			results = append(results, result)
		}
	}
	return results, nil
}

type request struct {
	studentID int64
	courseID  int64
}

type outcomes struct {
	mu        sync.Mutex
	successes int
	failures  map[string]int
}

func (o *outcomes) record(kind string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if kind == "" {
		o.successes++
		return
	}
	o.failures[kind]++
}

// fire sends every request with at most Concurrency in flight
func (r *Runner) fire(ctx context.Context, strategyType services.StrategyType, requests []request) (*outcomes, time.Duration) {
	out := &outcomes{failures: make(map[string]int)}
	started := time.Now()

	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)
	for _, req := range requests {
		g.Go(func() error {
			_, err := r.enroller.EnrollWith(ctx, strategyType, req.studentID, req.courseID)
			kind := classify(err)
			if kind == FailureUnexpected {
				r.logger.Warn().Err(err).
					Str("strategy", string(strategyType)).
					Int64("studentId", req.studentID).
					Int64("courseId", req.courseID).
					Msg("Unexpected enrollment failure")
			}
			out.record(kind)
			return nil
		})
	}
	_ = g.Wait()

	return out, time.Since(started)
}

// classify returns "" for success, the domain error code, or a fallback kind
func classify(err error) string {
	if err == nil {
		return ""
	}
	var customErr *apperrors.CustomError
	if errors.As(err, &customErr) && customErr.Code != "" {
		return customErr.Code
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return FailureCanceled
	}
	return FailureUnexpected
}

func newRunID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
