package contention

import (
	"context"
	"fmt"
	"time"

	"github.com/yigit/courseenroll/internal/app/models"
	"github.com/yigit/courseenroll/internal/app/repositories"
	"github.com/yigit/courseenroll/internal/app/services"
	"github.com/yigit/courseenroll/internal/pkg/apperrors"
)

const (
	fixtureCredits = 3
	// single-student courses get more seats than requests so capacity never decides
	singleStudentCapacity = 1000
)

var contendedSlot = models.TimeSlot{
	DayOfWeek: time.Wednesday,
	StartTime: models.MustTimeOfDay(10, 0),
	EndTime:   models.MustTimeOfDay(11, 30),
}

type fixture struct {
	studentIDs []int64
	courseIDs  []int64
}

// createFixture inserts a department, a professor, students and courses
// tagged with a fresh run id
func (r *Runner) createFixture(ctx context.Context, students int, capacities []int, slotFor func(i int) models.TimeSlot) (*fixture, error) {
	runID := newRunID()
	fx := &fixture{}

	err := r.txManager.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		department := &models.Department{Name: "Contention " + runID}
		if err := repos.Catalog.CreateDepartment(ctx, department); err != nil {
			return err
		}
		professor := &models.Professor{Name: "Contention Professor " + runID, DepartmentID: department.ID}
		if err := repos.Catalog.CreateProfessor(ctx, professor); err != nil {
			return err
		}

		for i := 0; i < students; i++ {
			student := &models.Student{
				StudentNumber: fmt.Sprintf("CT-%s-%05d", runID, i+1),
				Name:          fmt.Sprintf("Load Student %d", i+1),
				DepartmentID:  department.ID,
			}
			if err := repos.Catalog.CreateStudent(ctx, student); err != nil {
				return err
			}
			fx.studentIDs = append(fx.studentIDs, student.ID)
		}

		for i, capacity := range capacities {
			course, err := models.NewCourse(
				fmt.Sprintf("CT%s%02d", runID, i+1),
				fmt.Sprintf("Contended Course %d", i+1),
				fixtureCredits,
				capacity,
				0,
				slotFor(i),
				department.ID,
				professor.ID,
			)
			if err != nil {
				return err
			}
			if err := repos.Catalog.CreateCourse(ctx, course); err != nil {
				return err
			}
			fx.courseIDs = append(fx.courseIDs, course.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create fixture: %w", err)
	}
	return fx, nil
}

type courseState struct {
	enrolledCount int
	activeRows    int
}

func (r *Runner) readCourses(ctx context.Context, courseIDs []int64) ([]courseState, error) {
	states := make([]courseState, 0, len(courseIDs))
	err := r.txManager.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		for _, courseID := range courseIDs {
			course, err := repos.Courses.FindByID(ctx, courseID)
			if err != nil {
				return err
			}
			active, err := repos.Enrollments.CountActiveByCourseID(ctx, courseID)
			if err != nil {
				return err
			}
			states = append(states, courseState{enrolledCount: course.EnrolledCount, activeRows: int(active)})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read course state: %w", err)
	}
	return states, nil
}

func (r *Runner) runHotCourse(ctx context.Context, strategyType services.StrategyType) (Result, error) {
	fx, err := r.createFixture(ctx, r.opts.Students, []int{r.opts.Capacity}, func(int) models.TimeSlot { return contendedSlot })
	if err != nil {
		return Result{}, err
	}
	courseID := fx.courseIDs[0]

	requests := make([]request, 0, len(fx.studentIDs))
	for _, studentID := range fx.studentIDs {
		requests = append(requests, request{studentID: studentID, courseID: courseID})
	}
	out, elapsed := r.fire(ctx, strategyType, requests)

	states, err := r.readCourses(ctx, fx.courseIDs)
	if err != nil {
		return Result{}, err
	}
	state := states[0]

	result := Result{
		Scenario:      ScenarioHotCourse,
		Strategy:      strategyType,
		Requests:      len(requests),
		Successes:     out.successes,
		Failures:      out.failures,
		Capacity:      r.opts.Capacity,
		EnrolledCount: state.enrolledCount,
		ActiveRows:    state.activeRows,
		Drift:         state.enrolledCount - state.activeRows,
		Elapsed:       elapsed,
	}
	result.Verdicts = []Verdict{
		check("no oversell", state.activeRows <= r.opts.Capacity && state.enrolledCount <= r.opts.Capacity,
			"active=%d enrolled=%d capacity=%d", state.activeRows, state.enrolledCount, r.opts.Capacity),
		check("counter matches rows", result.Drift == 0,
			"enrolled=%d active=%d", state.enrolledCount, state.activeRows),
		check("successes persisted", out.successes == state.activeRows,
			"successes=%d active=%d", out.successes, state.activeRows),
		rejectionVerdict(result),
	}
	return result, nil
}

func (r *Runner) runSingleStudent(ctx context.Context, strategyType services.StrategyType) (Result, error) {
	capacities := make([]int, r.opts.Courses)
	for i := range capacities {
		capacities[i] = singleStudentCapacity
	}
	fx, err := r.createFixture(ctx, 1, capacities, func(int) models.TimeSlot { return contendedSlot })
	if err != nil {
		return Result{}, err
	}
	studentID := fx.studentIDs[0]

	requests := make([]request, 0, len(fx.courseIDs)*r.opts.RequestsPerCourse)
	for round := 0; round < r.opts.RequestsPerCourse; round++ {
		for _, courseID := range fx.courseIDs {
			requests = append(requests, request{studentID: studentID, courseID: courseID})
		}
	}
	out, elapsed := r.fire(ctx, strategyType, requests)

	states, err := r.readCourses(ctx, fx.courseIDs)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Scenario:  ScenarioSingleStudent,
		Strategy:  strategyType,
		Requests:  len(requests),
		Successes: out.successes,
		Failures:  out.failures,
		Capacity:  singleStudentCapacity * len(states),
		Elapsed:   elapsed,
	}
	for _, state := range states {
		result.EnrolledCount += state.enrolledCount
		result.ActiveRows += state.activeRows
		if d := state.enrolledCount - state.activeRows; d != 0 {
			result.Drift += abs(d)
		}
	}

	credits := result.ActiveRows * fixtureCredits
	result.Verdicts = []Verdict{
		check("no overlapping courses", result.ActiveRows <= 1,
			"student %d holds %d ACTIVE overlapping enrollments", studentID, result.ActiveRows),
		check("credit limit", credits <= models.MaxCredits,
			"credits=%d max=%d", credits, models.MaxCredits),
		check("counter matches rows", result.Drift == 0,
			"enrolled=%d active=%d", result.EnrolledCount, result.ActiveRows),
		check("successes persisted", out.successes == result.ActiveRows,
			"successes=%d active=%d", out.successes, result.ActiveRows),
		rejectionVerdict(result),
	}
	return result, nil
}

// rejectionVerdict fails when any request was rejected for a reason the
// scenario cannot legitimately produce
func rejectionVerdict(result Result) Verdict {
	other := result.UnexpectedRejections()
	if len(other) == 0 {
		return check("rejections expected", true, "-")
	}
	return check("rejections expected", false, "%s", Result{Failures: other}.FailureSummary())
}

func check(name string, passed bool, format string, args ...interface{}) Verdict {
	return Verdict{Name: name, Passed: passed, Detail: fmt.Sprintf(format, args...)}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// expectedRejections lists the codes each scenario may legitimately produce
var expectedRejections = map[Scenario][]string{
	ScenarioHotCourse: {
		apperrors.CodeCourseCapacityExceeded,
		apperrors.CodeEnrollmentConcurrencyConflict,
	},
	ScenarioSingleStudent: {
		apperrors.CodeScheduleConflict,
		apperrors.CodeDuplicateEnrollment,
		apperrors.CodeEnrollmentConcurrencyConflict,
	},
}

// UnexpectedRejections returns failure kinds outside the scenario's expected set
func (r Result) UnexpectedRejections() map[string]int {
	allowed := make(map[string]bool)
	for _, code := range expectedRejections[r.Scenario] {
		allowed[code] = true
	}
	other := make(map[string]int)
	for kind, n := range r.Failures {
		if !allowed[kind] {
			other[kind] = n
		}
	}
	return other
}
