package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yigit/courseenroll/internal/app/models"
	"github.com/yigit/courseenroll/internal/app/repositories"
	"github.com/yigit/courseenroll/internal/pkg/apperrors"
)

func TestHotCourseAdmitsExactlyCapacity(t *testing.T) {
	t.Parallel()

	for _, strategyType := range AllStrategyTypes() {
		strategyType := strategyType
		t.Run(string(strategyType), func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)
			strategy := env.router(nil).Get(strategyType)
			courseID := env.addCourse(t, 3, 1, slotOf(t, time.Monday, 9, 11))

			const requesters = 100
			studentIDs := make([]int64, requesters)
			for i := range studentIDs {
				studentIDs[i] = env.addStudent(t)
			}

			var (
				wg        sync.WaitGroup
				successes atomic.Int32
				rejected  atomic.Int32
			)
			start := make(chan struct{})
			for _, studentID := range studentIDs {
				wg.Add(1)
				go func(studentID int64) {
					defer wg.Done()
					<-start
					_, err := strategy.Enroll(context.Background(), studentID, courseID)
					switch {
					case err == nil:
						successes.Add(1)
					case errors.Is(err, apperrors.ErrCourseCapacityExceeded),
						errors.Is(err, apperrors.ErrEnrollmentConcurrencyConflict):
						rejected.Add(1)
					default:
						t.Errorf("student %d: unexpected error %v", studentID, err)
					}
				}(studentID)
			}
			close(start)
			wg.Wait()

			if successes.Load() != 1 || rejected.Load() != requesters-1 {
				t.Fatalf("expected 1 success and %d rejections, got %d and %d",
					requesters-1, successes.Load(), rejected.Load())
			}
			env.assertConsistent(t, courseID, 1)
		})
	}
}

func TestSingleStudentOverlappingCourses(t *testing.T) {
	t.Parallel()

	for _, strategyType := range AllStrategyTypes() {
		strategyType := strategyType
		t.Run(string(strategyType), func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)
			strategy := env.router(nil).Get(strategyType)
			studentID := env.addStudent(t)
			first := env.addCourse(t, 3, 10, slotOf(t, time.Tuesday, 9, 11))
			second := env.addCourse(t, 3, 10, slotOf(t, time.Tuesday, 10, 12))

			errs := make(chan error, 2)
			var wg sync.WaitGroup
			for _, courseID := range []int64{first, second} {
				wg.Add(1)
				go func(courseID int64) {
					defer wg.Done()
					_, err := strategy.Enroll(context.Background(), studentID, courseID)
					errs <- err
				}(courseID)
			}
			wg.Wait()
			close(errs)

			var successes, conflicts int
			for err := range errs {
				switch {
				case err == nil:
					successes++
				case errors.Is(err, apperrors.ErrScheduleConflict):
					conflicts++
				default:
					t.Fatalf("unexpected error %v", err)
				}
			}
			if successes != 1 || conflicts != 1 {
				t.Fatalf("expected one success and one schedule conflict, got %d and %d", successes, conflicts)
			}

			total := env.course(t, first).EnrolledCount + env.course(t, second).EnrolledCount
			if total != 1 {
				t.Fatalf("expected 1 seat taken across both courses, got %d", total)
			}
			env.assertConsistent(t, first, env.course(t, first).EnrolledCount)
			env.assertConsistent(t, second, env.course(t, second).EnrolledCount)
		})
	}
}

func TestCreditLimitRejectsWithoutWriting(t *testing.T) {
	t.Parallel()

	for _, strategyType := range AllStrategyTypes() {
		strategyType := strategyType
		t.Run(string(strategyType), func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)
			strategy := env.router(nil).Get(strategyType)
			ctx := context.Background()
			studentID := env.addStudent(t)

			// 4 x 4 credits = 16
			for day := time.Monday; day <= time.Thursday; day++ {
				courseID := env.addCourse(t, 4, 10, slotOf(t, day, 9, 11))
				if _, err := strategy.Enroll(ctx, studentID, courseID); err != nil {
					t.Fatalf("setup enrollment: %v", err)
				}
			}

			target := env.addCourse(t, 3, 10, slotOf(t, time.Friday, 9, 11))
			_, err := strategy.Enroll(ctx, studentID, target)
			if !errors.Is(err, apperrors.ErrCreditLimitExceeded) {
				t.Fatalf("expected credit limit error, got %v", err)
			}
			env.assertConsistent(t, target, 0)
		})
	}
}

func TestEnrollCancelReenroll(t *testing.T) {
	t.Parallel()

	for _, strategyType := range AllStrategyTypes() {
		strategyType := strategyType
		t.Run(string(strategyType), func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)
			strategy := env.router(nil).Get(strategyType)
			ctx := context.Background()
			studentID := env.addStudent(t)
			courseID := env.addCourse(t, 3, 5, slotOf(t, time.Wednesday, 13, 15))

			first, err := strategy.Enroll(ctx, studentID, courseID)
			if err != nil {
				t.Fatalf("enroll: %v", err)
			}
			if err := strategy.Cancel(ctx, first.ID); err != nil {
				t.Fatalf("cancel: %v", err)
			}
			env.assertConsistent(t, courseID, 0)

			second, err := strategy.Enroll(ctx, studentID, courseID)
			if err != nil {
				t.Fatalf("re-enroll: %v", err)
			}
			if second.ID == first.ID {
				t.Fatal("re-enrollment reused the canceled row")
			}
			env.assertConsistent(t, courseID, 1)

			canceled := env.enrollment(t, first.ID)
			if canceled.Status != models.EnrollmentStatusCanceled || canceled.CanceledAt == nil {
				t.Fatalf("expected first enrollment CANCELED with timestamp, got %+v", canceled)
			}
			if env.enrollment(t, second.ID).Status != models.EnrollmentStatusActive {
				t.Fatal("expected second enrollment ACTIVE")
			}
		})
	}
}

func TestCancelTwiceIsRejected(t *testing.T) {
	t.Parallel()

	for _, strategyType := range AllStrategyTypes() {
		strategyType := strategyType
		t.Run(string(strategyType), func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)
			strategy := env.router(nil).Get(strategyType)
			ctx := context.Background()
			courseID := env.addCourse(t, 3, 5, slotOf(t, time.Monday, 9, 10))

			enrollment, err := strategy.Enroll(ctx, env.addStudent(t), courseID)
			if err != nil {
				t.Fatalf("enroll: %v", err)
			}
			if err := strategy.Cancel(ctx, enrollment.ID); err != nil {
				t.Fatalf("first cancel: %v", err)
			}
			if err := strategy.Cancel(ctx, enrollment.ID); !errors.Is(err, apperrors.ErrEnrollmentCancellationNotAllowed) {
				t.Fatalf("expected cancellation not allowed, got %v", err)
			}
			env.assertConsistent(t, courseID, 0)

			if err := strategy.Cancel(ctx, 424242); !errors.Is(err, apperrors.ErrEnrollmentNotFound) {
				t.Fatalf("expected enrollment not found, got %v", err)
			}
		})
	}
}

func TestDuplicateAndMissingReferences(t *testing.T) {
	t.Parallel()

	for _, strategyType := range AllStrategyTypes() {
		strategyType := strategyType
		t.Run(string(strategyType), func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)
			strategy := env.router(nil).Get(strategyType)
			ctx := context.Background()
			studentID := env.addStudent(t)
			courseID := env.addCourse(t, 3, 5, slotOf(t, time.Thursday, 9, 10))

			if _, err := strategy.Enroll(ctx, studentID, courseID); err != nil {
				t.Fatalf("enroll: %v", err)
			}
			if _, err := strategy.Enroll(ctx, studentID, courseID); !errors.Is(err, apperrors.ErrDuplicateEnrollment) {
				t.Fatalf("expected duplicate enrollment, got %v", err)
			}
			if _, err := strategy.Enroll(ctx, 9999, courseID); !errors.Is(err, apperrors.ErrStudentNotFound) {
				t.Fatalf("expected student not found, got %v", err)
			}
			if _, err := strategy.Enroll(ctx, studentID, 9999); !errors.Is(err, apperrors.ErrCourseNotFound) {
				t.Fatalf("expected course not found, got %v", err)
			}
			env.assertConsistent(t, courseID, 1)
		})
	}
}

type failingDecrementCourses struct {
	repositories.CourseStore
	calls *atomic.Int32
}

func (c failingDecrementCourses) DecrementIfPositive(context.Context, int64) (int64, error) {
	c.calls.Add(1)
	return 0, errors.New("connection reset")
}

func TestSeparatedReleaseFailureKeepsFinalizeError(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	var releases atomic.Int32
	txManager := &wrappingTxManager{inner: env.store, wrap: func(repos repositories.TxRepositories) repositories.TxRepositories {
		repos.Courses = failingDecrementCourses{CourseStore: repos.Courses, calls: &releases}
		return repos
	}}
	strategy := env.router(txManager).Get(StrategySeparated)

	studentID := env.addStudent(t)
	taken := env.addCourse(t, 3, 5, slotOf(t, time.Monday, 9, 11))
	clashing := env.addCourse(t, 3, 5, slotOf(t, time.Monday, 10, 12))
	if _, err := strategy.Enroll(ctx, studentID, taken); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	_, err := strategy.Enroll(ctx, studentID, clashing)
	if !errors.Is(err, apperrors.ErrScheduleConflict) {
		t.Fatalf("expected schedule conflict, got %v", err)
	}
	if releases.Load() != 1 {
		t.Fatalf("expected one release attempt, got %d", releases.Load())
	}

	// the reserved seat leaks: this is the drift the separated strategy accepts
	if course := env.course(t, clashing); course.EnrolledCount != 1 {
		t.Fatalf("expected leaked seat, got enrolledCount %d", course.EnrolledCount)
	}
	if env.activeCount(t, clashing) != 0 {
		t.Fatal("no ACTIVE row should exist for the clashing course")
	}
}

func TestSeparatedReleasesSeatOnFinalizeFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	strategy := env.router(nil).Get(StrategySeparated)
	courseID := env.addCourse(t, 3, 1, slotOf(t, time.Friday, 9, 11))

	_, err := strategy.Enroll(context.Background(), 777, courseID)
	if !errors.Is(err, apperrors.ErrStudentNotFound) {
		t.Fatalf("expected student not found, got %v", err)
	}
	env.assertConsistent(t, courseID, 0)
}

type lockTimeoutCourses struct {
	repositories.CourseStore
	remaining *atomic.Int32
	calls     *atomic.Int32
}

func (c lockTimeoutCourses) FindByIDForLock(ctx context.Context, id int64) (*models.Course, error) {
	c.calls.Add(1)
	if c.remaining.Add(-1) >= 0 {
		return nil, repositories.ErrLockTimeout
	}
	return c.CourseStore.FindByIDForLock(ctx, id)
}

func TestPessimisticRetriesLockTimeouts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		failures  int32
		wantErr   error
		wantCalls int32
	}{
		{name: "succeeds on last attempt", failures: 2, wantCalls: 3},
		{name: "gives up after three attempts", failures: 3, wantErr: apperrors.ErrEnrollmentConcurrencyConflict, wantCalls: 3},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)

			var remaining, calls atomic.Int32
			remaining.Store(tt.failures)
			txManager := &wrappingTxManager{inner: env.store, wrap: func(repos repositories.TxRepositories) repositories.TxRepositories {
				repos.Courses = lockTimeoutCourses{CourseStore: repos.Courses, remaining: &remaining, calls: &calls}
				return repos
			}}
			strategy := env.router(txManager).Get(StrategyPessimistic)
			courseID := env.addCourse(t, 3, 5, slotOf(t, time.Monday, 9, 10))

			_, err := strategy.Enroll(context.Background(), env.addStudent(t), courseID)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if calls.Load() != tt.wantCalls {
				t.Fatalf("expected %d lock attempts, got %d", tt.wantCalls, calls.Load())
			}
		})
	}
}

type staleCourses struct {
	repositories.CourseStore
	saves *atomic.Int32
}

func (c staleCourses) Save(context.Context, *models.Course) error {
	c.saves.Add(1)
	return repositories.ErrVersionConflict
}

func TestOptimisticGivesUpAfterRepeatedVersionConflicts(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	var saves atomic.Int32
	txManager := &wrappingTxManager{inner: env.store, wrap: func(repos repositories.TxRepositories) repositories.TxRepositories {
		repos.Courses = staleCourses{CourseStore: repos.Courses, saves: &saves}
		return repos
	}}
	strategy := env.router(txManager).Get(StrategyOptimistic)
	courseID := env.addCourse(t, 3, 5, slotOf(t, time.Monday, 9, 10))

	_, err := strategy.Enroll(context.Background(), env.addStudent(t), courseID)
	if !errors.Is(err, apperrors.ErrEnrollmentConcurrencyConflict) {
		t.Fatalf("expected concurrency conflict, got %v", err)
	}
	if saves.Load() != MaxEnrollmentAttempts {
		t.Fatalf("expected %d save attempts, got %d", MaxEnrollmentAttempts, saves.Load())
	}
	env.assertConsistent(t, courseID, 0)
}

// staleOnceCourses fails the first Save with a version conflict.
type staleOnceCourses struct {
	repositories.CourseStore
	saves *atomic.Int32
}

func (c staleOnceCourses) Save(ctx context.Context, course *models.Course) error {
	if c.saves.Add(1) == 1 {
		return repositories.ErrVersionConflict
	}
	return c.CourseStore.Save(ctx, course)
}

// lockTimeoutStudents fails every student lock after the first.
type lockTimeoutStudents struct {
	repositories.StudentStore
	locks *atomic.Int32
}

func (s lockTimeoutStudents) FindByIDForLock(ctx context.Context, id int64) (*models.Student, error) {
	if s.locks.Add(1) > 1 {
		return nil, repositories.ErrLockTimeout
	}
	return s.StudentStore.FindByIDForLock(ctx, id)
}

func TestOptimisticLockFailureReportsAttemptsMade(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	var saves, locks atomic.Int32
	txManager := &wrappingTxManager{inner: env.store, wrap: func(repos repositories.TxRepositories) repositories.TxRepositories {
		repos.Courses = staleOnceCourses{CourseStore: repos.Courses, saves: &saves}
		repos.Students = lockTimeoutStudents{StudentStore: repos.Students, locks: &locks}
		return repos
	}}
	strategy := env.router(txManager).Get(StrategyOptimistic)
	courseID := env.addCourse(t, 3, 5, slotOf(t, time.Monday, 9, 10))

	_, err := strategy.Enroll(context.Background(), env.addStudent(t), courseID)
	if !errors.Is(err, apperrors.ErrEnrollmentConcurrencyConflict) {
		t.Fatalf("expected concurrency conflict, got %v", err)
	}
	var customErr *apperrors.CustomError
	if !errors.As(err, &customErr) {
		t.Fatalf("expected a custom error, got %T", err)
	}
	if got := customErr.Details["retryCount"]; got != 2 {
		t.Fatalf("expected retryCount 2, got %v", got)
	}
	env.assertConsistent(t, courseID, 0)
}

// pausingEnrollments holds the first two FindActiveByStudentID callers until
// both arrive or the pause elapses, widening the read-validate-write window.
type pausingEnrollments struct {
	repositories.EnrollmentStore
	arrivals *atomic.Int32
	both     chan struct{}
}

func (e pausingEnrollments) FindActiveByStudentID(ctx context.Context, studentID int64) ([]*models.Enrollment, error) {
	if n := e.arrivals.Add(1); n <= 2 {
		if n == 2 {
			close(e.both)
		}
		select {
		case <-e.both:
		case <-time.After(100 * time.Millisecond):
		}
	}
	return e.EnrollmentStore.FindActiveByStudentID(ctx, studentID)
}

func TestOptimisticStudentLockPreventsDoubleBooking(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	var arrivals atomic.Int32
	both := make(chan struct{})
	txManager := &wrappingTxManager{inner: env.store, wrap: func(repos repositories.TxRepositories) repositories.TxRepositories {
		repos.Enrollments = pausingEnrollments{EnrollmentStore: repos.Enrollments, arrivals: &arrivals, both: both}
		return repos
	}}
	strategy := env.router(txManager).Get(StrategyOptimistic)

	studentID := env.addStudent(t)
	first := env.addCourse(t, 3, 5, slotOf(t, time.Monday, 9, 11))
	second := env.addCourse(t, 3, 5, slotOf(t, time.Monday, 10, 12))

	errs := make(chan error, 2)
	for _, courseID := range []int64{first, second} {
		go func(courseID int64) {
			_, err := strategy.Enroll(context.Background(), studentID, courseID)
			errs <- err
		}(courseID)
	}

	var successes int
	for i := 0; i < 2; i++ {
		err := <-errs
		if err == nil {
			successes++
			continue
		}
		if !errors.Is(err, apperrors.ErrScheduleConflict) {
			t.Fatalf("unexpected error %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected the student lock to admit exactly one enrollment, got %d", successes)
	}
}
