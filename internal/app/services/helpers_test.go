package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/courseenroll/internal/app/models"
	"github.com/yigit/courseenroll/internal/app/repositories"
	"github.com/yigit/courseenroll/internal/app/repositories/memstore"
)

type testEnv struct {
	store        *memstore.Store
	departmentID int64
	professorID  int64
	seq          int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{store: memstore.New(5 * time.Second)}
	err := env.store.WithTx(context.Background(), func(ctx context.Context, repos repositories.TxRepositories) error {
		department := &models.Department{Name: "Computer Engineering"}
		if err := repos.Catalog.CreateDepartment(ctx, department); err != nil {
			return err
		}
		professor := &models.Professor{Name: "Grace Hopper", DepartmentID: department.ID}
		if err := repos.Catalog.CreateProfessor(ctx, professor); err != nil {
			return err
		}
		env.departmentID, env.professorID = department.ID, professor.ID
		return nil
	})
	if err != nil {
		t.Fatalf("seed reference data: %v", err)
	}
	return env
}

// router builds every strategy on txManager, defaulting to the plain store.
func (e *testEnv) router(txManager repositories.TxManager) *EnrollmentStrategyRouter {
	if txManager == nil {
		txManager = e.store
	}
	return NewDefaultEnrollmentStrategyRouter(txManager, zerolog.Nop())
}

func (e *testEnv) addStudent(t *testing.T) int64 {
	t.Helper()

	e.seq++
	student := &models.Student{
		StudentNumber: fmt.Sprintf("2026%04d", e.seq),
		Name:          fmt.Sprintf("Student %d", e.seq),
		DepartmentID:  e.departmentID,
	}
	err := e.store.WithTx(context.Background(), func(ctx context.Context, repos repositories.TxRepositories) error {
		return repos.Catalog.CreateStudent(ctx, student)
	})
	if err != nil {
		t.Fatalf("create student: %v", err)
	}
	return student.ID
}

func (e *testEnv) addCourse(t *testing.T, credits, capacity int, slot models.TimeSlot) int64 {
	t.Helper()

	e.seq++
	course := &models.Course{
		Code:         fmt.Sprintf("CSE%03d", e.seq),
		Name:         fmt.Sprintf("Course %d", e.seq),
		Credits:      credits,
		Capacity:     capacity,
		TimeSlot:     slot,
		DepartmentID: e.departmentID,
		ProfessorID:  e.professorID,
	}
	err := e.store.WithTx(context.Background(), func(ctx context.Context, repos repositories.TxRepositories) error {
		return repos.Catalog.CreateCourse(ctx, course)
	})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	return course.ID
}

func (e *testEnv) course(t *testing.T, id int64) *models.Course {
	t.Helper()

	var course *models.Course
	err := e.store.WithTx(context.Background(), func(ctx context.Context, repos repositories.TxRepositories) error {
		var err error
		course, err = repos.Courses.FindByID(ctx, id)
		return err
	})
	if err != nil {
		t.Fatalf("find course %d: %v", id, err)
	}
	return course
}

func (e *testEnv) enrollment(t *testing.T, id int64) *models.Enrollment {
	t.Helper()

	var enrollment *models.Enrollment
	err := e.store.WithTx(context.Background(), func(ctx context.Context, repos repositories.TxRepositories) error {
		var err error
		enrollment, err = repos.Enrollments.FindByID(ctx, id)
		return err
	})
	if err != nil {
		t.Fatalf("find enrollment %d: %v", id, err)
	}
	return enrollment
}

func (e *testEnv) activeCount(t *testing.T, courseID int64) int64 {
	t.Helper()

	var count int64
	err := e.store.WithTx(context.Background(), func(ctx context.Context, repos repositories.TxRepositories) error {
		var err error
		count, err = repos.Enrollments.CountActiveByCourseID(ctx, courseID)
		return err
	})
	if err != nil {
		t.Fatalf("count active enrollments: %v", err)
	}
	return count
}

// assertConsistent checks enrolledCount against ACTIVE rows and capacity.
func (e *testEnv) assertConsistent(t *testing.T, courseID int64, wantEnrolled int) {
	t.Helper()

	course := e.course(t, courseID)
	if course.EnrolledCount != wantEnrolled {
		t.Fatalf("course %d: expected enrolledCount %d, got %d", courseID, wantEnrolled, course.EnrolledCount)
	}
	if course.EnrolledCount > course.Capacity {
		t.Fatalf("course %d: enrolledCount %d exceeds capacity %d", courseID, course.EnrolledCount, course.Capacity)
	}
	if active := e.activeCount(t, courseID); active != int64(course.EnrolledCount) {
		t.Fatalf("course %d: enrolledCount %d drifted from %d ACTIVE rows", courseID, course.EnrolledCount, active)
	}
}

func slotOf(t *testing.T, day time.Weekday, startHour, endHour int) models.TimeSlot {
	t.Helper()

	slot, err := models.NewTimeSlot(day, models.MustTimeOfDay(startHour, 0), models.MustTimeOfDay(endHour, 0))
	if err != nil {
		t.Fatalf("time slot: %v", err)
	}
	return slot
}

// wrappingTxManager lets tests replace stores inside every transaction.
type wrappingTxManager struct {
	inner repositories.TxManager
	wrap  func(repositories.TxRepositories) repositories.TxRepositories
}

func (m *wrappingTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos repositories.TxRepositories) error) error {
	return m.inner.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		return fn(ctx, m.wrap(repos))
	})
}
