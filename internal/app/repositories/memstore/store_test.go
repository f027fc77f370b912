package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yigit/courseenroll/internal/app/models"
	"github.com/yigit/courseenroll/internal/app/repositories"
)

type fixture struct {
	store     *Store
	studentID int64
	courseIDs []int64
}

func newFixture(t *testing.T, lockTimeout time.Duration, courses int) fixture {
	t.Helper()

	s := New(lockTimeout)
	f := fixture{store: s}
	err := s.WithTx(context.Background(), func(ctx context.Context, repos repositories.TxRepositories) error {
		department := &models.Department{Name: "Computer Engineering"}
		if err := repos.Catalog.CreateDepartment(ctx, department); err != nil {
			return err
		}
		professor := &models.Professor{Name: "Ada Lovelace", DepartmentID: department.ID}
		if err := repos.Catalog.CreateProfessor(ctx, professor); err != nil {
			return err
		}
		student := &models.Student{StudentNumber: "20260001", Name: "Jane Doe", DepartmentID: department.ID}
		if err := repos.Catalog.CreateStudent(ctx, student); err != nil {
			return err
		}
		f.studentID = student.ID

		for i := 0; i < courses; i++ {
			slot, _ := models.NewTimeSlot(time.Monday, models.TimeOfDay(9*60+i*120), models.TimeOfDay(10*60+i*120))
			course := &models.Course{
				Code:         "CSE10" + string(rune('0'+i)),
				Name:         "Course",
				Credits:      3,
				Capacity:     2,
				TimeSlot:     slot,
				DepartmentID: department.ID,
				ProfessorID:  professor.ID,
			}
			if err := repos.Catalog.CreateCourse(ctx, course); err != nil {
				return err
			}
			f.courseIDs = append(f.courseIDs, course.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return f
}

func TestRollbackDiscardsWrites(t *testing.T) {
	t.Parallel()
	f := newFixture(t, time.Second, 1)
	ctx := context.Background()
	courseID := f.courseIDs[0]
	boom := errors.New("boom")

	err := f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		if n, err := repos.Courses.IncrementIfAvailable(ctx, courseID); err != nil || n != 1 {
			t.Fatalf("increment: n=%d err=%v", n, err)
		}
		if err := repos.Enrollments.InsertActive(ctx, models.NewEnrollment(f.studentID, courseID, time.Now())); err != nil {
			t.Fatalf("insert: %v", err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	_ = f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		course, err := repos.Courses.FindByID(ctx, courseID)
		if err != nil {
			t.Fatalf("find course: %v", err)
		}
		if course.EnrolledCount != 0 || course.Version != 0 {
			t.Fatalf("expected untouched course, got count=%d version=%d", course.EnrolledCount, course.Version)
		}
		exists, _ := repos.Enrollments.ExistsActiveFor(ctx, f.studentID, courseID)
		if exists {
			t.Fatal("rolled back enrollment is still visible")
		}
		return nil
	})
}

func TestIncrementIfAvailableStopsAtCapacity(t *testing.T) {
	t.Parallel()
	f := newFixture(t, time.Second, 1)
	ctx := context.Background()

	var results []int64
	for i := 0; i < 3; i++ {
		_ = f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
			n, err := repos.Courses.IncrementIfAvailable(ctx, f.courseIDs[0])
			if err != nil {
				t.Fatalf("increment: %v", err)
			}
			results = append(results, n)
			return nil
		})
	}
	if results[0] != 1 || results[1] != 1 || results[2] != 0 {
		t.Fatalf("unexpected affected rows %v", results)
	}

	_ = f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		n, _ := repos.Courses.IncrementIfAvailable(ctx, 999)
		if n != 0 {
			t.Fatalf("missing course should affect 0 rows, got %d", n)
		}
		return nil
	})
}

func TestSaveDetectsStaleVersion(t *testing.T) {
	t.Parallel()
	f := newFixture(t, time.Second, 1)
	ctx := context.Background()

	var stale *models.Course
	_ = f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		stale, _ = repos.Courses.FindByID(ctx, f.courseIDs[0])
		return nil
	})
	_ = f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		_, err := repos.Courses.IncrementIfAvailable(ctx, f.courseIDs[0])
		return err
	})

	err := f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		stale.EnrolledCount++
		return repos.Courses.Save(ctx, stale)
	})
	if !errors.Is(err, repositories.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	err = f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		return repos.Courses.Save(ctx, &models.Course{ID: 404, Capacity: 1})
	})
	if !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLockBlocksUntilCommit(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2*time.Second, 1)
	ctx := context.Background()
	courseID := f.courseIDs[0]

	locked := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
			if _, err := repos.Courses.FindByIDForLock(ctx, courseID); err != nil {
				return err
			}
			_, err := repos.Courses.IncrementIfAvailable(ctx, courseID)
			close(locked)
			<-release
			return err
		})
	}()

	<-locked
	readDone := make(chan int)
	go func() {
		_ = f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
			course, err := repos.Courses.FindByIDForLock(ctx, courseID)
			if err != nil {
				return err
			}
			readDone <- course.EnrolledCount
			return nil
		})
	}()

	select {
	case <-readDone:
		t.Fatal("lock was granted while another transaction held it")
	case <-time.After(50 * time.Millisecond):
	}

	// plain reads do not block and see the committed image
	_ = f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		course, _ := repos.Courses.FindByID(ctx, courseID)
		if course.EnrolledCount != 0 {
			t.Fatalf("uncommitted increment is visible: %d", course.EnrolledCount)
		}
		return nil
	})

	close(release)
	wg.Wait()
	if got := <-readDone; got != 1 {
		t.Fatalf("expected committed count 1 after wait, got %d", got)
	}
}

func TestLockTimeout(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 30*time.Millisecond, 1)
	ctx := context.Background()

	locked := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
			_, err := repos.Students.FindByIDForLock(ctx, f.studentID)
			close(locked)
			<-release
			return err
		})
	}()
	defer close(release)

	<-locked
	err := f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		_, err := repos.Students.FindByIDForLock(ctx, f.studentID)
		return err
	})
	if !errors.Is(err, repositories.ErrLockTimeout) {
		t.Fatalf("expected lock timeout, got %v", err)
	}
}

func TestCrossedLocksReportDeadlock(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2*time.Second, 2)
	ctx := context.Background()
	first, second := f.courseIDs[0], f.courseIDs[1]

	var ready sync.WaitGroup
	ready.Add(2)
	crossed := func(a, b int64) error {
		return f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
			if _, err := repos.Courses.FindByIDForLock(ctx, a); err != nil {
				return err
			}
			ready.Done()
			ready.Wait()
			_, err := repos.Courses.FindByIDForLock(ctx, b)
			return err
		})
	}

	errs := make(chan error, 2)
	go func() { errs <- crossed(first, second) }()
	go func() { errs <- crossed(second, first) }()

	var deadlocks, successes int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			successes++
		case errors.Is(err, repositories.ErrDeadlock):
			deadlocks++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if deadlocks != 1 || successes != 1 {
		t.Fatalf("expected one deadlock victim, got deadlocks=%d successes=%d", deadlocks, successes)
	}
}

func TestActiveUniqueness(t *testing.T) {
	t.Parallel()
	f := newFixture(t, time.Second, 1)
	ctx := context.Background()
	courseID := f.courseIDs[0]

	insert := func() (*models.Enrollment, error) {
		enrollment := models.NewEnrollment(f.studentID, courseID, time.Now())
		err := f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
			return repos.Enrollments.InsertActive(ctx, enrollment)
		})
		return enrollment, err
	}

	first, err := insert()
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := insert(); !errors.Is(err, repositories.ErrDuplicateKey) {
		t.Fatalf("expected duplicate key, got %v", err)
	}

	err = f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		enrollment, err := repos.Enrollments.FindByIDForLock(ctx, first.ID)
		if err != nil {
			return err
		}
		if err := enrollment.Cancel(time.Now()); err != nil {
			return err
		}
		return repos.Enrollments.Save(ctx, enrollment)
	})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := insert(); err != nil {
		t.Fatalf("re-enroll after cancel: %v", err)
	}
}

func TestConcurrentInsertsWaitForUncommittedDuplicate(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 2*time.Second, 1)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, dup int
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
				return repos.Enrollments.InsertActive(ctx, models.NewEnrollment(f.studentID, f.courseIDs[0], time.Now()))
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, repositories.ErrDuplicateKey):
				dup++
			default:
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || dup != 19 {
		t.Fatalf("expected 1 insert and 19 duplicates, got %d and %d", ok, dup)
	}
}

func TestInsertRejectsMissingReferences(t *testing.T) {
	t.Parallel()
	f := newFixture(t, time.Second, 1)

	err := f.store.WithTx(context.Background(), func(ctx context.Context, repos repositories.TxRepositories) error {
		return repos.Enrollments.InsertActive(ctx, models.NewEnrollment(f.studentID, 999, time.Now()))
	})
	if !errors.Is(err, repositories.ErrReferenceMissing) {
		t.Fatalf("expected missing reference, got %v", err)
	}
}

func TestFindActiveByStudentIDAttachesCourse(t *testing.T) {
	t.Parallel()
	f := newFixture(t, time.Second, 2)
	ctx := context.Background()

	err := f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		for _, id := range f.courseIDs {
			if err := repos.Enrollments.InsertActive(ctx, models.NewEnrollment(f.studentID, id, time.Now())); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	_ = f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		active, err := repos.Enrollments.FindActiveByStudentID(ctx, f.studentID)
		if err != nil {
			t.Fatalf("find active: %v", err)
		}
		if len(active) != 2 {
			t.Fatalf("expected 2 active enrollments, got %d", len(active))
		}
		for _, e := range active {
			if e.Course == nil || e.Course.Professor == nil || e.Course.Department == nil {
				t.Fatalf("enrollment %d missing relations: %+v", e.ID, e.Course)
			}
		}
		return nil
	})
}

func TestDeleteByID(t *testing.T) {
	t.Parallel()
	f := newFixture(t, time.Second, 1)
	ctx := context.Background()

	enrollment := models.NewEnrollment(f.studentID, f.courseIDs[0], time.Now())
	_ = f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		return repos.Enrollments.InsertActive(ctx, enrollment)
	})

	err := f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		return repos.Enrollments.DeleteByID(ctx, enrollment.ID)
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	err = f.store.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		_, err := repos.Enrollments.FindByID(ctx, enrollment.ID)
		return err
	})
	if !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
