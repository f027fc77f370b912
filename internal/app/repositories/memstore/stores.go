package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/yigit/courseenroll/internal/app/models"
	"github.com/yigit/courseenroll/internal/app/repositories"
)

// begin locks the store for one store call on tx.
func begin(tx *memTx) (unlock func(), err error) {
	tx.store.mu.Lock()
	if err := tx.checkUsable(); err != nil {
		tx.store.mu.Unlock()
		return nil, err
	}
	return tx.store.mu.Unlock, nil
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, repositories.ErrNotFound)
}

type courseStore struct {
	tx *memTx
}

func (c *courseStore) FindByID(_ context.Context, id int64) (*models.Course, error) {
	unlock, err := begin(c.tx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	course, ok := c.tx.store.courses.get(c.tx, id)
	if !ok {
		return nil, notFound("find course")
	}
	return &course, nil
}

func (c *courseStore) FindByIDForLock(ctx context.Context, id int64) (*models.Course, error) {
	unlock, err := begin(c.tx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	r, err := c.tx.store.courses.lock(ctx, c.tx, id)
	if err != nil {
		return nil, fmt.Errorf("lock course: %w", err)
	}
	if r == nil {
		return nil, notFound("lock course")
	}
	course := r.current()
	return &course, nil
}

func (c *courseStore) ExistsByID(_ context.Context, id int64) (bool, error) {
	unlock, err := begin(c.tx)
	if err != nil {
		return false, err
	}
	defer unlock()

	_, ok := c.tx.store.courses.get(c.tx, id)
	return ok, nil
}

func (c *courseStore) IncrementIfAvailable(ctx context.Context, id int64) (int64, error) {
	return c.adjust(ctx, "increment enrolled count", id, func(course *models.Course) bool {
		if course.EnrolledCount >= course.Capacity {
			return false
		}
		course.EnrolledCount++
		return true
	})
}

func (c *courseStore) DecrementIfPositive(ctx context.Context, id int64) (int64, error) {
	return c.adjust(ctx, "decrement enrolled count", id, func(course *models.Course) bool {
		if course.EnrolledCount <= 0 {
			return false
		}
		course.EnrolledCount--
		return true
	})
}

// adjust applies a guarded single-row update and bumps the version when the
// guard passes.
func (c *courseStore) adjust(ctx context.Context, op string, id int64, apply func(*models.Course) bool) (int64, error) {
	unlock, err := begin(c.tx)
	if err != nil {
		return 0, err
	}
	defer unlock()

	r, err := c.tx.store.courses.lock(ctx, c.tx, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if r == nil {
		return 0, nil
	}

	course := r.current()
	if !apply(&course) {
		return 0, nil
	}
	course.Version++
	r.write(course)
	return 1, nil
}

func (c *courseStore) Save(ctx context.Context, course *models.Course) error {
	unlock, err := begin(c.tx)
	if err != nil {
		return err
	}
	defer unlock()

	r, err := c.tx.store.courses.lock(ctx, c.tx, course.ID)
	if err != nil {
		return fmt.Errorf("save course: %w", err)
	}
	if r == nil {
		return notFound("save course")
	}
	if r.current().Version != course.Version {
		return repositories.ErrVersionConflict
	}
	if course.EnrolledCount < 0 || course.EnrolledCount > course.Capacity {
		return fmt.Errorf("save course: enrolled count %d outside [0, %d]", course.EnrolledCount, course.Capacity)
	}

	stored := *course
	stored.Department, stored.Professor = nil, nil
	stored.Version++
	r.write(stored)
	course.Version = stored.Version
	return nil
}

type studentStore struct {
	tx *memTx
}

func (st *studentStore) FindByID(_ context.Context, id int64) (*models.Student, error) {
	unlock, err := begin(st.tx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	student, ok := st.tx.store.students.get(st.tx, id)
	if !ok {
		return nil, notFound("find student")
	}
	return &student, nil
}

func (st *studentStore) FindByIDForLock(ctx context.Context, id int64) (*models.Student, error) {
	unlock, err := begin(st.tx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	r, err := st.tx.store.students.lock(ctx, st.tx, id)
	if err != nil {
		return nil, fmt.Errorf("lock student: %w", err)
	}
	if r == nil {
		return nil, notFound("lock student")
	}
	student := r.current()
	return &student, nil
}

func (st *studentStore) ExistsByID(_ context.Context, id int64) (bool, error) {
	unlock, err := begin(st.tx)
	if err != nil {
		return false, err
	}
	defer unlock()

	_, ok := st.tx.store.students.get(st.tx, id)
	return ok, nil
}

type enrollmentStore struct {
	tx *memTx
}

func (e *enrollmentStore) FindByID(_ context.Context, id int64) (*models.Enrollment, error) {
	unlock, err := begin(e.tx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	enrollment, ok := e.tx.store.enrollments.get(e.tx, id)
	if !ok {
		return nil, notFound("find enrollment")
	}
	return &enrollment, nil
}

func (e *enrollmentStore) FindByIDForLock(ctx context.Context, id int64) (*models.Enrollment, error) {
	unlock, err := begin(e.tx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	r, err := e.tx.store.enrollments.lock(ctx, e.tx, id)
	if err != nil {
		return nil, fmt.Errorf("lock enrollment: %w", err)
	}
	if r == nil {
		return nil, notFound("lock enrollment")
	}
	enrollment := r.current()
	return &enrollment, nil
}

func (e *enrollmentStore) InsertActive(ctx context.Context, enrollment *models.Enrollment) error {
	unlock, err := begin(e.tx)
	if err != nil {
		return err
	}
	defer unlock()

	s := e.tx.store
	if err := e.awaitUniqueSlot(ctx, enrollment.StudentID, enrollment.CourseID); err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}
	if _, ok := s.students.get(e.tx, enrollment.StudentID); !ok {
		return fmt.Errorf("insert enrollment: student %d: %w", enrollment.StudentID, repositories.ErrReferenceMissing)
	}
	if _, ok := s.courses.get(e.tx, enrollment.CourseID); !ok {
		return fmt.Errorf("insert enrollment: course %d: %w", enrollment.CourseID, repositories.ErrReferenceMissing)
	}

	enrollment.Status = models.EnrollmentStatusActive
	enrollment.ID = s.enrollments.insert(e.tx, func(id int64) models.Enrollment {
		stored := *enrollment
		stored.ID = id
		stored.Course = nil
		return stored
	})
	return nil
}

// awaitUniqueSlot enforces the unique index on ACTIVE (student, course)
// pairs. Rows whose ACTIVE state is being changed by another transaction
// are waited on, as PostgreSQL does for in-progress index entries.
func (e *enrollmentStore) awaitUniqueSlot(ctx context.Context, studentID, courseID int64) error {
	s := e.tx.store
	matches := func(img *models.Enrollment) bool {
		return img != nil && img.StudentID == studentID && img.CourseID == courseID && img.IsActive()
	}

	deadline := time.Now().Add(s.lockTimeout)
	for {
		var waitOn *memTx
		for _, r := range s.enrollments.rows {
			if r.owner == nil || r.owner == e.tx {
				if matches(r.visible(e.tx)) {
					return repositories.ErrDuplicateKey
				}
				continue
			}

			committedActive := matches(r.committed)
			pendingActive := committedActive
			if r.deleted {
				pendingActive = false
			} else if r.pending != nil {
				pendingActive = matches(r.pending)
			}

			if committedActive && pendingActive {
				return repositories.ErrDuplicateKey
			}
			if committedActive != pendingActive {
				waitOn = r.owner
				break
			}
		}

		if waitOn == nil {
			return nil
		}
		if err := e.tx.waitFor(ctx, waitOn, deadline); err != nil {
			return err
		}
	}
}

func (e *enrollmentStore) Save(ctx context.Context, enrollment *models.Enrollment) error {
	unlock, err := begin(e.tx)
	if err != nil {
		return err
	}
	defer unlock()

	r, err := e.tx.store.enrollments.lock(ctx, e.tx, enrollment.ID)
	if err != nil {
		return fmt.Errorf("save enrollment: %w", err)
	}
	if r == nil {
		return notFound("save enrollment")
	}

	stored := *enrollment
	stored.Course = nil
	r.write(stored)
	return nil
}

func (e *enrollmentStore) FindActiveByStudentID(_ context.Context, studentID int64) ([]*models.Enrollment, error) {
	unlock, err := begin(e.tx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	s := e.tx.store
	rows := s.enrollments.scan(e.tx, func(en models.Enrollment) bool {
		return en.StudentID == studentID && en.IsActive()
	})

	enrollments := make([]*models.Enrollment, 0, len(rows))
	for i := range rows {
		enrollment := rows[i]
		if course, ok := s.courses.get(e.tx, enrollment.CourseID); ok {
			if department, ok := s.departments.get(e.tx, course.DepartmentID); ok {
				course.Department = &department
			}
			if professor, ok := s.professors.get(e.tx, course.ProfessorID); ok {
				course.Professor = &professor
			}
			enrollment.Course = &course
		}
		enrollments = append(enrollments, &enrollment)
	}
	return enrollments, nil
}

func (e *enrollmentStore) ExistsActiveFor(_ context.Context, studentID, courseID int64) (bool, error) {
	unlock, err := begin(e.tx)
	if err != nil {
		return false, err
	}
	defer unlock()

	rows := e.tx.store.enrollments.scan(e.tx, func(en models.Enrollment) bool {
		return en.StudentID == studentID && en.CourseID == courseID && en.IsActive()
	})
	return len(rows) > 0, nil
}

func (e *enrollmentStore) CountActiveByCourseID(_ context.Context, courseID int64) (int64, error) {
	unlock, err := begin(e.tx)
	if err != nil {
		return 0, err
	}
	defer unlock()

	rows := e.tx.store.enrollments.scan(e.tx, func(en models.Enrollment) bool {
		return en.CourseID == courseID && en.IsActive()
	})
	return int64(len(rows)), nil
}

func (e *enrollmentStore) DeleteByID(ctx context.Context, id int64) error {
	unlock, err := begin(e.tx)
	if err != nil {
		return err
	}
	defer unlock()

	r, err := e.tx.store.enrollments.lock(ctx, e.tx, id)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	if r == nil {
		return notFound("delete enrollment")
	}
	r.deleted = true
	return nil
}
