package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/yigit/courseenroll/internal/app/models"
)

const courseColumns = `c.id, c.course_code, c.name, c.credits, c.capacity, c.enrolled_count, c.version,
		c.day_of_week, c.start_time, c.end_time, c.department_id, c.professor_id`

// CourseRepository handles database operations for courses
type CourseRepository struct {
	db DBTX
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db DBTX) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID retrieves a course without locking it
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c WHERE c.id = $1`

	course, err := scanCourse(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translateError("find course", err)
	}
	return course, nil
}

// FindByIDForLock retrieves a course and locks the row until the transaction ends.
// NO KEY UPDATE leaves the KEY SHARE locks taken by enrollment FK checks compatible.
func (r *CourseRepository) FindByIDForLock(ctx context.Context, id int64) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c WHERE c.id = $1 FOR NO KEY UPDATE`

	course, err := scanCourse(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translateError("lock course", err)
	}
	return course, nil
}

// ExistsByID checks whether the course exists
func (r *CourseRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM courses WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, translateError("check course", err)
	}
	return exists, nil
}

// IncrementIfAvailable takes one seat in a single guarded statement
func (r *CourseRepository) IncrementIfAvailable(ctx context.Context, id int64) (int64, error) {
	query := `
		UPDATE courses
		SET enrolled_count = enrolled_count + 1, version = version + 1
		WHERE id = $1 AND enrolled_count < capacity
	`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return 0, translateError("increment enrolled count", err)
	}
	return tag.RowsAffected(), nil
}

// DecrementIfPositive returns one seat in a single guarded statement
func (r *CourseRepository) DecrementIfPositive(ctx context.Context, id int64) (int64, error) {
	query := `
		UPDATE courses
		SET enrolled_count = enrolled_count - 1, version = version + 1
		WHERE id = $1 AND enrolled_count > 0
	`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return 0, translateError("decrement enrolled count", err)
	}
	return tag.RowsAffected(), nil
}

// Save performs a version-checked update of the mutable course fields
func (r *CourseRepository) Save(ctx context.Context, course *models.Course) error {
	query := `
		UPDATE courses
		SET name = $3, credits = $4, capacity = $5, enrolled_count = $6, version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version
	`

	var version int64
	err := r.db.QueryRow(ctx, query,
		course.ID, course.Version, course.Name, course.Credits, course.Capacity, course.EnrolledCount,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		exists, existsErr := r.ExistsByID(ctx, course.ID)
		if existsErr != nil {
			return existsErr
		}
		if !exists {
			return translateError("save course", err)
		}
		return ErrVersionConflict
	}
	if err != nil {
		return translateError("save course", err)
	}

	course.Version = version
	return nil
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	var (
		course     models.Course
		day        string
		start, end pgtype.Time
	)
	err := row.Scan(
		&course.ID,
		&course.Code,
		&course.Name,
		&course.Credits,
		&course.Capacity,
		&course.EnrolledCount,
		&course.Version,
		&day,
		&start,
		&end,
		&course.DepartmentID,
		&course.ProfessorID,
	)
	if err != nil {
		return nil, err
	}

	slot, err := timeSlotFromColumns(day, start, end)
	if err != nil {
		return nil, err
	}
	course.TimeSlot = slot
	return &course, nil
}

const microsPerMinute = int64(60 * 1000 * 1000)

func timeSlotFromColumns(day string, start, end pgtype.Time) (models.TimeSlot, error) {
	weekday, err := models.ParseWeekday(day)
	if err != nil {
		return models.TimeSlot{}, err
	}
	return models.NewTimeSlot(weekday,
		models.TimeOfDay(start.Microseconds/microsPerMinute),
		models.TimeOfDay(end.Microseconds/microsPerMinute))
}

func timeColumn(t models.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t) * microsPerMinute, Valid: true}
}
