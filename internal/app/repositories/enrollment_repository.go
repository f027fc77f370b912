package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/yigit/courseenroll/internal/app/models"
)

// EnrollmentRepository handles database operations for enrollments
type EnrollmentRepository struct {
	db DBTX
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db DBTX) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByID retrieves an enrollment by ID
func (r *EnrollmentRepository) FindByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	query := `
		SELECT id, student_id, course_id, status, created_at, canceled_at
		FROM enrollments
		WHERE id = $1
	`
	enrollment, err := scanEnrollment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translateError("find enrollment", err)
	}
	return enrollment, nil
}

// FindByIDForLock retrieves an enrollment and locks the row until the transaction ends
func (r *EnrollmentRepository) FindByIDForLock(ctx context.Context, id int64) (*models.Enrollment, error) {
	query := `
		SELECT id, student_id, course_id, status, created_at, canceled_at
		FROM enrollments
		WHERE id = $1
		FOR UPDATE
	`
	enrollment, err := scanEnrollment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translateError("lock enrollment", err)
	}
	return enrollment, nil
}

// InsertActive inserts an ACTIVE enrollment. The partial unique index
// uk_enrollments_student_course_active rejects a second ACTIVE row per pair.
func (r *EnrollmentRepository) InsertActive(ctx context.Context, enrollment *models.Enrollment) error {
	query := `
		INSERT INTO enrollments (student_id, course_id, status, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	enrollment.Status = models.EnrollmentStatusActive
	err := r.db.QueryRow(ctx, query,
		enrollment.StudentID, enrollment.CourseID, enrollment.Status, enrollment.CreatedAt,
	).Scan(&enrollment.ID)
	if err != nil {
		return translateError("insert enrollment", err)
	}
	return nil
}

// Save updates the status fields of an enrollment
func (r *EnrollmentRepository) Save(ctx context.Context, enrollment *models.Enrollment) error {
	query := `
		UPDATE enrollments
		SET status = $2, canceled_at = $3
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, enrollment.ID, enrollment.Status, enrollment.CanceledAt)
	if err != nil {
		return translateError("save enrollment", err)
	}
	if tag.RowsAffected() == 0 {
		return translateError("save enrollment", pgx.ErrNoRows)
	}
	return nil
}

// FindActiveByStudentID retrieves the ACTIVE enrollments of a student with
// their course, department and professor attached
func (r *EnrollmentRepository) FindActiveByStudentID(ctx context.Context, studentID int64) ([]*models.Enrollment, error) {
	query := `
		SELECT e.id, e.student_id, e.course_id, e.status, e.created_at, e.canceled_at,
		       ` + courseColumns + `,
		       d.name, p.name
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		JOIN departments d ON d.id = c.department_id
		JOIN professors p ON p.id = c.professor_id
		WHERE e.student_id = $1 AND e.status = 'ACTIVE'
		ORDER BY e.id
	`

	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, translateError("find active enrollments", err)
	}
	defer rows.Close()

	var enrollments []*models.Enrollment
	for rows.Next() {
		var (
			enrollment     models.Enrollment
			course         models.Course
			day            string
			start, end     pgtype.Time
			departmentName string
			professorName  string
		)
		if err := rows.Scan(
			&enrollment.ID,
			&enrollment.StudentID,
			&enrollment.CourseID,
			&enrollment.Status,
			&enrollment.CreatedAt,
			&enrollment.CanceledAt,
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
			&departmentName,
			&professorName,
		); err != nil {
			return nil, translateError("scan active enrollment", err)
		}

		slot, err := timeSlotFromColumns(day, start, end)
		if err != nil {
			return nil, err
		}
		course.TimeSlot = slot
		course.Department = &models.Department{ID: course.DepartmentID, Name: departmentName}
		course.Professor = &models.Professor{ID: course.ProfessorID, Name: professorName, DepartmentID: course.DepartmentID}
		enrollment.Course = &course
		enrollments = append(enrollments, &enrollment)
	}

	if err := rows.Err(); err != nil {
		return nil, translateError("find active enrollments", err)
	}

	return enrollments, nil
}

// ExistsActiveFor checks whether the pair already has an ACTIVE enrollment
func (r *EnrollmentRepository) ExistsActiveFor(ctx context.Context, studentID, courseID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM enrollments
			WHERE student_id = $1 AND course_id = $2 AND status = 'ACTIVE'
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, studentID, courseID).Scan(&exists); err != nil {
		return false, translateError("check active enrollment", err)
	}
	return exists, nil
}

// CountActiveByCourseID counts ACTIVE enrollments of a course
func (r *EnrollmentRepository) CountActiveByCourseID(ctx context.Context, courseID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND status = 'ACTIVE'`, courseID,
	).Scan(&count)
	if err != nil {
		return 0, translateError("count active enrollments", err)
	}
	return count, nil
}

// DeleteByID deletes an enrollment
func (r *EnrollmentRepository) DeleteByID(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return translateError("delete enrollment", err)
	}
	if tag.RowsAffected() == 0 {
		return translateError("delete enrollment", pgx.ErrNoRows)
	}
	return nil
}

func scanEnrollment(row pgx.Row) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := row.Scan(
		&enrollment.ID,
		&enrollment.StudentID,
		&enrollment.CourseID,
		&enrollment.Status,
		&enrollment.CreatedAt,
		&enrollment.CanceledAt,
	)
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}
