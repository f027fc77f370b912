package repositories

import (
	"context"

	"github.com/yigit/courseenroll/internal/app/models"
)

// CatalogRepository inserts departments, professors, students and courses
type CatalogRepository struct {
	db DBTX
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db DBTX) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// CountCourses returns the number of courses
func (r *CatalogRepository) CountCourses(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM courses`).Scan(&count); err != nil {
		return 0, translateError("count courses", err)
	}
	return count, nil
}

// CreateDepartment creates a new department
func (r *CatalogRepository) CreateDepartment(ctx context.Context, department *models.Department) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO departments (name) VALUES ($1) RETURNING id`, department.Name,
	).Scan(&department.ID)
	return translateError("create department", err)
}

// CreateProfessor creates a new professor
func (r *CatalogRepository) CreateProfessor(ctx context.Context, professor *models.Professor) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO professors (name, department_id) VALUES ($1, $2) RETURNING id`,
		professor.Name, professor.DepartmentID,
	).Scan(&professor.ID)
	return translateError("create professor", err)
}

// CreateStudent creates a new student
func (r *CatalogRepository) CreateStudent(ctx context.Context, student *models.Student) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO students (student_number, name, department_id) VALUES ($1, $2, $3) RETURNING id`,
		student.StudentNumber, student.Name, student.DepartmentID,
	).Scan(&student.ID)
	return translateError("create student", err)
}

// CreateCourse creates a new course
func (r *CatalogRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (course_code, name, credits, capacity, enrolled_count, version,
			day_of_week, start_time, end_time, department_id, professor_id)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7, $8, $9, $10)
		RETURNING id, version
	`

	err := r.db.QueryRow(ctx, query,
		course.Code,
		course.Name,
		course.Credits,
		course.Capacity,
		course.EnrolledCount,
		course.TimeSlot.DayName(),
		timeColumn(course.TimeSlot.StartTime),
		timeColumn(course.TimeSlot.EndTime),
		course.DepartmentID,
		course.ProfessorID,
	).Scan(&course.ID, &course.Version)
	return translateError("create course", err)
}
