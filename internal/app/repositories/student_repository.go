package repositories

import (
	"context"

	"github.com/yigit/courseenroll/internal/app/models"
)

// StudentRepository handles database operations for students
type StudentRepository struct {
	db DBTX
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db DBTX) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID retrieves a student by ID
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	return r.find(ctx, "find student", `
		SELECT id, student_number, name, department_id
		FROM students
		WHERE id = $1
	`, id)
}

// FindByIDForLock retrieves a student and locks the row until the transaction ends
func (r *StudentRepository) FindByIDForLock(ctx context.Context, id int64) (*models.Student, error) {
	return r.find(ctx, "lock student", `
		SELECT id, student_number, name, department_id
		FROM students
		WHERE id = $1
		FOR NO KEY UPDATE
	`, id)
}

// ExistsByID checks whether the student exists
func (r *StudentRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM students WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, translateError("check student", err)
	}
	return exists, nil
}

func (r *StudentRepository) find(ctx context.Context, op, query string, id int64) (*models.Student, error) {
	var student models.Student
	err := r.db.QueryRow(ctx, query, id).Scan(
		&student.ID,
		&student.StudentNumber,
		&student.Name,
		&student.DepartmentID,
	)
	if err != nil {
		return nil, translateError(op, err)
	}
	return &student, nil
}
