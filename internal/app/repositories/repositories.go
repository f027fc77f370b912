package repositories

import (
	"context"
	"errors"

	"github.com/yigit/courseenroll/internal/app/models"
)

// Storage error types shared by every store implementation
var (
	ErrNotFound         = errors.New("record not found")
	ErrLockTimeout      = errors.New("lock wait timeout")
	ErrDeadlock         = errors.New("deadlock detected")
	ErrVersionConflict  = errors.New("version conflict")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrReferenceMissing = errors.New("referenced record missing")
)

// CourseStore reads and mutates course rows. FindByIDForLock holds the row
// lock until the surrounding transaction ends.
type CourseStore interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	FindByIDForLock(ctx context.Context, id int64) (*models.Course, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	// IncrementIfAvailable takes a seat when enrolled_count < capacity and
	// reports the number of rows changed (0 or 1).
	IncrementIfAvailable(ctx context.Context, id int64) (int64, error)
	// DecrementIfPositive returns a seat when enrolled_count > 0.
	DecrementIfPositive(ctx context.Context, id int64) (int64, error)
	// Save writes the course when its version still matches the stored one
	// and advances course.Version. Returns ErrVersionConflict on mismatch.
	Save(ctx context.Context, course *models.Course) error
}

// StudentStore reads student rows
type StudentStore interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	FindByIDForLock(ctx context.Context, id int64) (*models.Student, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
}

// EnrollmentStore reads and writes enrollment rows
type EnrollmentStore interface {
	FindByID(ctx context.Context, id int64) (*models.Enrollment, error)
	FindByIDForLock(ctx context.Context, id int64) (*models.Enrollment, error)
	// InsertActive stores an ACTIVE enrollment and fills its ID. It returns
	// ErrDuplicateKey when the pair is already ACTIVE and ErrReferenceMissing
	// when the student or course does not exist.
	InsertActive(ctx context.Context, enrollment *models.Enrollment) error
	Save(ctx context.Context, enrollment *models.Enrollment) error
	// FindActiveByStudentID returns ACTIVE enrollments with Course attached.
	FindActiveByStudentID(ctx context.Context, studentID int64) ([]*models.Enrollment, error)
	ExistsActiveFor(ctx context.Context, studentID, courseID int64) (bool, error)
	CountActiveByCourseID(ctx context.Context, courseID int64) (int64, error)
	// DeleteByID removes a row outright. Enrollment flows do not call it: a
	// failed insert is undone by rollback and cancellation keeps the row.
	DeleteByID(ctx context.Context, id int64) error
}

// CatalogStore creates reference data. It is used by seeding and tooling only.
type CatalogStore interface {
	CountCourses(ctx context.Context) (int64, error)
	CreateDepartment(ctx context.Context, department *models.Department) error
	CreateProfessor(ctx context.Context, professor *models.Professor) error
	CreateStudent(ctx context.Context, student *models.Student) error
	CreateCourse(ctx context.Context, course *models.Course) error
}

// TxRepositories binds every store to one transaction
type TxRepositories struct {
	Courses     CourseStore
	Students    StudentStore
	Enrollments EnrollmentStore
	Catalog     CatalogStore
}

// TxManager runs fn in a READ COMMITTED transaction. fn returning an error
// rolls the transaction back; the error is returned unchanged.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}
