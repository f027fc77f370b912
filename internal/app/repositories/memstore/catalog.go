package memstore

import (
	"context"
	"fmt"

	"github.com/yigit/courseenroll/internal/app/models"
	"github.com/yigit/courseenroll/internal/app/repositories"
)

type catalogStore struct {
	tx *memTx
}

func (c *catalogStore) CountCourses(_ context.Context) (int64, error) {
	unlock, err := begin(c.tx)
	if err != nil {
		return 0, err
	}
	defer unlock()

	rows := c.tx.store.courses.scan(c.tx, func(models.Course) bool { return true })
	return int64(len(rows)), nil
}

func (c *catalogStore) CreateDepartment(_ context.Context, department *models.Department) error {
	unlock, err := begin(c.tx)
	if err != nil {
		return err
	}
	defer unlock()

	s := c.tx.store
	taken := s.departments.scan(c.tx, func(d models.Department) bool { return d.Name == department.Name })
	if len(taken) > 0 {
		return fmt.Errorf("create department %q: %w", department.Name, repositories.ErrDuplicateKey)
	}

	department.ID = s.departments.insert(c.tx, func(id int64) models.Department {
		stored := *department
		stored.ID = id
		return stored
	})
	return nil
}

func (c *catalogStore) CreateProfessor(_ context.Context, professor *models.Professor) error {
	unlock, err := begin(c.tx)
	if err != nil {
		return err
	}
	defer unlock()

	s := c.tx.store
	if _, ok := s.departments.get(c.tx, professor.DepartmentID); !ok {
		return fmt.Errorf("create professor: department %d: %w", professor.DepartmentID, repositories.ErrReferenceMissing)
	}

	professor.ID = s.professors.insert(c.tx, func(id int64) models.Professor {
		stored := *professor
		stored.ID = id
		stored.Department = nil
		return stored
	})
	return nil
}

func (c *catalogStore) CreateStudent(_ context.Context, student *models.Student) error {
	unlock, err := begin(c.tx)
	if err != nil {
		return err
	}
	defer unlock()

	s := c.tx.store
	if _, ok := s.departments.get(c.tx, student.DepartmentID); !ok {
		return fmt.Errorf("create student: department %d: %w", student.DepartmentID, repositories.ErrReferenceMissing)
	}
	taken := s.students.scan(c.tx, func(st models.Student) bool { return st.StudentNumber == student.StudentNumber })
	if len(taken) > 0 {
		return fmt.Errorf("create student %q: %w", student.StudentNumber, repositories.ErrDuplicateKey)
	}

	student.ID = s.students.insert(c.tx, func(id int64) models.Student {
		stored := *student
		stored.ID = id
		stored.Department = nil
		return stored
	})
	return nil
}

func (c *catalogStore) CreateCourse(_ context.Context, course *models.Course) error {
	unlock, err := begin(c.tx)
	if err != nil {
		return err
	}
	defer unlock()

	s := c.tx.store
	if _, ok := s.departments.get(c.tx, course.DepartmentID); !ok {
		return fmt.Errorf("create course: department %d: %w", course.DepartmentID, repositories.ErrReferenceMissing)
	}
	if _, ok := s.professors.get(c.tx, course.ProfessorID); !ok {
		return fmt.Errorf("create course: professor %d: %w", course.ProfessorID, repositories.ErrReferenceMissing)
	}
	taken := s.courses.scan(c.tx, func(other models.Course) bool { return other.Code == course.Code })
	if len(taken) > 0 {
		return fmt.Errorf("create course %q: %w", course.Code, repositories.ErrDuplicateKey)
	}

	course.Version = 0
	course.ID = s.courses.insert(c.tx, func(id int64) models.Course {
		stored := *course
		stored.ID = id
		stored.Department, stored.Professor = nil, nil
		return stored
	})
	return nil
}
