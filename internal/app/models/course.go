package models

import (
	"errors"
	"fmt"

	"github.com/yigit/courseenroll/internal/pkg/apperrors"
)

// ErrInvalidCourse is returned by NewCourse for inconsistent course data.
var ErrInvalidCourse = errors.New("invalid course")

// Course represents a course offered by a department.
// EnrolledCount stays within [0, Capacity]; Version changes on every write.
type Course struct {
	ID            int64    `json:"id" db:"id"`
	Code          string   `json:"code" db:"course_code"`
	Name          string   `json:"name" db:"name"`
	Credits       int      `json:"credits" db:"credits"`
	Capacity      int      `json:"capacity" db:"capacity"`
	EnrolledCount int      `json:"enrolledCount" db:"enrolled_count"`
	Version       int64    `json:"version" db:"version"`
	TimeSlot      TimeSlot `json:"timeSlot"`
	DepartmentID  int64    `json:"departmentId" db:"department_id"`
	ProfessorID   int64    `json:"professorId" db:"professor_id"`

	// Relations (populated when needed)
	Department *Department `json:"department,omitempty"`
	Professor  *Professor  `json:"professor,omitempty"`
}

// NewCourse validates the numeric invariants of a new course.
func NewCourse(code, name string, credits, capacity, enrolledCount int, slot TimeSlot, departmentID, professorID int64) (*Course, error) {
	if credits <= 0 {
		return nil, fmt.Errorf("%w: credits must be positive", ErrInvalidCourse)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", ErrInvalidCourse)
	}
	if enrolledCount < 0 || enrolledCount > capacity {
		return nil, fmt.Errorf("%w: enrolledCount must be between 0 and capacity", ErrInvalidCourse)
	}
	if slot.StartTime >= slot.EndTime {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCourse, ErrInvalidTimeSlot)
	}

	return &Course{
		Code:          code,
		Name:          name,
		Credits:       credits,
		Capacity:      capacity,
		EnrolledCount: enrolledCount,
		TimeSlot:      slot,
		DepartmentID:  departmentID,
		ProfessorID:   professorID,
	}, nil
}

// IncreaseEnrollment takes one seat or fails when the course is full.
func (c *Course) IncreaseEnrollment() error {
	if c.EnrolledCount >= c.Capacity {
		return apperrors.CourseCapacityExceeded(c.ID, c.Capacity)
	}
	c.EnrolledCount++
	return nil
}

// DecreaseEnrollment returns one seat; it never goes below zero.
func (c *Course) DecreaseEnrollment() {
	if c.EnrolledCount > 0 {
		c.EnrolledCount--
	}
}

// HasScheduleConflictWith reports whether both courses meet at overlapping times.
func (c *Course) HasScheduleConflictWith(other *Course) bool {
	if other == nil {
		return false
	}
	return c.TimeSlot.Overlaps(other.TimeSlot)
}

// RemainingSeats returns the number of free seats.
func (c *Course) RemainingSeats() int {
	return c.Capacity - c.EnrolledCount
}
