package models

import (
	"time"

	"github.com/yigit/courseenroll/internal/pkg/apperrors"
)

// EnrollmentStatus is the lifecycle state of an enrollment
type EnrollmentStatus string

const (
	EnrollmentStatusActive   EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCanceled EnrollmentStatus = "CANCELED"
)

// Enrollment links a student to a course. At most one ACTIVE enrollment
// exists per (student, course) pair.
type Enrollment struct {
	ID         int64            `json:"id" db:"id"`
	StudentID  int64            `json:"studentId" db:"student_id"`
	CourseID   int64            `json:"courseId" db:"course_id"`
	Status     EnrollmentStatus `json:"status" db:"status"`
	CreatedAt  time.Time        `json:"createdAt" db:"created_at"`
	CanceledAt *time.Time       `json:"canceledAt,omitempty" db:"canceled_at"` // Nullable

	// Relations (populated when needed)
	Course *Course `json:"course,omitempty"`
}

// NewEnrollment creates an ACTIVE enrollment for the pair.
func NewEnrollment(studentID, courseID int64, now time.Time) *Enrollment {
	return &Enrollment{
		StudentID: studentID,
		CourseID:  courseID,
		Status:    EnrollmentStatusActive,
		CreatedAt: now,
	}
}

// IsActive reports whether the enrollment still holds a seat.
func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentStatusActive
}

// Cancel moves ACTIVE to CANCELED. CANCELED is terminal.
func (e *Enrollment) Cancel(now time.Time) error {
	if e.Status != EnrollmentStatusActive {
		return apperrors.EnrollmentCancellationNotAllowed(e.ID)
	}
	e.Status = EnrollmentStatusCanceled
	e.CanceledAt = &now
	return nil
}
