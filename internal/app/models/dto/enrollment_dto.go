package dto

import (
	"time"

	"github.com/yigit/courseenroll/internal/app/models"
)

// EnrollRequest represents a request to enroll a student in a course
type EnrollRequest struct {
	StudentID int64 `json:"studentId" binding:"required,gt=0" example:"12"`
	CourseID  int64 `json:"courseId" binding:"required,gt=0" example:"3"`
}

// EnrollmentResponse represents an enrollment in API responses
type EnrollmentResponse struct {
	ID         int64      `json:"id" example:"101"`
	StudentID  int64      `json:"studentId" example:"12"`
	CourseID   int64      `json:"courseId" example:"3"`
	Status     string     `json:"status" example:"ACTIVE" enums:"ACTIVE,CANCELED"`
	Strategy   string     `json:"strategy,omitempty" example:"ATOMIC"`
	CreatedAt  time.Time  `json:"createdAt" example:"2026-03-02T09:00:00Z"`
	CanceledAt *time.Time `json:"canceledAt,omitempty"`
}

// NewEnrollmentResponse converts a model into its response form
func NewEnrollmentResponse(enrollment *models.Enrollment, strategy string) EnrollmentResponse {
	return EnrollmentResponse{
		ID:         enrollment.ID,
		StudentID:  enrollment.StudentID,
		CourseID:   enrollment.CourseID,
		Status:     string(enrollment.Status),
		Strategy:   strategy,
		CreatedAt:  enrollment.CreatedAt,
		CanceledAt: enrollment.CanceledAt,
	}
}

// HealthResponse reports service health
type HealthResponse struct {
	Status   string `json:"status" example:"UP"`
	Database string `json:"database" example:"UP"`
}
