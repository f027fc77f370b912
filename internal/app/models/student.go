package models

import "github.com/yigit/courseenroll/internal/pkg/apperrors"

// MaxCredits is the most credits a student may hold in ACTIVE enrollments.
const MaxCredits = 18

// Student defines the student model based on the 'students' table
type Student struct {
	ID            int64  `json:"id" db:"id" example:"1"`                                 // Unique identifier for the student record
	StudentNumber string `json:"studentNumber" db:"student_number" example:"20260001"` // Student's unique number
	Name          string `json:"name" db:"name" example:"Jane Doe"`
	DepartmentID  int64  `json:"departmentId" db:"department_id" example:"3"`

	// Relations (populated when needed)
	Department *Department `json:"department,omitempty"`
}

// ValidateCreditLimit fails with a credit limit error when currentCredits plus
// requestedCredits exceeds MaxCredits.
func (s *Student) ValidateCreditLimit(currentCredits, requestedCredits int) error {
	if currentCredits+requestedCredits > MaxCredits {
		return apperrors.CreditLimitExceeded(s.ID, currentCredits, requestedCredits, MaxCredits)
	}
	return nil
}
