package services

import (
	"context"
	"fmt"

	"github.com/yigit/courseenroll/internal/app/models"
	"github.com/yigit/courseenroll/internal/app/repositories"
	"github.com/yigit/courseenroll/internal/pkg/apperrors"
)

// EnrollmentRuleValidator checks the per-student enrollment rules against the
// state visible inside the caller's transaction. It never writes.
type EnrollmentRuleValidator struct{}

// NewEnrollmentRuleValidator creates a new rule validator
func NewEnrollmentRuleValidator() *EnrollmentRuleValidator {
	return &EnrollmentRuleValidator{}
}

// ValidatePreInsert validates a request before its enrollment row exists.
func (v *EnrollmentRuleValidator) ValidatePreInsert(ctx context.Context, repos repositories.TxRepositories, student *models.Student, course *models.Course) error {
	exists, err := repos.Enrollments.ExistsActiveFor(ctx, student.ID, course.ID)
	if err != nil {
		return fmt.Errorf("validate enrollment: %w", err)
	}
	if exists {
		return apperrors.DuplicateEnrollment(student.ID, course.ID)
	}

	active, err := repos.Enrollments.FindActiveByStudentID(ctx, student.ID)
	if err != nil {
		return fmt.Errorf("validate enrollment: %w", err)
	}
	return CheckEnrollmentRules(student, course, active, 0)
}

// ValidateAfterInsert validates a request whose enrollment row was already
// inserted in the current transaction. The inserted row is ignored.
func (v *EnrollmentRuleValidator) ValidateAfterInsert(ctx context.Context, repos repositories.TxRepositories, student *models.Student, course *models.Course, insertedEnrollmentID int64) error {
	active, err := repos.Enrollments.FindActiveByStudentID(ctx, student.ID)
	if err != nil {
		return fmt.Errorf("validate enrollment: %w", err)
	}
	return CheckEnrollmentRules(student, course, active, insertedEnrollmentID)
}

// CheckEnrollmentRules applies the duplicate, credit and schedule rules in
// that order. Enrollments with ID excludeEnrollmentID are skipped; pass 0 to
// keep all of them.
func CheckEnrollmentRules(student *models.Student, course *models.Course, active []*models.Enrollment, excludeEnrollmentID int64) error {
	considered := make([]*models.Enrollment, 0, len(active))
	for _, enrollment := range active {
		if excludeEnrollmentID != 0 && enrollment.ID == excludeEnrollmentID {
			continue
		}
		if !enrollment.IsActive() {
			continue
		}
		considered = append(considered, enrollment)
	}

	for _, enrollment := range considered {
		if enrollment.CourseID == course.ID {
			return apperrors.DuplicateEnrollment(student.ID, course.ID)
		}
	}

	currentCredits := 0
	for _, enrollment := range considered {
		if enrollment.Course != nil {
			currentCredits += enrollment.Course.Credits
		}
	}
	if err := student.ValidateCreditLimit(currentCredits, course.Credits); err != nil {
		return err
	}

	for _, enrollment := range considered {
		if course.HasScheduleConflictWith(enrollment.Course) {
			return apperrors.ScheduleConflict(student.ID, course.ID)
		}
	}

	return nil
}
