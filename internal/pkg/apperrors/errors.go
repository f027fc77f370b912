package apperrors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Lookup errors
var (
	ErrStudentNotFound    = errors.New("student not found")
	ErrCourseNotFound     = errors.New("course not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
)

// Enrollment rule errors
var (
	ErrDuplicateEnrollment    = errors.New("active enrollment already exists")
	ErrCreditLimitExceeded    = errors.New("credit limit exceeded")
	ErrScheduleConflict       = errors.New("schedule conflict")
	ErrCourseCapacityExceeded = errors.New("course capacity exceeded")
)

// Enrollment lifecycle errors
var (
	ErrEnrollmentCancellationNotAllowed = errors.New("enrollment cancellation not allowed")
	ErrEnrollmentConcurrencyConflict    = errors.New("enrollment concurrency conflict")
)

// Error codes reported to clients. They mirror the sentinel names.
const (
	CodeStudentNotFound                  = "STUDENT_NOT_FOUND"
	CodeCourseNotFound                   = "COURSE_NOT_FOUND"
	CodeEnrollmentNotFound               = "ENROLLMENT_NOT_FOUND"
	CodeDuplicateEnrollment              = "DUPLICATE_ENROLLMENT"
	CodeCreditLimitExceeded              = "CREDIT_LIMIT_EXCEEDED"
	CodeScheduleConflict                 = "SCHEDULE_CONFLICT"
	CodeCourseCapacityExceeded           = "COURSE_CAPACITY_EXCEEDED"
	CodeEnrollmentCancellationNotAllowed = "ENROLLMENT_CANCELLATION_NOT_ALLOWED"
	CodeEnrollmentConcurrencyConflict    = "ENROLLMENT_CONCURRENCY_CONFLICT"
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// StudentNotFound reports a missing student row.
func StudentNotFound(studentID int64) error {
	return NewCustomError(ErrStudentNotFound, fmt.Sprintf("Student not found. studentId=%d", studentID)).
		WithCode(CodeStudentNotFound).
		WithDetails(map[string]interface{}{"studentId": studentID})
}

// CourseNotFound reports a missing course row.
func CourseNotFound(courseID int64) error {
	return NewCustomError(ErrCourseNotFound, fmt.Sprintf("Course not found. courseId=%d", courseID)).
		WithCode(CodeCourseNotFound).
		WithDetails(map[string]interface{}{"courseId": courseID})
}

// EnrollmentNotFound reports a missing enrollment row.
func EnrollmentNotFound(enrollmentID int64) error {
	return NewCustomError(ErrEnrollmentNotFound, fmt.Sprintf("Enrollment not found. enrollmentId=%d", enrollmentID)).
		WithCode(CodeEnrollmentNotFound).
		WithDetails(map[string]interface{}{"enrollmentId": enrollmentID})
}

// DuplicateEnrollment reports that the pair already has an ACTIVE enrollment.
func DuplicateEnrollment(studentID, courseID int64) error {
	return NewCustomError(ErrDuplicateEnrollment,
		fmt.Sprintf("Duplicate enrollment. studentId=%d, courseId=%d", studentID, courseID)).
		WithCode(CodeDuplicateEnrollment).
		WithDetails(map[string]interface{}{"studentId": studentID, "courseId": courseID})
}

// CreditLimitExceeded reports that the requested course would push the student over maxCredits.
func CreditLimitExceeded(studentID int64, currentCredits, requestedCredits, maxCredits int) error {
	return NewCustomError(ErrCreditLimitExceeded,
		fmt.Sprintf("Credit limit exceeded. studentId=%d, currentCredits=%d, requestCredits=%d, maxCredits=%d",
			studentID, currentCredits, requestedCredits, maxCredits)).
		WithCode(CodeCreditLimitExceeded).
		WithDetails(map[string]interface{}{
			"studentId":        studentID,
			"currentCredits":   currentCredits,
			"requestedCredits": requestedCredits,
			"maxCredits":       maxCredits,
		})
}

// ScheduleConflict reports an overlapping time slot with an active enrollment.
func ScheduleConflict(studentID, courseID int64) error {
	return NewCustomError(ErrScheduleConflict,
		fmt.Sprintf("Schedule conflict. studentId=%d, courseId=%d", studentID, courseID)).
		WithCode(CodeScheduleConflict).
		WithDetails(map[string]interface{}{"studentId": studentID, "courseId": courseID})
}

// CourseCapacityExceeded reports a full course.
func CourseCapacityExceeded(courseID int64, capacity int) error {
	return NewCustomError(ErrCourseCapacityExceeded,
		fmt.Sprintf("Course capacity exceeded. courseId=%d, capacity=%d", courseID, capacity)).
		WithCode(CodeCourseCapacityExceeded).
		WithDetails(map[string]interface{}{"courseId": courseID, "capacity": capacity})
}

// EnrollmentCancellationNotAllowed reports a cancel on a non-ACTIVE enrollment.
func EnrollmentCancellationNotAllowed(enrollmentID int64) error {
	return NewCustomError(ErrEnrollmentCancellationNotAllowed,
		fmt.Sprintf("Enrollment cancellation not allowed. enrollmentId=%d", enrollmentID)).
		WithCode(CodeEnrollmentCancellationNotAllowed).
		WithDetails(map[string]interface{}{"enrollmentId": enrollmentID})
}

// EnrollmentConcurrencyConflict reports that retries were exhausted under contention.
func EnrollmentConcurrencyConflict(studentID, courseID int64, retryCount int) error {
	return NewCustomError(ErrEnrollmentConcurrencyConflict,
		fmt.Sprintf("Enrollment concurrency conflict. studentId=%d, courseId=%d, retryCount=%d",
			studentID, courseID, retryCount)).
		WithCode(CodeEnrollmentConcurrencyConflict).
		WithDetails(map[string]interface{}{"studentId": studentID, "courseId": courseID, "retryCount": retryCount})
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// IsDomainError reports whether err is one of the enrollment business errors.
func IsDomainError(err error) bool {
	return Is(err, ErrStudentNotFound,
		ErrCourseNotFound,
		ErrEnrollmentNotFound,
		ErrDuplicateEnrollment,
		ErrCreditLimitExceeded,
		ErrScheduleConflict,
		ErrCourseCapacityExceeded,
		ErrEnrollmentCancellationNotAllowed,
		ErrEnrollmentConcurrencyConflict,
	)
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err       error
	Message   string
	StatusMsg string
	Code      string
	Details   map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// WithStatusMsg adds a user-friendly status message
func (e *CustomError) WithStatusMsg(msg string) *CustomError {
	e.StatusMsg = msg
	return e
}
