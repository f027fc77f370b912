package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yigit/courseenroll/internal/app/models/dto"
	"github.com/yigit/courseenroll/internal/pkg/apperrors"
	"github.com/yigit/courseenroll/internal/pkg/dberrors"
)

// --- Central Error Handling Middleware/Function ---

// HandleAPIError maps domain errors to HTTP responses
func HandleAPIError(c *gin.Context, err error) {
	status, code := classify(err)

	detail := dto.NewErrorDetail(code, messageFor(err, status))
	var customErr *apperrors.CustomError
	if errors.As(err, &customErr) && customErr.Details != nil {
		detail.WithDetails(customErr.Details)
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled API error")
	} else if code == dto.ErrorCodeConcurrencyConflict {
		detail.WithSeverity(dto.ErrorSeverityWarning)
	}

	c.AbortWithStatusJSON(status, dto.NewFailureResponse(detail))
}

func classify(err error) (int, dto.ErrorCode) {
	switch {
	case errors.Is(err, apperrors.ErrStudentNotFound):
		return http.StatusNotFound, dto.ErrorCodeStudentNotFound
	case errors.Is(err, apperrors.ErrCourseNotFound):
		return http.StatusNotFound, dto.ErrorCodeCourseNotFound
	case errors.Is(err, apperrors.ErrEnrollmentNotFound):
		return http.StatusNotFound, dto.ErrorCodeEnrollmentNotFound
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, dto.ErrorCodeResourceNotFound

	case errors.Is(err, apperrors.ErrDuplicateEnrollment):
		return http.StatusConflict, dto.ErrorCodeDuplicateEnrollment
	case errors.Is(err, apperrors.ErrEnrollmentCancellationNotAllowed):
		return http.StatusConflict, dto.ErrorCodeCancellationNotAllowed
	case errors.Is(err, apperrors.ErrEnrollmentConcurrencyConflict),
		dberrors.IsLockTimeout(err), dberrors.IsDeadlock(err):
		return http.StatusConflict, dto.ErrorCodeConcurrencyConflict

	case errors.Is(err, apperrors.ErrCreditLimitExceeded):
		return http.StatusUnprocessableEntity, dto.ErrorCodeCreditLimitExceeded
	case errors.Is(err, apperrors.ErrScheduleConflict):
		return http.StatusUnprocessableEntity, dto.ErrorCodeScheduleConflict
	case errors.Is(err, apperrors.ErrCourseCapacityExceeded):
		return http.StatusUnprocessableEntity, dto.ErrorCodeCourseCapacityExceeded

	case errors.Is(err, apperrors.ErrValidationFailed), errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, dto.ErrorCodeValidationFailed
	}
	return http.StatusInternalServerError, dto.ErrorCodeInternalServer
}

func messageFor(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return "Unexpected server error"
	}
	var customErr *apperrors.CustomError
	if errors.As(err, &customErr) {
		if customErr.StatusMsg != "" {
			return customErr.StatusMsg
		}
		return customErr.Message
	}
	if dberrors.IsLockTimeout(err) || dberrors.IsDeadlock(err) {
		return "Enrollment request failed due to concurrency conflict"
	}
	return err.Error()
}
