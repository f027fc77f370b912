package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/courseenroll/internal/app/models"
	"github.com/yigit/courseenroll/internal/app/models/dto"
	"github.com/yigit/courseenroll/internal/app/services"
	"github.com/yigit/courseenroll/internal/middleware"
	"github.com/yigit/courseenroll/internal/pkg/apperrors"
)

// EnrollmentService is the part of services.EnrollmentService the controller needs
type EnrollmentService interface {
	EnrollWith(ctx context.Context, strategyType services.StrategyType, studentID, courseID int64) (*models.Enrollment, error)
	Cancel(ctx context.Context, enrollmentID int64) error
	DefaultStrategy() services.StrategyType
}

// EnrollmentController handles enrollment requests
type EnrollmentController struct {
	enrollmentService EnrollmentService
}

// NewEnrollmentController creates a new EnrollmentController
func NewEnrollmentController(enrollmentService EnrollmentService) *EnrollmentController {
	return &EnrollmentController{
		enrollmentService: enrollmentService,
	}
}

// Enroll enrolls a student with the default strategy
// @Summary Enroll a student in a course
// @Description Enrolls a student using the configured default concurrency strategy
// @Tags enrollments
// @Accept json
// @Produce json
// @Param request body dto.EnrollRequest true "Student and course"
// @Success 201 {object} dto.APIResponse{data=dto.EnrollmentResponse} "Enrollment created"
// @Failure 400 {object} dto.APIResponse "Invalid request data"
// @Failure 404 {object} dto.APIResponse "Student or course not found"
// @Failure 409 {object} dto.APIResponse "Duplicate enrollment or concurrency conflict"
// @Failure 422 {object} dto.APIResponse "Credit limit, schedule conflict or full course"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /enrollments [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	c.enroll(ctx, c.enrollmentService.DefaultStrategy())
}

// EnrollWithStrategy enrolls a student with the strategy named in the path
// @Summary Enroll a student with an explicit strategy
// @Description strategy is one of pessimistic, optimistic, atomic, separated
// @Tags enrollments
// @Accept json
// @Produce json
// @Param strategy path string true "Concurrency strategy" Enums(pessimistic, optimistic, atomic, separated)
// @Param request body dto.EnrollRequest true "Student and course"
// @Success 201 {object} dto.APIResponse{data=dto.EnrollmentResponse} "Enrollment created"
// @Failure 400 {object} dto.APIResponse "Invalid request data or unknown strategy"
// @Failure 404 {object} dto.APIResponse "Student or course not found"
// @Failure 409 {object} dto.APIResponse "Duplicate enrollment or concurrency conflict"
// @Failure 422 {object} dto.APIResponse "Credit limit, schedule conflict or full course"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /enrollments/{strategy} [post]
func (c *EnrollmentController) EnrollWithStrategy(ctx *gin.Context) {
	strategyType, err := services.ParseStrategyType(ctx.Param("strategy"))
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnknownStrategy, err.Error()).
			WithField("strategy").
			WithDetails(map[string]interface{}{"supported": services.AllStrategyTypes()})
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewFailureResponse(errorDetail))
		return
	}
	c.enroll(ctx, strategyType)
}

func (c *EnrollmentController) enroll(ctx *gin.Context, strategyType services.StrategyType) {
	var request dto.EnrollRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	enrollment, err := c.enrollmentService.EnrollWith(ctx.Request.Context(), strategyType, request.StudentID, request.CourseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(
		dto.NewEnrollmentResponse(enrollment, string(strategyType)),
		"Enrollment created",
	))
}

// Cancel cancels an ACTIVE enrollment
// @Summary Cancel an enrollment
// @Description Cancels an ACTIVE enrollment and frees its seat
// @Tags enrollments
// @Produce json
// @Param id path int true "Enrollment ID"
// @Success 204 "Enrollment canceled"
// @Failure 400 {object} dto.APIResponse "Invalid enrollment ID"
// @Failure 404 {object} dto.APIResponse "Enrollment not found"
// @Failure 409 {object} dto.APIResponse "Enrollment is not ACTIVE"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /enrollments/{id} [delete]
func (c *EnrollmentController) Cancel(ctx *gin.Context) {
	enrollmentID, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if err := c.enrollmentService.Cancel(ctx.Request.Context(), enrollmentID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// parseIDParam reads a positive int64 path parameter
func parseIDParam(ctx *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewCustomError(apperrors.ErrBadRequest, "Invalid "+name+" parameter").
			WithDetails(map[string]interface{}{name: ctx.Param(name)})
	}
	return id, nil
}
