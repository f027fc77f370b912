package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/courseenroll/internal/app/models"
	"github.com/yigit/courseenroll/internal/app/models/dto"
	"github.com/yigit/courseenroll/internal/middleware"
)

// TimetableService reads student timetables
type TimetableService interface {
	GetStudentTimetable(ctx context.Context, studentID int64) (*models.StudentTimetable, error)
}

// TimetableController serves student timetables
type TimetableController struct {
	timetableService TimetableService
}

// NewTimetableController creates a new TimetableController
func NewTimetableController(timetableService TimetableService) *TimetableController {
	return &TimetableController{timetableService: timetableService}
}

// GetStudentTimetable returns the ACTIVE courses of a student
// @Summary Get a student's timetable
// @Description Lists the student's ACTIVE courses ordered Monday first, with total credits
// @Tags students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=models.StudentTimetable} "Timetable retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid student ID"
// @Failure 404 {object} dto.APIResponse "Student not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /students/{id}/timetable [get]
func (c *TimetableController) GetStudentTimetable(ctx *gin.Context) {
	studentID, err := parseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	timetable, err := c.timetableService.GetStudentTimetable(ctx.Request.Context(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(timetable, ""))
}
