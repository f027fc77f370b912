package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/courseenroll/internal/app/controllers"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	enrollmentController *controllers.EnrollmentController,
	timetableController *controllers.TimetableController,
	healthController *controllers.HealthController,
) {
	router.GET("/health", healthController.Health)

	// API version group
	v1 := router.Group("/api/v1")

	enrollments := v1.Group("/enrollments")
	{
		enrollments.POST("", enrollmentController.Enroll)
		enrollments.POST("/:strategy", enrollmentController.EnrollWithStrategy)
		enrollments.DELETE("/:id", enrollmentController.Cancel)
	}

	students := v1.Group("/students")
	{
		students.GET("/:id/timetable", timetableController.GetStudentTimetable)
	}
}
