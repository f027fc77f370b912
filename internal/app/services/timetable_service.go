package services

import (
	"context"
	"errors"
	"sort"

	"github.com/yigit/courseenroll/internal/app/models"
	"github.com/yigit/courseenroll/internal/app/repositories"
	"github.com/yigit/courseenroll/internal/pkg/apperrors"
)

// TimetableService builds the weekly timetable of a student
type TimetableService struct {
	txManager repositories.TxManager
}

// NewTimetableService creates a new timetable service
func NewTimetableService(txManager repositories.TxManager) *TimetableService {
	return &TimetableService{txManager: txManager}
}

// GetStudentTimetable lists the ACTIVE courses of a student, Monday first.
func (s *TimetableService) GetStudentTimetable(ctx context.Context, studentID int64) (*models.StudentTimetable, error) {
	var active []*models.Enrollment

	err := s.txManager.WithTx(ctx, func(ctx context.Context, repos repositories.TxRepositories) error {
		if _, err := repos.Students.FindByID(ctx, studentID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.StudentNotFound(studentID)
			}
			return err
		}

		var err error
		active, err = repos.Enrollments.FindActiveByStudentID(ctx, studentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	timetable := &models.StudentTimetable{
		StudentID: studentID,
		Courses:   make([]models.TimetableCourse, 0, len(active)),
	}

	courses := make([]*models.Course, 0, len(active))
	for _, enrollment := range active {
		if enrollment.Course != nil {
			courses = append(courses, enrollment.Course)
		}
	}
	sort.SliceStable(courses, func(i, j int) bool {
		a, b := courses[i].TimeSlot, courses[j].TimeSlot
		if weekOrder(a) != weekOrder(b) {
			return weekOrder(a) < weekOrder(b)
		}
		return a.StartTime < b.StartTime
	})

	for _, course := range courses {
		entry := models.TimetableCourse{
			CourseID:   course.ID,
			CourseName: course.Name,
			Credits:    course.Credits,
			Schedule:   course.TimeSlot.String(),
		}
		if course.Professor != nil {
			entry.ProfessorName = course.Professor.Name
		}
		if course.Department != nil {
			entry.DepartmentName = course.Department.Name
		}
		timetable.TotalCredits += course.Credits
		timetable.Courses = append(timetable.Courses, entry)
	}

	return timetable, nil
}

// weekOrder puts Monday first and Sunday last
func weekOrder(slot models.TimeSlot) int {
	return (int(slot.DayOfWeek) + 6) % 7
}
