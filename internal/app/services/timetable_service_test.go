package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yigit/courseenroll/internal/pkg/apperrors"
)

func TestStudentTimetable(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	strategy := env.router(nil).Get(StrategyAtomic)
	ctx := context.Background()

	studentID := env.addStudent(t)
	friday := env.addCourse(t, 4, 5, slotOf(t, time.Friday, 9, 11))
	monday := env.addCourse(t, 3, 5, slotOf(t, time.Monday, 13, 15))
	dropped := env.addCourse(t, 2, 5, slotOf(t, time.Tuesday, 9, 10))

	var droppedEnrollmentID int64
	for _, courseID := range []int64{friday, monday, dropped} {
		enrollment, err := strategy.Enroll(ctx, studentID, courseID)
		if err != nil {
			t.Fatalf("enroll %d: %v", courseID, err)
		}
		if courseID == dropped {
			droppedEnrollmentID = enrollment.ID
		}
	}
	if err := strategy.Cancel(ctx, droppedEnrollmentID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	timetable, err := NewTimetableService(env.store).GetStudentTimetable(ctx, studentID)
	if err != nil {
		t.Fatalf("timetable: %v", err)
	}
	if timetable.TotalCredits != 7 || len(timetable.Courses) != 2 {
		t.Fatalf("unexpected timetable %+v", timetable)
	}
	first := timetable.Courses[0]
	if first.CourseID != monday || first.Schedule != "MON 13:00-15:00" {
		t.Fatalf("expected Monday course first, got %+v", first)
	}
	if first.ProfessorName != "Grace Hopper" || first.DepartmentName != "Computer Engineering" {
		t.Fatalf("missing names in %+v", first)
	}
	if timetable.Courses[1].CourseID != friday {
		t.Fatalf("expected Friday course last, got %+v", timetable.Courses[1])
	}
}

func TestStudentTimetableUnknownStudent(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := NewTimetableService(env.store).GetStudentTimetable(context.Background(), 404)
	if !errors.Is(err, apperrors.ErrStudentNotFound) {
		t.Fatalf("expected student not found, got %v", err)
	}
}
