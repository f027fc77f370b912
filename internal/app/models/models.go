package models

// StudentTimetable lists the ACTIVE courses of one student.
type StudentTimetable struct {
	StudentID    int64             `json:"studentId"`
	TotalCredits int               `json:"totalCredits"`
	Courses      []TimetableCourse `json:"courses"`
}

// TimetableCourse is a read model row of StudentTimetable.
type TimetableCourse struct {
	CourseID       int64  `json:"courseId"`
	CourseName     string `json:"courseName"`
	Credits        int    `json:"credits"`
	Schedule       string `json:"schedule"`
	ProfessorName  string `json:"professorName"`
	DepartmentName string `json:"departmentName"`
}
