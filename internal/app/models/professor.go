package models

// Professor teaches courses and belongs to exactly one department
type Professor struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	DepartmentID int64  `json:"departmentId" db:"department_id"`

	// Relations (populated when needed)
	Department *Department `json:"department,omitempty"`
}
