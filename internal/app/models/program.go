package models

// Program is a degree track (filière) owned by a department. Students are
// enrolled in exactly one program and sessions are scheduled for a program.
type Program struct {
	ID           int64  `json:"id" db:"id"`
	DepartmentID int64  `json:"departmentId" db:"department_id"`
	Name         string `json:"name" db:"name"`
	Code         string `json:"code" db:"code"`
	Level        string `json:"level" db:"level" example:"L3"`

	Department *Department `json:"department,omitempty"`
}
