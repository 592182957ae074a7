package models

// Teacher is the teaching profile attached to a TEACHER user.
type Teacher struct {
	ID             int64  `json:"id" db:"id"`
	UserID         int64  `json:"userId" db:"user_id"`
	DepartmentID   int64  `json:"departmentId" db:"department_id"`
	EmployeeNumber string `json:"employeeNumber" db:"employee_number"`
	Specialty      string `json:"specialty,omitempty" db:"specialty"`
	Grade          string `json:"grade,omitempty" db:"grade" example:"Associate Professor"`
	IsActive       bool   `json:"isActive" db:"is_active"`

	User       *User       `json:"user,omitempty"`
	Department *Department `json:"department,omitempty"`
}
