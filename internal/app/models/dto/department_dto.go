package dto

// CreateDepartmentRequest represents department creation data
type CreateDepartmentRequest struct {
	Name      string `json:"name" binding:"required"`
	Code      string `json:"code" binding:"required,max=20"`
	FacultyID int64  `json:"facultyId" binding:"required,gt=0"`
}

// UpdateDepartmentRequest represents department update data
type UpdateDepartmentRequest struct {
	Name      string `json:"name" binding:"required"`
	Code      string `json:"code" binding:"required,max=20"`
	FacultyID int64  `json:"facultyId" binding:"required,gt=0"`
}
