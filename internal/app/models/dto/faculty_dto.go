package dto

// CreateFacultyRequest represents faculty creation data
type CreateFacultyRequest struct {
	Name        string  `json:"name" binding:"required"`
	Code        string  `json:"code" binding:"required,max=20"`
	Description *string `json:"description,omitempty"`
}

// UpdateFacultyRequest represents faculty update data
type UpdateFacultyRequest struct {
	Name        string  `json:"name" binding:"required"`
	Code        string  `json:"code" binding:"required,max=20"`
	Description *string `json:"description,omitempty"`
}
