package dto

// CreateProgramRequest represents program creation data
type CreateProgramRequest struct {
	DepartmentID int64  `json:"departmentId" binding:"required,gt=0"`
	Name         string `json:"name" binding:"required"`
	Code         string `json:"code" binding:"required,max=20"`
	Level        string `json:"level" binding:"omitempty,max=10"`
}

// CreateSubjectRequest represents subject creation data
type CreateSubjectRequest struct {
	ProgramID   int64   `json:"programId" binding:"required,gt=0"`
	Code        string  `json:"code" binding:"required,max=20"`
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
	Credits     int     `json:"credits" binding:"gte=0"`
	HoursTotal  int     `json:"hoursTotal" binding:"gte=0"`
}

// CreateBuildingRequest represents building creation data
type CreateBuildingRequest struct {
	Name    string `json:"name" binding:"required"`
	Code    string `json:"code" binding:"required,max=20"`
	Address string `json:"address"`
}
