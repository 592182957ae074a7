package dto

import (
	"time"

	"github.com/yigit/unitime/internal/app/models"
)

// UserResponse is the public view of a user.
type UserResponse struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	RoleType    string     `json:"roleType" enums:"ADMIN,TEACHER,STUDENT"`
	ProgramID   *int64     `json:"programId,omitempty"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// ProfileResponse is the current user, with the teacher profile for teachers.
type ProfileResponse struct {
	UserResponse
	Teacher *TeacherResponse `json:"teacher,omitempty"`
}

// NewUserResponse converts a user model.
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		RoleType:    string(u.RoleType),
		ProgramID:   u.ProgramID,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
	}
}

// CreateUserRequest is an admin-created account. Teacher fields are required
// when roleType is TEACHER, programId when it is STUDENT.
type CreateUserRequest struct {
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	FirstName      string `json:"firstName" binding:"required,min=2,max=100"`
	LastName       string `json:"lastName" binding:"required,min=2,max=100"`
	RoleType       string `json:"roleType" binding:"required,role_type"`
	ProgramID      *int64 `json:"programId,omitempty" binding:"omitempty,gt=0"`
	DepartmentID   *int64 `json:"departmentId,omitempty" binding:"omitempty,gt=0"`
	EmployeeNumber string `json:"employeeNumber,omitempty" binding:"omitempty,max=30"`
	Specialty      string `json:"specialty,omitempty"`
	Grade          string `json:"grade,omitempty"`
}

// UserFilterRequest represents user filtering parameters
type UserFilterRequest struct {
	Role   string `form:"role" binding:"omitempty,role_type"`
	Search string `form:"search"`
	Active *bool  `form:"active"`
}

// UserListResponse represents a list of users with pagination
type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination PaginationInfo `json:"pagination"`
}
