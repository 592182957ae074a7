package dto

import (
	"time"

	"github.com/yigit/unitime/internal/app/models"
)

// TeacherResponse is a teacher joined with its user and department.
type TeacherResponse struct {
	ID             int64  `json:"id" example:"5"`
	UserID         int64  `json:"userId" example:"12"`
	FirstName      string `json:"firstName" example:"Marie"`
	LastName       string `json:"lastName" example:"Ngoma"`
	Email          string `json:"email" example:"m.ngoma@unitime.app"`
	EmployeeNumber string `json:"employeeNumber" example:"ENS-0042"`
	Specialty      string `json:"specialty,omitempty"`
	Grade          string `json:"grade,omitempty"`
	DepartmentID   int64  `json:"departmentId"`
	DepartmentName string `json:"departmentName,omitempty"`
	IsActive       bool   `json:"isActive"`
}

// NewTeacherResponse converts a teacher with its relations loaded.
func NewTeacherResponse(t *models.Teacher) TeacherResponse {
	resp := TeacherResponse{
		ID:             t.ID,
		UserID:         t.UserID,
		EmployeeNumber: t.EmployeeNumber,
		Specialty:      t.Specialty,
		Grade:          t.Grade,
		DepartmentID:   t.DepartmentID,
		IsActive:       t.IsActive,
	}
	if t.User != nil {
		resp.FirstName = t.User.FirstName
		resp.LastName = t.User.LastName
		resp.Email = t.User.Email
	}
	if t.Department != nil {
		resp.DepartmentName = t.Department.Name
	}
	return resp
}

// TeacherFilterRequest are the teacher list query parameters.
type TeacherFilterRequest struct {
	DepartmentID *int64 `form:"departmentId" binding:"omitempty,gt=0"`
	Active       *bool  `form:"active"`
}

// UnavailabilityRequest declares a blackout window.
type UnavailabilityRequest struct {
	StartTime   time.Time `json:"startTime" binding:"required"`
	EndTime     time.Time `json:"endTime" binding:"required,gtfield=StartTime"`
	Reason      string    `json:"reason" binding:"required,max=255"`
	Description *string   `json:"description,omitempty"`
}

// ApprovalRequest reviews a pending unavailability.
type ApprovalRequest struct {
	Status string `json:"status" binding:"required,approval_status"`
}

// WorkloadResponse aggregates a teacher's non-cancelled sessions in a window.
type WorkloadResponse struct {
	TeacherID    int64              `json:"teacherId"`
	Start        time.Time          `json:"start"`
	End          time.Time          `json:"end"`
	SessionCount int                `json:"sessionCount"`
	TotalHours   float64            `json:"totalHours"`
	HoursByType  map[string]float64 `json:"hoursByType"`
}
