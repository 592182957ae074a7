package dto

import (
	"time"

	"github.com/yigit/unitime/internal/app/models"
)

// CreateCourseRequest schedules a new session.
type CreateCourseRequest struct {
	SubjectID   int64     `json:"subjectId" binding:"required,gt=0"`
	TeacherID   int64     `json:"teacherId" binding:"required,gt=0"`
	RoomID      int64     `json:"roomId" binding:"required,gt=0"`
	ProgramID   int64     `json:"programId" binding:"required,gt=0"`
	StartTime   time.Time `json:"startTime" binding:"required"`
	EndTime     time.Time `json:"endTime" binding:"required"`
	SessionType string    `json:"sessionType" binding:"required,session_type"`
	Notes       *string   `json:"notes,omitempty"`
}

// UpdateCourseRequest reschedules or edits a session. Omitted fields keep
// their stored value.
type UpdateCourseRequest struct {
	SubjectID   *int64     `json:"subjectId,omitempty" binding:"omitempty,gt=0"`
	TeacherID   *int64     `json:"teacherId,omitempty" binding:"omitempty,gt=0"`
	RoomID      *int64     `json:"roomId,omitempty" binding:"omitempty,gt=0"`
	ProgramID   *int64     `json:"programId,omitempty" binding:"omitempty,gt=0"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	SessionType *string    `json:"sessionType,omitempty" binding:"omitempty,session_type"`
	Notes       *string    `json:"notes,omitempty"`
}

// ConflictCheckRequest is a dry-run of the conflict validator.
type ConflictCheckRequest struct {
	RoomID           int64     `json:"roomId" binding:"required,gt=0"`
	TeacherID        int64     `json:"teacherId" binding:"required,gt=0"`
	StartTime        time.Time `json:"startTime" binding:"required"`
	EndTime          time.Time `json:"endTime" binding:"required"`
	ExcludeSessionID *int64    `json:"excludeSessionId,omitempty" binding:"omitempty,gt=0"`
}

// UpdateStatusRequest moves a session through its lifecycle.
type UpdateStatusRequest struct {
	Status string  `json:"status" binding:"required,session_status"`
	Reason *string `json:"reason,omitempty" binding:"omitempty,max=500"`
}

// CourseFilterRequest are the session list query parameters.
type CourseFilterRequest struct {
	ProgramID   *int64     `form:"programId" binding:"omitempty,gt=0"`
	TeacherID   *int64     `form:"teacherId" binding:"omitempty,gt=0"`
	RoomID      *int64     `form:"roomId" binding:"omitempty,gt=0"`
	SubjectID   *int64     `form:"subjectId" binding:"omitempty,gt=0"`
	Status      string     `form:"status" binding:"omitempty,session_status"`
	SessionType string     `form:"sessionType" binding:"omitempty,session_type"`
	From        *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To          *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// CourseResponse is a session with display names.
type CourseResponse struct {
	ID                 int64     `json:"id"`
	SubjectID          int64     `json:"subjectId"`
	SubjectCode        string    `json:"subjectCode,omitempty"`
	SubjectName        string    `json:"subjectName,omitempty"`
	TeacherID          int64     `json:"teacherId"`
	TeacherName        string    `json:"teacherName,omitempty"`
	RoomID             int64     `json:"roomId"`
	RoomName           string    `json:"roomName,omitempty"`
	BuildingName       string    `json:"buildingName,omitempty"`
	ProgramID          int64     `json:"programId"`
	ProgramName        string    `json:"programName,omitempty"`
	StartTime          time.Time `json:"startTime"`
	EndTime            time.Time `json:"endTime"`
	SessionType        string    `json:"sessionType"`
	Status             string    `json:"status"`
	CancellationReason *string   `json:"cancellationReason,omitempty"`
	Notes              *string   `json:"notes,omitempty"`
}

// NewCourseResponse converts a bare session.
func NewCourseResponse(s *models.Session) CourseResponse {
	return CourseResponse{
		ID:                 s.ID,
		SubjectID:          s.SubjectID,
		TeacherID:          s.TeacherID,
		RoomID:             s.RoomID,
		ProgramID:          s.ProgramID,
		StartTime:          s.StartTime,
		EndTime:            s.EndTime,
		SessionType:        string(s.SessionType),
		Status:             string(s.Status),
		CancellationReason: s.CancellationReason,
		Notes:              s.Notes,
	}
}

// NewCourseDetailsResponse converts a session with its joined names.
func NewCourseDetailsResponse(d *models.SessionDetails) CourseResponse {
	resp := NewCourseResponse(&d.Session)
	resp.SubjectCode = d.SubjectCode
	resp.SubjectName = d.SubjectName
	resp.TeacherName = d.TeacherFirstName + " " + d.TeacherLastName
	resp.RoomName = d.RoomName
	resp.BuildingName = d.BuildingName
	resp.ProgramName = d.ProgramName
	return resp
}

// CourseListResponse is one page of sessions.
type CourseListResponse struct {
	Courses    []CourseResponse `json:"courses"`
	Pagination PaginationInfo   `json:"pagination"`
}

// TimetableResponse is the caller's non-cancelled sessions in a window,
// ordered by start time.
type TimetableResponse struct {
	From     time.Time        `json:"from"`
	To       time.Time        `json:"to"`
	Sessions []CourseResponse `json:"sessions"`
}
