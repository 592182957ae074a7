package models

import "time"

// SessionType is the pedagogical kind of a session.
type SessionType string

const (
	SessionLecture  SessionType = "lecture"
	SessionTutorial SessionType = "tutorial"
	SessionLab      SessionType = "lab"
	SessionExam     SessionType = "exam"
)

// IsValid reports whether t is a known session type.
func (t SessionType) IsValid() bool {
	switch t {
	case SessionLecture, SessionTutorial, SessionLab, SessionExam:
		return true
	}
	return false
}

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	StatusPlanned   SessionStatus = "planned"
	StatusConfirmed SessionStatus = "confirmed"
	StatusCancelled SessionStatus = "cancelled"
)

// IsValid reports whether s is a known status.
func (s SessionStatus) IsValid() bool {
	switch s {
	case StatusPlanned, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a session in status s may move to next.
// planned -> confirmed, planned|confirmed -> cancelled. Cancelled is final.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case StatusPlanned:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCancelled
	}
	return false
}

// Session is one scheduled occurrence of a subject.
type Session struct {
	ID                 int64         `json:"id" db:"id"`
	SubjectID          int64         `json:"subjectId" db:"subject_id"`
	TeacherID          int64         `json:"teacherId" db:"teacher_id"`
	RoomID             int64         `json:"roomId" db:"room_id"`
	ProgramID          int64         `json:"programId" db:"program_id"`
	StartTime          time.Time     `json:"startTime" db:"start_time"`
	EndTime            time.Time     `json:"endTime" db:"end_time"`
	SessionType        SessionType   `json:"sessionType" db:"session_type"`
	Status             SessionStatus `json:"status" db:"status"`
	CancellationReason *string       `json:"cancellationReason,omitempty" db:"cancellation_reason"`
	Notes              *string       `json:"notes,omitempty" db:"notes"`
	CreatedBy          *int64        `json:"createdBy,omitempty" db:"created_by"`
	CreatedAt          time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time     `json:"updatedAt" db:"updated_at"`
}

// SessionDetails is a session joined with the names a timetable shows.
type SessionDetails struct {
	Session
	SubjectCode      string `json:"subjectCode"`
	SubjectName      string `json:"subjectName"`
	RoomName         string `json:"roomName"`
	BuildingName     string `json:"buildingName"`
	TeacherFirstName string `json:"teacherFirstName"`
	TeacherLastName  string `json:"teacherLastName"`
	TeacherEmail     string `json:"-"`
	ProgramName      string `json:"programName"`
}
