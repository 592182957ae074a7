package models

import "time"

// ApprovalStatus of a declared unavailability window.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Unavailability is a teacher-declared blackout window. Only approved windows
// block scheduling.
type Unavailability struct {
	ID             int64          `json:"id" db:"id"`
	TeacherID      int64          `json:"teacherId" db:"teacher_id"`
	StartTime      time.Time      `json:"startTime" db:"start_time"`
	EndTime        time.Time      `json:"endTime" db:"end_time"`
	Reason         string         `json:"reason" db:"reason"`
	Description    *string        `json:"description,omitempty" db:"description"`
	ApprovalStatus ApprovalStatus `json:"approvalStatus" db:"approval_status"`
	CreatedBy      *int64         `json:"createdBy,omitempty" db:"created_by"`
	ReviewedBy     *int64         `json:"reviewedBy,omitempty" db:"reviewed_by"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
}
