package scheduling

import (
	"strings"
)

// ConflictKind names which rule a candidate session broke.
type ConflictKind string

const (
	KindRoom           ConflictKind = "room"
	KindTeacher        ConflictKind = "teacher"
	KindUnavailability ConflictKind = "unavailability"
)

// ConflictReport is the verdict of CheckConflicts. The three flags are
// independent; any subset may be set.
type ConflictReport struct {
	RoomConflict       bool    `json:"roomConflict"`
	RoomSessionIDs     []int64 `json:"roomSessionIds"`
	TeacherConflict    bool    `json:"teacherConflict"`
	TeacherSessionIDs  []int64 `json:"teacherSessionIds"`
	TeacherUnavailable bool    `json:"teacherUnavailable"`
	UnavailabilityIDs  []int64 `json:"unavailabilityIds"`
}

// HasConflict reports whether any rule fired.
func (r *ConflictReport) HasConflict() bool {
	return r != nil && (r.RoomConflict || r.TeacherConflict || r.TeacherUnavailable)
}

// Kinds lists the rules that fired in room, teacher, unavailability order.
func (r *ConflictReport) Kinds() []ConflictKind {
	if r == nil {
		return nil
	}
	var kinds []ConflictKind
	if r.RoomConflict {
		kinds = append(kinds, KindRoom)
	}
	if r.TeacherConflict {
		kinds = append(kinds, KindTeacher)
	}
	if r.TeacherUnavailable {
		kinds = append(kinds, KindUnavailability)
	}
	return kinds
}

// Message is the user-facing summary, e.g. "room conflict" or
// "room, teacher conflict".
func (r *ConflictReport) Message() string {
	kinds := r.Kinds()
	if len(kinds) == 0 {
		return "no conflict"
	}
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ") + " conflict"
}

// ConflictError carries a positive report out of a write transaction so the
// transaction rolls back and the handler can render the report.
type ConflictError struct {
	Report *ConflictReport
}

func (e *ConflictError) Error() string {
	return e.Report.Message()
}

// NewConflictError wraps a report. It returns nil for a clean report.
func NewConflictError(report *ConflictReport) error {
	if !report.HasConflict() {
		return nil
	}
	return &ConflictError{Report: report}
}
