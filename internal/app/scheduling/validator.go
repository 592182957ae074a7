package scheduling

import (
	"context"
	"fmt"
)

// SessionOverlapQuery selects non-cancelled sessions whose interval overlaps
// Interval. Nil filters are ignored.
type SessionOverlapQuery struct {
	RoomID           *int64
	TeacherID        *int64
	Interval         Interval
	ExcludeSessionID *int64
}

// SessionFinder returns the ids of non-cancelled sessions matching q.
type SessionFinder interface {
	FindOverlappingSessions(ctx context.Context, q SessionOverlapQuery) ([]int64, error)
}

// UnavailabilityFinder returns the ids of approved unavailability windows of
// teacherID overlapping iv.
type UnavailabilityFinder interface {
	FindApprovedUnavailabilities(ctx context.Context, teacherID int64, iv Interval) ([]int64, error)
}

// Store is everything CheckConflicts reads.
type Store interface {
	SessionFinder
	UnavailabilityFinder
}

// Request is a candidate session. ExcludeSessionID is set on updates so the
// session does not collide with its own stored row.
type Request struct {
	RoomID           int64
	TeacherID        int64
	Interval         Interval
	ExcludeSessionID *int64
}

// CheckConflicts runs the room, teacher and unavailability scans for req
// against store and reports which of them found a collision. It has no side
// effects. Storage errors are returned unchanged.
func CheckConflicts(ctx context.Context, store Store, req Request) (*ConflictReport, error) {
	if err := req.Interval.Validate(); err != nil {
		return nil, err
	}

	report := &ConflictReport{}

	roomID := req.RoomID
	roomIDs, err := store.FindOverlappingSessions(ctx, SessionOverlapQuery{
		RoomID:           &roomID,
		Interval:         req.Interval,
		ExcludeSessionID: req.ExcludeSessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("room overlap scan: %w", err)
	}
	report.RoomSessionIDs = nonNil(roomIDs)
	report.RoomConflict = len(roomIDs) > 0

	teacherID := req.TeacherID
	teacherIDs, err := store.FindOverlappingSessions(ctx, SessionOverlapQuery{
		TeacherID:        &teacherID,
		Interval:         req.Interval,
		ExcludeSessionID: req.ExcludeSessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("teacher overlap scan: %w", err)
	}
	report.TeacherSessionIDs = nonNil(teacherIDs)
	report.TeacherConflict = len(teacherIDs) > 0

	unavailableIDs, err := store.FindApprovedUnavailabilities(ctx, req.TeacherID, req.Interval)
	if err != nil {
		return nil, fmt.Errorf("unavailability scan: %w", err)
	}
	report.UnavailabilityIDs = nonNil(unavailableIDs)
	report.TeacherUnavailable = len(unavailableIDs) > 0

	return report, nil
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
