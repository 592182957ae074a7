package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/repositories"
	"github.com/yigit/unitime/internal/app/scheduling"
	"github.com/yigit/unitime/internal/pkg/apperrors"
	"github.com/yigit/unitime/internal/pkg/helpers"
)

const (
	defaultTimetableSpan = 7 * 24 * time.Hour
	maxTimetableSpan     = 184 * 24 * time.Hour
)

// TimetableQuery narrows a timetable. Nil bounds default to the current week.
type TimetableQuery struct {
	From      *time.Time
	To        *time.Time
	ProgramID *int64
	TeacherID *int64
	RoomID    *int64
}

// Timetable is the resolved window and its sessions in start order.
type Timetable struct {
	Window   scheduling.Interval
	Sessions []*models.SessionDetails
}

// TimetableService serves role-scoped timetables
type TimetableService interface {
	GetTimetable(ctx context.Context, viewer Viewer, q TimetableQuery) (*Timetable, error)
}

type timetableServiceImpl struct {
	sessions SessionReader
	teachers TeacherLookup
	now      func() time.Time
}

// NewTimetableService creates a new timetable service
func NewTimetableService(sessions SessionReader, teachers TeacherLookup) TimetableService {
	return &timetableServiceImpl{sessions: sessions, teachers: teachers, now: time.Now}
}

func (s *timetableServiceImpl) resolveWindow(q TimetableQuery) (scheduling.Interval, error) {
	var window scheduling.Interval
	switch {
	case q.From != nil && q.To != nil:
		window = scheduling.Interval{Start: *q.From, End: *q.To}
	case q.From != nil:
		window = scheduling.Interval{Start: *q.From, End: q.From.Add(defaultTimetableSpan)}
	case q.To != nil:
		window = scheduling.Interval{Start: q.To.Add(-defaultTimetableSpan), End: *q.To}
	default:
		start := helpers.StartOfWeek(s.now().UTC())
		window = scheduling.Interval{Start: start, End: start.Add(defaultTimetableSpan)}
	}

	return window, checkWindow("timetable", window)
}

// checkWindow validates a read window and caps its length at
// maxTimetableSpan.
func checkWindow(kind string, window scheduling.Interval) error {
	if err := window.Validate(); err != nil {
		return err
	}
	if window.Duration() > maxTimetableSpan {
		return fmt.Errorf("%w: %s window is limited to %d days", apperrors.ErrValidationFailed, kind, int(maxTimetableSpan.Hours()/24))
	}
	return nil
}

// GetTimetable returns the viewer's non-cancelled sessions in the window.
// Teachers see their own sessions, students the sessions of their program and
// admins everything, narrowed by the optional filters.
func (s *timetableServiceImpl) GetTimetable(ctx context.Context, viewer Viewer, q TimetableQuery) (*Timetable, error) {
	window, err := s.resolveWindow(q)
	if err != nil {
		return nil, err
	}

	f := repositories.SessionFilter{
		From:             &window.Start,
		To:               &window.End,
		ExcludeCancelled: true,
	}

	switch viewer.Role {
	case models.RoleAdmin:
		f.ProgramID = q.ProgramID
		f.TeacherID = q.TeacherID
		f.RoomID = q.RoomID
	case models.RoleTeacher:
		teacher, err := s.teachers.GetByUserID(ctx, viewer.UserID)
		if err != nil {
			return nil, err
		}
		f.TeacherID = &teacher.ID
		f.ProgramID = q.ProgramID
	case models.RoleStudent:
		switch {
		case viewer.ProgramID != nil:
			f.ProgramID = viewer.ProgramID
		case q.ProgramID != nil:
			f.ProgramID = q.ProgramID
		default:
			return nil, fmt.Errorf("%w: programId is required", apperrors.ErrValidationFailed)
		}
	default:
		return nil, apperrors.NewForbiddenError("unknown role")
	}

	sessions, _, err := s.sessions.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Timetable{Window: window, Sessions: sessions}, nil
}
