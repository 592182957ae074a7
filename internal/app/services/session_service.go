package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/app/repositories"
	"github.com/yigit/unitime/internal/app/scheduling"
	"github.com/yigit/unitime/internal/pkg/apperrors"
	"github.com/yigit/unitime/internal/pkg/helpers"
	"github.com/yigit/unitime/internal/pkg/notify"
)

// DeletedByAdminReason is recorded on sessions removed through DELETE.
const DeletedByAdminReason = "deleted by admin"

const minSearchLength = 2

// SessionService defines the interface for course session operations
type SessionService interface {
	CheckConflicts(ctx context.Context, req *dto.ConflictCheckRequest) (*scheduling.ConflictReport, error)
	CreateSession(ctx context.Context, createdBy int64, req *dto.CreateCourseRequest) (*models.SessionDetails, error)
	UpdateSession(ctx context.Context, id int64, req *dto.UpdateCourseRequest) (*models.SessionDetails, error)
	UpdateStatus(ctx context.Context, id int64, req *dto.UpdateStatusRequest) (*models.SessionDetails, error)
	CancelSession(ctx context.Context, id int64, reason string) (*models.SessionDetails, error)
	GetSession(ctx context.Context, id int64) (*models.SessionDetails, error)
	ListSessions(ctx context.Context, filter *dto.CourseFilterRequest, page helpers.Page) ([]*models.SessionDetails, int64, error)
	SearchSessions(ctx context.Context, query string, page helpers.Page) ([]*models.SessionDetails, int64, error)
}

// SessionReferences are the lookups a session write checks its ids against.
type SessionReferences struct {
	Subjects SubjectLookup
	Teachers TeacherLookup
	Rooms    RoomLookup
	Programs ProgramLookup
}

// sessionServiceImpl implements the SessionService interface
type sessionServiceImpl struct {
	uow      ScheduleUnitOfWork
	reads    scheduling.Store
	sessions SessionReader
	refs     SessionReferences
	notifier notify.Notifier
	metrics  SchedulingMetrics
	stats    StatsInvalidator
	logger   zerolog.Logger
}

// NewSessionService creates a new session service instance. reads serves the
// dry-run conflict check outside any transaction.
func NewSessionService(
	uow ScheduleUnitOfWork,
	reads scheduling.Store,
	sessions SessionReader,
	refs SessionReferences,
	notifier notify.Notifier,
	metrics SchedulingMetrics,
	stats StatsInvalidator,
	logger zerolog.Logger,
) SessionService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &sessionServiceImpl{
		uow:      uow,
		reads:    reads,
		sessions: sessions,
		refs:     refs,
		notifier: notifier,
		metrics:  metrics,
		stats:    stats,
		logger:   logger,
	}
}

// CheckConflicts runs the validator without writing anything.
func (s *sessionServiceImpl) CheckConflicts(ctx context.Context, req *dto.ConflictCheckRequest) (*scheduling.ConflictReport, error) {
	return s.check(ctx, s.reads, scheduling.Request{
		RoomID:           req.RoomID,
		TeacherID:        req.TeacherID,
		Interval:         scheduling.Interval{Start: req.StartTime.UTC(), End: req.EndTime.UTC()},
		ExcludeSessionID: req.ExcludeSessionID,
	})
}

func (s *sessionServiceImpl) check(ctx context.Context, store scheduling.Store, req scheduling.Request) (*scheduling.ConflictReport, error) {
	started := time.Now()
	report, err := scheduling.CheckConflicts(ctx, store, req)
	s.metrics.ObserveConflictCheck(time.Since(started))
	return report, err
}

// guard locks the room and teacher of candidate, then rejects it if the
// validator reports any conflict. It must run inside the write transaction.
func (s *sessionServiceImpl) guard(ctx context.Context, store ScheduleStore, candidate *models.Session, exclude *int64) error {
	if err := store.LockSchedule(ctx, scheduling.LockKeys(candidate.RoomID, candidate.TeacherID)...); err != nil {
		return err
	}
	report, err := s.check(ctx, store, scheduling.Request{
		RoomID:           candidate.RoomID,
		TeacherID:        candidate.TeacherID,
		Interval:         scheduling.Interval{Start: candidate.StartTime, End: candidate.EndTime},
		ExcludeSessionID: exclude,
	})
	if err != nil {
		return err
	}
	return scheduling.NewConflictError(report)
}

func validateSession(session *models.Session) error {
	if !session.SessionType.IsValid() {
		return fmt.Errorf("%w: unknown session type %q", apperrors.ErrValidationFailed, session.SessionType)
	}
	return scheduling.Interval{Start: session.StartTime, End: session.EndTime}.Validate()
}

func (r SessionReferences) GetSubject(ctx context.Context, id int64) (*models.Subject, error) {
	return r.Subjects.GetByID(ctx, id)
}

func (r SessionReferences) GetProgram(ctx context.Context, id int64) (*models.Program, error) {
	return r.Programs.GetByID(ctx, id)
}

func (r SessionReferences) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	return r.Rooms.GetByID(ctx, id)
}

func (r SessionReferences) GetTeacher(ctx context.Context, id int64) (*models.Teacher, error) {
	return r.Teachers.GetByID(ctx, id)
}

// checkReferences verifies every id of session that differs from previous.
// previous is nil on create. Inside a transaction refs must be the
// transaction's store so no second pool connection is taken.
func checkReferences(ctx context.Context, refs referenceReader, session, previous *models.Session) error {
	if previous == nil || previous.SubjectID != session.SubjectID {
		if _, err := refs.GetSubject(ctx, session.SubjectID); err != nil {
			return err
		}
	}
	if previous == nil || previous.ProgramID != session.ProgramID {
		if _, err := refs.GetProgram(ctx, session.ProgramID); err != nil {
			return err
		}
	}
	if previous == nil || previous.RoomID != session.RoomID {
		if _, err := refs.GetRoom(ctx, session.RoomID); err != nil {
			return err
		}
	}
	if previous == nil || previous.TeacherID != session.TeacherID {
		teacher, err := refs.GetTeacher(ctx, session.TeacherID)
		if err != nil {
			return err
		}
		if !teacher.IsActive {
			return fmt.Errorf("%w: id %d", apperrors.ErrTeacherInactive, teacher.ID)
		}
	}
	return nil
}

// recordFailure counts rejected writes by cause.
func (s *sessionServiceImpl) recordFailure(err error) {
	var conflict *scheduling.ConflictError
	if errors.As(err, &conflict) {
		kinds := conflict.Report.Kinds()
		labels := make([]string, len(kinds))
		for i, k := range kinds {
			labels[i] = string(k)
		}
		s.metrics.ConflictDetected(labels...)
		return
	}
	if errors.Is(err, apperrors.ErrScheduleBusy) {
		s.metrics.LockTimeout()
	}
}

// committed runs the after-commit side effects and returns the session with
// its display names.
func (s *sessionServiceImpl) committed(ctx context.Context, operation string, action notify.Action, session *models.Session) *models.SessionDetails {
	s.metrics.SessionWritten(operation)
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}

	details, err := s.sessions.GetDetails(ctx, session.ID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("sessionID", session.ID).Msg("Could not reload session after write")
		return &models.SessionDetails{Session: *session}
	}
	if s.notifier != nil {
		s.notifier.SessionChanged(action, details)
	}
	return details
}

// CreateSession schedules a new session
func (s *sessionServiceImpl) CreateSession(ctx context.Context, createdBy int64, req *dto.CreateCourseRequest) (*models.SessionDetails, error) {
	session := &models.Session{
		SubjectID:   req.SubjectID,
		TeacherID:   req.TeacherID,
		RoomID:      req.RoomID,
		ProgramID:   req.ProgramID,
		StartTime:   req.StartTime.UTC(),
		EndTime:     req.EndTime.UTC(),
		SessionType: models.SessionType(req.SessionType),
		Status:      models.StatusPlanned,
		Notes:       req.Notes,
	}
	if createdBy > 0 {
		session.CreatedBy = &createdBy
	}

	if err := validateSession(session); err != nil {
		return nil, err
	}
	if err := checkReferences(ctx, s.refs, session, nil); err != nil {
		return nil, err
	}

	err := s.uow.Within(ctx, func(ctx context.Context, store ScheduleStore) error {
		if err := s.guard(ctx, store, session, nil); err != nil {
			return err
		}
		return store.CreateSession(ctx, session)
	})
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}

	s.logger.Info().
		Int64("sessionID", session.ID).
		Int64("roomID", session.RoomID).
		Int64("teacherID", session.TeacherID).
		Time("start", session.StartTime).
		Msg("Session scheduled")
	return s.committed(ctx, "create", notify.ActionScheduled, session), nil
}

// UpdateSession reschedules or edits a session. The stored row is locked for
// the duration of the write.
func (s *sessionServiceImpl) UpdateSession(ctx context.Context, id int64, req *dto.UpdateCourseRequest) (*models.SessionDetails, error) {
	var updated *models.Session

	err := s.uow.Within(ctx, func(ctx context.Context, store ScheduleStore) error {
		current, err := store.GetSessionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == models.StatusCancelled {
			return fmt.Errorf("%w: id %d", apperrors.ErrSessionCancelled, id)
		}

		next := *current
		applySessionUpdate(&next, req)
		if err := validateSession(&next); err != nil {
			return err
		}
		if err := checkReferences(ctx, store, &next, current); err != nil {
			return err
		}
		if err := s.guard(ctx, store, &next, &current.ID); err != nil {
			return err
		}
		if err := store.UpdateSession(ctx, &next); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}

	s.logger.Info().Int64("sessionID", id).Msg("Session updated")
	return s.committed(ctx, "update", notify.ActionRescheduled, updated), nil
}

func applySessionUpdate(session *models.Session, req *dto.UpdateCourseRequest) {
	if req.SubjectID != nil {
		session.SubjectID = *req.SubjectID
	}
	if req.TeacherID != nil {
		session.TeacherID = *req.TeacherID
	}
	if req.RoomID != nil {
		session.RoomID = *req.RoomID
	}
	if req.ProgramID != nil {
		session.ProgramID = *req.ProgramID
	}
	if req.StartTime != nil {
		session.StartTime = req.StartTime.UTC()
	}
	if req.EndTime != nil {
		session.EndTime = req.EndTime.UTC()
	}
	if req.SessionType != nil {
		session.SessionType = models.SessionType(*req.SessionType)
	}
	if req.Notes != nil {
		session.Notes = req.Notes
	}
}

// UpdateStatus moves a session along planned -> confirmed -> cancelled.
func (s *sessionServiceImpl) UpdateStatus(ctx context.Context, id int64, req *dto.UpdateStatusRequest) (*models.SessionDetails, error) {
	next := models.SessionStatus(req.Status)
	if !next.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidationFailed, req.Status)
	}

	var reason *string
	if next == models.StatusCancelled {
		if req.Reason == nil || strings.TrimSpace(*req.Reason) == "" {
			return nil, fmt.Errorf("%w: a reason is required to cancel a session", apperrors.ErrValidationFailed)
		}
		trimmed := strings.TrimSpace(*req.Reason)
		reason = &trimmed
	}

	var changed *models.Session
	err := s.uow.Within(ctx, func(ctx context.Context, store ScheduleStore) error {
		current, err := store.GetSessionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == models.StatusCancelled {
			return fmt.Errorf("%w: id %d", apperrors.ErrSessionCancelled, id)
		}
		if !current.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidStatusTransition, current.Status, next)
		}
		if err := store.UpdateSessionStatus(ctx, id, next, reason); err != nil {
			return err
		}
		current.Status = next
		if reason != nil {
			current.CancellationReason = reason
		}
		changed = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("sessionID", id).Str("status", string(next)).Msg("Session status changed")
	if next == models.StatusCancelled {
		return s.committed(ctx, "cancel", notify.ActionCancelled, changed), nil
	}
	return s.committed(ctx, "status", notify.ActionConfirmed, changed), nil
}

// CancelSession soft-deletes a session
func (s *sessionServiceImpl) CancelSession(ctx context.Context, id int64, reason string) (*models.SessionDetails, error) {
	if strings.TrimSpace(reason) == "" {
		reason = DeletedByAdminReason
	}
	return s.UpdateStatus(ctx, id, &dto.UpdateStatusRequest{
		Status: string(models.StatusCancelled),
		Reason: &reason,
	})
}

// GetSession retrieves a session by ID
func (s *sessionServiceImpl) GetSession(ctx context.Context, id int64) (*models.SessionDetails, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid session ID", apperrors.ErrValidationFailed)
	}
	return s.sessions.GetDetails(ctx, id)
}

// ListSessions returns one page of sessions matching filter
func (s *sessionServiceImpl) ListSessions(ctx context.Context, filter *dto.CourseFilterRequest, page helpers.Page) ([]*models.SessionDetails, int64, error) {
	f, err := sessionFilterFromRequest(filter)
	if err != nil {
		return nil, 0, err
	}
	f.Offset = page.Offset()
	f.Limit = page.Limit()
	return s.sessions.List(ctx, f)
}

func sessionFilterFromRequest(req *dto.CourseFilterRequest) (repositories.SessionFilter, error) {
	f := repositories.SessionFilter{}
	if req == nil {
		return f, nil
	}
	f.ProgramID = req.ProgramID
	f.TeacherID = req.TeacherID
	f.RoomID = req.RoomID
	f.SubjectID = req.SubjectID
	f.From = req.From
	f.To = req.To

	if req.Status != "" {
		status := models.SessionStatus(req.Status)
		if !status.IsValid() {
			return f, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidationFailed, req.Status)
		}
		f.Status = &status
	}
	if req.SessionType != "" {
		sessionType := models.SessionType(req.SessionType)
		if !sessionType.IsValid() {
			return f, fmt.Errorf("%w: unknown session type %q", apperrors.ErrValidationFailed, req.SessionType)
		}
		f.SessionType = &sessionType
	}
	if f.From != nil && f.To != nil {
		if err := (scheduling.Interval{Start: *f.From, End: *f.To}).Validate(); err != nil {
			return f, err
		}
	}
	return f, nil
}

// SearchSessions matches subject name or code, teacher name and room name
func (s *sessionServiceImpl) SearchSessions(ctx context.Context, query string, page helpers.Page) ([]*models.SessionDetails, int64, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchLength {
		return nil, 0, fmt.Errorf("%w: search query must be at least %d characters", apperrors.ErrValidationFailed, minSearchLength)
	}
	return s.sessions.List(ctx, repositories.SessionFilter{
		Search: query,
		Offset: page.Offset(),
		Limit:  page.Limit(),
	})
}
