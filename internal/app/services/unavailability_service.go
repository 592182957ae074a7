package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/app/scheduling"
	"github.com/yigit/unitime/internal/pkg/apperrors"
)

// UnavailabilityService manages teacher blackout windows. Only approved
// windows block scheduling.
type UnavailabilityService interface {
	ListForTeacher(ctx context.Context, viewer Viewer, teacherID int64) ([]*models.Unavailability, error)
	Declare(ctx context.Context, viewer Viewer, teacherID int64, req *dto.UnavailabilityRequest) (*models.Unavailability, error)
	Review(ctx context.Context, viewer Viewer, id int64, req *dto.ApprovalRequest) (*models.Unavailability, error)
	Delete(ctx context.Context, viewer Viewer, id int64) error
}

// UnavailabilityStore reads and removes windows outside a schedule write.
type UnavailabilityStore interface {
	GetByID(ctx context.Context, id int64) (*models.Unavailability, error)
	ListByTeacher(ctx context.Context, teacherID int64) ([]*models.Unavailability, error)
	Delete(ctx context.Context, id int64) error
}

type unavailabilityServiceImpl struct {
	uow      ScheduleUnitOfWork
	windows  UnavailabilityStore
	teachers TeacherLookup
	stats    StatsInvalidator
	logger   zerolog.Logger
}

// NewUnavailabilityService creates a new unavailability service
func NewUnavailabilityService(
	uow ScheduleUnitOfWork,
	windows UnavailabilityStore,
	teachers TeacherLookup,
	stats StatsInvalidator,
	logger zerolog.Logger,
) UnavailabilityService {
	return &unavailabilityServiceImpl{
		uow:      uow,
		windows:  windows,
		teachers: teachers,
		stats:    stats,
		logger:   logger,
	}
}

// authorize lets admins act on any teacher and teachers on themselves only.
func (s *unavailabilityServiceImpl) authorize(ctx context.Context, viewer Viewer, teacherID int64) (*models.Teacher, error) {
	teacher, err := s.teachers.GetByID(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if viewer.IsAdmin() {
		return teacher, nil
	}
	if viewer.Role != models.RoleTeacher || teacher.UserID != viewer.UserID {
		return nil, apperrors.NewForbiddenError("you can only manage your own unavailability")
	}
	return teacher, nil
}

func (s *unavailabilityServiceImpl) invalidateStats(ctx context.Context) {
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
}

// ensureNoSessions refuses to approve a window the teacher already has
// sessions in. The teacher lock keeps a concurrent session write out until
// the approval commits.
func ensureNoSessions(ctx context.Context, store ScheduleStore, teacherID int64, window scheduling.Interval) error {
	if err := store.LockSchedule(ctx, scheduling.TeacherLockKey(teacherID)); err != nil {
		return err
	}
	ids, err := store.FindOverlappingSessions(ctx, scheduling.SessionOverlapQuery{TeacherID: &teacherID, Interval: window})
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		return apperrors.NewCustomError(apperrors.ErrUnavailabilityOverlaps,
			fmt.Sprintf("teacher has %d scheduled session(s) in this window", len(ids))).
			WithDetails(map[string]interface{}{"sessionIds": ids})
	}
	return nil
}

// ListForTeacher returns every window of the teacher
func (s *unavailabilityServiceImpl) ListForTeacher(ctx context.Context, viewer Viewer, teacherID int64) ([]*models.Unavailability, error) {
	if _, err := s.authorize(ctx, viewer, teacherID); err != nil {
		return nil, err
	}
	return s.windows.ListByTeacher(ctx, teacherID)
}

// Declare records a window. Admin declarations are approved at once, teacher
// declarations wait for review.
func (s *unavailabilityServiceImpl) Declare(ctx context.Context, viewer Viewer, teacherID int64, req *dto.UnavailabilityRequest) (*models.Unavailability, error) {
	window, err := scheduling.NewInterval(req.StartTime.UTC(), req.EndTime.UTC())
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: reason cannot be empty", apperrors.ErrValidationFailed)
	}
	if _, err := s.authorize(ctx, viewer, teacherID); err != nil {
		return nil, err
	}

	u := &models.Unavailability{
		TeacherID:      teacherID,
		StartTime:      window.Start,
		EndTime:        window.End,
		Reason:         reason,
		Description:    req.Description,
		ApprovalStatus: models.ApprovalPending,
		CreatedBy:      &viewer.UserID,
	}
	if viewer.IsAdmin() {
		u.ApprovalStatus = models.ApprovalApproved
		u.ReviewedBy = &viewer.UserID
	}

	err = s.uow.Within(ctx, func(ctx context.Context, store ScheduleStore) error {
		if u.ApprovalStatus == models.ApprovalApproved {
			if err := ensureNoSessions(ctx, store, teacherID, window); err != nil {
				return err
			}
		}
		return store.CreateUnavailability(ctx, u)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("unavailabilityID", u.ID).
		Int64("teacherID", teacherID).
		Str("status", string(u.ApprovalStatus)).
		Msg("Unavailability declared")
	s.invalidateStats(ctx)
	return u, nil
}

// Review approves or rejects a window
func (s *unavailabilityServiceImpl) Review(ctx context.Context, viewer Viewer, id int64, req *dto.ApprovalRequest) (*models.Unavailability, error) {
	if !viewer.IsAdmin() {
		return nil, apperrors.NewForbiddenError("only administrators can review unavailability")
	}
	status := models.ApprovalStatus(req.Status)
	if status != models.ApprovalApproved && status != models.ApprovalRejected {
		return nil, fmt.Errorf("%w: status must be approved or rejected", apperrors.ErrValidationFailed)
	}

	var reviewed *models.Unavailability
	err := s.uow.Within(ctx, func(ctx context.Context, store ScheduleStore) error {
		u, err := store.GetUnavailability(ctx, id)
		if err != nil {
			return err
		}
		if status == models.ApprovalApproved && u.ApprovalStatus != models.ApprovalApproved {
			window := scheduling.Interval{Start: u.StartTime, End: u.EndTime}
			if err := ensureNoSessions(ctx, store, u.TeacherID, window); err != nil {
				return err
			}
		}
		if err := store.SetUnavailabilityApproval(ctx, id, status, viewer.UserID); err != nil {
			return err
		}
		u.ApprovalStatus = status
		u.ReviewedBy = &viewer.UserID
		reviewed = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("unavailabilityID", id).Str("status", string(status)).Msg("Unavailability reviewed")
	s.invalidateStats(ctx)
	return reviewed, nil
}

// Delete removes a window; owners and admins only
func (s *unavailabilityServiceImpl) Delete(ctx context.Context, viewer Viewer, id int64) error {
	u, err := s.windows.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.authorize(ctx, viewer, u.TeacherID); err != nil {
		return err
	}
	if err := s.windows.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateStats(ctx)
	return nil
}
