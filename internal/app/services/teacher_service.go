package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/app/repositories"
	"github.com/yigit/unitime/internal/app/scheduling"
	"github.com/yigit/unitime/internal/pkg/apperrors"
)

// TeacherService defines the interface for teacher directory operations
type TeacherService interface {
	ListTeachers(ctx context.Context, filter *dto.TeacherFilterRequest) ([]*models.Teacher, error)
	GetTeacher(ctx context.Context, id int64) (*models.Teacher, error)
	GetWorkload(ctx context.Context, id int64, window scheduling.Interval) (*dto.WorkloadResponse, error)
}

// TeacherDirectory lists and reads teachers.
type TeacherDirectory interface {
	GetByID(ctx context.Context, id int64) (*models.Teacher, error)
	List(ctx context.Context, f repositories.TeacherFilter) ([]*models.Teacher, error)
}

type teacherServiceImpl struct {
	teachers TeacherDirectory
	sessions SessionReader
}

// NewTeacherService creates a new teacher service
func NewTeacherService(teachers TeacherDirectory, sessions SessionReader) TeacherService {
	return &teacherServiceImpl{teachers: teachers, sessions: sessions}
}

// ListTeachers returns the teachers matching filter
func (s *teacherServiceImpl) ListTeachers(ctx context.Context, filter *dto.TeacherFilterRequest) ([]*models.Teacher, error) {
	f := repositories.TeacherFilter{}
	if filter != nil {
		f.DepartmentID = filter.DepartmentID
		f.Active = filter.Active
	}
	teachers, err := s.teachers.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("error retrieving teachers: %w", err)
	}
	return teachers, nil
}

// GetTeacher retrieves a teacher by ID
func (s *teacherServiceImpl) GetTeacher(ctx context.Context, id int64) (*models.Teacher, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid teacher ID", apperrors.ErrValidationFailed)
	}
	return s.teachers.GetByID(ctx, id)
}

// GetWorkload totals the hours of the teacher's non-cancelled sessions inside
// window, per session type.
func (s *teacherServiceImpl) GetWorkload(ctx context.Context, id int64, window scheduling.Interval) (*dto.WorkloadResponse, error) {
	if err := checkWindow("workload", window); err != nil {
		return nil, err
	}
	if _, err := s.teachers.GetByID(ctx, id); err != nil {
		return nil, err
	}

	sessions, _, err := s.sessions.List(ctx, repositories.SessionFilter{
		TeacherID:        &id,
		From:             &window.Start,
		To:               &window.End,
		ExcludeCancelled: true,
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.WorkloadResponse{
		TeacherID:   id,
		Start:       window.Start,
		End:         window.End,
		HoursByType: map[string]float64{},
	}
	var total time.Duration
	for _, session := range sessions {
		part, ok := scheduling.Interval{Start: session.StartTime, End: session.EndTime}.Clip(window)
		if !ok {
			continue
		}
		resp.SessionCount++
		total += part.Duration()
		resp.HoursByType[string(session.SessionType)] += part.Duration().Hours()
	}
	for kind, hours := range resp.HoursByType {
		resp.HoursByType[kind] = roundHours(hours)
	}
	resp.TotalHours = roundHours(total.Hours())
	return resp, nil
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
