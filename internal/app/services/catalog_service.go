package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/pkg/apperrors"
)

// CatalogService manages programs and their subjects
type CatalogService interface {
	ListPrograms(ctx context.Context, departmentID *int64) ([]*models.Program, error)
	GetProgram(ctx context.Context, id int64) (*models.Program, error)
	CreateProgram(ctx context.Context, req *dto.CreateProgramRequest) (*models.Program, error)

	ListSubjects(ctx context.Context, programID *int64) ([]*models.Subject, error)
	GetSubject(ctx context.Context, id int64) (*models.Subject, error)
	CreateSubject(ctx context.Context, req *dto.CreateSubjectRequest) (*models.Subject, error)
}

// ProgramStore is the program persistence the service needs.
type ProgramStore interface {
	Create(ctx context.Context, program *models.Program) error
	GetByID(ctx context.Context, id int64) (*models.Program, error)
	List(ctx context.Context, departmentID *int64) ([]*models.Program, error)
}

// SubjectStore is the subject persistence the service needs.
type SubjectStore interface {
	Create(ctx context.Context, subject *models.Subject) error
	GetByID(ctx context.Context, id int64) (*models.Subject, error)
	List(ctx context.Context, programID *int64) ([]*models.Subject, error)
}

type catalogServiceImpl struct {
	programs ProgramStore
	subjects SubjectStore
}

// NewCatalogService creates a new catalogue service
func NewCatalogService(programs ProgramStore, subjects SubjectStore) CatalogService {
	return &catalogServiceImpl{programs: programs, subjects: subjects}
}

// ListPrograms returns programs, optionally of one department
func (s *catalogServiceImpl) ListPrograms(ctx context.Context, departmentID *int64) ([]*models.Program, error) {
	programs, err := s.programs.List(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving programs: %w", err)
	}
	return programs, nil
}

// GetProgram retrieves a program by ID
func (s *catalogServiceImpl) GetProgram(ctx context.Context, id int64) (*models.Program, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid program ID", apperrors.ErrValidationFailed)
	}
	return s.programs.GetByID(ctx, id)
}

// CreateProgram creates a program. An unknown department surfaces from the
// repository as ErrDepartmentNotFound.
func (s *catalogServiceImpl) CreateProgram(ctx context.Context, req *dto.CreateProgramRequest) (*models.Program, error) {
	program := &models.Program{
		DepartmentID: req.DepartmentID,
		Name:         strings.TrimSpace(req.Name),
		Code:         normalizeCode(req.Code),
		Level:        strings.ToUpper(strings.TrimSpace(req.Level)),
	}
	if program.Name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidationFailed)
	}
	if !isValidCode(program.Code) {
		return nil, fmt.Errorf("%w: code must be alphanumeric and uppercase", apperrors.ErrValidationFailed)
	}

	if err := s.programs.Create(ctx, program); err != nil {
		return nil, err
	}
	return s.programs.GetByID(ctx, program.ID)
}

// ListSubjects returns subjects, optionally of one program
func (s *catalogServiceImpl) ListSubjects(ctx context.Context, programID *int64) ([]*models.Subject, error) {
	subjects, err := s.subjects.List(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving subjects: %w", err)
	}
	return subjects, nil
}

// GetSubject retrieves a subject by ID
func (s *catalogServiceImpl) GetSubject(ctx context.Context, id int64) (*models.Subject, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid subject ID", apperrors.ErrValidationFailed)
	}
	return s.subjects.GetByID(ctx, id)
}

// CreateSubject creates a subject in an existing program
func (s *catalogServiceImpl) CreateSubject(ctx context.Context, req *dto.CreateSubjectRequest) (*models.Subject, error) {
	subject := &models.Subject{
		ProgramID:   req.ProgramID,
		Code:        normalizeCode(req.Code),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Credits:     req.Credits,
		HoursTotal:  req.HoursTotal,
	}
	if subject.Name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidationFailed)
	}
	if !isValidCode(subject.Code) {
		return nil, fmt.Errorf("%w: code must be alphanumeric and uppercase", apperrors.ErrValidationFailed)
	}
	if subject.Credits < 0 || subject.HoursTotal < 0 {
		return nil, fmt.Errorf("%w: credits and hours cannot be negative", apperrors.ErrValidationFailed)
	}

	if _, err := s.programs.GetByID(ctx, subject.ProgramID); err != nil {
		return nil, err
	}
	if err := s.subjects.Create(ctx, subject); err != nil {
		return nil, err
	}
	return subject, nil
}
