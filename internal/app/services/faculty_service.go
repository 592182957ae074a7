package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/pkg/apperrors"
)

// FacultyService defines the interface for faculty-related operations
type FacultyService interface {
	CreateFaculty(ctx context.Context, req *dto.CreateFacultyRequest) (*models.Faculty, error)
	GetFacultyByID(ctx context.Context, id int64) (*models.Faculty, error)
	GetAllFaculties(ctx context.Context) ([]*models.Faculty, error)
	UpdateFaculty(ctx context.Context, id int64, req *dto.UpdateFacultyRequest) (*models.Faculty, error)
	DeleteFaculty(ctx context.Context, id int64) error
}

// FacultyStore is the faculty persistence the service needs.
type FacultyStore interface {
	CreateFaculty(ctx context.Context, faculty *models.Faculty) (int64, error)
	GetFacultyByID(ctx context.Context, id int64) (*models.Faculty, error)
	GetAllFaculties(ctx context.Context) ([]*models.Faculty, error)
	UpdateFaculty(ctx context.Context, faculty *models.Faculty) error
	DeleteFaculty(ctx context.Context, id int64) error
}

// facultyServiceImpl implements the FacultyService interface
type facultyServiceImpl struct {
	facultyRepo FacultyStore
}

// NewFacultyService creates a new faculty service instance
func NewFacultyService(facultyRepo FacultyStore) FacultyService {
	return &facultyServiceImpl{
		facultyRepo: facultyRepo,
	}
}

// validateFaculty validates faculty data before database operations
func validateFaculty(faculty *models.Faculty) error {
	if faculty.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidationFailed)
	}
	if !isValidCode(faculty.Code) {
		return fmt.Errorf("%w: code must be alphanumeric and uppercase", apperrors.ErrValidationFailed)
	}
	return nil
}

// isValidCode checks that a catalogue or building code is non-empty
// uppercase alphanumeric.
func isValidCode(code string) bool {
	if code == "" {
		return false
	}
	for _, char := range code {
		if !((char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9')) {
			return false
		}
	}
	return true
}

// normalizeCode trims a code and uppercases it.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateFaculty creates a new faculty
func (s *facultyServiceImpl) CreateFaculty(ctx context.Context, req *dto.CreateFacultyRequest) (*models.Faculty, error) {
	faculty := &models.Faculty{
		Name:        strings.TrimSpace(req.Name),
		Code:        normalizeCode(req.Code),
		Description: req.Description,
	}
	if err := validateFaculty(faculty); err != nil {
		return nil, err
	}

	id, err := s.facultyRepo.CreateFaculty(ctx, faculty)
	if err != nil {
		return nil, err
	}
	faculty.ID = id
	return faculty, nil
}

// GetFacultyByID retrieves a faculty by ID
func (s *facultyServiceImpl) GetFacultyByID(ctx context.Context, id int64) (*models.Faculty, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid faculty ID", apperrors.ErrValidationFailed)
	}
	return s.facultyRepo.GetFacultyByID(ctx, id)
}

// GetAllFaculties retrieves all faculties
func (s *facultyServiceImpl) GetAllFaculties(ctx context.Context) ([]*models.Faculty, error) {
	faculties, err := s.facultyRepo.GetAllFaculties(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving faculties: %w", err)
	}
	return faculties, nil
}

// UpdateFaculty updates an existing faculty
func (s *facultyServiceImpl) UpdateFaculty(ctx context.Context, id int64, req *dto.UpdateFacultyRequest) (*models.Faculty, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid faculty ID", apperrors.ErrValidationFailed)
	}
	faculty := &models.Faculty{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Code:        normalizeCode(req.Code),
		Description: req.Description,
	}
	if err := validateFaculty(faculty); err != nil {
		return nil, err
	}

	if err := s.facultyRepo.UpdateFaculty(ctx, faculty); err != nil {
		return nil, err
	}
	return faculty, nil
}

// DeleteFaculty deletes a faculty that has no departments
func (s *facultyServiceImpl) DeleteFaculty(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid faculty ID", apperrors.ErrValidationFailed)
	}
	return s.facultyRepo.DeleteFaculty(ctx, id)
}
