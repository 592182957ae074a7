package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/pkg/apperrors"
)

// DepartmentStore is the department persistence the service needs.
type DepartmentStore interface {
	Create(ctx context.Context, department *models.Department) error
	GetByID(ctx context.Context, id int64) (*models.Department, error)
	List(ctx context.Context, facultyID *int64) ([]*models.Department, error)
	Update(ctx context.Context, department *models.Department) error
	Delete(ctx context.Context, id int64) error
}

// FacultyLookup resolves the faculty a department belongs to.
type FacultyLookup interface {
	GetFacultyByID(ctx context.Context, id int64) (*models.Faculty, error)
}

// DepartmentService handles department-related operations
type DepartmentService struct {
	departmentRepo DepartmentStore
	facultyRepo    FacultyLookup
}

// NewDepartmentService creates a new department service instance
func NewDepartmentService(departmentRepo DepartmentStore, facultyRepo FacultyLookup) *DepartmentService {
	return &DepartmentService{
		departmentRepo: departmentRepo,
		facultyRepo:    facultyRepo,
	}
}

// validateDepartment validates department data before database operations
func (s *DepartmentService) validateDepartment(ctx context.Context, department *models.Department) error {
	if department.FacultyID <= 0 {
		return fmt.Errorf("%w: faculty ID must be positive", apperrors.ErrValidationFailed)
	}
	if department.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidationFailed)
	}
	if !isValidCode(department.Code) {
		return fmt.Errorf("%w: code must be alphanumeric and uppercase", apperrors.ErrValidationFailed)
	}

	// The faculty must exist
	if _, err := s.facultyRepo.GetFacultyByID(ctx, department.FacultyID); err != nil {
		return err
	}
	return nil
}

func departmentFromRequest(name, code string, facultyID int64) *models.Department {
	return &models.Department{
		FacultyID: facultyID,
		Name:      strings.TrimSpace(name),
		Code:      normalizeCode(code),
	}
}

// CreateDepartment creates a new department
func (s *DepartmentService) CreateDepartment(ctx context.Context, req *dto.CreateDepartmentRequest) (*models.Department, error) {
	department := departmentFromRequest(req.Name, req.Code, req.FacultyID)
	if err := s.validateDepartment(ctx, department); err != nil {
		return nil, err
	}

	if err := s.departmentRepo.Create(ctx, department); err != nil {
		return nil, err
	}
	return s.departmentRepo.GetByID(ctx, department.ID)
}

// GetDepartmentByID retrieves a department by ID
func (s *DepartmentService) GetDepartmentByID(ctx context.Context, id int64) (*models.Department, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid department ID", apperrors.ErrValidationFailed)
	}
	return s.departmentRepo.GetByID(ctx, id)
}

// GetDepartments lists departments, optionally of one faculty
func (s *DepartmentService) GetDepartments(ctx context.Context, facultyID *int64) ([]*models.Department, error) {
	if facultyID != nil {
		if _, err := s.facultyRepo.GetFacultyByID(ctx, *facultyID); err != nil {
			return nil, err
		}
	}
	departments, err := s.departmentRepo.List(ctx, facultyID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving departments: %w", err)
	}
	return departments, nil
}

// UpdateDepartment updates an existing department
func (s *DepartmentService) UpdateDepartment(ctx context.Context, id int64, req *dto.UpdateDepartmentRequest) (*models.Department, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid department ID", apperrors.ErrValidationFailed)
	}
	department := departmentFromRequest(req.Name, req.Code, req.FacultyID)
	department.ID = id
	if err := s.validateDepartment(ctx, department); err != nil {
		return nil, err
	}

	if err := s.departmentRepo.Update(ctx, department); err != nil {
		return nil, err
	}
	return s.departmentRepo.GetByID(ctx, id)
}

// DeleteDepartment deletes a department with no programs or teachers
func (s *DepartmentService) DeleteDepartment(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid department ID", apperrors.ErrValidationFailed)
	}
	return s.departmentRepo.Delete(ctx, id)
}
