package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/pkg/apperrors"
)

type memoryFaculties map[int64]*models.Faculty

func (m memoryFaculties) CreateFaculty(_ context.Context, f *models.Faculty) (int64, error) {
	for _, existing := range m {
		if existing.Code == f.Code {
			return 0, apperrors.ErrFacultyAlreadyExists
		}
	}
	id := int64(len(m) + 1)
	m[id] = f
	return id, nil
}

func (m memoryFaculties) GetFacultyByID(_ context.Context, id int64) (*models.Faculty, error) {
	if f, ok := m[id]; ok {
		return f, nil
	}
	return nil, apperrors.ErrFacultyNotFound
}

func (m memoryFaculties) GetAllFaculties(context.Context) ([]*models.Faculty, error) {
	out := make([]*models.Faculty, 0, len(m))
	for _, f := range m {
		out = append(out, f)
	}
	return out, nil
}

func (m memoryFaculties) UpdateFaculty(_ context.Context, f *models.Faculty) error {
	if _, ok := m[f.ID]; !ok {
		return apperrors.ErrFacultyNotFound
	}
	m[f.ID] = f
	return nil
}

func (m memoryFaculties) DeleteFaculty(_ context.Context, id int64) error {
	delete(m, id)
	return nil
}

type memoryDepartments map[int64]*models.Department

func (m memoryDepartments) Create(_ context.Context, d *models.Department) error {
	d.ID = int64(len(m) + 1)
	m[d.ID] = d
	return nil
}

func (m memoryDepartments) GetByID(_ context.Context, id int64) (*models.Department, error) {
	if d, ok := m[id]; ok {
		return d, nil
	}
	return nil, apperrors.ErrDepartmentNotFound
}

func (m memoryDepartments) List(_ context.Context, facultyID *int64) ([]*models.Department, error) {
	var out []*models.Department
	for _, d := range m {
		if facultyID == nil || d.FacultyID == *facultyID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m memoryDepartments) Update(_ context.Context, d *models.Department) error {
	m[d.ID] = d
	return nil
}

func (m memoryDepartments) Delete(_ context.Context, id int64) error {
	delete(m, id)
	return nil
}

type memoryPrograms map[int64]*models.Program

func (m memoryPrograms) Create(_ context.Context, p *models.Program) error {
	p.ID = int64(len(m) + 1)
	m[p.ID] = p
	return nil
}

func (m memoryPrograms) GetByID(_ context.Context, id int64) (*models.Program, error) {
	if p, ok := m[id]; ok {
		return p, nil
	}
	return nil, apperrors.ErrProgramNotFound
}

func (m memoryPrograms) List(context.Context, *int64) ([]*models.Program, error) {
	return nil, nil
}

type memorySubjects map[int64]*models.Subject

func (m memorySubjects) Create(_ context.Context, s *models.Subject) error {
	s.ID = int64(len(m) + 1)
	m[s.ID] = s
	return nil
}

func (m memorySubjects) GetByID(_ context.Context, id int64) (*models.Subject, error) {
	if s, ok := m[id]; ok {
		return s, nil
	}
	return nil, apperrors.ErrSubjectNotFound
}

func (m memorySubjects) List(context.Context, *int64) ([]*models.Subject, error) {
	return nil, nil
}

func TestFacultyCodesAreNormalized(t *testing.T) {
	svc := NewFacultyService(memoryFaculties{})
	ctx := context.Background()

	f, err := svc.CreateFaculty(ctx, &dto.CreateFacultyRequest{Name: " Sciences ", Code: " fst "})
	require.NoError(t, err)
	assert.Equal(t, "Sciences", f.Name)
	assert.Equal(t, "FST", f.Code)

	_, err = svc.CreateFaculty(ctx, &dto.CreateFacultyRequest{Name: "Lettres", Code: "FST"})
	assert.ErrorIs(t, err, apperrors.ErrFacultyAlreadyExists)

	_, err = svc.CreateFaculty(ctx, &dto.CreateFacultyRequest{Name: "Droit", Code: "FD-1"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.UpdateFaculty(ctx, 9, &dto.UpdateFacultyRequest{Name: "Droit", Code: "FD"})
	assert.ErrorIs(t, err, apperrors.ErrFacultyNotFound)
}

func TestDepartmentNeedsFaculty(t *testing.T) {
	faculties := memoryFaculties{1: {ID: 1, Name: "Sciences", Code: "FST"}}
	svc := NewDepartmentService(memoryDepartments{}, faculties)
	ctx := context.Background()

	d, err := svc.CreateDepartment(ctx, &dto.CreateDepartmentRequest{Name: "Informatique", Code: "info", FacultyID: 1})
	require.NoError(t, err)
	assert.Equal(t, "INFO", d.Code)

	_, err = svc.CreateDepartment(ctx, &dto.CreateDepartmentRequest{Name: "Physique", Code: "PHY", FacultyID: 7})
	assert.ErrorIs(t, err, apperrors.ErrFacultyNotFound)

	missing := int64(7)
	_, err = svc.GetDepartments(ctx, &missing)
	assert.ErrorIs(t, err, apperrors.ErrFacultyNotFound)
}

func TestCreateSubjectNeedsProgram(t *testing.T) {
	svc := NewCatalogService(memoryPrograms{1: {ID: 1, Code: "L3INFO"}}, memorySubjects{})
	ctx := context.Background()

	s, err := svc.CreateSubject(ctx, &dto.CreateSubjectRequest{ProgramID: 1, Code: "inf301", Name: "Algorithmique", Credits: 6})
	require.NoError(t, err)
	assert.Equal(t, "INF301", s.Code)

	_, err = svc.CreateSubject(ctx, &dto.CreateSubjectRequest{ProgramID: 4, Code: "INF302", Name: "Réseaux"})
	assert.ErrorIs(t, err, apperrors.ErrProgramNotFound)

	_, err = svc.CreateSubject(ctx, &dto.CreateSubjectRequest{ProgramID: 1, Code: "INF303", Name: " "})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}
