package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/db"
	"github.com/yigit/unitime/internal/pkg/apperrors"
	"github.com/yigit/unitime/internal/pkg/dberrors"
	"github.com/yigit/unitime/internal/pkg/logger"
)

// DepartmentRepository handles database operations for departments
type DepartmentRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

func NewDepartmentRepository(conn db.DBTX) *DepartmentRepository {
	return &DepartmentRepository{db: conn, sb: newBuilder()}
}

func mapDepartmentWriteError(err error, department *models.Department) error {
	switch {
	case dberrors.IsUniqueViolation(err):
		return apperrors.ErrDepartmentAlreadyExists
	case dberrors.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: id %d", apperrors.ErrFacultyNotFound, department.FacultyID)
	}
	return nil
}

// Create creates a new department and sets its ID
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	sql, args, err := r.sb.Insert("departments").
		Columns("faculty_id", "name", "code").
		Values(department.FacultyID, department.Name, department.Code).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create department SQL")
		return fmt.Errorf("failed to build create department query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&department.ID); err != nil {
		if mapped := mapDepartmentWriteError(err, department); mapped != nil {
			return mapped
		}
		logger.Error().Err(err).Msg("Error executing create department query")
		return fmt.Errorf("error creating department: %w", err)
	}
	return nil
}

func (r *DepartmentRepository) selectDepartments() squirrel.SelectBuilder {
	return r.sb.Select("d.id", "d.faculty_id", "d.name", "d.code", "f.id", "f.name", "f.code").
		From("departments d").
		Join("faculties f ON f.id = d.faculty_id")
}

func scanDepartment(row pgx.Row) (*models.Department, error) {
	d := &models.Department{Faculty: &models.Faculty{}}
	err := row.Scan(&d.ID, &d.FacultyID, &d.Name, &d.Code, &d.Faculty.ID, &d.Faculty.Name, &d.Faculty.Code)
	return d, err
}

// GetByID retrieves a department with its faculty
func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*models.Department, error) {
	sql, args, err := r.selectDepartments().Where(squirrel.Eq{"d.id": id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get department SQL")
		return nil, fmt.Errorf("failed to build get department query: %w", err)
	}

	department, err := scanDepartment(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrDepartmentNotFound
		}
		logger.Error().Err(err).Int64("departmentID", id).Msg("Error scanning department row")
		return nil, fmt.Errorf("error getting department: %w", err)
	}
	return department, nil
}

// List returns departments, optionally only those of one faculty
func (r *DepartmentRepository) List(ctx context.Context, facultyID *int64) ([]*models.Department, error) {
	q := r.selectDepartments().OrderBy("d.name ASC")
	if facultyID != nil {
		q = q.Where(squirrel.Eq{"d.faculty_id": *facultyID})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list departments SQL")
		return nil, fmt.Errorf("failed to build list departments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list departments query")
		return nil, fmt.Errorf("error querying departments: %w", err)
	}
	defer rows.Close()

	departments := []*models.Department{}
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning department row during list")
			return nil, fmt.Errorf("error scanning department row: %w", err)
		}
		departments = append(departments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating department rows: %w", err)
	}
	return departments, nil
}

// Update updates an existing department
func (r *DepartmentRepository) Update(ctx context.Context, department *models.Department) error {
	sql, args, err := r.sb.Update("departments").
		SetMap(map[string]interface{}{
			"faculty_id": department.FacultyID,
			"name":       department.Name,
			"code":       department.Code,
		}).
		Where(squirrel.Eq{"id": department.ID}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update department SQL")
		return fmt.Errorf("failed to build update department query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if mapped := mapDepartmentWriteError(err, department); mapped != nil {
			return mapped
		}
		logger.Error().Err(err).Int64("departmentID", department.ID).Msg("Error executing update department query")
		return fmt.Errorf("error updating department: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrDepartmentNotFound
	}
	return nil
}

// Delete removes a department not referenced by programs or teachers
func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	referenced, err := exists(ctx, r.db,
		r.sb.Select("1").From("programs").Where(squirrel.Eq{"department_id": id}).
			Suffix("UNION ALL SELECT 1 FROM teachers WHERE department_id = ?", id),
		"department references")
	if err != nil {
		return err
	}
	if referenced {
		return apperrors.ErrDepartmentHasRelations
	}

	sql, args, err := r.sb.Delete("departments").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete department query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrDepartmentHasRelations
		}
		logger.Error().Err(err).Int64("departmentID", id).Msg("Error executing delete department query")
		return fmt.Errorf("error deleting department: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrDepartmentNotFound
	}
	return nil
}
