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

// TeacherFilter narrows teacher listings.
type TeacherFilter struct {
	DepartmentID *int64
	Active       *bool
}

// TeacherRepository handles teacher profiles
type TeacherRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

func NewTeacherRepository(conn db.DBTX) *TeacherRepository {
	return &TeacherRepository{db: conn, sb: newBuilder()}
}

// Create inserts the teacher profile of an existing user
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	sql, args, err := r.sb.Insert("teachers").
		Columns("user_id", "department_id", "employee_number", "specialty", "grade", "is_active").
		Values(teacher.UserID, teacher.DepartmentID, teacher.EmployeeNumber, teacher.Specialty, teacher.Grade, teacher.IsActive).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create teacher SQL")
		return fmt.Errorf("failed to build create teacher query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&teacher.ID); err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, "teachers_employee_number_key"):
			return fmt.Errorf("%w: employee number %s", apperrors.ErrResourceAlreadyExists, teacher.EmployeeNumber)
		case dberrors.IsForeignKeyViolation(err):
			return fmt.Errorf("%w: id %d", apperrors.ErrDepartmentNotFound, teacher.DepartmentID)
		}
		logger.Error().Err(err).Int64("userID", teacher.UserID).Msg("Error executing create teacher query")
		return fmt.Errorf("error creating teacher: %w", err)
	}
	return nil
}

func (r *TeacherRepository) selectTeachers() squirrel.SelectBuilder {
	return r.sb.Select(
		"t.id", "t.user_id", "t.department_id", "t.employee_number", "t.specialty", "t.grade", "t.is_active",
		"u.id", "u.email", "u.first_name", "u.last_name", "u.role_type", "u.is_active",
		"d.id", "d.faculty_id", "d.name", "d.code").
		From("teachers t").
		Join("users u ON u.id = t.user_id").
		Join("departments d ON d.id = t.department_id")
}

func scanTeacher(row pgx.Row) (*models.Teacher, error) {
	t := &models.Teacher{User: &models.User{}, Department: &models.Department{}}
	err := row.Scan(
		&t.ID, &t.UserID, &t.DepartmentID, &t.EmployeeNumber, &t.Specialty, &t.Grade, &t.IsActive,
		&t.User.ID, &t.User.Email, &t.User.FirstName, &t.User.LastName, &t.User.RoleType, &t.User.IsActive,
		&t.Department.ID, &t.Department.FacultyID, &t.Department.Name, &t.Department.Code)
	return t, err
}

func (r *TeacherRepository) getBy(ctx context.Context, where squirrel.Sqlizer) (*models.Teacher, error) {
	sql, args, err := r.selectTeachers().Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get teacher query: %w", err)
	}

	teacher, err := scanTeacher(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTeacherNotFound
		}
		logger.Error().Err(err).Msg("Error scanning teacher row")
		return nil, fmt.Errorf("error getting teacher: %w", err)
	}
	return teacher, nil
}

// GetByID retrieves a teacher with user and department
func (r *TeacherRepository) GetByID(ctx context.Context, id int64) (*models.Teacher, error) {
	return r.getBy(ctx, squirrel.Eq{"t.id": id})
}

// GetByUserID retrieves the teacher profile of a user
func (r *TeacherRepository) GetByUserID(ctx context.Context, userID int64) (*models.Teacher, error) {
	return r.getBy(ctx, squirrel.Eq{"t.user_id": userID})
}

// List returns teachers ordered by last name
func (r *TeacherRepository) List(ctx context.Context, f TeacherFilter) ([]*models.Teacher, error) {
	q := r.selectTeachers().OrderBy("u.last_name ASC", "u.first_name ASC")
	if f.DepartmentID != nil {
		q = q.Where(squirrel.Eq{"t.department_id": *f.DepartmentID})
	}
	if f.Active != nil {
		q = q.Where(squirrel.Eq{"t.is_active": *f.Active})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list teachers query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list teachers query")
		return nil, fmt.Errorf("error querying teachers: %w", err)
	}
	defer rows.Close()

	teachers := []*models.Teacher{}
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning teacher row: %w", err)
		}
		teachers = append(teachers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teacher rows: %w", err)
	}
	return teachers, nil
}

// SetActiveByUserID mirrors a user deactivation onto the teacher profile.
func (r *TeacherRepository) SetActiveByUserID(ctx context.Context, userID int64, active bool) error {
	sql, args, err := r.sb.Update("teachers").Set("is_active", active).Where(squirrel.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build set teacher active query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing set teacher active query")
		return fmt.Errorf("error updating teacher: %w", err)
	}
	return nil
}
