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

// ProgramRepository handles degree programs
type ProgramRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

func NewProgramRepository(conn db.DBTX) *ProgramRepository {
	return &ProgramRepository{db: conn, sb: newBuilder()}
}

// Create inserts a program and sets its ID
func (r *ProgramRepository) Create(ctx context.Context, program *models.Program) error {
	sql, args, err := r.sb.Insert("programs").
		Columns("department_id", "name", "code", "level").
		Values(program.DepartmentID, program.Name, program.Code, program.Level).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create program SQL")
		return fmt.Errorf("failed to build create program query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&program.ID); err != nil {
		switch {
		case dberrors.IsUniqueViolation(err):
			return apperrors.ErrProgramAlreadyExists
		case dberrors.IsForeignKeyViolation(err):
			return fmt.Errorf("%w: id %d", apperrors.ErrDepartmentNotFound, program.DepartmentID)
		}
		logger.Error().Err(err).Str("code", program.Code).Msg("Error executing create program query")
		return fmt.Errorf("error creating program: %w", err)
	}
	return nil
}

func (r *ProgramRepository) selectPrograms() squirrel.SelectBuilder {
	return r.sb.Select("p.id", "p.department_id", "p.name", "p.code", "p.level", "d.id", "d.faculty_id", "d.name", "d.code").
		From("programs p").
		Join("departments d ON d.id = p.department_id")
}

func scanProgram(row pgx.Row) (*models.Program, error) {
	p := &models.Program{Department: &models.Department{}}
	err := row.Scan(&p.ID, &p.DepartmentID, &p.Name, &p.Code, &p.Level,
		&p.Department.ID, &p.Department.FacultyID, &p.Department.Name, &p.Department.Code)
	return p, err
}

// GetByID retrieves a program with its department
func (r *ProgramRepository) GetByID(ctx context.Context, id int64) (*models.Program, error) {
	sql, args, err := r.selectPrograms().Where(squirrel.Eq{"p.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get program query: %w", err)
	}

	program, err := scanProgram(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrProgramNotFound
		}
		logger.Error().Err(err).Int64("programID", id).Msg("Error scanning program row")
		return nil, fmt.Errorf("error getting program: %w", err)
	}
	return program, nil
}

// List returns programs, optionally restricted to a department
func (r *ProgramRepository) List(ctx context.Context, departmentID *int64) ([]*models.Program, error) {
	q := r.selectPrograms().OrderBy("p.name ASC")
	if departmentID != nil {
		q = q.Where(squirrel.Eq{"p.department_id": *departmentID})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list programs query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list programs query")
		return nil, fmt.Errorf("error querying programs: %w", err)
	}
	defer rows.Close()

	programs := []*models.Program{}
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning program row: %w", err)
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating program rows: %w", err)
	}
	return programs, nil
}
