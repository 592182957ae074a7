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

var subjectColumns = []string{"id", "program_id", "code", "name", "description", "credits", "hours_total"}

// SubjectRepository handles taught subjects
type SubjectRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

func NewSubjectRepository(conn db.DBTX) *SubjectRepository {
	return &SubjectRepository{db: conn, sb: newBuilder()}
}

func scanSubject(row pgx.Row) (*models.Subject, error) {
	s := &models.Subject{}
	err := row.Scan(&s.ID, &s.ProgramID, &s.Code, &s.Name, &s.Description, &s.Credits, &s.HoursTotal)
	return s, err
}

// Create inserts a subject and sets its ID
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	sql, args, err := r.sb.Insert("subjects").
		Columns("program_id", "code", "name", "description", "credits", "hours_total").
		Values(subject.ProgramID, subject.Code, subject.Name, subject.Description, subject.Credits, subject.HoursTotal).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create subject SQL")
		return fmt.Errorf("failed to build create subject query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&subject.ID); err != nil {
		switch {
		case dberrors.IsUniqueViolation(err):
			return apperrors.ErrSubjectAlreadyExists
		case dberrors.IsForeignKeyViolation(err):
			return fmt.Errorf("%w: id %d", apperrors.ErrProgramNotFound, subject.ProgramID)
		}
		logger.Error().Err(err).Str("code", subject.Code).Msg("Error executing create subject query")
		return fmt.Errorf("error creating subject: %w", err)
	}
	return nil
}

// GetByID retrieves a subject
func (r *SubjectRepository) GetByID(ctx context.Context, id int64) (*models.Subject, error) {
	sql, args, err := r.sb.Select(subjectColumns...).From("subjects").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get subject query: %w", err)
	}

	subject, err := scanSubject(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSubjectNotFound
		}
		logger.Error().Err(err).Int64("subjectID", id).Msg("Error scanning subject row")
		return nil, fmt.Errorf("error getting subject: %w", err)
	}
	return subject, nil
}

// List returns subjects, optionally restricted to a program
func (r *SubjectRepository) List(ctx context.Context, programID *int64) ([]*models.Subject, error) {
	q := r.sb.Select(subjectColumns...).From("subjects").OrderBy("code ASC")
	if programID != nil {
		q = q.Where(squirrel.Eq{"program_id": *programID})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list subjects query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list subjects query")
		return nil, fmt.Errorf("error querying subjects: %w", err)
	}
	defer rows.Close()

	subjects := []*models.Subject{}
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning subject row: %w", err)
		}
		subjects = append(subjects, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subject rows: %w", err)
	}
	return subjects, nil
}
