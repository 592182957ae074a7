package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/scheduling"
	"github.com/yigit/unitime/internal/db"
	"github.com/yigit/unitime/internal/pkg/apperrors"
	"github.com/yigit/unitime/internal/pkg/dberrors"
	"github.com/yigit/unitime/internal/pkg/logger"
)

var unavailabilityColumns = []string{
	"id", "teacher_id", "start_time", "end_time", "reason", "description",
	"approval_status", "created_by", "reviewed_by", "created_at",
}

// UnavailabilityRepository handles teacher blackout windows
type UnavailabilityRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

func NewUnavailabilityRepository(conn db.DBTX) *UnavailabilityRepository {
	return &UnavailabilityRepository{db: conn, sb: newBuilder()}
}

// FindApprovedUnavailabilities returns the ids of approved windows of the
// teacher overlapping iv. Pending and rejected windows never block.
func (r *UnavailabilityRepository) FindApprovedUnavailabilities(ctx context.Context, teacherID int64, iv scheduling.Interval) ([]int64, error) {
	query := r.sb.Select("id").From("unavailabilities").
		Where(squirrel.Eq{"teacher_id": teacherID, "approval_status": models.ApprovalApproved})
	sql, args, err := overlapping(query, "", iv.Start, iv.End).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building approved unavailabilities SQL")
		return nil, fmt.Errorf("failed to build approved unavailabilities query: %w", err)
	}
	return collectIDs(ctx, r.db, sql, args, "approved unavailabilities")
}

func scanUnavailability(row pgx.Row) (*models.Unavailability, error) {
	u := &models.Unavailability{}
	err := row.Scan(&u.ID, &u.TeacherID, &u.StartTime, &u.EndTime, &u.Reason, &u.Description,
		&u.ApprovalStatus, &u.CreatedBy, &u.ReviewedBy, &u.CreatedAt)
	return u, err
}

// Create inserts a window and sets its ID and creation time
func (r *UnavailabilityRepository) Create(ctx context.Context, u *models.Unavailability) error {
	sql, args, err := r.sb.Insert("unavailabilities").
		Columns("teacher_id", "start_time", "end_time", "reason", "description", "approval_status", "created_by", "reviewed_by").
		Values(u.TeacherID, u.StartTime, u.EndTime, u.Reason, u.Description, u.ApprovalStatus, u.CreatedBy, u.ReviewedBy).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create unavailability SQL")
		return fmt.Errorf("failed to build create unavailability query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&u.ID, &u.CreatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: id %d", apperrors.ErrTeacherNotFound, u.TeacherID)
		}
		logger.Error().Err(err).Int64("teacherID", u.TeacherID).Msg("Error executing create unavailability query")
		return fmt.Errorf("error creating unavailability: %w", err)
	}
	return nil
}

// GetByID retrieves one window
func (r *UnavailabilityRepository) GetByID(ctx context.Context, id int64) (*models.Unavailability, error) {
	sql, args, err := r.sb.Select(unavailabilityColumns...).From("unavailabilities").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get unavailability query: %w", err)
	}

	u, err := scanUnavailability(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUnavailabilityNotFound
		}
		logger.Error().Err(err).Int64("unavailabilityID", id).Msg("Error scanning unavailability row")
		return nil, fmt.Errorf("error getting unavailability: %w", err)
	}
	return u, nil
}

// ListByTeacher returns all windows of a teacher ordered by start
func (r *UnavailabilityRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]*models.Unavailability, error) {
	sql, args, err := r.sb.Select(unavailabilityColumns...).From("unavailabilities").
		Where(squirrel.Eq{"teacher_id": teacherID}).
		OrderBy("start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list unavailabilities query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("teacherID", teacherID).Msg("Error executing list unavailabilities query")
		return nil, fmt.Errorf("error querying unavailabilities: %w", err)
	}
	defer rows.Close()

	windows := []*models.Unavailability{}
	for rows.Next() {
		u, err := scanUnavailability(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning unavailability row: %w", err)
		}
		windows = append(windows, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unavailability rows: %w", err)
	}
	return windows, nil
}

// SetApproval records the review decision
func (r *UnavailabilityRepository) SetApproval(ctx context.Context, id int64, status models.ApprovalStatus, reviewerID int64) error {
	sql, args, err := r.sb.Update("unavailabilities").
		Set("approval_status", status).
		Set("reviewed_by", reviewerID).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build set approval query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("unavailabilityID", id).Msg("Error executing set approval query")
		return fmt.Errorf("error updating unavailability: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUnavailabilityNotFound
	}
	return nil
}

// Delete removes a window
func (r *UnavailabilityRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("unavailabilities").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete unavailability query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("unavailabilityID", id).Msg("Error executing delete unavailability query")
		return fmt.Errorf("error deleting unavailability: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUnavailabilityNotFound
	}
	return nil
}
