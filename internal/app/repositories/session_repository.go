package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/scheduling"
	"github.com/yigit/unitime/internal/db"
	"github.com/yigit/unitime/internal/pkg/apperrors"
	"github.com/yigit/unitime/internal/pkg/dberrors"
	"github.com/yigit/unitime/internal/pkg/logger"
)

// Exclusion constraints backing the room and teacher overlap invariants.
const (
	RoomOverlapConstraint    = "sessions_room_no_overlap"
	TeacherOverlapConstraint = "sessions_teacher_no_overlap"
)

var sessionColumns = []string{
	"s.id", "s.subject_id", "s.teacher_id", "s.room_id", "s.program_id", "s.start_time", "s.end_time",
	"s.session_type", "s.status", "s.cancellation_reason", "s.notes", "s.created_by", "s.created_at", "s.updated_at",
}

// SessionFilter narrows session listings. Window selects sessions overlapping
// [From, To); either bound may be nil.
type SessionFilter struct {
	ProgramID        *int64
	TeacherID        *int64
	RoomID           *int64
	SubjectID        *int64
	Status           *models.SessionStatus
	SessionType      *models.SessionType
	From             *time.Time
	To               *time.Time
	Search           string
	ExcludeCancelled bool
	Offset           uint64
	Limit            uint64
}

// SessionRepository handles course sessions
type SessionRepository struct {
	db db.DBTX
	sb squirrel.StatementBuilderType
}

func NewSessionRepository(conn db.DBTX) *SessionRepository {
	return &SessionRepository{db: conn, sb: newBuilder()}
}

// overlapping restricts q to rows whose [start_time, end_time) overlaps
// [start, end). Two half-open intervals overlap iff each starts before the
// other ends.
func overlapping(q squirrel.SelectBuilder, alias string, start, end time.Time) squirrel.SelectBuilder {
	return q.Where(squirrel.Lt{alias + "start_time": end}).Where(squirrel.Gt{alias + "end_time": start})
}

// FindOverlappingSessions returns the ids of non-cancelled sessions matching q.
func (r *SessionRepository) FindOverlappingSessions(ctx context.Context, q scheduling.SessionOverlapQuery) ([]int64, error) {
	query := r.sb.Select("id").From("sessions").
		Where(squirrel.NotEq{"status": models.StatusCancelled})
	query = overlapping(query, "", q.Interval.Start, q.Interval.End)
	if q.RoomID != nil {
		query = query.Where(squirrel.Eq{"room_id": *q.RoomID})
	}
	if q.TeacherID != nil {
		query = query.Where(squirrel.Eq{"teacher_id": *q.TeacherID})
	}
	if q.ExcludeSessionID != nil {
		query = query.Where(squirrel.NotEq{"id": *q.ExcludeSessionID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building overlapping sessions SQL")
		return nil, fmt.Errorf("failed to build overlapping sessions query: %w", err)
	}
	return collectIDs(ctx, r.db, sql, args, "overlapping sessions")
}

func collectIDs(ctx context.Context, conn db.DBTX, sql string, args []interface{}, what string) ([]int64, error) {
	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("query", what).Msg("Error executing id query")
		return nil, fmt.Errorf("error querying %s: %w", what, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		logger.Error().Err(err).Str("query", what).Msg("Error collecting ids")
		return nil, fmt.Errorf("error reading %s: %w", what, err)
	}
	return ids, nil
}

// mapSessionWriteError turns constraint violations into domain errors. An
// exclusion violation means a concurrent writer got past the advisory locks,
// which is reported exactly like a validator conflict.
func mapSessionWriteError(err error) error {
	if name, ok := dberrors.ExclusionConstraint(err); ok {
		report := &scheduling.ConflictReport{RoomSessionIDs: []int64{}, TeacherSessionIDs: []int64{}, UnavailabilityIDs: []int64{}}
		switch name {
		case RoomOverlapConstraint:
			report.RoomConflict = true
		case TeacherOverlapConstraint:
			report.TeacherConflict = true
		default:
			return nil
		}
		return scheduling.NewConflictError(report)
	}
	if name, ok := dberrors.ForeignKeyConstraint(err); ok {
		var target error = apperrors.ErrResourceNotFound
		switch name {
		case "sessions_subject_id_fkey":
			target = apperrors.ErrSubjectNotFound
		case "sessions_teacher_id_fkey":
			target = apperrors.ErrTeacherNotFound
		case "sessions_room_id_fkey":
			target = apperrors.ErrRoomNotFound
		case "sessions_program_id_fkey":
			target = apperrors.ErrProgramNotFound
		}
		return fmt.Errorf("%w: referenced by session", target)
	}
	if dberrors.IsLockTimeout(err) {
		return fmt.Errorf("%w: %v", apperrors.ErrScheduleBusy, err)
	}
	return nil
}

// Create inserts session and sets its ID, status and timestamps.
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	if s.Status == "" {
		s.Status = models.StatusPlanned
	}
	sql, args, err := r.sb.Insert("sessions").
		Columns("subject_id", "teacher_id", "room_id", "program_id", "start_time", "end_time",
			"session_type", "status", "notes", "created_by").
		Values(s.SubjectID, s.TeacherID, s.RoomID, s.ProgramID, s.StartTime, s.EndTime,
			s.SessionType, s.Status, s.Notes, s.CreatedBy).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create session SQL")
		return fmt.Errorf("failed to build create session query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if mapped := mapSessionWriteError(err); mapped != nil {
			return mapped
		}
		logger.Error().Err(err).Int64("roomID", s.RoomID).Int64("teacherID", s.TeacherID).Msg("Error executing create session query")
		return fmt.Errorf("error creating session: %w", err)
	}
	return nil
}

// Update overwrites the schedulable fields of s.
func (r *SessionRepository) Update(ctx context.Context, s *models.Session) error {
	sql, args, err := r.sb.Update("sessions").
		SetMap(map[string]interface{}{
			"subject_id":   s.SubjectID,
			"teacher_id":   s.TeacherID,
			"room_id":      s.RoomID,
			"program_id":   s.ProgramID,
			"start_time":   s.StartTime,
			"end_time":     s.EndTime,
			"session_type": s.SessionType,
			"notes":        s.Notes,
			"updated_at":   squirrel.Expr("NOW()"),
		}).
		Where(squirrel.Eq{"id": s.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update session SQL")
		return fmt.Errorf("failed to build update session query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrSessionNotFound
		}
		if mapped := mapSessionWriteError(err); mapped != nil {
			return mapped
		}
		logger.Error().Err(err).Int64("sessionID", s.ID).Msg("Error executing update session query")
		return fmt.Errorf("error updating session: %w", err)
	}
	return nil
}

// UpdateStatus sets status and, for cancellations, the reason.
func (r *SessionRepository) UpdateStatus(ctx context.Context, id int64, status models.SessionStatus, reason *string) error {
	q := r.sb.Update("sessions").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})
	if status == models.StatusCancelled {
		q = q.Set("cancellation_reason", reason)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update session status query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if mapped := mapSessionWriteError(err); mapped != nil {
			return mapped
		}
		logger.Error().Err(err).Int64("sessionID", id).Str("status", string(status)).Msg("Error executing update session status query")
		return fmt.Errorf("error updating session status: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrSessionNotFound
	}
	return nil
}

func scanSession(row pgx.Row, extra ...interface{}) (*models.Session, error) {
	s := &models.Session{}
	dest := []interface{}{
		&s.ID, &s.SubjectID, &s.TeacherID, &s.RoomID, &s.ProgramID, &s.StartTime, &s.EndTime,
		&s.SessionType, &s.Status, &s.CancellationReason, &s.Notes, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return s, err
}

func (r *SessionRepository) getSession(ctx context.Context, id int64, suffix string) (*models.Session, error) {
	q := r.sb.Select(sessionColumns...).From("sessions s").Where(squirrel.Eq{"s.id": id})
	if suffix != "" {
		q = q.Suffix(suffix)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get session query: %w", err)
	}

	s, err := scanSession(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSessionNotFound
		}
		if dberrors.IsLockTimeout(err) {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrScheduleBusy, err)
		}
		logger.Error().Err(err).Int64("sessionID", id).Msg("Error scanning session row")
		return nil, fmt.Errorf("error getting session: %w", err)
	}
	return s, nil
}

// GetByID retrieves a bare session
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	return r.getSession(ctx, id, "")
}

// GetForUpdate retrieves a session and row-locks it until the surrounding
// transaction ends.
func (r *SessionRepository) GetForUpdate(ctx context.Context, id int64) (*models.Session, error) {
	return r.getSession(ctx, id, "FOR UPDATE")
}

func (r *SessionRepository) selectDetails(columns ...string) squirrel.SelectBuilder {
	return r.sb.Select(columns...).
		From("sessions s").
		Join("subjects sub ON sub.id = s.subject_id").
		Join("rooms r ON r.id = s.room_id").
		Join("buildings b ON b.id = r.building_id").
		Join("teachers t ON t.id = s.teacher_id").
		Join("users u ON u.id = t.user_id").
		Join("programs p ON p.id = s.program_id")
}

var detailColumns = append(append([]string{}, sessionColumns...),
	"sub.code", "sub.name", "r.name", "b.name", "u.first_name", "u.last_name", "u.email", "p.name")

func scanDetails(row pgx.Row) (*models.SessionDetails, error) {
	d := &models.SessionDetails{}
	s, err := scanSession(row, &d.SubjectCode, &d.SubjectName, &d.RoomName, &d.BuildingName,
		&d.TeacherFirstName, &d.TeacherLastName, &d.TeacherEmail, &d.ProgramName)
	if err != nil {
		return nil, err
	}
	d.Session = *s
	return d, nil
}

// GetDetails retrieves a session with the names a timetable shows.
func (r *SessionRepository) GetDetails(ctx context.Context, id int64) (*models.SessionDetails, error) {
	sql, args, err := r.selectDetails(detailColumns...).Where(squirrel.Eq{"s.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get session details query: %w", err)
	}

	d, err := scanDetails(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSessionNotFound
		}
		logger.Error().Err(err).Int64("sessionID", id).Msg("Error scanning session details row")
		return nil, fmt.Errorf("error getting session details: %w", err)
	}
	return d, nil
}

func applySessionFilter(q squirrel.SelectBuilder, f SessionFilter) squirrel.SelectBuilder {
	if f.ProgramID != nil {
		q = q.Where(squirrel.Eq{"s.program_id": *f.ProgramID})
	}
	if f.TeacherID != nil {
		q = q.Where(squirrel.Eq{"s.teacher_id": *f.TeacherID})
	}
	if f.RoomID != nil {
		q = q.Where(squirrel.Eq{"s.room_id": *f.RoomID})
	}
	if f.SubjectID != nil {
		q = q.Where(squirrel.Eq{"s.subject_id": *f.SubjectID})
	}
	if f.Status != nil {
		q = q.Where(squirrel.Eq{"s.status": *f.Status})
	} else if f.ExcludeCancelled {
		q = q.Where(squirrel.NotEq{"s.status": models.StatusCancelled})
	}
	if f.SessionType != nil {
		q = q.Where(squirrel.Eq{"s.session_type": *f.SessionType})
	}
	if f.To != nil {
		q = q.Where(squirrel.Lt{"s.start_time": *f.To})
	}
	if f.From != nil {
		q = q.Where(squirrel.Gt{"s.end_time": *f.From})
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + s + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"sub.name": pattern},
			squirrel.ILike{"sub.code": pattern},
			squirrel.ILike{"u.first_name": pattern},
			squirrel.ILike{"u.last_name": pattern},
			squirrel.ILike{"r.name": pattern},
		})
	}
	return q
}

// List returns sessions with details ordered by start time, plus the total
// number matching f.
func (r *SessionRepository) List(ctx context.Context, f SessionFilter) ([]*models.SessionDetails, int64, error) {
	total, err := count(ctx, r.db, applySessionFilter(r.selectDetails("COUNT(*)"), f), "sessions")
	if err != nil {
		return nil, 0, err
	}

	q := applySessionFilter(r.selectDetails(detailColumns...), f).OrderBy("s.start_time ASC", "s.id ASC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list sessions SQL")
		return nil, 0, fmt.Errorf("failed to build list sessions query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list sessions query")
		return nil, 0, fmt.Errorf("error querying sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*models.SessionDetails{}
	for rows.Next() {
		d, err := scanDetails(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning session row during list")
			return nil, 0, fmt.Errorf("error scanning session row: %w", err)
		}
		sessions = append(sessions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating session rows: %w", err)
	}
	return sessions, total, nil
}
