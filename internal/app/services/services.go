package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/repositories"
	"github.com/yigit/unitime/internal/app/scheduling"
	"github.com/yigit/unitime/internal/db"
)

// Services defined in this package:
// - AuthService: login, refresh token rotation, logout and profile
// - UserService: admin account management
// - FacultyService, DepartmentService, CatalogService: the academic catalogue
// - RoomService: buildings, rooms, availability and occupancy
// - TeacherService: teacher directory and workload
// - UnavailabilityService: teacher blackout windows and their review
// - SessionService: course sessions, the only writer of the schedule
// - TimetableService: role-scoped timetable reads
// - StatsService: cached dashboard counters

// Viewer is the authenticated caller a role-scoped operation runs for.
type Viewer struct {
	UserID    int64
	Role      models.RoleType
	ProgramID *int64
}

// IsAdmin reports whether the viewer has the ADMIN role.
func (v Viewer) IsAdmin() bool {
	return v.Role == models.RoleAdmin
}

// ScheduleStore is what a schedule write sees inside its transaction.
type ScheduleStore interface {
	scheduling.Store
	LockSchedule(ctx context.Context, keys ...int64) error
	GetSessionForUpdate(ctx context.Context, id int64) (*models.Session, error)
	CreateSession(ctx context.Context, session *models.Session) error
	UpdateSession(ctx context.Context, session *models.Session) error
	UpdateSessionStatus(ctx context.Context, id int64, status models.SessionStatus, reason *string) error
	CreateUnavailability(ctx context.Context, u *models.Unavailability) error
	GetUnavailability(ctx context.Context, id int64) (*models.Unavailability, error)
	SetUnavailabilityApproval(ctx context.Context, id int64, status models.ApprovalStatus, reviewerID int64) error
	referenceReader
}

// referenceReader resolves the ids a session points at.
type referenceReader interface {
	GetSubject(ctx context.Context, id int64) (*models.Subject, error)
	GetProgram(ctx context.Context, id int64) (*models.Program, error)
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	GetTeacher(ctx context.Context, id int64) (*models.Teacher, error)
}

// ScheduleUnitOfWork runs fn in one transaction. The transaction commits when
// fn returns nil and rolls back otherwise, releasing its advisory locks either
// way.
type ScheduleUnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, store ScheduleStore) error) error
}

type pgScheduleUnitOfWork struct {
	db          *db.PostgresDB
	lockTimeout time.Duration
}

// NewScheduleUnitOfWork runs schedule writes in Postgres transactions.
func NewScheduleUnitOfWork(database *db.PostgresDB, lockTimeout time.Duration) ScheduleUnitOfWork {
	return &pgScheduleUnitOfWork{db: database, lockTimeout: lockTimeout}
}

func (u *pgScheduleUnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, store ScheduleStore) error) error {
	return u.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, repositories.NewTxScheduleStore(tx, u.lockTimeout))
	})
}

// SchedulingMetrics records the outcome of schedule writes.
type SchedulingMetrics interface {
	ConflictDetected(kinds ...string)
	SessionWritten(operation string)
	ObserveConflictCheck(d time.Duration)
	LockTimeout()
}

type noopMetrics struct{}

func (noopMetrics) ConflictDetected(...string)         {}
func (noopMetrics) SessionWritten(string)              {}
func (noopMetrics) ObserveConflictCheck(time.Duration) {}
func (noopMetrics) LockTimeout()                       {}

// StatsInvalidator drops cached dashboard counters after a write.
type StatsInvalidator interface {
	Invalidate(ctx context.Context)
}

// Lookups used to check references before a write.
type (
	SubjectLookup interface {
		GetByID(ctx context.Context, id int64) (*models.Subject, error)
	}
	ProgramLookup interface {
		GetByID(ctx context.Context, id int64) (*models.Program, error)
	}
	RoomLookup interface {
		GetByID(ctx context.Context, id int64) (*models.Room, error)
	}
	TeacherLookup interface {
		GetByID(ctx context.Context, id int64) (*models.Teacher, error)
		GetByUserID(ctx context.Context, userID int64) (*models.Teacher, error)
	}
)

// SessionReader reads sessions with their display names.
type SessionReader interface {
	GetDetails(ctx context.Context, id int64) (*models.SessionDetails, error)
	List(ctx context.Context, f repositories.SessionFilter) ([]*models.SessionDetails, int64, error)
}
