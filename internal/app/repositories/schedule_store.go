package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/scheduling"
	"github.com/yigit/unitime/internal/db"
)

// ErrLockOutsideTransaction is returned by LockSchedule on a store that is not
// bound to a transaction.
var ErrLockOutsideTransaction = errors.New("advisory schedule locks require a transaction")

// ScheduleStore is the session and unavailability data access of the
// scheduling write path, plus the reference lookups a write checks its ids
// against. Built with NewTxScheduleStore it runs every query on one
// transaction, so the conflict scans see that transaction's locks and writes.
// It satisfies scheduling.Store.
type ScheduleStore struct {
	sessions       *SessionRepository
	unavailability *UnavailabilityRepository
	subjects       *SubjectRepository
	programs       *ProgramRepository
	rooms          *RoomRepository
	teachers       *TeacherRepository
	lock           func(ctx context.Context, keys ...int64) error
}

var _ scheduling.Store = (*ScheduleStore)(nil)

// NewScheduleStore binds a read-only store to conn. LockSchedule fails on it.
func NewScheduleStore(conn db.DBTX) *ScheduleStore {
	return newScheduleStore(conn, func(context.Context, ...int64) error {
		return ErrLockOutsideTransaction
	})
}

// NewTxScheduleStore binds the store to tx. Advisory locks wait at most
// lockTimeout; zero waits for as long as the statement runs.
func NewTxScheduleStore(tx pgx.Tx, lockTimeout time.Duration) *ScheduleStore {
	return newScheduleStore(tx, func(ctx context.Context, keys ...int64) error {
		return db.AcquireAdvisoryLocks(ctx, tx, lockTimeout, keys...)
	})
}

func newScheduleStore(conn db.DBTX, lock func(ctx context.Context, keys ...int64) error) *ScheduleStore {
	return &ScheduleStore{
		sessions:       NewSessionRepository(conn),
		unavailability: NewUnavailabilityRepository(conn),
		subjects:       NewSubjectRepository(conn),
		programs:       NewProgramRepository(conn),
		rooms:          NewRoomRepository(conn),
		teachers:       NewTeacherRepository(conn),
		lock:           lock,
	}
}

// LockSchedule takes the transaction-scoped advisory locks for keys.
func (s *ScheduleStore) LockSchedule(ctx context.Context, keys ...int64) error {
	return s.lock(ctx, keys...)
}

func (s *ScheduleStore) FindOverlappingSessions(ctx context.Context, q scheduling.SessionOverlapQuery) ([]int64, error) {
	return s.sessions.FindOverlappingSessions(ctx, q)
}

func (s *ScheduleStore) FindApprovedUnavailabilities(ctx context.Context, teacherID int64, iv scheduling.Interval) ([]int64, error) {
	return s.unavailability.FindApprovedUnavailabilities(ctx, teacherID, iv)
}

func (s *ScheduleStore) GetSessionForUpdate(ctx context.Context, id int64) (*models.Session, error) {
	return s.sessions.GetForUpdate(ctx, id)
}

func (s *ScheduleStore) CreateSession(ctx context.Context, session *models.Session) error {
	return s.sessions.Create(ctx, session)
}

func (s *ScheduleStore) UpdateSession(ctx context.Context, session *models.Session) error {
	return s.sessions.Update(ctx, session)
}

func (s *ScheduleStore) UpdateSessionStatus(ctx context.Context, id int64, status models.SessionStatus, reason *string) error {
	return s.sessions.UpdateStatus(ctx, id, status, reason)
}

func (s *ScheduleStore) CreateUnavailability(ctx context.Context, u *models.Unavailability) error {
	return s.unavailability.Create(ctx, u)
}

func (s *ScheduleStore) GetUnavailability(ctx context.Context, id int64) (*models.Unavailability, error) {
	return s.unavailability.GetByID(ctx, id)
}

func (s *ScheduleStore) SetUnavailabilityApproval(ctx context.Context, id int64, status models.ApprovalStatus, reviewerID int64) error {
	return s.unavailability.SetApproval(ctx, id, status, reviewerID)
}

func (s *ScheduleStore) GetSubject(ctx context.Context, id int64) (*models.Subject, error) {
	return s.subjects.GetByID(ctx, id)
}

func (s *ScheduleStore) GetProgram(ctx context.Context, id int64) (*models.Program, error) {
	return s.programs.GetByID(ctx, id)
}

func (s *ScheduleStore) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	return s.rooms.GetByID(ctx, id)
}

func (s *ScheduleStore) GetTeacher(ctx context.Context, id int64) (*models.Teacher, error) {
	return s.teachers.GetByID(ctx, id)
}
