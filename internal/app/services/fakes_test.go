package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/repositories"
	"github.com/yigit/unitime/internal/app/scheduling"
	"github.com/yigit/unitime/internal/pkg/apperrors"
	"github.com/yigit/unitime/internal/pkg/notify"
)

// memorySchedule is an in-memory ScheduleUnitOfWork. Within holds a mutex for
// the whole callback, like the advisory locks serialize writers, and restores
// a snapshot when the callback fails.
type memorySchedule struct {
	mu             sync.Mutex
	sessions       map[int64]*models.Session
	unavailability map[int64]*models.Unavailability
	nextID         int64
	locks          [][]int64
	lockErr        error
	transactions   int
	// refs backs the store's reference lookups.
	refs *lookups
	// open is set while a Within callback runs.
	open atomic.Bool
}

func newMemorySchedule() *memorySchedule {
	return &memorySchedule{
		sessions:       map[int64]*models.Session{},
		unavailability: map[int64]*models.Unavailability{},
		nextID:         100,
		refs:           newLookups(),
	}
}

func (m *memorySchedule) Within(ctx context.Context, fn func(ctx context.Context, store ScheduleStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions++
	m.open.Store(true)
	defer m.open.Store(false)

	sessions := make(map[int64]models.Session, len(m.sessions))
	for id, s := range m.sessions {
		sessions[id] = *s
	}
	windows := make(map[int64]models.Unavailability, len(m.unavailability))
	for id, u := range m.unavailability {
		windows[id] = *u
	}

	if err := fn(ctx, m); err != nil {
		m.sessions = map[int64]*models.Session{}
		for id, s := range sessions {
			s := s
			m.sessions[id] = &s
		}
		m.unavailability = map[int64]*models.Unavailability{}
		for id, u := range windows {
			u := u
			m.unavailability[id] = &u
		}
		return err
	}
	return nil
}

func (m *memorySchedule) addSession(s models.Session) *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.Status == "" {
		s.Status = models.StatusPlanned
	}
	if s.SessionType == "" {
		s.SessionType = models.SessionLecture
	}
	if s.ID == 0 {
		m.nextID++
		s.ID = m.nextID
	}
	m.sessions[s.ID] = &s
	return &s
}

func (m *memorySchedule) addUnavailability(u models.Unavailability) *models.Unavailability {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		m.nextID++
		u.ID = m.nextID
	}
	m.unavailability[u.ID] = &u
	return &u
}

func (m *memorySchedule) session(id int64) (models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return models.Session{}, false
	}
	return *s, true
}

func (m *memorySchedule) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *memorySchedule) LockSchedule(_ context.Context, keys ...int64) error {
	if m.lockErr != nil {
		return m.lockErr
	}
	m.locks = append(m.locks, keys)
	return nil
}

func (m *memorySchedule) FindOverlappingSessions(_ context.Context, q scheduling.SessionOverlapQuery) ([]int64, error) {
	var ids []int64
	for _, s := range m.sessions {
		if s.Status == models.StatusCancelled {
			continue
		}
		if q.RoomID != nil && s.RoomID != *q.RoomID {
			continue
		}
		if q.TeacherID != nil && s.TeacherID != *q.TeacherID {
			continue
		}
		if q.ExcludeSessionID != nil && s.ID == *q.ExcludeSessionID {
			continue
		}
		if (scheduling.Interval{Start: s.StartTime, End: s.EndTime}).Overlaps(q.Interval) {
			ids = append(ids, s.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memorySchedule) FindApprovedUnavailabilities(_ context.Context, teacherID int64, iv scheduling.Interval) ([]int64, error) {
	var ids []int64
	for _, u := range m.unavailability {
		if u.TeacherID != teacherID || u.ApprovalStatus != models.ApprovalApproved {
			continue
		}
		if (scheduling.Interval{Start: u.StartTime, End: u.EndTime}).Overlaps(iv) {
			ids = append(ids, u.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memorySchedule) GetSessionForUpdate(_ context.Context, id int64) (*models.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	out := *s
	return &out, nil
}

func (m *memorySchedule) GetSubject(ctx context.Context, id int64) (*models.Subject, error) {
	return subjectLookup(m.refs.subjects).GetByID(ctx, id)
}

func (m *memorySchedule) GetProgram(ctx context.Context, id int64) (*models.Program, error) {
	return programLookup(m.refs.programs).GetByID(ctx, id)
}

func (m *memorySchedule) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	return roomLookup(m.refs.rooms).GetByID(ctx, id)
}

func (m *memorySchedule) GetTeacher(ctx context.Context, id int64) (*models.Teacher, error) {
	return teacherLookup(m.refs.teachers).GetByID(ctx, id)
}

func (m *memorySchedule) CreateSession(_ context.Context, session *models.Session) error {
	m.nextID++
	session.ID = m.nextID
	if session.Status == "" {
		session.Status = models.StatusPlanned
	}
	stored := *session
	m.sessions[session.ID] = &stored
	return nil
}

func (m *memorySchedule) UpdateSession(_ context.Context, session *models.Session) error {
	if _, ok := m.sessions[session.ID]; !ok {
		return apperrors.ErrSessionNotFound
	}
	stored := *session
	m.sessions[session.ID] = &stored
	return nil
}

func (m *memorySchedule) UpdateSessionStatus(_ context.Context, id int64, status models.SessionStatus, reason *string) error {
	s, ok := m.sessions[id]
	if !ok {
		return apperrors.ErrSessionNotFound
	}
	s.Status = status
	if status == models.StatusCancelled {
		s.CancellationReason = reason
	}
	return nil
}

func (m *memorySchedule) CreateUnavailability(_ context.Context, u *models.Unavailability) error {
	m.nextID++
	u.ID = m.nextID
	stored := *u
	m.unavailability[u.ID] = &stored
	return nil
}

func (m *memorySchedule) GetUnavailability(_ context.Context, id int64) (*models.Unavailability, error) {
	u, ok := m.unavailability[id]
	if !ok {
		return nil, apperrors.ErrUnavailabilityNotFound
	}
	out := *u
	return &out, nil
}

func (m *memorySchedule) SetUnavailabilityApproval(_ context.Context, id int64, status models.ApprovalStatus, reviewerID int64) error {
	u, ok := m.unavailability[id]
	if !ok {
		return apperrors.ErrUnavailabilityNotFound
	}
	u.ApprovalStatus = status
	u.ReviewedBy = &reviewerID
	return nil
}

// reader exposes the committed state with locking, for code paths that run
// outside Within.
func (m *memorySchedule) reader() *memoryReader {
	return &memoryReader{m: m}
}

type memoryReader struct {
	m *memorySchedule
}

func (r *memoryReader) FindOverlappingSessions(ctx context.Context, q scheduling.SessionOverlapQuery) ([]int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.FindOverlappingSessions(ctx, q)
}

func (r *memoryReader) FindApprovedUnavailabilities(ctx context.Context, teacherID int64, iv scheduling.Interval) ([]int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.FindApprovedUnavailabilities(ctx, teacherID, iv)
}

func (r *memoryReader) GetDetails(_ context.Context, id int64) (*models.SessionDetails, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return &models.SessionDetails{Session: *s, SubjectName: "Algebra", TeacherEmail: "teacher@unitime.app"}, nil
}

func (r *memoryReader) List(_ context.Context, f repositories.SessionFilter) ([]*models.SessionDetails, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []*models.SessionDetails
	for _, s := range r.m.sessions {
		if f.ProgramID != nil && s.ProgramID != *f.ProgramID {
			continue
		}
		if f.TeacherID != nil && s.TeacherID != *f.TeacherID {
			continue
		}
		if f.RoomID != nil && s.RoomID != *f.RoomID {
			continue
		}
		if f.Status != nil && s.Status != *f.Status {
			continue
		}
		if f.Status == nil && f.ExcludeCancelled && s.Status == models.StatusCancelled {
			continue
		}
		if f.To != nil && !s.StartTime.Before(*f.To) {
			continue
		}
		if f.From != nil && !s.EndTime.After(*f.From) {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(fmtSessionName(s)), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, &models.SessionDetails{Session: *s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})

	total := int64(len(out))
	if f.Limit > 0 {
		start := int(f.Offset)
		if start > len(out) {
			start = len(out)
		}
		end := start + int(f.Limit)
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, total, nil
}

func fmtSessionName(s *models.Session) string {
	if s.Notes != nil {
		return *s.Notes
	}
	return ""
}

// lookups backs every reference lookup with maps.
type lookups struct {
	subjects map[int64]*models.Subject
	programs map[int64]*models.Program
	rooms    map[int64]*models.Room
	teachers map[int64]*models.Teacher
}

func newLookups() *lookups {
	l := &lookups{
		subjects: map[int64]*models.Subject{},
		programs: map[int64]*models.Program{},
		rooms:    map[int64]*models.Room{},
		teachers: map[int64]*models.Teacher{},
	}
	for id := int64(1); id <= 3; id++ {
		l.subjects[id] = &models.Subject{ID: id, ProgramID: 1}
		l.programs[id] = &models.Program{ID: id}
		l.rooms[id] = &models.Room{ID: id, Capacity: 30}
	}
	for id := int64(1); id <= 5; id++ {
		l.teachers[id] = &models.Teacher{ID: id, UserID: 10 + id, IsActive: true}
	}
	return l
}

func (l *lookups) refs() SessionReferences {
	return SessionReferences{
		Subjects: subjectLookup(l.subjects),
		Programs: programLookup(l.programs),
		Rooms:    roomLookup(l.rooms),
		Teachers: teacherLookup(l.teachers),
	}
}

type subjectLookup map[int64]*models.Subject

func (m subjectLookup) GetByID(_ context.Context, id int64) (*models.Subject, error) {
	if s, ok := m[id]; ok {
		return s, nil
	}
	return nil, apperrors.ErrSubjectNotFound
}

type programLookup map[int64]*models.Program

func (m programLookup) GetByID(_ context.Context, id int64) (*models.Program, error) {
	if p, ok := m[id]; ok {
		return p, nil
	}
	return nil, apperrors.ErrProgramNotFound
}

type roomLookup map[int64]*models.Room

func (m roomLookup) GetByID(_ context.Context, id int64) (*models.Room, error) {
	if r, ok := m[id]; ok {
		return r, nil
	}
	return nil, apperrors.ErrRoomNotFound
}

type teacherLookup map[int64]*models.Teacher

func (m teacherLookup) GetByID(_ context.Context, id int64) (*models.Teacher, error) {
	if t, ok := m[id]; ok {
		return t, nil
	}
	return nil, apperrors.ErrTeacherNotFound
}

func (m teacherLookup) GetByUserID(_ context.Context, userID int64) (*models.Teacher, error) {
	for _, t := range m {
		if t.UserID == userID {
			return t, nil
		}
	}
	return nil, apperrors.ErrTeacherNotFound
}

type recordedChange struct {
	action    notify.Action
	sessionID int64
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes []recordedChange
}

func (n *recordingNotifier) SessionChanged(action notify.Action, session *models.SessionDetails) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, recordedChange{action: action, sessionID: session.ID})
}

type recordingMetrics struct {
	mu        sync.Mutex
	conflicts []string
	writes    []string
	checks    int
	timeouts  int
}

func (m *recordingMetrics) ConflictDetected(kinds ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts = append(m.conflicts, kinds...)
}

func (m *recordingMetrics) SessionWritten(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, operation)
}

func (m *recordingMetrics) ObserveConflictCheck(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks++
}

func (m *recordingMetrics) LockTimeout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeouts++
}

type countingInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (c *countingInvalidator) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
}

// at is the given day of March 2024 at hour:minute UTC.
func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.March, day, hour, minute, 0, 0, time.UTC)
}
