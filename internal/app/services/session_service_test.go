package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/app/scheduling"
	"github.com/yigit/unitime/internal/pkg/apperrors"
	"github.com/yigit/unitime/internal/pkg/helpers"
	"github.com/yigit/unitime/internal/pkg/notify"
)

type sessionFixture struct {
	schedule *memorySchedule
	lookups  *lookups
	notifier *recordingNotifier
	metrics  *recordingMetrics
	stats    *countingInvalidator
	service  SessionService
}

func newSessionFixture() *sessionFixture {
	f := &sessionFixture{
		schedule: newMemorySchedule(),
		lookups:  newLookups(),
		notifier: &recordingNotifier{},
		metrics:  &recordingMetrics{},
		stats:    &countingInvalidator{},
	}
	f.schedule.refs = f.lookups
	reader := f.schedule.reader()
	f.service = NewSessionService(f.schedule, reader, reader, f.lookups.refs(), f.notifier, f.metrics, f.stats, zerolog.Nop())
	return f
}

func createRequest(roomID, teacherID int64, startHour, startMin, endHour, endMin int) *dto.CreateCourseRequest {
	return &dto.CreateCourseRequest{
		SubjectID:   1,
		TeacherID:   teacherID,
		RoomID:      roomID,
		ProgramID:   1,
		StartTime:   at(1, startHour, startMin),
		EndTime:     at(1, endHour, endMin),
		SessionType: string(models.SessionLecture),
	}
}

func requireConflict(t *testing.T, err error) *scheduling.ConflictReport {
	t.Helper()
	var conflict *scheduling.ConflictError
	require.True(t, errors.As(err, &conflict), "expected a conflict, got %v", err)
	return conflict.Report
}

func TestCreateSessionPersistsAndNotifies(t *testing.T) {
	f := newSessionFixture()

	created, err := f.service.CreateSession(context.Background(), 1, createRequest(1, 5, 9, 0, 10, 0))
	require.NoError(t, err)

	assert.Equal(t, models.StatusPlanned, created.Status)
	stored, ok := f.schedule.session(created.ID)
	require.True(t, ok)
	assert.Equal(t, at(1, 9, 0), stored.StartTime)
	assert.Equal(t, int64(1), *stored.CreatedBy)

	assert.Equal(t, [][]int64{scheduling.LockKeys(1, 5)}, f.schedule.locks)
	assert.Equal(t, []recordedChange{{notify.ActionScheduled, created.ID}}, f.notifier.changes)
	assert.Equal(t, []string{"create"}, f.metrics.writes)
	assert.Equal(t, 1, f.stats.calls)
}

func TestCreateSessionRejectsRoomConflict(t *testing.T) {
	f := newSessionFixture()
	existing := f.schedule.addSession(models.Session{RoomID: 1, TeacherID: 2, StartTime: at(1, 9, 0), EndTime: at(1, 10, 0), Status: models.StatusConfirmed})

	_, err := f.service.CreateSession(context.Background(), 1, createRequest(1, 5, 9, 30, 10, 30))

	report := requireConflict(t, err)
	assert.True(t, report.RoomConflict)
	assert.False(t, report.TeacherConflict)
	assert.Equal(t, []int64{existing.ID}, report.RoomSessionIDs)
	assert.Equal(t, "room conflict", err.Error())
	assert.Equal(t, 1, f.schedule.count(), "nothing may be persisted")
	assert.Equal(t, []string{"room"}, f.metrics.conflicts)
	assert.Empty(t, f.notifier.changes)
	assert.Zero(t, f.stats.calls)
}

func TestCreateSessionFlagsExamOverlap(t *testing.T) {
	f := newSessionFixture()
	f.schedule.addSession(models.Session{RoomID: 1, TeacherID: 2, StartTime: at(1, 9, 0), EndTime: at(1, 10, 0), Status: models.StatusConfirmed})

	req := createRequest(1, 5, 9, 15, 9, 45)
	req.SessionType = string(models.SessionExam)
	_, err := f.service.CreateSession(context.Background(), 1, req)

	assert.True(t, requireConflict(t, err).RoomConflict)
}

func TestCreateSessionAllowsBackToBack(t *testing.T) {
	f := newSessionFixture()
	f.schedule.addSession(models.Session{RoomID: 1, TeacherID: 5, StartTime: at(1, 9, 0), EndTime: at(1, 10, 0)})

	_, err := f.service.CreateSession(context.Background(), 1, createRequest(1, 5, 10, 0, 11, 0))
	require.NoError(t, err)
	_, err = f.service.CreateSession(context.Background(), 1, createRequest(1, 5, 8, 0, 9, 0))
	require.NoError(t, err)
	assert.Equal(t, 3, f.schedule.count())
}

func TestCreateSessionIgnoresCancelledSessions(t *testing.T) {
	f := newSessionFixture()
	f.schedule.addSession(models.Session{RoomID: 1, TeacherID: 5, StartTime: at(1, 9, 0), EndTime: at(1, 10, 0), Status: models.StatusCancelled})

	_, err := f.service.CreateSession(context.Background(), 1, createRequest(1, 5, 9, 0, 10, 0))
	assert.NoError(t, err)
}

func TestCreateSessionRejectsApprovedUnavailability(t *testing.T) {
	f := newSessionFixture()
	window := f.schedule.addUnavailability(models.Unavailability{
		TeacherID: 5, StartTime: at(1, 8, 0), EndTime: at(1, 12, 0), ApprovalStatus: models.ApprovalApproved,
	})

	for _, room := range []int64{1, 2, 3} {
		_, err := f.service.CreateSession(context.Background(), 1, createRequest(room, 5, 11, 30, 12, 30))
		report := requireConflict(t, err)
		assert.True(t, report.TeacherUnavailable)
		assert.Equal(t, []int64{window.ID}, report.UnavailabilityIDs)
	}

	_, err := f.service.CreateSession(context.Background(), 1, createRequest(1, 5, 12, 0, 13, 0))
	assert.NoError(t, err, "a session strictly after the window is fine")
}

func TestCreateSessionIgnoresPendingUnavailability(t *testing.T) {
	f := newSessionFixture()
	f.schedule.addUnavailability(models.Unavailability{
		TeacherID: 5, StartTime: at(1, 8, 0), EndTime: at(1, 12, 0), ApprovalStatus: models.ApprovalPending,
	})

	_, err := f.service.CreateSession(context.Background(), 1, createRequest(1, 5, 9, 0, 10, 0))
	assert.NoError(t, err)
}

func TestCreateSessionValidatesBeforeWriting(t *testing.T) {
	f := newSessionFixture()

	_, err := f.service.CreateSession(context.Background(), 1, createRequest(1, 5, 10, 0, 10, 0))
	assert.ErrorIs(t, err, scheduling.ErrInvalidInterval)

	_, err = f.service.CreateSession(context.Background(), 1, createRequest(1, 5, 11, 0, 10, 0))
	assert.ErrorIs(t, err, scheduling.ErrInvalidInterval)

	_, err = f.service.CreateSession(context.Background(), 1, createRequest(9, 5, 9, 0, 10, 0))
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)

	f.lookups.teachers[4].IsActive = false
	_, err = f.service.CreateSession(context.Background(), 1, createRequest(1, 4, 9, 0, 10, 0))
	assert.ErrorIs(t, err, apperrors.ErrTeacherInactive)

	assert.Zero(t, f.schedule.transactions)
}

func TestCreateSessionReportsBusySchedule(t *testing.T) {
	f := newSessionFixture()
	f.schedule.lockErr = apperrors.ErrScheduleBusy

	_, err := f.service.CreateSession(context.Background(), 1, createRequest(1, 5, 9, 0, 10, 0))
	assert.ErrorIs(t, err, apperrors.ErrScheduleBusy)
	assert.Equal(t, 1, f.metrics.timeouts)
	assert.Zero(t, f.schedule.count())
}

func TestConcurrentCreatesAdmitOneSession(t *testing.T) {
	f := newSessionFixture()

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(teacherID int64) {
			defer wg.Done()
			_, err := f.service.CreateSession(context.Background(), 1, createRequest(1, teacherID, 9, 0, 10, 0))
			mu.Lock()
			defer mu.Unlock()
			var conflict *scheduling.ConflictError
			switch {
			case err == nil:
				succeeded++
			case errors.As(err, &conflict):
				conflicts++
			}
		}(int64(i%5) + 1)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, writers-1, conflicts)
	assert.Equal(t, 1, f.schedule.count())
}

func TestUpdateSessionExcludesItself(t *testing.T) {
	f := newSessionFixture()
	existing := f.schedule.addSession(models.Session{SubjectID: 1, ProgramID: 1, RoomID: 1, TeacherID: 5, StartTime: at(1, 9, 0), EndTime: at(1, 10, 0)})

	start, end := at(1, 9, 30), at(1, 10, 30)
	updated, err := f.service.UpdateSession(context.Background(), existing.ID, &dto.UpdateCourseRequest{StartTime: &start, EndTime: &end})
	require.NoError(t, err)

	assert.Equal(t, start, updated.StartTime)
	stored, _ := f.schedule.session(existing.ID)
	assert.Equal(t, end, stored.EndTime)
	assert.Equal(t, []recordedChange{{notify.ActionRescheduled, existing.ID}}, f.notifier.changes)
}

// outsideTransaction wraps every pool-side lookup so that using one while a
// schedule transaction is open fails the test.
type outsideTransaction struct {
	t        *testing.T
	schedule *memorySchedule
}

func (o outsideTransaction) check(kind string) {
	if o.schedule.open.Load() {
		o.t.Errorf("%s lookup went to the pool while a transaction was open", kind)
	}
}

func (o outsideTransaction) refs(l *lookups) SessionReferences {
	return SessionReferences{
		Subjects: guardedSubjects{o, subjectLookup(l.subjects)},
		Programs: guardedPrograms{o, programLookup(l.programs)},
		Rooms:    guardedRooms{o, roomLookup(l.rooms)},
		Teachers: guardedTeachers{o, teacherLookup(l.teachers)},
	}
}

type guardedSubjects struct {
	outsideTransaction
	next subjectLookup
}

func (g guardedSubjects) GetByID(ctx context.Context, id int64) (*models.Subject, error) {
	g.check("subject")
	return g.next.GetByID(ctx, id)
}

type guardedPrograms struct {
	outsideTransaction
	next programLookup
}

func (g guardedPrograms) GetByID(ctx context.Context, id int64) (*models.Program, error) {
	g.check("program")
	return g.next.GetByID(ctx, id)
}

type guardedRooms struct {
	outsideTransaction
	next roomLookup
}

func (g guardedRooms) GetByID(ctx context.Context, id int64) (*models.Room, error) {
	g.check("room")
	return g.next.GetByID(ctx, id)
}

type guardedTeachers struct {
	outsideTransaction
	next teacherLookup
}

func (g guardedTeachers) GetByID(ctx context.Context, id int64) (*models.Teacher, error) {
	g.check("teacher")
	return g.next.GetByID(ctx, id)
}

func (g guardedTeachers) GetByUserID(ctx context.Context, userID int64) (*models.Teacher, error) {
	g.check("teacher")
	return g.next.GetByUserID(ctx, userID)
}

func TestWritesResolveReferencesWithoutASecondConnection(t *testing.T) {
	f := newSessionFixture()
	guard := outsideTransaction{t: t, schedule: f.schedule}
	reader := f.schedule.reader()
	f.service = NewSessionService(f.schedule, reader, reader, guard.refs(f.lookups), f.notifier, f.metrics, f.stats, zerolog.Nop())
	ctx := context.Background()

	created, err := f.service.CreateSession(ctx, 1, createRequest(1, 5, 9, 0, 10, 0))
	require.NoError(t, err)

	subject, program, room, teacher := int64(2), int64(2), int64(2), int64(4)
	updated, err := f.service.UpdateSession(ctx, created.ID, &dto.UpdateCourseRequest{
		SubjectID: &subject,
		ProgramID: &program,
		RoomID:    &room,
		TeacherID: &teacher,
	})
	require.NoError(t, err)
	assert.Equal(t, room, updated.RoomID)
	assert.Equal(t, teacher, updated.TeacherID)

	missing := int64(99)
	_, err = f.service.UpdateSession(ctx, created.ID, &dto.UpdateCourseRequest{RoomID: &missing})
	assert.ErrorIs(t, err, apperrors.ErrRoomNotFound)

	f.lookups.teachers[5].IsActive = false
	back := int64(5)
	_, err = f.service.UpdateSession(ctx, created.ID, &dto.UpdateCourseRequest{TeacherID: &back})
	assert.ErrorIs(t, err, apperrors.ErrTeacherInactive)
}

func TestUpdateSessionRejectsTeacherConflict(t *testing.T) {
	f := newSessionFixture()
	other := f.schedule.addSession(models.Session{SubjectID: 1, ProgramID: 1, RoomID: 2, TeacherID: 4, StartTime: at(1, 9, 0), EndTime: at(1, 10, 0)})
	mine := f.schedule.addSession(models.Session{SubjectID: 1, ProgramID: 1, RoomID: 1, TeacherID: 5, StartTime: at(1, 9, 0), EndTime: at(1, 10, 0)})

	teacher := int64(4)
	_, err := f.service.UpdateSession(context.Background(), mine.ID, &dto.UpdateCourseRequest{TeacherID: &teacher})

	report := requireConflict(t, err)
	assert.True(t, report.TeacherConflict)
	assert.Equal(t, []int64{other.ID}, report.TeacherSessionIDs)
	stored, _ := f.schedule.session(mine.ID)
	assert.Equal(t, int64(5), stored.TeacherID, "rollback keeps the stored row")
}

func TestUpdateSessionRefusesCancelled(t *testing.T) {
	f := newSessionFixture()
	cancelled := f.schedule.addSession(models.Session{RoomID: 1, TeacherID: 5, StartTime: at(1, 9, 0), EndTime: at(1, 10, 0), Status: models.StatusCancelled})

	notes := "moved"
	_, err := f.service.UpdateSession(context.Background(), cancelled.ID, &dto.UpdateCourseRequest{Notes: &notes})
	assert.ErrorIs(t, err, apperrors.ErrSessionCancelled)

	_, err = f.service.UpdateSession(context.Background(), 999, &dto.UpdateCourseRequest{Notes: &notes})
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestUpdateStatusTransitions(t *testing.T) {
	f := newSessionFixture()
	s := f.schedule.addSession(models.Session{RoomID: 1, TeacherID: 5, StartTime: at(1, 9, 0), EndTime: at(1, 10, 0)})
	ctx := context.Background()

	confirmed, err := f.service.UpdateStatus(ctx, s.ID, &dto.UpdateStatusRequest{Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)

	_, err = f.service.UpdateStatus(ctx, s.ID, &dto.UpdateStatusRequest{Status: "planned"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatusTransition)

	_, err = f.service.UpdateStatus(ctx, s.ID, &dto.UpdateStatusRequest{Status: "cancelled"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed, "cancelling needs a reason")

	reason := "room flooded"
	cancelled, err := f.service.UpdateStatus(ctx, s.ID, &dto.UpdateStatusRequest{Status: "cancelled", Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, reason, *cancelled.CancellationReason)

	_, err = f.service.UpdateStatus(ctx, s.ID, &dto.UpdateStatusRequest{Status: "confirmed"})
	assert.ErrorIs(t, err, apperrors.ErrSessionCancelled)

	assert.Equal(t, []string{"status", "cancel"}, f.metrics.writes)
	require.Len(t, f.notifier.changes, 2)
	assert.Equal(t, notify.ActionCancelled, f.notifier.changes[1].action)
}

func TestCancelSessionFreesTheSlot(t *testing.T) {
	f := newSessionFixture()
	s := f.schedule.addSession(models.Session{SubjectID: 1, ProgramID: 1, RoomID: 1, TeacherID: 5, StartTime: at(1, 9, 0), EndTime: at(1, 10, 0)})

	cancelled, err := f.service.CancelSession(context.Background(), s.ID, "")
	require.NoError(t, err)
	assert.Equal(t, DeletedByAdminReason, *cancelled.CancellationReason)

	_, err = f.service.CreateSession(context.Background(), 1, createRequest(1, 5, 9, 0, 10, 0))
	assert.NoError(t, err)
}

func TestCheckConflictsIsReadOnly(t *testing.T) {
	f := newSessionFixture()
	existing := f.schedule.addSession(models.Session{RoomID: 1, TeacherID: 5, StartTime: at(1, 9, 0), EndTime: at(1, 10, 0)})

	report, err := f.service.CheckConflicts(context.Background(), &dto.ConflictCheckRequest{
		RoomID: 1, TeacherID: 5, StartTime: at(1, 9, 0), EndTime: at(1, 10, 0),
	})
	require.NoError(t, err)
	assert.True(t, report.RoomConflict)
	assert.True(t, report.TeacherConflict)

	report, err = f.service.CheckConflicts(context.Background(), &dto.ConflictCheckRequest{
		RoomID: 1, TeacherID: 5, StartTime: at(1, 9, 0), EndTime: at(1, 10, 0), ExcludeSessionID: &existing.ID,
	})
	require.NoError(t, err)
	assert.False(t, report.HasConflict())

	assert.Zero(t, f.schedule.transactions)
	assert.Empty(t, f.metrics.conflicts, "dry runs are not rejections")
	assert.Equal(t, 2, f.metrics.checks)
}

func TestListAndSearchSessions(t *testing.T) {
	f := newSessionFixture()
	notes := "Linear algebra"
	f.schedule.addSession(models.Session{ProgramID: 1, RoomID: 1, TeacherID: 5, StartTime: at(1, 9, 0), EndTime: at(1, 10, 0), Notes: &notes})
	f.schedule.addSession(models.Session{ProgramID: 2, RoomID: 1, TeacherID: 5, StartTime: at(2, 9, 0), EndTime: at(2, 10, 0)})

	program := int64(1)
	sessions, total, err := f.service.ListSessions(context.Background(), &dto.CourseFilterRequest{ProgramID: &program}, helpers.Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, sessions, 1)

	from, to := at(2, 0, 0), at(1, 0, 0)
	_, _, err = f.service.ListSessions(context.Background(), &dto.CourseFilterRequest{From: &from, To: &to}, helpers.Page{})
	assert.ErrorIs(t, err, scheduling.ErrInvalidInterval)

	_, _, err = f.service.ListSessions(context.Background(), &dto.CourseFilterRequest{Status: "archived"}, helpers.Page{})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	found, total, err := f.service.SearchSessions(context.Background(), "  algebra ", helpers.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, found, 1)

	_, _, err = f.service.SearchSessions(context.Background(), "a", helpers.Page{})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}
