package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/scheduling"
	"github.com/yigit/unitime/internal/pkg/apperrors"
)

func newTimetableFixture() (*timetableServiceImpl, *memorySchedule) {
	schedule := newMemorySchedule()
	// Week of Monday 4 March 2024.
	schedule.addSession(models.Session{ID: 1, ProgramID: 1, TeacherID: 1, RoomID: 1, StartTime: at(4, 8, 0), EndTime: at(4, 10, 0)})
	schedule.addSession(models.Session{ID: 2, ProgramID: 2, TeacherID: 2, RoomID: 2, StartTime: at(5, 8, 0), EndTime: at(5, 10, 0)})
	schedule.addSession(models.Session{ID: 3, ProgramID: 1, TeacherID: 2, RoomID: 1, StartTime: at(6, 8, 0), EndTime: at(6, 10, 0)})
	schedule.addSession(models.Session{ID: 4, ProgramID: 1, TeacherID: 1, RoomID: 3, StartTime: at(7, 8, 0), EndTime: at(7, 10, 0), Status: models.StatusCancelled})
	// Following week.
	schedule.addSession(models.Session{ID: 5, ProgramID: 1, TeacherID: 1, RoomID: 1, StartTime: at(11, 8, 0), EndTime: at(11, 10, 0)})

	svc := NewTimetableService(schedule.reader(), teacherLookup(newLookups().teachers)).(*timetableServiceImpl)
	svc.now = func() time.Time { return at(6, 15, 30) }
	return svc, schedule
}

func sessionIDs(tt *Timetable) []int64 {
	ids := make([]int64, 0, len(tt.Sessions))
	for _, s := range tt.Sessions {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestTimetableDefaultsToCurrentWeek(t *testing.T) {
	svc, _ := newTimetableFixture()

	tt, err := svc.GetTimetable(context.Background(), adminViewer, TimetableQuery{})
	require.NoError(t, err)
	assert.Equal(t, at(4, 0, 0), tt.Window.Start)
	assert.Equal(t, at(11, 0, 0), tt.Window.End)
	assert.Equal(t, []int64{1, 2, 3}, sessionIDs(tt))
}

func TestTimetableScopesByRole(t *testing.T) {
	svc, _ := newTimetableFixture()
	ctx := context.Background()

	tt, err := svc.GetTimetable(ctx, teacherViewer, TimetableQuery{})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, sessionIDs(tt))

	// A teacher cannot widen the scope to another teacher.
	other := int64(2)
	tt, err = svc.GetTimetable(ctx, teacherViewer, TimetableQuery{TeacherID: &other})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, sessionIDs(tt))

	program := int64(2)
	student := Viewer{UserID: 70, Role: models.RoleStudent, ProgramID: &program}
	tt, err = svc.GetTimetable(ctx, student, TimetableQuery{})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, sessionIDs(tt))

	room := int64(1)
	tt, err = svc.GetTimetable(ctx, adminViewer, TimetableQuery{RoomID: &room})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, sessionIDs(tt))
}

func TestTimetableStudentNeedsProgram(t *testing.T) {
	svc, _ := newTimetableFixture()
	student := Viewer{UserID: 70, Role: models.RoleStudent}

	_, err := svc.GetTimetable(context.Background(), student, TimetableQuery{})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	program := int64(1)
	tt, err := svc.GetTimetable(context.Background(), student, TimetableQuery{ProgramID: &program})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, sessionIDs(tt))
}

func TestTimetableWindowBounds(t *testing.T) {
	svc, _ := newTimetableFixture()
	ctx := context.Background()

	from := at(10, 0, 0)
	tt, err := svc.GetTimetable(ctx, adminViewer, TimetableQuery{From: &from})
	require.NoError(t, err)
	assert.Equal(t, at(17, 0, 0), tt.Window.End)
	assert.Equal(t, []int64{5}, sessionIDs(tt))

	// A session overlapping the window edge is included.
	from, to := at(4, 9, 0), at(4, 9, 30)
	tt, err = svc.GetTimetable(ctx, adminViewer, TimetableQuery{From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, sessionIDs(tt))

	_, err = svc.GetTimetable(ctx, adminViewer, TimetableQuery{From: &to, To: &from})
	assert.ErrorIs(t, err, scheduling.ErrInvalidInterval)

	far := from.AddDate(1, 0, 0)
	_, err = svc.GetTimetable(ctx, adminViewer, TimetableQuery{From: &from, To: &far})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}
