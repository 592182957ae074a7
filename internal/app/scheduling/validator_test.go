package scheduling

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestCheckConflictsRoomOverlap(t *testing.T) {
	store := &memoryStore{sessions: []fakeSession{
		{id: 1, roomID: 1, teacherID: 10, interval: span(4, 9, 0, 10, 0)},
	}}

	report, err := CheckConflicts(context.Background(), store, Request{
		RoomID: 1, TeacherID: 20, Interval: span(4, 9, 30, 10, 30),
	})
	require.NoError(t, err)
	assert.True(t, report.RoomConflict)
	assert.Equal(t, []int64{1}, report.RoomSessionIDs)
	assert.False(t, report.TeacherConflict)
	assert.False(t, report.TeacherUnavailable)
	assert.Equal(t, []ConflictKind{KindRoom}, report.Kinds())
	assert.Equal(t, "room conflict", report.Message())
}

func TestCheckConflictsBoundaryAdjacent(t *testing.T) {
	store := &memoryStore{sessions: []fakeSession{
		{id: 1, roomID: 1, teacherID: 10, interval: span(4, 9, 0, 10, 0)},
	}}

	for _, iv := range []Interval{span(4, 10, 0, 11, 0), span(4, 8, 0, 9, 0)} {
		report, err := CheckConflicts(context.Background(), store, Request{RoomID: 1, TeacherID: 10, Interval: iv})
		require.NoError(t, err)
		assert.False(t, report.HasConflict(), "back-to-back %v must not conflict", iv)
	}
}

func TestCheckConflictsIgnoresCancelled(t *testing.T) {
	store := &memoryStore{sessions: []fakeSession{
		{id: 1, roomID: 1, teacherID: 10, interval: span(4, 9, 0, 10, 0), cancelled: true},
	}}

	report, err := CheckConflicts(context.Background(), store, Request{RoomID: 1, TeacherID: 10, Interval: span(4, 9, 0, 10, 0)})
	require.NoError(t, err)
	assert.False(t, report.HasConflict())
	assert.Empty(t, report.RoomSessionIDs)
}

func TestCheckConflictsExcludesSelf(t *testing.T) {
	store := &memoryStore{sessions: []fakeSession{
		{id: 5, roomID: 1, teacherID: 10, interval: span(4, 9, 0, 10, 0)},
		{id: 6, roomID: 2, teacherID: 11, interval: span(4, 9, 0, 10, 0)},
	}}

	report, err := CheckConflicts(context.Background(), store, Request{
		RoomID: 1, TeacherID: 10, Interval: span(4, 9, 0, 10, 0), ExcludeSessionID: int64Ptr(5),
	})
	require.NoError(t, err)
	assert.False(t, report.HasConflict())

	// Moving session 5 into room 2 still collides with session 6.
	report, err = CheckConflicts(context.Background(), store, Request{
		RoomID: 2, TeacherID: 10, Interval: span(4, 9, 0, 10, 0), ExcludeSessionID: int64Ptr(5),
	})
	require.NoError(t, err)
	assert.True(t, report.RoomConflict)
	assert.Equal(t, []int64{6}, report.RoomSessionIDs)
}

func TestCheckConflictsTeacherDoubleBooked(t *testing.T) {
	store := &memoryStore{sessions: []fakeSession{
		{id: 1, roomID: 1, teacherID: 10, interval: span(4, 9, 0, 11, 0)},
		{id: 2, roomID: 3, teacherID: 10, interval: span(4, 14, 0, 15, 0)},
	}}

	report, err := CheckConflicts(context.Background(), store, Request{RoomID: 2, TeacherID: 10, Interval: span(4, 10, 0, 12, 0)})
	require.NoError(t, err)
	assert.False(t, report.RoomConflict)
	assert.True(t, report.TeacherConflict)
	assert.Equal(t, []int64{1}, report.TeacherSessionIDs)
	assert.Equal(t, "teacher conflict", report.Message())
}

func TestCheckConflictsInvalidInterval(t *testing.T) {
	store := &memoryStore{}
	cases := []Interval{
		span(4, 10, 0, 10, 0),
		span(4, 11, 0, 10, 0),
		{},
	}

	for _, iv := range cases {
		report, err := CheckConflicts(context.Background(), store, Request{RoomID: 1, TeacherID: 1, Interval: iv})
		assert.Nil(t, report)
		assert.True(t, errors.Is(err, ErrInvalidInterval))
	}
	assert.Zero(t, store.calls, "invalid intervals must fail before any query")
}

func TestCheckConflictsUnavailability(t *testing.T) {
	window := fakeUnavailability{id: 42, teacherID: 5, interval: span(1, 8, 0, 12, 0), approved: true}

	tests := []struct {
		name string
		iv   Interval
		want bool
	}{
		{"wholly inside", span(1, 9, 0, 10, 0), true},
		{"partially overlapping start", span(1, 7, 0, 9, 0), true},
		{"partially overlapping end", span(1, 11, 0, 13, 0), true},
		{"exact bounds", span(1, 8, 0, 12, 0), true},
		{"strictly before", span(1, 6, 0, 7, 0), false},
		{"adjacent after", span(1, 12, 0, 13, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryStore{unavailability: []fakeUnavailability{window}}
			report, err := CheckConflicts(context.Background(), store, Request{RoomID: 9, TeacherID: 5, Interval: tt.iv})
			require.NoError(t, err)
			assert.Equal(t, tt.want, report.TeacherUnavailable)
			if tt.want {
				assert.Equal(t, []int64{42}, report.UnavailabilityIDs)
			}
		})
	}
}

func TestCheckConflictsOnlyApprovedUnavailabilityBlocks(t *testing.T) {
	store := &memoryStore{unavailability: []fakeUnavailability{
		{id: 1, teacherID: 5, interval: span(1, 8, 0, 12, 0), approved: false},
		{id: 2, teacherID: 6, interval: span(1, 8, 0, 12, 0), approved: true},
	}}

	report, err := CheckConflicts(context.Background(), store, Request{RoomID: 1, TeacherID: 5, Interval: span(1, 9, 0, 10, 0)})
	require.NoError(t, err)
	assert.False(t, report.TeacherUnavailable)
}

// Room 1 holds a confirmed 09:00-10:00 session.
func TestScenarioRoomOne(t *testing.T) {
	store := &memoryStore{sessions: []fakeSession{
		{id: 100, roomID: 1, teacherID: 10, interval: span(4, 9, 0, 10, 0), kind: "lecture"},
	}}
	ctx := context.Background()

	report, err := CheckConflicts(ctx, store, Request{RoomID: 1, TeacherID: 11, Interval: span(4, 9, 30, 10, 30)})
	require.NoError(t, err)
	assert.True(t, report.RoomConflict)
	assert.Contains(t, report.RoomSessionIDs, int64(100))

	report, err = CheckConflicts(ctx, store, Request{RoomID: 1, TeacherID: 11, Interval: span(4, 10, 0, 11, 0)})
	require.NoError(t, err)
	assert.False(t, report.RoomConflict)

	// The candidate's session type is not an input: an exam in the same
	// overlapping window is flagged exactly like a lecture.
	store.sessions[0].kind = "exam"
	report, err = CheckConflicts(ctx, store, Request{RoomID: 1, TeacherID: 11, Interval: span(4, 9, 30, 10, 30)})
	require.NoError(t, err)
	assert.True(t, report.RoomConflict)
}

// Teacher 5 is unavailable 2024-03-01 08:00-12:00.
func TestScenarioTeacherFiveUnavailable(t *testing.T) {
	store := &memoryStore{unavailability: []fakeUnavailability{
		{id: 7, teacherID: 5, interval: span(1, 8, 0, 12, 0), approved: true},
	}}

	for roomID := int64(1); roomID <= 3; roomID++ {
		report, err := CheckConflicts(context.Background(), store, Request{RoomID: roomID, TeacherID: 5, Interval: span(1, 10, 0, 11, 0)})
		require.NoError(t, err)
		assert.False(t, report.RoomConflict)
		assert.True(t, report.TeacherUnavailable)
		assert.Equal(t, "unavailability conflict", report.Message())
	}
}

func TestCheckConflictsPropagatesStorageErrors(t *testing.T) {
	boom := errors.New("connection reset")
	store := &memoryStore{err: boom}

	_, err := CheckConflicts(context.Background(), store, Request{RoomID: 1, TeacherID: 1, Interval: span(1, 8, 0, 9, 0)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestConflictError(t *testing.T) {
	assert.Nil(t, NewConflictError(&ConflictReport{}))

	err := NewConflictError(&ConflictReport{RoomConflict: true, TeacherUnavailable: true})
	var ce *ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "room, unavailability conflict", err.Error())
}

func TestConflictMessageJoinsEveryKind(t *testing.T) {
	report := &ConflictReport{TeacherUnavailable: true, TeacherConflict: true, RoomConflict: true}
	assert.Equal(t, "room, teacher, unavailability conflict", report.Message())
	assert.Equal(t, "no conflict", (&ConflictReport{}).Message())
}
