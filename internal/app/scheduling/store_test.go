package scheduling

import (
	"context"
	"sort"
	"time"
)

type fakeSession struct {
	id        int64
	roomID    int64
	teacherID int64
	interval  Interval
	cancelled bool
	kind      string
}

type fakeUnavailability struct {
	id        int64
	teacherID int64
	interval  Interval
	approved  bool
}

// memoryStore answers overlap queries with Interval.Overlaps, mirroring the
// SQL predicate start_time < $end AND end_time > $start.
type memoryStore struct {
	sessions       []fakeSession
	unavailability []fakeUnavailability
	err            error
	calls          int
}

func (m *memoryStore) FindOverlappingSessions(_ context.Context, q SessionOverlapQuery) ([]int64, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var ids []int64
	for _, s := range m.sessions {
		if s.cancelled {
			continue
		}
		if q.RoomID != nil && s.roomID != *q.RoomID {
			continue
		}
		if q.TeacherID != nil && s.teacherID != *q.TeacherID {
			continue
		}
		if q.ExcludeSessionID != nil && s.id == *q.ExcludeSessionID {
			continue
		}
		if s.interval.Overlaps(q.Interval) {
			ids = append(ids, s.id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memoryStore) FindApprovedUnavailabilities(_ context.Context, teacherID int64, iv Interval) ([]int64, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	var ids []int64
	for _, u := range m.unavailability {
		if u.approved && u.teacherID == teacherID && u.interval.Overlaps(iv) {
			ids = append(ids, u.id)
		}
	}
	return ids, nil
}

func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.March, day, hour, minute, 0, 0, time.UTC)
}

func span(day, fromHour, fromMin, toHour, toMin int) Interval {
	return Interval{Start: at(day, fromHour, fromMin), End: at(day, toHour, toMin)}
}
