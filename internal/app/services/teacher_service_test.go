package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/app/repositories"
	"github.com/yigit/unitime/internal/app/scheduling"
	"github.com/yigit/unitime/internal/pkg/apperrors"
)

type teacherDirectory map[int64]*models.Teacher

func (d teacherDirectory) GetByID(_ context.Context, id int64) (*models.Teacher, error) {
	if t, ok := d[id]; ok {
		return t, nil
	}
	return nil, apperrors.ErrTeacherNotFound
}

func (d teacherDirectory) List(_ context.Context, f repositories.TeacherFilter) ([]*models.Teacher, error) {
	var out []*models.Teacher
	for _, t := range d {
		if f.Active != nil && t.IsActive != *f.Active {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func TestWorkloadSumsByType(t *testing.T) {
	schedule := newMemorySchedule()
	schedule.addSession(models.Session{TeacherID: 1, RoomID: 1, StartTime: at(4, 8, 0), EndTime: at(4, 10, 0)})
	schedule.addSession(models.Session{TeacherID: 1, RoomID: 2, StartTime: at(5, 14, 0), EndTime: at(5, 15, 30), SessionType: models.SessionLab})
	// Straddles the window end: only 20 minutes count.
	schedule.addSession(models.Session{TeacherID: 1, RoomID: 1, StartTime: at(8, 23, 40), EndTime: at(9, 1, 0)})
	schedule.addSession(models.Session{TeacherID: 1, RoomID: 1, StartTime: at(6, 8, 0), EndTime: at(6, 10, 0), Status: models.StatusCancelled})
	schedule.addSession(models.Session{TeacherID: 2, RoomID: 1, StartTime: at(6, 8, 0), EndTime: at(6, 10, 0)})

	svc := NewTeacherService(teacherDirectory(newLookups().teachers), schedule.reader())
	resp, err := svc.GetWorkload(context.Background(), 1, scheduling.Interval{Start: at(4, 0, 0), End: at(9, 0, 0)})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.SessionCount)
	assert.Equal(t, 3.83, resp.TotalHours)
	assert.Equal(t, 2.33, resp.HoursByType[string(models.SessionLecture)])
	assert.Equal(t, 1.5, resp.HoursByType[string(models.SessionLab)])
}

func TestWorkloadUnknownTeacher(t *testing.T) {
	svc := NewTeacherService(teacherDirectory{}, newMemorySchedule().reader())

	_, err := svc.GetWorkload(context.Background(), 7, scheduling.Interval{Start: at(4, 0, 0), End: at(5, 0, 0)})
	assert.ErrorIs(t, err, apperrors.ErrTeacherNotFound)

	_, err = svc.GetTeacher(context.Background(), 0)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestListTeachersFiltersActive(t *testing.T) {
	dir := teacherDirectory(newLookups().teachers)
	dir[2].IsActive = false
	svc := NewTeacherService(dir, newMemorySchedule().reader())

	active := true
	teachers, err := svc.ListTeachers(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, teachers, 5)

	teachers, err = svc.ListTeachers(context.Background(), &dto.TeacherFilterRequest{Active: &active})
	require.NoError(t, err)
	assert.Len(t, teachers, 4)
}

func TestWorkloadCapsTheWindow(t *testing.T) {
	schedule := newMemorySchedule()
	schedule.addSession(models.Session{TeacherID: 1, RoomID: 1, StartTime: at(4, 8, 0), EndTime: at(4, 10, 0)})
	svc := NewTeacherService(teacherDirectory(newLookups().teachers), schedule.reader())
	ctx := context.Background()

	_, err := svc.GetWorkload(ctx, 1, scheduling.Interval{Start: at(1, 0, 0), End: at(1, 0, 0).AddDate(1, 0, 0)})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	resp, err := svc.GetWorkload(ctx, 1, scheduling.Interval{Start: at(1, 0, 0), End: at(1, 0, 0).Add(maxTimetableSpan)})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.SessionCount)
	assert.Equal(t, 2.0, resp.TotalHours)
}
