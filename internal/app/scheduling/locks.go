package scheduling

import "sort"

const (
	lockClassRoom    int64 = 1
	lockClassTeacher int64 = 2
	lockClassShift         = 48
)

// RoomLockKey is the advisory lock key of one room.
func RoomLockKey(roomID int64) int64 {
	return lockClassRoom<<lockClassShift | roomID
}

// TeacherLockKey is the advisory lock key of one teacher.
func TeacherLockKey(teacherID int64) int64 {
	return lockClassTeacher<<lockClassShift | teacherID
}

// LockKeys returns the advisory lock keys that serialize writers touching the
// given room and teacher. Keys are sorted so every writer acquires them in the
// same order.
func LockKeys(roomID, teacherID int64) []int64 {
	keys := []int64{RoomLockKey(roomID), TeacherLockKey(teacherID)}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
