package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/pkg/email"
	"github.com/yigit/unitime/internal/pkg/websocket"
)

type recordingHub struct {
	events []websocket.Event
}

func (h *recordingHub) Publish(event websocket.Event) {
	h.events = append(h.events, event)
}

type recordingMail struct {
	to      []string
	changes []email.SessionChange
	err     error
}

func (m *recordingMail) SendWelcomeEmail(string, string) error { return nil }

func (m *recordingMail) SendSessionChange(to, _ string, change email.SessionChange) error {
	m.to = append(m.to, to)
	m.changes = append(m.changes, change)
	return m.err
}

func newTestNotifier(hub Publisher, mail email.EmailService) *SessionNotifier {
	n := NewSessionNotifier(hub, mail, zerolog.Nop())
	n.dispatch = func(f func()) { f() }
	n.now = func() time.Time { return time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC) }
	return n
}

func details() *models.SessionDetails {
	reason := "strike"
	return &models.SessionDetails{
		Session: models.Session{
			ID:                 9,
			ProgramID:          4,
			StartTime:          time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
			EndTime:            time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
			Status:             models.StatusCancelled,
			CancellationReason: &reason,
		},
		SubjectCode:      "ALG1",
		SubjectName:      "Algebra",
		RoomName:         "A101",
		BuildingName:     "Main",
		TeacherFirstName: "Marie",
		TeacherLastName:  "Ngoma",
		TeacherEmail:     "m.ngoma@unitime.app",
	}
}

func TestSessionChangedPublishesAndMails(t *testing.T) {
	hub := &recordingHub{}
	mail := &recordingMail{}

	newTestNotifier(hub, mail).SessionChanged(ActionCancelled, details())

	require.Len(t, hub.events, 1)
	assert.Equal(t, websocket.EventSessionCancelled, hub.events[0].Type)
	assert.Equal(t, int64(9), hub.events[0].SessionID)
	assert.Equal(t, int64(4), hub.events[0].ProgramID)

	require.Len(t, mail.changes, 1)
	assert.Equal(t, []string{"m.ngoma@unitime.app"}, mail.to)
	assert.Equal(t, "cancelled", mail.changes[0].Action)
	assert.Equal(t, "strike", mail.changes[0].Reason)
	assert.Equal(t, "Main", mail.changes[0].Building)
}

func TestSessionChangedSkipsMailWithoutAddress(t *testing.T) {
	hub := &recordingHub{}
	mail := &recordingMail{}
	s := details()
	s.TeacherEmail = ""

	newTestNotifier(hub, mail).SessionChanged(ActionScheduled, s)

	require.Len(t, hub.events, 1)
	assert.Equal(t, websocket.EventSessionCreated, hub.events[0].Type)
	assert.Empty(t, mail.changes)
}

func TestSessionChangedSurvivesMailFailure(t *testing.T) {
	mail := &recordingMail{err: errors.New("smtp down")}

	assert.NotPanics(t, func() {
		newTestNotifier(nil, mail).SessionChanged(ActionRescheduled, details())
	})
	assert.Len(t, mail.changes, 1)
}
