package notify

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/pkg/email"
	"github.com/yigit/unitime/internal/pkg/websocket"
)

// Action is what happened to a session.
type Action string

const (
	ActionScheduled   Action = "scheduled"
	ActionRescheduled Action = "rescheduled"
	ActionConfirmed   Action = "confirmed"
	ActionCancelled   Action = "cancelled"
)

var eventTypes = map[Action]websocket.EventType{
	ActionScheduled:   websocket.EventSessionCreated,
	ActionRescheduled: websocket.EventSessionUpdated,
	ActionConfirmed:   websocket.EventSessionStatusChanged,
	ActionCancelled:   websocket.EventSessionCancelled,
}

// Publisher accepts timetable events; *websocket.Hub implements it.
type Publisher interface {
	Publish(event websocket.Event)
}

// Notifier tells subscribers and the teacher concerned about a committed
// session change.
type Notifier interface {
	SessionChanged(action Action, session *models.SessionDetails)
}

// SessionNotifier pushes every change to the websocket hub and mails the
// teacher in the background.
type SessionNotifier struct {
	hub      Publisher
	mail     email.EmailService
	logger   zerolog.Logger
	now      func() time.Time
	dispatch func(func())
}

// NewSessionNotifier creates a notifier. mail may be nil to disable mails.
func NewSessionNotifier(hub Publisher, mail email.EmailService, logger zerolog.Logger) *SessionNotifier {
	return &SessionNotifier{
		hub:      hub,
		mail:     mail,
		logger:   logger,
		now:      time.Now,
		dispatch: func(f func()) { go f() },
	}
}

// SessionChanged publishes the event and queues the teacher's mail. It never
// blocks on delivery.
func (n *SessionNotifier) SessionChanged(action Action, session *models.SessionDetails) {
	if session == nil {
		return
	}

	if n.hub != nil {
		n.hub.Publish(websocket.Event{
			Type:      eventTypes[action],
			SessionID: session.ID,
			ProgramID: session.ProgramID,
			Payload:   dto.NewCourseDetailsResponse(session),
			Timestamp: n.now(),
		})
	}

	if n.mail == nil || session.TeacherEmail == "" {
		return
	}

	change := email.SessionChange{
		Action:      string(action),
		SubjectCode: session.SubjectCode,
		SubjectName: session.SubjectName,
		RoomName:    session.RoomName,
		Building:    session.BuildingName,
		StartTime:   session.StartTime,
		EndTime:     session.EndTime,
	}
	if session.CancellationReason != nil {
		change.Reason = *session.CancellationReason
	}
	to := session.TeacherEmail
	name := session.TeacherFirstName + " " + session.TeacherLastName

	n.dispatch(func() {
		if err := n.mail.SendSessionChange(to, name, change); err != nil {
			n.logger.Error().Err(err).
				Int64("sessionID", session.ID).
				Str("action", string(action)).
				Msg("Failed to send session change email")
		}
	})
}
