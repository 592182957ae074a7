package email

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to, subject, body string
}

func newCapturingService(host string) (*EmailServiceImpl, *[]sentMail) {
	sent := &[]sentMail{}
	s := NewEmailService(SMTPConfig{Host: host, Port: 587, FromEmail: "no-reply@unitime.app"}, zerolog.Nop()).(*EmailServiceImpl)
	s.send = func(to, subject, body string) error {
		*sent = append(*sent, sentMail{to, subject, body})
		return nil
	}
	return s, sent
}

func TestSendSessionChangeRendersDetails(t *testing.T) {
	s, sent := newCapturingService("smtp.unitime.test")

	err := s.SendSessionChange("t@unitime.app", "Marie Ngoma", SessionChange{
		Action:      "cancelled",
		SubjectCode: "CS101",
		SubjectName: "Algorithms",
		RoomName:    "A-101",
		Building:    "Main",
		StartTime:   time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC),
		Reason:      "strike <today>",
	})
	require.NoError(t, err)
	require.Len(t, *sent, 1)

	mail := (*sent)[0]
	assert.Equal(t, "t@unitime.app", mail.to)
	assert.Equal(t, "CS101 session cancelled", mail.subject)
	assert.Contains(t, mail.body, "Mon 04 Mar 2024 09:00 UTC")
	assert.Contains(t, mail.body, "A-101, Main")
	assert.Contains(t, mail.body, "strike &lt;today&gt;")
}

func TestDeliverWithoutHostOnlyLogs(t *testing.T) {
	s, sent := newCapturingService("")
	require.NoError(t, s.SendWelcomeEmail("new@unitime.app", "New User"))
	assert.Empty(t, *sent)
}

func TestBuildMessageHeaders(t *testing.T) {
	msg := string(buildMessage("UniTime", "no-reply@unitime.app", "x@unitime.app", "Hi", "<p>body</p>"))
	assert.Contains(t, msg, "From: UniTime <no-reply@unitime.app>\r\n")
	assert.Contains(t, msg, "Content-Type: text/html; charset=UTF-8\r\n\r\n<p>body</p>")
}
