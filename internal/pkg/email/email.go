package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EmailService sends the notification mails of the scheduling system.
type EmailService interface {
	SendWelcomeEmail(toEmail, toName string) error
	SendSessionChange(toEmail, toName string, change SessionChange) error
}

// SessionChange describes a session event for the teacher concerned.
type SessionChange struct {
	Action      string // "scheduled", "rescheduled", "confirmed" or "cancelled"
	SubjectCode string
	SubjectName string
	RoomName    string
	Building    string
	StartTime   time.Time
	EndTime     time.Time
	Reason      string
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
}

// implicitTLS reports whether the port expects TLS from the first byte.
func (c SMTPConfig) implicitTLS() bool {
	return c.Port == 465
}

// EmailServiceImpl implements EmailService
type EmailServiceImpl struct {
	config SMTPConfig
	logger zerolog.Logger
	send   func(to, subject, body string) error
}

// NewEmailService creates a new EmailService. Without a host the service only
// logs what it would have sent.
func NewEmailService(config SMTPConfig, logger zerolog.Logger) EmailService {
	s := &EmailServiceImpl{config: config, logger: logger}
	s.send = s.sendHTMLEmail
	return s
}

var (
	welcomeTemplate = template.Must(template.New("welcome").Parse(`<html><body>
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2>Welcome to UniTime</h2>
<p>Hello {{.Name}},</p>
<p>An administrator created your UniTime account. Sign in with this address to see your timetable.</p>
<p>The UniTime Team</p>
</div></body></html>`))

	sessionTemplate = template.Must(template.New("session").Parse(`<html><body>
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<p>Hello {{.Name}},</p>
<p>Your {{.Change.SubjectCode}} {{.Change.SubjectName}} session was <strong>{{.Change.Action}}</strong>.</p>
<ul>
<li>When: {{.Start}} to {{.End}}</li>
<li>Where: {{.Change.RoomName}}{{if .Change.Building}}, {{.Change.Building}}{{end}}</li>
{{if .Change.Reason}}<li>Reason: {{.Change.Reason}}</li>{{end}}
</ul>
<p>The UniTime Team</p>
</div></body></html>`))
)

// SendWelcomeEmail greets a user created by an administrator.
func (s *EmailServiceImpl) SendWelcomeEmail(toEmail, toName string) error {
	var body bytes.Buffer
	if err := welcomeTemplate.Execute(&body, map[string]string{"Name": toName}); err != nil {
		return fmt.Errorf("render welcome email: %w", err)
	}
	return s.deliver(toEmail, "Welcome to UniTime", body.String())
}

// SendSessionChange tells a teacher that one of their sessions changed.
func (s *EmailServiceImpl) SendSessionChange(toEmail, toName string, change SessionChange) error {
	const layout = "Mon 02 Jan 2006 15:04 MST"

	var body bytes.Buffer
	err := sessionTemplate.Execute(&body, map[string]interface{}{
		"Name":   toName,
		"Change": change,
		"Start":  change.StartTime.Format(layout),
		"End":    change.EndTime.Format(layout),
	})
	if err != nil {
		return fmt.Errorf("render session email: %w", err)
	}

	subject := fmt.Sprintf("%s session %s", change.SubjectCode, change.Action)
	return s.deliver(toEmail, subject, body.String())
}

func (s *EmailServiceImpl) deliver(toEmail, subject, body string) error {
	if s.config.Host == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("subject", subject).
			Msg("SMTP not configured - email not sent")
		return nil
	}
	return s.send(toEmail, subject, body)
}

// sendHTMLEmail sends an HTML email
func (s *EmailServiceImpl) sendHTMLEmail(toEmail, subject, htmlBody string) error {
	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	message := buildMessage(s.config.FromName, s.config.FromEmail, toEmail, subject, htmlBody)
	serverAddress := s.config.Host + ":" + strconv.Itoa(s.config.Port)

	if !s.config.implicitTLS() {
		// smtp.SendMail upgrades with STARTTLS when the server offers it
		if err := smtp.SendMail(serverAddress, auth, s.config.FromEmail, []string{toEmail}, message); err != nil {
			s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to send email")
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	}

	conn, err := tls.Dial("tcp", serverAddress, &tls.Config{ServerName: s.config.Host})
	if err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to connect to SMTP server")
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			s.logger.Error().Err(err).Msg("SMTP authentication failed")
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return nil
}

func buildMessage(fromName, fromEmail, toEmail, subject, htmlBody string) []byte {
	from := fromEmail
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", fromName, fromEmail)
	}

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + toEmail + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}
