package form

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Mailer delivers notification emails.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends mail through an authenticated SMTP relay.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	// net/smtp has no context support; the send runs to completion but the
	// caller stops waiting when ctx ends.
	errc := make(chan error, 1)
	go func() {
		errc <- smtp.SendMail(addr, auth, msg.From, []string{msg.To}, buildMIME(msg, time.Now()))
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("smtp send via %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildMIME(msg Message, now time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: Website Form <%s>\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}

// LogMailer logs messages instead of sending them. It is used when no
// SMTP relay is configured.
type LogMailer struct {
	Logger zerolog.Logger
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.Logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("bytes", len(msg.HTML)).
		Msg("SMTP not configured, form email not sent")
	return nil
}
