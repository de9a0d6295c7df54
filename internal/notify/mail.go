package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// Mailer delivers a transcript. It reports the outcome as a flag and a
// human-readable message instead of an error so the demo flow can print it
// as is.
type Mailer interface {
	SendTranscript(ctx context.Context, transcript string) (bool, string)
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	Subject  string
}

// SMTPMailer sends plain-text mail with PLAIN auth.
type SMTPMailer struct {
	cfg  SMTPConfig
	now  func() time.Time
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{cfg: cfg, now: time.Now, send: smtp.SendMail}
}

func (m *SMTPMailer) SendTranscript(ctx context.Context, transcript string) (bool, string) {
	if missing := m.missing(); missing != "" {
		return false, "email is not configured: missing " + missing
	}
	if strings.TrimSpace(transcript) == "" {
		return false, "nothing to send: transcript is empty"
	}
	if err := ctx.Err(); err != nil {
		return false, fmt.Sprintf("email cancelled: %v", err)
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(addr, auth, m.cfg.From, []string{m.cfg.To}, m.message(transcript)); err != nil {
		return false, fmt.Sprintf("failed to send email: %v", err)
	}
	return true, "transcript sent to " + m.cfg.To
}

func (m *SMTPMailer) missing() string {
	switch {
	case m.cfg.Host == "":
		return "host"
	case m.cfg.From == "":
		return "from"
	case m.cfg.To == "":
		return "to"
	case m.cfg.Username != "" && m.cfg.Password == "":
		return "password"
	}
	return ""
}

func (m *SMTPMailer) message(body string) []byte {
	subject := m.cfg.Subject
	if subject == "" {
		subject = "Your audio transcript"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", m.cfg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", m.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.TrimSpace(body), "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

// NopMailer reports success without sending anything.
type NopMailer struct{}

func (NopMailer) SendTranscript(context.Context, string) (bool, string) {
	return true, "email disabled, transcript not sent"
}
