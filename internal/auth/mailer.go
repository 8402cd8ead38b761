package auth

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/suteetoe/rfitrack/internal/model"
	"github.com/suteetoe/rfitrack/pkg/config"
	"github.com/suteetoe/rfitrack/pkg/logger"
	"go.uber.org/zap"
)

// Mailer delivers one-time codes
type Mailer interface {
	SendCode(ctx context.Context, email, code string, purpose model.OTPPurpose) error
}

// NewMailer returns the mailer selected by cfg.Driver
func NewMailer(cfg config.MailConfig) (Mailer, error) {
	switch cfg.Driver {
	case "log":
		return LogMailer{}, nil
	case "smtp":
		return NewSMTPMailer(cfg), nil
	}
	return nil, fmt.Errorf("unsupported mail driver %q", cfg.Driver)
}

// LogMailer writes codes to the log instead of sending email. Development only;
// config.Load refuses it in production.
type LogMailer struct{}

// SendCode logs the code
func (LogMailer) SendCode(ctx context.Context, email, code string, purpose model.OTPPurpose) error {
	logger.FromContext(ctx).Info("One-time code issued",
		zap.String("email", email),
		zap.String("purpose", string(purpose)),
		zap.String("code", code))
	return nil
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends codes through an SMTP relay
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
	send sendFunc
}

// NewSMTPMailer creates an SMTPMailer. PLAIN auth is used when a username is set.
func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	m := &SMTPMailer{
		addr: net.JoinHostPort(cfg.SMTPHost, cfg.SMTPPort),
		from: cfg.From,
		send: smtp.SendMail,
	}
	if cfg.Username != "" {
		m.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}
	return m
}

// SendCode emails the code. The code never appears in logs.
func (m *SMTPMailer) SendCode(ctx context.Context, email, code string, purpose model.OTPPurpose) error {
	if strings.ContainsAny(email, "\r\n") {
		return fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}

	subject := "Your sign-in code"
	if purpose == model.OTPSignup {
		subject = "Confirm your email"
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&msg, "Your code is %s\r\n\r\nIt expires shortly. If you did not request it, ignore this email.\r\n", code)

	if err := m.send(m.addr, m.auth, m.from, []string{email}, []byte(msg.String())); err != nil {
		logger.FromContext(ctx).Error("Failed to send one-time code",
			zap.String("email", email), zap.Error(err))
		return fmt.Errorf("send code: %w", err)
	}
	return nil
}
