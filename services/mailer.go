package services

import (
	"context"
	"fmt"

	"github.com/nearnect/nearnect-api/config"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Email is a single outgoing HTML email
type Email struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers emails
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// SMTPMailer sends email through an SMTP relay
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.EmailHost, cfg.EmailPort, cfg.EmailUser, cfg.EmailPassword),
		from:   cfg.EmailUser,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, "NearNect")
	msg.SetHeader("To", email.To)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/html", email.HTML)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", email.To, err)
	}
	return nil
}

// NoopMailer drops every email; used when SMTP credentials are missing
type NoopMailer struct{}

func (NoopMailer) Send(_ context.Context, email Email) error {
	zap.L().Debug("Email service not configured, dropping email",
		zap.String("to", email.To),
		zap.String("subject", email.Subject))
	return nil
}

// NewMailer returns an SMTP mailer when credentials are configured
func NewMailer(cfg *config.Config) Mailer {
	if !cfg.EmailEnabled() {
		zap.L().Warn("Email service not configured. Set EMAIL_USER and EMAIL_PASSWORD to enable it.")
		return NoopMailer{}
	}
	return NewSMTPMailer(cfg)
}
