package email

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinic-api/internal/config"
)

type Service interface {
	SendWelcome(ctx context.Context, to string, name string, clinicName string) error
	SendPasswordChanged(ctx context.Context, to string, name string) error
}

// NewService returns an SMTP sender, or a no-op one when SMTP is disabled
// in configuration.
func NewService(cfg config.SMTPConfig) Service {
	if !cfg.Enabled {
		return &noopService{}
	}
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *smtpService) SendWelcome(_ context.Context, to, name, clinicName string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour account at %s has been created. You can now log in with this email address.\n",
		name, clinicName)
	return s.send(to, "Welcome to "+clinicName, body)
}

func (s *smtpService) SendPasswordChanged(_ context.Context, to, name string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour password was just changed. If this was not you, contact your clinic administrator immediately.\n",
		name)
	return s.send(to, "Your password was changed", body)
}

type noopService struct{}

func (noopService) SendWelcome(context.Context, string, string, string) error { return nil }
func (noopService) SendPasswordChanged(context.Context, string, string) error { return nil }
