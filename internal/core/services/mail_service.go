package services

import (
	"log"

	"unibooks/internal/config"

	gomail "gopkg.in/gomail.v2"
)

// MailSender sends outbound email on a best-effort basis: failures are
// logged and dropped, never surfaced to the caller.
type MailSender interface {
	Send(subject, body string, to ...string)
}

// MailService implements MailSender over SMTP
type MailService struct {
	dialer  *gomail.Dialer
	from    string
	enabled bool
}

// NewMailService creates a new mail service. Mail is disabled (silently
// dropped) when no SMTP host is configured.
func NewMailService(cfg *config.Config) *MailService {
	if !cfg.MailEnabled() {
		log.Println("⚠️ SMTP_HOST not set, outbound email disabled")
		return &MailService{enabled: false}
	}
	return &MailService{
		dialer:  gomail.NewDialer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password),
		from:    cfg.Mail.From,
		enabled: true,
	}
}

// IsEnabled checks if mail delivery is enabled
func (s *MailService) IsEnabled() bool {
	return s.enabled
}

// Send delivers a plain-text message to the recipients. Best-effort:
// any dial or send error is logged and discarded.
func (s *MailService) Send(subject, body string, to ...string) {
	if !s.enabled || len(to) == 0 {
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		log.Printf("❌ Mail send error: %v", err)
		return
	}
}
