// Package notify delivers notification emails over SMTP. Delivery is
// best-effort: callers treat a failed send as a logged warning, never as a
// failure of the action that triggered it.
package notify

import (
	"gopkg.in/gomail.v2"

	"github.com/itops-hk/itpm-service/internal/config"
)

type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *Mailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}
