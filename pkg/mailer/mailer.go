// Package mailer dispatches invoice documents over SMTP.
package mailer

import (
	"context"
	"errors"
	"io"
	"time"

	"dental-clinic-api/config"

	"gopkg.in/gomail.v2"
)

const sendTimeout = 30 * time.Second

var ErrNotConfigured = errors.New("smtp is not configured")

type Mailer struct {
	cfg config.SMTPConfig
}

func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send emails the rendered invoice PDF to the patient. The dial-and-send
// runs in a goroutine so the context deadline is honored even though gomail
// itself is not context-aware.
func (m *Mailer) Send(ctx context.Context, to, toName, subject, body, attachmentName string, attachment []byte) error {
	if m.cfg.Host == "" || m.cfg.From == "" {
		return ErrNotConfigured
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetAddressHeader("To", to, toName)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	msg.Attach(attachmentName, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(attachment)
		return err
	}))

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)

	done := make(chan error, 1)
	go func() {
		done <- dialer.DialAndSend(msg)
	}()

	wait := sendTimeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 && d < wait {
			wait = d
		}
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return context.DeadlineExceeded
	}
}
