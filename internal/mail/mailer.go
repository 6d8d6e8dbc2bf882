package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/ryan-gang/mailqueue/internal/render"

	gomail "gopkg.in/mail.v2"
)

var now = time.Now

// Build converts a rendered message into a MIME message with an HTML body
// and a plain-text alternative.
func (s *SMTPMailSender) Build(msg *render.Message) *gomail.Message {
	m := gomail.NewMessage()
	if s.opts.FromName != "" {
		m.SetAddressHeader("From", s.profile.Username, s.opts.FromName)
	} else {
		m.SetHeader("From", s.profile.Username)
	}
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetDateHeader("Date", now())

	if msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	} else {
		m.SetBody("text/html", msg.HTML)
	}
	return m
}

// Send dials, authenticates and sends msg in one session. The context is
// checked before dialing; a session in progress runs until it completes or
// the dial timeout fires.
func (s *SMTPMailSender) Send(ctx context.Context, msg *render.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(s.Build(msg)); err != nil {
		return fmt.Errorf("failed to send mail via %s: %w", s.profile.Address(), err)
	}
	return nil
}
