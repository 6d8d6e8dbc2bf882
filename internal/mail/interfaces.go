package mail

import (
	"context"
	"time"

	"github.com/ryan-gang/mailqueue/internal/profile"
	"github.com/ryan-gang/mailqueue/internal/render"

	gomail "gopkg.in/mail.v2"
)

// MailSender delivers one rendered message per call.
type MailSender interface {
	Send(ctx context.Context, msg *render.Message) error
}

// dialer is the part of *gomail.Dialer the sender needs.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Options tune the SMTP session.
type Options struct {
	FromName    string
	Timeout     time.Duration
	ImplicitTLS bool
}

// SMTPMailSender opens a fresh SMTP session for every message.
type SMTPMailSender struct {
	profile profile.Profile
	opts    Options
	dialer  dialer
}

// NewSMTPMailSender creates a new SMTP mail sender for p.
func NewSMTPMailSender(p profile.Profile, opts Options) *SMTPMailSender {
	d := gomail.NewDialer(p.Server, p.Port, p.Username, p.Password)
	d.SSL = opts.ImplicitTLS
	if !opts.ImplicitTLS {
		d.StartTLSPolicy = gomail.MandatoryStartTLS
	}
	if opts.Timeout > 0 {
		d.Timeout = opts.Timeout
	}
	return &SMTPMailSender{profile: p, opts: opts, dialer: d}
}
