// Package app wires the stores, renderer, log and history for one process.
// Commands receive an *App instead of reaching for globals.
package app

import (
	"errors"
	"fmt"

	"github.com/ryan-gang/mailqueue/internal/blacklist"
	"github.com/ryan-gang/mailqueue/internal/config"
	"github.com/ryan-gang/mailqueue/internal/history"
	"github.com/ryan-gang/mailqueue/internal/logger"
	"github.com/ryan-gang/mailqueue/internal/mail"
	"github.com/ryan-gang/mailqueue/internal/profile"
	"github.com/ryan-gang/mailqueue/internal/queue"
	"github.com/ryan-gang/mailqueue/internal/render"
	"github.com/ryan-gang/mailqueue/internal/sender"
)

type Options struct {
	Workdir string
	Verbose bool
}

type App struct {
	Config    *config.Config
	Profiles  *profile.Store
	Blacklist *blacklist.Store
	Queue     *queue.Queue
	Renderer  *render.Renderer
	Log       logger.LoggerInterface
	// History is nil when history_path is empty.
	History *history.Store
}

func New(opts Options) (*App, error) {
	workdir := opts.Workdir
	if workdir == "" {
		var err error
		if workdir, err = config.DefaultWorkdir(); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(workdir)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg, opts.Verbose)
}

// NewWithConfig opens every store described by cfg.
func NewWithConfig(cfg *config.Config, verbose bool) (*App, error) {
	policy, err := blacklist.ParsePolicy(cfg.GetBlacklistMatch())
	if err != nil {
		return nil, err
	}

	profiles, err := profile.Open(cfg.GetProfilesPath())
	if err != nil {
		return nil, err
	}
	list, err := blacklist.Open(cfg.GetBlacklistPath(), policy)
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg, verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &App{
		Config:    cfg,
		Profiles:  profiles,
		Blacklist: list,
		Queue:     queue.New(),
		Renderer:  render.New(cfg.GetTemplatesDir(), cfg.GetDefaultSubject()),
		Log:       log,
	}

	if path := cfg.GetHistoryPath(); path != "" {
		h, err := history.Open(path)
		if err != nil {
			log.Close()
			return nil, err
		}
		a.History = h
	}
	return a, nil
}

// ActiveProfile resolves the profile to send with and checks it is complete.
func (a *App) ActiveProfile(explicit string) (profile.Profile, error) {
	p, err := a.Profiles.Active(explicit, a.Config.GetDefaultProfile())
	if err != nil {
		return profile.Profile{}, err
	}
	if err := p.Validate(); err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

func (a *App) NewMailer(p profile.Profile) *mail.SMTPMailSender {
	return mail.NewSMTPMailSender(p, mail.Options{
		FromName:    a.Config.GetFromName(),
		Timeout:     a.Config.GetSMTPTimeout(),
		ImplicitTLS: a.Config.UseImplicitTLS(),
	})
}

// NewWorker builds a send worker for one run using m as the transport.
func (a *App) NewWorker(m mail.MailSender, p profile.Profile, runID, label string) *sender.Worker {
	w := &sender.Worker{
		Blacklist: a.Blacklist,
		Renderer:  a.Renderer,
		Mailer:    m,
		Log:       a.Log,
		RunID:     runID,
		RunLabel:  label,
		Sender:    p.Username,
	}
	if a.History != nil {
		w.History = a.History
	}
	return w
}

func (a *App) Close() error {
	var errs []error
	if a.History != nil {
		errs = append(errs, a.History.Close())
	}
	if a.Log != nil {
		errs = append(errs, a.Log.Close())
	}
	return errors.Join(errs...)
}
