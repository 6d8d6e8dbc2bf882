// Package sender drains a queue snapshot, one SMTP session per message.
package sender

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ryan-gang/mailqueue/internal/blacklist"
	"github.com/ryan-gang/mailqueue/internal/history"
	"github.com/ryan-gang/mailqueue/internal/logger"
	"github.com/ryan-gang/mailqueue/internal/mail"
	"github.com/ryan-gang/mailqueue/internal/recipients"
	"github.com/ryan-gang/mailqueue/internal/render"
	"github.com/ryan-gang/mailqueue/internal/util"
)

type Status string

const (
	StatusSent    Status = history.StatusSent
	StatusFailed  Status = history.StatusFailed
	StatusSkipped Status = history.StatusSkipped
)

// Outcome is what happened to one queue entry.
type Outcome struct {
	Entry    recipients.Entry
	Status   Status
	Subject  string
	Category blacklist.Category
	Err      error
	At       time.Time
}

type Progress struct {
	Done    int
	Total   int
	Sent    int
	Failed  int
	Skipped int
	Last    Outcome
}

// Observer is notified on the worker goroutine after every entry.
type Observer interface {
	OnProgress(Progress)
}

type ObserverFunc func(Progress)

func (f ObserverFunc) OnProgress(p Progress) { f(p) }

type Blacklist interface {
	Match(recipient string) (blacklist.Category, bool)
}

type Renderer interface {
	Render(e recipients.Entry) (*render.Message, error)
}

type Recorder interface {
	Record(ctx context.Context, r history.Record) error
}

// Summary is the result of one Run.
type Summary struct {
	RunID     string
	Total     int
	Sent      int
	Failed    int
	Skipped   int
	Cancelled bool
	Started   time.Time
	Finished  time.Time
}

// Remaining is the number of entries never attempted.
func (s Summary) Remaining() int {
	return s.Total - s.Sent - s.Failed - s.Skipped
}

type Worker struct {
	Blacklist Blacklist
	Renderer  Renderer
	Mailer    mail.MailSender
	Log       logger.LoggerInterface
	History   Recorder
	Observer  Observer

	RunID    string
	RunLabel string
	Sender   string

	total   atomic.Int64
	done    atomic.Int64
	sent    atomic.Int64
	failed  atomic.Int64
	skipped atomic.Int64
}

// Progress may be called from any goroutine while Run is active.
func (w *Worker) Progress() Progress {
	return Progress{
		Done:    int(w.done.Load()),
		Total:   int(w.total.Load()),
		Sent:    int(w.sent.Load()),
		Failed:  int(w.failed.Load()),
		Skipped: int(w.skipped.Load()),
	}
}

// Run processes entries in order. Cancellation is checked before each
// entry; a send already in progress is allowed to finish.
func (w *Worker) Run(ctx context.Context, entries []recipients.Entry) Summary {
	w.reset(len(entries))
	summary := Summary{RunID: w.RunID, Total: len(entries), Started: time.Now()}

	for _, e := range entries {
		if ctx.Err() != nil {
			summary.Cancelled = true
			w.Log.Debugf("Run %s cancelled with %d of %d messages remaining", w.RunID, len(entries)-int(w.done.Load()), len(entries))
			break
		}

		out := w.process(ctx, e)
		w.record(ctx, out)

		p := w.Progress()
		p.Last = out
		if w.Observer != nil {
			w.Observer.OnProgress(p)
		}
	}

	p := w.Progress()
	summary.Sent, summary.Failed, summary.Skipped = p.Sent, p.Failed, p.Skipped
	summary.Finished = time.Now()
	return summary
}

func (w *Worker) reset(total int) {
	w.total.Store(int64(total))
	w.done.Store(0)
	w.sent.Store(0)
	w.failed.Store(0)
	w.skipped.Store(0)
}

func (w *Worker) process(ctx context.Context, e recipients.Entry) (out Outcome) {
	out.Entry = e
	defer func() {
		out.At = time.Now()
		w.done.Add(1)
	}()

	if c, listed := w.Blacklist.Match(e.Recipient); listed {
		out.Status, out.Category = StatusSkipped, c
		w.skipped.Add(1)
		w.Log.Debugf("Skipped %s: blacklisted as %s", e.Recipient, c)
		return out
	}

	msg, err := w.Renderer.Render(e)
	if err == nil {
		out.Subject = msg.Subject
		err = w.Mailer.Send(ctx, msg)
	}
	if err != nil {
		out.Status, out.Err = StatusFailed, err
		w.failed.Add(1)
		w.Log.Errorf("Failed to send %s to %s: %v", e.Template, e.Recipient, err)
		return out
	}

	out.Status = StatusSent
	w.sent.Add(1)
	w.Log.Infof("Sent %s to %s", e.Template, e.Recipient)
	return out
}

func (w *Worker) record(ctx context.Context, out Outcome) {
	if w.History == nil {
		return
	}
	r := history.Record{
		RunID:     w.RunID,
		RunLabel:  w.RunLabel,
		Sender:    w.Sender,
		Recipient: out.Entry.Recipient,
		Template:  out.Entry.Template,
		Subject:   out.Subject,
		Status:    string(out.Status),
		SentAt:    out.At,
	}
	if out.Err != nil {
		r.Error = out.Err.Error()
	}
	// history is best effort and must outlive a cancelled run context
	if err := w.History.Record(context.WithoutCancel(ctx), r); err != nil {
		util.LogError(util.HistoryError, "recording outcome", err)
	}
}
