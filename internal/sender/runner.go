package sender

import (
	"context"
	"errors"
	"sync"

	"github.com/ryan-gang/mailqueue/internal/queue"
)

var (
	ErrEmptyQueue     = errors.New("no emails in queue")
	ErrAlreadyRunning = errors.New("a send run is already in progress")
	ErrNotStarted     = errors.New("no send run was started")
)

// Runner owns the single background worker goroutine. Start snapshots the
// queue; Cancel stops the run between messages and clears the queue.
type Runner struct {
	worker *Worker
	queue  *queue.Queue

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	summary Summary
}

func NewRunner(w *Worker, q *queue.Queue) *Runner {
	return &Runner{worker: w, queue: q}
}

func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done != nil {
		select {
		case <-r.done:
		default:
			return ErrAlreadyRunning
		}
	}

	entries := r.queue.Snapshot()
	if len(entries) == 0 {
		return ErrEmptyQueue
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel, r.done = cancel, done

	go func() {
		defer close(done)
		defer cancel()
		s := r.worker.Run(runCtx, entries)

		r.mu.Lock()
		r.summary = s
		r.mu.Unlock()
	}()
	return nil
}

// Cancel requests the active run to stop and empties the queue. It is safe
// to call when nothing is running.
func (r *Runner) Cancel() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.queue.Clear()
}

// Wait blocks until the current run ends and returns its summary.
func (r *Runner) Wait() (Summary, error) {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	if done == nil {
		return Summary{}, ErrNotStarted
	}
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary, nil
}

func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done == nil {
		return false
	}
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

func (r *Runner) Progress() Progress {
	return r.worker.Progress()
}
