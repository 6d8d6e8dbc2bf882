// Package queue holds the pending e-mails between import and send.
package queue

import (
	"sync"

	"github.com/ryan-gang/mailqueue/internal/recipients"
)

// Queue is an ordered list of entries. Imports replace it wholesale and
// cancellation clears it; the send worker only ever sees a Snapshot.
type Queue struct {
	mu      sync.RWMutex
	entries []recipients.Entry
	source  string
}

func New() *Queue {
	return &Queue{}
}

// Replace swaps the queue contents for entries loaded from source.
func (q *Queue) Replace(source string, entries []recipients.Entry) {
	next := copyEntries(entries)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = next
	q.source = source
}

// Load reads path with the recipient loader and replaces the queue. On error
// the queue is left as it was.
func (q *Queue) Load(path string) (int, error) {
	entries, err := recipients.Load(path)
	if err != nil {
		return 0, err
	}
	q.Replace(path, entries)
	return len(entries), nil
}

func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = nil
	q.source = ""
}

// Snapshot returns a copy the caller owns, Vars maps included.
func (q *Queue) Snapshot() []recipients.Entry {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return copyEntries(q.entries)
}

func copyEntries(entries []recipients.Entry) []recipients.Entry {
	if entries == nil {
		return nil
	}
	out := make([]recipients.Entry, len(entries))
	for i, e := range entries {
		if e.Vars != nil {
			vars := make(map[string]string, len(e.Vars))
			for k, v := range e.Vars {
				vars[k] = v
			}
			e.Vars = vars
		}
		out[i] = e
	}
	return out
}

func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}

// Source is the path of the last import, "" when empty.
func (q *Queue) Source() string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.source
}
