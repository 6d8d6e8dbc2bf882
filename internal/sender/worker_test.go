package sender

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ryan-gang/mailqueue/internal/blacklist"
	"github.com/ryan-gang/mailqueue/internal/history"
	"github.com/ryan-gang/mailqueue/internal/logger"
	"github.com/ryan-gang/mailqueue/internal/recipients"
	"github.com/ryan-gang/mailqueue/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []*render.Message
	fail map[string]error
	// hook runs before each send
	hook func(msg *render.Message)
}

func (f *fakeMailer) Send(ctx context.Context, msg *render.Message) error {
	if f.hook != nil {
		f.hook(msg)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[msg.To]; err != nil {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.sent {
		out = append(out, m.To)
	}
	return out
}

type memHistory struct {
	mu      sync.Mutex
	records []history.Record
}

func (m *memHistory) Record(_ context.Context, r history.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

type fixture struct {
	worker  *Worker
	mailer  *fakeMailer
	history *memHistory
	list    *blacklist.Store
	logPath string
	log     *logger.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	tmplDir := filepath.Join(dir, "templates")
	require.NoError(t, os.MkdirAll(tmplDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tmplDir, "welcome.html"),
		[]byte("<html><head><title>Welcome [[name]]</title></head><body>Hi [[name]]</body></html>"), 0644))

	list, err := blacklist.Open(filepath.Join(dir, "blacklist.json"), blacklist.MatchExact)
	require.NoError(t, err)

	logPath := filepath.Join(dir, "logs", "email_log.log")
	log, err := logger.Open(logPath, nil, false)
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })

	f := &fixture{
		mailer:  &fakeMailer{fail: map[string]error{}},
		history: &memHistory{},
		list:    list,
		logPath: logPath,
		log:     log,
	}
	f.worker = &Worker{
		Blacklist: list,
		Renderer:  render.New(tmplDir, "(no subject)"),
		Mailer:    f.mailer,
		Log:       log,
		History:   f.history,
		RunID:     "run-1",
		RunLabel:  "list.csv",
		Sender:    "news@example.com",
	}
	return f
}

func (f *fixture) logLines(t *testing.T) []string {
	t.Helper()
	require.NoError(t, f.log.Close())
	data, err := os.ReadFile(f.logPath)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func entry(row int, to, tmpl string) recipients.Entry {
	return recipients.Entry{Row: row, Recipient: to, Template: tmpl, Vars: map[string]string{"name": "N" + to}}
}

func TestRun_SendsInOrderAndRecords(t *testing.T) {
	f := newFixture(t)
	entries := []recipients.Entry{
		entry(2, "a@x.com", "welcome"),
		entry(3, "b@x.com", "welcome"),
	}

	s := f.worker.Run(context.Background(), entries)

	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 2, s.Sent)
	assert.False(t, s.Cancelled)
	assert.Zero(t, s.Remaining())
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, f.mailer.recipients())
	assert.Equal(t, "Welcome Na@x.com", f.mailer.sent[0].Subject)

	require.Len(t, f.history.records, 2)
	r := f.history.records[0]
	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, "list.csv", r.RunLabel)
	assert.Equal(t, "news@example.com", r.Sender)
	assert.Equal(t, history.StatusSent, r.Status)
	assert.Equal(t, "Welcome Na@x.com", r.Subject)
	assert.False(t, r.SentAt.IsZero())
}

func TestRun_BlacklistedNeverReachesMailer(t *testing.T) {
	f := newFixture(t)
	_, err := f.list.Add(blacklist.Unsubscribed, "B@X.com")
	require.NoError(t, err)

	entries := []recipients.Entry{
		entry(2, "a@x.com", "welcome"),
		entry(3, " b@x.com ", "welcome"),
		entry(4, "c@x.com", "welcome"),
	}

	for run := 0; run < 2; run++ {
		s := f.worker.Run(context.Background(), entries)
		assert.Equal(t, 2, s.Sent, "run %d", run)
		assert.Equal(t, 1, s.Skipped, "run %d", run)
	}

	assert.Equal(t, []string{"a@x.com", "c@x.com", "a@x.com", "c@x.com"}, f.mailer.recipients())
	require.Len(t, f.history.records, 6)
	assert.Equal(t, history.StatusSkipped, f.history.records[1].Status)
	assert.Equal(t, history.StatusSkipped, f.history.records[4].Status)

	// skipped entries do not produce a log line
	lines := f.logLines(t)
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Sent welcome to a@x.com")
	assert.Contains(t, lines[1], "Sent welcome to c@x.com")
	for _, l := range lines {
		assert.NotContains(t, l, "b@x.com")
	}
}

func TestRun_OneLogLinePerAttempt(t *testing.T) {
	f := newFixture(t)
	f.mailer.fail["b@x.com"] = errors.New("550 mailbox unavailable")

	s := f.worker.Run(context.Background(), []recipients.Entry{
		entry(2, "a@x.com", "welcome"),
		entry(3, "b@x.com", "welcome"),
		entry(4, "c@x.com", "missing"),
	})

	assert.Equal(t, 1, s.Sent)
	assert.Equal(t, 2, s.Failed)

	lines := f.logLines(t)
	require.Len(t, lines, 3)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} - Sent welcome to a@x.com$`, lines[0])
	assert.Contains(t, lines[1], "Failed to send welcome to b@x.com: 550 mailbox unavailable")
	assert.Contains(t, lines[2], "Failed to send missing to c@x.com:")

	require.Len(t, f.history.records, 3)
	assert.Equal(t, "550 mailbox unavailable", f.history.records[1].Error)
	assert.Equal(t, history.StatusFailed, f.history.records[2].Status)
	assert.NotEmpty(t, f.history.records[2].Error)
}

func TestRun_ObserverSeesEveryEntry(t *testing.T) {
	f := newFixture(t)
	_, err := f.list.Add(blacklist.Nonexistent, "b@x.com")
	require.NoError(t, err)

	var seen []Progress
	f.worker.Observer = ObserverFunc(func(p Progress) { seen = append(seen, p) })

	f.worker.Run(context.Background(), []recipients.Entry{
		entry(2, "a@x.com", "welcome"),
		entry(3, "b@x.com", "welcome"),
	})

	require.Len(t, seen, 2)
	assert.Equal(t, 1, seen[0].Done)
	assert.Equal(t, 2, seen[0].Total)
	assert.Equal(t, StatusSent, seen[0].Last.Status)
	assert.False(t, seen[0].Last.At.IsZero())
	assert.False(t, seen[1].Last.At.IsZero())
	assert.Equal(t, 2, seen[1].Done)
	assert.Equal(t, StatusSkipped, seen[1].Last.Status)
	assert.Equal(t, blacklist.Nonexistent, seen[1].Last.Category)
	assert.Equal(t, 1, seen[1].Skipped)
}

func TestRun_CancelStopsBetweenEntries(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// cancel while the first message is in flight; it still completes
	f.mailer.hook = func(*render.Message) { cancel() }

	s := f.worker.Run(ctx, []recipients.Entry{
		entry(2, "a@x.com", "welcome"),
		entry(3, "b@x.com", "welcome"),
		entry(4, "c@x.com", "welcome"),
	})

	assert.True(t, s.Cancelled)
	assert.Equal(t, 1, s.Sent)
	assert.Equal(t, 2, s.Remaining())
	assert.Equal(t, []string{"a@x.com"}, f.mailer.recipients())
	assert.Len(t, f.history.records, 1)

	// cancellation leaves only the attempted send in the log
	lines := f.logLines(t)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Sent welcome to a@x.com")
}

func TestRun_ResetsCountersBetweenRuns(t *testing.T) {
	f := newFixture(t)
	f.worker.Run(context.Background(), []recipients.Entry{entry(2, "a@x.com", "welcome")})
	s := f.worker.Run(context.Background(), []recipients.Entry{entry(2, "b@x.com", "welcome")})

	assert.Equal(t, 1, s.Sent)
	assert.Equal(t, Progress{Done: 1, Total: 1, Sent: 1}, f.worker.Progress())
}
