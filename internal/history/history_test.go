package history

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	records := []Record{
		{RunID: "run-1", RunLabel: "march.csv", Sender: "news@x.com", Recipient: "a@x.com", Template: "t", Subject: "Hi", Status: StatusSent, SentAt: base},
		{RunID: "run-1", RunLabel: "march.csv", Sender: "news@x.com", Recipient: "b@x.com", Template: "t", Status: StatusFailed, Error: "535 auth", SentAt: base.Add(time.Second)},
		{RunID: "run-1", RunLabel: "march.csv", Sender: "news@x.com", Recipient: "c@x.com", Template: "t", Status: StatusSkipped, SentAt: base.Add(2 * time.Second)},
		{RunID: "run-2", RunLabel: "april.csv", Sender: "news@x.com", Recipient: "a@x.com", Template: "u", Subject: "Yo", Status: StatusSent, SentAt: base.Add(time.Hour)},
	}
	for _, r := range records {
		require.NoError(t, s.Record(ctx, r))
	}
}

func TestRecordAndList(t *testing.T) {
	s := openTemp(t)
	seed(t, s)
	ctx := context.Background()

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "a@x.com", all[0].Recipient)
	assert.Equal(t, "Hi", all[0].Subject)
	assert.True(t, all[0].SentAt.Equal(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, "535 auth", all[1].Error)

	run1, err := s.List(ctx, Filter{RunID: "run-1"})
	require.NoError(t, err)
	assert.Len(t, run1, 3)

	failed, err := s.List(ctx, Filter{Status: StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "b@x.com", failed[0].Recipient)

	last2, err := s.List(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, last2, 2)
	assert.Equal(t, "c@x.com", last2[0].Recipient)
	assert.Equal(t, "u", last2[1].Template)
}

func TestRuns(t *testing.T) {
	s := openTemp(t)
	seed(t, s)

	runs, err := s.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "april.csv", runs[0].Label)
	assert.Equal(t, 1, runs[0].Sent)

	assert.Equal(t, "run-1", runs[1].ID)
	assert.Equal(t, 1, runs[1].Sent)
	assert.Equal(t, 1, runs[1].Failed)
	assert.Equal(t, 1, runs[1].Skipped)
	assert.True(t, runs[1].StartedAt.Equal(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)), runs[1].StartedAt)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), Record{RunID: "r", Recipient: "a@x.com", Template: "t", Status: StatusSent}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	all, err := s.List(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].SentAt.IsZero())
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	records := []Record{{
		Sender: "news@x.com", Recipient: "a@x.com", Subject: "Hi, you", Template: "t",
		Status: StatusSent, SentAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local),
	}}
	require.NoError(t, ExportCSV(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ExportHeader, rows[0])
	assert.Equal(t, []string{"news@x.com", "a@x.com", "Hi, you", "t", "sent", "", "2026-03-01 09:00:00"}, rows[1])
}

func TestExportFileName(t *testing.T) {
	assert.Equal(t, "sent-march-customers-csv.csv", ExportFileName("March Customers.csv"))
	assert.Equal(t, "sent-all.csv", ExportFileName(""))
}

func TestExportToDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	path, err := ExportToDir(dir, "march", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sent-march.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from_mail,recipient,subject,template,status,error,date\n", string(data))
}
