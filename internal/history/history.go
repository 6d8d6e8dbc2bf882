// Package history records every send outcome in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Record is one row of the sends table.
type Record struct {
	ID        int64
	RunID     string
	RunLabel  string
	Sender    string
	Recipient string
	Template  string
	Subject   string
	Status    string
	Error     string
	SentAt    time.Time
}

// Run summarizes one send run.
type Run struct {
	ID        string
	Label     string
	StartedAt time.Time
	Sent      int
	Failed    int
	Skipped   int
}

type Filter struct {
	RunID  string
	Status string
	Limit  int
}

type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS sends (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	run_label TEXT NOT NULL DEFAULT '',
	sender TEXT NOT NULL DEFAULT '',
	recipient TEXT NOT NULL,
	template TEXT NOT NULL,
	subject TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	sent_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sends_run_id ON sends(run_id);
CREATE INDEX IF NOT EXISTS idx_sends_recipient ON sends(recipient);
`

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping history: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Record(ctx context.Context, r Record) error {
	if r.SentAt.IsZero() {
		r.SentAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sends (run_id, run_label, sender, recipient, template, subject, status, error, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.RunLabel, r.Sender, r.Recipient, r.Template, r.Subject, r.Status, r.Error, r.SentAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record send to %s: %w", r.Recipient, err)
	}
	return nil
}

// List returns records oldest first, restricted by f.
func (s *Store) List(ctx context.Context, f Filter) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	if f.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, f.RunID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}

	query := `SELECT id, run_id, run_label, sender, recipient, template, subject, status, error, sent_at FROM sends`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if f.Limit > 0 {
		query += " ORDER BY id DESC LIMIT ?"
		args = append(args, f.Limit)
	} else {
		query += " ORDER BY id"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.RunID, &r.RunLabel, &r.Sender, &r.Recipient, &r.Template, &r.Subject, &r.Status, &r.Error, &r.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		r.SentAt = r.SentAt.Local()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if f.Limit > 0 {
		// newest rows were fetched first
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

// Runs returns one summary per run, most recent first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, MAX(run_label), MIN(id), MIN(sent_at),
			SUM(CASE WHEN status = 'sent' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'skipped' THEN 1 ELSE 0 END)
		FROM sends
		GROUP BY run_id
		ORDER BY MIN(id) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r       Run
			firstID int64
			started string
		)
		if err := rows.Scan(&r.ID, &r.Label, &firstID, &started, &r.Sent, &r.Failed, &r.Skipped); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTime(started)
		out = append(out, r)
	}
	return out, rows.Err()
}

// parseTime reads the aggregate timestamp, which go-sqlite3 hands back as
// text because MIN() drops the column's declared type.
func parseTime(s string) time.Time {
	layouts := []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.Local()
		}
	}
	return time.Time{}
}
