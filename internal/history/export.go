package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gosimple/slug"
)

// ExportHeader is the column layout of exported history files.
var ExportHeader = []string{"from_mail", "recipient", "subject", "template", "status", "error", "date"}

func ExportCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Sender,
			r.Recipient,
			r.Subject,
			r.Template,
			r.Status,
			r.Error,
			r.SentAt.Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFileName derives a file name from a run label, eg.
// "March Customers" -> "sent-march-customers.csv".
func ExportFileName(label string) string {
	name := slug.Make(label)
	if name == "" {
		name = "all"
	}
	return "sent-" + name + ".csv"
}

// ExportToDir writes records to dir/ExportFileName(label) and returns the
// path written.
func ExportToDir(dir, label string, records []Record) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, ExportFileName(label))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := ExportCSV(f, records); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, f.Close()
}
