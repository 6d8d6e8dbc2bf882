// Package recipients turns a CSV or spreadsheet file into queue entries.
package recipients

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	ColumnRecipient = "recipient"
	ColumnTemplate  = "template"
)

var (
	ErrMissingColumn     = errors.New("missing required column")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyFile         = errors.New("file has no header row")
)

// Entry is one pending e-mail. Vars holds every column other than recipient
// and template, keyed by header.
type Entry struct {
	Row       int               `json:"row"`
	Recipient string            `json:"recipient"`
	Template  string            `json:"template"`
	Vars      map[string]string `json:"vars,omitempty"`
}

type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("file must contain %q and %q columns, missing %s",
		ColumnTemplate, ColumnRecipient, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnError) Unwrap() error {
	return ErrMissingColumn
}

// RowError points at a data row (1-based, header excluded) that cannot be
// queued.
type RowError struct {
	Row    int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// Load reads path as CSV or XLSX depending on its extension.
func Load(path string) ([]Entry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx", ".xlsm":
		return loadSpreadsheet(path)
	default:
		return nil, fmt.Errorf("%w: %s (use .csv or .xlsx)", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadCSV parses comma separated records with a header row.
func ReadCSV(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return FromRows(rows)
}

func loadSpreadsheet(path string) ([]Entry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyFile
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return FromRows(rows)
}

// FromRows converts a header row plus data rows into entries. Blank rows are
// skipped; a row without recipient or template fails the whole import.
func FromRows(rows [][]string) ([]Entry, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	header := make([]string, len(rows[0]))
	index := make(map[string]int, len(header))
	for i, h := range rows[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		header[i] = h
		if _, dup := index[h]; !dup && h != "" {
			index[h] = i
		}
	}

	var missing []string
	for _, col := range []string{ColumnTemplate, ColumnRecipient} {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnError{Columns: missing}
	}

	entries := make([]Entry, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rowNum := n + 1
		cell := func(i int) string {
			if i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		e := Entry{
			Row:       rowNum,
			Recipient: cell(index[ColumnRecipient]),
			Template:  cell(index[ColumnTemplate]),
			Vars:      make(map[string]string, len(header)),
		}
		if e.Recipient == "" {
			return nil, &RowError{Row: rowNum, Reason: "empty recipient"}
		}
		if e.Template == "" {
			return nil, &RowError{Row: rowNum, Reason: "empty template"}
		}
		for name, i := range index {
			if name == ColumnRecipient || name == ColumnTemplate {
				continue
			}
			e.Vars[name] = cell(i)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
