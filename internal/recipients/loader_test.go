package recipients

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_CSV(t *testing.T) {
	path := writeFile(t, "list.csv", "recipient,template,name,code\n"+
		"ann@x.com,welcome,Ann,42\n"+
		"\n"+
		"bob@x.com, promo ,\"Bob, Jr.\",7\n")

	entries, err := Load(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, Entry{
		Row:       1,
		Recipient: "ann@x.com",
		Template:  "welcome",
		Vars:      map[string]string{"name": "Ann", "code": "42"},
	}, entries[0])
	assert.Equal(t, "promo", entries[1].Template)
	assert.Equal(t, "Bob, Jr.", entries[1].Vars["name"])
	assert.Equal(t, 2, entries[1].Row, "encoding/csv drops blank lines")
}

func TestLoad_CSVWithBOMAndShortRows(t *testing.T) {
	path := writeFile(t, "list.csv", "\ufefftemplate,recipient,city\nt1,a@x.com\n")

	entries, err := Load(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, map[string]string{"city": ""}, entries[0].Vars)
}

func TestLoad_MissingColumns(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		missing []string
	}{
		{"no template", "recipient,name", []string{"template"}},
		{"no recipient", "template,name", []string{"recipient"}},
		{"neither", "email,name", []string{"template", "recipient"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "list.csv", tt.header+"\nfoo,bar\n")

			entries, err := Load(path)
			require.ErrorIs(t, err, ErrMissingColumn)
			assert.Nil(t, entries)

			var mc *MissingColumnError
			require.ErrorAs(t, err, &mc)
			assert.Equal(t, tt.missing, mc.Columns)
		})
	}
}

func TestLoad_RowValidation(t *testing.T) {
	path := writeFile(t, "list.csv", "recipient,template\na@x.com,t1\n,t1\n")

	_, err := Load(path)
	var re *RowError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 2, re.Row)
	assert.Contains(t, re.Reason, "recipient")
}

func TestLoad_Unparseable(t *testing.T) {
	path := writeFile(t, "list.csv", "recipient,template\n\"unterminated,t1\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeFile(t, "list.csv", "")
	_, err := Load(path)
	require.ErrorIs(t, err, ErrEmptyFile)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := writeFile(t, "list.xls", "whatever")
	_, err := Load(path)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"recipient", "template", "name"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"ann@x.com", "welcome", "Ann"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"bob@x.com", "welcome", "Bob"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	entries, err := Load(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ann@x.com", entries[0].Recipient)
	assert.Equal(t, "Bob", entries[1].Vars["name"])
}

func TestReadCSV_FromReader(t *testing.T) {
	entries, err := ReadCSV(strings.NewReader("recipient,template\na@x.com,t\n"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Empty(t, entries[0].Vars)
}
