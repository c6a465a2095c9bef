package csvparser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/cdtdelta/suricata24h/internal/model"
)

// nullTokens are the raw cell values treated as missing.
var nullTokens = map[string]bool{
	"":     true,
	"-":    true,
	"None": true,
}

// ReadResult contains the outcome of a delimited file import.
type ReadResult struct {
	Table *model.Table
	Count int
	// Padded counts rows that had fewer fields than the header.
	Padded int
}

// Options controls how a delimited file is read.
type Options struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
}

// ReadTable reads a delimited file into a table of text columns.
// No type inference is done: every cell is either null or trimmed text.
// An onProgress callback is called every 10,000 rows if non-nil.
func ReadTable(path string, opts Options, onProgress func(count int)) (*ReadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return readTable(f, opts, onProgress)
}

func readTable(r io.Reader, opts Options, onProgress func(count int)) (*ReadResult, error) {
	reader := csv.NewReader(newNullStripper(r))
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // allow variable field counts

	header, err := reader.Read()
	if err == io.EOF {
		return &ReadResult{Table: model.NewTable(0)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	header = normalizeHeader(header)

	var rows [][]string
	result := &ReadResult{}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", result.Count+1, err)
		}
		if len(row) < len(header) {
			result.Padded++
		}
		rows = append(rows, row)
		result.Count++

		if onProgress != nil && result.Count%10000 == 0 {
			onProgress(result.Count)
		}
	}

	result.Table = buildTable(header, rows)
	return result, nil
}

// buildTable lays row-major records out as text columns.
func buildTable(header []string, rows [][]string) *model.Table {
	t := model.NewTable(len(rows))
	for ci, name := range header {
		col := model.NewTextColumn(name, len(rows))
		for ri, row := range rows {
			if v, ok := CleanValue(safeIndex(row, ci)); ok {
				col.SetText(ri, v)
			}
		}
		t.Set(col)
	}
	return t
}

// CleanValue applies the missing-value and trimming rules to one raw cell.
// It returns false when the cell is null.
func CleanValue(raw string) (string, bool) {
	if nullTokens[raw] {
		return "", false
	}
	v := strings.TrimSpace(raw)
	v = trimQuotes(v)
	return v, true
}

// trimQuotes removes one layer of enclosing double quotes.
func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// normalizeHeader NFC-normalizes header names, drops a byte-order mark on the
// first one and disambiguates duplicates with a numeric suffix.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int)
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = norm.NFC.String(h)
		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			h = fmt.Sprintf("%s.%d", h, n+1)
		} else {
			seen[h] = 0
		}
		out[i] = h
	}
	return out
}

// WriteTable writes a table as CSV with a header row and no index column.
// Parent directories are created as needed.
func WriteTable(path string, t *model.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if err := writeTable(f, t); err != nil {
		return err
	}
	return f.Close()
}

func writeTable(w io.Writer, t *model.Table) error {
	writer := csv.NewWriter(w)

	names := t.Names()
	if err := writer.Write(names); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	cols := make([]*model.Column, len(names))
	for i, name := range names {
		cols[i], _ = t.Column(name)
	}

	record := make([]string, len(cols))
	for r := 0; r < t.Rows(); r++ {
		for i, c := range cols {
			record[i] = c.Format(r)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", r+1, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// safeIndex returns the value at index i, or empty string if out of bounds.
func safeIndex(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// nullStripper wraps a reader and strips null bytes from the stream.
// Exports cut off mid-write often carry them and encoding/csv rejects them.
type nullStripper struct {
	r io.Reader
}

func newNullStripper(r io.Reader) io.Reader {
	return &nullStripper{r: r}
}

func (ns *nullStripper) Read(p []byte) (int, error) {
	n, err := ns.r.Read(p)
	if n > 0 {
		cleaned := strings.ReplaceAll(string(p[:n]), "\x00", "")
		copy(p, cleaned)
		n = len(cleaned)
	}
	return n, err
}
