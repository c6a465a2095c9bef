package jsonlparser

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/cdtdelta/suricata24h/internal/csvparser"
	"github.com/cdtdelta/suricata24h/internal/model"
)

// ReadResult contains the outcome of an eve JSON-lines import.
type ReadResult struct {
	Table    *model.Table
	Count    int
	Excluded int
}

// LooksLikeJSONL reports whether the file's first non-blank byte opens a JSON object.
func LooksLikeJSONL(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return false, nil
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case 0xEF, 0xBB, 0xBF: // byte-order mark
			continue
		default:
			return b == '{', nil
		}
	}
}

// ReadTable reads a Suricata eve.json style file, one JSON object per line.
// Nested objects are flattened to dotted column names (flow.bytes_toserver),
// and every scalar is kept as text so the result matches what the delimited
// loader produces. Lines that are not valid JSON objects are counted as excluded.
// An onProgress callback is called every 10,000 events if non-nil.
func ReadTable(path string, onProgress func(count int)) (*ReadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	// Allow up to 10MB per line (alerts with payloads can be very large)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)

	var (
		records  []map[string]string
		order    []string
		seen     = make(map[string]bool)
		excluded int
		lineNum  int
	)

	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if lineNum == 1 {
			line = bytes.TrimPrefix(line, []byte("\xef\xbb\xbf"))
		}
		if len(line) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var raw map[string]interface{}
		if err := dec.Decode(&raw); err != nil {
			excluded++
			continue
		}

		flat := make(map[string]string)
		flatten("", raw, flat)

		keys := make([]string, 0, len(flat))
		for k := range flat {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				order = append(order, k)
			}
		}

		records = append(records, flat)

		if onProgress != nil && len(records)%10000 == 0 {
			onProgress(len(records))
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading file at line %d: %w", lineNum, err)
	}

	return &ReadResult{
		Table:    buildTable(order, records),
		Count:    len(records),
		Excluded: excluded,
	}, nil
}

// buildTable turns flattened records into text columns in first-seen order.
func buildTable(order []string, records []map[string]string) *model.Table {
	t := model.NewTable(len(records))
	for _, name := range order {
		col := model.NewTextColumn(name, len(records))
		for i, rec := range records {
			raw, present := rec[name]
			if !present {
				continue
			}
			if v, ok := csvparser.CleanValue(raw); ok {
				col.SetText(i, v)
			}
		}
		t.Set(col)
	}
	return t
}

// flatten walks a decoded JSON object and writes dotted keys into out.
// Arrays are kept as their compact JSON text.
func flatten(prefix string, v interface{}, out map[string]string) {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, child := range val {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flatten(key, child, out)
		}
	default:
		if prefix == "" {
			return
		}
		out[prefix] = interfaceToString(val)
	}
}

// interfaceToString converts a decoded JSON scalar to text.
// Nulls become the empty string, which the loader treats as missing.
func interfaceToString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return strings.TrimSpace(string(b))
	}
}
