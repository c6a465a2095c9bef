package jsonlparser

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempJSONL(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing temp JSONL: %v", err)
	}
	return path
}

const sampleEve = `{"timestamp":"2025-08-30T19:06:37.769+0000","event_type":"alert","src_ip":"203.0.113.7","src_port":51515,"dest_port":22,"alert":{"category":"Attempted Administrator Privilege Gain","severity":1},"geoip":{"as_org":"Example Net"}}
{"timestamp":"2025-08-30T19:07:00.000+0000","event_type":"flow","src_ip":"203.0.113.8","flow":{"bytes_toserver":1000,"pkts_toserver":0,"start":"2025-08-30T19:06:00.000+0000"},"tcp":{"syn":true}}

not json
{"timestamp":"2025-08-30T19:08:00.000+0000","event_type":"dns","src_ip":null,"dns":{"answers":["a","b"]}}
`

func TestReadTable(t *testing.T) {
	path := writeTempJSONL(t, "eve.json", sampleEve)

	result, err := ReadTable(path, nil)
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if result.Count != 3 {
		t.Errorf("expected 3 events, got %d", result.Count)
	}
	if result.Excluded != 1 {
		t.Errorf("expected 1 excluded line, got %d", result.Excluded)
	}

	tbl := result.Table

	cat, ok := tbl.Column("alert.category")
	if !ok {
		t.Fatalf("expected flattened alert.category column, got %v", tbl.Names())
	}
	if v, _ := cat.TextAt(0); v != "Attempted Administrator Privilege Gain" {
		t.Errorf("unexpected category: '%s'", v)
	}
	if !cat.IsNull(1) {
		t.Error("expected category to be null for a flow event")
	}

	sev, _ := tbl.Column("alert.severity")
	if v, _ := sev.TextAt(0); v != "1" {
		t.Errorf("expected severity '1', got '%s'", v)
	}

	bytesSrv, _ := tbl.Column("flow.bytes_toserver")
	if v, _ := bytesSrv.TextAt(1); v != "1000" {
		t.Errorf("expected '1000', got '%s'", v)
	}

	syn, _ := tbl.Column("tcp.syn")
	if v, _ := syn.TextAt(1); v != "true" {
		t.Errorf("expected 'true', got '%s'", v)
	}

	ip, _ := tbl.Column("src_ip")
	if !ip.IsNull(2) {
		t.Error("expected JSON null to load as null")
	}

	answers, _ := tbl.Column("dns.answers")
	if v, _ := answers.TextAt(2); v != `["a","b"]` {
		t.Errorf("expected array kept as JSON text, got '%s'", v)
	}
}

func TestReadTableColumnOrderIsStable(t *testing.T) {
	path := writeTempJSONL(t, "eve.json", sampleEve)

	first, err := ReadTable(path, nil)
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	second, err := ReadTable(path, nil)
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}

	a, b := first.Table.Names(), second.Table.Names()
	if len(a) != len(b) {
		t.Fatalf("column counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("column %d differs: %s vs %s", i, a[i], b[i])
		}
	}
	if a[0] != "alert.category" {
		t.Errorf("expected first event's keys sorted first, got %s", a[0])
	}
}

func TestReadTableMissingFile(t *testing.T) {
	if _, err := ReadTable("/nonexistent/eve.json", nil); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLooksLikeJSONL(t *testing.T) {
	jsonPath := writeTempJSONL(t, "a.json", "\n  {\"a\":1}\n")
	csvPath := writeTempJSONL(t, "a.csv", "a,b\n1,2\n")
	emptyPath := writeTempJSONL(t, "empty", "")

	if ok, err := LooksLikeJSONL(jsonPath); err != nil || !ok {
		t.Errorf("expected JSONL detection, got %v %v", ok, err)
	}
	if ok, _ := LooksLikeJSONL(csvPath); ok {
		t.Error("expected CSV not to be detected as JSONL")
	}
	if ok, _ := LooksLikeJSONL(emptyPath); ok {
		t.Error("expected empty file not to be detected as JSONL")
	}
}
