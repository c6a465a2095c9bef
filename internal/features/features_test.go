package features

import (
	"math"
	"testing"

	"github.com/cdtdelta/suricata24h/internal/model"
)

func textColumn(name string, values ...string) *model.Column {
	c := model.NewTextColumn(name, len(values))
	for i, v := range values {
		if v != "" {
			c.SetText(i, v)
		}
	}
	return c
}

func TestParseNumber(t *testing.T) {
	if v, ok := ParseNumber(" 1000 "); !ok || v != 1000 {
		t.Errorf("expected 1000, got %v %v", v, ok)
	}
	if v, ok := ParseNumber("1e3"); !ok || v != 1000 {
		t.Errorf("expected 1000, got %v %v", v, ok)
	}
	for _, s := range []string{"", "abc", "NaN", "Inf", "-inf", "12abc"} {
		if _, ok := ParseNumber(s); ok {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestDeriveBytesPerPacket(t *testing.T) {
	tbl := model.NewTable(3)
	tbl.Set(textColumn(model.BytesToServer, "1000", "1000", "300"))
	tbl.Set(textColumn(model.PktsToServer, "0", "4", ""))
	tbl.Set(textColumn(model.BytesToClient, "10", "x", "9"))
	tbl.Set(textColumn(model.PktsToClient, "3", "1", "2"))

	stats := Derive(tbl)

	srv, _ := tbl.Column(model.BppServer)
	if !srv.IsNull(0) {
		t.Errorf("expected zero packets to give null, got %v", srv.Num[0])
	}
	if v, _ := srv.NumberAt(1); v != 250 {
		t.Errorf("expected 250, got %v", v)
	}
	if !srv.IsNull(2) {
		t.Error("expected null packets to give null")
	}

	cli, _ := tbl.Column(model.BppClient)
	if v, _ := cli.NumberAt(0); v != 10.0/3.0 {
		t.Errorf("expected exact 10/3, got %v", v)
	}
	if !cli.IsNull(1) {
		t.Error("expected unparseable bytes to give null")
	}
	for i := 0; i < 3; i++ {
		if v, ok := cli.NumberAt(i); ok && (math.IsInf(v, 0) || math.IsNaN(v)) {
			t.Errorf("row %d: expected finite ratio, got %v", i, v)
		}
	}

	if stats.Coerced[model.BytesToClient] != 1 {
		t.Errorf("expected 1 coerced value in %s, got %d", model.BytesToClient, stats.Coerced[model.BytesToClient])
	}
}

func TestDeriveDuration(t *testing.T) {
	tbl := model.NewTable(3)
	tbl.Set(textColumn(model.FlowStart, "2025-01-01T00:00:00Z", "2025-01-01T00:01:00Z", ""))
	tbl.Set(textColumn(model.FlowEnd, "2025-01-01T00:00:01.5Z", "2025-01-01T00:00:00Z", "2025-01-01T00:00:00Z"))

	Derive(tbl)

	dur, ok := tbl.Column(model.Duration)
	if !ok {
		t.Fatal("expected duration_s column")
	}
	if v, _ := dur.NumberAt(0); v != 1.5 {
		t.Errorf("expected 1.5, got %v", v)
	}
	if v, _ := dur.NumberAt(1); v != -60 {
		t.Errorf("expected negative duration -60, got %v", v)
	}
	if !dur.IsNull(2) {
		t.Error("expected null when start is missing")
	}
}

func TestDeriveDurationWithoutColumns(t *testing.T) {
	tbl := model.NewTable(2)
	tbl.Set(textColumn(model.FlowStart, "2025-01-01T00:00:00Z", ""))

	Derive(tbl)

	dur, ok := tbl.Column(model.Duration)
	if !ok {
		t.Fatal("expected duration_s column")
	}
	if dur.NonNull() != 0 {
		t.Errorf("expected all-null duration, got %d values", dur.NonNull())
	}
	if !dur.Placeholder {
		t.Error("expected duration to be flagged as placeholder")
	}
}

func TestDeriveEnsuresColumns(t *testing.T) {
	tbl := model.NewTable(1)
	tbl.Set(textColumn("src_ip", "10.0.0.1"))

	Derive(tbl)

	for _, name := range append(append([]string{}, model.ByteCounterFields...), model.TextFields...) {
		c, ok := tbl.Column(name)
		if !ok {
			t.Errorf("expected %s to be created", name)
			continue
		}
		if !c.Placeholder {
			t.Errorf("expected %s to be a placeholder", name)
		}
	}
	if tbl.HasSource(model.ASOrg) {
		t.Error("expected synthesized geoip.as_org not to count as source")
	}
	c, _ := tbl.Column(model.BytesToServer)
	if c.Kind != model.KindNumber {
		t.Errorf("expected byte counter placeholder to be numeric, got %s", c.Kind)
	}
}

func TestDerivePorts(t *testing.T) {
	tbl := model.NewTable(2)
	tbl.Set(textColumn(model.SrcPort, "51515", "http"))
	tbl.Set(textColumn(model.DestPortAlias, "22", ""))

	stats := Derive(tbl)

	src, _ := tbl.Column(model.SrcPort)
	if v, ok := src.NumberAt(0); !ok || v != 51515 {
		t.Errorf("expected 51515, got %v", v)
	}
	if !src.IsNull(1) {
		t.Error("expected non-numeric port to be null")
	}
	if stats.Coerced[model.SrcPort] != 1 {
		t.Errorf("expected 1 coerced src_port, got %d", stats.Coerced[model.SrcPort])
	}

	dst, ok := tbl.Column(model.DestPort)
	if !ok {
		t.Fatal("expected dest_port to be populated from the alias")
	}
	if v, _ := dst.NumberAt(0); v != 22 {
		t.Errorf("expected 22, got %v", v)
	}
}

func TestDeriveKeepsCanonicalDestPort(t *testing.T) {
	tbl := model.NewTable(1)
	tbl.Set(textColumn(model.DestPort, "443"))
	tbl.Set(textColumn(model.DestPortAlias, "22"))

	Derive(tbl)

	dst, _ := tbl.Column(model.DestPort)
	if v, _ := dst.NumberAt(0); v != 443 {
		t.Errorf("expected canonical dest_port 443 to win, got %v", v)
	}
}
