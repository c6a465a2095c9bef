package aggregate

import (
	"errors"
	"testing"
	"time"

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

func numberColumn(name string, values ...float64) *model.Column {
	c := model.NewNumberColumn(name, len(values))
	for i, v := range values {
		c.SetNumber(i, v)
	}
	return c
}

func timeColumn(name string, values ...time.Time) *model.Column {
	c := model.NewTimeColumn(name, len(values))
	for i, v := range values {
		if !v.IsZero() {
			c.SetTime(i, v)
		}
	}
	return c
}

func utc(h, m int) time.Time {
	return time.Date(2025, 1, 1, h, m, 0, 0, time.UTC)
}

func flows() *model.Table {
	t := model.NewTable(5)
	t.Set(textColumn(model.SrcIP, "10.0.0.1", "10.0.0.2", "10.0.0.1", "", "10.0.0.2"))
	t.Set(timeColumn(model.TimestampUTC, utc(0, 50), utc(0, 10), utc(0, 5), utc(1, 0), time.Time{}))
	t.Set(numberColumn(model.BytesToServer, 100, 1, 200, 5, 2))
	bc := numberColumn(model.BytesToClient, 10, 1, 20, 5, 2)
	bc.SetNull(0)
	t.Set(bc)
	return t
}

func number(t *testing.T, tbl *model.Table, col string, row int) float64 {
	t.Helper()
	c, ok := tbl.Column(col)
	if !ok {
		t.Fatalf("expected column %s", col)
	}
	v, ok := c.NumberAt(row)
	if !ok {
		t.Fatalf("expected %s[%d] to be set", col, row)
	}
	return v
}

func TestTopSourceIPs(t *testing.T) {
	out, err := TopSourceIPs(flows(), DefaultLimit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{model.SrcIP, model.Events, FirstSeen, LastSeen, BytesToSrv, BytesToCli}
	got := out.Names()
	if len(got) != len(want) {
		t.Fatalf("expected columns %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected column %d to be %s, got %s", i, want[i], got[i])
		}
	}

	if out.Rows() != 3 {
		t.Fatalf("expected 3 groups, got %d", out.Rows())
	}
	ips, _ := out.Column(model.SrcIP)
	if v, _ := ips.TextAt(0); v != "10.0.0.1" {
		t.Errorf("expected 10.0.0.1 first on tie, got %s", v)
	}
	if v, _ := ips.TextAt(1); v != "10.0.0.2" {
		t.Errorf("expected 10.0.0.2 second, got %s", v)
	}
	if !ips.IsNull(2) {
		t.Error("expected the null group to sort last")
	}

	total := 0.0
	for i := 0; i < out.Rows(); i++ {
		total += number(t, out, model.Events, i)
	}
	if total != 5 {
		t.Errorf("expected events to sum to 5 rows, got %v", total)
	}

	first, _ := out.Column(FirstSeen)
	last, _ := out.Column(LastSeen)
	if v, _ := first.TimeAt(0); !v.Equal(utc(0, 5)) {
		t.Errorf("expected first_seen 00:05, got %v", v)
	}
	if v, _ := last.TimeAt(0); !v.Equal(utc(0, 50)) {
		t.Errorf("expected last_seen 00:50, got %v", v)
	}
	if v, _ := first.TimeAt(1); !v.Equal(utc(0, 10)) {
		t.Errorf("expected null timestamp to be ignored, got %v", v)
	}

	if v := number(t, out, BytesToSrv, 0); v != 300 {
		t.Errorf("expected 300 bytes to server, got %v", v)
	}
	if v := number(t, out, BytesToCli, 0); v != 20 {
		t.Errorf("expected null bytes to count as 0, got %v", v)
	}
}

func TestTopSourceIPsLimit(t *testing.T) {
	out, err := TopSourceIPs(flows(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Rows() != 1 {
		t.Errorf("expected 1 row, got %d", out.Rows())
	}
}

func TestTopSourceIPsWithoutTimestamps(t *testing.T) {
	tbl := model.NewTable(2)
	tbl.Set(textColumn(model.SrcIP, "10.0.0.1", "10.0.0.1"))

	out, err := TopSourceIPs(tbl, DefaultLimit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, _ := out.Column(FirstSeen)
	if !first.IsNull(0) {
		t.Error("expected empty first_seen without timestamps")
	}
	if v := number(t, out, BytesToSrv, 0); v != 0 {
		t.Errorf("expected 0 bytes without counters, got %v", v)
	}
}

func TestTopSourceIPsMissingColumn(t *testing.T) {
	_, err := TopSourceIPs(model.NewTable(1), DefaultLimit)
	if !errors.Is(err, ErrNotComputable) {
		t.Errorf("expected ErrNotComputable, got %v", err)
	}
}

func TestTopASOrgs(t *testing.T) {
	tbl := model.NewTable(5)
	tbl.Set(textColumn(model.ASOrg, "ACME", "", "Example", "ACME", ""))

	out, err := TopASOrgs(tbl, DefaultLimit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Rows() != 2 {
		t.Fatalf("expected 2 orgs, got %d", out.Rows())
	}
	orgs, _ := out.Column(model.ASOrg)
	if v, _ := orgs.TextAt(0); v != "ACME" {
		t.Errorf("expected ACME first, got %s", v)
	}
	total := number(t, out, model.Events, 0) + number(t, out, model.Events, 1)
	if total != 3 {
		t.Errorf("expected events to sum to non-null rows 3, got %v", total)
	}
}

func TestTopASOrgsMissing(t *testing.T) {
	tbl := model.NewTable(1)
	tbl.Ensure(model.ASOrg, model.KindText)

	_, err := TopASOrgs(tbl, DefaultLimit)
	if !errors.Is(err, ErrNotComputable) {
		t.Errorf("expected placeholder as_org to be not computable, got %v", err)
	}
	if TopValues(tbl, model.ASOrg, 15) != nil {
		t.Error("expected no top values for a placeholder column")
	}
}

func TestHourlyCounts(t *testing.T) {
	tbl := model.NewTable(3)
	tbl.Set(timeColumn(model.TimestampDisplay, utc(0, 10), utc(0, 50), utc(1, 5)))

	out, err := HourlyCounts(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Rows() != 2 {
		t.Fatalf("expected 2 hours, got %d", out.Rows())
	}
	hours, _ := out.Column(model.TimestampDisplay)
	if hours.Format(0) != "2025-01-01 00:00:00+00:00" {
		t.Errorf("expected 00:00 bucket, got %s", hours.Format(0))
	}
	if hours.Format(1) != "2025-01-01 01:00:00+00:00" {
		t.Errorf("expected 01:00 bucket, got %s", hours.Format(1))
	}
	if v := number(t, out, model.Events, 0); v != 2 {
		t.Errorf("expected 2 events at 00:00, got %v", v)
	}
	if v := number(t, out, model.Events, 1); v != 1 {
		t.Errorf("expected 1 event at 01:00, got %v", v)
	}
}

func TestHourlyCountsFillsGaps(t *testing.T) {
	tbl := model.NewTable(3)
	tbl.Set(timeColumn(model.TimestampDisplay, utc(3, 59), time.Time{}, utc(0, 0)))

	out, err := HourlyCounts(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Rows() != 4 {
		t.Fatalf("expected 4 hours, got %d", out.Rows())
	}
	for i, want := range []float64{1, 0, 0, 1} {
		if v := number(t, out, model.Events, i); v != want {
			t.Errorf("hour %d: expected %v, got %v", i, want, v)
		}
	}
}

func TestHourlyCountsDisplayZone(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	tbl := model.NewTable(1)
	tbl.Set(timeColumn(model.TimestampDisplay, utc(6, 30).In(chicago)))

	out, err := HourlyCounts(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hours, _ := out.Column(model.TimestampDisplay)
	if hours.Format(0) != "2025-01-01 00:00:00-06:00" {
		t.Errorf("expected local midnight bucket, got %s", hours.Format(0))
	}
}

func TestHourlyCountsHalfHourShift(t *testing.T) {
	lordHowe, err := time.LoadLocation("Australia/Lord_Howe")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	// Lord Howe moves its clocks by 30 minutes; cover both 2025 changes.
	var values []time.Time
	for _, day := range []time.Time{
		time.Date(2025, 4, 5, 6, 0, 0, 0, time.UTC),
		time.Date(2025, 10, 4, 6, 0, 0, 0, time.UTC),
	} {
		for m := 0; m < 24*60; m += 20 {
			values = append(values, day.Add(time.Duration(m)*time.Minute).In(lordHowe))
		}
	}
	tbl := model.NewTable(len(values))
	tbl.Set(timeColumn(model.TimestampDisplay, values...))

	out, err := HourlyCounts(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hours, _ := out.Column(model.TimestampDisplay)
	total := 0.0
	var prev time.Time
	for i := 0; i < out.Rows(); i++ {
		total += number(t, out, model.Events, i)
		h, _ := hours.TimeAt(i)
		if i > 0 && !h.After(prev) {
			t.Errorf("expected increasing hours, got %v after %v", h, prev)
		}
		prev = h
	}
	if int(total) != len(values) {
		t.Errorf("expected %d events across all hours, got %v", len(values), total)
	}
	if out.Rows() > 200*24 {
		t.Errorf("expected a bounded hour list, got %d rows", out.Rows())
	}
}

func TestHourlyCountsNoTimestamps(t *testing.T) {
	tbl := model.NewTable(2)
	tbl.Set(model.NewTimeColumn(model.TimestampDisplay, 2))

	if _, err := HourlyCounts(tbl); !errors.Is(err, ErrNotComputable) {
		t.Errorf("expected ErrNotComputable, got %v", err)
	}
}

func TestFloorHourAcrossFallBack(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	// 2025-11-02 01:xx happens twice in Chicago.
	cdt := time.Date(2025, 11, 2, 6, 30, 0, 0, time.UTC).In(chicago)
	cst := time.Date(2025, 11, 2, 7, 30, 0, 0, time.UTC).In(chicago)

	a, b := FloorHour(cdt), FloorHour(cst)
	if a.Equal(b) {
		t.Errorf("expected distinct buckets, got %v for both", a)
	}
	if a.Hour() != 1 || b.Hour() != 1 || a.Minute() != 0 || b.Minute() != 0 {
		t.Errorf("expected 01:00 twice, got %v and %v", a, b)
	}
}

func TestAlertCounts(t *testing.T) {
	tbl := model.NewTable(4)
	tbl.Set(textColumn(model.EventType, "alert", "flow", "alert", "alert"))
	tbl.Set(textColumn(model.AlertCategory, "Misc", "", "Scan", "Scan"))
	tbl.Set(textColumn(model.AlertSeverity, "2", "", "", "2"))

	cat, err := AlertCategories(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	keys, _ := cat.Column(model.AlertCategory)
	if v, _ := keys.TextAt(0); v != "Scan" {
		t.Errorf("expected Scan first, got %s", v)
	}
	if number(t, cat, model.Events, 0) != 2 {
		t.Errorf("expected 2 Scan alerts")
	}

	sev, err := AlertSeverities(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sev.Rows() != 2 {
		t.Fatalf("expected severity 2 and a null group, got %d rows", sev.Rows())
	}
	sevKeys, _ := sev.Column(model.AlertSeverity)
	if !sevKeys.IsNull(1) {
		t.Error("expected null severity group to be kept")
	}
}

func TestAlertCountsNoAlerts(t *testing.T) {
	tbl := model.NewTable(2)
	tbl.Set(textColumn(model.EventType, "flow", ""))
	tbl.Set(textColumn(model.AlertCategory, "", ""))

	if _, err := AlertCategories(tbl); !errors.Is(err, ErrNotComputable) {
		t.Errorf("expected ErrNotComputable, got %v", err)
	}
	if _, err := AlertSeverities(tbl); !errors.Is(err, ErrNotComputable) {
		t.Errorf("expected ErrNotComputable, got %v", err)
	}
}

func TestMinimalFeatures(t *testing.T) {
	tbl := model.NewTable(1)
	tbl.Set(textColumn("extra", "x"))
	tbl.Set(textColumn(model.SrcIP, "10.0.0.1"))
	tbl.Set(timeColumn(model.TimestampUTC, utc(0, 0)))

	out := MinimalFeatures(tbl)
	names := out.Names()
	if len(names) != 2 || names[0] != model.TimestampUTC || names[1] != model.SrcIP {
		t.Errorf("expected [_ts_utc src_ip], got %v", names)
	}
}
