// Package timeparse locates the event timestamp column of an export and turns
// its values into UTC instants plus a display-timezone view.
package timeparse

import (
	"net/netip"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/araddon/dateparse"

	"github.com/cdtdelta/suricata24h/internal/model"
)

// probeRows is how many leading values must parse for a column to be
// accepted as the timestamp when no header name matches.
const probeRows = 15

// minYear bounds accepted instants. Partial dates such as "Aug 1" or
// "22/tcp" come back from the fallback parser in year 0.
const minYear = 1970

// zonedLayouts carry an explicit offset; results are converted to UTC.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05 -0700",
	time.RFC1123Z,
}

// naiveLayouts carry no zone and are interpreted as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"Jan 2, 2006 15:04:05",
	"January 2, 2006 15:04:05",
	"Jan 2, 2006",
	"01/02/2006 15:04:05",
	"01/02/2006",
	"2006/01/02 15:04:05",
}

// Result describes what Resolve found.
type Result struct {
	// Column is the source timestamp column, empty when none qualified.
	Column string
	Parsed int
	Failed int
}

// Parse converts one timestamp string to a UTC instant.
// Kibana's "Aug 30, 2025 @ 19:06:37.769" flavor is accepted.
// It returns false when the value cannot be read as an instant.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, " @ ", " "))
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return plausible(t.UTC())
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return plausible(t)
		}
	}

	// Bare numbers and addresses are never instants here, even though the
	// fallback parser would read some of them as years or epochs.
	if !strings.ContainsAny(s, "0123456789") {
		return time.Time{}, false
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Time{}, false
	}
	if _, err := netip.ParseAddr(s); err == nil {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return plausible(t.UTC())
}

func plausible(t time.Time) (time.Time, bool) {
	if t.Year() < minYear {
		return time.Time{}, false
	}
	return t, true
}

// Format renders an instant in the canonical form Parse reads back unchanged.
func Format(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// FindColumn returns the name of the timestamp column.
// Header names are matched first; failing that, the first column whose
// leading values all parse is used.
func FindColumn(t *model.Table) (string, bool) {
	for _, name := range t.Names() {
		if isCandidateName(name) {
			return name, true
		}
	}

	if t.Rows() == 0 {
		return "", false
	}
	for _, name := range t.Names() {
		c, _ := t.Column(name)
		if probe(c) {
			return name, true
		}
	}
	return "", false
}

func isCandidateName(name string) bool {
	n := strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
	n = strings.TrimSpace(strings.Trim(n, `"`))
	n = strings.ToLower(n)
	for _, cand := range model.TimestampCandidates {
		if n == cand {
			return true
		}
	}
	return false
}

func probe(c *model.Column) bool {
	n := c.Len()
	if n > probeRows {
		n = probeRows
	}
	for i := 0; i < n; i++ {
		s, ok := c.TextAt(i)
		if !ok {
			return false
		}
		if _, ok := Parse(s); !ok {
			return false
		}
	}
	return n > 0
}

// ParseColumn converts a column to a time column. Time columns are returned
// unchanged; values that do not parse become null.
func ParseColumn(c *model.Column) (*model.Column, int) {
	if c.Kind == model.KindTime {
		return c, 0
	}
	out := model.NewTimeColumn(c.Name, c.Len())
	failed := 0
	for i := 0; i < c.Len(); i++ {
		s, ok := c.TextAt(i)
		if !ok {
			continue
		}
		if ts, ok := Parse(s); ok {
			out.SetTime(i, ts)
		} else {
			failed++
		}
	}
	return out, failed
}

// Resolve adds the _ts_utc and _ts_ct columns to t, and parses flow.start and
// flow.end in place when they exist. loc is the display timezone; nil means UTC.
// When no timestamp column exists both derived columns are entirely null.
func Resolve(t *model.Table, loc *time.Location) Result {
	if loc == nil {
		loc = time.UTC
	}

	var res Result
	utc := model.NewTimeColumn(model.TimestampUTC, t.Rows())

	if name, ok := FindColumn(t); ok {
		src, _ := t.Column(name)
		parsed, failed := ParseColumn(src)
		utc.Valid, utc.Time = parsed.Valid, parsed.Time
		res.Column = name
		res.Failed = failed
		res.Parsed = utc.NonNull()
	}

	display := model.NewTimeColumn(model.TimestampDisplay, t.Rows())
	for i := 0; i < utc.Len(); i++ {
		if ts, ok := utc.TimeAt(i); ok {
			display.SetTime(i, ts.In(loc))
		}
	}

	t.Set(utc)
	t.Set(display)

	for _, name := range []string{model.FlowStart, model.FlowEnd} {
		if c, ok := t.Column(name); ok {
			parsed, _ := ParseColumn(c)
			t.Set(parsed)
		}
	}

	return res
}

// LoadLocation loads an IANA zone by name. Callers fall back to UTC on error.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}
