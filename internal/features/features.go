package features

import (
	"math"
	"strconv"
	"strings"

	"github.com/cdtdelta/suricata24h/internal/model"
	"github.com/cdtdelta/suricata24h/internal/timeparse"
)

// Stats records how many non-null values were turned into nulls because
// they did not parse, keyed by column name.
type Stats struct {
	Coerced map[string]int
}

// ParseNumber reads a decimal or floating point value.
// NaN and infinities are rejected so ratios stay finite.
func ParseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Derive adds duration_s, bpp_srv and bpp_cli, coerces counters and ports to
// numbers, and creates null placeholders for the expected columns the export
// does not carry. Values that fail to parse become null.
func Derive(t *model.Table) Stats {
	stats := Stats{Coerced: make(map[string]int)}

	deriveDuration(t)

	for _, name := range model.ByteCounterFields {
		t.Ensure(name, model.KindNumber)
		if n := CoerceNumeric(t, name); n > 0 {
			stats.Coerced[name] = n
		}
	}
	t.Set(Ratio(t, model.BppServer, model.BytesToServer, model.PktsToServer))
	t.Set(Ratio(t, model.BppClient, model.BytesToClient, model.PktsToClient))

	for _, name := range model.PortFields {
		if !t.Has(name) {
			continue
		}
		if n := CoerceNumeric(t, name); n > 0 {
			stats.Coerced[name] = n
		}
	}
	if !t.Has(model.DestPort) {
		if alias, ok := t.Column(model.DestPortAlias); ok {
			port := alias.Take(allRows(t.Rows()))
			port.Name = model.DestPort
			t.Set(port)
		}
	}

	for _, name := range model.TextFields {
		t.Ensure(name, model.KindText)
	}

	return stats
}

// deriveDuration sets duration_s to flow.end - flow.start in seconds.
// Negative durations are kept. Without both columns it is all null.
func deriveDuration(t *model.Table) {
	start, okStart := t.Column(model.FlowStart)
	end, okEnd := t.Column(model.FlowEnd)
	if !okStart || !okEnd {
		t.Set(model.PlaceholderColumn(model.Duration, model.KindNumber, t.Rows()))
		return
	}

	start, _ = timeparse.ParseColumn(start)
	end, _ = timeparse.ParseColumn(end)

	dur := model.NewNumberColumn(model.Duration, t.Rows())
	for i := 0; i < t.Rows(); i++ {
		s, ok1 := start.TimeAt(i)
		e, ok2 := end.TimeAt(i)
		if ok1 && ok2 {
			dur.SetNumber(i, e.Sub(s).Seconds())
		}
	}
	t.Set(dur)
}

// CoerceNumeric converts the named column to a number column in place and
// returns how many non-null values failed to parse.
func CoerceNumeric(t *model.Table, name string) int {
	c, ok := t.Column(name)
	if !ok || c.Kind == model.KindNumber {
		return 0
	}

	out := model.NewNumberColumn(name, c.Len())
	out.Placeholder = c.Placeholder
	failed := 0
	for i := 0; i < c.Len(); i++ {
		s, ok := c.TextAt(i)
		if !ok {
			continue
		}
		if v, ok := ParseNumber(s); ok {
			out.SetNumber(i, v)
		} else {
			failed++
		}
	}
	t.Set(out)
	return failed
}

// Ratio returns num/den as a new column. A null operand or a zero
// denominator gives null, never an infinity.
func Ratio(t *model.Table, name, num, den string) *model.Column {
	out := model.NewNumberColumn(name, t.Rows())
	n, okN := t.Column(num)
	d, okD := t.Column(den)
	if !okN || !okD {
		return out
	}
	for i := 0; i < t.Rows(); i++ {
		a, ok1 := n.NumberAt(i)
		b, ok2 := d.NumberAt(i)
		if !ok1 || !ok2 || b == 0 {
			continue
		}
		out.SetNumber(i, a/b)
	}
	return out
}

func allRows(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
