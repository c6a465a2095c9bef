// Package aggregate computes the summary tables of the report.
// Every function is a pure read of the enriched table. When the inputs an
// aggregate needs are missing it returns an error wrapping ErrNotComputable,
// which callers treat as a skip rather than a failure.
package aggregate

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cdtdelta/suricata24h/internal/model"
)

// ErrNotComputable marks an aggregate whose inputs are absent.
var ErrNotComputable = errors.New("aggregate not computable")

// DefaultLimit caps the top source IP and AS org tables.
const DefaultLimit = 200

// Output column names.
const (
	FirstSeen  = "first_seen"
	LastSeen   = "last_seen"
	BytesToSrv = "bytes_to_srv"
	BytesToCli = "bytes_to_cli"
)

// Count is one group of a count-by.
type Count struct {
	Key    string
	Null   bool
	Events int
	rows   []int
}

func notComputable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotComputable, fmt.Sprintf(format, args...))
}

// countBy groups the given rows of c by value. Null rows form their own
// group when keepNull is set and are dropped otherwise. Groups are ordered
// by descending count, then key ascending, with the null group last.
func countBy(c *model.Column, rows []int, keepNull bool) []Count {
	index := make(map[string]int)
	nullIdx := -1
	var out []Count

	for _, i := range rows {
		key, ok := c.TextAt(i)
		if !ok {
			if !keepNull {
				continue
			}
			if nullIdx < 0 {
				nullIdx = len(out)
				out = append(out, Count{Null: true})
			}
			out[nullIdx].Events++
			out[nullIdx].rows = append(out[nullIdx].rows, i)
			continue
		}
		j, seen := index[key]
		if !seen {
			j = len(out)
			index[key] = j
			out = append(out, Count{Key: key})
		}
		out[j].Events++
		out[j].rows = append(out[j].rows, i)
	}

	sort.Slice(out, func(a, b int) bool {
		x, y := out[a], out[b]
		if x.Events != y.Events {
			return x.Events > y.Events
		}
		if x.Null != y.Null {
			return y.Null
		}
		return x.Key < y.Key
	})
	return out
}

func allRows(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func head(counts []Count, limit int) []Count {
	if limit > 0 && len(counts) > limit {
		return counts[:limit]
	}
	return counts
}

// countsTable renders groups as a two column table: the key and "events".
func countsTable(name string, counts []Count) *model.Table {
	out := model.NewTable(len(counts))
	keys := model.NewTextColumn(name, len(counts))
	events := model.NewNumberColumn(model.Events, len(counts))
	for i, c := range counts {
		if !c.Null {
			keys.SetText(i, c.Key)
		}
		events.SetNumber(i, float64(c.Events))
	}
	out.Set(keys)
	out.Set(events)
	return out
}

// TopValues returns the n most frequent non-null values of a column.
// A missing or synthesized column yields no values.
func TopValues(t *model.Table, column string, n int) []Count {
	if !t.HasSource(column) {
		return nil
	}
	c, _ := t.Column(column)
	return head(countBy(c, allRows(t.Rows()), false), n)
}

// TopSourceIPs groups rows by src_ip, null included, and reports the event
// count, the first and last UTC instant, and the summed byte counters.
func TopSourceIPs(t *model.Table, limit int) (*model.Table, error) {
	src, ok := t.Column(model.SrcIP)
	if !ok {
		return nil, notComputable("%s column missing", model.SrcIP)
	}
	counts := head(countBy(src, allRows(t.Rows()), true), limit)

	out := countsTable(model.SrcIP, counts)
	first := model.NewTimeColumn(FirstSeen, len(counts))
	last := model.NewTimeColumn(LastSeen, len(counts))
	toSrv := model.NewNumberColumn(BytesToSrv, len(counts))
	toCli := model.NewNumberColumn(BytesToCli, len(counts))

	ts, hasTS := t.Column(model.TimestampUTC)
	srvBytes, _ := t.Column(model.BytesToServer)
	cliBytes, _ := t.Column(model.BytesToClient)

	for g, c := range counts {
		if hasTS {
			var lo, hi time.Time
			found := false
			for _, i := range c.rows {
				v, ok := ts.TimeAt(i)
				if !ok {
					continue
				}
				if !found || v.Before(lo) {
					lo = v
				}
				if !found || v.After(hi) {
					hi = v
				}
				found = true
			}
			if found {
				first.SetTime(g, lo)
				last.SetTime(g, hi)
			}
		}
		toSrv.SetNumber(g, sum(srvBytes, c.rows))
		toCli.SetNumber(g, sum(cliBytes, c.rows))
	}

	out.Set(first)
	out.Set(last)
	out.Set(toSrv)
	out.Set(toCli)
	return out, nil
}

// sum adds the non-null values of c at rows. A nil column sums to zero.
func sum(c *model.Column, rows []int) float64 {
	if c == nil {
		return 0
	}
	total := 0.0
	for _, i := range rows {
		if v, ok := c.NumberAt(i); ok {
			total += v
		}
	}
	return total
}

// TopASOrgs counts rows per non-null geoip.as_org.
func TopASOrgs(t *model.Table, limit int) (*model.Table, error) {
	if !t.HasSource(model.ASOrg) {
		return nil, notComputable("%s column missing", model.ASOrg)
	}
	return countsTable(model.ASOrg, TopValues(t, model.ASOrg, limit)), nil
}

// HourlyCounts buckets rows by the hour of their display timestamp.
// Hours between two occupied buckets with no events are reported as 0.
func HourlyCounts(t *model.Table) (*model.Table, error) {
	ts, ok := t.Column(model.TimestampDisplay)
	if !ok {
		return nil, notComputable("%s column missing", model.TimestampDisplay)
	}

	buckets := make(map[int64]int)
	starts := make(map[int64]time.Time)
	for i := 0; i < ts.Len(); i++ {
		v, ok := ts.TimeAt(i)
		if !ok {
			continue
		}
		h := FloorHour(v)
		buckets[h.Unix()]++
		starts[h.Unix()] = h
	}
	if len(buckets) == 0 {
		return nil, notComputable("no valid timestamps")
	}

	keys := make([]int64, 0, len(starts))
	for k := range starts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool { return keys[a] < keys[b] })

	var hours []time.Time
	for i, k := range keys {
		h := starts[k]
		if i > 0 {
			for gap := nextHour(hours[len(hours)-1]); gap.Before(h); gap = nextHour(gap) {
				hours = append(hours, gap)
			}
		}
		hours = append(hours, h)
	}

	out := model.NewTable(len(hours))
	col := model.NewTimeColumn(model.TimestampDisplay, len(hours))
	events := model.NewNumberColumn(model.Events, len(hours))
	for i, h := range hours {
		col.SetTime(i, h)
		events.SetNumber(i, float64(buckets[h.Unix()]))
	}
	out.Set(col)
	out.Set(events)
	return out, nil
}

// nextHour returns the start of the wall-clock hour after h. Offset changes
// that are not whole hours can move the floor behind h; the plain next
// instant an hour later is used then.
func nextHour(h time.Time) time.Time {
	n := FloorHour(h.Add(time.Hour))
	if !n.After(h) {
		n = h.Add(time.Hour)
	}
	return n
}

// FloorHour truncates an instant to the start of its hour in its own zone.
// The offset in effect at v is used, so repeated wall-clock hours around a
// DST change stay distinct.
func FloorHour(v time.Time) time.Time {
	_, offset := v.Zone()
	local := v.Unix() + int64(offset)
	local -= ((local % 3600) + 3600) % 3600
	return time.Unix(local-int64(offset), 0).In(v.Location())
}

// AlertCategories counts alert rows per alert.category, null included.
func AlertCategories(t *model.Table) (*model.Table, error) {
	return alertCounts(t, model.AlertCategory)
}

// AlertSeverities counts alert rows per alert.severity, null included.
func AlertSeverities(t *model.Table) (*model.Table, error) {
	return alertCounts(t, model.AlertSeverity)
}

func alertCounts(t *model.Table, column string) (*model.Table, error) {
	rows := alertRows(t)
	if len(rows) == 0 {
		return nil, notComputable("no alert events")
	}
	c, ok := t.Column(column)
	if !ok {
		return nil, notComputable("%s column missing", column)
	}
	return countsTable(column, countBy(c, rows, true)), nil
}

func alertRows(t *model.Table) []int {
	et, ok := t.Column(model.EventType)
	if !ok {
		return nil
	}
	var rows []int
	for i := 0; i < et.Len(); i++ {
		if v, ok := et.TextAt(i); ok && v == model.EventTypeAlert {
			rows = append(rows, i)
		}
	}
	return rows
}

// MinimalFeatures projects the table onto the fixed feature list,
// keeping only the columns that exist.
func MinimalFeatures(t *model.Table) *model.Table {
	return t.Select(model.MinimalFields)
}
