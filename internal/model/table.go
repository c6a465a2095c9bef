package model

import (
	"fmt"
	"strconv"
	"time"
)

// TimeLayout is the layout used when instants are written to output files.
// The zone offset is always rendered, including "+00:00" for UTC.
const TimeLayout = "2006-01-02 15:04:05.999999-07:00"

// Kind identifies the value type carried by a Column.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column is a typed, nullable series of values.
// Only the slice that matches Kind is populated; Valid[i] is false for nulls.
type Column struct {
	Name string
	Kind Kind

	// Placeholder is set on columns that were synthesized because the
	// source export did not carry them. They are always entirely null.
	Placeholder bool

	Valid []bool
	Text  []string
	Num   []float64
	Time  []time.Time
}

// NewTextColumn returns an all-null text column with n rows.
func NewTextColumn(name string, n int) *Column {
	return &Column{Name: name, Kind: KindText, Valid: make([]bool, n), Text: make([]string, n)}
}

// NewNumberColumn returns an all-null numeric column with n rows.
func NewNumberColumn(name string, n int) *Column {
	return &Column{Name: name, Kind: KindNumber, Valid: make([]bool, n), Num: make([]float64, n)}
}

// NewTimeColumn returns an all-null time column with n rows.
func NewTimeColumn(name string, n int) *Column {
	return &Column{Name: name, Kind: KindTime, Valid: make([]bool, n), Time: make([]time.Time, n)}
}

// NewColumn returns an all-null column of the given kind.
func NewColumn(name string, kind Kind, n int) *Column {
	switch kind {
	case KindNumber:
		return NewNumberColumn(name, n)
	case KindTime:
		return NewTimeColumn(name, n)
	default:
		return NewTextColumn(name, n)
	}
}

// PlaceholderColumn returns an all-null column flagged as synthesized.
func PlaceholderColumn(name string, kind Kind, n int) *Column {
	c := NewColumn(name, kind, n)
	c.Placeholder = true
	return c
}

// Len returns the number of rows in the column.
func (c *Column) Len() int { return len(c.Valid) }

// IsNull reports whether row i holds no value.
func (c *Column) IsNull(i int) bool { return !c.Valid[i] }

// SetText stores a text value. The column must be KindText.
func (c *Column) SetText(i int, s string) {
	c.Text[i] = s
	c.Valid[i] = true
}

// SetNumber stores a numeric value. The column must be KindNumber.
func (c *Column) SetNumber(i int, v float64) {
	c.Num[i] = v
	c.Valid[i] = true
}

// SetTime stores an instant. The column must be KindTime.
func (c *Column) SetTime(i int, t time.Time) {
	c.Time[i] = t
	c.Valid[i] = true
}

// SetNull clears row i.
func (c *Column) SetNull(i int) {
	c.Valid[i] = false
	switch c.Kind {
	case KindText:
		c.Text[i] = ""
	case KindNumber:
		c.Num[i] = 0
	case KindTime:
		c.Time[i] = time.Time{}
	}
}

// TextAt returns the text value of row i. For non-text columns the
// formatted value is returned, so callers can group on any column.
func (c *Column) TextAt(i int) (string, bool) {
	if !c.Valid[i] {
		return "", false
	}
	if c.Kind == KindText {
		return c.Text[i], true
	}
	return c.Format(i), true
}

// NumberAt returns the numeric value of row i.
func (c *Column) NumberAt(i int) (float64, bool) {
	if c.Kind != KindNumber || !c.Valid[i] {
		return 0, false
	}
	return c.Num[i], true
}

// TimeAt returns the instant stored in row i.
func (c *Column) TimeAt(i int) (time.Time, bool) {
	if c.Kind != KindTime || !c.Valid[i] {
		return time.Time{}, false
	}
	return c.Time[i], true
}

// Format renders row i for output. Nulls render as the empty string.
func (c *Column) Format(i int) string {
	if !c.Valid[i] {
		return ""
	}
	switch c.Kind {
	case KindNumber:
		return strconv.FormatFloat(c.Num[i], 'f', -1, 64)
	case KindTime:
		return c.Time[i].Format(TimeLayout)
	default:
		return c.Text[i]
	}
}

// NonNull returns the number of rows holding a value.
func (c *Column) NonNull() int {
	n := 0
	for _, ok := range c.Valid {
		if ok {
			n++
		}
	}
	return n
}

// Take returns a new column holding the rows at the given indexes, in order.
func (c *Column) Take(idx []int) *Column {
	out := NewColumn(c.Name, c.Kind, len(idx))
	out.Placeholder = c.Placeholder
	for j, i := range idx {
		if !c.Valid[i] {
			continue
		}
		switch c.Kind {
		case KindText:
			out.SetText(j, c.Text[i])
		case KindNumber:
			out.SetNumber(j, c.Num[i])
		case KindTime:
			out.SetTime(j, c.Time[i])
		}
	}
	return out
}

// Table is an ordered set of equally sized columns keyed by name.
// The schema is explicit: a column either exists in the map or it does not,
// and every consumer asks the table rather than assuming a layout.
type Table struct {
	rows  int
	order []string
	cols  map[string]*Column
}

// NewTable returns an empty table with the given number of rows.
func NewTable(rows int) *Table {
	return &Table{rows: rows, cols: make(map[string]*Column)}
}

// Rows returns the row count.
func (t *Table) Rows() int { return t.rows }

// Names returns the column names in table order.
func (t *Table) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Column looks up a column by exact name.
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.cols[name]
	return c, ok
}

// Has reports whether a column exists, placeholders included.
func (t *Table) Has(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// HasSource reports whether a column exists and came from the input.
func (t *Table) HasSource(name string) bool {
	c, ok := t.cols[name]
	return ok && !c.Placeholder
}

// Set adds a column, or replaces the column with the same name in place.
// It panics if the column length does not match the table.
func (t *Table) Set(c *Column) {
	if c.Len() != t.rows {
		panic(fmt.Sprintf("model: column %q has %d rows, table has %d", c.Name, c.Len(), t.rows))
	}
	if _, exists := t.cols[c.Name]; !exists {
		t.order = append(t.order, c.Name)
	}
	t.cols[c.Name] = c
}

// Ensure adds an all-null placeholder column when name is absent and
// returns the column now stored under name.
func (t *Table) Ensure(name string, kind Kind) *Column {
	if c, ok := t.cols[name]; ok {
		return c
	}
	c := PlaceholderColumn(name, kind, t.rows)
	t.Set(c)
	return c
}

// Select returns a table with the named columns that exist, in the given order.
// Columns are shared with the receiver, not copied.
func (t *Table) Select(names []string) *Table {
	out := NewTable(t.rows)
	for _, name := range names {
		if c, ok := t.cols[name]; ok {
			out.Set(c)
		}
	}
	return out
}

// Take returns a table holding the rows at the given indexes, in order.
func (t *Table) Take(idx []int) *Table {
	out := NewTable(len(idx))
	for _, name := range t.order {
		out.Set(t.cols[name].Take(idx))
	}
	return out
}
