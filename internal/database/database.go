package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cdtdelta/suricata24h/internal/model"
)

// sqlStore implements Store over database/sql for any Dialect.
// The driver-specific constructors live in sqlite.go and postgres.go.
type sqlStore struct {
	path    string
	conn    *sql.DB
	dialect Dialect
}

func (db *sqlStore) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the file path or connection string of the database.
func (db *sqlStore) Path() string {
	return db.path
}

// Conn returns the underlying *sql.DB connection for advanced query usage.
func (db *sqlStore) Conn() *sql.DB {
	return db.conn
}

func (db *sqlStore) createSchema(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, db.dialect.CreateRunsTableSQL()); err != nil {
		return fmt.Errorf("creating %s table: %w", RunsTable, err)
	}
	return nil
}

// createFlowsSQL builds the DDL for the flows table from the column kinds of t.
func (db *sqlStore) createFlowsSQL(t *model.Table) string {
	var defs []string
	for _, name := range t.Names() {
		c, _ := t.Column(name)
		defs = append(defs, db.dialect.QuoteColumn(name)+" "+db.dialect.ColumnType(c.Kind))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", FlowsTable, strings.Join(defs, ", "))
}

func (db *sqlStore) insertSQL(names []string) string {
	cols := make([]string, len(names))
	marks := make([]string, len(names))
	for i, name := range names {
		cols[i] = db.dialect.QuoteColumn(name)
		marks[i] = db.dialect.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		FlowsTable, strings.Join(cols, ", "), strings.Join(marks, ", "))
}

// bind converts row i of c to a driver argument. Nulls become SQL NULL.
func (db *sqlStore) bind(c *model.Column, i int) any {
	if c.IsNull(i) {
		return nil
	}
	switch c.Kind {
	case model.KindNumber:
		return c.Num[i]
	case model.KindTime:
		return db.dialect.BindTime(c.Time[i])
	default:
		return db.dialect.BindText(c.Text[i])
	}
}

// InsertTable drops and recreates the flows table, then inserts every row
// inside a single transaction.
// The onProgress callback is called every 10,000 rows with the current count.
// Pass nil for onProgress if you don't need progress updates.
func (db *sqlStore) InsertTable(ctx context.Context, t *model.Table, onProgress func(count int)) (int, error) {
	names := t.Names()
	if len(names) == 0 {
		return 0, fmt.Errorf("no columns to export")
	}
	cols := make([]*model.Column, len(names))
	for i, name := range names {
		cols[i], _ = t.Column(name)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, db.dialect.DropTableSQL(FlowsTable)); err != nil {
		return 0, fmt.Errorf("dropping %s table: %w", FlowsTable, err)
	}
	if _, err := tx.ExecContext(ctx, db.createFlowsSQL(t)); err != nil {
		return 0, fmt.Errorf("creating %s table: %w", FlowsTable, err)
	}
	if t.Has(model.TimestampUTC) {
		idx := db.dialect.CreateIndexSQL("flows_ts_idx", FlowsTable, model.TimestampUTC)
		if _, err := tx.ExecContext(ctx, idx); err != nil {
			return 0, fmt.Errorf("creating index on %s: %w", model.TimestampUTC, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, db.insertSQL(names))
	if err != nil {
		return 0, fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	args := make([]any, len(cols))
	for i := 0; i < t.Rows(); i++ {
		for j, c := range cols {
			args[j] = db.bind(c, i)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return inserted, fmt.Errorf("inserting row %d: %w", inserted+1, err)
		}
		inserted++
		if onProgress != nil && inserted%10000 == 0 {
			onProgress(inserted)
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("committing transaction: %w", err)
	}
	return inserted, nil
}

// RecordRun appends a row to the runs table.
func (db *sqlStore) RecordRun(ctx context.Context, r Run) error {
	q := fmt.Sprintf("INSERT INTO %s (run_id, source, row_count, created_at) VALUES (%s, %s, %s, %s)",
		RunsTable, db.dialect.Placeholder(1), db.dialect.Placeholder(2),
		db.dialect.Placeholder(3), db.dialect.Placeholder(4))
	_, err := db.conn.ExecContext(ctx, q,
		r.ID, db.dialect.BindText(r.Source), r.Rows, db.dialect.BindTime(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.ID, err)
	}
	return nil
}

// Runs lists recorded exports, oldest first.
func (db *sqlStore) Runs(ctx context.Context) ([]Run, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT run_id, source, row_count, created_at FROM "+RunsTable+" ORDER BY created_at, run_id")
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created any
		if err := rows.Scan(&r.ID, &r.Source, &r.Rows, &created); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.CreatedAt, err = scanTime(created); err != nil {
			return nil, fmt.Errorf("run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// scanTime accepts the representations drivers return for timestamp columns.
func scanTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case string:
		return parseStoredTime(x)
	case []byte:
		return parseStoredTime(string(x))
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
	}
}

func parseStoredTime(s string) (time.Time, error) {
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// CountRows returns the number of rows in the flows table.
func (db *sqlStore) CountRows(ctx context.Context) (int64, error) {
	var count int64
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+FlowsTable).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting rows: %w", err)
	}
	return count, nil
}

// HourlyHistogram returns exported row counts bucketed by UTC hour.
// Rows without a timestamp are not counted.
func (db *sqlStore) HourlyHistogram(ctx context.Context) ([]TimelineBucket, error) {
	bucketExpr := db.dialect.DateFormatSQL(model.TimestampUTC, "%Y-%m-%d %H:00:00")
	histSQL := "SELECT " + bucketExpr + " AS bucket, COUNT(*) AS cnt FROM " + FlowsTable +
		" WHERE " + db.dialect.QuoteColumn(model.TimestampUTC) + " IS NOT NULL" +
		" GROUP BY bucket ORDER BY bucket"

	rows, err := db.conn.QueryContext(ctx, histSQL)
	if err != nil {
		return nil, fmt.Errorf("histogram query: %w", err)
	}
	defer rows.Close()

	var buckets []TimelineBucket
	for rows.Next() {
		var b TimelineBucket
		if err := rows.Scan(&b.Timestamp, &b.Count); err != nil {
			return nil, fmt.Errorf("scanning bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
