package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/cdtdelta/suricata24h/internal/model"
)

// sqliteTimeLayout is understood by SQLite's date functions.
const sqliteTimeLayout = "2006-01-02 15:04:05.999999Z07:00"

// SQLiteDialect implements the Dialect interface for SQLite databases.
type SQLiteDialect struct{}

func (d *SQLiteDialect) DriverName() string             { return "sqlite" }
func (d *SQLiteDialect) DSN(pathOrConnStr string) string { return pathOrConnStr }
func (d *SQLiteDialect) Placeholder(index int) string    { return "?" }
func (d *SQLiteDialect) QuoteColumn(name string) string  { return quoteIdent(name) }
func (d *SQLiteDialect) BindText(s string) any           { return s }

func (d *SQLiteDialect) BindTime(t time.Time) any {
	return t.UTC().Format(sqliteTimeLayout)
}

func (d *SQLiteDialect) ColumnType(kind model.Kind) string {
	switch kind {
	case model.KindNumber:
		return "REAL"
	case model.KindTime:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

func (d *SQLiteDialect) DateFormatSQL(column, format string) string {
	return fmt.Sprintf("strftime('%s', %s)", format, d.QuoteColumn(column))
}

func (d *SQLiteDialect) CreateRunsTableSQL() string {
	return `CREATE TABLE IF NOT EXISTS report_runs (
		run_id TEXT PRIMARY KEY, source TEXT, row_count INT, created_at DATETIME
	)`
}

func (d *SQLiteDialect) CreateIndexSQL(indexName, tableName, column string) string {
	return fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s (%s)", indexName, tableName, d.QuoteColumn(column))
}

func (d *SQLiteDialect) DropTableSQL(tableName string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName)
}

// quoteIdent wraps a name in double quotes, doubling embedded quotes.
// Both SQLite and PostgreSQL accept this form.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
