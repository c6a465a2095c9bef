package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/cdtdelta/suricata24h/internal/model"
)

// strftimeToPostgres maps the SQLite strftime format strings used by
// HourlyHistogram to their PostgreSQL to_char equivalents.
var strftimeToPostgres = map[string]string{
	"%Y-%m-%d %H:00:00": "YYYY-MM-DD HH24:00:00",
	"%Y-%m-%d":          "YYYY-MM-DD",
	"%Y-%m":             "YYYY-MM",
}

// PostgresDialect implements the Dialect interface for PostgreSQL databases.
type PostgresDialect struct{}

func (d *PostgresDialect) DriverName() string             { return "pgx" }
func (d *PostgresDialect) DSN(pathOrConnStr string) string { return pathOrConnStr }
func (d *PostgresDialect) Placeholder(index int) string    { return fmt.Sprintf("$%d", index) }
func (d *PostgresDialect) QuoteColumn(name string) string  { return quoteIdent(name) }
func (d *PostgresDialect) BindTime(t time.Time) any        { return t.UTC() }

// BindText strips null bytes (0x00). SQLite stores these fine but PostgreSQL
// rejects them with "invalid byte sequence for encoding UTF8".
func (d *PostgresDialect) BindText(s string) any {
	if strings.ContainsRune(s, '\x00') {
		return strings.ReplaceAll(s, "\x00", "")
	}
	return s
}

func (d *PostgresDialect) ColumnType(kind model.Kind) string {
	switch kind {
	case model.KindNumber:
		return "DOUBLE PRECISION"
	case model.KindTime:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

func (d *PostgresDialect) DateFormatSQL(column, format string) string {
	pgFmt, ok := strftimeToPostgres[format]
	if !ok {
		pgFmt = format
	}
	return fmt.Sprintf("to_char(%s AT TIME ZONE 'UTC', '%s')", d.QuoteColumn(column), pgFmt)
}

func (d *PostgresDialect) CreateRunsTableSQL() string {
	return `CREATE TABLE IF NOT EXISTS report_runs (
		run_id TEXT PRIMARY KEY, source TEXT, row_count INT, created_at TIMESTAMPTZ
	)`
}

func (d *PostgresDialect) CreateIndexSQL(indexName, tableName, column string) string {
	return fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s (%s)", indexName, tableName, d.QuoteColumn(column))
}

func (d *PostgresDialect) DropTableSQL(tableName string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName)
}
