package database

import (
	"time"

	"github.com/cdtdelta/suricata24h/internal/model"
)

// Dialect abstracts all database-specific SQL generation.
// Each database backend (SQLite, PostgreSQL) implements this interface.
type Dialect interface {
	// DriverName returns the database/sql driver name (e.g. "sqlite", "pgx").
	DriverName() string

	// DSN returns the data source name for opening a connection.
	DSN(pathOrConnStr string) string

	// Placeholder returns the parameter placeholder for the given 1-based index.
	// SQLite: "?" (ignoring index), PostgreSQL: "$1", "$2", etc.
	Placeholder(index int) string

	// QuoteColumn quotes an identifier. Export columns carry dots
	// ("flow.bytes_toserver") so every name is quoted.
	QuoteColumn(name string) string

	// ColumnType maps a column kind to the SQL type used in DDL.
	ColumnType(kind model.Kind) string

	// DateFormatSQL returns a SQL expression that formats/truncates a datetime column in UTC.
	// Formats are given in strftime notation.
	DateFormatSQL(column, format string) string

	// CreateRunsTableSQL returns DDL for the report_runs table.
	CreateRunsTableSQL() string

	// CreateIndexSQL returns DDL to create an index on a table column.
	CreateIndexSQL(indexName, tableName, column string) string

	// DropTableSQL returns DDL to drop a table if it exists.
	DropTableSQL(tableName string) string

	// BindText and BindTime convert values to driver arguments.
	BindText(s string) any
	BindTime(t time.Time) any
}
