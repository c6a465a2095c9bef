package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore is a Store backed by a PostgreSQL database.
type PostgresStore struct {
	*sqlStore
}

// OpenPostgres opens an existing PostgreSQL export database.
func OpenPostgres(connStr string) (*PostgresStore, error) {
	d := &PostgresDialect{}

	conn, err := sql.Open(d.DriverName(), d.DSN(connStr))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &PostgresStore{&sqlStore{path: connStr, conn: conn, dialect: d}}, nil
}

// CreatePostgres ensures the runs table exists on a PostgreSQL database.
// The database itself must already exist.
func CreatePostgres(connStr string) (*PostgresStore, error) {
	d := &PostgresDialect{}

	conn, err := sql.Open(d.DriverName(), d.DSN(connStr))
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	db := &PostgresStore{&sqlStore{path: connStr, conn: conn, dialect: d}}
	if err := db.createSchema(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return db, nil
}
