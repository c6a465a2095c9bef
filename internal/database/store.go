package database

import (
	"context"
	"time"

	"github.com/cdtdelta/suricata24h/internal/model"
)

// FlowsTable holds the exported minimal feature rows.
const FlowsTable = "flows"

// RunsTable records one row per export.
const RunsTable = "report_runs"

// TimelineBucket represents a single histogram bucket with a timestamp label and event count.
type TimelineBucket struct {
	Timestamp string `json:"timestamp"`
	Count     int64  `json:"count"`
}

// Run describes one export for the runs table.
type Run struct {
	ID        string
	Source    string
	Rows      int
	CreatedAt time.Time
}

// Store defines the database operations the report needs.
// The app depends on the interface, not on a concrete database type.
type Store interface {
	// InsertTable replaces the flows table with the rows of t inside a
	// single transaction and returns the number of rows written.
	InsertTable(ctx context.Context, t *model.Table, onProgress func(int)) (int, error)
	RecordRun(ctx context.Context, r Run) error

	CountRows(ctx context.Context) (int64, error)
	HourlyHistogram(ctx context.Context) ([]TimelineBucket, error)
	Runs(ctx context.Context) ([]Run, error)

	Close() error
	Path() string
}
