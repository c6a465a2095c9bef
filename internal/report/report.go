// Package report writes the output directory: summary CSVs, PNG charts,
// an optional checksum manifest and the closing file listing.
package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cdtdelta/suricata24h/internal/csvparser"
	"github.com/cdtdelta/suricata24h/internal/model"
)

// Output file names.
const (
	TopIPsFile          = "top_ips.csv"
	TopASOrgsFile       = "top_as_orgs.csv"
	HourlyCountsFile    = "hourly_counts.csv"
	AlertCategoriesFile = "alert_categories.csv"
	AlertSeverityFile   = "alert_severity.csv"
	MinimalFile         = "flows_minimal.csv"
	TimelineChartFile   = "timeline_hourly.png"
	ASOrgChartFile      = "top_as_orgs.png"
	DurationChartFile   = "duration_hist.png"
	ManifestFile        = "MANIFEST.blake3"
)

// Writer places report files under a single directory.
type Writer struct {
	dir string
}

// NewWriter creates dir if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Path joins name onto the output directory.
func (w *Writer) Path(name string) string { return filepath.Join(w.dir, name) }

// WriteTable writes t as CSV to name inside the output directory.
func (w *Writer) WriteTable(name string, t *model.Table) error {
	if err := csvparser.WriteTable(w.Path(name), t); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
