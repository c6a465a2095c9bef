package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cdtdelta/suricata24h/internal/aggregate"
	"github.com/cdtdelta/suricata24h/internal/config"
	"github.com/cdtdelta/suricata24h/internal/csvparser"
	"github.com/cdtdelta/suricata24h/internal/database"
	"github.com/cdtdelta/suricata24h/internal/features"
	"github.com/cdtdelta/suricata24h/internal/jsonlparser"
	"github.com/cdtdelta/suricata24h/internal/model"
	"github.com/cdtdelta/suricata24h/internal/report"
	"github.com/cdtdelta/suricata24h/internal/timeparse"
)

// App runs one report: load, resolve time, derive features, aggregate,
// then write outputs. It holds no state between runs.
type App struct {
	cfg    config.Config
	logger *slog.Logger
	out    io.Writer
	runID  string
}

// NewApp creates an App. The file listing is printed to out.
func NewApp(cfg config.Config, logger *slog.Logger, out io.Writer, runID string) *App {
	return &App{cfg: cfg, logger: logger, out: out, runID: runID}
}

// Run executes the pipeline. Missing optional inputs only skip the outputs
// that need them; an unreadable input, a failed write or a failed database
// export is returned as an error. The export runs last, so every other
// output is on disk even when it fails.
func (a *App) Run(ctx context.Context) error {
	w, err := report.NewWriter(a.cfg.OutDir)
	if err != nil {
		return err
	}

	start := time.Now()
	tbl, err := a.load()
	if err != nil {
		return err
	}
	a.logger.Info("loaded input", "path", a.cfg.Input, "rows", tbl.Rows(),
		"columns", len(tbl.Names()), "elapsed", time.Since(start))

	loc := a.location()
	res := timeparse.Resolve(tbl, loc)
	if res.Column == "" {
		a.logger.Warn("no timestamp column found; time-based outputs will be skipped")
	} else {
		a.logger.Info("resolved timestamps", "column", res.Column, "parsed", res.Parsed,
			"failed", res.Failed, "tz", loc.String())
	}

	stats := features.Derive(tbl)
	for name, n := range stats.Coerced {
		a.logger.Debug("coerced unparseable values to null", "column", name, "count", n)
	}

	hourly, err := a.writeTables(w, tbl)
	if err != nil {
		return err
	}
	if err := a.writeCharts(w, tbl, hourly); err != nil {
		return err
	}

	exportErr := a.export(ctx, aggregate.MinimalFeatures(tbl))
	if exportErr != nil {
		a.logger.Error("database export failed", "driver", a.cfg.DBDriver, "error", exportErr)
	}

	if a.cfg.Manifest {
		path, err := report.WriteManifest(w.Dir())
		if err != nil {
			return err
		}
		a.logger.Info("wrote manifest", "path", path)
	}

	if err := report.PrintListing(a.out, w.Dir()); err != nil {
		return err
	}
	a.logger.Info("report complete", "elapsed", time.Since(start))
	return exportErr
}

// load reads the input as CSV or eve JSON lines.
func (a *App) load() (*model.Table, error) {
	format := a.cfg.Format
	if format == config.FormatAuto {
		isJSON, err := jsonlparser.LooksLikeJSONL(a.cfg.Input)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		format = config.FormatCSV
		if isJSON {
			format = config.FormatJSONL
		}
	}

	progress := func(count int) {
		a.logger.Debug("reading input", "rows", count)
	}

	if format == config.FormatJSONL {
		result, err := jsonlparser.ReadTable(a.cfg.Input, progress)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		if result.Excluded > 0 {
			a.logger.Warn("skipped malformed lines", "count", result.Excluded)
		}
		return result.Table, nil
	}

	comma, err := a.cfg.Comma()
	if err != nil {
		return nil, err
	}
	result, err := csvparser.ReadTable(a.cfg.Input, csvparser.Options{Comma: comma}, progress)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if result.Padded > 0 {
		a.logger.Debug("padded short rows", "count", result.Padded)
	}
	return result.Table, nil
}

// location loads the display zone, falling back to UTC.
func (a *App) location() *time.Location {
	loc, err := timeparse.LoadLocation(a.cfg.TZ)
	if err != nil {
		a.logger.Warn("unknown timezone, using UTC", "tz", a.cfg.TZ, "error", err)
		return time.UTC
	}
	return loc
}

// skipped logs aggregates and charts whose inputs are absent and reports
// whether err was such a skip. Other errors are left to the caller.
func (a *App) skipped(output string, err error) bool {
	if !errors.Is(err, aggregate.ErrNotComputable) {
		return false
	}
	a.logger.Info("skipping output", "output", output, "reason", err)
	return true
}

// writeTables writes the summary CSVs and returns the hourly counts for
// the timeline chart, or nil when they could not be computed.
func (a *App) writeTables(w *report.Writer, tbl *model.Table) (*model.Table, error) {
	hourly, hourlyErr := aggregate.HourlyCounts(tbl)
	if hourlyErr != nil {
		hourly = nil
	}

	outputs := []struct {
		name  string
		build func() (*model.Table, error)
	}{
		{report.TopIPsFile, func() (*model.Table, error) { return aggregate.TopSourceIPs(tbl, a.cfg.Limit) }},
		{report.TopASOrgsFile, func() (*model.Table, error) { return aggregate.TopASOrgs(tbl, a.cfg.Limit) }},
		{report.HourlyCountsFile, func() (*model.Table, error) { return hourly, hourlyErr }},
		{report.AlertCategoriesFile, func() (*model.Table, error) { return aggregate.AlertCategories(tbl) }},
		{report.AlertSeverityFile, func() (*model.Table, error) { return aggregate.AlertSeverities(tbl) }},
		{report.MinimalFile, func() (*model.Table, error) { return aggregate.MinimalFeatures(tbl), nil }},
	}

	for _, o := range outputs {
		t, err := o.build()
		if err != nil {
			if a.skipped(o.name, err) {
				continue
			}
			return nil, fmt.Errorf("building %s: %w", o.name, err)
		}
		if err := w.WriteTable(o.name, t); err != nil {
			return nil, err
		}
		a.logger.Info("wrote table", "output", o.name, "rows", t.Rows())
	}
	return hourly, nil
}

func (a *App) writeCharts(w *report.Writer, tbl *model.Table, hourly *model.Table) error {
	charts := []struct {
		name   string
		render func(path string) error
	}{
		{report.TimelineChartFile, func(p string) error { return report.TimelineChart(p, hourly) }},
		{report.ASOrgChartFile, func(p string) error {
			return report.ASOrgChart(p, aggregate.TopValues(tbl, model.ASOrg, a.cfg.TopN), a.cfg.TopN)
		}},
		{report.DurationChartFile, func(p string) error { return report.DurationChart(p, tbl, a.cfg.Bins) }},
	}

	for _, c := range charts {
		if err := c.render(w.Path(c.name)); err != nil {
			if a.skipped(c.name, err) {
				continue
			}
			return err
		}
		a.logger.Info("wrote chart", "output", c.name)
	}
	return nil
}

// ListRuns prints the exports recorded in the configured database,
// oldest first.
func (a *App) ListRuns(ctx context.Context) error {
	if a.cfg.DBDriver == "" {
		return errors.New("no database configured: set --db-driver")
	}
	store, err := database.OpenStore(a.cfg.DBDriver, a.cfg.DBDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(ctx)
	if err != nil {
		return fmt.Errorf("reading runs: %w", err)
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintln(a.out, "No exports recorded in", store.Path())
		return err
	}
	for _, r := range runs {
		_, err := fmt.Fprintf(a.out, "%s  %s  %d rows  %s\n",
			r.ID, r.CreatedAt.Format(time.RFC3339), r.Rows, r.Source)
		if err != nil {
			return err
		}
	}
	return nil
}

// export writes the minimal projection to the configured database and
// cross-checks the stored hourly histogram against the in-memory rows.
func (a *App) export(ctx context.Context, minimal *model.Table) error {
	if a.cfg.DBDriver == "" {
		return nil
	}

	store, err := database.CreateStore(a.cfg.DBDriver, a.cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("database export: %w", err)
	}
	defer store.Close()

	inserted, err := store.InsertTable(ctx, minimal, func(count int) {
		a.logger.Debug("exporting rows", "rows", count)
	})
	if err != nil {
		return fmt.Errorf("database export: %w", err)
	}

	err = store.RecordRun(ctx, database.Run{
		ID:        a.runID,
		Source:    a.cfg.Input,
		Rows:      inserted,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("database export: %w", err)
	}

	buckets, err := store.HourlyHistogram(ctx)
	if err != nil {
		return fmt.Errorf("database export: %w", err)
	}
	var stored int64
	for _, b := range buckets {
		stored += b.Count
	}
	want := 0
	if ts, ok := minimal.Column(model.TimestampUTC); ok {
		want = ts.NonNull()
	}
	if stored != int64(want) {
		a.logger.Warn("exported histogram does not match input", "stored", stored, "expected", want)
	}

	a.logger.Info("exported flows", "driver", a.cfg.DBDriver, "rows", inserted,
		"hours", len(buckets))
	return nil
}
