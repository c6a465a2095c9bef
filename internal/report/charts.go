package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/cdtdelta/suricata24h/internal/aggregate"
	"github.com/cdtdelta/suricata24h/internal/model"
)

const (
	chartWidth  = 1024
	chartHeight = 576
	labelMax    = 28
)

var (
	seriesColor = drawing.ColorFromHex("4c72b0")
	fillColor   = drawing.ColorFromHex("4c72b0").WithAlpha(160)
)

func noData(format string, args ...any) error {
	return fmt.Errorf("%w: %s", aggregate.ErrNotComputable, fmt.Sprintf(format, args...))
}

// renderPNG writes any go-chart renderable to path.
func renderPNG(path string, r interface {
	Render(chart.RendererProvider, io.Writer) error
}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := r.Render(chart.PNG, f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	return f.Close()
}

// yRange returns a 0-based range that always has positive height.
func yRange(max float64) *chart.ContinuousRange {
	if max <= 0 {
		max = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: max * 1.1}
}

// TimelineChart draws hourly event counts as a line over the display zone.
// hourly is the output of aggregate.HourlyCounts; nil means nothing to plot.
func TimelineChart(path string, hourly *model.Table) error {
	if hourly == nil || hourly.Rows() == 0 {
		return noData("no hourly counts")
	}
	hours, _ := hourly.Column(model.TimestampDisplay)
	events, _ := hourly.Column(model.Events)

	var xs []time.Time
	var ys []float64
	maxY := 0.0
	for i := 0; i < hourly.Rows(); i++ {
		h, ok := hours.TimeAt(i)
		if !ok {
			continue
		}
		v, _ := events.NumberAt(i)
		xs = append(xs, h)
		ys = append(ys, v)
		maxY = math.Max(maxY, v)
	}
	if len(xs) == 0 {
		return noData("no hourly counts")
	}
	loc := xs[0].Location()
	// A single hour still needs a non-zero x range.
	if len(xs) == 1 {
		xs = append(xs, xs[0].Add(time.Hour))
		ys = append(ys, ys[0])
	}

	ch := chart.Chart{
		Title:      "Events per hour (last 24h)",
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 24, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           "Hour",
			ValueFormatter: hourFormatter(loc),
		},
		YAxis: chart.YAxis{Name: "Events", Range: yRange(maxY)},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "events",
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeColor: seriesColor, StrokeWidth: 2},
			},
		},
	}
	return renderPNG(path, ch)
}

// hourFormatter labels time ticks in loc rather than the process zone.
func hourFormatter(loc *time.Location) chart.ValueFormatter {
	return func(v interface{}) string {
		switch t := v.(type) {
		case float64:
			return time.Unix(0, int64(t)).In(loc).Format("01-02 15:00")
		case time.Time:
			return t.In(loc).Format("01-02 15:00")
		default:
			return ""
		}
	}
}

// ASOrgChart draws the most frequent AS organizations as bars.
func ASOrgChart(path string, counts []aggregate.Count, topN int) error {
	if len(counts) == 0 {
		return noData("no AS org values")
	}
	bars := make([]chart.Value, len(counts))
	maxY := 0.0
	for i, c := range counts {
		v := float64(c.Events)
		bars[i] = chart.Value{Value: v, Label: truncate(c.Key, labelMax)}
		maxY = math.Max(maxY, v)
	}

	bc := chart.BarChart{
		Title:      fmt.Sprintf("Top %d Attacker AS Orgs", topN),
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 120}},
		BarWidth:   barWidth(len(bars)),
		BarSpacing: barWidth(len(bars)),
		XAxis:      chart.Style{TextRotationDegrees: 45},
		YAxis:      chart.YAxis{Name: "Events", Range: yRange(maxY)},
		Bars:       bars,
	}
	return renderPNG(path, bc)
}

func barWidth(n int) int {
	w := (chartWidth - 120) / (n * 2)
	if w > 60 {
		return 60
	}
	if w < 8 {
		return 8
	}
	return w
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// DurationChart draws a histogram of the non-null duration_s values.
func DurationChart(path string, t *model.Table, bins int) error {
	c, ok := t.Column(model.Duration)
	if !ok {
		return noData("%s column missing", model.Duration)
	}
	var vals []float64
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.NumberAt(i); ok {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return noData("no %s values", model.Duration)
	}

	edges, counts := Histogram(vals, bins)

	// Each bin becomes a flat step so the filled area reads as bars.
	xs := make([]float64, 0, 2*len(counts))
	ys := make([]float64, 0, 2*len(counts))
	maxY := 0.0
	for i, n := range counts {
		xs = append(xs, edges[i], edges[i+1])
		ys = append(ys, float64(n), float64(n))
		maxY = math.Max(maxY, float64(n))
	}

	ch := chart.Chart{
		Title:      "Flow Duration (seconds)",
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 24, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "seconds", Range: &chart.ContinuousRange{Min: edges[0], Max: edges[len(edges)-1]}},
		YAxis:      chart.YAxis{Name: "count", Range: yRange(maxY)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "flows",
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeColor: seriesColor, StrokeWidth: 1, FillColor: fillColor},
			},
		},
	}
	return renderPNG(path, ch)
}

// Histogram splits vals into equal-width bins over [min, max]. The last bin
// includes max. When all values are equal the range is widened by 0.5 on
// each side. It returns bins+1 edges and bins counts.
func Histogram(vals []float64, bins int) ([]float64, []int) {
	if bins <= 0 {
		bins = 1
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	width := (hi - lo) / float64(bins)
	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[bins] = hi

	counts := make([]int, bins)
	for _, v := range vals {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		if i < 0 {
			i = 0
		}
		counts[i]++
	}
	return edges, counts
}
