// Package report renders charts describing a fire-regime run: PNG figures
// via gonum/plot and an interactive HTML page via go-echarts.
package report

import (
	"fmt"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/firemap/internal/fireregime"
)

// Report file names inside the report directory.
const (
	BurnedPlotFile    = "burned_per_year.png"
	IntervalsPlotFile = "interval_histograms.png"
	PageFile          = "report.html"
)

// metric pairs a histogram with its legend label.
type metric struct {
	name string
	hist fireregime.Histogram
}

func metrics(sum *fireregime.Summary) []metric {
	return []metric{
		{"minimum", sum.Intervals.Min},
		{"mean", sum.Intervals.Mean},
		{"maximum", sum.Intervals.Max},
	}
}

// histogramExtent returns the number of bins worth showing: up to the
// largest non-empty bin of any metric, and at least one.
func histogramExtent(ms []metric) int {
	n := 1
	for _, m := range ms {
		for i := len(m.hist) - 1; i >= n; i-- {
			if m.hist[i] > 0 {
				n = i + 1
				break
			}
		}
	}
	return n
}

// BurnedPerYearPlot draws the burned pixel count of every input.
func BurnedPerYearPlot(sum *fireregime.Summary) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Burned pixels per year (%d ever burned)", sum.EverBurned)
	p.X.Label.Text = "Input"
	p.Y.Label.Text = "Burned pixels"

	pts := make(plotter.XYs, len(sum.BurnedPerYear))
	for i, c := range sum.BurnedPerYear {
		pts[i] = plotter.XY{X: float64(i), Y: float64(c)}
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("burned per year line: %w", err)
	}
	colors := palette(3)
	line.Color = colors[0]
	line.Width = vg.Points(1)
	points.Color = colors[0]
	p.Add(line, points, plotter.NewGrid())
	p.NominalX(sum.Labels...)
	return p, nil
}

// IntervalHistogramPlot draws grouped bars of the minimum, mean and maximum
// interval distributions.
func IntervalHistogramPlot(sum *fireregime.Summary) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Inter-fire intervals (%d pixels)", sum.WithIntervals)
	p.X.Label.Text = "Interval (years)"
	p.Y.Label.Text = "Pixels"

	ms := metrics(sum)
	n := histogramExtent(ms)
	width := vg.Points(8)
	colors := palette(len(ms))
	for i, m := range ms {
		vals := make(plotter.Values, n)
		for y := 0; y < n && y < len(m.hist); y++ {
			vals[y] = float64(m.hist[y])
		}
		bars, err := plotter.NewBarChart(vals, width)
		if err != nil {
			return nil, fmt.Errorf("%s interval bars: %w", m.name, err)
		}
		bars.Color = colors[i]
		bars.LineStyle.Width = 0
		bars.Offset = vg.Length(i-1) * width
		p.Add(bars)
		p.Legend.Add(m.name, bars)
	}
	p.Legend.Top = true

	ticks := make([]string, n)
	for y := range ticks {
		ticks[y] = strconv.Itoa(y)
	}
	p.NominalX(ticks...)
	return p, nil
}
