package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/firemap/internal/fireregime"
)

// RenderHTML writes an interactive page with the burned-per-year series and
// the interval distributions. assetsHost overrides the echarts asset URL
// prefix when not empty.
func RenderHTML(w io.Writer, sum *fireregime.Summary, assetsHost string) error {
	colors := palette(3)

	burned := charts.NewBar()
	burned.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Fire regime " + sum.RunID, Width: "100%", Height: "480px", AssetsHost: assetsHost}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Burned pixels per year",
			Subtitle: fmt.Sprintf("%d inputs, %d ever burned, mean FRI %.3f", sum.Inputs(), sum.EverBurned, sum.MeanFRI),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	years := make([]opts.BarData, len(sum.BurnedPerYear))
	for i, c := range sum.BurnedPerYear {
		years[i] = opts.BarData{Value: c}
	}
	burned.SetXAxis(sum.Labels).
		AddSeries("burned", years,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(colors[0])}),
		)

	intervals := charts.NewBar()
	intervals.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px", AssetsHost: assetsHost}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Inter-fire intervals",
			Subtitle: fmt.Sprintf("%d pixels with intervals, %d without", sum.WithIntervals, sum.WithoutIntervals()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "years", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "pixels"}),
	)
	ms := metrics(sum)
	n := histogramExtent(ms)
	ticks := make([]string, n)
	for y := range ticks {
		ticks[y] = strconv.Itoa(y)
	}
	intervals.SetXAxis(ticks)
	for i, m := range ms {
		data := make([]opts.BarData, n)
		for y := range data {
			v := 0
			if y < len(m.hist) {
				v = m.hist[y]
			}
			data[y] = opts.BarData{Value: v}
		}
		intervals.AddSeries(m.name, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(colors[i])}))
	}

	page := components.NewPage()
	if assetsHost != "" {
		page.SetAssetsHost(assetsHost)
	}
	page.PageTitle = "Fire regime " + sum.RunID
	page.AddCharts(burned, intervals)
	return page.Render(w)
}
