package visual

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	echartstypes "github.com/go-echarts/go-echarts/v2/types"

	"smartorder/internal/types"
)

const (
	colorBackground  = "#060c1b"
	colorTextPrimary = "#eceff4"
	colorBar         = "#3b82f6"
	colorBarAlt      = "#fbbf24"

	chartWidthPx  = 900
	chartHeightPx = 420
)

// Stats holds the aggregates the admin page charts.
type Stats struct {
	AlgoMix    map[types.Algo]int
	UrgencyMix map[types.Bucket]int
	Total      int
}

// RenderStats writes an HTML page with the saved-ticket breakdown charts.
func RenderStats(w io.Writer, stats Stats) error {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(
		algoMixChart(stats.AlgoMix),
		urgencyMixChart(stats.UrgencyMix),
	)
	return page.Render(w)
}

func algoMixChart(mix map[types.Algo]int) *charts.Bar {
	bar := newBarChart("Strategy mix", "saved tickets per chosen strategy", colorBar)
	labels := make([]string, 0, len(types.Candidates))
	data := make([]opts.BarData, 0, len(types.Candidates))
	for _, algo := range types.Candidates {
		labels = append(labels, string(algo))
		data = append(data, opts.BarData{Value: mix[algo]})
	}
	bar.SetXAxis(labels)
	bar.AddSeries("Tickets", data)
	return bar
}

func urgencyMixChart(mix map[types.Bucket]int) *charts.Bar {
	bar := newBarChart("Urgency mix", "saved tickets per urgency level", colorBarAlt)
	buckets := []types.Bucket{types.BucketLow, types.BucketMedium, types.BucketHigh}
	labels := make([]string, 0, len(mix))
	data := make([]opts.BarData, 0, len(mix))
	for _, b := range buckets {
		labels = append(labels, string(b))
		data = append(data, opts.BarData{Value: mix[b]})
	}
	// Unexpected bucket values still show up rather than vanish.
	var extra []string
	for b := range mix {
		switch b {
		case types.BucketLow, types.BucketMedium, types.BucketHigh:
		default:
			extra = append(extra, string(b))
		}
	}
	sort.Strings(extra)
	for _, b := range extra {
		labels = append(labels, b)
		data = append(data, opts.BarData{Value: mix[types.Bucket(b)]})
	}
	bar.SetXAxis(labels)
	bar.AddSeries("Tickets", data)
	return bar
}

func newBarChart(title, subtitle, color string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           echartstypes.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", chartHeightPx),
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      title,
			Subtitle:   subtitle,
			Left:       "left",
			TitleStyle: &opts.TextStyle{Color: colorTextPrimary},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	)
	bar.SetSeriesOptions(
		charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
	)
	return bar
}
