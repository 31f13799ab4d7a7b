package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"SwingScore/internal/analysis"
	"SwingScore/internal/model"
	"SwingScore/internal/strategy"
)

const (
	chartWidth  = "1200px"
	chartHeight = "360px"
)

// lineData converts values for echarts; undefined values become gaps.
func lineData(values []float64) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		if model.Defined(v) {
			out[i] = opts.LineData{Value: v}
		} else {
			out[i] = opts.LineData{Value: "-"}
		}
	}
	return out
}

func newLine(title, subtitle string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	return line
}

// thresholdLines marks the tier boundaries of a score panel.
func thresholdLines(thresholds []float64) charts.SeriesOpts {
	items := make([]opts.MarkLineNameYAxisItem, len(thresholds))
	for i, v := range thresholds {
		items[i] = opts.MarkLineNameYAxisItem{Name: fmt.Sprintf("%.0f", v), YAxis: v}
	}
	return charts.WithMarkLineNameYAxisItemOpts(items...)
}

// Chart writes a three-panel HTML page: price with its moving average, the
// buy score and the sell score, each score panel with its tier thresholds.
func Chart(w io.Writer, rep *analysis.Report, rows []analysis.Row) error {
	dates := make([]string, len(rows))
	closes := make([]float64, len(rows))
	mas := make([]float64, len(rows))
	buys := make([]float64, len(rows))
	sells := make([]float64, len(rows))
	for i, r := range rows {
		dates[i] = r.Time.Format(dateLayout)
		closes[i], mas[i], buys[i], sells[i] = r.Close, r.MA, r.Buy, r.Sell
	}

	price := newLine(rep.Symbol, "profile "+rep.Profile)
	price.SetGlobalOptions(charts.WithYAxisOpts(opts.YAxis{Name: "price", Scale: opts.Bool(true)}))
	price.SetXAxis(dates).
		AddSeries("close", lineData(closes)).
		AddSeries("MA", lineData(mas))

	scoreAxis := charts.WithYAxisOpts(opts.YAxis{Name: "score", Min: 0, Max: strategy.MaxScore})

	buy := newLine("Buy score", "tiers 20 / 40 / 50")
	buy.SetGlobalOptions(scoreAxis)
	buy.SetXAxis(dates).AddSeries("buy", lineData(buys), thresholdLines(strategy.BuyThresholds))

	sell := newLine("Sell score", "tiers 40 / 55")
	sell.SetGlobalOptions(scoreAxis)
	sell.SetXAxis(dates).AddSeries("sell", lineData(sells), thresholdLines(strategy.SellThresholds))

	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("%s swing score", rep.Symbol)
	page.AddCharts(price, buy, sell)
	return page.Render(w)
}
