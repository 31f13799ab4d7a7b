package render

import (
	"fmt"
	"io"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"SwingScore/internal/analysis"
	"SwingScore/internal/model"
	"SwingScore/internal/strategy"
)

const dateLayout = "2006-01-02"

var scoreHeader = table.Row{"Date", "Close", "MA", "Buy", "Buy tier", "Sell", "Sell tier"}

// num formats an indicator value, printing "-" for undefined ones.
func num(v float64) string {
	if !model.Defined(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

func scoreRows(rows []analysis.Row) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, table.Row{
			r.Time.Format(dateLayout),
			num(r.Close),
			num(r.MA),
			num(r.Buy),
			r.BuyTier.Label,
			num(r.Sell),
			r.SellTier.Label,
		})
	}
	return out
}

func buyLevel(label string) int {
	for _, t := range strategy.BuyTiers {
		if t.Tier.Label == label {
			return t.Tier.Level
		}
	}
	return strategy.DefaultBuyTier.Level
}

func sellLevel(label string) int {
	for _, t := range strategy.SellTiers {
		if t.Tier.Label == label {
			return t.Tier.Level
		}
	}
	return strategy.DefaultSellTier.Level
}

// colorTier highlights the two strongest tiers of a side.
func colorTier(val interface{}, level func(string) int, strongest int) string {
	label := fmt.Sprint(val)
	switch l := level(label); {
	case l >= strongest:
		return text.Colors{text.Bold, text.FgHiRed}.Sprint(label)
	case l == strongest-1:
		return text.FgYellow.Sprint(label)
	}
	return label
}

func newWriter(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("%s", title)
	t.SetStyle(table.StyleLight)
	return t
}

// Table writes the scored rows as a terminal table.
func Table(w io.Writer, rep *analysis.Report, rows []analysis.Row) {
	t := newWriter(w, fmt.Sprintf("%s (%s)", rep.Symbol, rep.Profile))
	t.AppendHeader(scoreHeader)
	t.AppendRows(scoreRows(rows))
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Transformer: func(val interface{}) string {
			return colorTier(val, buyLevel, strategy.BuyTiers[0].Tier.Level)
		}},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Transformer: func(val interface{}) string {
			return colorTier(val, sellLevel, strategy.SellTiers[0].Tier.Level)
		}},
	})
	t.Render()
}

// CSV writes the scored rows as comma separated values.
func CSV(w io.Writer, rows []analysis.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(scoreHeader)
	t.AppendRows(scoreRows(rows))
	t.RenderCSV()
}

// Factors writes the per-factor breakdown of one row for both sides.
func Factors(w io.Writer, row analysis.Row) {
	for _, side := range []model.Side{model.SideBuy, model.SideSell} {
		total, tier := row.Buy, row.BuyTier
		if side == model.SideSell {
			total, tier = row.Sell, row.SellTier
		}
		t := newWriter(w, fmt.Sprintf("%s %s %.2f (%s)", row.Time.Format(dateLayout), side, total, tier.Label))
		t.AppendHeader(table.Row{"Factor", "Raw", "Score", "Cap", "Notes"})
		for _, f := range row.Score.Factors(side) {
			notes := f.Commentary
			if f.Divergence {
				notes = "divergence; " + notes
			}
			raw := "-"
			if !math.IsNaN(f.Raw) {
				raw = fmt.Sprintf("%.2f", f.Raw)
			}
			t.AppendRow(table.Row{f.Name, raw, fmt.Sprintf("%.2f", f.Score), fmt.Sprintf("%.0f", f.Cap), notes})
		}
		t.AppendFooter(table.Row{"total", "", fmt.Sprintf("%.2f", total), "100", ""})
		t.Render()
	}
}
