package notifier

import (
	"fmt"
	"html"
	"strings"

	"SwingScore/internal/analysis"
	"SwingScore/internal/model"
)

// Alert thresholds: buy from scale-in (level 2), sell from caution (level 1).
const (
	AlertBuyLevel  = 2
	AlertSellLevel = 1
)

// ShouldAlert reports which sides of row reach an alerting tier.
func ShouldAlert(row analysis.Row) (buy, sell bool) {
	return row.BuyTier.Level >= AlertBuyLevel, row.SellTier.Level >= AlertSellLevel
}

// FormatAlert formats a tier alert for the latest bar of rep.
func FormatAlert(rep *analysis.Report, row analysis.Row) string {
	var b strings.Builder
	buy, sell := ShouldAlert(row)

	b.WriteString(fmt.Sprintf("🚨 <b>%s</b> | %s\n", html.EscapeString(rep.Symbol), row.Time.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Close: %.2f | profile: %s\n\n", row.Close, rep.Profile))
	if buy {
		b.WriteString(fmt.Sprintf("🟢 Buy %.1f → <b>%s</b>\n", row.Buy, row.BuyTier.Label))
		writeTopFactors(&b, row.Score.BuyFactors)
	}
	if sell {
		b.WriteString(fmt.Sprintf("🔴 Sell %.1f → <b>%s</b>\n", row.Sell, row.SellTier.Label))
		writeTopFactors(&b, row.Score.SellFactors)
	}
	return b.String()
}

// FormatScore formats the full breakdown of a row as the /score reply.
func FormatScore(rep *analysis.Report, row analysis.Row) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s | %s\n", html.EscapeString(rep.Symbol), row.Time.Format("2006-01-02"), rep.Profile))
	b.WriteString(fmt.Sprintf("Close: %.2f", row.Close))
	if model.Defined(row.MA) {
		b.WriteString(fmt.Sprintf(" | MA: %.2f", row.MA))
	}
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("🟢 <b>Buy %.1f</b> (%s)\n", row.Buy, row.BuyTier.Label))
	writeFactors(&b, row.Score.BuyFactors)
	b.WriteString(fmt.Sprintf("\n🔴 <b>Sell %.1f</b> (%s)\n", row.Sell, row.SellTier.Label))
	writeFactors(&b, row.Score.SellFactors)
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp(symbols []string) string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	b.WriteString("/score &lt;symbol&gt; - latest buy/sell score with factor breakdown\n")
	b.WriteString("/profiles - scoring profiles in use\n")
	if len(symbols) > 0 {
		b.WriteString("\nWatching: " + html.EscapeString(strings.Join(symbols, ", ")))
	}
	return b.String()
}

func writeFactors(b *strings.Builder, factors []model.FactorScore) {
	for _, f := range factors {
		if f.Cap == 0 {
			continue
		}
		mark := ""
		if f.Divergence {
			mark = " ⚡"
		}
		b.WriteString(fmt.Sprintf("  %s: %.1f/%.0f%s %s\n", f.Name, f.Score, f.Cap, mark, html.EscapeString(f.Commentary)))
	}
}

// writeTopFactors lists the contributing factors only.
func writeTopFactors(b *strings.Builder, factors []model.FactorScore) {
	for _, f := range factors {
		if f.Score > 0 {
			b.WriteString(fmt.Sprintf("  • %s %.1f %s\n", f.Name, f.Score, html.EscapeString(f.Commentary)))
		}
	}
}
