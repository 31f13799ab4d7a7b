package strategy

import (
	"fmt"
	"math"

	"SwingScore/internal/model"
	"SwingScore/internal/profile"
)

// Factor names as they appear in score breakdowns.
const (
	FactorRetracement = "retracement"
	FactorSlope       = "slope"
	FactorTrend       = "trend"
	FactorStochastic  = "stochastic"
	FactorRSI         = "rsi"
	FactorMACD        = "macd"
	FactorDMI         = "dmi"
	FactorBollinger   = "bollinger"
)

// finish clamps raw into [0, cap] and fills the factor result.
func finish(name string, raw, limit float64, div bool, commentary string) model.FactorScore {
	return model.FactorScore{
		Name:       name,
		Raw:        raw,
		Cap:        limit,
		Score:      clamp(raw, 0, limit),
		Divergence: div,
		Commentary: commentary,
	}
}

func disabled(name string) model.FactorScore {
	return model.FactorScore{Name: name, Commentary: "disabled"}
}

// applyDivergence folds a divergence rule into raw.
func applyDivergence(rule profile.DivergenceRule, raw, limit float64) float64 {
	switch rule.Mode {
	case profile.DivergenceOverride:
		return limit
	case profile.DivergenceBonus:
		return raw + rule.Bonus
	}
	return raw
}

// scoreRetracement scores the bar's position inside the retracement band.
func scoreRetracement(w model.Window, cfg profile.RetracementFactor, p polarity) model.FactorScore {
	if cfg.Cap == 0 {
		return disabled(FactorRetracement)
	}
	bar, set := w.Current()
	band := set.Retracement
	if !band.Valid {
		return finish(FactorRetracement, 0, cfg.Cap, false, "band invalid")
	}

	base, zone := 0.0, "none"
	for _, z := range cfg.Zones {
		if s, ok := evalZone(z, bar, band); ok {
			base, zone = s, fmt.Sprintf("%s %s %s", z.Price, z.Op, z.Level)
			break
		}
	}
	for _, z := range cfg.Overrides {
		if s, ok := evalZone(z, bar, band); ok {
			base, zone = s, fmt.Sprintf("override %s %s %s", z.Price, z.Op, z.Level)
		}
	}

	mod := candleModifier(w, cfg.Candle, band, p)
	return finish(FactorRetracement, base+mod, cfg.Cap, false,
		fmt.Sprintf("zone %s, candle %+.0f", zone, mod))
}

func evalZone(z profile.Zone, bar model.OHLCV, band model.RetracementLevels) (float64, bool) {
	price := pricePoint(bar, z.Price)
	if !compare(z.Op, price, band.Level(z.Level)) {
		return 0, false
	}
	if len(z.Span) == 2 && len(z.Out) == 2 {
		return LinearMap(price, band.Level(z.Span[0]), band.Level(z.Span[1]), z.Out[0], z.Out[1]), true
	}
	return z.Score, true
}

// candleModifier sums the candle-shape adjustments of the current bar.
func candleModifier(w model.Window, c profile.CandleModifiers, band model.RetracementLevels, p polarity) float64 {
	bar, set := w.Current()
	prevClose := bar.Close
	if w.Has(1) {
		prevClose = w.Bar(1).Close
	}
	body := math.Abs(bar.Close - bar.Open)

	mod := 0.0
	if c.Reversal != 0 && p.gt(bar.Close, bar.Open) && p.gt(bar.Close, prevClose) {
		mod += c.Reversal
	}
	if c.Shadow != 0 && c.ShadowLevel != "" {
		level := band.Level(c.ShadowLevel)
		shadow, touched := math.Min(bar.Close, bar.Open)-bar.Low, bar.Low <= level
		if p == sellward {
			shadow, touched = bar.High-math.Max(bar.Close, bar.Open), bar.High >= level
		}
		if shadow > body && touched {
			mod += c.Shadow
		}
	}
	if c.VolumeContraction != 0 && model.Defined(set.VolMA5) && bar.Volume < set.VolMA5*c.VolumeRatio {
		mod += c.VolumeContraction
	}
	if c.WideBody != 0 && p.lt(bar.Close, bar.Open) && model.Defined(set.ATR) && body > set.ATR*c.WideBodyATR {
		mod -= c.WideBody
	}
	return mod
}

// scoreSlope scores the percentile of the regression slope.
func scoreSlope(w model.Window, cfg profile.SlopeFactor, p polarity) model.FactorScore {
	if cfg.Cap == 0 {
		return disabled(FactorSlope)
	}
	_, set := w.Current()
	rank, _ := evalLadder(cfg.Rank, set.SlopeRank)
	mom := 0.0
	if cfg.Momentum != 0 && w.Has(1) && p.gt(set.Slope, w.Set(1).Slope) {
		mom = cfg.Momentum
	}
	raw := 0.0
	if rank > 0 {
		raw = rank + mom
	}
	return finish(FactorSlope, raw, cfg.Cap, false, fmt.Sprintf("PR=%.1f", set.SlopeRank))
}

// scoreTrend scores the close against its moving average.
func scoreTrend(w model.Window, cfg profile.TrendFactor, p polarity) model.FactorScore {
	if cfg.Cap == 0 {
		return disabled(FactorTrend)
	}
	_, set := w.Current()
	broken := brokenTrend(w, cfg.Broken.Days)
	if broken && cfg.Broken.Mode == profile.BrokenVeto {
		return finish(FactorTrend, 0, cfg.Cap, false, fmt.Sprintf("below MA for %d days", cfg.Broken.Days))
	}

	raw := 0.0
	if cfg.Slope != 0 && p.gt(set.MASlope, 0) {
		raw += cfg.Slope
	}
	if s, ok := evalLadder(cfg.Bias, set.Bias); ok {
		raw += s
	}
	if cfg.Pullback != 0 && p.lt(set.Bias, 0) && p.gt(set.MASlope, 0) {
		raw += cfg.Pullback
	}
	if broken && cfg.Broken.Mode == profile.BrokenFloor {
		raw = math.Max(raw, cfg.Broken.Score)
	}
	return finish(FactorTrend, raw, cfg.Cap, false, fmt.Sprintf("bias %+.1f%%", set.Bias))
}

// scoreStochastic scores %K/%D.
func scoreStochastic(w model.Window, cfg profile.StochasticFactor, lb profile.Lookback, p polarity) model.FactorScore {
	if cfg.Cap == 0 {
		return disabled(FactorStochastic)
	}
	_, set := w.Current()
	raw, _ := evalLadder(cfg.Position, set.K)
	cross := false
	if w.Has(1) {
		prev := w.Set(1)
		if p.lt(prev.K, prev.D) && p.gt(set.K, set.D) {
			cross = true
			if s, ok := evalLadder(cfg.Cross, set.K); ok {
				raw += s
			}
		}
	}
	if passivated(w, cfg.Passivation, -p) {
		raw = 0
	}

	div := cfg.Divergence.Enabled() && divergence(w, lb, p, func(s model.IndicatorSet) float64 { return s.K })
	if div {
		raw = applyDivergence(cfg.Divergence, raw, cfg.Cap)
	}
	commentary := fmt.Sprintf("K=%.1f D=%.1f", set.K, set.D)
	if cross {
		commentary += ", cross"
	}
	return finish(FactorStochastic, raw, cfg.Cap, div, commentary)
}

// passivated reports %K pinned beyond the passivation level: the current %K
// and every defined %K of the last Days bars sit beyond it, with %K leading
// %D in the same direction. trend is the direction of the move being faded.
func passivated(w model.Window, cfg profile.Passivation, trend polarity) bool {
	if cfg.Days <= 0 || !w.Has(cfg.Days-1) {
		return false
	}
	if !trend.gt(w.Set(0).K, cfg.Level) {
		return false
	}
	for back := 0; back < cfg.Days; back++ {
		s := w.Set(back)
		if model.Defined(s.K) && !trend.gt(s.K, cfg.Level) {
			return false
		}
		if model.Defined(s.K) && model.Defined(s.D) && !trend.gt(s.K, s.D) {
			return false
		}
	}
	return true
}

// scoreRSI scores the relative strength index.
func scoreRSI(w model.Window, cfg profile.RSIFactor, lb profile.Lookback, p polarity) model.FactorScore {
	if cfg.Cap == 0 {
		return disabled(FactorRSI)
	}
	_, set := w.Current()
	if !model.Defined(set.RSI) {
		return finish(FactorRSI, 0, cfg.Cap, false, "RSI undefined")
	}
	raw, _ := evalLadder(cfg.Position, set.RSI)
	if cfg.MidlineCross != 0 && w.Has(1) {
		prev := w.Set(1).RSI
		if p.le(prev, cfg.Midline) && p.gt(set.RSI, cfg.Midline) {
			raw += cfg.MidlineCross
		}
	}
	div := cfg.Divergence.Enabled() && divergence(w, lb, p, func(s model.IndicatorSet) float64 { return s.RSI })
	if div {
		raw = applyDivergence(cfg.Divergence, raw, cfg.Cap)
	}
	return finish(FactorRSI, raw, cfg.Cap, div, fmt.Sprintf("RSI=%.1f", set.RSI))
}

// scoreMACD scores the MACD histogram.
func scoreMACD(w model.Window, cfg profile.MACDFactor, lb profile.Lookback, p polarity) model.FactorScore {
	if cfg.Cap == 0 {
		return disabled(FactorMACD)
	}
	_, set := w.Current()
	osc := set.OSC
	if !w.Has(1) || !model.Defined(osc) || !model.Defined(w.Set(1).OSC) {
		return finish(FactorMACD, 0, cfg.Cap, false, "no prior histogram")
	}
	prev := w.Set(1).OSC

	converge := 0.0
	ref := prev
	if cfg.ConvergeRef == profile.RefCurrent {
		ref = osc
	}
	if cfg.Converge != 0 && p.lt(ref, 0) && p.gt(osc, prev) {
		converge = cfg.Converge
	}
	cross := 0.0
	if cfg.Cross != 0 && p.lt(prev, 0) && p.gt(osc, 0) {
		cross = cfg.Cross
	}
	raw := converge + cross
	if cfg.Combine == profile.CombineMax {
		raw = math.Max(converge, cross)
	}

	div := false
	if cfg.Divergence.Enabled() && (!cfg.Divergence.SignFilter || p.lt(osc, 0)) {
		div = divergence(w, lb, p, func(s model.IndicatorSet) float64 { return s.OSC })
	}
	if div {
		raw = applyDivergence(cfg.Divergence, raw, cfg.Cap)
	}
	return finish(FactorMACD, raw, cfg.Cap, div, fmt.Sprintf("OSC %.3f -> %.3f", prev, osc))
}

// scoreDMI scores the directional movement system.
func scoreDMI(w model.Window, cfg profile.DMIFactor, p polarity) model.FactorScore {
	if cfg.Cap == 0 {
		return disabled(FactorDMI)
	}
	_, set := w.Current()
	commentary := fmt.Sprintf("+DI=%.1f -DI=%.1f ADX=%.1f", set.PlusDI, set.MinusDI, set.ADX)
	if !p.gt(set.PlusDI, set.MinusDI) {
		return finish(FactorDMI, 0, cfg.Cap, false, commentary)
	}

	raw := cfg.Dominance
	if w.Has(1) {
		prev := w.Set(1)
		if cfg.Cross != 0 && p.le(prev.PlusDI, prev.MinusDI) {
			raw += cfg.Cross
		}
		if set.ADX > prev.ADX {
			switch {
			case set.ADX > cfg.TrendLevel:
				raw += cfg.StrongRising
			case set.ADX < cfg.TrendLevel:
				raw += cfg.WeakRising
			}
		}
	}
	if cfg.ExhaustionLevel > 0 && set.ADX > cfg.ExhaustionLevel {
		raw -= cfg.ExhaustionPenalty
	}
	return finish(FactorDMI, raw, cfg.Cap, false, commentary)
}

// scoreBollinger scores %B.
func scoreBollinger(w model.Window, cfg profile.BollingerFactor, p polarity) model.FactorScore {
	if cfg.Cap == 0 {
		return disabled(FactorBollinger)
	}
	bar, set := w.Current()
	if !model.Defined(set.PctB) {
		return finish(FactorBollinger, 0, cfg.Cap, false, "%B undefined")
	}
	raw, _ := evalLadder(cfg.Position, set.PctB)
	commentary := fmt.Sprintf("%%B=%.2f", set.PctB)

	if mr := cfg.MidRetest; mr.Score != 0 && w.Has(1) {
		prevMid := w.Set(1).BBMid
		if model.Defined(prevMid) && model.Defined(set.BBMid) && set.BBMid != 0 {
			dist := math.Abs((bar.Close - set.BBMid) / set.BBMid)
			if p.gt(set.BBMid, prevMid) && dist < mr.Distance {
				raw = mr.Score
				commentary += ", mid retest"
			}
		}
	}

	if fb := cfg.FalseBreakout; fb.Score != 0 {
		band, extreme := set.BBLower, bar.Low
		if p == sellward {
			band, extreme = set.BBUpper, bar.High
		}
		if p.lt(extreme, band) && p.gt(bar.Close, band) {
			if fb.Mode == profile.BreakoutFloor {
				raw = math.Max(raw, fb.Score)
			} else {
				raw = fb.Score
			}
			commentary += ", false breakout"
		}
	}

	if ex := cfg.Expansion; ex.VolumeRatio > 0 && w.Has(1) && raw > 0 {
		widening := set.BandWidth > w.Set(1).BandWidth
		heavy := model.Defined(set.VolMA5) && bar.Volume > set.VolMA5*ex.VolumeRatio
		if widening && heavy {
			raw = 0
			commentary += ", expansion"
		}
	}
	return finish(FactorBollinger, raw, cfg.Cap, false, commentary)
}
