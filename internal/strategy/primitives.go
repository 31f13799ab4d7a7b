package strategy

import (
	"math"

	"SwingScore/internal/model"
	"SwingScore/internal/profile"
)

// LinearMap scales v from [inMin, inMax] onto [outMin, outMax]. v is first
// clamped to the input domain; a degenerate domain maps to outMin.
func LinearMap(v, inMin, inMax, outMin, outMax float64) float64 {
	if inMax == inMin {
		return outMin
	}
	lo, hi := math.Min(inMin, inMax), math.Max(inMin, inMax)
	v = math.Max(math.Min(v, hi), lo)
	return outMin + (v-inMin)*(outMax-outMin)/(inMax-inMin)
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// compare applies a profile operator. Any comparison involving an undefined
// value is false.
func compare(op string, a, b float64) bool {
	switch op {
	case profile.OpLT:
		return a < b
	case profile.OpLE:
		return a <= b
	case profile.OpGT:
		return a > b
	case profile.OpGE:
		return a >= b
	}
	return false
}

// evalLadder returns the score of the first tier v satisfies.
func evalLadder(l profile.Ladder, v float64) (float64, bool) {
	if !model.Defined(v) {
		return 0, false
	}
	for _, t := range l {
		if !compare(t.Op, v, t.Value) {
			continue
		}
		if len(t.Linear) == 4 {
			return LinearMap(v, t.Linear[0], t.Linear[1], t.Linear[2], t.Linear[3]), true
		}
		return t.Score, true
	}
	return 0, false
}

// polarity orients a comparison towards the side being scored: +1 for buys,
// -1 for sells. For a buy, gt(a, b) is a > b; for a sell it is a < b.
type polarity float64

const (
	buyward  polarity = 1
	sellward polarity = -1
)

func (p polarity) gt(a, b float64) bool { return float64(p)*(a-b) > 0 }
func (p polarity) lt(a, b float64) bool { return float64(p)*(a-b) < 0 }
func (p polarity) le(a, b float64) bool { return float64(p)*(a-b) <= 0 }

// extreme returns the lowest defined value for buys and the highest for sells.
func (p polarity) extreme(values []float64) (float64, bool) {
	best, found := 0.0, false
	for _, v := range values {
		if !model.Defined(v) {
			continue
		}
		if !found || p.lt(v, best) {
			best, found = v, true
		}
	}
	return best, found
}

// divergence reports a price/indicator divergence at the current bar of w.
// For buys the close must undercut the lowest close of the lookback while the
// indicator holds above its lowest lookback value; sells mirror this with
// highs. Undefined lookback values are skipped.
func divergence(w model.Window, lb profile.Lookback, p polarity, indicator func(model.IndicatorSet) float64) bool {
	from, to := -lb.End+1, -lb.Start
	if !w.Has(to) {
		return false
	}
	closes := make([]float64, 0, to-from+1)
	values := make([]float64, 0, to-from+1)
	for back := from; back <= to; back++ {
		closes = append(closes, w.Bar(back).Close)
		values = append(values, indicator(w.Set(back)))
	}
	bar, set := w.Current()
	cur := indicator(set)
	if !model.Defined(cur) {
		return false
	}
	extClose, ok := p.extreme(closes)
	if !ok {
		return false
	}
	extValue, ok := p.extreme(values)
	if !ok {
		return false
	}
	return p.lt(bar.Close, extClose) && p.gt(cur, extValue)
}

// brokenTrend reports whether each of the last days closes sits below its
// moving average.
func brokenTrend(w model.Window, days int) bool {
	if days <= 0 || !w.Has(days-1) {
		return false
	}
	for back := 0; back < days; back++ {
		if !(w.Bar(back).Close < w.Set(back).MA) {
			return false
		}
	}
	return true
}

// pricePoint selects a bar price by name.
func pricePoint(bar model.OHLCV, name string) float64 {
	switch name {
	case "high":
		return bar.High
	case "low":
		return bar.Low
	default:
		return bar.Close
	}
}
