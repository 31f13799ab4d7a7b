package calculator

import (
	"math"

	"SwingScore/internal/model"
)

// trueRange is max(high-low, |high-prevClose|, |low-prevClose|).
func trueRange(cur, prev model.OHLCV) float64 {
	return math.Max(cur.High-cur.Low, math.Max(math.Abs(cur.High-prev.Close), math.Abs(cur.Low-prev.Close)))
}

// TrueRange returns the true range of every bar; bar 0 has no predecessor
// and contributes 0.
func TrueRange(bars []model.OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		out[i] = trueRange(bars[i], bars[i-1])
	}
	return out
}

// ATR computes, for every bar i >= period, a Wilder average of the true
// ranges found inside the bar's own trailing window of period bars. The
// average is reseeded on every bar from the first true range of that window
// instead of being carried forward, so consecutive values are not linked
// by the usual recurrence.
func ATR(bars []model.OHLCV, period int) ([]float64, error) {
	if period <= 1 {
		return nil, ErrPeriod
	}
	out := undefinedSeries(len(bars))
	for i := period; i < len(bars); i++ {
		win := bars[i-period+1 : i+1]
		trs := make([]float64, 0, period-1)
		for j := 1; j < len(win); j++ {
			trs = append(trs, trueRange(win[j], win[j-1]))
		}
		smoothed := Wilder(trs, period)
		out[i] = smoothed[len(smoothed)-1]
	}
	return out, nil
}
