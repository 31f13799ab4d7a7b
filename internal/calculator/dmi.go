package calculator

import (
	"math"

	"SwingScore/internal/model"
)

// Directional holds the directional movement system of a series.
type Directional struct {
	TR      []float64 // smoothed true range
	PlusDM  []float64 // smoothed +DM
	MinusDM []float64 // smoothed -DM
	PlusDI  []float64
	MinusDI []float64
	DX      []float64
	ADX     []float64
}

// DMI computes +DI, -DI and ADX. The smoothing runs continuously from the
// first bar of the series; bar 0 contributes zero movement.
func DMI(bars []model.OHLCV, period int) (Directional, error) {
	if period <= 1 {
		return Directional{}, ErrPeriod
	}
	n := len(bars)
	tr := make([]float64, n)
	pdm := make([]float64, n)
	mdm := make([]float64, n)
	for i := 1; i < n; i++ {
		tr[i] = trueRange(bars[i], bars[i-1])
		up := bars[i].High - bars[i-1].High
		down := bars[i-1].Low - bars[i].Low
		if up > down && up > 0 {
			pdm[i] = up
		}
		if down > up && down > 0 {
			mdm[i] = down
		}
	}

	d := Directional{
		TR:      Wilder(tr, period),
		PlusDM:  Wilder(pdm, period),
		MinusDM: Wilder(mdm, period),
		PlusDI:  make([]float64, n),
		MinusDI: make([]float64, n),
		DX:      make([]float64, n),
	}
	for i := 0; i < n; i++ {
		d.PlusDI[i] = 100 * d.PlusDM[i] / nonZero(d.TR[i])
		d.MinusDI[i] = 100 * d.MinusDM[i] / nonZero(d.TR[i])
		d.DX[i] = 100 * math.Abs(d.PlusDI[i]-d.MinusDI[i]) / nonZero(d.PlusDI[i]+d.MinusDI[i])
	}
	d.ADX = Wilder(d.DX, period)
	return d, nil
}

// nonZero substitutes 1 for a zero divisor.
func nonZero(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
