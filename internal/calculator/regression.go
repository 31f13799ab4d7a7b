package calculator

import (
	talib "github.com/markcheno/go-talib"

	"SwingScore/internal/model"
)

// RegressionSlope fits an ordinary least-squares line through each full
// trailing window of closes against the positions 0..period-1 and returns
// its slope.
func RegressionSlope(closes []float64, period int) ([]float64, error) {
	if period <= 1 {
		return nil, ErrPeriod
	}
	out := undefinedSeries(len(closes))
	if len(closes) < period {
		return out, nil
	}
	slope := talib.LinearRegSlope(closes, period)
	copy(out[period-1:], slope[period-1:])
	return out, nil
}

// PercentileRank ranks each value among the trailing window of period values
// that ends with it, as a percentage. Ties share their average rank, so the
// result is (less + (equal+1)/2) / period * 100. The window must hold period
// defined values.
func PercentileRank(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrPeriod
	}
	out := undefinedSeries(len(values))
	for i := period - 1; i < len(values); i++ {
		cur := values[i]
		if !model.Defined(cur) {
			continue
		}
		var less, equal int
		full := true
		for _, v := range values[i-period+1 : i+1] {
			if !model.Defined(v) {
				full = false
				break
			}
			switch {
			case v < cur:
				less++
			case v == cur:
				equal++
			}
		}
		if !full {
			continue
		}
		rank := float64(less) + float64(equal+1)/2
		out[i] = rank / float64(period) * 100
	}
	return out, nil
}
