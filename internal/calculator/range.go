package calculator

import talib "github.com/markcheno/go-talib"

// RollingMax returns the highest value of each full trailing window.
func RollingMax(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrPeriod
	}
	out := undefinedSeries(len(values))
	if len(values) < period {
		return out, nil
	}
	mx := talib.Max(values, period)
	copy(out[period-1:], mx[period-1:])
	return out, nil
}

// RollingMin returns the lowest value of each full trailing window.
func RollingMin(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrPeriod
	}
	out := undefinedSeries(len(values))
	if len(values) < period {
		return out, nil
	}
	mn := talib.Min(values, period)
	copy(out[period-1:], mn[period-1:])
	return out, nil
}
