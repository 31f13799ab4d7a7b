package calculator

import (
	"errors"
	"math"

	talib "github.com/markcheno/go-talib"

	"SwingScore/internal/model"
)

// ErrPeriod is returned when a window length is not positive.
var ErrPeriod = errors.New("period must be positive")

// SMA computes the simple moving average series of values. Entries before
// the first full window are undefined.
func SMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrPeriod
	}
	out := undefinedSeries(len(values))
	if len(values) < period {
		return out, nil
	}
	sma := talib.Sma(values, period)
	copy(out[period-1:], sma[period-1:])
	return out, nil
}

// Diff returns values[i] - values[i-1]; the first entry is undefined.
func Diff(values []float64) []float64 {
	out := undefinedSeries(len(values))
	for i := 1; i < len(values); i++ {
		out[i] = values[i] - values[i-1]
	}
	return out
}

// Bias returns the percentage distance of each close from its moving average.
func Bias(closes, ma []float64) []float64 {
	out := undefinedSeries(len(closes))
	for i := range closes {
		if model.Defined(ma[i]) && ma[i] != 0 {
			out[i] = (closes[i] - ma[i]) / ma[i] * 100
		}
	}
	return out
}

func undefinedSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// rolling applies fn to every full trailing window of values.
func rolling(values []float64, period int, fn func(win []float64) float64) []float64 {
	out := undefinedSeries(len(values))
	for i := period - 1; i < len(values); i++ {
		out[i] = fn(values[i-period+1 : i+1])
	}
	return out
}
