package calculator

import "SwingScore/internal/model"

// Stochastic holds the %K and %D lines.
type Stochastic struct {
	K []float64
	D []float64
}

// Stoch computes %K over kPeriod bars and %D as the dPeriod mean of %K.
// %K is undefined when the high-low range of its window is zero, and %D
// needs dPeriod defined %K values.
func Stoch(bars []model.OHLCV, kPeriod, dPeriod int) (Stochastic, error) {
	if kPeriod <= 0 || dPeriod <= 0 {
		return Stochastic{}, ErrPeriod
	}
	n := len(bars)
	highest, err := RollingMax(model.Highs(bars), kPeriod)
	if err != nil {
		return Stochastic{}, err
	}
	lowest, err := RollingMin(model.Lows(bars), kPeriod)
	if err != nil {
		return Stochastic{}, err
	}

	k := undefinedSeries(n)
	for i := kPeriod - 1; i < n; i++ {
		rng := highest[i] - lowest[i]
		if rng == 0 {
			continue
		}
		k[i] = 100 * (bars[i].Close - lowest[i]) / rng
	}

	d := rolling(k, dPeriod, func(win []float64) float64 {
		sum := 0.0
		for _, v := range win {
			if !model.Defined(v) {
				return model.Undefined()
			}
			sum += v
		}
		return sum / float64(len(win))
	})
	return Stochastic{K: k, D: d}, nil
}
