package calculator

// MACDLines holds the moving average convergence/divergence series.
type MACDLines struct {
	Fast []float64 // EMA of closes over the fast period
	Slow []float64 // EMA of closes over the slow period
	DIF  []float64
	DEA  []float64
	OSC  []float64 // histogram, DIF - DEA
}

// EMA computes an exponential moving average with alpha = 2/(period+1),
// seeded at the first value so that every bar is defined.
func EMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrPeriod
	}
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out, nil
	}
	alpha := 2 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out, nil
}

// MACD computes DIF = EMA(fast) - EMA(slow), DEA = EMA(signal) of DIF and
// the histogram DIF - DEA.
func MACD(closes []float64, fast, slow, signal int) (MACDLines, error) {
	f, err := EMA(closes, fast)
	if err != nil {
		return MACDLines{}, err
	}
	s, err := EMA(closes, slow)
	if err != nil {
		return MACDLines{}, err
	}
	dif := make([]float64, len(closes))
	for i := range closes {
		dif[i] = f[i] - s[i]
	}
	dea, err := EMA(dif, signal)
	if err != nil {
		return MACDLines{}, err
	}
	osc := make([]float64, len(closes))
	for i := range closes {
		osc[i] = dif[i] - dea[i]
	}
	return MACDLines{Fast: f, Slow: s, DIF: dif, DEA: dea, OSC: osc}, nil
}
