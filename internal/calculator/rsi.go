package calculator

// RSI computes the relative strength index. Gains and losses start at bar 0
// with a zero move and are Wilder-smoothed from there; the first period-1
// values are undefined. A window without losses reads 100.
func RSI(closes []float64, period int) ([]float64, error) {
	if period <= 1 {
		return nil, ErrPeriod
	}
	n := len(closes)
	up := make([]float64, n)
	down := make([]float64, n)
	for i := 1; i < n; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			up[i] = d
		} else {
			down[i] = -d
		}
	}
	avgUp := Wilder(up, period)
	avgDown := Wilder(down, period)

	out := undefinedSeries(n)
	for i := period - 1; i < n; i++ {
		if avgDown[i] == 0 {
			out[i] = 100
			continue
		}
		rs := avgUp[i] / avgDown[i]
		out[i] = 100 - 100/(1+rs)
	}
	return out, nil
}
