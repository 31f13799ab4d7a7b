package calculator

// WilderPeriod is the smoothing length shared by TR, ±DM, ADX, ATR and RSI.
const WilderPeriod = 14

// Wilder smooths seq with s[0] = seq[0] and s[i] = (s[i-1]*(n-1) + seq[i]) / n.
// It is a pure scan: the same prefix always yields the same output prefix.
func Wilder(seq []float64, n int) []float64 {
	out := make([]float64, len(seq))
	if len(seq) == 0 {
		return out
	}
	out[0] = seq[0]
	w := float64(n)
	for i := 1; i < len(seq); i++ {
		out[i] = (out[i-1]*(w-1) + seq[i]) / w
	}
	return out
}
