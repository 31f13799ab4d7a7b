package calculator

import "math"

// bandEpsilon keeps %B and bandwidth finite when the window is flat.
const bandEpsilon = 1e-10

// Bands holds a Bollinger band series.
type Bands struct {
	Mid       []float64
	Upper     []float64
	Lower     []float64
	PctB      []float64
	BandWidth []float64
}

// Bollinger computes mean ± width·σ over each trailing window of closes,
// σ being the sample standard deviation.
func Bollinger(closes []float64, period int, width float64) (Bands, error) {
	if period <= 1 {
		return Bands{}, ErrPeriod
	}
	mid, err := SMA(closes, period)
	if err != nil {
		return Bands{}, err
	}
	std := rolling(closes, period, sampleStdDev)

	n := len(closes)
	b := Bands{
		Mid:       mid,
		Upper:     undefinedSeries(n),
		Lower:     undefinedSeries(n),
		PctB:      undefinedSeries(n),
		BandWidth: undefinedSeries(n),
	}
	for i := period - 1; i < n; i++ {
		upper := mid[i] + width*std[i]
		lower := mid[i] - width*std[i]
		b.Upper[i] = upper
		b.Lower[i] = lower
		b.PctB[i] = (closes[i] - lower) / (upper - lower + bandEpsilon)
		b.BandWidth[i] = (upper - lower) / (mid[i] + bandEpsilon)
	}
	return b, nil
}

func sampleStdDev(win []float64) float64 {
	mean := 0.0
	for _, v := range win {
		mean += v
	}
	mean /= float64(len(win))
	ss := 0.0
	for _, v := range win {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(win)-1))
}
