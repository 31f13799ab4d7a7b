package pipeline

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"SwingScore/internal/calculator"
	"SwingScore/internal/model"
	"SwingScore/internal/profile"
)

var (
	// ErrMalformedBar marks a bar with non-finite prices or high below low.
	ErrMalformedBar = errors.New("malformed bar")
	// ErrOutOfOrder marks a bar whose time does not follow its predecessor.
	ErrOutOfOrder = errors.New("bar out of order")
)

// Indicator periods shared by every profile.
const (
	SlopePeriod      = 60
	SlopeRankPeriod  = 252
	BollingerPeriod  = 20
	BollingerWidth   = 2.0
	FastVolumePeriod = 5
	SlowVolumePeriod = 20
	ATRPeriod        = calculator.WilderPeriod
	DMIPeriod        = calculator.WilderPeriod
	RSIPeriod        = calculator.WilderPeriod
	StochK           = 9
	StochD           = 3
	MACDFast         = 12
	MACDSlow         = 26
	MACDSignal       = 9
)

// Validate checks that bars are finite, consistent and strictly increasing
// in time. The returned error carries the index of the first bad bar.
func Validate(bars []model.OHLCV) error {
	for i, b := range bars {
		if !b.Finite() {
			return fmt.Errorf("bar %d (%s): %w: non-finite value", i, b.Time.Format(DateLayout), ErrMalformedBar)
		}
		if b.High < b.Low {
			return fmt.Errorf("bar %d (%s): %w: high %.4f below low %.4f", i, b.Time.Format(DateLayout), ErrMalformedBar, b.High, b.Low)
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return fmt.Errorf("bar %d (%s): %w", i, b.Time.Format(DateLayout), ErrOutOfOrder)
		}
	}
	return nil
}

// columns collects the per-bar indicator series before they are assembled
// into rows. Each family writes its own fields only.
type columns struct {
	ma, maSlope, bias    []float64
	slope, slopeRank     []float64
	bands                calculator.Bands
	volMA5, volMA20, atr []float64
	retracement          []model.RetracementLevels
	dmi                  calculator.Directional
	rsi                  []float64
	stoch                calculator.Stochastic
	macd                 calculator.MACDLines
}

// Build validates bars and computes every indicator of p for each of them.
// The four indicator families run concurrently; they only read bars.
func Build(bars []model.OHLCV, p *profile.Profile) (*Table, error) {
	if err := Validate(bars); err != nil {
		return nil, err
	}
	closes := model.Closes(bars)
	var c columns

	var g errgroup.Group
	g.Go(func() error { return c.rolling(bars, closes, p.MovingAverage) })
	g.Go(func() error {
		var err error
		c.retracement, err = calculator.RetracementSeries(closes, p.Retracement.Config())
		return err
	})
	g.Go(func() error {
		var err error
		c.dmi, err = calculator.DMI(bars, DMIPeriod)
		return err
	})
	g.Go(func() error { return c.oscillators(bars, closes) })
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compute indicators: %w", err)
	}

	t := NewTable(len(bars))
	for i, b := range bars {
		if err := t.Append(b, c.row(i, b)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (c *columns) rolling(bars []model.OHLCV, closes []float64, maPeriod int) error {
	var err error
	if c.ma, err = calculator.SMA(closes, maPeriod); err != nil {
		return fmt.Errorf("moving average: %w", err)
	}
	c.maSlope = calculator.Diff(c.ma)
	c.bias = calculator.Bias(closes, c.ma)
	if c.slope, err = calculator.RegressionSlope(closes, SlopePeriod); err != nil {
		return fmt.Errorf("regression slope: %w", err)
	}
	if c.slopeRank, err = calculator.PercentileRank(c.slope, SlopeRankPeriod); err != nil {
		return fmt.Errorf("slope rank: %w", err)
	}
	if c.bands, err = calculator.Bollinger(closes, BollingerPeriod, BollingerWidth); err != nil {
		return fmt.Errorf("bollinger: %w", err)
	}
	volumes := model.Volumes(bars)
	if c.volMA5, err = calculator.SMA(volumes, FastVolumePeriod); err != nil {
		return err
	}
	if c.volMA20, err = calculator.SMA(volumes, SlowVolumePeriod); err != nil {
		return err
	}
	if c.atr, err = calculator.ATR(bars, ATRPeriod); err != nil {
		return fmt.Errorf("atr: %w", err)
	}
	return nil
}

func (c *columns) oscillators(bars []model.OHLCV, closes []float64) error {
	var err error
	if c.rsi, err = calculator.RSI(closes, RSIPeriod); err != nil {
		return fmt.Errorf("rsi: %w", err)
	}
	if c.stoch, err = calculator.Stoch(bars, StochK, StochD); err != nil {
		return fmt.Errorf("stochastic: %w", err)
	}
	if c.macd, err = calculator.MACD(closes, MACDFast, MACDSlow, MACDSignal); err != nil {
		return fmt.Errorf("macd: %w", err)
	}
	return nil
}

func (c *columns) row(i int, b model.OHLCV) model.IndicatorSet {
	return model.IndicatorSet{
		Time:        b.Time,
		MA:          c.ma[i],
		MASlope:     c.maSlope[i],
		Bias:        c.bias[i],
		Slope:       c.slope[i],
		SlopeRank:   c.slopeRank[i],
		BBMid:       c.bands.Mid[i],
		BBUpper:     c.bands.Upper[i],
		BBLower:     c.bands.Lower[i],
		PctB:        c.bands.PctB[i],
		BandWidth:   c.bands.BandWidth[i],
		VolMA5:      c.volMA5[i],
		VolMA20:     c.volMA20[i],
		ATR:         c.atr[i],
		PlusDI:      c.dmi.PlusDI[i],
		MinusDI:     c.dmi.MinusDI[i],
		ADX:         c.dmi.ADX[i],
		RSI:         c.rsi[i],
		K:           c.stoch.K[i],
		D:           c.stoch.D[i],
		EMA12:       c.macd.Fast[i],
		EMA26:       c.macd.Slow[i],
		DIF:         c.macd.DIF[i],
		DEA:         c.macd.DEA[i],
		OSC:         c.macd.OSC[i],
		Retracement: c.retracement[i],
	}
}
