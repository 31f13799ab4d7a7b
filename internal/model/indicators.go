package model

import (
	"math"
	"time"
)

// Undefined is the sentinel for an indicator whose trailing window is not yet full.
func Undefined() float64 { return math.NaN() }

// Defined reports whether v carries a value.
func Defined(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Level is one retracement or extension price.
type Level struct {
	Name  string
	Ratio float64
	Price float64
}

// RetracementLevels holds the band levels detected for one bar.
// When Valid is false no level may contribute to scoring.
type RetracementLevels struct {
	AnchorHigh float64
	AnchorLow  float64
	Levels     []Level
	Valid      bool
}

// Level returns the price of the named level, or Undefined when the
// band is invalid or the level is not produced by the variant.
// The name "high" resolves to the anchor high.
func (r RetracementLevels) Level(name string) float64 {
	if !r.Valid {
		return Undefined()
	}
	if name == "high" {
		return r.AnchorHigh
	}
	if name == "low" {
		return r.AnchorLow
	}
	for _, l := range r.Levels {
		if l.Name == name {
			return l.Price
		}
	}
	return Undefined()
}

// IndicatorSet holds every indicator computed for one bar. Values are
// causal: they depend only on bars at or before Time.
type IndicatorSet struct {
	Time time.Time

	MA      float64
	MASlope float64
	Bias    float64

	Slope     float64 // OLS slope of the trailing closes
	SlopeRank float64 // percentile of Slope over its trailing history, 0..100

	BBMid     float64
	BBUpper   float64
	BBLower   float64
	PctB      float64
	BandWidth float64

	VolMA5  float64
	VolMA20 float64
	ATR     float64

	PlusDI  float64
	MinusDI float64
	ADX     float64

	RSI float64
	K   float64
	D   float64

	EMA12 float64
	EMA26 float64
	DIF   float64
	DEA   float64
	OSC   float64

	Retracement RetracementLevels
}

// Values flattens the set into name/value pairs for exporters.
func (s IndicatorSet) Values() map[string]float64 {
	out := map[string]float64{
		"ma":         s.MA,
		"ma_slope":   s.MASlope,
		"bias":       s.Bias,
		"slope":      s.Slope,
		"slope_rank": s.SlopeRank,
		"bb_mid":     s.BBMid,
		"bb_upper":   s.BBUpper,
		"bb_lower":   s.BBLower,
		"pct_b":      s.PctB,
		"bandwidth":  s.BandWidth,
		"vol_ma5":    s.VolMA5,
		"vol_ma20":   s.VolMA20,
		"atr":        s.ATR,
		"plus_di":    s.PlusDI,
		"minus_di":   s.MinusDI,
		"adx":        s.ADX,
		"rsi":        s.RSI,
		"k":          s.K,
		"d":          s.D,
		"ema12":      s.EMA12,
		"ema26":      s.EMA26,
		"dif":        s.DIF,
		"dea":        s.DEA,
		"osc":        s.OSC,
	}
	r := s.Retracement
	for _, l := range r.Levels {
		out["fibo_"+l.Name] = r.Level(l.Name)
	}
	if r.Valid {
		out["fibo_high"] = r.AnchorHigh
		out["fibo_low"] = r.AnchorLow
	}
	return out
}
