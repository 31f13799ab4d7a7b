package profile

import (
	"errors"
	"fmt"

	"SwingScore/internal/calculator"
)

// ErrUnknownProfile is returned when a profile name is not registered.
var ErrUnknownProfile = errors.New("unknown profile")

// Divergence lookback offsets relative to the scored bar. The lookback
// covers bars t-22 .. t-3.
const (
	DivergenceStart = -22
	DivergenceEnd   = -2
)

// Profile is a named scoring rule set. It is pure data: the engine in
// package strategy interprets it for both the buy and the sell side.
type Profile struct {
	Name          string      `yaml:"name" toml:"name" json:"name"`
	Description   string      `yaml:"description" toml:"description" json:"description"`
	MovingAverage int         `yaml:"moving_average" toml:"moving_average" json:"moving_average"`
	Retracement   Retracement `yaml:"retracement" toml:"retracement" json:"retracement"`
	Divergence    Lookback    `yaml:"divergence" toml:"divergence" json:"divergence"`
	Buy           Side        `yaml:"buy" toml:"buy" json:"buy"`
	Sell          Side        `yaml:"sell" toml:"sell" json:"sell"`
}

// Retracement configures the band detector.
type Retracement struct {
	Variant        string    `yaml:"variant" toml:"variant" json:"variant"` // anchored | box
	Window         int       `yaml:"window" toml:"window" json:"window"`
	ExtendedWindow int       `yaml:"extended_window" toml:"extended_window" json:"extended_window"`
	Ratios         []float64 `yaml:"ratios" toml:"ratios" json:"ratios"`
	Extensions     []float64 `yaml:"extensions" toml:"extensions" json:"extensions"`
	MinRange       float64   `yaml:"min_range" toml:"min_range" json:"min_range"`
}

// Lookback is a half-open range of bar offsets [Start, End).
type Lookback struct {
	Start int `yaml:"start" toml:"start" json:"start"`
	End   int `yaml:"end" toml:"end" json:"end"`
}

// Side holds the eight factor configurations of one score.
type Side struct {
	Retracement RetracementFactor `yaml:"retracement" toml:"retracement" json:"retracement"`
	Slope       SlopeFactor       `yaml:"slope" toml:"slope" json:"slope"`
	Trend       TrendFactor       `yaml:"trend" toml:"trend" json:"trend"`
	Stochastic  StochasticFactor  `yaml:"stochastic" toml:"stochastic" json:"stochastic"`
	RSI         RSIFactor         `yaml:"rsi" toml:"rsi" json:"rsi"`
	MACD        MACDFactor        `yaml:"macd" toml:"macd" json:"macd"`
	DMI         DMIFactor         `yaml:"dmi" toml:"dmi" json:"dmi"`
	Bollinger   BollingerFactor   `yaml:"bollinger" toml:"bollinger" json:"bollinger"`
}

// Comparison operators used by tiers and zones.
const (
	OpLT = "lt"
	OpLE = "le"
	OpGT = "gt"
	OpGE = "ge"
)

// Tier is one rung of a Ladder. When Linear is set the tier scores
// LinearMap(v, Linear[0], Linear[1], Linear[2], Linear[3]) instead of Score.
type Tier struct {
	Op     string    `yaml:"op" toml:"op" json:"op"`
	Value  float64   `yaml:"value" toml:"value" json:"value"`
	Score  float64   `yaml:"score" toml:"score" json:"score"`
	Linear []float64 `yaml:"linear,omitempty" toml:"linear,omitempty" json:"linear,omitempty"`
}

// Ladder is an ordered tier list; the first matching tier wins.
type Ladder []Tier

// Zone compares a bar price with a named retracement level. When Span is
// set, the score is interpolated between the prices of Span[0] and Span[1]
// onto Out[0]..Out[1].
type Zone struct {
	Price string    `yaml:"price" toml:"price" json:"price"` // close | high | low
	Op    string    `yaml:"op" toml:"op" json:"op"`
	Level string    `yaml:"level" toml:"level" json:"level"`
	Score float64   `yaml:"score" toml:"score" json:"score"`
	Span  []string  `yaml:"span,omitempty" toml:"span,omitempty" json:"span,omitempty"`
	Out   []float64 `yaml:"out,omitempty" toml:"out,omitempty" json:"out,omitempty"`
}

// RetracementFactor scores the close against the band.
type RetracementFactor struct {
	Cap       float64         `yaml:"cap" toml:"cap" json:"cap"`
	Zones     []Zone          `yaml:"zones" toml:"zones" json:"zones"`
	Overrides []Zone          `yaml:"overrides,omitempty" toml:"overrides,omitempty" json:"overrides,omitempty"`
	Candle    CandleModifiers `yaml:"candle" toml:"candle" json:"candle"`
}

// CandleModifiers adjust the retracement score from the shape of the bar.
// A zero award disables the modifier.
type CandleModifiers struct {
	Reversal          float64 `yaml:"reversal" toml:"reversal" json:"reversal"`
	Shadow            float64 `yaml:"shadow" toml:"shadow" json:"shadow"`
	ShadowLevel       string  `yaml:"shadow_level" toml:"shadow_level" json:"shadow_level"`
	VolumeContraction float64 `yaml:"volume_contraction" toml:"volume_contraction" json:"volume_contraction"`
	VolumeRatio       float64 `yaml:"volume_ratio" toml:"volume_ratio" json:"volume_ratio"`
	WideBody          float64 `yaml:"wide_body" toml:"wide_body" json:"wide_body"` // penalty
	WideBodyATR       float64 `yaml:"wide_body_atr" toml:"wide_body_atr" json:"wide_body_atr"`
}

// SlopeFactor scores the slope percentile.
type SlopeFactor struct {
	Cap      float64 `yaml:"cap" toml:"cap" json:"cap"`
	Rank     Ladder  `yaml:"rank" toml:"rank" json:"rank"`
	Momentum float64 `yaml:"momentum" toml:"momentum" json:"momentum"`
}

// Broken-trend modes.
const (
	BrokenVeto  = "veto"
	BrokenFloor = "floor"
)

// BrokenRule fires when the last Days closes are all below the MA.
type BrokenRule struct {
	Days  int     `yaml:"days" toml:"days" json:"days"`
	Mode  string  `yaml:"mode" toml:"mode" json:"mode"`
	Score float64 `yaml:"score" toml:"score" json:"score"`
}

// TrendFactor scores the close against its moving average.
type TrendFactor struct {
	Cap      float64    `yaml:"cap" toml:"cap" json:"cap"`
	Slope    float64    `yaml:"slope" toml:"slope" json:"slope"`
	Bias     Ladder     `yaml:"bias" toml:"bias" json:"bias"`
	Pullback float64    `yaml:"pullback" toml:"pullback" json:"pullback"`
	Broken   BrokenRule `yaml:"broken" toml:"broken" json:"broken"`
}

// Divergence modes.
const (
	DivergenceOverride = "override"
	DivergenceBonus    = "bonus"
)

// DivergenceRule says how a price/indicator divergence affects a factor.
// SignFilter additionally requires the indicator to sit on the side of zero
// opposite to the trade (below zero for buys).
type DivergenceRule struct {
	Mode       string  `yaml:"mode" toml:"mode" json:"mode"`
	Bonus      float64 `yaml:"bonus" toml:"bonus" json:"bonus"`
	SignFilter bool    `yaml:"sign_filter" toml:"sign_filter" json:"sign_filter"`
}

// Enabled reports whether the rule is active.
func (d DivergenceRule) Enabled() bool { return d.Mode != "" }

// Passivation zeroes the stochastic factor while %K stays pinned beyond
// Level for Days bars with %K on the trending side of %D.
type Passivation struct {
	Level float64 `yaml:"level" toml:"level" json:"level"`
	Days  int     `yaml:"days" toml:"days" json:"days"`
}

// StochasticFactor scores %K/%D.
type StochasticFactor struct {
	Cap         float64        `yaml:"cap" toml:"cap" json:"cap"`
	Position    Ladder         `yaml:"position" toml:"position" json:"position"`
	Cross       Ladder         `yaml:"cross" toml:"cross" json:"cross"`
	Divergence  DivergenceRule `yaml:"divergence" toml:"divergence" json:"divergence"`
	Passivation Passivation    `yaml:"passivation" toml:"passivation" json:"passivation"`
}

// RSIFactor scores the relative strength index.
type RSIFactor struct {
	Cap          float64        `yaml:"cap" toml:"cap" json:"cap"`
	Position     Ladder         `yaml:"position" toml:"position" json:"position"`
	Midline      float64        `yaml:"midline" toml:"midline" json:"midline"`
	MidlineCross float64        `yaml:"midline_cross" toml:"midline_cross" json:"midline_cross"`
	Divergence   DivergenceRule `yaml:"divergence" toml:"divergence" json:"divergence"`
}

// MACD convergence reference bars and combine modes.
const (
	RefPrevious = "previous"
	RefCurrent  = "current"
	CombineSum  = "sum"
	CombineMax  = "max"
)

// MACDFactor scores the MACD histogram.
type MACDFactor struct {
	Cap         float64        `yaml:"cap" toml:"cap" json:"cap"`
	Converge    float64        `yaml:"converge" toml:"converge" json:"converge"`
	ConvergeRef string         `yaml:"converge_ref" toml:"converge_ref" json:"converge_ref"`
	Cross       float64        `yaml:"cross" toml:"cross" json:"cross"`
	Combine     string         `yaml:"combine" toml:"combine" json:"combine"`
	Divergence  DivergenceRule `yaml:"divergence" toml:"divergence" json:"divergence"`
}

// DMIFactor scores the directional movement system.
type DMIFactor struct {
	Cap               float64 `yaml:"cap" toml:"cap" json:"cap"`
	Dominance         float64 `yaml:"dominance" toml:"dominance" json:"dominance"`
	Cross             float64 `yaml:"cross" toml:"cross" json:"cross"`
	TrendLevel        float64 `yaml:"trend_level" toml:"trend_level" json:"trend_level"`
	StrongRising      float64 `yaml:"strong_rising" toml:"strong_rising" json:"strong_rising"`
	WeakRising        float64 `yaml:"weak_rising" toml:"weak_rising" json:"weak_rising"`
	ExhaustionLevel   float64 `yaml:"exhaustion_level" toml:"exhaustion_level" json:"exhaustion_level"`
	ExhaustionPenalty float64 `yaml:"exhaustion_penalty" toml:"exhaustion_penalty" json:"exhaustion_penalty"`
}

// False-breakout modes.
const (
	BreakoutSet   = "set"
	BreakoutFloor = "floor"
)

// MidRetest awards Score when price sits within Distance of a rising mid band.
type MidRetest struct {
	Score    float64 `yaml:"score" toml:"score" json:"score"`
	Distance float64 `yaml:"distance" toml:"distance" json:"distance"`
}

// FalseBreakout fires when the bar pierces the outer band but closes inside.
type FalseBreakout struct {
	Score float64 `yaml:"score" toml:"score" json:"score"`
	Mode  string  `yaml:"mode" toml:"mode" json:"mode"`
}

// Expansion zeroes the factor when the bands widen on heavy volume.
type Expansion struct {
	VolumeRatio float64 `yaml:"volume_ratio" toml:"volume_ratio" json:"volume_ratio"`
}

// BollingerFactor scores %B.
type BollingerFactor struct {
	Cap           float64       `yaml:"cap" toml:"cap" json:"cap"`
	Position      Ladder        `yaml:"position" toml:"position" json:"position"`
	MidRetest     MidRetest     `yaml:"mid_retest" toml:"mid_retest" json:"mid_retest"`
	FalseBreakout FalseBreakout `yaml:"false_breakout" toml:"false_breakout" json:"false_breakout"`
	Expansion     Expansion     `yaml:"expansion" toml:"expansion" json:"expansion"`
}

// LevelNames lists the level names the retracement configuration produces,
// including the anchors "high" and "low".
func (r Retracement) LevelNames() map[string]bool {
	names := map[string]bool{"high": true, "low": true}
	for _, ratio := range r.Ratios {
		names[calculator.LevelName(ratio, false)] = true
	}
	for _, ratio := range r.Extensions {
		names[calculator.LevelName(ratio, true)] = true
	}
	return names
}

// Config converts the section into detector parameters.
func (r Retracement) Config() calculator.RetracementConfig {
	return calculator.RetracementConfig{
		Variant:        r.Variant,
		Window:         r.Window,
		ExtendedWindow: r.ExtendedWindow,
		Ratios:         r.Ratios,
		Extensions:     r.Extensions,
		MinRange:       r.MinRange,
	}
}

// Validate checks the profile for structural errors.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	if p.MovingAverage <= 0 {
		return fmt.Errorf("profile %s: moving_average must be positive", p.Name)
	}
	if err := p.Retracement.validate(); err != nil {
		return fmt.Errorf("profile %s: %w", p.Name, err)
	}
	if p.Divergence.Start != DivergenceStart || p.Divergence.End != DivergenceEnd {
		return fmt.Errorf("profile %s: divergence lookback must be [%d, %d), got [%d, %d)",
			p.Name, DivergenceStart, DivergenceEnd, p.Divergence.Start, p.Divergence.End)
	}
	levels := p.Retracement.LevelNames()
	if err := p.Buy.validate(levels); err != nil {
		return fmt.Errorf("profile %s: buy: %w", p.Name, err)
	}
	if err := p.Sell.validate(levels); err != nil {
		return fmt.Errorf("profile %s: sell: %w", p.Name, err)
	}
	return nil
}

func (r Retracement) validate() error {
	switch r.Variant {
	case calculator.VariantAnchored, calculator.VariantBox:
	default:
		return fmt.Errorf("retracement.variant %q must be anchored or box", r.Variant)
	}
	if r.Window < 5 {
		return fmt.Errorf("retracement.window must be at least 5")
	}
	for _, v := range r.Ratios {
		if v <= 0 || v >= 1 {
			return fmt.Errorf("retracement ratio %v outside (0, 1)", v)
		}
	}
	for _, v := range r.Extensions {
		if v <= 1 {
			return fmt.Errorf("retracement extension %v must exceed 1", v)
		}
	}
	if r.MinRange < 0 {
		return fmt.Errorf("retracement.min_range must not be negative")
	}
	return nil
}

func (s Side) validate(levels map[string]bool) error {
	caps := map[string]float64{
		"retracement": s.Retracement.Cap,
		"slope":       s.Slope.Cap,
		"trend":       s.Trend.Cap,
		"stochastic":  s.Stochastic.Cap,
		"rsi":         s.RSI.Cap,
		"macd":        s.MACD.Cap,
		"dmi":         s.DMI.Cap,
		"bollinger":   s.Bollinger.Cap,
	}
	for name, c := range caps {
		if c < 0 || c > 100 {
			return fmt.Errorf("%s.cap %v outside [0, 100]", name, c)
		}
	}

	for i, z := range append(append([]Zone{}, s.Retracement.Zones...), s.Retracement.Overrides...) {
		if err := z.validate(levels); err != nil {
			return fmt.Errorf("retracement zone %d: %w", i, err)
		}
	}
	if lvl := s.Retracement.Candle.ShadowLevel; lvl != "" && !levels[lvl] {
		return fmt.Errorf("retracement.candle.shadow_level %q is not produced by the detector", lvl)
	}

	ladders := map[string]Ladder{
		"slope.rank":          s.Slope.Rank,
		"trend.bias":          s.Trend.Bias,
		"stochastic.position": s.Stochastic.Position,
		"stochastic.cross":    s.Stochastic.Cross,
		"rsi.position":        s.RSI.Position,
		"bollinger.position":  s.Bollinger.Position,
	}
	for name, l := range ladders {
		if err := l.validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	switch s.Trend.Broken.Mode {
	case "", BrokenVeto, BrokenFloor:
	default:
		return fmt.Errorf("trend.broken.mode %q must be veto or floor", s.Trend.Broken.Mode)
	}
	if s.Trend.Broken.Days < 0 {
		return fmt.Errorf("trend.broken.days must not be negative")
	}
	switch s.MACD.ConvergeRef {
	case "", RefPrevious, RefCurrent:
	default:
		return fmt.Errorf("macd.converge_ref %q must be previous or current", s.MACD.ConvergeRef)
	}
	switch s.MACD.Combine {
	case "", CombineSum, CombineMax:
	default:
		return fmt.Errorf("macd.combine %q must be sum or max", s.MACD.Combine)
	}
	switch s.Bollinger.FalseBreakout.Mode {
	case "", BreakoutSet, BreakoutFloor:
	default:
		return fmt.Errorf("bollinger.false_breakout.mode %q must be set or floor", s.Bollinger.FalseBreakout.Mode)
	}
	for name, d := range map[string]DivergenceRule{
		"stochastic": s.Stochastic.Divergence,
		"rsi":        s.RSI.Divergence,
		"macd":       s.MACD.Divergence,
	} {
		switch d.Mode {
		case "", DivergenceOverride, DivergenceBonus:
		default:
			return fmt.Errorf("%s.divergence.mode %q must be override or bonus", name, d.Mode)
		}
	}
	return nil
}

func (l Ladder) validate() error {
	for i, t := range l {
		if !validOp(t.Op) {
			return fmt.Errorf("tier %d: unknown op %q", i, t.Op)
		}
		if t.Linear != nil && len(t.Linear) != 4 {
			return fmt.Errorf("tier %d: linear needs [in_min, in_max, out_min, out_max]", i)
		}
	}
	return nil
}

func (z Zone) validate(levels map[string]bool) error {
	switch z.Price {
	case "close", "high", "low":
	default:
		return fmt.Errorf("price %q must be close, high or low", z.Price)
	}
	if !validOp(z.Op) {
		return fmt.Errorf("unknown op %q", z.Op)
	}
	if !levels[z.Level] {
		return fmt.Errorf("level %q is not produced by the detector", z.Level)
	}
	if z.Span == nil && z.Out == nil {
		return nil
	}
	if len(z.Span) != 2 || len(z.Out) != 2 {
		return fmt.Errorf("span and out must both hold two entries")
	}
	for _, name := range z.Span {
		if !levels[name] {
			return fmt.Errorf("span level %q is not produced by the detector", name)
		}
	}
	return nil
}

func validOp(op string) bool {
	switch op {
	case OpLT, OpLE, OpGT, OpGE:
		return true
	}
	return false
}
