package model

import "time"

// Side selects the buy or the sell half of a scoring profile.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// FactorScore represents a single factor's scoring result.
type FactorScore struct {
	Name       string
	Raw        float64 // before the cap clamp
	Cap        float64
	Score      float64 // contribution to the total
	Divergence bool
	Commentary string
}

// Score is the engine output for one bar.
type Score struct {
	Time        time.Time
	Buy         float64
	Sell        float64
	BuyFactors  []FactorScore
	SellFactors []FactorScore
}

// Factors returns the breakdown of the given side.
func (s Score) Factors(side Side) []FactorScore {
	if side == SideSell {
		return s.SellFactors
	}
	return s.BuyFactors
}

// Tier labels a score range for rendering and alerting.
type Tier struct {
	Label string
	Level int // higher means stronger action
}
