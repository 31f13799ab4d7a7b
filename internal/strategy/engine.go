package strategy

import (
	"SwingScore/internal/model"
	"SwingScore/internal/profile"
)

// MaxScore bounds both the buy and the sell total.
const MaxScore = 100

// Engine scores windows with one profile. It holds no state besides the
// profile, so a single Engine may score bars concurrently and in any order.
type Engine struct {
	profile *profile.Profile
}

// NewEngine creates an engine for p.
func NewEngine(p *profile.Profile) *Engine {
	return &Engine{profile: p}
}

// Profile returns the profile the engine scores with.
func (e *Engine) Profile() *profile.Profile { return e.profile }

// Score computes the buy and sell scores of the current bar of w.
func (e *Engine) Score(w model.Window) model.Score {
	if w.Len() == 0 {
		return model.Score{}
	}
	bar, _ := w.Current()
	buy, buyFactors := e.side(w, e.profile.Buy, buyward)
	sell, sellFactors := e.side(w, e.profile.Sell, sellward)
	return model.Score{
		Time:        bar.Time,
		Buy:         buy,
		Sell:        sell,
		BuyFactors:  buyFactors,
		SellFactors: sellFactors,
	}
}

func (e *Engine) side(w model.Window, cfg profile.Side, p polarity) (float64, []model.FactorScore) {
	lb := e.profile.Divergence
	factors := []model.FactorScore{
		scoreRetracement(w, cfg.Retracement, p),
		scoreSlope(w, cfg.Slope, p),
		scoreTrend(w, cfg.Trend, p),
		scoreStochastic(w, cfg.Stochastic, lb, p),
		scoreRSI(w, cfg.RSI, lb, p),
		scoreMACD(w, cfg.MACD, lb, p),
		scoreDMI(w, cfg.DMI, p),
		scoreBollinger(w, cfg.Bollinger, p),
	}
	total := 0.0
	for _, f := range factors {
		total += f.Score
	}
	return clamp(total, 0, MaxScore), factors
}
