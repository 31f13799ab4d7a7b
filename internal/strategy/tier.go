package strategy

import "SwingScore/internal/model"

// Tier labels.
const (
	TierWatch     = "watch"
	TierNeutral   = "neutral"
	TierScaleIn   = "scale-in"
	TierStrongBuy = "strong-buy"
	TierHold      = "hold"
	TierCaution   = "caution"
	TierLiquidate = "liquidate"
)

// BuyTiers maps buy scores to actions, highest first; a score belongs to
// the first tier whose MinScore it reaches.
var BuyTiers = []struct {
	MinScore float64
	Tier     model.Tier
}{
	{50, model.Tier{Label: TierStrongBuy, Level: 3}},
	{40, model.Tier{Label: TierScaleIn, Level: 2}},
	{20, model.Tier{Label: TierNeutral, Level: 1}},
}

// DefaultBuyTier is the tier for buy scores below 20.
var DefaultBuyTier = model.Tier{Label: TierWatch, Level: 0}

// SellTiers maps sell scores to actions, highest first. The caution tier
// starts strictly above 40.
var SellTiers = []struct {
	MinScore  float64
	Exclusive bool
	Tier      model.Tier
}{
	{55, false, model.Tier{Label: TierLiquidate, Level: 2}},
	{40, true, model.Tier{Label: TierCaution, Level: 1}},
}

// DefaultSellTier is the tier for sell scores of 40 or less.
var DefaultSellTier = model.Tier{Label: TierHold, Level: 0}

// BuyThresholds and SellThresholds are the tier boundaries drawn on charts.
var (
	BuyThresholds  = []float64{20, 40, 50}
	SellThresholds = []float64{40, 55}
)

// BuyTier maps a buy score to its tier.
func BuyTier(score float64) model.Tier {
	for _, t := range BuyTiers {
		if score >= t.MinScore {
			return t.Tier
		}
	}
	return DefaultBuyTier
}

// SellTier maps a sell score to its tier.
func SellTier(score float64) model.Tier {
	for _, t := range SellTiers {
		if score > t.MinScore || (!t.Exclusive && score == t.MinScore) {
			return t.Tier
		}
	}
	return DefaultSellTier
}
