package strategy

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"SwingScore/internal/calculator"
	"SwingScore/internal/model"
	"SwingScore/internal/profile"
)

func loadProfile(t *testing.T, name string) *profile.Profile {
	t.Helper()
	reg, err := profile.Load("", profile.Swing, nil)
	if err != nil {
		t.Fatalf("load profiles: %v", err)
	}
	p, err := reg.Get(name)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func blankSet() model.IndicatorSet {
	nan := math.NaN()
	return model.IndicatorSet{
		MA: nan, MASlope: nan, Bias: nan,
		Slope: nan, SlopeRank: nan,
		BBMid: nan, BBUpper: nan, BBLower: nan, PctB: nan, BandWidth: nan,
		VolMA5: nan, VolMA20: nan, ATR: nan,
		PlusDI: nan, MinusDI: nan, ADX: nan,
		RSI: nan, K: nan, D: nan,
		EMA12: nan, EMA26: nan, DIF: nan, DEA: nan, OSC: nan,
		Retracement: model.RetracementLevels{AnchorHigh: nan, AnchorLow: nan},
	}
}

// blankWindow returns n flat bars at 100 with every indicator undefined.
func blankWindow(n int) model.Window {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	w := model.Window{Bars: make([]model.OHLCV, n), Sets: make([]model.IndicatorSet, n)}
	for i := 0; i < n; i++ {
		w.Bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000}
		w.Sets[i] = blankSet()
		w.Sets[i].Time = w.Bars[i].Time
	}
	return w
}

// cur returns pointers to the bar and set back entries before the current one.
func cur(w model.Window, back int) (*model.OHLCV, *model.IndicatorSet) {
	i := w.Len() - 1 - back
	return &w.Bars[i], &w.Sets[i]
}

func factor(t *testing.T, fs []model.FactorScore, name string) model.FactorScore {
	t.Helper()
	for _, f := range fs {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("factor %s missing", name)
	return model.FactorScore{}
}

func TestLinearMap(t *testing.T) {
	tests := []struct {
		name                           string
		v, inMin, inMax, outMin, outMax float64
		want                           float64
	}{
		{"midpoint", 5, 0, 10, 0, 100, 50},
		{"clamped above", 15, 0, 10, 0, 100, 100},
		{"clamped below", -1, 0, 10, 0, 100, 0},
		{"descending output", 2, 0, 10, 15, 10, 14},
		{"degenerate domain", 3, 3, 3, 7, 9, 7},
		{"reversed domain", 12, 15, 10, 0, 10, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LinearMap(tt.v, tt.inMin, tt.inMax, tt.outMin, tt.outMax)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("LinearMap = %.3f, want %.3f", got, tt.want)
			}
		})
	}
}

func TestEvalLadder(t *testing.T) {
	rank := loadProfile(t, profile.Swing).Buy.Slope.Rank
	tests := []struct {
		v       float64
		want    float64
		matched bool
	}{
		{5, 12.5, true},
		{30, 5 - 5.0/3, true},
		{50, 0, false},
		{math.NaN(), 0, false},
	}
	for _, tt := range tests {
		got, ok := evalLadder(rank, tt.v)
		if ok != tt.matched || math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("evalLadder(%.1f) = %.3f/%v, want %.3f/%v", tt.v, got, ok, tt.want, tt.matched)
		}
	}
}

func TestScore_UndefinedContributesZero(t *testing.T) {
	for _, name := range []string{profile.Swing, profile.ShortSwing} {
		t.Run(name, func(t *testing.T) {
			sc := NewEngine(loadProfile(t, name)).Score(blankWindow(23))
			if sc.Buy != 0 || sc.Sell != 0 {
				t.Errorf("scores = %.3f/%.3f, want 0/0", sc.Buy, sc.Sell)
			}
			for _, f := range append(sc.BuyFactors, sc.SellFactors...) {
				if f.Score != 0 {
					t.Errorf("factor %s = %.3f with undefined inputs", f.Name, f.Score)
				}
			}
		})
	}
}

func TestScore_EmptyWindow(t *testing.T) {
	sc := NewEngine(loadProfile(t, profile.Swing)).Score(model.Window{})
	if sc.Buy != 0 || sc.Sell != 0 || len(sc.BuyFactors) != 0 {
		t.Errorf("empty window scored %+v", sc)
	}
}

func TestScore_Bounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	between := func(lo, hi float64) float64 { return lo + rng.Float64()*(hi-lo) }

	for _, name := range []string{profile.Swing, profile.ShortSwing} {
		p := loadProfile(t, name)
		eng := NewEngine(p)
		for iter := 0; iter < 300; iter++ {
			w := blankWindow(23)
			closes := make([]float64, w.Len())
			for i := range w.Bars {
				c := between(50, 150)
				o := between(50, 150)
				closes[i] = c
				w.Bars[i] = model.OHLCV{
					Time:   w.Bars[i].Time,
					Open:   o,
					High:   math.Max(c, o) + between(0, 10),
					Low:    math.Min(c, o) - between(0, 10),
					Close:  c,
					Volume: between(100, 5000),
				}
				s := &w.Sets[i]
				s.MA = between(50, 150)
				s.MASlope = between(-2, 2)
				s.Bias = (c - s.MA) / s.MA * 100
				s.Slope = between(-1, 1)
				s.SlopeRank = between(0, 100)
				s.BBMid = between(80, 120)
				s.BBUpper = s.BBMid + between(0, 20)
				s.BBLower = s.BBMid - between(0, 20)
				s.PctB = between(-0.5, 1.5)
				s.BandWidth = between(0, 0.5)
				s.VolMA5 = between(100, 5000)
				s.ATR = between(0, 10)
				s.PlusDI, s.MinusDI, s.ADX = between(0, 60), between(0, 60), between(0, 70)
				s.RSI = between(0, 100)
				s.K, s.D = between(0, 100), between(0, 100)
				s.OSC = between(-2, 2)
			}
			for i := range w.Sets {
				if i >= 4 {
					w.Sets[i].Retracement = calculator.DetectRetracement(closes[:i+1], p.Retracement.Config())
				}
			}

			sc := eng.Score(w)
			if sc.Buy < 0 || sc.Buy > 100 || sc.Sell < 0 || sc.Sell > 100 {
				t.Fatalf("%s: scores out of range: %.3f/%.3f", name, sc.Buy, sc.Sell)
			}
			for _, f := range append(sc.BuyFactors, sc.SellFactors...) {
				if f.Score < 0 || f.Score > f.Cap {
					t.Fatalf("%s: factor %s = %.3f outside [0, %.0f]", name, f.Name, f.Score, f.Cap)
				}
			}
		}
	}
}

// divergenceWindow builds 23 bars whose lookback closes sit at base with the
// indicator at lookback; the current bar closes at close with the indicator
// at now.
func divergenceWindow(set func(s *model.IndicatorSet, v float64), base, close, lookback, now float64) model.Window {
	w := blankWindow(23)
	for i := range w.Bars {
		w.Bars[i].Open, w.Bars[i].Close = base, base
		w.Bars[i].High, w.Bars[i].Low = base+1, base-1
		set(&w.Sets[i], lookback)
	}
	bar, s := cur(w, 0)
	bar.Open, bar.Close, bar.High, bar.Low = close, close, close+1, close-1
	set(s, now)
	return w
}

func TestScore_DivergenceOverride(t *testing.T) {
	setRSI := func(s *model.IndicatorSet, v float64) { s.RSI = v }
	setK := func(s *model.IndicatorSet, v float64) { s.K = v }

	tests := []struct {
		name    string
		profile string
		side    model.Side
		factor  string
		w       model.Window
		want    float64
	}{
		{"short bullish RSI", profile.ShortSwing, model.SideBuy, FactorRSI, divergenceWindow(setRSI, 100, 90, 20, 25), 25},
		{"short bearish RSI", profile.ShortSwing, model.SideSell, FactorRSI, divergenceWindow(setRSI, 100, 110, 80, 70), 25},
		{"short bullish KD", profile.ShortSwing, model.SideBuy, FactorStochastic, divergenceWindow(setK, 100, 90, 10, 35), 25},
		{"swing bullish KD", profile.Swing, model.SideBuy, FactorStochastic, divergenceWindow(setK, 100, 90, 10, 15), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := NewEngine(loadProfile(t, tt.profile)).Score(tt.w)
			f := factor(t, sc.Factors(tt.side), tt.factor)
			if !f.Divergence {
				t.Error("divergence not detected")
			}
			if f.Score != tt.want || f.Score != f.Cap {
				t.Errorf("score = %.3f, want cap %.3f", f.Score, tt.want)
			}
		})
	}
}

func TestScore_DivergenceBonus(t *testing.T) {
	// RSI 45: position 5, bullish divergence adds 3.
	w := divergenceWindow(func(s *model.IndicatorSet, v float64) { s.RSI = v }, 100, 90, 30, 45)
	sc := NewEngine(loadProfile(t, profile.Swing)).Score(w)
	if f := factor(t, sc.BuyFactors, FactorRSI); f.Score != 8 {
		t.Errorf("rsi = %.3f, want 8", f.Score)
	}
}

func TestScore_DivergenceNeedsHistory(t *testing.T) {
	full := divergenceWindow(func(s *model.IndicatorSet, v float64) { s.RSI = v }, 100, 90, 20, 25)
	short := model.Window{Bars: full.Bars[1:], Sets: full.Sets[1:]}
	sc := NewEngine(loadProfile(t, profile.ShortSwing)).Score(short)
	f := factor(t, sc.BuyFactors, FactorRSI)
	if f.Divergence || f.Score != 15 {
		t.Errorf("rsi = %.3f (divergence %v), want 15 without divergence", f.Score, f.Divergence)
	}
}

func TestScore_DivergenceSkipsUndefinedLookback(t *testing.T) {
	w := divergenceWindow(func(s *model.IndicatorSet, v float64) { s.K = v }, 100, 90, math.NaN(), 35)
	sc := NewEngine(loadProfile(t, profile.ShortSwing)).Score(w)
	if f := factor(t, sc.BuyFactors, FactorStochastic); f.Divergence {
		t.Error("an undefined lookback must not trigger divergence")
	}
}

func TestScore_GoldenCross(t *testing.T) {
	tests := []struct {
		name         string
		profile      string
		prevK, prevD float64
		k, d         float64
		want         float64
	}{
		{"swing low cross", profile.Swing, 10, 15, 18, 16, 10},
		{"swing low no cross", profile.Swing, 16, 15, 18, 16, 4},
		{"swing mid cross", profile.Swing, 40, 44, 45, 43, 3},
		{"short low cross", profile.ShortSwing, 10, 15, 18, 16, 25},
		{"short low no cross", profile.ShortSwing, 16, 15, 18, 16, 15},
		{"short mid cross", profile.ShortSwing, 40, 44, 45, 43, 10},
		{"short high cross", profile.ShortSwing, 55, 60, 62, 58, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := blankWindow(2)
			_, prev := cur(w, 1)
			_, now := cur(w, 0)
			prev.K, prev.D = tt.prevK, tt.prevD
			now.K, now.D = tt.k, tt.d
			sc := NewEngine(loadProfile(t, tt.profile)).Score(w)
			if f := factor(t, sc.BuyFactors, FactorStochastic); f.Score != tt.want {
				t.Errorf("stochastic = %.3f, want %.3f", f.Score, tt.want)
			}
		})
	}
}

func TestScore_MACD(t *testing.T) {
	tests := []struct {
		name      string
		profile   string
		side      model.Side
		prev, osc float64
		want      float64
	}{
		{"short zero cross", profile.ShortSwing, model.SideBuy, -0.5, 0.3, 5},
		{"short converge", profile.ShortSwing, model.SideBuy, -0.5, -0.2, 3},
		{"short death cross", profile.ShortSwing, model.SideSell, 0.5, -0.3, 5},
		{"short fading", profile.ShortSwing, model.SideSell, 0.5, 0.2, 3},
		{"swing zero cross", profile.Swing, model.SideBuy, -0.5, 0.3, 5},
		{"swing converge", profile.Swing, model.SideBuy, -0.5, -0.2, 3},
		{"swing diverging", profile.Swing, model.SideBuy, -0.2, -0.5, 0},
		{"swing death cross", profile.Swing, model.SideSell, 0.5, -0.3, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := blankWindow(2)
			_, prev := cur(w, 1)
			_, now := cur(w, 0)
			prev.OSC, now.OSC = tt.prev, tt.osc
			sc := NewEngine(loadProfile(t, tt.profile)).Score(w)
			if f := factor(t, sc.Factors(tt.side), FactorMACD); f.Score != tt.want {
				t.Errorf("macd = %.3f, want %.3f", f.Score, tt.want)
			}
		})
	}
}

func TestScore_FalseBreakout(t *testing.T) {
	tests := []struct {
		profile string
		want    float64
	}{
		{profile.ShortSwing, 20},
		{profile.Swing, 2},
	}
	for _, tt := range tests {
		t.Run(tt.profile, func(t *testing.T) {
			w := blankWindow(2)
			bar, s := cur(w, 0)
			bar.High, bar.Close = 110, 100
			s.BBMid, s.BBUpper, s.BBLower = 98, 105, 91
			s.PctB = (100 - 91) / (105 - 91.0)
			sc := NewEngine(loadProfile(t, tt.profile)).Score(w)
			if f := factor(t, sc.SellFactors, FactorBollinger); f.Score != tt.want {
				t.Errorf("bollinger = %.3f, want %.3f", f.Score, tt.want)
			}
		})
	}
}

func TestScore_ExpansionGuard(t *testing.T) {
	w := blankWindow(2)
	_, prev := cur(w, 1)
	bar, s := cur(w, 0)
	prev.BandWidth = 0.05
	s.BandWidth = 0.08
	s.PctB = 1.2
	s.VolMA5 = 1000
	bar.Volume = 2000
	eng := NewEngine(loadProfile(t, profile.Swing))
	if f := factor(t, eng.Score(w).SellFactors, FactorBollinger); f.Score != 0 {
		t.Errorf("bollinger = %.3f, want 0 on a volume expansion", f.Score)
	}
	bar.Volume = 1200
	if f := factor(t, eng.Score(w).SellFactors, FactorBollinger); f.Score != 3 {
		t.Errorf("bollinger = %.3f, want 3 without the volume spike", f.Score)
	}
}

func TestScore_MidRetest(t *testing.T) {
	w := blankWindow(2)
	_, prev := cur(w, 1)
	bar, s := cur(w, 0)
	prev.BBMid = 99
	s.BBMid = 99.5
	bar.Close = 100
	s.PctB = 0.55
	sc := NewEngine(loadProfile(t, profile.Swing)).Score(w)
	if f := factor(t, sc.BuyFactors, FactorBollinger); f.Score != 2 {
		t.Errorf("bollinger = %.3f, want 2 on a rising mid retest", f.Score)
	}
}

func TestScore_TrendBroken(t *testing.T) {
	w := blankWindow(3)
	for back := 0; back < 3; back++ {
		bar, s := cur(w, back)
		bar.Close = 90
		s.MA = 100
		s.MASlope = 1
		s.Bias = 3
	}
	sc := NewEngine(loadProfile(t, profile.Swing)).Score(w)
	if f := factor(t, sc.BuyFactors, FactorTrend); f.Score != 0 {
		t.Errorf("buy trend = %.3f, want 0 after a three-day break", f.Score)
	}
	if f := factor(t, sc.SellFactors, FactorTrend); f.Score != 3 {
		t.Errorf("sell trend = %.3f, want floor 3", f.Score)
	}

	bar, _ := cur(w, 2)
	bar.Close = 101
	sc = NewEngine(loadProfile(t, profile.Swing)).Score(w)
	if f := factor(t, sc.BuyFactors, FactorTrend); f.Score != 7 {
		t.Errorf("buy trend = %.3f, want 7 with an intact trend", f.Score)
	}
}

func TestScore_Passivation(t *testing.T) {
	w := blankWindow(3)
	ks := []float64{85, 88, 90}
	ds := []float64{80, 82, 84}
	for i := range ks {
		_, s := cur(w, 2-i)
		s.K, s.D = ks[i], ds[i]
	}
	eng := NewEngine(loadProfile(t, profile.Swing))
	if f := factor(t, eng.Score(w).SellFactors, FactorStochastic); f.Score != 0 {
		t.Errorf("stochastic = %.3f, want 0 while passivated", f.Score)
	}

	_, s := cur(w, 0)
	s.K, s.D = 85, 87
	if f := factor(t, eng.Score(w).SellFactors, FactorStochastic); f.Score != 10 {
		t.Errorf("stochastic = %.3f, want 10 on a high death cross", f.Score)
	}
}

func TestScore_RetracementZones(t *testing.T) {
	p := loadProfile(t, profile.Swing)
	band := calculator.DetectRetracement([]float64{150, 100, 120, 140, 160, 180, 200, 190}, p.Retracement.Config())
	if !band.Valid {
		t.Fatal("expected a valid band")
	}
	l236, l382 := band.Level("l236"), band.Level("l382")

	w := blankWindow(2)
	bar, s := cur(w, 0)
	bar.Open, bar.Close, bar.High, bar.Low = 170, 170, 171, 169
	s.Retracement = band

	sc := NewEngine(p).Score(w)
	want := 20 + (170-l382)*5/(l236-l382)
	if f := factor(t, sc.BuyFactors, FactorRetracement); math.Abs(f.Score-want) > 1e-9 {
		t.Errorf("buy retracement = %.3f, want %.3f", f.Score, want)
	}

	bar.Open, bar.Close, bar.High, bar.Low = 130, 130, 131, 129
	sc = NewEngine(p).Score(w)
	if f := factor(t, sc.SellFactors, FactorRetracement); f.Score != 35 {
		t.Errorf("sell retracement = %.3f, want stop-loss override 35", f.Score)
	}

	s.Retracement.Valid = false
	sc = NewEngine(p).Score(w)
	if f := factor(t, sc.SellFactors, FactorRetracement); f.Score != 0 {
		t.Errorf("sell retracement = %.3f, want 0 for an invalid band", f.Score)
	}
}

func TestScore_CandleModifiers(t *testing.T) {
	p := loadProfile(t, profile.Swing)
	band := calculator.DetectRetracement([]float64{150, 100, 120, 140, 160, 180, 200, 190}, p.Retracement.Config())

	w := blankWindow(2)
	prevBar, _ := cur(w, 1)
	bar, s := cur(w, 0)
	prevBar.Close = 140
	// Bullish reversal bar below l618: base 0, reversal +10, volume +5.
	bar.Open, bar.Close, bar.High, bar.Low = 130, 134, 135, 129
	bar.Volume = 500
	s.VolMA5 = 1000
	s.Retracement = band
	sc := NewEngine(p).Score(w)
	if f := factor(t, sc.BuyFactors, FactorRetracement); f.Score != 5 {
		t.Errorf("retracement = %.3f, want 5 (no reversal against a higher prior close)", f.Score)
	}

	prevBar.Close = 131
	sc = NewEngine(p).Score(w)
	if f := factor(t, sc.BuyFactors, FactorRetracement); f.Score != 15 {
		t.Errorf("retracement = %.3f, want 15", f.Score)
	}
}

func TestTiers(t *testing.T) {
	buy := []struct {
		score float64
		want  string
	}{
		{0, TierWatch}, {19.9, TierWatch}, {20, TierNeutral}, {39.9, TierNeutral},
		{40, TierScaleIn}, {49.9, TierScaleIn}, {50, TierStrongBuy}, {100, TierStrongBuy},
	}
	for _, tt := range buy {
		if got := BuyTier(tt.score).Label; got != tt.want {
			t.Errorf("BuyTier(%.1f) = %s, want %s", tt.score, got, tt.want)
		}
	}
	sell := []struct {
		score float64
		want  string
	}{
		{0, TierHold}, {40, TierHold}, {40.1, TierCaution}, {54.9, TierCaution},
		{55, TierLiquidate}, {100, TierLiquidate},
	}
	for _, tt := range sell {
		if got := SellTier(tt.score).Label; got != tt.want {
			t.Errorf("SellTier(%.1f) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
