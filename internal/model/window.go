package model

// Window is a read-only view of the bars and indicator sets ending at the
// bar being scored. Index 0 of Bars/Sets is the oldest entry; the last entry
// is the current bar.
type Window struct {
	Bars []OHLCV
	Sets []IndicatorSet
}

// Len returns the number of bars in the window.
func (w Window) Len() int { return len(w.Bars) }

// Has reports whether the window reaches back bars before the current one.
func (w Window) Has(back int) bool { return back >= 0 && back < len(w.Bars) }

// Bar returns the bar back bars before the current one (0 = current).
func (w Window) Bar(back int) OHLCV { return w.Bars[len(w.Bars)-1-back] }

// Set returns the indicator set back bars before the current one (0 = current).
func (w Window) Set(back int) IndicatorSet { return w.Sets[len(w.Sets)-1-back] }

// Current returns the bar and set being scored.
func (w Window) Current() (OHLCV, IndicatorSet) { return w.Bar(0), w.Set(0) }
