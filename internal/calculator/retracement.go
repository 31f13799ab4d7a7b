package calculator

import (
	"fmt"
	"math"

	"SwingScore/internal/model"
)

// Retracement variants.
const (
	VariantAnchored = "anchored"
	VariantBox      = "box"
)

// minRetracementCloses is the shortest window the detector accepts.
const minRetracementCloses = 5

// anchorGuard is the position below which an early anchor high falls back to
// the extended window for its low.
const anchorGuard = 5

// RetracementConfig parameterises the band detector.
type RetracementConfig struct {
	Variant        string
	Window         int
	ExtendedWindow int
	Ratios         []float64 // retracement ratios, e.g. 0.382
	Extensions     []float64 // extension ratios, e.g. 1.272
	MinRange       float64   // minimum (max-min)/min for the band to be valid
}

// LevelName returns the canonical name of a retracement ratio ("l382") or
// an extension ratio ("ext1272").
func LevelName(ratio float64, extension bool) string {
	milli := int(math.Round(ratio * 1000))
	if extension {
		return fmt.Sprintf("ext%d", milli)
	}
	return fmt.Sprintf("l%03d", milli)
}

// DetectRetracement derives the band of one window of closes, oldest first.
// The result is invalid when the window is shorter than five closes, when
// the range is not positive or when the window's spread is below MinRange.
func DetectRetracement(closes []float64, cfg RetracementConfig) model.RetracementLevels {
	invalid := model.RetracementLevels{AnchorHigh: model.Undefined(), AnchorLow: model.Undefined()}
	if len(closes) < minRetracementCloses {
		return invalid
	}

	maxIdx, high := argMax(closes)
	low := minOf(closes)
	if cfg.Variant == VariantAnchored {
		switch {
		case maxIdx < anchorGuard:
			ext := closes
			if cfg.ExtendedWindow > 0 && len(ext) > cfg.ExtendedWindow {
				ext = ext[len(ext)-cfg.ExtendedWindow:]
			}
			low = minOf(ext)
		default:
			low = minOf(closes[:maxIdx+1])
		}
	}

	span := high - low
	if span <= 0 {
		return invalid
	}

	r := model.RetracementLevels{
		AnchorHigh: high,
		AnchorLow:  low,
		Levels:     make([]model.Level, 0, len(cfg.Ratios)+len(cfg.Extensions)),
	}
	for _, ratio := range cfg.Ratios {
		r.Levels = append(r.Levels, model.Level{Name: LevelName(ratio, false), Ratio: ratio, Price: high - span*ratio})
	}
	for _, ratio := range cfg.Extensions {
		r.Levels = append(r.Levels, model.Level{Name: LevelName(ratio, true), Ratio: ratio, Price: high + span*(ratio-1)})
	}

	wmax, wmin := high, minOf(closes)
	r.Valid = wmin > 0 && (wmax-wmin)/wmin >= cfg.MinRange
	return r
}

// RetracementSeries runs the detector over every full trailing window of
// closes. Bars before the first full window carry an invalid band.
func RetracementSeries(closes []float64, cfg RetracementConfig) ([]model.RetracementLevels, error) {
	if cfg.Window < minRetracementCloses {
		return nil, fmt.Errorf("retracement window %d: %w", cfg.Window, ErrPeriod)
	}
	if cfg.Variant != VariantAnchored && cfg.Variant != VariantBox {
		return nil, fmt.Errorf("unknown retracement variant %q", cfg.Variant)
	}
	out := make([]model.RetracementLevels, len(closes))
	for i := range closes {
		if i < cfg.Window-1 {
			out[i] = model.RetracementLevels{AnchorHigh: model.Undefined(), AnchorLow: model.Undefined()}
			continue
		}
		out[i] = DetectRetracement(closes[i-cfg.Window+1:i+1], cfg)
	}
	return out, nil
}

// argMax returns the position and value of the first maximum.
func argMax(values []float64) (int, float64) {
	idx, best := 0, values[0]
	for i, v := range values[1:] {
		if v > best {
			idx, best = i+1, v
		}
	}
	return idx, best
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
