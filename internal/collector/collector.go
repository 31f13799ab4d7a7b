package collector

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"SwingScore/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.OHLCV
	Err   error
}

func (m *MockFetcher) Name() string { return SourceMock }

func (m *MockFetcher) FetchDailyBars(_ context.Context, _ string, start, end time.Time) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		var out []model.OHLCV
		for _, b := range m.Bars {
			if inRange(b.Time, start, end) {
				out = append(out, b)
			}
		}
		return out, nil
	}
	return generateMockBars(m.Price, start, end), nil
}

// generateMockBars produces a weekday series that oscillates around basePrice.
func generateMockBars(basePrice float64, start, end time.Time) []model.OHLCV {
	if end.IsZero() {
		end = time.Now()
	}
	if start.IsZero() {
		start = end.AddDate(-2, 0, 0)
	}
	var bars []model.OHLCV
	i := 0
	for d := day(start); !d.After(day(end)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		p := basePrice * (1 + 0.15*math.Sin(float64(i)/20) + 0.0005*float64(i))
		bars = append(bars, model.OHLCV{
			Time:   d,
			Open:   p * 0.998,
			High:   p * 1.01,
			Low:    p * 0.99,
			Close:  p,
			Volume: 1000000 * (1 + 0.3*math.Cos(float64(i)/7)),
		})
		i++
	}
	return bars
}

// Clean drops bars with non-finite or non-positive prices, orders the rest
// by time and keeps the last bar of any repeated day.
func Clean(bars []model.OHLCV) []model.OHLCV {
	out := make([]model.OHLCV, 0, len(bars))
	for _, b := range bars {
		if !b.Finite() || b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 || b.Volume < 0 {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	deduped := out[:0]
	for _, b := range out {
		if n := len(deduped); n > 0 && day(deduped[n-1].Time).Equal(day(b.Time)) {
			deduped[n-1] = b
			continue
		}
		deduped = append(deduped, b)
	}
	return deduped
}

// Collector fetches and cleans the daily series of an instrument.
type Collector struct {
	Fetcher Fetcher
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher}
}

// Collect fetches the bars of symbol within [start, end] and cleans them.
func (c *Collector) Collect(ctx context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error) {
	raw, err := c.Fetcher.FetchDailyBars(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars from %s: %w", c.Fetcher.Name(), err)
	}
	bars := Clean(raw)
	if dropped := len(raw) - len(bars); dropped > 0 {
		log.Printf("[WARN] %s: dropped %d unusable bars", symbol, dropped)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	return &model.PriceSeries{Symbol: symbol, Bars: bars, FetchedAt: time.Now()}, nil
}
