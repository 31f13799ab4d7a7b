package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SwingScore/internal/collector"
	"SwingScore/internal/metrics"
	"SwingScore/internal/model"
	"SwingScore/internal/pipeline"
	"SwingScore/internal/profile"
	"SwingScore/internal/strategy"
)

// WarmupDays is the calendar span fetched ahead of a requested start so the
// longest indicator window (slope rank over 252 sessions of a 60-day slope)
// is defined on the first reported bar.
const WarmupDays = 480

// DefaultHistoryDays is used when Analyzer.HistoryDays is zero.
const DefaultHistoryDays = 730

// Request selects the instrument and date range of an analysis. A zero Start
// reports every bar; a zero End means today. A non-empty Profile overrides
// the instrument's configured profile.
type Request struct {
	Symbol  string
	Profile string
	Start   time.Time
	End     time.Time
}

// Row is one scored bar prepared for output.
type Row struct {
	Time     time.Time
	Close    float64
	MA       float64
	Buy      float64
	Sell     float64
	BuyTier  model.Tier
	SellTier model.Tier
	Score    model.Score
}

// Report is the outcome of scoring one instrument.
type Report struct {
	Symbol      string
	Profile     string
	Source      string
	From        time.Time
	GeneratedAt time.Time
	Table       *pipeline.Table
	Scores      []model.Score
}

// Evaluate computes indicators and scores for bars under p. Bars must be
// clean: see collector.Clean.
func Evaluate(symbol string, bars []model.OHLCV, p *profile.Profile) (*Report, error) {
	table, err := pipeline.Build(bars, p)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", symbol, err)
	}
	engine := strategy.NewEngine(p)
	scores := make([]model.Score, table.Len())
	for i := range scores {
		scores[i] = engine.Score(table.Window(i))
	}
	return &Report{
		Symbol:      symbol,
		Profile:     p.Name,
		GeneratedAt: time.Now(),
		Table:       table,
		Scores:      scores,
	}, nil
}

// Rows returns the scored bars on or after r.From, oldest first.
func (r *Report) Rows() []Row {
	rows := make([]Row, 0, len(r.Scores))
	for i, s := range r.Scores {
		bar, set := r.Table.At(i)
		if !r.From.IsZero() && bar.Time.Before(r.From) {
			continue
		}
		rows = append(rows, Row{
			Time:     bar.Time,
			Close:    bar.Close,
			MA:       set.MA,
			Buy:      s.Buy,
			Sell:     s.Sell,
			BuyTier:  strategy.BuyTier(s.Buy),
			SellTier: strategy.SellTier(s.Sell),
			Score:    s,
		})
	}
	return rows
}

// Latest returns the most recent row.
func (r *Report) Latest() (Row, bool) {
	rows := r.Rows()
	if len(rows) == 0 {
		return Row{}, false
	}
	return rows[len(rows)-1], true
}

// Analyzer fetches, cleans and scores instruments.
type Analyzer struct {
	Collector   *collector.Collector
	Profiles    *profile.Registry
	HistoryDays int
	Metrics     *metrics.Metrics // optional
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(c *collector.Collector, profiles *profile.Registry, historyDays int, m *metrics.Metrics) *Analyzer {
	if historyDays <= 0 {
		historyDays = DefaultHistoryDays
	}
	return &Analyzer{Collector: c, Profiles: profiles, HistoryDays: historyDays, Metrics: m}
}

// Analyze runs the full flow for one instrument.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (rep *Report, err error) {
	began := time.Now()
	defer func() { a.Metrics.ObserveAnalysis(req.Symbol, time.Since(began), err) }()

	p, err := a.resolve(req)
	if err != nil {
		return nil, err
	}

	end := req.End
	if end.IsZero() {
		end = time.Now()
	}
	fetchStart := end.AddDate(0, 0, -a.HistoryDays)
	if !req.Start.IsZero() {
		if ws := req.Start.AddDate(0, 0, -WarmupDays); ws.Before(fetchStart) {
			fetchStart = ws
		}
	}

	series, err := a.Collector.Collect(ctx, req.Symbol, fetchStart, end)
	if err != nil {
		if !errors.Is(err, collector.ErrNoData) {
			a.Metrics.IncFetchError(a.Collector.Fetcher.Name())
		}
		return nil, err
	}

	rep, err = Evaluate(req.Symbol, series.Bars, p)
	if err != nil {
		return nil, err
	}
	rep.Source = a.Collector.Fetcher.Name()
	rep.From = req.Start
	if last, ok := rep.Latest(); ok {
		a.Metrics.SetLatest(req.Symbol, last.Time, last.Buy, last.Sell)
	}
	return rep, nil
}

func (a *Analyzer) resolve(req Request) (*profile.Profile, error) {
	if req.Profile != "" {
		return a.Profiles.Get(req.Profile)
	}
	return a.Profiles.Resolve(req.Symbol)
}
