package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status label values of AnalysesTotal.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds all Prometheus metrics of the scoring service.
type Metrics struct {
	Registry *prometheus.Registry

	AnalysisDuration *prometheus.HistogramVec // labels: symbol
	AnalysesTotal    *prometheus.CounterVec   // labels: symbol, status
	FetchErrors      *prometheus.CounterVec   // labels: source
	LatestScore      *prometheus.GaugeVec     // labels: symbol, side
	LastBarTime      *prometheus.GaugeVec     // labels: symbol
	AlertsTotal      *prometheus.CounterVec   // labels: symbol, side, tier
}

// NewMetrics creates the metrics on a private registry, together with the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		AnalysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "swingscore_analysis_duration_seconds",
			Help:    "Fetch, indicator and scoring latency per instrument",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"symbol"}),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swingscore_analyses_total",
			Help: "Analyses run, by outcome",
		}, []string{"symbol", "status"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swingscore_fetch_errors_total",
			Help: "Failed bar downloads per data source",
		}, []string{"source"}),
		LatestScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "swingscore_latest_score",
			Help: "Buy and sell score of the most recent bar",
		}, []string{"symbol", "side"}),
		LastBarTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "swingscore_last_bar_timestamp_seconds",
			Help: "Unix time of the most recent scored bar",
		}, []string{"symbol"}),
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swingscore_alerts_total",
			Help: "Tier alerts sent",
		}, []string{"symbol", "side", "tier"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.AnalysisDuration,
		m.AnalysesTotal,
		m.FetchErrors,
		m.LatestScore,
		m.LastBarTime,
		m.AlertsTotal,
	)
	return m
}

// ObserveAnalysis records the outcome of one analysis run.
func (m *Metrics) ObserveAnalysis(symbol string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.AnalysisDuration.WithLabelValues(symbol).Observe(d.Seconds())
	m.AnalysesTotal.WithLabelValues(symbol, status).Inc()
}

func (m *Metrics) IncFetchError(source string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(source).Inc()
}

// SetLatest publishes the scores of the newest bar.
func (m *Metrics) SetLatest(symbol string, at time.Time, buy, sell float64) {
	if m == nil {
		return
	}
	m.LatestScore.WithLabelValues(symbol, "buy").Set(buy)
	m.LatestScore.WithLabelValues(symbol, "sell").Set(sell)
	m.LastBarTime.WithLabelValues(symbol).Set(float64(at.Unix()))
}

func (m *Metrics) IncAlert(symbol, side, tier string) {
	if m == nil {
		return
	}
	m.AlertsTotal.WithLabelValues(symbol, side, tier).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
