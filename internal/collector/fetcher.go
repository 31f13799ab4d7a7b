package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"SwingScore/internal/model"
)

// ErrNoData is returned when a source has no usable bars for the request.
var ErrNoData = errors.New("no data")

// Fetcher defines the interface for fetching daily bars.
type Fetcher interface {
	// FetchDailyBars returns the daily bars of symbol whose day lies in
	// [start, end], ascending by time.
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error)
	Name() string
}

// Source names accepted by New.
const (
	SourceYahoo = "yahoo"
	SourceREST  = "rest"
	SourceCSV   = "csv"
	SourceMock  = "mock"
)

// Options configures New.
type Options struct {
	Source  string
	BaseURL string
	APIKey  string
	Dir     string
	Proxy   string
}

// New creates the fetcher named by opts.Source.
func New(opts Options) (Fetcher, error) {
	switch opts.Source {
	case "", SourceYahoo:
		f := NewYahooFetcher(opts.Proxy)
		if opts.BaseURL != "" {
			f.BaseURL = opts.BaseURL
		}
		return f, nil
	case SourceREST:
		if opts.BaseURL == "" {
			return nil, fmt.Errorf("rest source requires a base url")
		}
		return NewRESTFetcher(opts.BaseURL, opts.APIKey, opts.Proxy), nil
	case SourceCSV:
		if opts.Dir == "" {
			return nil, fmt.Errorf("csv source requires a directory")
		}
		return &CSVFetcher{Dir: opts.Dir}, nil
	case SourceMock:
		return &MockFetcher{Price: 100}, nil
	}
	return nil, fmt.Errorf("unknown data source %q", opts.Source)
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// inRange reports whether t falls on a day within [start, end]. Zero bounds
// are open.
func inRange(t, start, end time.Time) bool {
	d := day(t)
	if !start.IsZero() && d.Before(day(start)) {
		return false
	}
	if !end.IsZero() && d.After(day(end)) {
		return false
	}
	return true
}

// day truncates t to midnight UTC of its calendar date.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
