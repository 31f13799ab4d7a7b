package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"SwingScore/internal/analysis"
	"SwingScore/internal/collector"
	"SwingScore/internal/metrics"
	"SwingScore/internal/profile"
	"SwingScore/internal/recorder"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeHistory struct {
	symbol string
	limit  int
}

func (f *fakeHistory) RecentRuns(_ context.Context, symbol string, limit int) ([]recorder.RunSummary, error) {
	f.symbol, f.limit = symbol, limit
	return []recorder.RunSummary{{ID: "r1", Symbol: symbol, Profile: profile.Swing, Bars: 60, LastBuy: 12}}, nil
}

func newTestServer(t *testing.T, fetcher collector.Fetcher, history recorder.History) (*Server, *metrics.Metrics) {
	t.Helper()
	reg, err := profile.Load("", profile.Swing, map[string]string{"3231.TW": profile.ShortSwing})
	if err != nil {
		t.Fatal(err)
	}
	m := metrics.NewMetrics()
	a := analysis.NewAnalyzer(collector.NewCollector(fetcher), reg, 0, m)
	return New(a, reg, history, m), m
}

func get(s *Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, &collector.MockFetcher{Price: 100}, nil)
	rec := get(s, "/healthz")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body.String())
	}
}

func TestProfiles(t *testing.T) {
	s, _ := newTestServer(t, &collector.MockFetcher{Price: 100}, nil)
	rec := get(s, "/api/profiles")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Profiles []struct {
			Name string `json:"name"`
		} `json:"profiles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Profiles) != 2 || body.Profiles[0].Name != profile.ShortSwing || body.Profiles[1].Name != profile.Swing {
		t.Errorf("profiles = %+v", body.Profiles)
	}
}

func TestScores(t *testing.T) {
	s, _ := newTestServer(t, &collector.MockFetcher{Price: 100}, nil)
	rec := get(s, "/api/scores/3231.TW?end=2024-06-28&limit=5&factors=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body scoresJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Profile != profile.ShortSwing || len(body.Rows) != 5 {
		t.Fatalf("profile=%s rows=%d", body.Profile, len(body.Rows))
	}
	last := body.Rows[4]
	if last.Date != "2024-06-28" || last.MA == nil || len(last.BuyFactors) != 8 || len(last.SellFactors) != 8 {
		t.Errorf("last row = %+v", last)
	}
	if last.Buy < 0 || last.Buy > 100 || last.Sell < 0 || last.Sell > 100 {
		t.Errorf("scores out of range: %+v", last)
	}

	metricsRec := get(s, "/metrics")
	if !strings.Contains(metricsRec.Body.String(), `swingscore_latest_score{side="buy",symbol="3231.TW"}`) {
		t.Error("latest score gauge not exported")
	}
}

func TestScoresErrors(t *testing.T) {
	tests := []struct {
		name    string
		fetcher collector.Fetcher
		target  string
		code    int
	}{
		{"bad start", &collector.MockFetcher{Price: 100}, "/api/scores/X?start=2024-13-01", http.StatusBadRequest},
		{"end before start", &collector.MockFetcher{Price: 100}, "/api/scores/X?start=2024-02-01&end=2024-01-01", http.StatusBadRequest},
		{"bad limit", &collector.MockFetcher{Price: 100}, "/api/scores/X?limit=0", http.StatusBadRequest},
		{"unknown profile", &collector.MockFetcher{Price: 100}, "/api/scores/X?profile=nope", http.StatusBadRequest},
		{"no data", &collector.MockFetcher{Err: collector.ErrNoData}, "/api/scores/X", http.StatusNotFound},
		{"upstream", &collector.MockFetcher{Err: errors.New("timeout")}, "/api/scores/X", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, tt.fetcher, nil)
			if rec := get(s, tt.target); rec.Code != tt.code {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.code, rec.Body.String())
			}
		})
	}
}

func TestChart(t *testing.T) {
	s, _ := newTestServer(t, &collector.MockFetcher{Price: 100}, nil)
	rec := get(s, "/chart/6669.TW?end=2024-06-28&start=2024-03-01")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "Buy score") {
		t.Error("chart body missing buy panel")
	}
}

func TestRuns(t *testing.T) {
	s, _ := newTestServer(t, &collector.MockFetcher{Price: 100}, nil)
	if rec := get(s, "/api/runs/SPY"); rec.Code != http.StatusNotFound {
		t.Errorf("without history status = %d", rec.Code)
	}

	h := &fakeHistory{}
	s, _ = newTestServer(t, &collector.MockFetcher{Price: 100}, h)
	rec := get(s, "/api/runs/SPY?limit=5")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"id":"r1"`) {
		t.Errorf("runs = %d %s", rec.Code, rec.Body.String())
	}
	if h.symbol != "SPY" || h.limit != 5 {
		t.Errorf("history called with %s %d", h.symbol, h.limit)
	}
}

func TestRunShutsDown(t *testing.T) {
	s, _ := newTestServer(t, &collector.MockFetcher{Price: 100}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
