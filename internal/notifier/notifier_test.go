package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"SwingScore/internal/analysis"
	"SwingScore/internal/model"
	"SwingScore/internal/strategy"
)

func row(buy, sell float64) analysis.Row {
	return analysis.Row{
		Time:     time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC),
		Close:    512.5,
		MA:       500,
		Buy:      buy,
		Sell:     sell,
		BuyTier:  strategy.BuyTier(buy),
		SellTier: strategy.SellTier(sell),
		Score: model.Score{
			BuyFactors: []model.FactorScore{
				{Name: strategy.FactorRSI, Cap: 20, Score: 20, Divergence: true, Commentary: "RSI<30 & divergence"},
				{Name: strategy.FactorSlope, Cap: 0},
			},
			SellFactors: []model.FactorScore{
				{Name: strategy.FactorMACD, Cap: 15, Score: 0, Commentary: "no cross"},
			},
		},
	}
}

func report() *analysis.Report { return &analysis.Report{Symbol: "3231.TW", Profile: "short_swing"} }

func TestShouldAlert(t *testing.T) {
	tests := []struct {
		buy, sell         float64
		wantBuy, wantSell bool
	}{
		{39.9, 40, false, false},
		{40, 0, true, false},
		{55, 40.1, true, true},
		{10, 55, false, true},
	}
	for _, tt := range tests {
		buy, sell := ShouldAlert(row(tt.buy, tt.sell))
		if buy != tt.wantBuy || sell != tt.wantSell {
			t.Errorf("ShouldAlert(%.1f, %.1f) = %v, %v; want %v, %v", tt.buy, tt.sell, buy, sell, tt.wantBuy, tt.wantSell)
		}
	}
}

func TestFormatAlert(t *testing.T) {
	msg := FormatAlert(report(), row(45, 10))
	if !strings.Contains(msg, "Buy 45.0 → <b>scale-in</b>") {
		t.Errorf("missing buy tier:\n%s", msg)
	}
	if !strings.Contains(msg, "RSI&lt;30 &amp; divergence") {
		t.Errorf("commentary not escaped:\n%s", msg)
	}
	if strings.Contains(msg, "Sell") {
		t.Errorf("non-alerting side included:\n%s", msg)
	}
}

func TestFormatScore(t *testing.T) {
	msg := FormatScore(report(), row(12, 3))
	for _, want := range []string{"3231.TW", "MA: 500.00", "Buy 12.0</b> (watch)", "Sell 3.0</b> (hold)", "rsi: 20.0/20 ⚡", "macd: 0.0/15"} {
		if !strings.Contains(msg, want) {
			t.Errorf("missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "slope") {
		t.Error("disabled factor listed")
	}
}

func TestSendWithRetry(t *testing.T) {
	var calls int32
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			http.NotFound(w, r)
			return
		}
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	n.Backoff = time.Millisecond

	if err := n.SendWithRetry(context.Background(), "hello", 3); err != nil {
		t.Fatalf("SendWithRetry: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if got["chat_id"] != "42" || got["text"] != "hello" || got["parse_mode"] != "HTML" {
		t.Errorf("payload = %v", got)
	}

	atomic.StoreInt32(&calls, -10)
	if err := n.SendWithRetry(context.Background(), "x", 1); err == nil {
		t.Error("expected exhausted retries")
	}
}

func TestStartPolling(t *testing.T) {
	var mu sync.Mutex
	var replies []string
	var polls int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botT/getUpdates":
			if atomic.AddInt32(&polls, 1) == 1 {
				w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"text":" /score SPY "}},{"update_id":8}]}`))
				return
			}
			if r.URL.Query().Get("offset") != "9" {
				t.Errorf("offset = %s, want 9", r.URL.Query().Get("offset"))
			}
			cancel()
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case "/botT/sendMessage":
			var p map[string]string
			json.NewDecoder(r.Body).Decode(&p)
			mu.Lock()
			replies = append(replies, p["text"])
			mu.Unlock()
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	n := NewTelegramNotifier("T", "1", "")
	n.APIBase = srv.URL
	n.Backoff = time.Millisecond

	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(_ context.Context, cmd string) string { return "got " + cmd })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(replies) != 1 || replies[0] != "got /score SPY" {
		t.Errorf("replies = %v", replies)
	}
}
