package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// DefaultAPIBase is the Telegram Bot API endpoint.
const DefaultAPIBase = "https://api.telegram.org"

// TelegramNotifier delivers score alerts and command replies to one chat.
type TelegramNotifier struct {
	APIBase  string
	BotToken string
	ChatID   string
	Client   *http.Client
	// Backoff is the first retry delay; it doubles on every attempt.
	Backoff time.Duration
}

// NewTelegramNotifier returns a notifier for chatID. proxyURL may be empty.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	tr := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			tr.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		APIBase:  DefaultAPIBase,
		BotToken: botToken,
		ChatID:   chatID,
		// Long polling holds requests for up to pollTimeout.
		Client:  &http.Client{Timeout: pollTimeout + 10*time.Second, Transport: tr},
		Backoff: time.Second,
	}
}

type sendMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// apiResponse is the envelope every Bot API method answers with.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// call invokes a Bot API method. A nil payload issues a GET with query.
func (t *TelegramNotifier) call(ctx context.Context, method string, query url.Values, payload any) (json.RawMessage, error) {
	target := fmt.Sprintf("%s/bot%s/%s", t.APIBase, t.BotToken, method)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var req *http.Request
	var err error
	if payload == nil {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	} else {
		var body []byte
		if body, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("%s: encode: %w", method, err)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", method, err)
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d: %s", method, resp.StatusCode, raw)
	}

	var env apiResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", method, err)
	}
	if !env.OK {
		return nil, fmt.Errorf("%s: %s", method, env.Description)
	}
	return env.Result, nil
}

// Send posts an HTML message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	_, err := t.call(ctx, "sendMessage", nil, sendMessage{ChatID: t.ChatID, Text: text, ParseMode: "HTML"})
	return err
}

// SendWithRetry retries Send up to maxRetries times, doubling Backoff between
// attempts.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var err error
	delay := t.Backoff
	for attempt := 1; ; attempt++ {
		if err = t.Send(ctx, text); err == nil {
			return nil
		}
		if attempt > maxRetries {
			break
		}
		log.Printf("[WARN] telegram send attempt %d/%d failed: %v (next in %v)", attempt, maxRetries+1, err, delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("telegram send gave up after %d attempts: %w", maxRetries+1, err)
}
