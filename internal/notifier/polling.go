package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const pollTimeout = 30 * time.Second

// CommandHandler answers one chat command. An empty reply sends nothing.
type CommandHandler func(ctx context.Context, command string) string

type update struct {
	ID      int `json:"update_id"`
	Message *struct {
		Text string `json:"text"`
	} `json:"message"`
}

// StartPolling long-polls getUpdates and replies to each text message through
// handler. It returns when ctx is done.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := 0
	for ctx.Err() == nil {
		updates, err := t.poll(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("[WARN] telegram poll: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(5 * t.Backoff):
			}
			continue
		}

		for _, u := range updates {
			offset = u.ID + 1
			if u.Message == nil {
				continue
			}
			cmd := strings.TrimSpace(u.Message.Text)
			if cmd == "" {
				continue
			}
			log.Printf("[INFO] command %q", cmd)
			reply := handler(ctx, cmd)
			if reply == "" {
				continue
			}
			if err := t.Send(ctx, reply); err != nil {
				log.Printf("[ERROR] reply to %q: %v", cmd, err)
			}
		}
	}
	log.Println("[INFO] telegram polling stopped")
}

func (t *TelegramNotifier) poll(ctx context.Context, offset int) ([]update, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("timeout", strconv.Itoa(int(pollTimeout.Seconds())))
	raw, err := t.call(ctx, "getUpdates", q, nil)
	if err != nil {
		return nil, err
	}
	var updates []update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("getUpdates: decode result: %w", err)
	}
	return updates, nil
}
