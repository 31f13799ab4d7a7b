package recorder

import (
	"context"
	"time"

	"SwingScore/internal/model"
)

// Point is one scored bar of a run.
type Point struct {
	Bar   model.OHLCV
	Score model.Score
}

// Run holds one analysis of one instrument. ID is assigned by the recorder
// when empty.
type Run struct {
	ID        string
	Symbol    string
	Profile   string
	Source    string
	StartedAt time.Time
	Duration  time.Duration
	Points    []Point
}

// RunSummary describes a stored run without its points.
type RunSummary struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Profile   string    `json:"profile"`
	Source    string    `json:"source"`
	StartedAt time.Time `json:"started_at"`
	Bars      int       `json:"bars"`
	LastBar   time.Time `json:"last_bar"`
	LastBuy   float64   `json:"last_buy"`
	LastSell  float64   `json:"last_sell"`
}

// Recorder persists analysis runs for later inspection.
type Recorder interface {
	RecordRun(ctx context.Context, run *Run) error
	Close() error
}

// History lists recorded runs, newest first.
type History interface {
	RecentRuns(ctx context.Context, symbol string, limit int) ([]RunSummary, error)
}
