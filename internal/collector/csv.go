package collector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"SwingScore/internal/model"
)

// CSVFetcher reads <Dir>/<symbol>.csv files with a Date, Open, High, Low,
// Close, Volume header, the layout of a Yahoo Finance download. Extra
// columns are ignored.
type CSVFetcher struct {
	Dir string
}

func (f *CSVFetcher) Name() string { return SourceCSV }

var csvColumns = []string{"date", "open", "high", "low", "close", "volume"}

func (f *CSVFetcher) FetchDailyBars(_ context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	path := filepath.Join(f.Dir, symbol+".csv")
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("csv %s: %w", path, ErrNoData)
	}
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("csv %s header: %w", path, err)
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range csvColumns {
		if _, ok := pos[col]; !ok {
			return nil, fmt.Errorf("csv %s: missing column %q", path, col)
		}
	}

	var bars []model.OHLCV
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv %s line %d: %w", path, line, err)
		}
		t, err := time.Parse("2006-01-02", strings.TrimSpace(field(rec, pos["date"])))
		if err != nil {
			return nil, fmt.Errorf("csv %s line %d: %w", path, line, err)
		}
		if !inRange(t, start, end) {
			continue
		}
		bars = append(bars, model.OHLCV{
			Time:   t,
			Open:   parseNumber(field(rec, pos["open"])),
			High:   parseNumber(field(rec, pos["high"])),
			Low:    parseNumber(field(rec, pos["low"])),
			Close:  parseNumber(field(rec, pos["close"])),
			Volume: parseNumber(field(rec, pos["volume"])),
		})
	}
	return bars, nil
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

// parseNumber reads a CSV cell; blanks and "null" become NaN.
func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
