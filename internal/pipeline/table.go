package pipeline

import (
	"fmt"
	"time"

	"SwingScore/internal/model"
	"SwingScore/internal/profile"
)

// DateLayout keys table rows by calendar day.
const DateLayout = "2006-01-02"

// WindowSize is the number of bars a scoring window holds: the scored bar
// plus the divergence lookback.
const WindowSize = 1 - profile.DivergenceStart

// Table is an append-only, date-keyed sequence of bars and their indicator
// sets. Rows never change once appended.
type Table struct {
	bars  []model.OHLCV
	sets  []model.IndicatorSet
	index map[string]int
}

// NewTable creates an empty table with room for n rows.
func NewTable(n int) *Table {
	return &Table{
		bars:  make([]model.OHLCV, 0, n),
		sets:  make([]model.IndicatorSet, 0, n),
		index: make(map[string]int, n),
	}
}

// Append adds a row. Its time must follow the last row's.
func (t *Table) Append(bar model.OHLCV, set model.IndicatorSet) error {
	if n := len(t.bars); n > 0 && !bar.Time.After(t.bars[n-1].Time) {
		return fmt.Errorf("append %s: %w", bar.Time.Format(DateLayout), ErrOutOfOrder)
	}
	t.index[bar.Time.Format(DateLayout)] = len(t.bars)
	t.bars = append(t.bars, bar)
	t.sets = append(t.sets, set)
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.bars) }

// At returns row i.
func (t *Table) At(i int) (model.OHLCV, model.IndicatorSet) { return t.bars[i], t.sets[i] }

// Lookup returns the row index of the given calendar day.
func (t *Table) Lookup(day time.Time) (int, bool) {
	i, ok := t.index[day.Format(DateLayout)]
	return i, ok
}

// Window returns the read-only view ending at row i, holding at most
// WindowSize rows. The slices are capacity-clipped so appending to them
// cannot reach into the table.
func (t *Table) Window(i int) model.Window {
	lo := i - WindowSize + 1
	if lo < 0 {
		lo = 0
	}
	return model.Window{
		Bars: t.bars[lo : i+1 : i+1],
		Sets: t.sets[lo : i+1 : i+1],
	}
}
