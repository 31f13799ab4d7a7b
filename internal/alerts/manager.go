package alerts

import (
	"log"
	"strings"
	"sync"

	"SwingScore/internal/analysis"
	"SwingScore/internal/notifier"
)

// Manager decides which tier alerts are new, with concurrency safety. A side
// is reported once per bar and tier: re-running the analysis of a day, or
// restarting the process, does not repeat it.
type Manager struct {
	mu       sync.Mutex
	state    *State
	filePath string
}

// NewManager creates a Manager, loading state from disk. An empty filePath
// keeps the state in memory only.
func NewManager(filePath string) (*Manager, error) {
	state := &State{Marks: map[string]Mark{}}
	if filePath != "" {
		var err error
		if state, err = LoadState(filePath); err != nil {
			return nil, err
		}
	}
	return &Manager{state: state, filePath: filePath}, nil
}

// Check returns the sides of row that reach an alerting tier and were not
// yet alerted for this bar at this tier, and records them.
func (m *Manager) Check(symbol string, row analysis.Row) (buy, sell bool) {
	buy, sell = notifier.ShouldAlert(row)
	if !buy && !sell {
		return false, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToUpper(symbol)
	day := row.Time.Format("2006-01-02")
	prev, ok := m.state.Marks[key]
	if ok && prev.BarDate == day {
		buy = buy && prev.BuyTier != row.BuyTier.Label
		sell = sell && prev.SellTier != row.SellTier.Label
	}
	if !buy && !sell {
		return false, false
	}

	mark := Mark{BarDate: day}
	if ok && prev.BarDate == day {
		mark = prev
	}
	if buy {
		mark.BuyTier = row.BuyTier.Label
	}
	if sell {
		mark.SellTier = row.SellTier.Label
	}
	m.state.Marks[key] = mark
	if err := m.save(); err != nil {
		log.Printf("[ERROR] failed to save alert state: %v", err)
	}
	return buy, sell
}

// Last returns the last alert recorded for symbol.
func (m *Manager) Last(symbol string) (Mark, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mark, ok := m.state.Marks[strings.ToUpper(symbol)]
	return mark, ok
}

func (m *Manager) save() error {
	if m.filePath == "" {
		return nil
	}
	return SaveState(m.filePath, m.state)
}
