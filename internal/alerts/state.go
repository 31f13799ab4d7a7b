package alerts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Mark is the last alert sent for one instrument.
type Mark struct {
	BarDate  string `json:"bar_date"`
	BuyTier  string `json:"buy_tier,omitempty"`
	SellTier string `json:"sell_tier,omitempty"`
}

// State is the persisted alert history.
type State struct {
	Marks     map[string]Mark `json:"marks"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// LoadState reads the alert state from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{Marks: map[string]Mark{}}, nil
		}
		return nil, fmt.Errorf("read alert state: %w", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode alert state: %w", err)
	}
	if state.Marks == nil {
		state.Marks = map[string]Mark{}
	}
	return &state, nil
}

// SaveState writes the alert state to a JSON file.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0644)
}
