package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltin(t *testing.T) {
	profiles, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 builtin profiles, got %d", len(profiles))
	}
	if profiles[0].Name != ShortSwing || profiles[1].Name != Swing {
		t.Errorf("unexpected builtin names %q, %q", profiles[0].Name, profiles[1].Name)
	}

	short, swing := profiles[0], profiles[1]
	if swing.MovingAverage != 60 || swing.Retracement.Variant != "anchored" || swing.Retracement.Window != 120 {
		t.Errorf("swing basics = %d/%s/%d", swing.MovingAverage, swing.Retracement.Variant, swing.Retracement.Window)
	}
	if short.MovingAverage != 20 || short.Retracement.Variant != "box" || short.Retracement.Window != 20 {
		t.Errorf("short_swing basics = %d/%s/%d", short.MovingAverage, short.Retracement.Variant, short.Retracement.Window)
	}
	if short.Buy.Slope.Cap != 0 || short.Buy.DMI.Cap != 0 {
		t.Error("short_swing must not score slope or DMI")
	}
	if got := swing.Buy.Stochastic.Cross[0].Score; got != 6 {
		t.Errorf("swing low-level golden cross = %.1f, want 6", got)
	}
	if got := short.Buy.Stochastic.Cross[0].Score; got != 10 {
		t.Errorf("short_swing low-level golden cross = %.1f, want 10", got)
	}
}

func TestBuiltin_CapsSumTo100(t *testing.T) {
	profiles, err := Builtin()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range profiles {
		for name, s := range map[string]Side{"buy": p.Buy, "sell": p.Sell} {
			total := s.Retracement.Cap + s.Slope.Cap + s.Trend.Cap + s.Stochastic.Cap +
				s.RSI.Cap + s.MACD.Cap + s.DMI.Cap + s.Bollinger.Cap
			if total != 100 {
				t.Errorf("%s %s caps sum to %.1f, want 100", p.Name, name, total)
			}
		}
	}
}

func TestLevelNames(t *testing.T) {
	r := Retracement{Ratios: []float64{0.382, 0.5}, Extensions: []float64{1.618}}
	names := r.LevelNames()
	for _, want := range []string{"high", "low", "l382", "l500", "ext1618"} {
		if !names[want] {
			t.Errorf("missing level %q", want)
		}
	}
	if names["l618"] {
		t.Error("l618 must not be listed")
	}
}

const tomlProfile = `
name = "weekly_box"
description = "box band with an RSI-only buy side"
moving_average = 10

[retracement]
variant = "box"
window = 10
ratios = [0.5]
extensions = [1.272]
min_range = 0.05

[divergence]
start = -22
end = -2

[buy.rsi]
cap = 20

[[buy.rsi.position]]
op = "lt"
value = 30
score = 20
`

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "weekly.toml"), []byte(tomlProfile), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	profiles, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(profiles))
	}
	p := profiles[0]
	if p.Name != "weekly_box" || p.Buy.RSI.Cap != 20 || len(p.Buy.RSI.Position) != 1 {
		t.Errorf("unexpected profile %+v", p.Buy.RSI)
	}
	if p.Buy.RSI.Position[0].Op != OpLT || p.Buy.RSI.Position[0].Value != 30 {
		t.Errorf("tier = %+v", p.Buy.RSI.Position[0])
	}
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	data := []byte("name: x\nmoving_averag: 20\n")
	if _, err := Parse(data, FormatYAML); err == nil {
		t.Error("expected error for misspelled key")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Profile {
		return &Profile{
			Name:          "t",
			MovingAverage: 20,
			Retracement:   Retracement{Variant: "box", Window: 20, Ratios: []float64{0.5}, Extensions: []float64{1.272}},
			Divergence:    Lookback{Start: DivergenceStart, End: DivergenceEnd},
		}
	}
	tests := []struct {
		name   string
		mutate func(p *Profile)
		ok     bool
	}{
		{"valid", func(p *Profile) {}, true},
		{"unknown variant", func(p *Profile) { p.Retracement.Variant = "spiral" }, false},
		{"short window", func(p *Profile) { p.Retracement.Window = 3 }, false},
		{"bad ratio", func(p *Profile) { p.Retracement.Ratios = []float64{1.5} }, false},
		{"bad extension", func(p *Profile) { p.Retracement.Extensions = []float64{0.9} }, false},
		{"cap above 100", func(p *Profile) { p.Buy.RSI.Cap = 120 }, false},
		{"bad op", func(p *Profile) { p.Buy.RSI.Position = Ladder{{Op: "eq", Value: 1}} }, false},
		{"short linear", func(p *Profile) { p.Sell.Bollinger.Position = Ladder{{Op: OpGT, Value: 1, Linear: []float64{1, 2}}} }, false},
		{"unknown level", func(p *Profile) {
			p.Buy.Retracement.Zones = []Zone{{Price: "close", Op: OpGT, Level: "l382"}}
		}, false},
		{"span without out", func(p *Profile) {
			p.Buy.Retracement.Zones = []Zone{{Price: "close", Op: OpGT, Level: "l500", Span: []string{"l500", "high"}}}
		}, false},
		{"bad lookback", func(p *Profile) { p.Divergence.Start = -30 }, false},
		{"bad combine", func(p *Profile) { p.Buy.MACD.Combine = "avg" }, false},
		{"bad divergence mode", func(p *Profile) { p.Sell.RSI.Divergence.Mode = "double" }, false},
		{"bad broken mode", func(p *Profile) { p.Sell.Trend.Broken.Mode = "ignore" }, false},
		{"missing ma", func(p *Profile) { p.MovingAverage = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base()
			tt.mutate(p)
			err := p.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRegistry_Resolve(t *testing.T) {
	reg, err := Load("", Swing, map[string]string{"3231.tw": ShortSwing})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tests := []struct {
		symbol string
		want   string
	}{
		{"3231.TW", ShortSwing},
		{" 3231.tw ", ShortSwing},
		{"6669.TW", Swing},
		{"AAPL", Swing},
	}
	for _, tt := range tests {
		p, err := reg.Resolve(tt.symbol)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tt.symbol, err)
		}
		if p.Name != tt.want {
			t.Errorf("Resolve(%q) = %s, want %s", tt.symbol, p.Name, tt.want)
		}
	}
	if _, err := reg.Get("nope"); !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("Get(nope) err = %v, want ErrUnknownProfile", err)
	}
}

func TestRegistry_Override(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`name = "swing"
moving_average = 30
[retracement]
variant = "box"
window = 30
ratios = [0.5]
[divergence]
start = -22
end = -2
`)
	if err := os.WriteFile(filepath.Join(dir, "swing.toml"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	reg, err := Load(dir, Swing, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, err := reg.Get(Swing)
	if err != nil {
		t.Fatal(err)
	}
	if p.MovingAverage != 30 {
		t.Errorf("override not applied: moving_average = %d", p.MovingAverage)
	}
	if got := reg.Names(); len(got) != 2 {
		t.Errorf("Names = %v", got)
	}
}

func TestRegistry_UnknownReferences(t *testing.T) {
	if _, err := Load("", "missing", nil); !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("unknown default: err = %v", err)
	}
	if _, err := Load("", Swing, map[string]string{"X": "missing"}); !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("unknown instrument profile: err = %v", err)
	}
}
