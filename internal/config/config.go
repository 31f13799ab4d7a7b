package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// Instrument pairs a symbol with the scoring profile it uses. An empty
// profile falls back to profiles.default.
type Instrument struct {
	Symbol  string `yaml:"symbol"`
	Profile string `yaml:"profile"`
}

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Source  string `yaml:"source"`
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Dir     string `yaml:"dir"`

		// HistoryDays is the number of calendar days fetched before the
		// analysis end date.
		HistoryDays int `yaml:"history_days"`
	} `yaml:"data_source"`
	Instruments []Instrument `yaml:"instruments"`
	Profiles    struct {
		Dir     string `yaml:"dir"`
		Default string `yaml:"default"`
	} `yaml:"profiles"`
	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken  string `yaml:"bot_token"`
		ChatID    string `yaml:"chat_id"`
		// StateFile remembers sent alerts across restarts.
		StateFile string `yaml:"state_file"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Proxy string `yaml:"proxy"`
}

// Path returns CONFIG_PATH or DefaultPath.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file yields a config built from environment and defaults only.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SWINGSCORE_SYMBOL"); v != "" {
		cfg.Instruments = nil
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.Instruments = append(cfg.Instruments, Instrument{Symbol: s})
			}
		}
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	// Defaults
	if cfg.DataSource.Source == "" {
		cfg.DataSource.Source = "yahoo"
	}
	if cfg.DataSource.HistoryDays == 0 {
		cfg.DataSource.HistoryDays = 730
	}
	if cfg.Profiles.Default == "" {
		cfg.Profiles.Default = "swing"
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "output"
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 30 14 * * 1-5"
	}
	if cfg.Telegram.StateFile == "" {
		cfg.Telegram.StateFile = "data/alert_state.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/swingscore.db"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}

	return cfg, nil
}

// Symbols lists the configured instrument symbols in file order.
func (c *Config) Symbols() []string {
	out := make([]string, 0, len(c.Instruments))
	for _, in := range c.Instruments {
		out = append(out, in.Symbol)
	}
	return out
}

// ProfileMap returns the symbol to profile assignments that name a profile.
func (c *Config) ProfileMap() map[string]string {
	m := make(map[string]string, len(c.Instruments))
	for _, in := range c.Instruments {
		if in.Profile != "" {
			m[in.Symbol] = in.Profile
		}
	}
	return m
}

// Validate checks the fields every command needs.
func (c *Config) Validate() error {
	if c.DataSource.HistoryDays < 0 {
		return fmt.Errorf("data_source.history_days must not be negative")
	}
	seen := make(map[string]bool, len(c.Instruments))
	for i, in := range c.Instruments {
		if strings.TrimSpace(in.Symbol) == "" {
			return fmt.Errorf("instruments[%d].symbol is required", i)
		}
		key := strings.ToUpper(in.Symbol)
		if seen[key] {
			return fmt.Errorf("instruments[%d]: duplicate symbol %q", i, in.Symbol)
		}
		seen[key] = true
	}
	switch c.DataSource.Source {
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest source")
		}
	case "csv":
		if c.DataSource.Dir == "" {
			return fmt.Errorf("data_source.dir is required for the csv source")
		}
	}
	return nil
}

// ValidateWatch checks the additional fields required by the watch command.
func (c *Config) ValidateWatch() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.Instruments) == 0 {
		return fmt.Errorf("at least one instrument is required")
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}
