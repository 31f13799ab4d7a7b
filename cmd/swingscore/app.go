package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"SwingScore/internal/analysis"
	"SwingScore/internal/collector"
	"SwingScore/internal/config"
	"SwingScore/internal/metrics"
	"SwingScore/internal/profile"
	"SwingScore/internal/recorder"
)

// app holds the components shared by every command.
type app struct {
	cfg      *config.Config
	profiles *profile.Registry
	analyzer *analysis.Analyzer
	metrics  *metrics.Metrics
}

func newApp(configPath string, validate func(*config.Config) error) (*app, error) {
	if configPath == "" {
		configPath = config.Path()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	profiles, err := profile.Load(cfg.Profiles.Dir, cfg.Profiles.Default, cfg.ProfileMap())
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	log.Printf("[INFO] profiles: %v (default %s)", profiles.Names(), cfg.Profiles.Default)

	fetcher, err := collector.New(collector.Options{
		Source:  cfg.DataSource.Source,
		BaseURL: cfg.DataSource.BaseURL,
		APIKey:  cfg.DataSource.APIKey,
		Dir:     cfg.DataSource.Dir,
		Proxy:   cfg.Proxy,
	})
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	m := metrics.NewMetrics()
	a := analysis.NewAnalyzer(collector.NewCollector(fetcher), profiles, cfg.DataSource.HistoryDays, m)
	return &app{cfg: cfg, profiles: profiles, analyzer: a, metrics: m}, nil
}

// openRecorder returns the SQLite recorder, or the noop one when no path is
// configured or the database cannot be opened. history is nil for noop.
func (a *app) openRecorder() (rec recorder.Recorder, history recorder.History) {
	if a.cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder(), nil
	}
	sr, err := recorder.NewSQLiteRecorder(a.cfg.Database.SQLitePath)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder(), nil
	}
	return sr, sr
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
