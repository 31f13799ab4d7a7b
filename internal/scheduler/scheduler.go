package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"SwingScore/internal/alerts"
	"SwingScore/internal/analysis"
	"SwingScore/internal/metrics"
	"SwingScore/internal/model"
	"SwingScore/internal/notifier"
	"SwingScore/internal/profile"
	"SwingScore/internal/recorder"

	"github.com/robfig/cron/v3"
)

// RecordBars is the number of most recent bars stored per run.
const RecordBars = 60

// Analyzer scores one instrument.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Report, error)
}

// Sender delivers notifications.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron        *cron.Cron
	Analyzer    Analyzer
	Profiles    *profile.Registry
	Notifier    Sender
	Recorder    recorder.Recorder
	Alerts      *alerts.Manager
	Metrics     *metrics.Metrics
	Instruments []string
	Ctx         context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, a Analyzer, profiles *profile.Registry, n Sender, rec recorder.Recorder, am *alerts.Manager, m *metrics.Metrics, instruments []string) *Scheduler {
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Analyzer:    a,
		Profiles:    profiles,
		Notifier:    n,
		Recorder:    rec,
		Alerts:      am,
		Metrics:     m,
		Instruments: instruments,
		Ctx:         ctx,
	}
}

// RegisterAll registers the daily scoring task.
func (s *Scheduler) RegisterAll(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully and waits for a running task.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunDailyNow executes the daily task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunDailyNow() {
	s.dailyTask()
}

func (s *Scheduler) dailyTask() {
	log.Printf("[INFO] running daily task for %d instruments", len(s.Instruments))
	for _, symbol := range s.Instruments {
		if s.Ctx.Err() != nil {
			return
		}
		rep, err := s.analyze(s.Ctx, symbol, "")
		if err != nil {
			log.Printf("[ERROR] daily analysis %s: %v", symbol, err)
			s.trySend(fmt.Sprintf("❌ %s analysis failed: %v", symbol, err))
			continue
		}
		s.alert(rep)
	}
}

// analyze scores symbol and records the run.
func (s *Scheduler) analyze(ctx context.Context, symbol, profileName string) (*analysis.Report, error) {
	started := time.Now()
	rep, err := s.Analyzer.Analyze(ctx, analysis.Request{Symbol: symbol, Profile: profileName})
	if err != nil {
		return nil, err
	}
	if err := s.Recorder.RecordRun(ctx, runOf(rep, started)); err != nil {
		log.Printf("[ERROR] record run %s: %v", symbol, err)
	}
	if last, ok := rep.Latest(); ok {
		log.Printf("[INFO] %s %s: buy %.1f (%s) sell %.1f (%s)", symbol, last.Time.Format("2006-01-02"),
			last.Buy, last.BuyTier.Label, last.Sell, last.SellTier.Label)
	}
	return rep, nil
}

func (s *Scheduler) alert(rep *analysis.Report) {
	last, ok := rep.Latest()
	if !ok {
		return
	}
	buy, sell := s.Alerts.Check(rep.Symbol, last)
	if !buy && !sell {
		return
	}
	s.trySend(notifier.FormatAlert(rep, last))
	if buy {
		s.Metrics.IncAlert(rep.Symbol, string(model.SideBuy), last.BuyTier.Label)
	}
	if sell {
		s.Metrics.IncAlert(rep.Symbol, string(model.SideSell), last.SellTier.Label)
	}
}

func runOf(rep *analysis.Report, started time.Time) *recorder.Run {
	rows := rep.Rows()
	if len(rows) > RecordBars {
		rows = rows[len(rows)-RecordBars:]
	}
	run := &recorder.Run{
		Symbol:    rep.Symbol,
		Profile:   rep.Profile,
		Source:    rep.Source,
		StartedAt: started,
		Duration:  time.Since(started),
		Points:    make([]recorder.Point, len(rows)),
	}
	for i, r := range rows {
		bar := model.OHLCV{Time: r.Time, Close: r.Close}
		if idx, ok := rep.Table.Lookup(r.Time); ok {
			bar, _ = rep.Table.At(idx)
		}
		run.Points[i] = recorder.Point{Bar: bar, Score: r.Score}
	}
	return run
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp(s.Instruments)
	}
	switch strings.ToLower(fields[0]) {
	case "/score":
		if len(fields) < 2 {
			return "usage: /score &lt;symbol&gt; [profile]"
		}
		symbol, profileName := fields[1], ""
		if len(fields) > 2 {
			profileName = fields[2]
		}
		rep, err := s.analyze(ctx, symbol, profileName)
		if err != nil {
			log.Printf("[WARN] /score %s: %v", symbol, err)
			return fmt.Sprintf("❌ %s: %v", symbol, err)
		}
		last, ok := rep.Latest()
		if !ok {
			return fmt.Sprintf("❌ %s: no scored bars", symbol)
		}
		return notifier.FormatScore(rep, last)
	case "/profiles":
		var b strings.Builder
		b.WriteString("Profiles: " + strings.Join(s.Profiles.Names(), ", ") + "\n")
		for _, sym := range s.Instruments {
			if p, err := s.Profiles.Resolve(sym); err == nil {
				b.WriteString(fmt.Sprintf("  %s → %s\n", sym, p.Name))
			}
		}
		return b.String()
	default:
		return notifier.FormatHelp(s.Instruments)
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
