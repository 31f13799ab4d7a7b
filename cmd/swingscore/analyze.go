package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"SwingScore/internal/analysis"
	"SwingScore/internal/config"
	"SwingScore/internal/pipeline"
	"SwingScore/internal/recorder"
	"SwingScore/internal/render"
)

type analyzeFlags struct {
	config  string
	symbols string
	profile string
	start   string
	end     string
	format  string
	last    int
	out     string
	export  bool
	factors bool
	record  bool
}

func parseDate(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(pipeline.DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("-%s: %w", name, err)
	}
	return t, nil
}

func runAnalyze(args []string) error {
	var f analyzeFlags
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	fs.StringVar(&f.config, "config", "", "config file (default $CONFIG_PATH or "+config.DefaultPath+")")
	fs.StringVar(&f.symbols, "symbol", "", "comma separated symbols (default: configured instruments)")
	fs.StringVar(&f.profile, "profile", "", "scoring profile, overriding the instrument's")
	fs.StringVar(&f.start, "start", "", "first reported day, YYYY-MM-DD")
	fs.StringVar(&f.end, "end", "", "last day, YYYY-MM-DD (default today)")
	fs.StringVar(&f.format, "format", "table", "stdout format: table, csv or none")
	fs.IntVar(&f.last, "last", 20, "print only the last N rows (0 prints all)")
	fs.StringVar(&f.out, "out", "", "write CSV and HTML chart files to this directory")
	fs.BoolVar(&f.export, "export", false, "write CSV and HTML chart files to output.dir")
	fs.BoolVar(&f.factors, "factors", false, "print the factor breakdown of the last bar")
	fs.BoolVar(&f.record, "record", false, "store the run in the SQLite database")
	fs.Parse(args)

	switch f.format {
	case "table", "csv", "none":
	default:
		return fmt.Errorf("unknown -format %q", f.format)
	}
	start, err := parseDate("start", f.start)
	if err != nil {
		return err
	}
	end, err := parseDate("end", f.end)
	if err != nil {
		return err
	}

	a, err := newApp(f.config, (*config.Config).Validate)
	if err != nil {
		return err
	}
	if f.export && f.out == "" {
		f.out = a.cfg.Output.Dir
	}
	symbols := a.cfg.Symbols()
	if f.symbols != "" {
		symbols = strings.Split(f.symbols, ",")
	}
	if len(symbols) == 0 {
		return errors.New("no symbols: pass -symbol or configure instruments")
	}

	rec := recorder.Recorder(recorder.NewNoopRecorder())
	if f.record {
		rec, _ = a.openRecorder()
	}
	defer rec.Close()

	ctx, cancel := signalContext()
	defer cancel()

	var failed int
	for _, sym := range symbols {
		sym = strings.TrimSpace(sym)
		if err := analyzeOne(ctx, a, rec, f, analysis.Request{Symbol: sym, Profile: f.profile, Start: start, End: end}); err != nil {
			log.Printf("[ERROR] %s: %v", sym, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d instruments failed", failed, len(symbols))
	}
	return nil
}

func analyzeOne(ctx context.Context, a *app, rec recorder.Recorder, f analyzeFlags, req analysis.Request) error {
	started := time.Now()
	rep, err := a.analyzer.Analyze(ctx, req)
	if err != nil {
		return err
	}
	rows := rep.Rows()
	if len(rows) == 0 {
		return errors.New("no bars in the requested range")
	}

	printed := rows
	if f.last > 0 && len(printed) > f.last {
		printed = printed[len(printed)-f.last:]
	}
	switch f.format {
	case "table":
		render.Table(os.Stdout, rep, printed)
	case "csv":
		render.CSV(os.Stdout, printed)
	}
	if f.factors {
		render.Factors(os.Stdout, rows[len(rows)-1])
	}

	if dir := f.out; dir != "" {
		paths, err := render.WriteFiles(dir, rep, rows)
		if err != nil {
			return err
		}
		log.Printf("[INFO] %s: wrote %s", req.Symbol, strings.Join(paths, ", "))
	}

	points := make([]recorder.Point, len(rows))
	for i, r := range rows {
		idx, _ := rep.Table.Lookup(r.Time)
		bar, _ := rep.Table.At(idx)
		points[i] = recorder.Point{Bar: bar, Score: r.Score}
	}
	return rec.RecordRun(ctx, &recorder.Run{
		Symbol:    rep.Symbol,
		Profile:   rep.Profile,
		Source:    rep.Source,
		StartedAt: started,
		Duration:  time.Since(started),
		Points:    points,
	})
}
