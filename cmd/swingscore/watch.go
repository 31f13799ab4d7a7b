package main

import (
	"flag"
	"log"
	"os"

	"SwingScore/internal/alerts"
	"SwingScore/internal/config"
	"SwingScore/internal/notifier"
	"SwingScore/internal/scheduler"
	"SwingScore/internal/server"
)

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", "", "config file (default $CONFIG_PATH or "+config.DefaultPath+")")
	runNow := fs.Bool("now", os.Getenv("RUN_ON_START") == "true", "run the daily task once at start")
	serve := fs.Bool("http", false, "also serve the HTTP API on server.addr")
	fs.Parse(args)

	log.Println("[INFO] SwingScore watch starting...")
	a, err := newApp(*configPath, (*config.Config).ValidateWatch)
	if err != nil {
		return err
	}
	rec, history := a.openRecorder()
	defer rec.Close()

	am, err := alerts.NewManager(a.cfg.Telegram.StateFile)
	if err != nil {
		return err
	}
	tn := notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy)

	ctx, cancel := signalContext()
	defer cancel()

	sched := scheduler.NewScheduler(ctx, a.analyzer, a.profiles, tn, rec, am, a.metrics, a.cfg.Symbols())
	if err := sched.RegisterAll(a.cfg.Schedule.DailyCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Println("[INFO] Telegram polling started")

	if *serve {
		srv := server.New(a.analyzer, a.profiles, history, a.metrics)
		go func() {
			if err := srv.Run(ctx, a.cfg.Server.Addr); err != nil {
				log.Printf("[ERROR] %v", err)
			}
		}()
	}

	if *runNow {
		log.Println("[INFO] running the daily task now")
		go sched.RunDailyNow()
	}

	log.Println("[INFO] SwingScore is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Println("[INFO] shutdown signal received, stopping...")
	return nil
}
