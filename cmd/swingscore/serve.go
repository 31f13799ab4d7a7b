package main

import (
	"flag"

	"SwingScore/internal/config"
	"SwingScore/internal/server"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "config file (default $CONFIG_PATH or "+config.DefaultPath+")")
	addr := fs.String("addr", "", "listen address (default server.addr)")
	fs.Parse(args)

	a, err := newApp(*configPath, (*config.Config).Validate)
	if err != nil {
		return err
	}
	if *addr == "" {
		*addr = a.cfg.Server.Addr
	}
	rec, history := a.openRecorder()
	defer rec.Close()

	ctx, cancel := signalContext()
	defer cancel()
	return server.New(a.analyzer, a.profiles, history, a.metrics).Run(ctx, *addr)
}
