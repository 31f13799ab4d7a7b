package main

import (
	"fmt"
	"log"
	"os"
)

const usage = `usage: swingscore <command> [flags]

commands:
  analyze   score instruments once and print or export the result
  watch     run the daily schedule with Telegram alerts and commands
  serve     serve scores, charts and metrics over HTTP

Run "swingscore <command> -h" for the flags of a command.`

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "analyze":
		err = runAnalyze(args)
	case "watch":
		err = runWatch(args)
	case "serve":
		err = runServe(args)
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("[FATAL] %s: %v", os.Args[1], err)
	}
}
