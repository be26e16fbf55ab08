package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
)

func clearCmd() {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	configFlag := fs.String("config", "", "Path to config.yaml")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: apidoc-recorder clear [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Remove all recorded requests and stop recording.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	_, _, rec, release := mustConnect(ctx, *configFlag)
	defer release()

	if err := rec.Clear(ctx); err != nil {
		exitErr(err)
	}
	fmt.Println("Cleared.")
}
