package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/sadopc/apidoc-recorder/internal/submit"
)

func submitCmd() {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	configFlag := fs.String("config", "", "Path to config.yaml")
	scenarioFlag := fs.String("scenario", "", "What the recording shows (required)")
	backendFlag := fs.String("backend", "", "Backend base URL (default from config)")
	timeoutFlag := fs.Duration("timeout", 0, "Per-call timeout (default from config)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: apidoc-recorder submit --scenario <text> [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Upload the recording to the documentation backend and start generation.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  apidoc-recorder submit --scenario \"user signs up and creates a project\"\n")
		fmt.Fprintf(os.Stderr, "  apidoc-recorder submit --scenario checkout --backend https://docs.internal\n")
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}
	if strings.TrimSpace(*scenarioFlag) == "" {
		fmt.Fprintf(os.Stderr, "Error: Please enter a scenario description\n\n")
		fs.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, log, rec, release := mustConnect(ctx, *configFlag)
	defer release()

	if *backendFlag != "" {
		cfg.Backend.URL = *backendFlag
	}
	if *timeoutFlag > 0 {
		cfg.Backend.Timeout = *timeoutFlag
	}
	client, err := newSubmitClient(cfg.Backend, log.With().Str("component", "submit").Logger())
	if err != nil {
		exitErr(err)
	}

	entries, err := rec.Entries(ctx)
	if err != nil {
		exitErr(err)
	}
	entries = newRedactor(cfg.Redact).Apply(entries)

	fmt.Fprintf(os.Stderr, "Sending %d requests to %s...\n", len(entries), client.BaseURL())
	start := time.Now()
	res, err := client.Submit(ctx, *scenarioFlag, entries)
	if err != nil {
		release()
		fmt.Fprintf(os.Stderr, "Error: %s\n", submitErrorText(err))
		os.Exit(1)
	}
	log.Debug().Str("session", res.SessionID).Dur("took", time.Since(start)).Msg("submitted")
	fmt.Printf("Done! Session: %s. View at %s\n", res.SessionID, res.DocsURL)
}

// submitErrorText turns a submit failure into the message shown to the user.
func submitErrorText(err error) string {
	var statusErr *submit.StatusError
	switch {
	case errors.Is(err, submit.ErrNoEntries):
		return "No requests to send"
	case errors.Is(err, submit.ErrEmptyScenario):
		return "Please enter a scenario description"
	case errors.As(err, &statusErr):
		return statusErr.Error()
	default:
		return err.Error()
	}
}
