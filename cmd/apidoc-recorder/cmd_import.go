package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"

	"github.com/sadopc/apidoc-recorder/internal/capture"
	harimport "github.com/sadopc/apidoc-recorder/internal/import/har"
)

func importCmd() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configFlag := fs.String("config", "", "Path to config.yaml")
	allFlag := fs.Bool("all", false, "Keep static assets and other traffic the capture filter drops")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: apidoc-recorder import <file.har> [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Append the API requests of a HAR file to the recording.\n")
		fmt.Fprintf(os.Stderr, "Entries pass through the same filter as live capture.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  apidoc-recorder import session.har\n")
		fmt.Fprintf(os.Stderr, "  apidoc-recorder import session.har --all\n")
	}

	args, err := parseArgs(fs, os.Args[2:])
	if err != nil {
		os.Exit(2)
	}
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Error: HAR file path is required\n\n")
		fs.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		exitErr(fmt.Errorf("reading input: %w", err))
	}
	exchanges, err := harimport.Parse(data)
	if err != nil {
		exitErr(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	_, log, rec, release := mustConnect(ctx, *configFlag)
	defer release()

	res, err := importExchanges(ctx, rec, exchanges, *allFlag, time.Now, log)
	if err != nil {
		exitErr(err)
	}
	fmt.Printf("Imported %d requests (%d skipped), %d total\n", res.imported, res.skipped, res.count)
}

type importResult struct {
	imported int
	skipped  int
	count    int
}

type appender interface {
	Append(ctx context.Context, e capture.Entry) (int, error)
}

// importExchanges normalizes and appends exchanges in file order. Rejected
// exchanges are counted as skipped.
func importExchanges(ctx context.Context, rec appender, exchanges []capture.Exchange, all bool, now func() time.Time, log zerolog.Logger) (importResult, error) {
	var res importResult
	for _, ex := range exchanges {
		if !all {
			if reason := capture.Classify(ex); reason != capture.ReasonNone {
				log.Debug().Str("url", ex.URL).Stringer("reason", reason).Msg("skipped")
				res.skipped++
				continue
			}
		}
		body, err := ex.FetchBody(ctx)
		if err != nil {
			return res, err
		}
		capturedAt := ex.StartedAt
		if capturedAt.IsZero() {
			capturedAt = now()
		}
		n, err := rec.Append(ctx, capture.Normalize(ex, body, capturedAt))
		if err != nil {
			return res, fmt.Errorf("appending %s %s: %w", ex.Method, ex.URL, err)
		}
		res.imported++
		res.count = n
	}
	return res, nil
}
