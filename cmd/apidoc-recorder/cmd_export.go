package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/sadopc/apidoc-recorder/internal/export/har"
)

func exportCmd() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configFlag := fs.String("config", "", "Path to config.yaml")
	outputFlag := fs.String("output", "", "Output file path, or - for stdout (default: apidoc-<ms>.har in the export dir)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: apidoc-recorder export [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Write the recording as a HAR 1.2 file.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  apidoc-recorder export\n")
		fmt.Fprintf(os.Stderr, "  apidoc-recorder export --output session.har\n")
		fmt.Fprintf(os.Stderr, "  apidoc-recorder export --output - | jq '.log.entries | length'\n")
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, _, rec, release := mustConnect(ctx, *configFlag)
	defer release()

	data, name, err := rec.ExportHAR(ctx, time.Now())
	if isNoEntries(err) {
		fmt.Fprintln(os.Stderr, "No requests to export")
		release()
		os.Exit(1)
	}
	if err != nil {
		exitErr(err)
	}

	if *outputFlag == "-" {
		os.Stdout.Write(data)
		return
	}
	path := exportPath(*outputFlag, cfg.Export.Dir, name)
	if err := har.Save(path, data); err != nil {
		exitErr(err)
	}
	fmt.Printf("Exported to %s\n", path)
}

func exportPath(output, dir, name string) string {
	if output != "" {
		return output
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, name)
}
