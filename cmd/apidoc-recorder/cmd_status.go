package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/sadopc/apidoc-recorder/internal/control"
	"github.com/sadopc/apidoc-recorder/internal/devtools"
	"github.com/sadopc/apidoc-recorder/internal/recorder"
)

func statusCmd() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configFlag := fs.String("config", "", "Path to config.yaml")
	watchFlag := fs.Bool("watch", false, "Keep printing state changes from a running recorder")
	targetsFlag := fs.Bool("targets", false, "Also list the browser targets the devtools watcher can attach to")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: apidoc-recorder status [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Show whether recording is on and how many requests are captured.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, _, rec, release := mustConnect(ctx, *configFlag)
	defer release()

	st, err := rec.State(ctx)
	if err != nil {
		exitErr(err)
	}
	fmt.Printf("Source: %s\n", rec.Source())
	printState(os.Stdout, st)

	if *targetsFlag {
		targets, err := devtools.ListTargets(ctx, cfg.Capture.DevToolsURL)
		if err != nil {
			exitErr(err)
		}
		fmt.Println()
		printTargets(os.Stdout, targets, cfg.Capture.TargetID)
	}

	if !*watchFlag {
		return
	}
	remote, ok := rec.(remoteRecording)
	if !ok {
		exitErr(fmt.Errorf("--watch needs a running recorder"))
	}
	if err := watchState(ctx, remote.Client, os.Stdout); err != nil {
		exitErr(err)
	}
}

func watchState(ctx context.Context, c *control.Client, w io.Writer) error {
	return c.Watch(ctx, func(st recorder.State) { printState(w, st) })
}

func printState(w io.Writer, st recorder.State) {
	fmt.Fprintln(w, formatState(st))
}

func formatState(st recorder.State) string {
	label := "Idle"
	if st.Recording {
		label = "Recording"
	}
	noun := "requests"
	if st.Count == 1 {
		noun = "request"
	}
	return fmt.Sprintf("%s, %d %s", label, st.Count, noun)
}

// printTargets lists targets and marks the one the watcher would attach to.
func printTargets(w io.Writer, targets []devtools.Target, id string) {
	picked, _ := devtools.PickTarget(targets, id)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, " \tID\tTYPE\tTITLE\tURL")
	for _, t := range targets {
		mark := " "
		if picked.ID != "" && t.ID == picked.ID {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark, t.ID, t.Type, t.Title, t.URL)
	}
	tw.Flush()
}
