package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/sadopc/apidoc-recorder/internal/capture"
	"github.com/sadopc/apidoc-recorder/internal/export"
)

func listCmd() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configFlag := fs.String("config", "", "Path to config.yaml")
	grepFlag := fs.String("grep", "", "Only show requests whose URL contains this text")
	methodFlag := fs.String("method", "", "Only show requests with this method")
	jsonFlag := fs.Bool("json", false, "Print entries as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: apidoc-recorder list [flags]\n\n")
		fmt.Fprintf(os.Stderr, "List recorded requests in capture order.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  apidoc-recorder list\n")
		fmt.Fprintf(os.Stderr, "  apidoc-recorder list --grep /users --method POST\n")
		fmt.Fprintf(os.Stderr, "  apidoc-recorder list --json | jq '.[].url'\n")
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	_, _, rec, release := mustConnect(ctx, *configFlag)
	defer release()

	entries, err := rec.Search(ctx, *grepFlag)
	if err != nil {
		exitErr(err)
	}
	entries = filterMethod(entries, *methodFlag)

	if *jsonFlag {
		if entries == nil {
			entries = []capture.Entry{}
		}
		data, err := json.Marshal(entries)
		if err != nil {
			exitErr(err)
		}
		os.Stdout.Write(pretty.Pretty(data))
		return
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "No requests recorded.")
		return
	}
	printEntries(os.Stdout, entries, time.Now())
}

func filterMethod(entries []capture.Entry, method string) []capture.Entry {
	if method == "" {
		return entries
	}
	var out []capture.Entry
	for _, e := range entries {
		if strings.EqualFold(e.Method, method) {
			out = append(out, e)
		}
	}
	return out
}

func printEntries(w io.Writer, entries []capture.Entry, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tMETHOD\tSTATUS\tLATENCY\tSIZE\tCAPTURED\tURL")
	for i, e := range entries {
		seq := e.Seq
		if seq == 0 {
			seq = i + 1
		}
		status := "-"
		if e.StatusCode > 0 {
			status = strconv.Itoa(e.StatusCode)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%dms\t%s\t%s\t%s\n",
			seq, e.Method, status, e.LatencyMs,
			humanize.Bytes(uint64(len(e.ResponseBody))),
			humanize.RelTime(e.Timestamp, now, "ago", "from now"),
			e.URL)
	}
	tw.Flush()
}

func showCmd() {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	configFlag := fs.String("config", "", "Path to config.yaml")
	jsonFlag := fs.Bool("json", false, "Print the raw entry as JSON")
	noColorFlag := fs.Bool("no-color", false, "Disable colored JSON")
	curlFlag := fs.Bool("curl", false, "Print the request as a curl command")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: apidoc-recorder show <seq> [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Print one recorded request, numbered as in 'list'.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	args, err := parseArgs(fs, os.Args[2:])
	if err != nil {
		os.Exit(2)
	}
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Error: request number is required\n\n")
		fs.Usage()
		os.Exit(2)
	}
	seq, err := strconv.Atoi(args[0])
	if err != nil || seq < 1 {
		fmt.Fprintf(os.Stderr, "Error: invalid request number %q\n", args[0])
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	_, _, rec, release := mustConnect(ctx, *configFlag)
	defer release()

	e, err := rec.Entry(ctx, seq)
	if err != nil {
		exitErr(err)
	}

	if *curlFlag {
		fmt.Println(export.AsCurl(e))
		return
	}

	color := !*noColorFlag
	if *jsonFlag {
		data, err := json.Marshal(e)
		if err != nil {
			exitErr(err)
		}
		os.Stdout.Write(formatJSON(data, color))
		return
	}
	printEntry(os.Stdout, e, color)
}

func printEntry(w io.Writer, e capture.Entry, color bool) {
	fmt.Fprintf(w, "%s %s\n", e.Method, e.URL)
	fmt.Fprintf(w, "Status: %d  Latency: %dms  Captured: %s\n", e.StatusCode, e.LatencyMs, e.Timestamp.Format(time.RFC3339))

	printHeaders(w, "Request headers", e.RequestHeaders)
	printBody(w, "Request body", e.RequestBody, color)
	printHeaders(w, "Response headers", e.ResponseHeaders)
	printBody(w, "Response body", e.ResponseBody, color)
}

func printHeaders(w io.Writer, title string, hs map[string]string) {
	if len(hs) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	names := make([]string, 0, len(hs))
	for k := range hs {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(w, "  %s: %s\n", k, hs[k])
	}
}

func printBody(w io.Writer, title, body string, color bool) {
	if body == "" {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	if gjson.Valid(body) {
		w.Write(formatJSON([]byte(body), color))
		return
	}
	fmt.Fprintln(w, body)
}

// formatJSON indents data and, if color is set, adds terminal colors.
func formatJSON(data []byte, color bool) []byte {
	out := pretty.Pretty(data)
	if color {
		out = pretty.Color(out, nil)
	}
	return out
}
