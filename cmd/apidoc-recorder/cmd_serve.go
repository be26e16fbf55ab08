package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/gin-gonic/gin"
)

func serveCmd() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configFlag := fs.String("config", "", "Path to config.yaml")
	addrFlag := fs.String("addr", "", "Control API listen address (default from config)")
	noWatchFlag := fs.Bool("no-watch", false, "Only serve the control API; do not attach to devtools")
	startFlag := fs.Bool("start", false, "Start recording immediately")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: apidoc-recorder serve [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Run the recorder without a panel. Browser extensions and scripts drive\n")
		fmt.Fprintf(os.Stderr, "it through the control API:\n\n")
		fmt.Fprintf(os.Stderr, "  GET    /api/state        PUT /api/state\n")
		fmt.Fprintf(os.Stderr, "  GET    /api/requests     POST /api/requests\n")
		fmt.Fprintf(os.Stderr, "  DELETE /api/requests     GET /api/requests/<seq>\n")
		fmt.Fprintf(os.Stderr, "  GET    /api/events       (websocket, STATE_CHANGED)\n")
		fmt.Fprintf(os.Stderr, "  GET    /api/export.har\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  apidoc-recorder serve\n")
		fmt.Fprintf(os.Stderr, "  apidoc-recorder serve --addr 127.0.0.1:8000 --no-watch\n")
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	cfg := loadConfig(*configFlag)
	if *addrFlag != "" {
		cfg.Control.Addr = *addrFlag
	}
	log, closer := newLogger(cfg.Log, os.Stderr)
	defer closer.Close()
	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	p, err := startPipeline(ctx, cfg, log)
	if err != nil {
		exitErr(err)
	}
	defer p.close()

	if *startFlag {
		if err := p.store.Start(); err != nil {
			exitErr(err)
		}
	}

	st := p.store.Get()
	log.Info().Bool("recording", st.Recording).Int("count", st.Count).Str("db", cfg.Storage.Path).Msg("recorder ready")
	p.run(ctx, !*noWatchFlag)

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-p.errs():
		log.Error().Err(err).Msg("control api stopped")
		cancel()
		p.close()
		closer.Close()
		os.Exit(1)
	}
}
