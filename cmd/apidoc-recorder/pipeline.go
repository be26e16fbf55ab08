package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/sadopc/apidoc-recorder/internal/capture"
	"github.com/sadopc/apidoc-recorder/internal/config"
	"github.com/sadopc/apidoc-recorder/internal/control"
	"github.com/sadopc/apidoc-recorder/internal/devtools"
	"github.com/sadopc/apidoc-recorder/internal/recorder"
	"github.com/sadopc/apidoc-recorder/internal/storage"
)

const watchRetryDelay = 3 * time.Second

// pipeline is a live recording session: the store, the capture queue in
// front of it, the devtools watcher and the control API.
type pipeline struct {
	cfg      config.Config
	log      zerolog.Logger
	store    *recorder.Store
	db       *storage.Store
	queue    *capture.Queue
	gate     *capture.Gate
	redactor *capture.Redactor
	ln       net.Listener
	errc     chan error
}

// startPipeline opens the database and binds the control API. Nothing runs
// until run is called.
func startPipeline(ctx context.Context, cfg config.Config, log zerolog.Logger) (*pipeline, error) {
	store, db, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", cfg.Control.Addr)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("control api: %w", err)
	}

	opts := []capture.QueueOption{
		capture.WithBuffer(cfg.Capture.QueueSize),
		capture.WithLogger(log.With().Str("component", "queue").Logger()),
	}
	if cfg.Capture.BodyTimeout > 0 {
		opts = append(opts, capture.WithBodyTimeout(cfg.Capture.BodyTimeout))
	}
	queue := capture.NewQueue(ctx, store, opts...)
	gate := capture.NewGate(queue, func() bool { return store.Get().Recording }, log.With().Str("component", "gate").Logger())

	return &pipeline{
		cfg:      cfg,
		log:      log,
		store:    store,
		db:       db,
		queue:    queue,
		gate:     gate,
		redactor: newRedactor(cfg.Redact),
		ln:       ln,
		errc:     make(chan error, 1),
	}, nil
}

// run starts the control API and, when watch is set, the devtools watcher.
// A server failure is reported on errs.
func (p *pipeline) run(ctx context.Context, watch bool) {
	srv := control.NewServer(p.store,
		control.WithLogger(p.log.With().Str("component", "control").Logger()),
		control.WithAllowOrigins(p.cfg.Control.AllowOrigins),
		control.WithRedactor(p.redactor),
	)
	go func() {
		if err := srv.Serve(ctx, p.ln); err != nil {
			p.errc <- err
		}
	}()

	if watch {
		w := devtools.NewWatcher(p.cfg.Capture.DevToolsURL, func(ex capture.Exchange) { p.gate.Offer(ex) },
			devtools.WithTarget(p.cfg.Capture.TargetID),
			devtools.WithWatcherLogger(p.log.With().Str("component", "devtools").Logger()),
		)
		go watchLoop(ctx, w, p.log)
	}
}

// errs reports a fatal server error.
func (p *pipeline) errs() <-chan error { return p.errc }

// close flushes the queue and closes the database.
func (p *pipeline) close() {
	p.queue.Close()
	st := p.gate.Stats()
	p.log.Info().Int64("kept", st.Kept).Int64("discarded", st.Discarded).Int64("idle", st.Idle).Msg("capture stopped")
	if err := p.db.Close(); err != nil {
		p.log.Warn().Err(err).Msg("closing database")
	}
}

// watchLoop keeps a watcher attached, reconnecting after the browser goes
// away or before it has started.
func watchLoop(ctx context.Context, w *devtools.Watcher, log zerolog.Logger) {
	for {
		err := w.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		switch {
		case errors.Is(err, devtools.ErrNoTarget):
			log.Debug().Msg("no devtools target yet")
		case err != nil:
			log.Warn().Err(err).Msg("devtools watcher stopped")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(watchRetryDelay):
		}
	}
}
