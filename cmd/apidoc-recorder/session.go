package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sadopc/apidoc-recorder/internal/capture"
	"github.com/sadopc/apidoc-recorder/internal/config"
	"github.com/sadopc/apidoc-recorder/internal/control"
	"github.com/sadopc/apidoc-recorder/internal/export/har"
	"github.com/sadopc/apidoc-recorder/internal/logging"
	"github.com/sadopc/apidoc-recorder/internal/recorder"
	"github.com/sadopc/apidoc-recorder/internal/storage"
	"github.com/sadopc/apidoc-recorder/internal/submit"
)

// recording is what the one-shot commands operate on: either a running
// recorder reached over the control API, or the database opened directly.
type recording interface {
	State(ctx context.Context) (recorder.State, error)
	SetState(ctx context.Context, st recorder.State) error
	Entries(ctx context.Context) ([]capture.Entry, error)
	Entry(ctx context.Context, seq int) (capture.Entry, error)
	Search(ctx context.Context, query string) ([]capture.Entry, error)
	Append(ctx context.Context, e capture.Entry) (int, error)
	Clear(ctx context.Context) error
	ExportHAR(ctx context.Context, now time.Time) ([]byte, string, error)
	Source() string
	Close() error
}

type remoteRecording struct {
	*control.Client
}

func (r remoteRecording) Search(ctx context.Context, query string) ([]capture.Entry, error) {
	entries, err := r.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return matchURL(entries, query), nil
}

func (r remoteRecording) ExportHAR(ctx context.Context, now time.Time) ([]byte, string, error) {
	data, name, err := r.Client.ExportHAR(ctx)
	if err == nil && name == "" {
		name = har.FileName(now)
	}
	return data, name, err
}

func (r remoteRecording) Source() string { return r.BaseURL() }
func (r remoteRecording) Close() error   { return nil }

type localRecording struct {
	store    *recorder.Store
	db       *storage.Store
	path     string
	redactor *capture.Redactor
}

func (l *localRecording) State(context.Context) (recorder.State, error) {
	return l.store.Get(), nil
}

func (l *localRecording) SetState(_ context.Context, st recorder.State) error {
	return l.store.Set(st)
}

func (l *localRecording) Entries(context.Context) ([]capture.Entry, error) {
	return l.store.Entries(), nil
}

func (l *localRecording) Entry(_ context.Context, seq int) (capture.Entry, error) {
	e, err := l.db.Entry(seq)
	if errors.Is(err, storage.ErrNotFound) {
		return capture.Entry{}, fmt.Errorf("no request #%d", seq)
	}
	return e, err
}

func (l *localRecording) Search(_ context.Context, query string) ([]capture.Entry, error) {
	return l.db.Search(query)
}

func (l *localRecording) Append(_ context.Context, e capture.Entry) (int, error) {
	return l.store.AppendEntry(e)
}

func (l *localRecording) Clear(context.Context) error {
	return l.store.Clear()
}

func (l *localRecording) ExportHAR(_ context.Context, now time.Time) ([]byte, string, error) {
	data, err := har.Export(l.redactor.Apply(l.store.Entries()), now)
	if err != nil {
		return nil, "", err
	}
	return data, har.FileName(now), nil
}

func (l *localRecording) Source() string { return l.path }
func (l *localRecording) Close() error   { return l.db.Close() }

// loadConfig loads the config or exits.
func loadConfig(path string) config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// newLogger builds the logger for cfg or exits.
func newLogger(cfg config.LogConfig, console io.Writer) (zerolog.Logger, io.Closer) {
	log, closer, err := logging.New(cfg, console)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return log, closer
}

// openStore opens the database and loads the recording from it.
func openStore(cfg config.Config, log zerolog.Logger) (*recorder.Store, *storage.Store, error) {
	if err := config.EnsureDir(cfg.Storage.Path); err != nil {
		return nil, nil, fmt.Errorf("creating data dir: %w", err)
	}
	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return nil, nil, err
	}
	store, err := recorder.New(recorder.WithPersister(db), recorder.WithLogger(log))
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

// connect prefers a running recorder and falls back to the database.
func connect(ctx context.Context, cfg config.Config, log zerolog.Logger) (recording, error) {
	client := control.NewClient(cfg.Control.Addr)
	_, err := client.State(ctx)
	if err == nil {
		log.Debug().Str("addr", client.BaseURL()).Msg("using running recorder")
		return remoteRecording{client}, nil
	}
	if !control.IsUnavailable(err) {
		return nil, err
	}
	log.Debug().Err(err).Msg("no running recorder, opening database")

	store, db, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}
	return &localRecording{store: store, db: db, path: cfg.Storage.Path, redactor: newRedactor(cfg.Redact)}, nil
}

// mustConnect loads the config, builds the logger and connects, exiting on
// failure. The returned func releases everything.
func mustConnect(ctx context.Context, configPath string) (config.Config, zerolog.Logger, recording, func()) {
	cfg := loadConfig(configPath)
	log, closer := newLogger(cfg.Log, os.Stderr)
	rec, err := connect(ctx, cfg, log)
	if err != nil {
		closer.Close()
		exitErr(err)
	}
	return cfg, log, rec, func() {
		if err := rec.Close(); err != nil {
			log.Warn().Err(err).Msg("closing recording")
		}
		closer.Close()
	}
}

// newRedactor returns nil when redaction is disabled.
func newRedactor(cfg config.RedactConfig) *capture.Redactor {
	if !cfg.Enabled {
		return nil
	}
	return capture.NewRedactor(cfg.Headers, cfg.BodyFields, cfg.Replacement)
}

// newSubmitClient configures a backend client from cfg.
func newSubmitClient(cfg config.BackendConfig, log zerolog.Logger) (*submit.Client, error) {
	client := submit.New(cfg.URL)
	client.SetTimeout(cfg.Timeout)
	client.SetProxy(cfg.Proxy, cfg.NoProxy)
	client.SetLogger(log)
	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, fmt.Errorf("backend tls: %w", err)
	}
	if tlsCfg != nil {
		client.SetTLSConfig(tlsCfg)
	}
	return client, nil
}

func matchURL(entries []capture.Entry, query string) []capture.Entry {
	if query == "" {
		return entries
	}
	var out []capture.Entry
	for _, e := range entries {
		if strings.Contains(e.URL, query) {
			out = append(out, e)
		}
	}
	return out
}

// exitErr prints err and exits 1.
func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func isNoEntries(err error) bool {
	return errors.Is(err, har.ErrNoEntries) || errors.Is(err, submit.ErrNoEntries)
}
