// Package logging builds the zerolog logger used across the recorder.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sadopc/apidoc-recorder/internal/config"
)

// Writer names accepted in config.LogConfig.Writer.
const (
	WriterConsole = "console"
	WriterFile    = "file"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger writing to the configured writers. Console output goes
// to console (os.Stderr when nil). The returned closer releases the log file.
func New(cfg config.LogConfig, console io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}
	if console == nil {
		console = os.Stderr
	}

	var (
		writers []io.Writer
		closer  io.Closer = nopCloser{}
	)
	for _, name := range cfg.Writer {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case WriterConsole:
			writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen})
		case WriterFile:
			if cfg.File == "" {
				return zerolog.Nop(), nopCloser{}, fmt.Errorf("log writer %q needs a file path", name)
			}
			if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
				return zerolog.Nop(), nopCloser{}, fmt.Errorf("creating log dir: %w", err)
			}
			lj := &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
			}
			writers = append(writers, lj)
			closer = lj
		case "":
		default:
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("unknown log writer %q", name)
		}
	}

	if len(writers) == 0 {
		return zerolog.Nop(), closer, nil
	}
	out := io.Writer(writers[0])
	if len(writers) > 1 {
		out = zerolog.MultiLevelWriter(writers...)
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), closer, nil
}

// ParseLevel maps a config level name to a zerolog level. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// FileOnly returns cfg with console output replaced by the log file. The
// terminal panel owns the screen, so nothing else may write to it.
func FileOnly(cfg config.LogConfig) config.LogConfig {
	cfg.Writer = []string{WriterFile}
	return cfg
}
