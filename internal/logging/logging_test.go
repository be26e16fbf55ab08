package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sadopc/apidoc-recorder/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{" WARN ", zerolog.WarnLevel, false},
		{"trace", zerolog.TraceLevel, false},
		{"loud", zerolog.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(config.LogConfig{Level: "warn", Writer: []string{"console"}}, &buf)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer closer.Close()

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestNewFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "rec.log")
	cfg := FileOnly(config.LogConfig{Level: "info", Writer: []string{"console"}, File: path, MaxSizeMB: 1})

	var console bytes.Buffer
	log, closer, err := New(cfg, &console)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	log.Info().Str("k", "v").Msg("to file")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	if console.Len() != 0 {
		t.Errorf("console written in file-only mode: %q", console.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), `"message":"to file"`) {
		t.Errorf("log file = %q", data)
	}
}

func TestNewErrors(t *testing.T) {
	if _, _, err := New(config.LogConfig{Writer: []string{"syslog"}}, nil); err == nil {
		t.Error("expected error for unknown writer")
	}
	if _, _, err := New(config.LogConfig{Writer: []string{"file"}}, nil); err == nil {
		t.Error("expected error for file writer without path")
	}
	if _, _, err := New(config.LogConfig{Level: "nope"}, nil); err == nil {
		t.Error("expected error for bad level")
	}
}

func TestNewNoWriters(t *testing.T) {
	log, _, err := New(config.LogConfig{}, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if log.GetLevel() != zerolog.Disabled {
		t.Errorf("level = %v, want disabled", log.GetLevel())
	}
}
