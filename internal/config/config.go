package config

import (
	"time"

	"github.com/sadopc/apidoc-recorder/internal/submit"
)

// Config holds the application configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Capture CaptureConfig `yaml:"capture"`
	Control ControlConfig `yaml:"control"`
	Storage StorageConfig `yaml:"storage"`
	Export  ExportConfig  `yaml:"export"`
	Redact  RedactConfig  `yaml:"redact"`
	Log     LogConfig     `yaml:"log"`
	UI      UIConfig      `yaml:"ui"`
}

// BackendConfig describes the documentation backend.
type BackendConfig struct {
	URL     string           `yaml:"url"`
	Timeout time.Duration    `yaml:"timeout"`
	Proxy   string           `yaml:"proxy"`
	NoProxy string           `yaml:"no_proxy"`
	TLS     submit.TLSConfig `yaml:"tls"`
}

// CaptureConfig describes where traffic is captured from.
type CaptureConfig struct {
	DevToolsURL string        `yaml:"devtools_url"`
	TargetID    string        `yaml:"target_id"`
	BodyTimeout time.Duration `yaml:"body_timeout"`
	QueueSize   int           `yaml:"queue_size"`
}

// ControlConfig configures the local control API.
type ControlConfig struct {
	Addr         string   `yaml:"addr"`
	AllowOrigins []string `yaml:"allow_origins"`
}

// StorageConfig locates the recording database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// ExportConfig controls HAR export.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// RedactConfig controls masking of sensitive values on export and submit.
type RedactConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Headers     []string `yaml:"headers"`
	BodyFields  []string `yaml:"body_fields"`
	Replacement string   `yaml:"replacement"`
}

// LogConfig controls logging. Writer entries are "console" and "file".
type LogConfig struct {
	Level      string   `yaml:"level"`
	Writer     []string `yaml:"writer"`
	File       string   `yaml:"file"`
	MaxSizeMB  int      `yaml:"max_size_mb"`
	MaxBackups int      `yaml:"max_backups"`
	MaxAgeDays int      `yaml:"max_age_days"`
}

// UIConfig controls the terminal panel.
type UIConfig struct {
	Theme string `yaml:"theme"`
}

// DefaultConfig returns the default configuration. Empty paths are resolved
// against the data directory by Load.
func DefaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			URL:     "http://localhost:3000",
			Timeout: 30 * time.Second,
		},
		Capture: CaptureConfig{
			DevToolsURL: "http://127.0.0.1:9222",
			BodyTimeout: 5 * time.Second,
			QueueSize:   256,
		},
		Control: ControlConfig{
			Addr: "127.0.0.1:7421",
		},
		Export: ExportConfig{
			Dir: ".",
		},
		Redact: RedactConfig{
			Enabled:     false,
			Headers:     []string{"Authorization", "Cookie", "Set-Cookie", "X-Api-Key", "X-Auth-Token"},
			BodyFields:  []string{"password", "secret", "token", "api_key", "access_token", "refresh_token", "credential"},
			Replacement: "***REDACTED***",
		},
		Log: LogConfig{
			Level:      "info",
			Writer:     []string{"console"},
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		UI: UIConfig{
			Theme: "catppuccin-mocha",
		},
	}
}
