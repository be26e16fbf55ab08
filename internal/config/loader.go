package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const appName = "apidoc-recorder"

// DataDir returns ~/.config/apidoc-recorder.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home dir: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// DefaultPath returns the config file used when none is given.
func DefaultPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config file at path (or the default location), merges it
// over the defaults, then applies .env and APIDOC_* environment overrides.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return cfg, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}

	// A missing .env is fine; variables already set win over it.
	_ = godotenv.Load()
	applyEnvOverrides(&cfg)

	if err := resolvePaths(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(c *Config) {
	setString(&c.Backend.URL, "APIDOC_BACKEND_URL")
	setString(&c.Backend.Proxy, "APIDOC_BACKEND_PROXY")
	setString(&c.Capture.DevToolsURL, "APIDOC_DEVTOOLS_URL")
	setString(&c.Capture.TargetID, "APIDOC_TARGET_ID")
	setString(&c.Control.Addr, "APIDOC_CONTROL_ADDR")
	setString(&c.Storage.Path, "APIDOC_DB_PATH")
	setString(&c.Log.Level, "APIDOC_LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func resolvePaths(c *Config) error {
	if c.Storage.Path != "" && c.Log.File != "" {
		return nil
	}
	dir, err := DataDir()
	if err != nil {
		return err
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(dir, "recorder.db")
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(dir, appName+".log")
	}
	return nil
}

// EnsureDir creates the parent directory of path.
func EnsureDir(path string) error {
	if path == "" || path == ":memory:" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
