// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds the console configuration.
type Config struct {
	// Backend
	APIURL  string
	Timeout time.Duration
	Retries int

	// Session
	TokenFile string

	// Logging
	LogLevel  string
	LogFormat string

	// Metrics listener, empty = disabled
	MetricsAddr string

	// File view
	OperationTTL            time.Duration
	ClearClipboardOnFailure bool
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		APIURL:                  envOr("TRANSFERDESK_URL", "http://localhost:8000/api"),
		Timeout:                 envDuration("TRANSFERDESK_TIMEOUT", 30*time.Second),
		Retries:                 envInt("TRANSFERDESK_RETRIES", 1),
		TokenFile:               envOr("TRANSFERDESK_TOKEN_FILE", DefaultTokenFile()),
		LogLevel:                envOr("TRANSFERDESK_LOG_LEVEL", "warn"),
		LogFormat:               envOr("TRANSFERDESK_LOG_FORMAT", "console"),
		MetricsAddr:             envOr("TRANSFERDESK_METRICS_ADDR", ""),
		OperationTTL:            envDuration("TRANSFERDESK_OPERATION_TTL", 5*time.Second),
		ClearClipboardOnFailure: envBool("TRANSFERDESK_CLEAR_CLIPBOARD_ON_FAILURE", false),
	}
}

// Validate rejects settings the console cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("TRANSFERDESK_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("TRANSFERDESK_URL must be an http(s) URL, got %q", c.APIURL)
	}
	if u.Host == "" {
		return fmt.Errorf("TRANSFERDESK_URL has no host: %q", c.APIURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("TRANSFERDESK_TIMEOUT must be positive, got %s", c.Timeout)
	}
	if c.Retries < 1 {
		return fmt.Errorf("TRANSFERDESK_RETRIES must be at least 1, got %d", c.Retries)
	}
	if c.TokenFile == "" {
		return fmt.Errorf("TRANSFERDESK_TOKEN_FILE is required")
	}
	if c.OperationTTL < 0 {
		return fmt.Errorf("TRANSFERDESK_OPERATION_TTL must not be negative")
	}
	return nil
}

// DefaultTokenFile returns ~/.config/transferdesk/token.json, honouring
// XDG_CONFIG_HOME and the platform config dir.
func DefaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "transferdesk", "token.json")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

// envDuration accepts Go durations ("30s") or plain seconds ("30").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
