package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TRANSFERDESK_URL", "")
	t.Setenv("TRANSFERDESK_TIMEOUT", "")
	t.Setenv("TRANSFERDESK_RETRIES", "")
	t.Setenv("TRANSFERDESK_OPERATION_TTL", "")
	t.Setenv("TRANSFERDESK_CLEAR_CLIPBOARD_ON_FAILURE", "")
	t.Setenv("TRANSFERDESK_TOKEN_FILE", "")

	cfg := Load()
	if cfg.APIURL != "http://localhost:8000/api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.Retries != 1 {
		t.Errorf("Retries = %d", cfg.Retries)
	}
	if cfg.OperationTTL != 5*time.Second {
		t.Errorf("OperationTTL = %v", cfg.OperationTTL)
	}
	if cfg.ClearClipboardOnFailure {
		t.Error("ClearClipboardOnFailure should default to false")
	}
	if !strings.HasSuffix(cfg.TokenFile, "token.json") {
		t.Errorf("TokenFile = %q", cfg.TokenFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TRANSFERDESK_URL", "https://files.example.com/api")
	t.Setenv("TRANSFERDESK_TIMEOUT", "45")
	t.Setenv("TRANSFERDESK_RETRIES", "3")
	t.Setenv("TRANSFERDESK_OPERATION_TTL", "250ms")
	t.Setenv("TRANSFERDESK_CLEAR_CLIPBOARD_ON_FAILURE", "true")
	t.Setenv("TRANSFERDESK_TOKEN_FILE", "/tmp/tok.json")

	cfg := Load()
	if cfg.APIURL != "https://files.example.com/api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.Retries != 3 {
		t.Errorf("Retries = %d", cfg.Retries)
	}
	if cfg.OperationTTL != 250*time.Millisecond {
		t.Errorf("OperationTTL = %v", cfg.OperationTTL)
	}
	if !cfg.ClearClipboardOnFailure {
		t.Error("ClearClipboardOnFailure not read")
	}
	if cfg.TokenFile != "/tmp/tok.json" {
		t.Errorf("TokenFile = %q", cfg.TokenFile)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("TRANSFERDESK_RETRIES", "many")
	t.Setenv("TRANSFERDESK_TIMEOUT", "soon")
	cfg := Load()
	if cfg.Retries != 1 || cfg.Timeout != 30*time.Second {
		t.Errorf("got retries=%d timeout=%v", cfg.Retries, cfg.Timeout)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{APIURL: "http://localhost:8000/api", Timeout: time.Second, Retries: 1, TokenFile: "t.json"}
	}
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"ok", func(*Config) {}, ""},
		{"ftp url", func(c *Config) { c.APIURL = "ftp://host/api" }, "http(s)"},
		{"no host", func(c *Config) { c.APIURL = "http:///api" }, "no host"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "TIMEOUT"},
		{"zero retries", func(c *Config) { c.Retries = 0 }, "RETRIES"},
		{"no token file", func(c *Config) { c.TokenFile = "" }, "TOKEN_FILE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}
