package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")
	if err := Init(Config{Level: "info", Format: "json", OutputPath: path}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer InitDefault()

	Info("listing loaded", String("path", "/docs"), Int("entries", 3))
	Debug("hidden")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"listing loaded"`) || !strings.Contains(out, `"path":"/docs"`) {
		t.Errorf("log output = %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug entry written at info level")
	}
}

func TestSetLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")
	if err := Init(Config{Level: "error", Format: "json", OutputPath: path}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer InitDefault()

	Warn("first")
	SetLevel("debug")
	if Level() != "debug" {
		t.Errorf("Level = %q", Level())
	}
	Warn("second")
	SetLevel("bogus")
	if Level() != "debug" {
		t.Errorf("invalid level changed Level to %q", Level())
	}
	Sync()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "first") {
		t.Error("warn written at error level")
	}
	if !strings.Contains(string(data), "second") {
		t.Error("warn missing after SetLevel(debug)")
	}
}

func TestUnknownLevelDefaultsToWarn(t *testing.T) {
	if err := Init(Config{Level: "loud", Format: "console", OutputPath: filepath.Join(t.TempDir(), "x.log")}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer InitDefault()
	if Level() != "warn" {
		t.Errorf("Level = %q, want warn", Level())
	}
}
