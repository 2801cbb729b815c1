package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetupRejectsUnknownLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "loud"
	if _, err := Setup(cfg); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestSetupWritesToFile(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())

	path := filepath.Join(t.TempDir(), "ocrbridge.log")
	closer, err := Setup(LogConfig{Level: "debug", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	l := WithComponent("pipeline")
	l.Debug().Int("page", 2).Msg("recognized")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("log line is not JSON: %q", data)
	}
	if entry["component"] != "pipeline" || entry["page"] != float64(2) || entry["message"] != "recognized" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "console", "")
	l.Info().Str("engine", "ocrmac").Msg("starting")

	out := buf.String()
	if !strings.Contains(out, "starting") || !strings.Contains(out, "engine=ocrmac") {
		t.Errorf("console output = %q", out)
	}
}
