package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zpam/sms-filter/pkg/config"
)

func TestNewWithSinkJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithSink(config.LoggingConfig{Level: "info", Format: "json"}, zapcore.AddSync(&buf))
	if err != nil {
		t.Fatalf("NewWithSink failed: %v", err)
	}

	logger.Debug("hidden")
	logger.Info("training finished", zap.Int("vocabulary", 42))
	logger.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "training finished" || entry["vocabulary"] != float64(42) {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNewWithSinkConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithSink(config.LoggingConfig{Level: "debug", Format: "text"}, zapcore.AddSync(&buf))
	if err != nil {
		t.Fatalf("NewWithSink failed: %v", err)
	}
	logger.Debug("loaded model")
	logger.Sync()

	if !strings.Contains(buf.String(), "DEBUG") || !strings.Contains(buf.String(), "loaded model") {
		t.Errorf("unexpected console output: %q", buf.String())
	}
}

func TestNewErrors(t *testing.T) {
	tests := []config.LoggingConfig{
		{Level: "loud", Format: "json"},
		{Level: "info", Format: "xml"},
	}
	for _, cfg := range tests {
		if _, err := New(cfg); err == nil {
			t.Errorf("expected error for %+v", cfg)
		}
	}
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zsms.log")
	logger, err := New(config.LoggingConfig{Level: "info", Format: "json", File: path, MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("written to file")
	logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file missing entry: %q", data)
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	l := zap.NewExample()
	if OrNop(l) != l {
		t.Error("OrNop should return the given logger")
	}
}
