package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewDefaultsToJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LogConfig{Output: &buf})
	logger.Info("hello", "key", "value")

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if got["key"] != "value" {
		t.Fatalf("got = %+v", got)
	}
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LogConfig{Format: "text", Output: &buf})
	logger.Info("hello")

	if !strings.Contains(buf.String(), "msg=hello") {
		t.Fatalf("expected text-handler output, got %q", buf.String())
	}
}

func TestNewRespectsLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LogConfig{Level: "warn", Output: &buf})
	logger.Info("should be filtered")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should be filtered") {
		t.Fatalf("info-level line leaked through a warn-level logger: %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Fatalf("expected the warn-level line to appear: %q", out)
	}
}

func TestValidateLevel(t *testing.T) {
	for _, ok := range []string{"debug", "info", "warn", "error", "DEBUG"} {
		if err := ValidateLevel(ok); err != nil {
			t.Errorf("ValidateLevel(%q) = %v, want nil", ok, err)
		}
	}
	if err := ValidateLevel("verbose"); err == nil {
		t.Fatal("expected an error for an unrecognized level")
	}
}

func TestDaemonLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskmaster.log")
	logger, cleanup, err := DaemonLogger("info", "json", path)
	if err != nil {
		t.Fatalf("DaemonLogger: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected a non-nil cleanup func when logging to a file")
	}
	logger.Info("written")
	cleanup()
}

func TestDaemonLoggerDefaultsToStdoutCleanup(t *testing.T) {
	_, cleanup, err := DaemonLogger("info", "json", "")
	if err != nil {
		t.Fatalf("DaemonLogger: %v", err)
	}
	if cleanup != nil {
		t.Fatal("expected a nil cleanup func when no logfile is configured")
	}
}

func TestLevelVarSetAndLevel(t *testing.T) {
	lv := NewLevelVar("info")
	if lv.Level() != slog.LevelInfo {
		t.Fatalf("Level() = %v, want Info", lv.Level())
	}
	lv.Set("error")
	if lv.Level() != slog.LevelError {
		t.Fatalf("Level() = %v, want Error", lv.Level())
	}
}
