package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()
	if got := TraceID(ctx); got != "" {
		t.Errorf("expected empty trace id, got %q", got)
	}

	ctx = WithTraceID(ctx, "abc-123")
	if got := TraceID(ctx); got != "abc-123" {
		t.Errorf("TraceID() = %q, want abc-123", got)
	}
}

func TestInitLogger_ConsoleAndFile(t *testing.T) {
	prev := DefaultLoggingService
	prevDefault := slog.Default()
	t.Cleanup(func() {
		Shutdown()
		DefaultLoggingService = prev
		slog.SetDefault(prevDefault)
	})

	dir := t.TempDir()
	var console bytes.Buffer
	InitLogger(Options{Dir: dir, Level: "warn", RetentionWeeks: 1, Console: &console})

	Info("quiet on console")
	Warn("loud everywhere", "drug", "acamol")
	Shutdown()

	out := console.String()
	if strings.Contains(out, "quiet on console") {
		t.Errorf("info record reached a warn-level console: %s", out)
	}
	if !strings.Contains(out, "loud everywhere") {
		t.Errorf("warn record missing from console: %s", out)
	}

	files, err := filepath.Glob(filepath.Join(dir, "registry-*.log"))
	if err != nil || len(files) != 1 {
		t.Fatalf("expected one log file, got %v (%v)", files, err)
	}
	content, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected both records in the file, got %d lines:\n%s", len(lines), content)
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &record); err != nil {
		t.Fatalf("file record is not JSON: %v", err)
	}
	if record["drug"] != "acamol" {
		t.Errorf("expected drug attribute, got %v", record)
	}
}

func TestInitLogger_ConsoleOnly(t *testing.T) {
	prev := DefaultLoggingService
	prevDefault := slog.Default()
	t.Cleanup(func() {
		DefaultLoggingService = prev
		slog.SetDefault(prevDefault)
	})

	var console bytes.Buffer
	InitLogger(Options{Level: "debug", Console: &console})
	Debug("visible", "k", 1)

	if !strings.Contains(console.String(), "visible") {
		t.Errorf("debug record missing: %q", console.String())
	}
	if DefaultLoggingService.rotator != nil {
		t.Error("no rotator expected without a directory")
	}
}
