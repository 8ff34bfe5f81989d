package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatText, Output: &buf})

	log.Info("fetching", "path", "HEAD")

	out := buf.String()
	if !strings.Contains(out, "fetching") || !strings.Contains(out, "path=HEAD") {
		t.Errorf("unexpected text output: %q", out)
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	log.Info("fetched", "objects", 4)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if record["msg"] != "fetched" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["objects"] != float64(4) {
		t.Errorf("objects = %v", record["objects"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelWarn, Format: FormatText, Output: &buf})

	log.Debug("hidden")
	log.Info("hidden too")
	log.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("below-level messages leaked: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestToSlogLevel(t *testing.T) {
	tests := []struct {
		in   Level
		want slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{Level(99), slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := toSlogLevel(tt.in); got != tt.want {
			t.Errorf("toSlogLevel(%d) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
