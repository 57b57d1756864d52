package telemetry

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "events.jsonl")
	l, err := New(path, false)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	l.Info("api.request", map[string]any{"path": "/api/auth/me", "status": 200})
	l.Debug("hidden", nil)
	l.Error("api.request_failed", map[string]any{"error": errors.New("boom")})
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line is not json: %q", sc.Text())
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines (debug filtered), got %d", len(lines))
	}
	if lines[0]["msg"] != "api.request" || lines[0]["path"] != "/api/auth/me" {
		t.Fatalf("unexpected first entry: %v", lines[0])
	}
	if lines[1]["level"] != "error" || lines[1]["error"] != "boom" {
		t.Fatalf("unexpected second entry: %v", lines[1])
	}
}

func TestEmptyPathDiscards(t *testing.T) {
	l, err := New("", true)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.Info("nothing", map[string]any{"a": 1})
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestWithStampsFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewWith(zap.New(core)).With(map[string]any{"run_id": "r1"})
	l.Info("app.start", nil)
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["run_id"] != "r1" {
		t.Fatalf("expected run_id field, got %v", entries[0].ContextMap())
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Info("x", nil)
	l.Error("x", nil)
	if err := l.Close(); err != nil {
		t.Fatalf("close nil: %v", err)
	}
}
