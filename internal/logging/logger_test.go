package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func readEntries(t *testing.T, content []byte) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("line %q is not valid JSON: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogLevels(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLoggerWithRotation(dir, LevelDebug, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewLoggerWithRotation failed: %v", err)
	}

	logger.Debug("command sent", "command", "isready")
	logger.Info("engine started", "pid", 42)
	logger.Warn("move request timed out")
	logger.Error("stream read failed")
	_ = logger.Close()

	content, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	entries := readEntries(t, content)
	if len(entries) != 4 {
		t.Fatalf("expected 4 log entries, got %d", len(entries))
	}

	wantLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	for i, entry := range entries {
		if entry["level"] != wantLevels[i] {
			t.Errorf("entry %d: level = %v, want %s", i, entry["level"], wantLevels[i])
		}
	}
	if entries[0]["command"] != "isready" {
		t.Errorf("command = %v, want isready", entries[0]["command"])
	}
}

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	if got := len(readEntries(t, buf.Bytes())); got != 2 {
		t.Fatalf("expected 2 entries (WARN and ERROR only), got %d: %s", got, buf.String())
	}
}

func TestContextPropagation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelInfo)

	child := logger.WithEngine("/opt/pikafish").WithGeneration(3).WithRequest("req-1")
	child.Info("move completed", "move", "h2e2")

	entries := readEntries(t, buf.Bytes())
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]

	if entry["engine"] != "/opt/pikafish" {
		t.Errorf("engine = %v, want /opt/pikafish", entry["engine"])
	}
	// JSON numbers decode as float64
	if entry["generation"] != float64(3) {
		t.Errorf("generation = %v, want 3", entry["generation"])
	}
	if entry["request_id"] != "req-1" {
		t.Errorf("request_id = %v, want req-1", entry["request_id"])
	}
	if entry["move"] != "h2e2" {
		t.Errorf("move = %v, want h2e2", entry["move"])
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelInfo)

	if logger.With() != logger {
		t.Error("With() without args should return the same logger")
	}

	// Non-string keys are skipped
	logger.With("dialect", "ucci", 7, "ignored").Info("handshake")

	entries := readEntries(t, buf.Bytes())
	if entries[0]["dialect"] != "ucci" {
		t.Errorf("dialect = %v, want ucci", entries[0]["dialect"])
	}
	if len(entries[0]) != 4 { // time, level, msg, dialect
		t.Errorf("unexpected attributes: %v", entries[0])
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	logger.Debug("x")
	logger.Error("y")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warn", LevelWarn},
		{"error", LevelError},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidLevels(t *testing.T) {
	levels := ValidLevels()
	if len(levels) != 4 {
		t.Fatalf("expected 4 levels, got %d", len(levels))
	}
	for _, l := range levels {
		if ParseLevel(l) != l {
			t.Errorf("ParseLevel(%q) should round-trip", l)
		}
	}
}

func TestClose(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLoggerWithRotation(dir, LevelInfo, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewLoggerWithRotation failed: %v", err)
	}

	child := logger.WithEngine("x")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
	// child shares the mutex; closing it must not panic
	_ = child.Close()
}

func TestConcurrentWrites(t *testing.T) {
	var buf syncBuffer
	logger := NewWriterLogger(&buf, LevelInfo)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := range 20 {
				logger.WithGeneration(uint64(n)).Info("line", "j", j)
			}
		}(i)
	}
	wg.Wait()

	if got := len(readEntries(t, buf.Bytes())); got != 200 {
		t.Errorf("expected 200 entries, got %d", got)
	}
}

func TestLineWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelDebug)

	w := logger.LineWriter("engine stderr")
	_, _ = w.Write([]byte("first line\r\nsecond "))
	_, _ = w.Write([]byte("line\n\n"))
	_, _ = w.Write([]byte("trailing"))

	if got := len(readEntries(t, buf.Bytes())); got != 2 {
		t.Fatalf("expected 2 entries before Close, got %d", got)
	}
	_ = w.Close()

	entries := readEntries(t, buf.Bytes())
	want := []string{"first line", "second line", "trailing"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, entry := range entries {
		if entry["line"] != want[i] {
			t.Errorf("entry %d line = %v, want %q", i, entry["line"], want[i])
		}
		if entry["level"] != "WARN" {
			t.Errorf("entry %d level = %v, want WARN", i, entry["level"])
		}
	}
}

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Bytes()
}
