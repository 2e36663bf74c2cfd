// Package testutil provides testing utilities for uccibridge tests: an
// in-memory fake engine, a fake spawner, a re-executable helper engine and
// small polling helpers.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// DefaultBestMove is the move scripted engines answer with.
const DefaultBestMove = "e2e4"

// EngineReplies returns the lines a minimal well-behaved engine prints in
// response to command. Unknown commands produce no output.
func EngineReplies(command, bestmove string) []string {
	switch {
	case command == "uci":
		return []string{"id name Fake Engine", "id author uccibridge", "uciok"}
	case command == "ucci":
		return []string{"id name Fake Engine", "ucciok"}
	case command == "isready":
		return []string{"readyok"}
	case command == "go" || strings.HasPrefix(command, "go "):
		return []string{
			"info depth 1 score cp 12 nodes 100 pv " + bestmove,
			"bestmove " + bestmove,
		}
	default:
		return nil
	}
}

// Eventually polls cond every few milliseconds until it returns true or
// timeout elapses, failing the test in the latter case.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, format string, args ...any) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf(format, args...)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// WriteExecutable creates dir/name with an executable bit and returns its path.
func WriteExecutable(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0755); err != nil {
		t.Fatalf("failed to write executable %s: %v", path, err)
	}
	return path
}

// WriteFile creates dir/name with mode 0644 and returns its path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}
