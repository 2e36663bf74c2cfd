package watch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/uccibridge/internal/event"
	"github.com/Iron-Ham/uccibridge/internal/testutil"
)

func newTestWatcher(t *testing.T) (*Watcher, string, <-chan event.EngineBinaryChangedEvent) {
	t.Helper()

	dir := t.TempDir()
	exe := testutil.WriteExecutable(t, dir, "pikafish")

	bus := event.NewBus(nil)
	changes := make(chan event.EngineBinaryChangedEvent, 16)
	bus.Subscribe(event.TypeEngineBinaryChanged, func(e event.Event) {
		changes <- e.(event.EngineBinaryChangedEvent)
	})

	w, err := New(exe, bus, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(w.Stop)
	return w, exe, changes
}

func waitChange(t *testing.T, changes <-chan event.EngineBinaryChangedEvent) event.EngineBinaryChangedEvent {
	t.Helper()
	select {
	case ev := <-changes:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for binary change event")
	}
	return event.EngineBinaryChangedEvent{}
}

func TestWatcher_Write(t *testing.T) {
	w, exe, changes := newTestWatcher(t)

	if err := os.WriteFile(exe, []byte("#!/bin/sh\nexit 1\n"), 0755); err != nil {
		t.Fatal(err)
	}

	ev := waitChange(t, changes)
	if ev.Path != w.Path() {
		t.Errorf("Path = %q, want %q", ev.Path, w.Path())
	}
	if !strings.Contains(ev.Op, "WRITE") {
		t.Errorf("Op = %q, want WRITE", ev.Op)
	}
}

func TestWatcher_Remove(t *testing.T) {
	_, exe, changes := newTestWatcher(t)

	if err := os.Remove(exe); err != nil {
		t.Fatal(err)
	}

	if ev := waitChange(t, changes); !strings.Contains(ev.Op, "REMOVE") {
		t.Errorf("Op = %q, want REMOVE", ev.Op)
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	_, exe, changes := newTestWatcher(t)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(exe, []byte(strings.Repeat("x", i+1)), 0755); err != nil {
			t.Fatal(err)
		}
	}

	waitChange(t, changes)
	select {
	case ev := <-changes:
		t.Errorf("burst produced a second event: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	_, exe, changes := newTestWatcher(t)

	testutil.WriteFile(t, filepath.Dir(exe), "pikafish.nnue", "weights")

	select {
	case ev := <-changes:
		t.Errorf("sibling change produced event: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "engine"), event.NewBus(nil), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Stop before Start must not block.
	w.Stop()
	w.Stop()
}

func TestNew_RequiresBus(t *testing.T) {
	if _, err := New("engine", nil, nil); err == nil {
		t.Error("New() should fail without a bus")
	}
}
