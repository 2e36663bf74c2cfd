package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Engine.Dialect != "uci" {
		t.Errorf("Engine.Dialect = %q, want %q", cfg.Engine.Dialect, "uci")
	}
	if !cfg.Engine.Handshake {
		t.Error("Engine.Handshake should be true by default")
	}
	if cfg.Engine.Stderr != "discard" {
		t.Errorf("Engine.Stderr = %q, want %q", cfg.Engine.Stderr, "discard")
	}
	if cfg.Bridge.EchoMarker != "> " {
		t.Errorf("Bridge.EchoMarker = %q, want %q", cfg.Bridge.EchoMarker, "> ")
	}
	if cfg.Bridge.SubscriberQueueSize != 256 {
		t.Errorf("Bridge.SubscriberQueueSize = %d, want 256", cfg.Bridge.SubscriberQueueSize)
	}
	if !cfg.Bridge.AbortOnTimeout {
		t.Error("Bridge.AbortOnTimeout should be true by default")
	}
	if cfg.Move.DefaultMoveTimeMs != 1000 {
		t.Errorf("Move.DefaultMoveTimeMs = %d, want 1000", cfg.Move.DefaultMoveTimeMs)
	}
	if cfg.TUI.MaxOutputLines != 1000 {
		t.Errorf("TUI.MaxOutputLines = %d, want 1000", cfg.TUI.MaxOutputLines)
	}
}

func TestDurations(t *testing.T) {
	cfg := Default()

	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"handshake timeout", cfg.Engine.HandshakeTimeout(), 5 * time.Second},
		{"safety margin", cfg.Bridge.SafetyMargin(), 2 * time.Second},
		{"quit grace", cfg.Bridge.QuitGrace(), 500 * time.Millisecond},
		{"kill wait", cfg.Bridge.KillWait(), time.Second},
		{"default move time", cfg.Move.DefaultMoveTime(), time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := Default()
	cfg.Engine.Options = []string{"Threads=4", " Hash = 128 ", "Clear Hash", "EvalFile=nn=1.bin"}

	want := []EngineOption{
		{Name: "Threads", Value: "4"},
		{Name: "Hash", Value: "128"},
		{Name: "Clear Hash"},
		{Name: "EvalFile", Value: "nn=1.bin"},
	}
	if got := cfg.Engine.EngineOptions(); !slices.Equal(got, want) {
		t.Errorf("EngineOptions() = %+v, want %+v", got, want)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/engines/pikafish", filepath.Join(home, "engines", "pikafish")},
		{"/abs/path", "/abs/path"},
		{"relative/path", "relative/path"},
		{"~user/x", "~user/x"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ExpandPath(tt.in); got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggingConfig_ResolveDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	cfg := LoggingConfig{}
	if got, want := cfg.ResolveDir(), "/custom/config/uccibridge/logs"; got != want {
		t.Errorf("ResolveDir() = %q, want %q", got, want)
	}

	cfg.Dir = "/var/log/uccibridge"
	if got := cfg.ResolveDir(); got != "/var/log/uccibridge" {
		t.Errorf("ResolveDir() = %q, want explicit dir", got)
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		if got, want := ConfigDir(), "/custom/config/uccibridge"; got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, _ := os.UserHomeDir()
		if got, want := ConfigDir(), filepath.Join(home, ".config", "uccibridge"); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := ConfigFile(), "/custom/config/uccibridge/config.yaml"; got != want {
		t.Errorf("ConfigFile() = %q, want %q", got, want)
	}
}

func TestGet(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	cfg := Get()
	if cfg == nil {
		t.Fatal("Get() returned nil")
	}
	if cfg.Bridge.SafetyMarginMs != 2000 {
		t.Errorf("Get().Bridge.SafetyMarginMs = %d, want 2000", cfg.Bridge.SafetyMarginMs)
	}
	if !slices.Equal(cfg.Engine.Patterns, Default().Engine.Patterns) {
		t.Errorf("Get().Engine.Patterns = %v, want defaults", cfg.Engine.Patterns)
	}
}

func TestLoad_Overrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	viper.Set("engine.dialect", "ucci")
	viper.Set("bridge.safety_margin_ms", 750)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine.Dialect != "ucci" {
		t.Errorf("Engine.Dialect = %q, want ucci", cfg.Engine.Dialect)
	}
	if cfg.Bridge.SafetyMargin() != 750*time.Millisecond {
		t.Errorf("SafetyMargin() = %v, want 750ms", cfg.Bridge.SafetyMargin())
	}
}

func TestLoad_InvalidReturnsValidationErrors(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	viper.Set("bridge.safety_margin_ms", 0)
	viper.Set("engine.stderr", "pipe")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail on invalid config")
	}
	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("Load() error type = %T, want ValidationErrors", err)
	}
	if len(verrs) != 2 {
		t.Errorf("expected 2 validation errors, got %d: %v", len(verrs), verrs)
	}

	// Get falls back to defaults on error
	if Get().Bridge.SafetyMarginMs != 2000 {
		t.Error("Get() should fall back to defaults")
	}
}
