package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete uccibridge configuration
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine" yaml:"engine"`
	Bridge  BridgeConfig  `mapstructure:"bridge" yaml:"bridge"`
	Move    MoveConfig    `mapstructure:"move" yaml:"move"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	TUI     TUIConfig     `mapstructure:"tui" yaml:"tui"`
}

// EngineConfig describes which engine binary to run and how to talk to it
type EngineConfig struct {
	// Path is the engine executable. When empty, the engine is discovered
	// by matching Patterns against the files in SearchPaths.
	Path string `mapstructure:"path" yaml:"path"`
	// Args are extra command-line arguments passed to the engine
	Args []string `mapstructure:"args" yaml:"args"`
	// Dir is the engine's working directory (default: inherit)
	Dir string `mapstructure:"dir" yaml:"dir"`
	// Dialect selects the init handshake: "uci" or "ucci" (default: "uci")
	Dialect string `mapstructure:"dialect" yaml:"dialect"`
	// Handshake sends the init command and isready right after start (default: true)
	Handshake bool `mapstructure:"handshake" yaml:"handshake"`
	// HandshakeTimeoutMs bounds the wait for readyok (default: 5000)
	HandshakeTimeoutMs int `mapstructure:"handshake_timeout_ms" yaml:"handshake_timeout_ms"`
	// Stderr controls the engine's stderr: "discard", "forward" or "log" (default: "discard")
	Stderr string `mapstructure:"stderr" yaml:"stderr"`
	// SearchPaths are directories scanned for engine binaries
	SearchPaths []string `mapstructure:"search_paths" yaml:"search_paths"`
	// Patterns are glob patterns matched against file names in SearchPaths
	Patterns []string `mapstructure:"patterns" yaml:"patterns"`
	// WatchBinary reports when the engine executable changes on disk (default: false)
	WatchBinary bool `mapstructure:"watch_binary" yaml:"watch_binary"`
	// Options are "name=value" engine options sent with setoption after
	// start. An entry without "=" sets a button or flag option.
	Options []string `mapstructure:"options" yaml:"options"`
}

// EngineOption is one entry of EngineConfig.Options.
type EngineOption struct {
	Name  string
	Value string
}

// BridgeConfig tunes the process bridge
type BridgeConfig struct {
	// EchoMarker is the prefix of engine output lines that are discarded (default: "> ")
	EchoMarker string `mapstructure:"echo_marker" yaml:"echo_marker"`
	// SubscriberQueueSize is the per-subscriber buffer; the oldest event is dropped when full (default: 256)
	SubscriberQueueSize int `mapstructure:"subscriber_queue_size" yaml:"subscriber_queue_size"`
	// SafetyMarginMs is added to a move's time limit to form its deadline (default: 2000)
	SafetyMarginMs int `mapstructure:"safety_margin_ms" yaml:"safety_margin_ms"`
	// AbortOnTimeout sends "stop" after a move request times out (default: true)
	AbortOnTimeout bool `mapstructure:"abort_on_timeout" yaml:"abort_on_timeout"`
	// QuitGraceMs is how long Stop waits for the engine to exit after "quit" (default: 500)
	QuitGraceMs int `mapstructure:"quit_grace_ms" yaml:"quit_grace_ms"`
	// KillWaitMs is how long Stop waits for output to end after a kill (default: 1000)
	KillWaitMs int `mapstructure:"kill_wait_ms" yaml:"kill_wait_ms"`
}

// MoveConfig controls move requests issued from the CLI and TUI
type MoveConfig struct {
	// DefaultMoveTimeMs is the think time for move requests (default: 1000)
	DefaultMoveTimeMs int `mapstructure:"default_movetime_ms" yaml:"default_movetime_ms"`
	// Variant selects FEN validation: "chess", "xiangqi" or "none" (default: "xiangqi")
	Variant string `mapstructure:"variant" yaml:"variant"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled turns on file logging (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the minimum log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is where bridge.log is written (default: <config dir>/logs)
	Dir string `mapstructure:"dir" yaml:"dir"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of rotated files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
	// Compress gzips rotated files (default: false)
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// TUIConfig controls the interactive console
type TUIConfig struct {
	// MaxOutputLines limits how many engine output lines are kept (default: 1000)
	MaxOutputLines int `mapstructure:"max_output_lines" yaml:"max_output_lines"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Path:               "",
			Args:               []string{},
			Dir:                "",
			Dialect:            "uci",
			Handshake:          true,
			HandshakeTimeoutMs: 5000,
			Stderr:             "discard",
			SearchPaths:        []string{".", "engines"},
			Patterns:           []string{"pikafish*", "fairy-stockfish*", "stockfish*", "eleeye*"},
			WatchBinary:        false,
			Options:            []string{},
		},
		Bridge: BridgeConfig{
			EchoMarker:          "> ",
			SubscriberQueueSize: 256,
			SafetyMarginMs:      2000,
			AbortOnTimeout:      true,
			QuitGraceMs:         500,
			KillWaitMs:          1000,
		},
		Move: MoveConfig{
			DefaultMoveTimeMs: 1000,
			Variant:           "xiangqi",
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
		TUI: TUIConfig{
			MaxOutputLines: 1000,
		},
	}
}

// HandshakeTimeout returns the handshake timeout as a time.Duration
func (c *EngineConfig) HandshakeTimeout() time.Duration {
	return time.Duration(c.HandshakeTimeoutMs) * time.Millisecond
}

// EngineOptions splits Options into names and values. Surrounding spaces
// are trimmed from both.
func (c *EngineConfig) EngineOptions() []EngineOption {
	opts := make([]EngineOption, 0, len(c.Options))
	for _, entry := range c.Options {
		name, value, _ := strings.Cut(entry, "=")
		opts = append(opts, EngineOption{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	return opts
}

// SafetyMargin returns the move deadline margin as a time.Duration
func (c *BridgeConfig) SafetyMargin() time.Duration {
	return time.Duration(c.SafetyMarginMs) * time.Millisecond
}

// QuitGrace returns the post-quit grace period as a time.Duration
func (c *BridgeConfig) QuitGrace() time.Duration {
	return time.Duration(c.QuitGraceMs) * time.Millisecond
}

// KillWait returns the post-kill wait as a time.Duration
func (c *BridgeConfig) KillWait() time.Duration {
	return time.Duration(c.KillWaitMs) * time.Millisecond
}

// DefaultMoveTime returns the default think time as a time.Duration
func (c *MoveConfig) DefaultMoveTime() time.Duration {
	return time.Duration(c.DefaultMoveTimeMs) * time.Millisecond
}

// ResolveDir returns the log directory, defaulting to <config dir>/logs.
// A leading ~ is expanded to the user's home directory.
func (c *LoggingConfig) ResolveDir() string {
	if c.Dir == "" {
		return filepath.Join(ConfigDir(), "logs")
	}
	return ExpandPath(c.Dir)
}

// ExpandPath expands a leading ~ to the user's home directory.
// Other paths are returned unchanged.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Engine defaults
	viper.SetDefault("engine.path", defaults.Engine.Path)
	viper.SetDefault("engine.args", defaults.Engine.Args)
	viper.SetDefault("engine.dir", defaults.Engine.Dir)
	viper.SetDefault("engine.dialect", defaults.Engine.Dialect)
	viper.SetDefault("engine.handshake", defaults.Engine.Handshake)
	viper.SetDefault("engine.handshake_timeout_ms", defaults.Engine.HandshakeTimeoutMs)
	viper.SetDefault("engine.stderr", defaults.Engine.Stderr)
	viper.SetDefault("engine.search_paths", defaults.Engine.SearchPaths)
	viper.SetDefault("engine.patterns", defaults.Engine.Patterns)
	viper.SetDefault("engine.watch_binary", defaults.Engine.WatchBinary)
	viper.SetDefault("engine.options", defaults.Engine.Options)

	// Bridge defaults
	viper.SetDefault("bridge.echo_marker", defaults.Bridge.EchoMarker)
	viper.SetDefault("bridge.subscriber_queue_size", defaults.Bridge.SubscriberQueueSize)
	viper.SetDefault("bridge.safety_margin_ms", defaults.Bridge.SafetyMarginMs)
	viper.SetDefault("bridge.abort_on_timeout", defaults.Bridge.AbortOnTimeout)
	viper.SetDefault("bridge.quit_grace_ms", defaults.Bridge.QuitGraceMs)
	viper.SetDefault("bridge.kill_wait_ms", defaults.Bridge.KillWaitMs)

	// Move defaults
	viper.SetDefault("move.default_movetime_ms", defaults.Move.DefaultMoveTimeMs)
	viper.SetDefault("move.variant", defaults.Move.Variant)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)

	// TUI defaults
	viper.SetDefault("tui.max_output_lines", defaults.TUI.MaxOutputLines)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "uccibridge")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".uccibridge"
	}
	return filepath.Join(home, ".config", "uccibridge")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
