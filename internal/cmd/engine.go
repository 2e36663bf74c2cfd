package cmd

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/Iron-Ham/uccibridge/internal/bridge"
	"github.com/Iron-Ham/uccibridge/internal/config"
	"github.com/Iron-Ham/uccibridge/internal/discover"
	"github.com/Iron-Ham/uccibridge/internal/event"
	"github.com/Iron-Ham/uccibridge/internal/logging"
	"github.com/Iron-Ham/uccibridge/internal/protocol"
	"github.com/Iron-Ham/uccibridge/internal/watch"
)

// engineEnv is what a command needs to drive one engine: the resolved
// executable, a logger, an event bus and a bridge configured from cfg.
type engineEnv struct {
	cfg    *config.Config
	path   string
	logger *logging.Logger
	bus    *event.Bus
	bridge *bridge.Bridge

	stderr  *logging.LineWriter
	watcher *watch.Watcher
}

// newEngineEnv resolves the engine from args or the configuration and
// builds a bridge for it. host receives the engine's stderr when the
// stderr policy is "forward"; a nil host discards it instead.
func newEngineEnv(cfg *config.Config, args []string, host io.Writer) (*engineEnv, error) {
	path := cfg.Engine.Path
	if len(args) > 0 {
		path = args[0]
	}
	path, err := discover.Resolve(config.ExpandPath(path), expandPaths(cfg.Engine.SearchPaths), cfg.Engine.Patterns)
	if err != nil {
		return nil, fmt.Errorf("failed to find an engine: %w", err)
	}

	dialect, err := protocol.ParseDialect(cfg.Engine.Dialect)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	env := &engineEnv{
		cfg:    cfg,
		path:   path,
		logger: logger,
		bus:    event.NewBus(logger),
	}

	var sink io.Writer
	switch cfg.Engine.Stderr {
	case "forward":
		if host != nil {
			sink = host
		}
	case "log":
		env.stderr = logger.LineWriter("engine stderr")
		sink = env.stderr
	}

	env.bridge = bridge.New(
		bridge.WithLogger(logger),
		bridge.WithEventBus(env.bus),
		bridge.WithDialect(dialect),
		bridge.WithEchoMarker(cfg.Bridge.EchoMarker),
		bridge.WithSubscriberQueueSize(cfg.Bridge.SubscriberQueueSize),
		bridge.WithSafetyMargin(cfg.Bridge.SafetyMargin()),
		bridge.WithAbortOnTimeout(cfg.Bridge.AbortOnTimeout),
		bridge.WithStopTimeouts(cfg.Bridge.QuitGrace(), cfg.Bridge.KillWait()),
		bridge.WithProcessArgs(cfg.Engine.Args...),
		bridge.WithWorkDir(config.ExpandPath(cfg.Engine.Dir)),
		bridge.WithStderr(sink),
	)
	return env, nil
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLoggerWithRotation(cfg.Logging.ResolveDir(), cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	})
}

func expandPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, config.ExpandPath(p))
	}
	return out
}

// start launches the engine, completes the init handshake when configured
// and sends engine.options. Any failure stops the engine again.
func (e *engineEnv) start(ctx context.Context) error {
	if err := e.bridge.Start(ctx, e.path); err != nil {
		return err
	}
	if e.cfg.Engine.Handshake {
		if err := e.bridge.Handshake(ctx, e.cfg.Engine.HandshakeTimeout()); err != nil {
			_ = e.bridge.Stop()
			return fmt.Errorf("engine handshake failed: %w", err)
		}
	}

	for _, command := range e.setupCommands() {
		if err := e.bridge.Send(command); err != nil {
			_ = e.bridge.Stop()
			return fmt.Errorf("failed to configure engine: %w", err)
		}
	}
	return nil
}

// setupCommands are the setoption lines for engine.options.
func (e *engineEnv) setupCommands() []string {
	opts := e.cfg.Engine.EngineOptions()
	commands := make([]string, 0, len(opts))
	for _, opt := range opts {
		commands = append(commands, protocol.SetOption(e.bridge.Dialect(), opt.Name, opt.Value))
	}
	return commands
}

// newGame tells the engine that the next position starts a new game.
// Dialects without a new-game command get nothing.
func (e *engineEnv) newGame() error {
	cmd, ok := protocol.NewGame(e.bridge.Dialect())
	if !ok {
		return nil
	}
	return e.bridge.Send(cmd)
}

// watchBinary publishes engine.binary_changed on the bus when the engine
// executable changes. Failing to watch is logged, not fatal.
func (e *engineEnv) watchBinary() {
	path := e.path
	if resolved, err := exec.LookPath(path); err == nil {
		path = resolved
	}

	w, err := watch.New(path, e.bus, e.logger)
	if err != nil {
		e.logger.Warn("cannot watch engine binary", "path", path, "error", err.Error())
		return
	}
	if err := w.Start(); err != nil {
		w.Stop()
		e.logger.Warn("cannot watch engine binary", "path", path, "error", err.Error())
		return
	}
	e.watcher = w
}

// Close stops the engine and releases everything newEngineEnv created.
func (e *engineEnv) Close() error {
	if e.watcher != nil {
		e.watcher.Stop()
	}
	err := e.bridge.Stop()
	if e.stderr != nil {
		_ = e.stderr.Close()
	}
	e.bus.Clear()
	_ = e.logger.Close()
	return err
}
