package bridge

import (
	"bufio"
	"context"
	"io"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"k8s.io/utils/clock"

	"github.com/Iron-Ham/uccibridge/internal/errors"
	"github.com/Iron-Ham/uccibridge/internal/event"
	"github.com/Iron-Ham/uccibridge/internal/logging"
	"github.com/Iron-Ham/uccibridge/internal/process"
	"github.com/Iron-Ham/uccibridge/internal/protocol"
)

// Bridge owns one engine child process at a time.
//
// It serializes commands to the engine's stdin, streams its stdout to
// subscribers, and matches the terminal line of at most one outstanding
// synchronous request. A Bridge is safe for concurrent use.
type Bridge struct {
	logger  *logging.Logger
	clock   clock.Clock
	spawner process.Spawner
	bus     *event.Bus

	dialect        protocol.Dialect
	echoMarker     string
	queueSize      int
	safetyMargin   time.Duration
	abortOnTimeout bool
	quitGrace      time.Duration
	killWait       time.Duration

	args   []string
	dir    string
	env    []string
	stderr io.Writer

	// lifecycle serializes Start and Stop against each other.
	lifecycle sync.Mutex

	// mu guards everything below. It is never held across a read.
	mu         sync.Mutex
	proc       process.Process
	path       string
	procLog    *logging.Logger // tagged with path and generation while proc is held
	writer     *bufio.Writer // nil unless the process is live and its stream has not ended
	pending    *pendingRequest
	subs       []*Subscription
	generation uint64
	streamDone chan struct{}

	readers conc.WaitGroup
}

// New creates an unstarted Bridge.
func New(opts ...Option) *Bridge {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.normalize()

	return &Bridge{
		logger:         cfg.logger,
		clock:          cfg.clock,
		spawner:        cfg.spawner,
		bus:            cfg.bus,
		dialect:        cfg.dialect,
		echoMarker:     cfg.echoMarker,
		queueSize:      cfg.queueSize,
		safetyMargin:   cfg.safetyMargin,
		abortOnTimeout: cfg.abortOnTimeout,
		quitGrace:      cfg.quitGrace,
		killWait:       cfg.killWait,
		args:           cfg.args,
		dir:            cfg.dir,
		env:            cfg.env,
		stderr:         cfg.stderr,
	}
}

// Start launches the engine at path and begins streaming its output.
//
// It fails with a StartError of kind AlreadyRunning while a process is held,
// including one whose output has ended but which has not been stopped.
// On any failure the bridge stays unstarted.
func (b *Bridge) Start(ctx context.Context, path string) error {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()

	b.mu.Lock()
	held := b.proc != nil
	b.mu.Unlock()
	if held {
		return errors.NewStartError(errors.StartAlreadyRunning, path, nil)
	}

	spec := process.Spec{
		Path:   path,
		Args:   b.args,
		Dir:    b.dir,
		Env:    b.env,
		Stderr: b.stderr,
	}
	proc, err := b.spawner.Spawn(ctx, spec)
	if err != nil {
		var startErr *errors.StartError
		if !errors.As(err, &startErr) {
			err = errors.NewStartError(errors.StartSpawnFailed, path, err)
		}
		b.logger.Error("engine start failed", "engine", path, "error", err.Error())
		return err
	}

	done := make(chan struct{})

	b.mu.Lock()
	b.generation++
	gen := b.generation
	log := b.logger.WithEngine(path).WithGeneration(gen)
	b.proc = proc
	b.path = path
	b.procLog = log
	b.writer = bufio.NewWriter(proc.Stdin())
	b.streamDone = done
	b.mu.Unlock()

	b.readers.Go(func() {
		defer close(done)
		b.stream(log, gen, proc)
	})

	log.Info("engine started", "pid", proc.PID())
	b.publish(event.NewEngineStartedEvent(path, proc.PID(), gen))
	return nil
}

// Stop shuts the engine down and returns the bridge to the unstarted state.
//
// It asks the engine to quit, kills it if it has not closed its output
// within the quit grace period, then closes the output pipe so the reader
// exits even if another process still holds the write end. Stop is
// idempotent.
func (b *Bridge) Stop() error {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()

	b.mu.Lock()
	proc, done, gen, path, log := b.proc, b.streamDone, b.generation, b.path, b.procLog
	if proc == nil {
		b.mu.Unlock()
		return nil
	}
	if b.writer != nil {
		if err := b.writeLocked(protocol.Quit); err != nil {
			log.Debug("quit not delivered", "error", err.Error())
		}
	}
	b.mu.Unlock()

	var stopErr error
	killed := false
	if !waitClosed(done, b.quitGrace) {
		log.Warn("engine ignored quit, killing")
		if err := proc.Kill(); err != nil {
			stopErr = errors.Wrap(err, "kill engine")
		}
		killed = true
		waitClosed(done, b.killWait)
	}

	if err := proc.CloseOutput(); err != nil {
		log.Debug("close engine output", "error", err.Error())
	}
	<-done
	b.readers.Wait()

	if err := proc.CloseInput(); err != nil {
		log.Debug("close engine input", "error", err.Error())
	}
	exitErr := b.reap(log, proc, killed)

	b.mu.Lock()
	b.proc = nil
	b.path = ""
	b.procLog = nil
	b.writer = nil
	b.streamDone = nil
	b.mu.Unlock()

	log.Info("engine stopped", "killed", killed)
	b.publish(event.NewEngineStoppedEvent(path, gen, killed, exitErr))
	return stopErr
}

// reap waits for the process to exit, killing it if it outlives killWait.
func (b *Bridge) reap(log *logging.Logger, proc process.Process, killed bool) error {
	waited := make(chan error, 1)
	go func() {
		waited <- proc.Wait()
	}()

	timer := time.NewTimer(b.killWait)
	defer timer.Stop()

	select {
	case err := <-waited:
		return err
	case <-timer.C:
	}

	if !killed {
		_ = proc.Kill()
	}
	timer.Reset(b.killWait)
	select {
	case err := <-waited:
		return err
	case <-timer.C:
		log.Error("engine did not exit after kill", "pid", proc.PID())
		return errors.New("engine did not exit")
	}
}

// waitClosed reports whether ch closed within d.
func waitClosed(ch <-chan struct{}, d time.Duration) bool {
	select {
	case <-ch:
		return true
	default:
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	}
}

// Running reports whether an engine is live and its output has not ended.
func (b *Bridge) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writer != nil
}

// PID returns the engine's process ID, or 0 when no process is held.
func (b *Bridge) PID() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.proc == nil {
		return 0
	}
	return b.proc.PID()
}

// Path returns the executable of the held process, or "".
func (b *Bridge) Path() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.path
}

// Generation returns the number of successful Starts so far.
func (b *Bridge) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generation
}

// Dialect returns the protocol dialect used by Handshake.
func (b *Bridge) Dialect() protocol.Dialect {
	return b.dialect
}

func (b *Bridge) publish(e event.Event) {
	if b.bus != nil {
		b.bus.Publish(e)
	}
}
