package testutil

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/Iron-Ham/uccibridge/internal/process"
)

// Handler reacts to one command line received by a FakeEngine.
type Handler func(e *FakeEngine, command string)

// ScriptedHandler answers with EngineReplies using bestmove for searches.
func ScriptedHandler(bestmove string) Handler {
	return func(e *FakeEngine, command string) {
		e.Emit(EngineReplies(command, bestmove)...)
	}
}

// SilentHandler never answers.
func SilentHandler(*FakeEngine, string) {}

// FakeOption configures a FakeEngine.
type FakeOption func(*FakeEngine)

// WithHandler replaces the scripted handler.
func WithHandler(h Handler) FakeOption {
	return func(e *FakeEngine) { e.handler = h }
}

// WithPID sets the PID reported by the fake.
func WithPID(pid int) FakeOption {
	return func(e *FakeEngine) { e.pid = pid }
}

// IgnoreQuit makes the fake keep running after "quit" and stdin EOF.
func IgnoreQuit() FakeOption {
	return func(e *FakeEngine) { e.ignoreQuit = true }
}

// HoldOutput makes Kill leave stdout open, the way a grandchild that
// inherited the pipe would. Only CloseOutput unblocks readers then.
func HoldOutput() FakeOption {
	return func(e *FakeEngine) { e.holdOutput = true }
}

// FakeEngine is an in-memory process.Process driven by a Handler. Output
// is queued and written by its own goroutine, so handlers never block on
// an unread pipe.
type FakeEngine struct {
	stdinR  *io.PipeReader
	stdinW  *io.PipeWriter
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter

	handler    Handler
	pid        int
	ignoreQuit bool
	holdOutput bool

	mu       sync.Mutex
	cond     *sync.Cond
	outbox   []string
	draining bool
	killed   bool
	commands []string
	raw      bytes.Buffer

	received chan string
	exited   chan struct{}
	exitOnce sync.Once
}

// NewFakeEngine creates a fake that answers like a minimal UCI engine
// unless a handler option says otherwise. Its goroutines start immediately.
func NewFakeEngine(opts ...FakeOption) *FakeEngine {
	e := &FakeEngine{
		handler:  ScriptedHandler(DefaultBestMove),
		pid:      4242,
		received: make(chan string, 1024),
		exited:   make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mu)
	e.stdinR, e.stdinW = io.Pipe()
	e.stdoutR, e.stdoutW = io.Pipe()

	for _, opt := range opts {
		opt(e)
	}

	go e.readLoop()
	go e.writeLoop()
	return e
}

func (e *FakeEngine) readLoop() {
	r := bufio.NewReader(io.TeeReader(e.stdinR, rawRecorder{e}))
	for {
		line, err := r.ReadString('\n')
		if line != "" && line[len(line)-1] == '\n' {
			cmd := line[:len(line)-1]

			e.mu.Lock()
			e.commands = append(e.commands, cmd)
			e.mu.Unlock()

			select {
			case e.received <- cmd:
			default:
			}

			if cmd == "quit" && !e.ignoreQuit {
				e.exit(true)
				return
			}
			e.handler(e, cmd)
		}
		if err != nil {
			if !e.ignoreQuit {
				e.exit(true)
			}
			return
		}
	}
}

func (e *FakeEngine) writeLoop() {
	for {
		e.mu.Lock()
		for len(e.outbox) == 0 && !e.draining && !e.killed {
			e.cond.Wait()
		}
		if e.killed {
			e.mu.Unlock()
			return
		}
		if len(e.outbox) == 0 {
			e.mu.Unlock()
			_ = e.stdoutW.Close()
			return
		}
		chunk := e.outbox[0]
		e.outbox = e.outbox[1:]
		e.mu.Unlock()

		if _, err := io.WriteString(e.stdoutW, chunk); err != nil {
			return
		}
	}
}

type rawRecorder struct{ e *FakeEngine }

func (r rawRecorder) Write(p []byte) (int, error) {
	r.e.mu.Lock()
	defer r.e.mu.Unlock()
	return r.e.raw.Write(p)
}

// Emit queues lines for output, each terminated by "\n".
func (e *FakeEngine) Emit(lines ...string) {
	for _, l := range lines {
		e.EmitRaw(l + "\n")
	}
}

// EmitRaw queues s for output verbatim.
func (e *FakeEngine) EmitRaw(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draining || e.killed {
		return
	}
	e.outbox = append(e.outbox, s)
	e.cond.Broadcast()
}

// Exit makes the fake terminate on its own: queued output is flushed,
// then stdout reaches EOF.
func (e *FakeEngine) Exit() {
	e.exit(true)
}

func (e *FakeEngine) exit(flush bool) {
	e.exitOnce.Do(func() {
		e.mu.Lock()
		if flush {
			e.draining = true
		} else {
			e.killed = true
		}
		e.cond.Broadcast()
		e.mu.Unlock()

		if !flush && !e.holdOutput {
			_ = e.stdoutW.Close()
		}
		_ = e.stdinR.Close()
		close(e.exited)
	})
}

// Commands returns the command lines received so far, without newlines.
func (e *FakeEngine) Commands() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.commands...)
}

// Raw returns every byte written to the fake's stdin.
func (e *FakeEngine) Raw() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]byte(nil), e.raw.Bytes()...)
}

// Received delivers each command as it arrives. Commands beyond the
// buffer are still recorded by Commands.
func (e *FakeEngine) Received() <-chan string {
	return e.received
}

// Exited is closed once the fake has terminated.
func (e *FakeEngine) Exited() <-chan struct{} {
	return e.exited
}

func (e *FakeEngine) Stdin() io.Writer  { return e.stdinW }
func (e *FakeEngine) Stdout() io.Reader { return e.stdoutR }
func (e *FakeEngine) PID() int          { return e.pid }

// Kill terminates the fake without flushing queued output.
func (e *FakeEngine) Kill() error {
	e.exit(false)
	return nil
}

func (e *FakeEngine) CloseInput() error {
	return e.stdinW.Close()
}

// CloseOutput closes the read end of stdout; a blocked Read returns
// io.ErrClosedPipe.
func (e *FakeEngine) CloseOutput() error {
	return e.stdoutR.Close()
}

func (e *FakeEngine) Wait() error {
	<-e.exited
	return nil
}

// FakeSpawner hands out FakeEngines and records what it was asked to spawn.
type FakeSpawner struct {
	// New builds each engine. Defaults to NewFakeEngine().
	New func() *FakeEngine
	// Err, when set, is returned by Spawn instead of an engine.
	Err error

	mu      sync.Mutex
	specs   []process.Spec
	engines []*FakeEngine
}

// Spawn implements process.Spawner.
func (s *FakeSpawner) Spawn(ctx context.Context, spec process.Spec) (process.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.specs = append(s.specs, spec)
	if s.Err != nil {
		return nil, s.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var e *FakeEngine
	if s.New != nil {
		e = s.New()
	} else {
		e = NewFakeEngine()
	}
	s.engines = append(s.engines, e)
	return e, nil
}

// Specs returns every spec passed to Spawn.
func (s *FakeSpawner) Specs() []process.Spec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]process.Spec(nil), s.specs...)
}

// Engines returns every engine spawned so far.
func (s *FakeSpawner) Engines() []*FakeEngine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*FakeEngine(nil), s.engines...)
}

// Last returns the most recently spawned engine, or nil.
func (s *FakeSpawner) Last() *FakeEngine {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.engines) == 0 {
		return nil
	}
	return s.engines[len(s.engines)-1]
}

// Ensure FakeEngine implements process.Process.
var _ process.Process = (*FakeEngine)(nil)

// Ensure FakeSpawner implements process.Spawner.
var _ process.Spawner = (*FakeSpawner)(nil)
