package bridge

import (
	"io"
	"time"

	"k8s.io/utils/clock"

	"github.com/Iron-Ham/uccibridge/internal/event"
	"github.com/Iron-Ham/uccibridge/internal/logging"
	"github.com/Iron-Ham/uccibridge/internal/process"
	"github.com/Iron-Ham/uccibridge/internal/protocol"
)

// Defaults applied when an option is absent or out of range.
const (
	DefaultEchoMarker          = "> "
	DefaultSubscriberQueueSize = 256
	DefaultSafetyMargin        = 2 * time.Second
	DefaultQuitGrace           = 500 * time.Millisecond
	DefaultKillWait            = time.Second
)

// Option configures a Bridge.
type Option func(*config)

type config struct {
	logger         *logging.Logger
	clock          clock.Clock
	spawner        process.Spawner
	bus            *event.Bus
	dialect        protocol.Dialect
	echoMarker     string
	queueSize      int
	safetyMargin   time.Duration
	abortOnTimeout bool
	quitGrace      time.Duration
	killWait       time.Duration
	args           []string
	dir            string
	env            []string
	stderr         io.Writer
}

func defaultConfig() *config {
	return &config{
		logger:         logging.NopLogger(),
		clock:          clock.RealClock{},
		spawner:        process.ExecSpawner{},
		dialect:        protocol.DialectUCI,
		echoMarker:     DefaultEchoMarker,
		queueSize:      DefaultSubscriberQueueSize,
		safetyMargin:   DefaultSafetyMargin,
		abortOnTimeout: true,
		quitGrace:      DefaultQuitGrace,
		killWait:       DefaultKillWait,
	}
}

// normalize replaces zero or invalid values with defaults.
func (c *config) normalize() {
	if c.logger == nil {
		c.logger = logging.NopLogger()
	}
	if c.clock == nil {
		c.clock = clock.RealClock{}
	}
	if c.spawner == nil {
		c.spawner = process.ExecSpawner{}
	}
	if c.dialect == "" {
		c.dialect = protocol.DialectUCI
	}
	if c.queueSize <= 0 {
		c.queueSize = DefaultSubscriberQueueSize
	}
	if c.safetyMargin <= 0 {
		c.safetyMargin = DefaultSafetyMargin
	}
	if c.safetyMargin > MaxTimeLimit {
		c.safetyMargin = MaxTimeLimit
	}
	if c.quitGrace < 0 {
		c.quitGrace = DefaultQuitGrace
	}
	if c.killWait <= 0 {
		c.killWait = DefaultKillWait
	}
}

// WithLogger sets the logger for the bridge.
func WithLogger(logger *logging.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithClock sets the clock used for request deadlines.
func WithClock(clk clock.Clock) Option {
	return func(c *config) {
		c.clock = clk
	}
}

// WithSpawner replaces the os/exec spawner.
func WithSpawner(s process.Spawner) Option {
	return func(c *config) {
		c.spawner = s
	}
}

// WithEventBus makes the bridge publish lifecycle events to bus.
func WithEventBus(bus *event.Bus) Option {
	return func(c *config) {
		c.bus = bus
	}
}

// WithDialect selects the handshake command. Defaults to UCI.
func WithDialect(d protocol.Dialect) Option {
	return func(c *config) {
		c.dialect = d
	}
}

// WithEchoMarker sets the prefix of output lines that are discarded as
// echoes of sent commands. An empty marker disables filtering.
func WithEchoMarker(marker string) Option {
	return func(c *config) {
		c.echoMarker = marker
	}
}

// WithSubscriberQueueSize bounds each subscription's queue.
// A zero or negative value is replaced with the default (256).
func WithSubscriberQueueSize(n int) Option {
	return func(c *config) {
		c.queueSize = n
	}
}

// WithSafetyMargin extends every move deadline beyond the engine's own
// time limit. A zero or negative value is replaced with the default (2s);
// values above MaxTimeLimit are capped.
func WithSafetyMargin(d time.Duration) Option {
	return func(c *config) {
		c.safetyMargin = d
	}
}

// WithAbortOnTimeout controls whether a timed-out move request sends
// "stop" to the engine.
func WithAbortOnTimeout(abort bool) Option {
	return func(c *config) {
		c.abortOnTimeout = abort
	}
}

// WithStopTimeouts sets how long Stop waits for the engine to exit after
// "quit" and for output to end after a kill.
func WithStopTimeouts(quitGrace, killWait time.Duration) Option {
	return func(c *config) {
		c.quitGrace = quitGrace
		c.killWait = killWait
	}
}

// WithProcessArgs sets the arguments passed to the engine.
func WithProcessArgs(args ...string) Option {
	return func(c *config) {
		c.args = args
	}
}

// WithWorkDir sets the engine's working directory.
func WithWorkDir(dir string) Option {
	return func(c *config) {
		c.dir = dir
	}
}

// WithEnv replaces the engine's environment.
func WithEnv(env []string) Option {
	return func(c *config) {
		c.env = env
	}
}

// WithStderr sets where the engine's standard error goes. Nil discards it.
func WithStderr(w io.Writer) Option {
	return func(c *config) {
		c.stderr = w
	}
}
