// Package watch reports changes to the engine executable on disk.
//
// A Watcher observes the directory holding the executable, so replacing
// the file by rename is seen as well as rewriting it in place. Bursts of
// events are debounced into a single engine.binary_changed event. The
// running engine is never restarted; acting on the event is up to the host.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/uccibridge/internal/errors"
	"github.com/Iron-Ham/uccibridge/internal/event"
	"github.com/Iron-Ham/uccibridge/internal/logging"
)

// DefaultDebounce is how long the watcher waits for a burst to settle.
const DefaultDebounce = 50 * time.Millisecond

const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

// Watcher publishes an event when the watched executable changes.
type Watcher struct {
	path     string
	bus      *event.Bus
	logger   *logging.Logger
	debounce time.Duration

	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	done     chan struct{}
	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
}

// New creates a watcher for the executable at path. Events go to bus.
func New(path string, bus *event.Bus, logger *logging.Logger) (*Watcher, error) {
	if bus == nil {
		return nil, errors.NewValidationError("event bus is required").WithField("bus")
	}
	if logger == nil {
		logger = logging.NopLogger()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", path)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create file watcher")
	}

	return &Watcher{
		path:     abs,
		bus:      bus,
		logger:   logger.WithEngine(abs),
		debounce: DefaultDebounce,
		watcher:  fw,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Start begins watching. It fails if the executable's directory cannot
// be watched.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return nil
	}
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return errors.Wrapf(err, "watch %s", filepath.Dir(w.path))
	}
	w.started = true

	go w.loop()
	return nil
}

// Stop ends watching and waits for the event loop to exit. It is safe to
// call more than once, and before Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()

		w.mu.Lock()
		started := w.started
		w.mu.Unlock()
		if started {
			<-w.done
		}
	})
}

func (w *Watcher) loop() {
	defer close(w.done)

	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C
	defer debounceTimer.Stop()

	var pending fsnotify.Op
	for {
		select {
		case <-w.stopCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op&relevantOps == 0 {
				continue
			}
			pending |= ev.Op & relevantOps
			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			if pending == 0 {
				continue
			}
			op := pending
			pending = 0
			w.logger.Info("engine binary changed", "op", op.String())
			w.bus.Publish(event.NewEngineBinaryChangedEvent(w.path, op.String()))

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err.Error())
		}
	}
}
