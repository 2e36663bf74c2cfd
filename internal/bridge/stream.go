package bridge

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/Iron-Ham/uccibridge/internal/errors"
	"github.com/Iron-Ham/uccibridge/internal/event"
	"github.com/Iron-Ham/uccibridge/internal/logging"
	"github.com/Iron-Ham/uccibridge/internal/process"
	"github.com/Iron-Ham/uccibridge/internal/protocol"
)

// stream reads proc's output until it ends. One runs per generation.
func (b *Bridge) stream(log *logging.Logger, gen uint64, proc process.Process) {
	r := bufio.NewReader(proc.Stdout())
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			b.handleLine(log, gen, line)
		}
		if err != nil {
			b.endStream(log, gen, err)
			return
		}
	}
}

func (b *Bridge) handleLine(log *logging.Logger, gen uint64, raw string) {
	line := strings.TrimRight(raw, "\r\n\t ")
	if line == "" {
		return
	}
	if b.echoMarker != "" && strings.HasPrefix(line, b.echoMarker) {
		log.Debug("echo discarded", "line", line)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if p := b.pending; p != nil && p.terminal(line) {
		b.pending = nil
		p.resolve(line, nil)
		return
	}

	ev := OutputEvent{
		Kind:       EventNotification,
		Text:       line,
		Generation: gen,
		Time:       b.clock.Now(),
	}
	if info, ok := protocol.ParseInfo(line); ok {
		ev.Info = &info
	}
	b.publishLocked(ev)
}

// endStream records the end of gen's output and fails any pending request.
func (b *Bridge) endStream(log *logging.Logger, gen uint64, err error) {
	clean := errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe)

	kind := errors.ReadStreamEnded
	if !clean {
		kind = errors.ReadIO
	}
	readErr := errors.NewReadError(kind, err).WithGeneration(gen)

	b.mu.Lock()
	b.writer = nil
	p := b.pending
	b.pending = nil

	ev := OutputEvent{Generation: gen, Time: b.clock.Now()}
	if clean {
		ev.Kind = EventStreamEnded
	} else {
		ev.Kind = EventError
		ev.Text = err.Error()
	}
	b.publishLocked(ev)

	if p != nil {
		p.resolve("", errors.NewMoveError(errors.MoveEngineTerminated, readErr).
			WithRequestID(p.id).
			WithPosition(p.position))
	}
	b.mu.Unlock()

	if clean {
		log.Info("engine output ended")
		b.publish(event.NewEngineStreamEndedEvent(gen, nil))
	} else {
		log.Error("engine output failed", "error", err.Error())
		b.publish(event.NewEngineStreamEndedEvent(gen, readErr))
	}
}
