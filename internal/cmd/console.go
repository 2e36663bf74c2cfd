package cmd

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Iron-Ham/uccibridge/internal/bridge"
	"github.com/Iron-Ham/uccibridge/internal/event"
	"github.com/Iron-Ham/uccibridge/internal/tui"
)

// Console directives. Anything else typed is sent to the engine verbatim.
const (
	consoleMove = ":move"
	consoleQuit = ":quit"
)

var errConsoleMoveUsage = errors.New("usage: " + consoleMove + " <fen>")

// lineWriter writes whole lines to w from several goroutines.
type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lineWriter) println(s string) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	_, err := io.WriteString(lw.w, s+"\n")
	return err
}

// console is the non-interactive counterpart of the TUI: commands come in
// one per line, engine output goes out one event per line.
type console struct {
	bridge   *bridge.Bridge
	sub      *bridge.Subscription
	out      *lineWriter
	moveTime time.Duration
}

// newConsole subscribes to b right away so output produced while the
// engine starts is not missed.
func newConsole(b *bridge.Bridge, out io.Writer, moveTime time.Duration) *console {
	return &console{
		bridge:   b,
		sub:      b.Subscribe(),
		out:      &lineWriter{w: out},
		moveTime: moveTime,
	}
}

// notifyBinaryChanged prints a notice for every engine.binary_changed
// event published on bus. The returned func unsubscribes.
func (c *console) notifyBinaryChanged(bus *event.Bus) func() {
	id := bus.Subscribe(event.TypeEngineBinaryChanged, func(e event.Event) {
		if changed, ok := e.(event.EngineBinaryChangedEvent); ok {
			_ = c.out.println(tui.FormatNotice("[engine binary changed on disk (" + changed.Op + "): " + changed.Path + "]"))
		}
	})
	return func() { bus.Unsubscribe(id) }
}

// run reads commands from in until EOF, ":quit" or ctx ends, then stops
// the engine. It returns once every event the engine produced has been
// printed.
func (c *console) run(ctx context.Context, in io.Reader) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(c.printEvents)
	g.Go(func() error {
		err := c.readCommands(ctx, readLines(in))
		// Stop returns after the stream has been fully published, so
		// closing the subscription afterwards loses nothing.
		stopErr := c.bridge.Stop()
		c.sub.Close()
		return errors.Join(err, stopErr)
	})

	return g.Wait()
}

func (c *console) printEvents() error {
	for ev := range c.sub.Events() {
		if err := c.out.println(tui.FormatEvent(ev)); err != nil {
			return err
		}
	}
	return nil
}

// readLines feeds the lines of in to the returned channel. The goroutine
// may outlive the console while blocked reading a terminal.
func readLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

func (c *console) readCommands(ctx context.Context, lines <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if c.handle(ctx, strings.TrimSpace(line)) {
				return nil
			}
		}
	}
}

// handle executes one console line and reports whether to quit.
func (c *console) handle(ctx context.Context, line string) bool {
	switch {
	case line == "":
		return false

	case line == consoleQuit:
		return true

	case line == consoleMove || strings.HasPrefix(line, consoleMove+" "):
		fen := strings.TrimSpace(strings.TrimPrefix(line, consoleMove))
		if fen == "" {
			_ = c.out.println(tui.FormatError(errConsoleMoveUsage))
			return false
		}
		res, err := c.bridge.RequestMove(ctx, fen, c.moveTime)
		if err != nil {
			_ = c.out.println(tui.FormatError(err))
			return false
		}
		_ = c.out.println(tui.FormatResult(res))
		return false
	}

	if err := c.bridge.Send(line); err != nil {
		_ = c.out.println(tui.FormatError(err))
	}
	return false
}
