package bridge

import (
	"sync/atomic"
	"time"

	"github.com/Iron-Ham/uccibridge/internal/protocol"
)

// EventKind classifies an OutputEvent.
type EventKind int

const (
	// EventNotification carries one line of unsolicited engine output.
	EventNotification EventKind = iota
	// EventError reports a read failure; the stream is over.
	EventError
	// EventStreamEnded reports end of output for a generation.
	EventStreamEnded
)

func (k EventKind) String() string {
	switch k {
	case EventNotification:
		return "notification"
	case EventError:
		return "error"
	case EventStreamEnded:
		return "stream_ended"
	default:
		return "unknown"
	}
}

// OutputEvent is one item delivered to subscribers.
type OutputEvent struct {
	Kind EventKind
	// Text is the trimmed output line, or the error description.
	Text string
	// Info is set when Text is a parseable info line.
	Info       *protocol.Info
	Generation uint64
	Time       time.Time
}

// Subscription receives OutputEvents in the order they were produced.
//
// Its queue is bounded. When the consumer falls behind, the oldest queued
// event is discarded and counted by Dropped; the engine reader never
// blocks on a subscriber.
type Subscription struct {
	bridge  *Bridge
	ch      chan OutputEvent
	dropped atomic.Uint64
	closed  bool // guarded by bridge.mu
}

// Subscribe registers a new subscriber. It stays registered across engine
// restarts until Close.
func (b *Bridge) Subscribe() *Subscription {
	s := &Subscription{
		bridge: b,
		ch:     make(chan OutputEvent, b.queueSize),
	}

	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()
	return s
}

// Events returns the delivery channel. It is closed by Close.
func (s *Subscription) Events() <-chan OutputEvent {
	return s.ch
}

// Dropped returns how many events were discarded for this subscriber.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Close unregisters the subscription and closes its channel. Calling Close
// more than once is a no-op.
func (s *Subscription) Close() {
	b := s.bridge
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	subs := make([]*Subscription, 0, len(b.subs))
	for _, other := range b.subs {
		if other != s {
			subs = append(subs, other)
		}
	}
	b.subs = subs
	close(s.ch)
}

// deliverLocked enqueues ev, evicting the oldest events if the queue is
// full. The caller must hold bridge.mu.
func (s *Subscription) deliverLocked(ev OutputEvent) {
	for {
		select {
		case s.ch <- ev:
			return
		default:
		}

		select {
		case <-s.ch:
			s.dropped.Add(1)
		default:
		}
	}
}

// publishLocked fans ev out to every subscriber. The caller must hold b.mu.
func (b *Bridge) publishLocked(ev OutputEvent) {
	for _, s := range b.subs {
		s.deliverLocked(ev)
	}
}
