// Package event provides a pub-sub event bus for host-level lifecycle
// notifications from the engine bridge.
//
// The engine's own output lines travel through the bridge's bounded
// subscriber queues. This bus carries the coarser facts a host cares about:
// the engine started or stopped, its output ended, a move request finished,
// or the executable on disk changed.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Engine Lifecycle:
//   - [EngineStartedEvent]: a process was spawned (path, pid, generation)
//   - [EngineStoppedEvent]: Stop released the process
//   - [EngineStreamEndedEvent]: the engine's stdout reached end-of-stream
//   - [EngineBinaryChangedEvent]: the executable was modified on disk
//
// Move Requests:
//   - [MoveCompletedEvent]: a move request produced a move
//   - [MoveFailedEvent]: a move request ended without one
//
// # Thread Safety
//
// [Bus] is safe for concurrent use. Handlers are invoked synchronously on
// the publishing goroutine, outside the bus lock, so a handler may
// subscribe or unsubscribe. A panicking handler is logged and skipped.
//
// # Basic Usage
//
//	bus := event.NewBus(logger)
//	id := bus.Subscribe(event.TypeMoveCompleted, func(e event.Event) {
//	    done := e.(event.MoveCompletedEvent)
//	    fmt.Println(done.Move)
//	})
//	defer bus.Unsubscribe(id)
package event
