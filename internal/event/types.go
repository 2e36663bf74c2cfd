package event

import "time"

// Event type identifiers.
const (
	TypeEngineStarted       = "engine.started"
	TypeEngineStopped       = "engine.stopped"
	TypeEngineStreamEnded   = "engine.stream_ended"
	TypeMoveCompleted       = "move.completed"
	TypeMoveFailed          = "move.failed"
	TypeEngineBinaryChanged = "engine.binary_changed"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "engine.started", "move.completed")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Engine Lifecycle Events
// -----------------------------------------------------------------------------

// EngineStartedEvent is emitted after a successful Start.
type EngineStartedEvent struct {
	baseEvent
	Path       string
	PID        int
	Generation uint64
}

// NewEngineStartedEvent creates an EngineStartedEvent.
func NewEngineStartedEvent(path string, pid int, generation uint64) EngineStartedEvent {
	return EngineStartedEvent{
		baseEvent:  newBaseEvent(TypeEngineStarted),
		Path:       path,
		PID:        pid,
		Generation: generation,
	}
}

// EngineStoppedEvent is emitted once Stop has released the process.
type EngineStoppedEvent struct {
	baseEvent
	Path       string
	Generation uint64
	Killed     bool  // true when the engine ignored quit and was killed
	ExitErr    error // result of reaping the process, if any
}

// NewEngineStoppedEvent creates an EngineStoppedEvent.
func NewEngineStoppedEvent(path string, generation uint64, killed bool, exitErr error) EngineStoppedEvent {
	return EngineStoppedEvent{
		baseEvent:  newBaseEvent(TypeEngineStopped),
		Path:       path,
		Generation: generation,
		Killed:     killed,
		ExitErr:    exitErr,
	}
}

// EngineStreamEndedEvent is emitted when the engine's output ends, whether
// because it exited on its own or because Stop closed it.
type EngineStreamEndedEvent struct {
	baseEvent
	Generation uint64
	Err        error // nil on a clean end-of-stream
}

// NewEngineStreamEndedEvent creates an EngineStreamEndedEvent.
func NewEngineStreamEndedEvent(generation uint64, err error) EngineStreamEndedEvent {
	return EngineStreamEndedEvent{
		baseEvent:  newBaseEvent(TypeEngineStreamEnded),
		Generation: generation,
		Err:        err,
	}
}

// EngineBinaryChangedEvent is emitted when the engine executable on disk is
// rewritten, replaced or removed. The running process is left untouched.
type EngineBinaryChangedEvent struct {
	baseEvent
	Path string
	Op   string // fsnotify operation, e.g. "WRITE", "REMOVE"
}

// NewEngineBinaryChangedEvent creates an EngineBinaryChangedEvent.
func NewEngineBinaryChangedEvent(path, op string) EngineBinaryChangedEvent {
	return EngineBinaryChangedEvent{
		baseEvent: newBaseEvent(TypeEngineBinaryChanged),
		Path:      path,
		Op:        op,
	}
}

// -----------------------------------------------------------------------------
// Move Request Events
// -----------------------------------------------------------------------------

// MoveCompletedEvent is emitted when a move request resolves with a move.
type MoveCompletedEvent struct {
	baseEvent
	RequestID string
	Position  string
	Move      string
	Ponder    string
	Elapsed   time.Duration
}

// NewMoveCompletedEvent creates a MoveCompletedEvent.
func NewMoveCompletedEvent(requestID, position, move, ponder string, elapsed time.Duration) MoveCompletedEvent {
	return MoveCompletedEvent{
		baseEvent: newBaseEvent(TypeMoveCompleted),
		RequestID: requestID,
		Position:  position,
		Move:      move,
		Ponder:    ponder,
		Elapsed:   elapsed,
	}
}

// MoveFailedEvent is emitted when a move request ends without a move:
// timeout, cancellation, engine termination, write or parse failure.
type MoveFailedEvent struct {
	baseEvent
	RequestID string
	Position  string
	Err       error
}

// NewMoveFailedEvent creates a MoveFailedEvent.
func NewMoveFailedEvent(requestID, position string, err error) MoveFailedEvent {
	return MoveFailedEvent{
		baseEvent: newBaseEvent(TypeMoveFailed),
		RequestID: requestID,
		Position:  position,
		Err:       err,
	}
}
