// Package errors provides centralized error definitions and error handling utilities
// for the uccibridge codebase. It defines the bridge's error taxonomy, semantic error
// types, constructors with context, and classification helpers.
//
// # Error Types
//
// Domain-specific errors map one-to-one onto the bridge operations that produce them:
//   - StartError: spawning the engine (not found, permission, pipes, already running)
//   - WriteError: sending a command (not running, broken pipe, invalid command)
//   - ReadError: consuming engine output (I/O failure, stream ended)
//   - ParseError: decoding a terminal response line (malformed move, no move)
//   - MoveError: the synchronous move request (already pending, timeout, terminated)
//
// Every domain error carries a Kind. Each Kind has a sentinel, so callers can test
// the condition without caring which typed error wraps it:
//
//	if errors.Is(err, errors.ErrTimeout) { ... }
//
//	var startErr *errors.StartError
//	if errors.As(err, &startErr) && startErr.Kind == errors.StartNotFound { ... }
//
// Semantic errors represent conditions outside the process bridge itself:
//   - NotFoundError: resource not found (e.g. no engine binary discovered)
//   - ValidationError: invalid input (e.g. a malformed FEN)
//
// # Error Classification
//
// Errors can be classified by severity and behavior:
//   - Retryable: transient errors that may succeed on retry
//   - Severity: Warning for correctable input, Error for everything else
//
// The bridge itself never retries; the consoles use the classification to
// pick how an error is shown.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityWarning is for errors the caller can correct, such as bad
	// input or an unusable engine reply.
	SeverityWarning Severity = iota
	// SeverityError is for errors that indicate a real problem.
	SeverityError
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Start-related sentinel errors
var (
	// ErrAlreadyRunning indicates Start was called while a process is held.
	ErrAlreadyRunning = New("engine already running")
	// ErrExecutableNotFound indicates the engine path could not be resolved.
	ErrExecutableNotFound = New("engine executable not found")
	// ErrPermissionDenied indicates the OS refused to execute the engine.
	ErrPermissionDenied = New("permission denied")
	// ErrPipeFailed indicates the stdin/stdout pipes could not be created.
	ErrPipeFailed = New("pipe creation failed")
	// ErrSpawnFailed indicates any other failure to launch the engine.
	ErrSpawnFailed = New("engine failed to start")
)

// Write-related sentinel errors
var (
	// ErrNotRunning indicates an operation requires a running engine.
	ErrNotRunning = New("engine not running")
	// ErrBrokenPipe indicates the engine closed its input (usually because it exited).
	ErrBrokenPipe = New("broken pipe")
	// ErrInvalidCommand indicates a command that cannot be sent as a single line.
	ErrInvalidCommand = New("invalid command")
	// ErrWriteFailed indicates any other write failure.
	ErrWriteFailed = New("write failed")
)

// Read-related sentinel errors
var (
	// ErrStreamEnded indicates the engine's output reached end-of-stream.
	ErrStreamEnded = New("engine output ended")
	// ErrReadFailed indicates reading engine output failed.
	ErrReadFailed = New("read failed")
)

// Parse-related sentinel errors
var (
	// ErrMalformedMove indicates a terminal line without a usable move token.
	ErrMalformedMove = New("malformed move")
	// ErrNoMove indicates the engine reported that no move is available.
	ErrNoMove = New("engine reported no move")
)

// Move-request sentinel errors
var (
	// ErrAlreadyPending indicates a synchronous request is already outstanding.
	ErrAlreadyPending = New("request already pending")
	// ErrTimeout indicates a request deadline expired.
	ErrTimeout = New("operation timed out")
	// ErrEngineTerminated indicates the engine went away while a request was pending.
	ErrEngineTerminated = New("engine terminated")
	// ErrCanceled indicates the caller canceled the request.
	ErrCanceled = New("operation canceled")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// BridgeError is the base interface for all uccibridge errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type BridgeError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message   string
	cause     error
	severity  Severity
	retryable bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// format renders "<prefix> [k=v, ...]: message: cause".
func (e *baseError) format(prefix string, parts []string) string {
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// StartError
// -----------------------------------------------------------------------------

// StartErrorKind classifies a StartError.
type StartErrorKind int

const (
	StartSpawnFailed StartErrorKind = iota
	StartNotFound
	StartPermissionDenied
	StartPipeFailed
	StartAlreadyRunning
)

func (k StartErrorKind) String() string {
	switch k {
	case StartNotFound:
		return "not_found"
	case StartPermissionDenied:
		return "permission_denied"
	case StartPipeFailed:
		return "pipe_failed"
	case StartAlreadyRunning:
		return "already_running"
	default:
		return "spawn_failed"
	}
}

func (k StartErrorKind) sentinel() error {
	switch k {
	case StartNotFound:
		return ErrExecutableNotFound
	case StartPermissionDenied:
		return ErrPermissionDenied
	case StartPipeFailed:
		return ErrPipeFailed
	case StartAlreadyRunning:
		return ErrAlreadyRunning
	default:
		return ErrSpawnFailed
	}
}

// StartError is returned when the engine process cannot be started.
//
// Example:
//
//	err := errors.NewStartError(errors.StartNotFound, "/opt/engines/pikafish", cause)
//	fmt.Println(err) // "start error [kind=not_found, path=/opt/engines/pikafish]: engine executable not found: ..."
type StartError struct {
	baseError
	Kind StartErrorKind
	Path string
}

// NewStartError creates a StartError of the given kind for path.
func NewStartError(kind StartErrorKind, path string, cause error) *StartError {
	return &StartError{
		baseError: baseError{
			message:   kind.sentinel().Error(),
			cause:     cause,
			severity:  SeverityError,
			retryable: false,
		},
		Kind: kind,
		Path: path,
	}
}

// Error returns the formatted error message.
func (e *StartError) Error() string {
	parts := []string{"kind=" + e.Kind.String()}
	if e.Path != "" {
		parts = append(parts, "path="+e.Path)
	}
	return e.format("start error", parts)
}

// Is checks if this error matches the target.
func (e *StartError) Is(target error) bool {
	if t, ok := target.(*StartError); ok {
		return t.Kind == e.Kind
	}
	if target == e.Kind.sentinel() {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// WriteError
// -----------------------------------------------------------------------------

// WriteErrorKind classifies a WriteError.
type WriteErrorKind int

const (
	WriteIO WriteErrorKind = iota
	WriteNotRunning
	WriteBrokenPipe
	WriteInvalidCommand
)

func (k WriteErrorKind) String() string {
	switch k {
	case WriteNotRunning:
		return "not_running"
	case WriteBrokenPipe:
		return "broken_pipe"
	case WriteInvalidCommand:
		return "invalid_command"
	default:
		return "io"
	}
}

func (k WriteErrorKind) sentinel() error {
	switch k {
	case WriteNotRunning:
		return ErrNotRunning
	case WriteBrokenPipe:
		return ErrBrokenPipe
	case WriteInvalidCommand:
		return ErrInvalidCommand
	default:
		return ErrWriteFailed
	}
}

// WriteError is returned when a command cannot be delivered to the engine.
type WriteError struct {
	baseError
	Kind    WriteErrorKind
	Command string
}

// NewWriteError creates a WriteError of the given kind for command.
func NewWriteError(kind WriteErrorKind, command string, cause error) *WriteError {
	return &WriteError{
		baseError: baseError{
			message:   kind.sentinel().Error(),
			cause:     cause,
			severity:  SeverityError,
			retryable: false,
		},
		Kind:    kind,
		Command: command,
	}
}

// Error returns the formatted error message.
func (e *WriteError) Error() string {
	parts := []string{"kind=" + e.Kind.String()}
	if e.Command != "" {
		parts = append(parts, fmt.Sprintf("command=%q", e.Command))
	}
	return e.format("write error", parts)
}

// Is checks if this error matches the target.
func (e *WriteError) Is(target error) bool {
	if t, ok := target.(*WriteError); ok {
		return t.Kind == e.Kind
	}
	if target == e.Kind.sentinel() {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// ReadError
// -----------------------------------------------------------------------------

// ReadErrorKind classifies a ReadError.
type ReadErrorKind int

const (
	ReadIO ReadErrorKind = iota
	ReadStreamEnded
)

func (k ReadErrorKind) String() string {
	if k == ReadStreamEnded {
		return "stream_ended"
	}
	return "io"
}

func (k ReadErrorKind) sentinel() error {
	if k == ReadStreamEnded {
		return ErrStreamEnded
	}
	return ErrReadFailed
}

// ReadError describes a failure while consuming engine output.
type ReadError struct {
	baseError
	Kind       ReadErrorKind
	Generation uint64
}

// NewReadError creates a ReadError of the given kind.
func NewReadError(kind ReadErrorKind, cause error) *ReadError {
	return &ReadError{
		baseError: baseError{
			message:   kind.sentinel().Error(),
			cause:     cause,
			severity:  SeverityError,
			retryable: false,
		},
		Kind: kind,
	}
}

// WithGeneration records which process generation produced the error.
func (e *ReadError) WithGeneration(gen uint64) *ReadError {
	e.Generation = gen
	return e
}

// Error returns the formatted error message.
func (e *ReadError) Error() string {
	parts := []string{"kind=" + e.Kind.String()}
	if e.Generation > 0 {
		parts = append(parts, fmt.Sprintf("generation=%d", e.Generation))
	}
	return e.format("read error", parts)
}

// Is checks if this error matches the target.
func (e *ReadError) Is(target error) bool {
	if t, ok := target.(*ReadError); ok {
		return t.Kind == e.Kind
	}
	if target == e.Kind.sentinel() {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// ParseError
// -----------------------------------------------------------------------------

// ParseErrorKind classifies a ParseError.
type ParseErrorKind int

const (
	ParseMalformedMove ParseErrorKind = iota
	ParseNoMove
)

func (k ParseErrorKind) String() string {
	if k == ParseNoMove {
		return "no_move"
	}
	return "malformed_move"
}

func (k ParseErrorKind) sentinel() error {
	if k == ParseNoMove {
		return ErrNoMove
	}
	return ErrMalformedMove
}

// ParseError is returned when a terminal response line cannot be decoded.
type ParseError struct {
	baseError
	Kind ParseErrorKind
	Line string
}

// NewParseError creates a ParseError of the given kind for line.
func NewParseError(kind ParseErrorKind, line string) *ParseError {
	return &ParseError{
		baseError: baseError{
			message:   kind.sentinel().Error(),
			severity:  SeverityWarning,
			retryable: false,
		},
		Kind: kind,
		Line: line,
	}
}

// Error returns the formatted error message.
func (e *ParseError) Error() string {
	return e.format("parse error", []string{"kind=" + e.Kind.String(), fmt.Sprintf("line=%q", e.Line)})
}

// Is checks if this error matches the target.
func (e *ParseError) Is(target error) bool {
	if t, ok := target.(*ParseError); ok {
		return t.Kind == e.Kind
	}
	if target == e.Kind.sentinel() {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// MoveError
// -----------------------------------------------------------------------------

// MoveErrorKind classifies a MoveError.
type MoveErrorKind int

const (
	// MoveFailed wraps an underlying write or parse failure; inspect the cause.
	MoveFailed MoveErrorKind = iota
	MoveAlreadyPending
	MoveTimeout
	MoveEngineTerminated
	MoveCanceled
	MoveNotRunning
)

func (k MoveErrorKind) String() string {
	switch k {
	case MoveAlreadyPending:
		return "already_pending"
	case MoveTimeout:
		return "timeout"
	case MoveEngineTerminated:
		return "engine_terminated"
	case MoveCanceled:
		return "canceled"
	case MoveNotRunning:
		return "not_running"
	default:
		return "failed"
	}
}

func (k MoveErrorKind) sentinel() error {
	switch k {
	case MoveAlreadyPending:
		return ErrAlreadyPending
	case MoveTimeout:
		return ErrTimeout
	case MoveEngineTerminated:
		return ErrEngineTerminated
	case MoveCanceled:
		return ErrCanceled
	case MoveNotRunning:
		return ErrNotRunning
	default:
		return nil
	}
}

// MoveError is returned by synchronous requests (move computation, readiness).
//
// Example:
//
//	err := errors.NewMoveError(errors.MoveTimeout, nil).WithRequestID(id).WithPosition(fen)
type MoveError struct {
	baseError
	Kind      MoveErrorKind
	RequestID string
	Position  string
}

// NewMoveError creates a MoveError of the given kind.
func NewMoveError(kind MoveErrorKind, cause error) *MoveError {
	msg := "move request failed"
	if s := kind.sentinel(); s != nil {
		msg = s.Error()
	}
	return &MoveError{
		baseError: baseError{
			message:   msg,
			cause:     cause,
			severity:  SeverityError,
			retryable: kind == MoveTimeout || kind == MoveAlreadyPending,
		},
		Kind: kind,
	}
}

// WithRequestID adds the request identifier to the error context.
func (e *MoveError) WithRequestID(id string) *MoveError {
	e.RequestID = id
	return e
}

// WithPosition adds the position the request was issued against.
func (e *MoveError) WithPosition(fen string) *MoveError {
	e.Position = fen
	return e
}

// Error returns the formatted error message.
func (e *MoveError) Error() string {
	parts := []string{"kind=" + e.Kind.String()}
	if e.RequestID != "" {
		parts = append(parts, "request="+e.RequestID)
	}
	return e.format("move error", parts)
}

// Is reports whether target is a MoveError of the same kind or the
// sentinel for e's kind.
func (e *MoveError) Is(target error) bool {
	if t, ok := target.(*MoveError); ok {
		return t.Kind == e.Kind
	}
	if s := e.Kind.sentinel(); s != nil && target == s {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("engine", "*pikafish*")
//	fmt.Println(err) // "engine not found: *pikafish*"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:   fmt.Sprintf("%s not found", resourceType),
			severity:  SeverityWarning,
			retryable: false,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	base := fmt.Sprintf("%s not found: %s", e.ResourceType, e.ResourceID)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("FEN must have ten ranks").WithField("fen").WithValue(fen)
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:   message,
			severity:  SeverityWarning,
			retryable: false,
		},
	}
}

// WithField sets the field that failed validation.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue sets the invalid value.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, "field="+e.Field)
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	return e.format("validation error", parts)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if target == ErrInvalidInput {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry. Timeouts and already-pending rejections are
// retryable; lifecycle failures are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var bridgeErr BridgeError
	if As(err, &bridgeErr) {
		return bridgeErr.IsRetryable()
	}

	return Is(err, ErrTimeout)
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement BridgeError.
func GetSeverity(err error) Severity {
	var bridgeErr BridgeError
	if As(err, &bridgeErr) {
		return bridgeErr.Severity()
	}

	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
// Unlike fmt.Errorf with %w, this preserves the BridgeError interface.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to start engine %s", path)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
