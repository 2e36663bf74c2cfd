// Package process spawns engine child processes with their standard input
// and standard output connected to pipes owned by the caller.
//
// The bridge depends only on the [Spawner] and [Process] interfaces, so
// tests can substitute in-memory fakes for a real executable.
package process

import (
	"context"
	"io"

	"github.com/Iron-Ham/uccibridge/internal/errors"
)

// Spec describes how to launch an engine.
type Spec struct {
	// Path is the executable. A bare name is resolved through PATH.
	Path string

	// Args are passed to the engine after the program name.
	Args []string

	// Dir is the working directory. Empty means the caller's directory.
	Dir string

	// Env replaces the environment when non-nil.
	Env []string

	// Stderr receives the engine's standard error. Nil discards it.
	Stderr io.Writer
}

// Validate checks that the Spec has all required fields set.
func (s *Spec) Validate() error {
	if s.Path == "" {
		return errors.NewStartError(errors.StartNotFound, "", errors.NewValidationError("engine path is required").WithField("path"))
	}
	return nil
}

// Process is a running engine child.
//
// The lifecycle expected by the bridge is:
//  1. Spawner.Spawn returns a started Process
//  2. commands are written to Stdin, output is read from Stdout
//  3. on shutdown: Kill if needed, CloseOutput to unblock a pending read,
//     CloseInput, then Wait to reap
type Process interface {
	// Stdin is the write end of the engine's standard input.
	Stdin() io.Writer

	// Stdout is the read end of the engine's standard output.
	Stdout() io.Reader

	// PID returns the operating system process ID, or 0 if unknown.
	PID() int

	// Kill terminates the process immediately. Killing an exited process
	// is not an error.
	Kill() error

	// CloseInput closes the write end of standard input.
	CloseInput() error

	// CloseOutput closes the read end of standard output. A goroutine
	// blocked reading Stdout returns with an error.
	CloseOutput() error

	// Wait blocks until the process exits and releases its resources.
	// It may be called more than once and from several goroutines; every
	// call returns the same result.
	Wait() error
}

// Spawner starts engine processes.
type Spawner interface {
	// Spawn launches the engine described by spec. The context bounds the
	// launch only; it does not control the lifetime of the returned Process.
	// Failures are *errors.StartError values.
	Spawn(ctx context.Context, spec Spec) (Process, error)
}

// SpawnerFunc adapts a function to the Spawner interface.
type SpawnerFunc func(ctx context.Context, spec Spec) (Process, error)

// Spawn calls f(ctx, spec).
func (f SpawnerFunc) Spawn(ctx context.Context, spec Spec) (Process, error) {
	return f(ctx, spec)
}
