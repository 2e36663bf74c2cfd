package bridge

import (
	"io"
	"os"
	"syscall"

	"github.com/Iron-Ham/uccibridge/internal/errors"
	"github.com/Iron-Ham/uccibridge/internal/protocol"
)

// Send writes command followed by a single newline and flushes it.
//
// Commands containing a line break are rejected before any I/O. Writes are
// serialized, so concurrent sends never interleave within a line.
func (b *Bridge) Send(command string) error {
	if err := protocol.ValidateCommand(command); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeLocked(command)
}

// writeLocked writes one line. The caller must hold b.mu. The writer and
// procLog are set together, so procLog is non-nil past the writer check.
func (b *Bridge) writeLocked(command string) error {
	if b.writer == nil {
		return errors.NewWriteError(errors.WriteNotRunning, command, nil)
	}

	_, err := b.writer.WriteString(command)
	if err == nil {
		err = b.writer.WriteByte('\n')
	}
	if err == nil {
		err = b.writer.Flush()
	}
	if err != nil {
		werr := classifyWriteError(command, err)
		b.procLog.Warn("command write failed", "command", command, "error", werr.Error())
		return werr
	}

	b.procLog.Debug("command sent", "command", command)
	return nil
}

func classifyWriteError(command string, err error) *errors.WriteError {
	switch {
	case errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, os.ErrClosed):
		return errors.NewWriteError(errors.WriteBrokenPipe, command, err)
	default:
		return errors.NewWriteError(errors.WriteIO, command, err)
	}
}
