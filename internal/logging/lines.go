package logging

import (
	"bytes"
	"strings"
	"sync"
)

// LineWriter is an io.WriteCloser that logs every complete line written to
// it as a separate WARN entry. It is used to capture an engine's stderr.
// A partial line is held until its newline arrives or Close is called.
type LineWriter struct {
	logger *Logger
	msg    string

	mu  sync.Mutex
	buf bytes.Buffer
}

// LineWriter returns a writer that logs each line under msg with the line
// text in the "line" attribute.
func (l *Logger) LineWriter(msg string) *LineWriter {
	return &LineWriter{logger: l, msg: msg}
}

// Write implements io.Writer. It never fails.
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		idx := bytes.IndexByte(w.buf.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := string(w.buf.Next(idx + 1))
		w.emit(line)
	}
	return len(p), nil
}

// Close flushes any unterminated trailing line.
func (w *LineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
	return nil
}

func (w *LineWriter) emit(line string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return
	}
	w.logger.Warn(w.msg, "line", line)
}
