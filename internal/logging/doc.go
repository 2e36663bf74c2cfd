// Package logging provides structured logging for the engine bridge.
//
// This package wraps Go's log/slog to provide JSON-formatted logs that make
// an engine session reconstructable after the fact: which binary ran, which
// process generation produced a line, and which move request a timeout
// belonged to.
//
// # Features
//
//   - JSON-formatted structured logging via slog
//   - Configurable log levels (DEBUG, INFO, WARN, ERROR)
//   - Context propagation (engine path, generation, request ID)
//   - Log rotation with configurable size limits and optional gzip
//   - A line-splitting writer for capturing engine stderr
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Child loggers
// created via With* methods share the underlying writer.
//
// # Basic Usage
//
//	logger, err := logging.NewLoggerWithRotation(dir, "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	engineLog := logger.WithEngine("/usr/local/bin/pikafish").WithGeneration(1)
//	engineLog.Info("engine started", "pid", pid)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"engine started","engine":"/usr/local/bin/pikafish","generation":1,"pid":4242}
//
// Rotated files are named bridge.log.1, bridge.log.2, etc., where .1 is the
// most recent backup. With compression enabled they become bridge.log.1.gz.
//
// # Testing
//
// Use [NopLogger] to discard output, or [NewWriterLogger] with a buffer to
// assert on entries.
package logging
