package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "bridge.safety_margin_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidDialects returns the list of supported protocol dialects
func ValidDialects() []string {
	return []string{"uci", "ucci"}
}

// ValidStderrModes returns the list of engine stderr policies
func ValidStderrModes() []string {
	return []string{"discard", "forward", "log"}
}

// ValidVariants returns the list of FEN validation variants
func ValidVariants() []string {
	return []string{"chess", "xiangqi", "none"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateEngine()...)
	errors = append(errors, c.validateBridge()...)
	errors = append(errors, c.validateMove()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateTUI()...)

	return errors
}

func oneOf(field, value string, valid []string) []ValidationError {
	if slices.Contains(valid, value) {
		return nil
	}
	return []ValidationError{{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(valid, ", ")),
	}}
}

func (c *Config) validateEngine() []ValidationError {
	var errors []ValidationError

	errors = append(errors, oneOf("engine.dialect", c.Engine.Dialect, ValidDialects())...)
	errors = append(errors, oneOf("engine.stderr", c.Engine.Stderr, ValidStderrModes())...)

	if c.Engine.HandshakeTimeoutMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "engine.handshake_timeout_ms",
			Value:   c.Engine.HandshakeTimeoutMs,
			Message: "must be positive",
		})
	}

	for i, p := range c.Engine.Patterns {
		if strings.TrimSpace(p) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("engine.patterns[%d]", i),
				Value:   p,
				Message: "must not be empty",
			})
			continue
		}
		if _, err := glob.Compile(p); err != nil {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("engine.patterns[%d]", i),
				Value:   p,
				Message: fmt.Sprintf("invalid glob pattern: %v", err),
			})
		}
	}

	for i, opt := range c.Engine.EngineOptions() {
		entry := c.Engine.Options[i]
		var msg string
		switch {
		case opt.Name == "":
			msg = "option name must not be empty"
		case strings.ContainsAny(entry, "\r\n"):
			msg = "must not contain line breaks"
		default:
			continue
		}
		errors = append(errors, ValidationError{
			Field:   fmt.Sprintf("engine.options[%d]", i),
			Value:   entry,
			Message: msg,
		})
	}

	return errors
}

func (c *Config) validateBridge() []ValidationError {
	var errors []ValidationError

	if strings.ContainsAny(c.Bridge.EchoMarker, "\r\n") {
		errors = append(errors, ValidationError{
			Field:   "bridge.echo_marker",
			Value:   c.Bridge.EchoMarker,
			Message: "must not contain line breaks",
		})
	}

	// Upper bound keeps a stalled subscriber from pinning unbounded memory
	const maxQueueSize = 65536
	if c.Bridge.SubscriberQueueSize < 1 || c.Bridge.SubscriberQueueSize > maxQueueSize {
		errors = append(errors, ValidationError{
			Field:   "bridge.subscriber_queue_size",
			Value:   c.Bridge.SubscriberQueueSize,
			Message: fmt.Sprintf("must be between 1 and %d", maxQueueSize),
		})
	}

	if c.Bridge.SafetyMarginMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "bridge.safety_margin_ms",
			Value:   c.Bridge.SafetyMarginMs,
			Message: "must be positive",
		})
	}

	if c.Bridge.QuitGraceMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "bridge.quit_grace_ms",
			Value:   c.Bridge.QuitGraceMs,
			Message: "must be non-negative",
		})
	}

	if c.Bridge.KillWaitMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "bridge.kill_wait_ms",
			Value:   c.Bridge.KillWaitMs,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateMove() []ValidationError {
	var errors []ValidationError

	if c.Move.DefaultMoveTimeMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "move.default_movetime_ms",
			Value:   c.Move.DefaultMoveTimeMs,
			Message: "must be positive",
		})
	}

	errors = append(errors, oneOf("move.variant", c.Move.Variant, ValidVariants())...)

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateTUI() []ValidationError {
	var errors []ValidationError

	if c.TUI.MaxOutputLines < 10 {
		errors = append(errors, ValidationError{
			Field:   "tui.max_output_lines",
			Value:   c.TUI.MaxOutputLines,
			Message: "must be at least 10",
		})
	}

	return errors
}
