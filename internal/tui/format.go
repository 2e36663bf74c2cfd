package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/Iron-Ham/uccibridge/internal/bridge"
	"github.com/Iron-Ham/uccibridge/internal/errors"
	"github.com/Iron-Ham/uccibridge/internal/protocol"
	"github.com/Iron-Ham/uccibridge/internal/tui/styles"
)

// EchoPrefix marks locally echoed commands in the output view.
const EchoPrefix = "> "

// FormatEcho renders a sent command.
func FormatEcho(command string) string {
	return styles.EchoLine.Render(EchoPrefix + command)
}

// FormatEvent renders one bridge output event as a single line.
func FormatEvent(ev bridge.OutputEvent) string {
	switch ev.Kind {
	case bridge.EventStreamEnded:
		return styles.NoticeLine.Render(fmt.Sprintf("[engine output ended, generation %d]", ev.Generation))
	case bridge.EventError:
		return styles.ErrorLine.Render("[read error] " + ev.Text)
	}
	if ev.Info != nil {
		return styles.InfoLine.Render(ev.Text)
	}
	return ev.Text
}

// FormatResult renders a computed move.
func FormatResult(res protocol.MoveResult) string {
	line := "bestmove " + res.String()
	if res.Ponder != "" {
		line += " (ponder " + res.Ponder + ")"
	}
	return styles.ResultLine.Render(line)
}

// FormatError renders an error line. Invalid input and other
// warning-severity errors use the warning style; retryable errors end
// with a hint to try again.
func FormatError(err error) string {
	label, style := "error: ", styles.ErrorLine
	switch {
	case errors.Is(err, errors.ErrInvalidInput):
		label, style = "invalid input: ", styles.WarningLine
	case errors.GetSeverity(err) == errors.SeverityWarning:
		label, style = "warning: ", styles.WarningLine
	}

	line := label + err.Error()
	if errors.IsRetryable(err) {
		line += " (try again)"
	}
	return style.Render(line)
}

// FormatNotice renders a status notice.
func FormatNotice(text string) string {
	return styles.NoticeLine.Render(text)
}

// fitWidth cuts s to at most width terminal columns, keeping ANSI styling
// intact. A width of zero or less leaves s unchanged.
func fitWidth(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}
