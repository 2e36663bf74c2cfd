package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/uccibridge/internal/bridge"
	"github.com/Iron-Ham/uccibridge/internal/errors"
	"github.com/Iron-Ham/uccibridge/internal/event"
)

// Run shows the console until the user quits or ctx ends, then stops the
// engine. Binary change notices arrive through bus when it is non-nil.
func Run(ctx context.Context, b *bridge.Bridge, bus *event.Bus, opts Options) error {
	sub := b.Subscribe()
	defer sub.Close()

	model := NewModel(ctx, b, sub.Events(), opts)
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	if bus != nil {
		id := bus.Subscribe(event.TypeEngineBinaryChanged, func(e event.Event) {
			if changed, ok := e.(event.EngineBinaryChangedEvent); ok {
				program.Send(BinaryChangedMsg{Path: changed.Path, Op: changed.Op})
			}
		})
		defer bus.Unsubscribe(id)
	}

	_, runErr := program.Run()
	if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		runErr = nil
	}
	return errors.Join(runErr, b.Stop())
}
