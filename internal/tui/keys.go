package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Send     key.Binding
	Load     key.Binding
	Unload   key.Binding
	Restart  key.Binding
	Init     key.Binding
	IsReady  key.Binding
	Go       key.Binding
	Stop     key.Binding
	Quit     key.Binding
	ScrollUp key.Binding
	ScrollDn key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Send:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Load:     key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "load")),
		Unload:   key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "unload")),
		Restart:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "restart")),
		Init:     key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "init")),
		IsReady:  key.NewBinding(key.WithKeys("f2"), key.WithHelp("f2", "isready")),
		Go:       key.NewBinding(key.WithKeys("f3"), key.WithHelp("f3", "go")),
		Stop:     key.NewBinding(key.WithKeys("f4"), key.WithHelp("f4", "stop")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
		ScrollUp: key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDn: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
	}
}

// help returns the bindings shown in the help bar, in display order.
func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Send, k.Load, k.Unload, k.Restart, k.Init, k.IsReady, k.Go, k.Stop, k.Quit}
}
