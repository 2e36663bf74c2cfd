// Package tui is an interactive console for a single engine: an output
// view fed by bridge subscriptions, a command line, and a status bar.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/uccibridge/internal/bridge"
	"github.com/Iron-Ham/uccibridge/internal/errors"
	"github.com/Iron-Ham/uccibridge/internal/protocol"
	"github.com/Iron-Ham/uccibridge/internal/tui/styles"
)

// Engine is the part of a bridge the console drives.
type Engine interface {
	Start(ctx context.Context, path string) error
	Stop() error
	Send(command string) error
	Handshake(ctx context.Context, timeout time.Duration) error
	RequestMove(ctx context.Context, fen string, timeLimit time.Duration) (protocol.MoveResult, error)
	Running() bool
	PID() int
	Generation() uint64
	Dialect() protocol.Dialect
}

// Options configures the console.
type Options struct {
	EnginePath       string
	AutoStart        bool
	Handshake        bool
	HandshakeTimeout time.Duration
	DefaultMoveTime  time.Duration
	MaxOutputLines   int

	// Setup is sent after every start, once the handshake succeeds.
	Setup []string
}

const (
	defaultMaxOutputLines   = 1000
	defaultMoveTime         = time.Second
	defaultHandshakeTimeout = 5 * time.Second

	// moveCommand requests a move for the FEN that follows it.
	moveCommand = ":move"

	// chromeHeight is the number of rows not available to the output view.
	chromeHeight = 6
)

func (o *Options) normalize() {
	if o.MaxOutputLines <= 0 {
		o.MaxOutputLines = defaultMaxOutputLines
	}
	if o.DefaultMoveTime <= 0 {
		o.DefaultMoveTime = defaultMoveTime
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = defaultHandshakeTimeout
	}
}

var (
	errNoEngine  = errors.New("no engine configured")
	errMoveUsage = errors.New("usage: " + moveCommand + " <fen>")
)

type outputMsg struct{ ev bridge.OutputEvent }

type outputClosedMsg struct{}

type startedMsg struct {
	restart bool
	err     error
}

type stoppedMsg struct{ err error }

type sentMsg struct {
	command string
	err     error
}

type moveMsg struct {
	result protocol.MoveResult
	err    error
}

// BinaryChangedMsg reports that the engine executable changed on disk.
type BinaryChangedMsg struct {
	Path string
	Op   string
}

// Model is the bubbletea model of the console.
type Model struct {
	ctx    context.Context
	engine Engine
	events <-chan bridge.OutputEvent
	opts   Options
	keys   keyMap

	input  textinput.Model
	output viewport.Model
	lines  []string

	width, height int
	thinking      bool
	binaryChanged string
	quitting      bool
}

// NewModel creates a console for engine. events is usually the channel of
// a bridge Subscription; nil disables output streaming.
func NewModel(ctx context.Context, engine Engine, events <-chan bridge.OutputEvent, opts Options) Model {
	opts.normalize()

	ti := textinput.New()
	ti.Placeholder = "engine command, or :move <fen>"
	ti.Prompt = "cmd> "
	ti.CharLimit = 4096
	ti.Width = 76
	ti.Focus()

	return Model{
		ctx:    ctx,
		engine: engine,
		events: events,
		opts:   opts,
		keys:   defaultKeyMap(),
		input:  ti,
		output: viewport.New(78, 20),
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.waitForOutput()}
	if m.opts.AutoStart && m.opts.EnginePath != "" {
		cmds = append(cmds, m.startCmd(false))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd

	case outputMsg:
		m.appendLine(FormatEvent(msg.ev))
		return m, m.waitForOutput()

	case outputClosedMsg:
		m.events = nil
		return m, nil

	case startedMsg:
		if msg.err != nil {
			m.appendLine(FormatError(msg.err))
			return m, nil
		}
		if msg.restart {
			m.binaryChanged = ""
		}
		m.appendLine(FormatNotice(fmt.Sprintf("[engine started: %s, pid %d, generation %d]",
			m.opts.EnginePath, m.engine.PID(), m.engine.Generation())))
		return m, nil

	case stoppedMsg:
		m.thinking = false
		if msg.err != nil {
			m.appendLine(FormatError(msg.err))
			return m, nil
		}
		m.appendLine(FormatNotice("[engine stopped]"))
		return m, nil

	case sentMsg:
		if msg.err != nil {
			m.appendLine(FormatError(msg.err))
		}
		return m, nil

	case moveMsg:
		m.thinking = false
		if msg.err != nil {
			m.appendLine(FormatError(msg.err))
			return m, nil
		}
		m.appendLine(FormatResult(msg.result))
		return m, nil

	case BinaryChangedMsg:
		m.binaryChanged = msg.Path
		m.appendLine(FormatNotice(fmt.Sprintf("[engine binary changed on disk (%s); ctrl+r restarts]", msg.Op)))
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Send):
		return m.submit()

	case key.Matches(msg, m.keys.Load):
		if m.opts.EnginePath == "" {
			m.appendLine(FormatError(errNoEngine))
			return m, nil
		}
		return m, m.startCmd(false)

	case key.Matches(msg, m.keys.Unload):
		return m, m.stopCmd()

	case key.Matches(msg, m.keys.Restart):
		if m.opts.EnginePath == "" {
			m.appendLine(FormatError(errNoEngine))
			return m, nil
		}
		return m, m.startCmd(true)

	case key.Matches(msg, m.keys.Init):
		return m.send(m.engine.Dialect().InitCommand())

	case key.Matches(msg, m.keys.IsReady):
		return m.send(protocol.IsReady)

	case key.Matches(msg, m.keys.Go):
		return m.send(protocol.GoMoveTime(m.opts.DefaultMoveTime))

	case key.Matches(msg, m.keys.Stop):
		return m.send(protocol.Stop)

	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDn):
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit handles the command line on enter.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if text == "" {
		return m, nil
	}

	if text == moveCommand || strings.HasPrefix(text, moveCommand+" ") {
		fen := strings.TrimSpace(strings.TrimPrefix(text, moveCommand))
		if fen == "" {
			m.appendLine(FormatError(errMoveUsage))
			return m, nil
		}
		m.thinking = true
		m.appendLine(FormatEcho(protocol.PositionFEN(fen)))
		m.appendLine(FormatEcho(protocol.GoMoveTime(m.opts.DefaultMoveTime)))
		return m, m.moveCmd(fen)
	}

	return m.send(text)
}

func (m Model) send(command string) (tea.Model, tea.Cmd) {
	m.appendLine(FormatEcho(command))
	return m, m.sendCmd(command)
}

func (m Model) waitForOutput() tea.Cmd {
	events := m.events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return outputClosedMsg{}
		}
		return outputMsg{ev: ev}
	}
}

func (m Model) startCmd(restart bool) tea.Cmd {
	ctx, engine, opts := m.ctx, m.engine, m.opts
	return func() tea.Msg {
		if restart {
			if err := engine.Stop(); err != nil {
				return startedMsg{restart: true, err: err}
			}
		}
		if err := engine.Start(ctx, opts.EnginePath); err != nil {
			return startedMsg{restart: restart, err: err}
		}
		if opts.Handshake {
			if err := engine.Handshake(ctx, opts.HandshakeTimeout); err != nil {
				return startedMsg{restart: restart, err: err}
			}
		}
		for _, command := range opts.Setup {
			if err := engine.Send(command); err != nil {
				return startedMsg{restart: restart, err: err}
			}
		}
		return startedMsg{restart: restart}
	}
}

func (m Model) stopCmd() tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		return stoppedMsg{err: engine.Stop()}
	}
}

func (m Model) sendCmd(command string) tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		return sentMsg{command: command, err: engine.Send(command)}
	}
}

func (m Model) moveCmd(fen string) tea.Cmd {
	ctx, engine, limit := m.ctx, m.engine, m.opts.DefaultMoveTime
	return func() tea.Msg {
		res, err := engine.RequestMove(ctx, fen, limit)
		return moveMsg{result: res, err: err}
	}
}

// appendLine adds a rendered line, trimming the oldest past the limit.
// The view follows new output unless the user has scrolled up.
func (m *Model) appendLine(line string) {
	follow := m.output.AtBottom()

	m.lines = append(m.lines, line)
	if over := len(m.lines) - m.opts.MaxOutputLines; over > 0 {
		m.lines = append([]string(nil), m.lines[over:]...)
	}

	m.output.SetContent(strings.Join(m.lines, "\n"))
	if follow {
		m.output.GotoBottom()
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.output.Width = max(width-2, 10)
	m.output.Height = max(height-chromeHeight, 3)
	m.input.Width = max(width-len(m.input.Prompt)-2, 10)
}

// state names the engine state shown in the status badge.
func (m Model) state() string {
	switch {
	case m.thinking:
		return "thinking"
	case m.engine.Running():
		return "running"
	case m.engine.PID() != 0:
		return "ended"
	default:
		return "stopped"
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	title := styles.Title.Render("uccibridge") + "  "
	b.WriteString(title)
	b.WriteString(m.statusLine(m.width - lipgloss.Width(title)))
	b.WriteString("\n")
	if m.binaryChanged != "" {
		b.WriteString(styles.Banner.Render("engine binary changed: " + m.binaryChanged))
		b.WriteString("\n")
	}
	b.WriteString(styles.OutputArea.Render(m.output.View()))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.helpLine())
	return b.String()
}

// statusLine renders the badge and engine details within width columns.
func (m Model) statusLine(width int) string {
	path := m.opts.EnginePath
	if path == "" {
		path = "(no engine)"
	}
	badge := styles.Badge(m.state())
	info := styles.StatusBar.Render(fmt.Sprintf("%s  gen %d  pid %d", path, m.engine.Generation(), m.engine.PID()))
	return badge + fitWidth(info, width-lipgloss.Width(badge))
}

func (m Model) helpLine() string {
	parts := make([]string, 0, len(m.keys.help()))
	for _, binding := range m.keys.help() {
		h := binding.Help()
		parts = append(parts, styles.HelpKey.Render(h.Key)+" "+h.Desc)
	}
	return styles.HelpBar.Render(strings.Join(parts, "  "))
}

// Lines returns the rendered output lines currently held.
func (m Model) Lines() []string {
	return append([]string(nil), m.lines...)
}
