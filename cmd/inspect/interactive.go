package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/polyglot"
	"github.com/wippyai/polyglot/bridge"
	"github.com/wippyai/polyglot/iterator"
	wasmoracle "github.com/wippyai/polyglot/oracle/wasm"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	classStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// frame is one level of the browse stack.
type frame struct {
	value    polyglot.Value
	iter     *iterator.Iterator
	label    string
	desc     string
	class    string
	items    []child
	selected int
}

type modelState int

const (
	stateBrowse modelState = iota
	stateInputArgs
)

type browserModel struct {
	err     error
	bridge  *bridge.Bridge
	inst    *wasmoracle.Instance
	rt      wazero.Runtime
	pending child
	load    tea.Cmd
	status  string
	stack   []*frame
	input   textinput.Model
	width   int
	state   modelState
}

type loadedMsg struct {
	err  error
	rt   wazero.Runtime
	inst *wasmoracle.Instance
}

type callResultMsg struct {
	err    error
	label  string
	result polyglot.Value
}

func newBrowserModel(b *bridge.Bridge, load tea.Cmd, width int) *browserModel {
	return &browserModel{bridge: b, load: load, width: width, state: stateBrowse}
}

func loadModule(bin []byte, name string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		rt := wazero.NewRuntime(ctx)
		inst, err := wasmoracle.Load(ctx, rt, bin, name)
		if err != nil {
			rt.Close(ctx)
			return loadedMsg{err: err}
		}
		return loadedMsg{rt: rt, inst: inst}
	}
}

func (m *browserModel) current() *frame {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

// push describes v and makes it the current frame.
func (m *browserModel) push(label string, v polyglot.Value) {
	f := &frame{value: v, label: label}
	desc, err := m.bridge.Describe(v)
	if err != nil {
		desc = errorStyle.Render(err.Error())
	}
	f.desc = desc
	if c, err := m.bridge.ClassOf(v); err == nil {
		f.class = c.Name()
	}
	items, err := children(m.bridge, v)
	if err != nil {
		m.status = errorStyle.Render(err.Error())
	}
	f.items = items
	m.stack = append(m.stack, f)
}

func (m *browserModel) close() {
	ctx := context.Background()
	if m.inst != nil {
		m.inst.Close(ctx)
	}
	if m.rt != nil {
		m.rt.Close(ctx)
	}
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		if m.state == stateInputArgs {
			return m.updateArgs(msg)
		}
		f := m.current()
		switch msg.String() {
		case "ctrl+c", "q":
			m.close()
			return m, tea.Quit

		case "up", "k":
			if f != nil && f.selected > 0 {
				f.selected--
			}

		case "down", "j":
			if f != nil && f.selected < len(f.items)-1 {
				f.selected++
			}

		case "enter", "right", "l":
			if f == nil || len(f.items) == 0 {
				break
			}
			c := f.items[f.selected]
			m.status = ""
			o := m.bridge.Oracle()
			if o.IsExecutable(c.value) && !o.HasMembers(c.value) {
				m.prepareInput(c)
				break
			}
			m.push(c.label, c.value)

		case "c":
			if f == nil {
				break
			}
			o := m.bridge.Oracle()
			switch {
			case len(f.items) > 0 && o.IsExecutable(f.items[f.selected].value):
				m.prepareInput(f.items[f.selected])
			case o.IsExecutable(f.value):
				m.prepareInput(child{label: f.label, value: f.value})
			}

		case "n":
			m.step(f)

		case "esc", "backspace", "left", "h":
			if len(m.stack) > 1 {
				m.stack = m.stack[:len(m.stack)-1]
				m.status = ""
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.rt = msg.rt
		m.inst = msg.inst
		m.push(msg.inst.Module.Name(), msg.inst)

	case callResultMsg:
		m.state = stateBrowse
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Error: %v", msg.err))
			return m, nil
		}
		m.push(msg.label+"()", msg.result)
	}

	return m, nil
}

func (m *browserModel) updateArgs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.close()
		return m, tea.Quit
	case "esc":
		m.state = stateBrowse
		return m, nil
	case "enter":
		return m, m.call(m.input.Value())
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *browserModel) prepareInput(c child) {
	ti := textinput.New()
	ti.Placeholder = "comma-separated arguments"
	ti.Prompt = c.label + "("
	ti.Width = 40
	ti.Focus()
	m.input = ti
	m.state = stateInputArgs
	m.pending = c
}

func (m *browserModel) call(argStr string) tea.Cmd {
	fn := m.pending
	o := m.bridge.Oracle()
	return func() tea.Msg {
		result, err := o.Execute(fn.value, parseArgs(argStr)...)
		return callResultMsg{label: fn.label, result: result, err: err}
	}
}

// step pulls the next value from the current frame's iterator.
func (m *browserModel) step(f *frame) {
	if f == nil {
		return
	}
	if f.iter == nil {
		it, err := m.bridge.Iterator(f.value)
		if err != nil {
			m.status = errorStyle.Render(err.Error())
			return
		}
		f.iter = it
	}
	if !f.iter.HasNext() {
		if err := f.iter.Err(); err != nil {
			m.status = errorStyle.Render(err.Error())
		} else {
			m.status = helpStyle.Render("iteration finished")
		}
		return
	}
	v, err := f.iter.Next()
	if err != nil {
		m.status = errorStyle.Render(err.Error())
		return
	}
	s, err := m.bridge.Shallow(v)
	if err != nil {
		m.status = errorStyle.Render(err.Error())
		return
	}
	m.status = "next: " + resultStyle.Render(s)
}

func (m *browserModel) Init() tea.Cmd {
	return m.load
}

func (m *browserModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	f := m.current()
	if f == nil {
		return "Loading module..."
	}

	var b strings.Builder

	path := make([]string, len(m.stack))
	for i, fr := range m.stack {
		path[i] = fr.label
	}
	b.WriteString(titleStyle.Render("Foreign Inspector"))
	b.WriteString(" ")
	b.WriteString(strings.Join(path, " / "))
	b.WriteString("\n\n")

	wrap := lipgloss.NewStyle()
	if m.width > 0 {
		wrap = wrap.Width(m.width)
	}
	b.WriteString(classStyle.Render(f.class))
	b.WriteString("\n")
	b.WriteString(wrap.Render(f.desc))
	b.WriteString("\n\n")

	if m.state == stateInputArgs {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter call • esc back"))
		return b.String()
	}

	for i, c := range f.items {
		s, err := m.bridge.Shallow(c.value)
		if err != nil {
			s = errorStyle.Render(err.Error())
		}
		line := labelStyle.Render(c.label) + " = " + s
		if i == f.selected {
			b.WriteString(selectedStyle.Render("> " + c.label + " = " + s))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select • enter open/call • c call • n next • esc up • q quit"))
	return b.String()
}

func runInteractive(bin []byte, name string, logger *zap.Logger) error {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("interactive mode needs a terminal")
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		width = 0
	}

	b := bridge.New(wasmoracle.NewWithDefaults(), bridge.Options{Logger: logger})
	p := tea.NewProgram(newBrowserModel(b, loadModule(bin, name), width), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
