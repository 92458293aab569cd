// Package teatest drives bubbletea models in tests without a tea.Program.
//
// Update is called directly and every returned Cmd is run to completion
// before the next message is sent, so a test observes the model after all
// follow-up work (summary fetches, timer transitions, ticks) has landed.
package teatest

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// MaxDepth bounds how many chained Cmds one Send may run.
const MaxDepth = 64

// DefaultCmdTimeout is how long a single Cmd may block before it is dropped.
const DefaultCmdTimeout = 2 * time.Second

// Driver is a synchronous harness around one model.
type Driver[M tea.Model] struct {
	t          testing.TB
	model      M
	cmdTimeout time.Duration

	// Quitting is set once a Cmd yields tea.QuitMsg.
	Quitting bool
}

// Option configures a Driver.
type Option[M tea.Model] func(*Driver[M])

// WithSize sends a WindowSizeMsg before anything else.
func WithSize[M tea.Model](w, h int) Option[M] {
	return func(d *Driver[M]) {
		d.apply(tea.WindowSizeMsg{Width: w, Height: h})
	}
}

// WithCmdTimeout overrides DefaultCmdTimeout.
func WithCmdTimeout[M tea.Model](timeout time.Duration) Option[M] {
	return func(d *Driver[M]) { d.cmdTimeout = timeout }
}

// New wraps model. Call Init to run the model's Init command.
func New[M tea.Model](t testing.TB, model M, opts ...Option[M]) *Driver[M] {
	t.Helper()
	d := &Driver[M]{t: t, model: model, cmdTimeout: DefaultCmdTimeout}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Model returns the current model value.
func (d *Driver[M]) Model() M { return d.model }

// View renders the current model.
func (d *Driver[M]) View() string { return d.model.View() }

// Init runs the model's Init command and everything it leads to.
func (d *Driver[M]) Init() {
	d.t.Helper()
	d.drain(d.model.Init(), 0)
}

// Send dispatches msg and drains the resulting commands.
func (d *Driver[M]) Send(msg tea.Msg) {
	d.t.Helper()
	if d.Quitting {
		return
	}
	d.drain(d.apply(msg), 0)
}

// Press sends a rune key.
func (d *Driver[M]) Press(r rune) {
	d.t.Helper()
	d.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

// PressCtrlC sends ctrl+c.
func (d *Driver[M]) PressCtrlC() {
	d.t.Helper()
	d.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
}

func (d *Driver[M]) apply(msg tea.Msg) tea.Cmd {
	updated, cmd := d.model.Update(msg)
	m, ok := updated.(M)
	if !ok {
		d.t.Fatalf("teatest: Update returned %T, want %T", updated, d.model)
	}
	d.model = m
	return cmd
}

func (d *Driver[M]) drain(cmd tea.Cmd, depth int) {
	d.t.Helper()
	if cmd == nil {
		return
	}
	if depth >= MaxDepth {
		d.t.Logf("teatest: command chain deeper than %d, stopping", MaxDepth)
		return
	}

	msg, ok := d.run(cmd)
	if !ok {
		d.t.Logf("teatest: command did not return within %s", d.cmdTimeout)
		return
	}
	switch msg := msg.(type) {
	case nil:
		return
	case tea.BatchMsg:
		for _, sub := range msg {
			d.drain(sub, depth+1)
		}
	case tea.QuitMsg:
		d.Quitting = true
	default:
		d.drain(d.apply(msg), depth+1)
	}
}

func (d *Driver[M]) run(cmd tea.Cmd) (tea.Msg, bool) {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(d.cmdTimeout):
		return nil, false
	}
}
