package cli

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexanderramin/earnclock/internal/app"
	"github.com/alexanderramin/earnclock/internal/cli/formatter"
	"github.com/alexanderramin/earnclock/internal/domain"
	"github.com/alexanderramin/earnclock/internal/reconcile"
	"github.com/alexanderramin/earnclock/internal/timer"
)

// summaryStore is the reconciler's read side.
type summaryStore interface {
	Summary(ctx context.Context, userID string) (*app.Summary, error)
}

type (
	liveMsg    timer.Live
	changedMsg struct{}
	summaryMsg struct {
		summary *app.Summary
		err     error
	}
	actionMsg struct {
		status string
		err    error
	}
)

type watchKeys struct {
	Pause key.Binding
	Stop  key.Binding
	Clear key.Binding
	Quit  key.Binding
}

func (k watchKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Stop, k.Clear, k.Quit}
}

func (k watchKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func newWatchKeys() watchKeys {
	return watchKeys{
		Pause: key.NewBinding(key.WithKeys("p", " "), key.WithHelp("p/space", "pause/resume")),
		Stop:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Clear: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

// watchModel renders one account's live timer over its confirmed totals.
// The timer ticks locally; totals are re-read whenever any client changes
// the account.
type watchModel struct {
	ctx     context.Context
	machine *timer.Machine
	store   summaryStore
	clock   domain.Clock
	userID  string
	titles  map[string]string

	keys watchKeys
	help help.Model

	summary *app.Summary
	live    timer.Live
	status  string
	err     error
}

func newWatchModel(ctx context.Context, machine *timer.Machine, store summaryStore, clock domain.Clock, userID string, tasks []*domain.Task) watchModel {
	titles := make(map[string]string, len(tasks))
	for _, t := range tasks {
		titles[t.ID] = t.Title
	}
	return watchModel{
		ctx:     ctx,
		machine: machine,
		store:   store,
		clock:   clock,
		userID:  userID,
		titles:  titles,
		keys:    newWatchKeys(),
		help:    help.New(),
		live:    machine.Tick(clock.Now()),
	}
}

func (m watchModel) Init() tea.Cmd {
	return m.fetchSummary()
}

func (m watchModel) fetchSummary() tea.Cmd {
	return func() tea.Msg {
		s, err := m.store.Summary(m.ctx, m.userID)
		return summaryMsg{summary: s, err: err}
	}
}

func (m watchModel) tick() tea.Cmd {
	return func() tea.Msg { return liveMsg(m.machine.Tick(m.clock.Now())) }
}

// act runs a timer transition off the update loop.
func (m watchModel) act(status string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionMsg{status: status, err: fn(m.ctx)}
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case liveMsg:
		m.live = timer.Live(msg)
		return m, nil

	case changedMsg:
		return m, m.fetchSummary()

	case summaryMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.summary = msg.summary
		if m.drifted() {
			return m, m.act("", m.machine.Restore)
		}
		return m, nil

	case actionMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
		}
		return m, m.tick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// drifted reports whether the server's active session differs from the one
// this timer tracks, e.g. after another client stopped or switched it.
func (m watchModel) drifted() bool {
	if m.summary == nil {
		return false
	}
	switch m.live.State {
	case domain.TimerRunning, domain.TimerPaused:
		return m.summary.ActiveSessionID != m.live.SessionID
	default:
		return m.summary.ActiveSessionID != ""
	}
}

func (m watchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Pause):
		switch m.live.State {
		case domain.TimerRunning:
			return m, m.act("Paused", m.machine.Pause)
		case domain.TimerPaused:
			return m, m.act("Resumed", m.machine.Resume)
		}

	case key.Matches(msg, m.keys.Stop):
		if m.live.State == domain.TimerRunning || m.live.State == domain.TimerPaused {
			return m, m.act("Stopped", func(ctx context.Context) error {
				_, err := m.machine.Stop(ctx)
				return err
			})
		}

	case key.Matches(msg, m.keys.Clear):
		if m.live.State == domain.TimerStopped {
			m.machine.Clear()
			m.status = ""
			return m, m.tick()
		}
	}
	return m, nil
}

func (m watchModel) View() string {
	if m.summary == nil {
		if m.err != nil {
			return formatter.StyleRed.Render("Error: "+m.err.Error()) + "\n"
		}
		return formatter.Dim("Loading…") + "\n"
	}

	var b strings.Builder
	display := reconcile.Merge(m.summary, m.live)
	b.WriteString(formatter.RenderBox("earnclock · "+m.userID, formatter.FormatLive(display, m.titles[m.live.TaskID])))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(formatter.StyleRed.Render("Error: "+m.err.Error()) + "\n")
	case m.status != "":
		b.WriteString(formatter.Dim(m.status) + "\n")
	}
	b.WriteString(m.help.View(m.keys) + "\n")
	return b.String()
}
