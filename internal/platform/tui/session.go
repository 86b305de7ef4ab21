package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type screen int

const (
	screenMenu screen = iota
	screenRuns
	screenReplay
)

// SessionModel is the full browsing flow: level menu, then the runs of a
// level, then a replay. Back returns to the previous screen.
type SessionModel struct {
	store    RunStore
	interval time.Duration
	width    int
	height   int

	screen   screen
	menu     MenuModel
	runs     RunBoardModel
	replay   ReplayModel
	err      error
	quitting bool
}

// NewSessionModel creates a session that starts at the level menu.
func NewSessionModel(store RunStore, width, height int, interval time.Duration) SessionModel {
	return SessionModel{
		store:    store,
		interval: interval,
		width:    width,
		height:   height,
		menu:     NewMenuModel(store, width, height),
	}
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return m.menu.Init()
}

// Update routes messages to the active screen.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = wsm.Width
		m.height = wsm.Height
	}

	switch m.screen {
	case screenRuns:
		return m.updateRuns(msg)
	case screenReplay:
		return m.updateReplay(msg)
	default:
		return m.updateMenu(msg)
	}
}

func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.menu.Update(msg)
	if menu, ok := next.(MenuModel); ok {
		m.menu = menu
	}

	if m.menu.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	if item := m.menu.Selected(); item != nil {
		m.err = nil
		m.runs = NewRunBoardModel(m.store, item.LevelID, item.Name, m.width, m.height)
		m.screen = screenRuns
		return m, m.runs.Init()
	}
	return m, cmd
}

func (m SessionModel) updateRuns(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.runs.Update(msg)
	if runs, ok := next.(RunBoardModel); ok {
		m.runs = runs
	}

	switch {
	case m.runs.IsQuitting():
		m.quitting = true
		return m, tea.Quit

	case m.runs.IsGoingBack():
		m.menu = NewMenuModel(m.store, m.width, m.height)
		m.screen = screenMenu
		return m, m.menu.Init()

	case m.runs.Selected() != nil:
		sel := m.runs.Selected()
		run, res, err := m.store.GetRun(sel.ID)
		m.runs.selected = nil
		if err != nil {
			m.err = err
			return m, nil
		}
		title := fmt.Sprintf("%s  run %s", m.runs.levelName, run.ID[:min(8, len(run.ID))])
		m.replay = NewReplayModel(title, run.Script, res, m.interval)
		m.replay.width, m.replay.height = m.width, m.height
		m.screen = screenReplay
		return m, m.replay.Init()
	}
	return m, cmd
}

func (m SessionModel) updateReplay(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.replay.Update(msg)
	if replay, ok := next.(ReplayModel); ok {
		m.replay = replay
	}

	switch {
	case m.replay.IsQuitting():
		m.quitting = true
		return m, tea.Quit

	case m.replay.IsGoingBack():
		m.runs.goingBack = false
		m.screen = screenRuns
		return m, nil
	}
	return m, cmd
}

// View renders the active screen.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}
	switch m.screen {
	case screenRuns:
		v := m.runs.View()
		if m.err != nil {
			v += "\n" + lostStyle.Render(m.err.Error())
		}
		return v
	case screenReplay:
		return m.replay.View()
	default:
		return m.menu.View()
	}
}

// InReplay reports whether a replay is being shown.
func (m SessionModel) InReplay() bool {
	return m.screen == screenReplay
}

// RunSession runs the browsing flow in the local terminal.
func RunSession(store RunStore, width, height int, interval time.Duration) error {
	p := tea.NewProgram(
		NewSessionModel(store, width, height, interval),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}

