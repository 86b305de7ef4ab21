package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/gridbot/internal/registry"
	"github.com/vovakirdan/gridbot/internal/script"
	"github.com/vovakirdan/gridbot/internal/storage"
)

// RunStore is the part of the run database the TUI reads.
type RunStore interface {
	AllLevelStats() (map[string]*storage.LevelStats, error)
	BestRuns(levelID string, limit int) ([]storage.Run, error)
	RecentRuns(levelID string, limit int) ([]storage.Run, error)
	GetRun(id string) (storage.Run, *script.Result, error)
}

// MenuItem represents a selectable level in the menu.
type MenuItem struct {
	LevelID string
	Name    string
	Stats   *storage.LevelStats // nil when the level has no runs
}

// MenuModel is the Bubble Tea model for the level picker.
type MenuModel struct {
	items     []MenuItem
	cursor    int
	width     int
	height    int
	keyMapper *KeyMapper
	quitting  bool
	selected  *MenuItem
	statsErr  error
}

// NewMenuModel lists the registered levels. store may be nil.
func NewMenuModel(store RunStore, width, height int) MenuModel {
	var (
		stats    map[string]*storage.LevelStats
		statsErr error
	)
	if store != nil {
		if stats, statsErr = store.AllLevelStats(); statsErr != nil {
			log.Warn("could not load level stats", "error", statsErr)
		}
	}

	levels := registry.List()
	items := make([]MenuItem, 0, len(levels))
	for _, l := range levels {
		items = append(items, MenuItem{
			LevelID: l.ID,
			Name:    l.Name,
			Stats:   stats[l.ID],
		})
	}

	return MenuModel{
		items:     items,
		width:     width,
		height:    height,
		keyMapper: NewKeyMapper(),
		statsErr:  statsErr,
	}
}

// Init initializes the menu model.
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

// handleKey processes keyboard input for menu navigation.
func (m MenuModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.keyMapper.MapKeyToMenuAction(msg) {
	case MenuActionQuit, MenuActionBack:
		m.quitting = true
		return m, tea.Quit

	case MenuActionUp:
		if m.cursor > 0 {
			m.cursor--
		}

	case MenuActionDown:
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case MenuActionSelect:
		if len(m.items) > 0 {
			selected := m.items[m.cursor]
			m.selected = &selected
		}
	}
	return m, nil
}

// View renders the menu.
func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Render("  G R I D B O T  ")
	b.WriteString("\n")
	b.WriteString(centerText(title, m.width))
	b.WriteString("\n\n")
	b.WriteString(centerText("Select a level to browse its runs", m.width))
	b.WriteString("\n\n")

	for i, item := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%-22s %s", cursor, item.Name, statsLabel(item.Stats))
		b.WriteString(centerText(line, m.width))
		b.WriteString("\n")
	}

	if m.statsErr != nil {
		b.WriteString("\n")
		b.WriteString(centerText(lostStyle.Render("run stats unavailable: "+m.statsErr.Error()), m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(centerText("Up/Down: Navigate  |  Enter: Select  |  Q: Quit", m.width)))
	b.WriteString("\n")
	return b.String()
}

func statsLabel(s *storage.LevelStats) string {
	if s == nil {
		return "no runs"
	}
	if s.Wins == 0 {
		return fmt.Sprintf("%d runs, unsolved", s.Runs)
	}
	return fmt.Sprintf("%d runs, best %d chars", s.Runs, s.BestCodeLen)
}

// Selected returns the selected menu item, or nil if none selected.
func (m MenuModel) Selected() *MenuItem {
	return m.selected
}

// StatsErr returns the error hit while loading level stats, if any.
func (m MenuModel) StatsErr() error {
	return m.statsErr
}

// IsQuitting returns true if user requested to quit.
func (m MenuModel) IsQuitting() bool {
	return m.quitting
}
