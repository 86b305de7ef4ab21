package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/gridbot/internal/core"
	"github.com/vovakirdan/gridbot/internal/script"
	"github.com/vovakirdan/gridbot/internal/sim"
)

var (
	replayTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	lineNumberStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	currentLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	infoLabelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	wonStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	lostStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// ReplayModel steps through the recorded states of a run and highlights
// the source line that produced each one.
type ReplayModel struct {
	title    string
	lines    []string
	res      *script.Result
	idx      int
	playing  bool
	ticking  bool // a TickMsg is in flight
	interval time.Duration
	screen   *core.Screen
	keys     ReplayKeyMap
	help     help.Model
	width    int
	height   int

	standalone bool // back quits the program
	quitting   bool
	goingBack  bool
}

// NewReplayModel creates a replay of res. The replay starts playing at one
// state per interval.
func NewReplayModel(title, src string, res *script.Result, interval time.Duration) ReplayModel {
	if interval <= 0 {
		interval = time.Second / 4
	}
	w, h := BoardSize(res.States[0])
	return ReplayModel{
		title:    title,
		lines:    strings.Split(src, "\n"),
		res:      res,
		playing:  len(res.States) > 1,
		interval: interval,
		screen:   core.NewScreen(w, h),
		keys:     DefaultReplayKeyMap(),
		help:     help.New(),
	}
}

// Init starts playback.
func (m ReplayModel) Init() tea.Cmd {
	if m.playing {
		return tickCmd(m.interval)
	}
	return nil
}

// Update handles messages for the replay.
func (m ReplayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		m.ticking = false
		if !m.playing {
			return m, nil
		}
		m.idx++
		if m.idx >= m.last() {
			m.idx = m.last()
			m.playing = false
			return m, nil
		}
		return m.scheduleTick()
	}
	return m, nil
}

// handleKey processes keyboard input.
func (m ReplayModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back):
		m.goingBack = true
		if m.standalone {
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, m.keys.Play):
		if m.playing {
			m.playing = false
			return m, nil
		}
		if m.idx >= m.last() {
			m.idx = 0
		}
		m.playing = true
		return m.scheduleTick()

	case key.Matches(msg, m.keys.Next):
		m.playing = false
		m.idx = core.Clamp(m.idx+1, 0, m.last())

	case key.Matches(msg, m.keys.Prev):
		m.playing = false
		m.idx = core.Clamp(m.idx-1, 0, m.last())

	case key.Matches(msg, m.keys.First):
		m.playing = false
		m.idx = 0

	case key.Matches(msg, m.keys.Last):
		m.playing = false
		m.idx = m.last()
	}
	return m, nil
}

// scheduleTick starts a tick unless one is already pending.
func (m ReplayModel) scheduleTick() (tea.Model, tea.Cmd) {
	if m.ticking {
		return m, nil
	}
	m.ticking = true
	return m, tickCmd(m.interval)
}

func (m ReplayModel) last() int {
	return len(m.res.States) - 1
}

// Index returns the state being shown.
func (m ReplayModel) Index() int {
	return m.idx
}

// Playing reports whether the replay is advancing on its own.
func (m ReplayModel) Playing() bool {
	return m.playing
}

// CurrentLine returns the 1-based source line behind the shown state, or
// 0 for the initial state.
func (m ReplayModel) CurrentLine() int {
	if p := m.res.Positions[m.idx]; p != nil {
		return p.Line
	}
	return 0
}

// IsQuitting returns true if user requested to quit entirely.
func (m ReplayModel) IsQuitting() bool {
	return m.quitting
}

// IsGoingBack returns true if user wants to leave the replay.
func (m ReplayModel) IsGoingBack() bool {
	return m.goingBack
}

// View renders the replay.
func (m ReplayModel) View() string {
	if m.quitting {
		return ""
	}

	cur := m.res.States[m.idx]
	m.screen.Clear()
	DrawBoard(m.screen, cur, 0, 0)
	board := RenderScreen(m.screen)

	var info strings.Builder
	info.WriteString(replayTitleStyle.Render(m.title))
	info.WriteString("\n\n")
	fmt.Fprintf(&info, "%s %d/%d\n", infoLabelStyle.Render("tick  "), m.idx, m.last())
	fmt.Fprintf(&info, "%s %d (used %d)\n", infoLabelStyle.Render("energy"), cur.Player.Energy, cur.Player.EnergyUsed)
	fmt.Fprintf(&info, "%s %s\n", infoLabelStyle.Render("facing"), cur.Player.Facing)
	if cur.Player.Message != "" {
		fmt.Fprintf(&info, "%s %q\n", infoLabelStyle.Render("says  "), cur.Player.Message)
	}
	if m.idx == m.last() {
		info.WriteString("\n")
		info.WriteString(m.outcomeLine())
		info.WriteString("\n")
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top, board, "   ", info.String())

	var b strings.Builder
	b.WriteString(top)
	b.WriteString("\n\n")
	b.WriteString(m.renderSource())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m ReplayModel) outcomeLine() string {
	st := m.res.Stats
	summary := fmt.Sprintf("%s  code %d  ticks %d  energy %d", m.res.Outcome, st.CodeLen, st.TicksTaken, st.EnergyUsed)
	switch m.res.Outcome.Kind {
	case sim.Success:
		return wonStyle.Render(summary)
	case sim.Failure:
		return lostStyle.Render(summary)
	default:
		return summary
	}
}

// renderSource lists the script with the current line highlighted. Long
// scripts are windowed around that line.
func (m ReplayModel) renderSource() string {
	current := m.CurrentLine()
	height := len(m.lines)
	if m.height > 0 {
		avail := m.height - m.screen.Height() - 4
		if avail > 3 && avail < height {
			height = avail
		}
	}
	start := 0
	if current > 0 {
		start = core.Clamp(current-1-height/2, 0, len(m.lines)-height)
	}

	var b strings.Builder
	for i := start; i < start+height && i < len(m.lines); i++ {
		num := lineNumberStyle.Render(fmt.Sprintf("%3d ", i+1))
		text := m.lines[i]
		if i+1 == current {
			text = currentLineStyle.Render(text)
		}
		b.WriteString(num)
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String()
}

// RunReplay shows a replay full screen until the user quits or backs out.
func RunReplay(title, src string, res *script.Result, interval time.Duration) error {
	model := NewReplayModel(title, src, res, interval)
	model.standalone = true

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
