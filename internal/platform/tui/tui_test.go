package tui_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/gridbot/internal/core"
	"github.com/vovakirdan/gridbot/internal/level"
	"github.com/vovakirdan/gridbot/internal/platform/tui"
	"github.com/vovakirdan/gridbot/internal/script"
	"github.com/vovakirdan/gridbot/internal/storage"
)

const yardYAML = `
id: yard
name: Yard
size: {w: 4, h: 2}
starts:
  - {x: 0, y: 0, facing: right, energy: 10}
goals:
  - {x: 3, y: 0}
obstacles:
  - {x: 1, y: 1}
`

const yardScript = "move_forward(1);\nturn_left();\nturn_right();\nmove_forward(2);"

func yardRun(t *testing.T) *script.Result {
	t.Helper()
	lvl, err := level.Parse([]byte(yardYAML))
	if err != nil {
		t.Fatalf("parse level: %v", err)
	}
	res, err := script.NewRunner().Run(context.Background(), lvl, 0, yardScript)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return res
}

func press(m tea.Model, keys ...tea.KeyMsg) tea.Model {
	for _, k := range keys {
		m, _ = m.Update(k)
	}
	return m
}

var (
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyLeft  = tea.KeyMsg{Type: tea.KeyLeft}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyEnd   = tea.KeyMsg{Type: tea.KeyEnd}
	keyQuit  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
)

func TestDrawBoard(t *testing.T) {
	res := yardRun(t)
	s := res.States[0]

	w, h := tui.BoardSize(s)
	scr := core.NewScreen(w, h)
	tui.DrawBoard(scr, s, 0, 0)

	cell := func(gx, gy int) core.Cell { return scr.GetCell(2+gx*2, 1+gy) }
	if got := cell(0, 0).Rune; got != '▶' {
		t.Errorf("player glyph = %q, want '▶'", got)
	}
	if got := cell(3, 0).Rune; got != '◎' {
		t.Errorf("goal glyph = %q, want '◎'", got)
	}
	if got := cell(1, 1).Rune; got != '█' {
		t.Errorf("obstacle glyph = %q, want '█'", got)
	}
	if got := cell(2, 1).Rune; got != '·' {
		t.Errorf("empty glyph = %q, want '·'", got)
	}
	if got := scr.GetCell(0, 0).Rune; got != '┌' {
		t.Errorf("corner = %q, want '┌'", got)
	}
}

func TestReplayStepping(t *testing.T) {
	res := yardRun(t)
	m := tea.Model(tui.NewReplayModel("yard", yardScript, res, time.Millisecond))

	m = press(m, keyRight)
	r := m.(tui.ReplayModel)
	if r.Playing() {
		t.Error("stepping should pause playback")
	}
	if r.Index() != 1 || r.CurrentLine() != 1 {
		t.Errorf("after one step: index %d line %d, want 1 and 1", r.Index(), r.CurrentLine())
	}

	m = press(m, keyRight, keyRight)
	r = m.(tui.ReplayModel)
	if r.CurrentLine() != 3 {
		t.Errorf("third state comes from line %d, want 3", r.CurrentLine())
	}

	m = press(m, keyEnd)
	r = m.(tui.ReplayModel)
	if r.Index() != len(res.States)-1 || r.CurrentLine() != 4 {
		t.Errorf("end: index %d line %d", r.Index(), r.CurrentLine())
	}

	m = press(m, keyRight)
	if got := m.(tui.ReplayModel).Index(); got != len(res.States)-1 {
		t.Errorf("stepping past the end moved to %d", got)
	}

	m = press(m, keyLeft, keyLeft, keyLeft, keyLeft, keyLeft, keyLeft, keyLeft)
	r = m.(tui.ReplayModel)
	if r.Index() != 0 || r.CurrentLine() != 0 {
		t.Errorf("start: index %d line %d", r.Index(), r.CurrentLine())
	}
}

func TestReplayPlayback(t *testing.T) {
	res := yardRun(t)
	m := tea.Model(tui.NewReplayModel("yard", yardScript, res, time.Millisecond))
	if !m.(tui.ReplayModel).Playing() {
		t.Fatal("replay should start playing")
	}

	for range len(res.States) + 2 {
		m, _ = m.Update(tui.TickMsg(time.Now()))
	}
	r := m.(tui.ReplayModel)
	if r.Playing() || r.Index() != len(res.States)-1 {
		t.Errorf("after playback: playing %v index %d", r.Playing(), r.Index())
	}

	// Playing again from the end restarts.
	m = press(m, keySpace)
	r = m.(tui.ReplayModel)
	if !r.Playing() || r.Index() != 0 {
		t.Errorf("restart: playing %v index %d", r.Playing(), r.Index())
	}

	m = press(m, keySpace)
	m, _ = m.Update(tui.TickMsg(time.Now()))
	if got := m.(tui.ReplayModel).Index(); got != 0 {
		t.Errorf("paused replay advanced to %d", got)
	}
}

func TestReplayView(t *testing.T) {
	res := yardRun(t)
	m := tui.NewReplayModel("yard run", yardScript, res, time.Millisecond)
	if v := m.View(); v == "" {
		t.Error("empty view")
	}
	m2 := press(m, keyQuit).(tui.ReplayModel)
	if !m2.IsQuitting() || m2.View() != "" {
		t.Error("quit should clear the view")
	}
}

type fakeStore struct {
	run      storage.Run
	res      *script.Result
	statsErr error
}

func (f *fakeStore) AllLevelStats() (map[string]*storage.LevelStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return map[string]*storage.LevelStats{f.run.LevelID: {LevelID: f.run.LevelID, Runs: 1, Wins: 1}}, nil
}

func (f *fakeStore) BestRuns(levelID string, limit int) ([]storage.Run, error) {
	if levelID != f.run.LevelID {
		return nil, nil
	}
	return []storage.Run{f.run}, nil
}

func (f *fakeStore) RecentRuns(levelID string, limit int) ([]storage.Run, error) {
	return f.BestRuns(levelID, limit)
}

func (f *fakeStore) GetRun(id string) (storage.Run, *script.Result, error) {
	if id != f.run.ID {
		return storage.Run{}, nil, storage.ErrNotFound
	}
	return f.run, f.res, nil
}

func newFakeStore(t *testing.T) *fakeStore {
	res := yardRun(t)
	return &fakeStore{
		run: storage.Run{ID: "0123456789", LevelID: "crates", Script: yardScript, Outcome: res.Outcome, Stats: res.Stats},
		res: res,
	}
}

func TestMenuListsLevels(t *testing.T) {
	m := press(tui.NewMenuModel(newFakeStore(t), 100, 40), keyEnter).(tui.MenuModel)

	// Levels are sorted by ID, so the built-in "crates" comes first.
	sel := m.Selected()
	if sel == nil {
		t.Fatal("enter did not select a level")
	}
	if sel.LevelID != "crates" || sel.Stats == nil || sel.Stats.Runs != 1 {
		t.Errorf("selected = %+v", sel)
	}
}

func TestMenuStatsError(t *testing.T) {
	store := newFakeStore(t)
	store.statsErr = errors.New("database is locked")
	m := tui.NewMenuModel(store, 100, 40)

	if !errors.Is(m.StatsErr(), store.statsErr) {
		t.Errorf("StatsErr() = %v, want %v", m.StatsErr(), store.statsErr)
	}
	if v := m.View(); !strings.Contains(v, "database is locked") {
		t.Errorf("view does not mention the stats error:\n%s", v)
	}

	// The levels are still listed, just without stats.
	sel := press(m, keyEnter).(tui.MenuModel).Selected()
	if sel == nil || sel.Stats != nil {
		t.Errorf("selected = %+v, want a level without stats", sel)
	}
}

func TestSessionFlow(t *testing.T) {
	m := tea.Model(tui.NewSessionModel(newFakeStore(t), 100, 40, time.Millisecond))

	m = press(m, keyEnter)
	if m.(tui.SessionModel).InReplay() {
		t.Fatal("selecting a level should show its runs, not a replay")
	}

	m = press(m, keyEnter)
	if !m.(tui.SessionModel).InReplay() {
		t.Fatal("selecting a run should start its replay")
	}

	m = press(m, keyEsc)
	if m.(tui.SessionModel).InReplay() {
		t.Fatal("back should leave the replay")
	}

	m = press(m, keyEnter)
	if !m.(tui.SessionModel).InReplay() {
		t.Fatal("the same run should be selectable again")
	}

	m = press(m, keyEsc, keyEsc, keyEnter)
	if m.(tui.SessionModel).InReplay() {
		t.Fatal("back twice should reach the menu, enter should open runs")
	}

	m, cmd := m.Update(keyQuit)
	if cmd == nil || m.View() != "" {
		t.Error("q should quit the session")
	}
}
