package tui

import (
	"github.com/vovakirdan/gridbot/internal/core"
	"github.com/vovakirdan/gridbot/internal/state"
)

// cellWidth is the number of screen columns per grid cell.
const cellWidth = 2

var facingGlyphs = map[core.Orientation]rune{
	core.OrientationUp:    '▲',
	core.OrientationRight: '▶',
	core.OrientationDown:  '▼',
	core.OrientationLeft:  '◀',
}

// glyph is what a grid cell shows.
type glyph struct {
	r rune
	c core.Color
}

// BoardSize returns the screen size of a boxed board for s.
func BoardSize(s state.State) (w, h int) {
	return s.Width*cellWidth + 3, s.Height + 2
}

// DrawBoard draws s inside a box whose top-left corner is (x, y).
func DrawBoard(scr *core.Screen, s state.State, x, y int) {
	w, h := BoardSize(s)
	scr.DrawBox(core.NewRect(x, y, w, h), core.ColorGray)

	cells := layout(s)
	for gy := 0; gy < s.Height; gy++ {
		for gx := 0; gx < s.Width; gx++ {
			g, ok := cells[core.P(gx, gy)]
			if !ok {
				g = glyph{'·', core.ColorGray}
			}
			scr.Set(x+2+gx*cellWidth, y+1+gy, g.r, g.c)
		}
	}
}

// layout resolves which entity is visible in each cell. Later writes win,
// so entities are listed from the bottom layer up.
func layout(s state.State) map[core.Pos]glyph {
	cells := make(map[core.Pos]glyph)
	for _, o := range s.Obstacles {
		cells[o.Pos] = glyph{'█', core.ColorWhite}
	}
	for _, g := range s.Goals {
		cells[g.Pos] = glyph{'◎', core.ColorBrightGreen}
	}
	for _, e := range s.EnergyCells {
		if !e.Collected {
			cells[e.Pos] = glyph{'+', core.ColorBrightYellow}
		}
	}
	for _, d := range s.DataTerminals {
		c := core.ColorCyan
		if d.Reading {
			c = core.ColorBrightGreen
		}
		cells[d.Pos] = glyph{'T', c}
	}
	for _, b := range s.Buttons {
		c := core.ColorMagenta
		if b.Pressed {
			c = core.ColorGray
		}
		cells[b.Pos] = glyph{'o', c}
	}
	for _, g := range s.Gates {
		if g.Open {
			cells[g.Pos] = glyph{'/', core.ColorGray}
		} else {
			cells[g.Pos] = glyph{'#', core.ColorOrange}
		}
	}
	for _, h := range s.Hazards {
		if h.Active {
			cells[h.Pos] = glyph{'^', core.ColorBrightRed}
		} else {
			cells[h.Pos] = glyph{'^', core.ColorGray}
		}
	}
	for _, c := range s.Crates {
		if !c.Held {
			cells[c.Pos] = glyph{'▣', core.ColorYellow}
		}
	}
	for _, e := range s.Enemies {
		cells[e.Pos] = glyph{'E', core.ColorRed}
	}

	p := s.Player
	c := core.ColorBlue
	if p.Holding() {
		c = core.ColorYellow
	}
	cells[p.Pos] = glyph{facingGlyphs[p.Facing], c}
	return cells
}
