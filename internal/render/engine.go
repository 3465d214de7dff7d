package render

import (
	"fmt"
	"strings"

	"gridrealm/internal/game"
)

const HUDRows = 3

// Cell represents a single terminal cell with full RGB color.
type Cell struct {
	Ch            rune
	FgR, FgG, FgB uint8
	BgR, BgG, BgB uint8
	Bold          bool
}

var sentinel = Cell{Ch: '\x00', FgR: 255, BgB: 255, Bold: true}

var (
	voidCell = Cell{Ch: ' ', BgR: 10, BgG: 10, BgB: 15}
	hudBg    = [3]uint8{15, 18, 30}
)

// Compose lays out a frame on a width x height screen: the map viewport
// centered on the player, units over terrain, and the HUD at the bottom.
// Each map cell spans TileWidth columns; the glyph takes the first.
func Compose(f *game.Frame, width, height int) [][]Cell {
	buf := make([][]Cell, height)
	for y := range buf {
		buf[y] = make([]Cell, width)
		for x := range buf[y] {
			buf[y][x] = voidCell
		}
	}

	vp := NewViewport(f.Player.X, f.Player.Y, width, height, f.Cols, f.Rows, HUDRows)

	put := func(wx, wy int, ch rune, fg int, bold bool) {
		col, row, ok := vp.WorldToScreen(wx, wy)
		if !ok || col >= width {
			return
		}
		r, g, b := AnsiToRGB(fg)
		c := Cell{Ch: ch, FgR: r, FgG: g, FgB: b, BgR: 20, BgG: 20, BgB: 26, Bold: bold}
		buf[row][col] = c
		if col+1 < width {
			c.Ch = ' '
			buf[row][col+1] = c
		}
	}

	for ty := 0; ty < vp.ViewH && vp.CamY+ty < f.Rows; ty++ {
		for tx := 0; tx < vp.ViewW && vp.CamX+tx < f.Cols; tx++ {
			wx, wy := vp.CamX+tx, vp.CamY+ty
			t := f.At(wx, wy)
			put(wx, wy, t.Glyph, t.Fg, false)
		}
	}
	// Units arrive lowest layer first, so later ones draw on top.
	for _, u := range f.Units {
		put(u.X, u.Y, u.Glyph, u.Fg, u.Controlled)
	}

	drawHUD(buf, f)
	return buf
}

func drawHUD(buf [][]Cell, f *game.Frame) {
	height := len(buf)
	hudY := height - HUDRows
	if hudY < 0 {
		return
	}
	width := len(buf[0])
	bgR, bgG, bgB := hudBg[0], hudBg[1], hudBg[2]

	for x := 0; x < width; x++ {
		buf[hudY][x] = Cell{Ch: '━', FgR: 60, FgG: 90, FgB: 110, BgR: bgR, BgG: bgG, BgB: bgB}
	}

	info := fmt.Sprintf("%s  │  %s  │  (%d,%d)", f.PlayerName, f.Title, f.Player.X, f.Player.Y)
	writeLine(buf, hudY+1, info, 180, 180, 195, true)

	msg := f.Message
	if msg == "" {
		msg = "←↑↓→/WASD Move  │  Space Act  │  Q Quit"
		writeLine(buf, hudY+2, msg, 130, 130, 145, false)
		return
	}
	writeLine(buf, hudY+2, msg, 240, 220, 120, true)
}

// writeLine fills a screen row with text on the HUD background.
func writeLine(buf [][]Cell, row int, text string, fgR, fgG, fgB uint8, bold bool) {
	if row < 0 || row >= len(buf) {
		return
	}
	bgR, bgG, bgB := hudBg[0], hudBg[1], hudBg[2]
	runes := []rune(text)
	for x := range buf[row] {
		c := Cell{Ch: ' ', BgR: bgR, BgG: bgG, BgB: bgB}
		if x >= 1 && x-1 < len(runes) {
			c = Cell{Ch: runes[x-1], FgR: fgR, FgG: fgG, FgB: fgB, BgR: bgR, BgG: bgG, BgB: bgB, Bold: bold}
		}
		buf[row][x] = c
	}
}

// Engine is a per-session double-buffer diff renderer.
type Engine struct {
	width, height int
	current       [][]Cell
	firstFrame    bool
}

// NewEngine creates a renderer for the given terminal dimensions.
func NewEngine(width, height int) *Engine {
	e := &Engine{}
	e.Resize(width, height)
	return e
}

// Resize adjusts the renderer for a new terminal size. The next frame is
// drawn in full.
func (e *Engine) Resize(width, height int) {
	e.width = width
	e.height = height
	e.current = make([][]Cell, height)
	for y := range e.current {
		e.current[y] = make([]Cell, width)
		for x := range e.current[y] {
			e.current[y][x] = sentinel
		}
	}
	e.firstFrame = true
}

// Render produces the ANSI output for a frame, emitting only the cells
// that changed since the previous call.
func (e *Engine) Render(f *game.Frame, termW, termH int) string {
	if termW != e.width || termH != e.height {
		e.Resize(termW, termH)
	}
	next := Compose(f, e.width, e.height)

	var sb strings.Builder
	sb.Grow(16384)

	lastRow, lastCol := -1, -1
	for y := 0; y < e.height; y++ {
		for x := 0; x < e.width; x++ {
			nc := next[y][x]
			if e.firstFrame || nc != e.current[y][x] {
				// Only emit cursor position if not consecutive
				if y != lastRow || x != lastCol {
					sb.WriteString(MoveTo(y+1, x+1))
				}
				WriteCellSGR(&sb, nc)
				lastRow = y
				lastCol = x + 1
			}
		}
	}

	if sb.Len() > 0 {
		sb.WriteString(Reset)
	}

	e.current = next
	e.firstFrame = false
	return sb.String()
}
