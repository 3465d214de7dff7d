package render

import (
	"strconv"
	"strings"
)

const csi = "\x1b["

// Terminal control sequences.
const (
	Reset          = csi + "0m"
	ClearScreen    = csi + "2J"
	HideCursor     = csi + "?25l"
	ShowCursor     = csi + "?25h"
	EnterAltScreen = csi + "?1049h"
	ExitAltScreen  = csi + "?1049l"
)

// TileWidth is how many screen columns each map cell occupies, so cells
// look roughly square.
const TileWidth = 2

// MoveTo positions the cursor at row, col (1-based).
func MoveTo(row, col int) string {
	return csi + strconv.Itoa(row) + ";" + strconv.Itoa(col) + "H"
}

// palette is the RGB value of each basic ANSI foreground code.
var palette = map[int][3]uint8{
	30: {0, 0, 0},
	31: {170, 0, 0},
	32: {0, 170, 0},
	33: {170, 170, 0},
	34: {0, 0, 170},
	35: {170, 0, 170},
	36: {0, 170, 170},
	37: {170, 170, 170},
	90: {85, 85, 85},
	91: {255, 85, 85},
	92: {85, 255, 85},
	93: {255, 255, 85},
	94: {85, 85, 255},
	95: {255, 85, 255},
	96: {85, 255, 255},
	97: {255, 255, 255},
}

// AnsiToRGB converts a basic ANSI color code to RGB. Unknown codes render
// as white (37).
func AnsiToRGB(code int) (r, g, b uint8) {
	c, ok := palette[code]
	if !ok {
		c = palette[37]
	}
	return c[0], c[1], c[2]
}

// WriteCellSGR writes one cell with a full SGR reset and 24-bit colors, so
// no attribute carries over from the previous cell.
func WriteCellSGR(sb *strings.Builder, c Cell) {
	sb.WriteString(csi + "0")
	if c.Bold {
		sb.WriteString(";1")
	}
	writeRGB(sb, ";38;2;", c.FgR, c.FgG, c.FgB)
	writeRGB(sb, ";48;2;", c.BgR, c.BgG, c.BgB)
	sb.WriteByte('m')
	sb.WriteRune(c.Ch)
}

func writeRGB(sb *strings.Builder, prefix string, r, g, b uint8) {
	sb.WriteString(prefix)
	sb.WriteString(strconv.Itoa(int(r)))
	sb.WriteByte(';')
	sb.WriteString(strconv.Itoa(int(g)))
	sb.WriteByte(';')
	sb.WriteString(strconv.Itoa(int(b)))
}
