package main

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridrealm/internal/game"
)

func TestDrawFrame(t *testing.T) {
	screen := tcell.NewSimulationScreen("")
	require.NoError(t, screen.Init())
	defer screen.Fini()
	screen.SetSize(20, 8)

	f := &game.Frame{
		MapID:   "m",
		Title:   "Meadow",
		Cols:    3,
		Rows:    1,
		Terrain: []game.Cell{{Glyph: '.', Fg: 32}, {Glyph: '#', Fg: 90}, {Glyph: '.', Fg: 32}},
	}
	draw(screen, f)

	found := false
	for y := 0; y < 8; y++ {
		for x := 0; x < 20; x++ {
			if r, _, _, _ := screen.GetContent(x, y); r == '#' {
				found = true
			}
		}
	}
	assert.True(t, found, "wall glyph not drawn")
}
