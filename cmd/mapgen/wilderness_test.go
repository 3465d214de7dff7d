package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridrealm/internal/maps"
)

func generated(t *testing.T, seed uint64) (*maps.Definition, *wilderness, []point) {
	t.Helper()
	d := maps.Blank("wild", 60, 40)
	g := newWilderness(d, seed, io.Discard)
	ends := g.generate()
	require.NoError(t, maps.Validate(d))
	return d, g, ends
}

func TestWildernessIsConnected(t *testing.T) {
	for _, seed := range []uint64{1, 7, 42} {
		d, g, ends := generated(t, seed)

		assert.True(t, g.walkable(d.Entry.X, d.Entry.Y), "seed %d: entry blocked", seed)
		_, sizes := g.regions()
		assert.Len(t, sizes, 1, "seed %d", seed)
		for _, e := range ends {
			assert.True(t, g.walkable(e.x, e.y), "seed %d: trail end %v blocked", seed, e)
		}
	}
}

func TestWildernessBorderIsClosed(t *testing.T) {
	d, g, _ := generated(t, 3)
	for x := 0; x < d.Dims.Cols; x++ {
		assert.False(t, g.walkable(x, 0))
		assert.False(t, g.walkable(x, d.Dims.Rows-1))
	}
	for y := 0; y < d.Dims.Rows; y++ {
		assert.False(t, g.walkable(0, y))
		assert.False(t, g.walkable(d.Dims.Cols-1, y))
	}
}

func TestWildernessIsDeterministic(t *testing.T) {
	a, _, _ := generated(t, 99)
	b, _, _ := generated(t, 99)
	assert.Equal(t, a.TileGrid, b.TileGrid)
	assert.Equal(t, a.Entry, b.Entry)
}

func TestSpawnNPCs(t *testing.T) {
	d, g, ends := generated(t, 5)
	tpl := maps.NPCTemplate{Kind: "dog"}
	placed := g.spawnNPCs("d", tpl, 4, ends)
	assert.Equal(t, 4, placed)
	assert.Equal(t, tpl, d.NPCTemplates["d"])

	count := 0
	for y := 0; y < d.Dims.Rows; y++ {
		for x := 0; x < d.Dims.Cols; x++ {
			if maps.NPCSpawnCodeAt(d, x, y) == "d" {
				count++
				assert.True(t, g.walkable(x, y))
			}
		}
	}
	assert.Equal(t, 4, count)
	require.NoError(t, maps.Validate(d))
}

func TestAddExit(t *testing.T) {
	d, _, ends := generated(t, 11)
	addExit(d, ends[0], "town")
	ref, ok := d.TriggerAt(ends[0].x, ends[0].y)
	require.True(t, ok)
	assert.Equal(t, maps.WarpBehavior, ref.Name)
	assert.Equal(t, "town", ref.Param("map"))
}

func TestParseSize(t *testing.T) {
	w, h, err := parseSize("40x20")
	require.NoError(t, err)
	assert.Equal(t, 40, w)
	assert.Equal(t, 20, h)

	for _, bad := range []string{"40", "5x20", "40xabc"} {
		_, _, err := parseSize(bad)
		assert.Error(t, err, bad)
	}
}
