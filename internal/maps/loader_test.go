package maps

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMap = `{
  "id": "sample",
  "tiles": ["111", "101", "141"],
  "trigger_tiles": ["000", "000", "010"],
  "action_tiles": ["000", "020", "000"],
  "npc_tiles": ["   ", " d ", "   "],
  "triggers": {"1": {"name": "warp", "params": {"map": "sample", "x": "1", "y": "1"}}},
  "actions": {"2": "open-chest"},
  "npcs": {"d": {"kind": "dog", "props": {"ai": "random"}}},
  "entry": {"x": 1, "y": 1, "facing": "up"},
  "hooks": {"onEnterMap": "announce-map"}
}`

func TestDecode(t *testing.T) {
	d, err := Decode([]byte(sampleMap))
	require.NoError(t, err)

	assert.Equal(t, "sample", d.ID)
	assert.Equal(t, "sample", d.Title, "title defaults to id")
	assert.Equal(t, Dimensions{Rows: 3, Cols: 3}, d.Dims)
	assert.Equal(t, TileCaveEntrance, TileCodeAt(d, 1, 2))
	assert.Equal(t, 1, TriggerCodeAt(d, 1, 2))
	assert.Equal(t, 2, ActionCodeAt(d, 1, 1))
	assert.Equal(t, "d", NPCSpawnCodeAt(d, 1, 1))
	assert.Equal(t, "", NPCSpawnCodeAt(d, 0, 0))

	assert.Equal(t, BehaviorRef{Name: "open-chest"}, d.Actions[2])
	assert.Equal(t, "sample", d.Triggers[1].Param("map"))
	assert.Equal(t, EntryPoint{X: 1, Y: 1, Facing: FacingUp}, d.Entry)

	hook, ok := d.Hook(HookEnterMap)
	require.True(t, ok)
	assert.Equal(t, "announce-map", hook.Name)

	_, err = NewCatalog(d)
	require.NoError(t, err)
}

func TestDecodeOmittedLayers(t *testing.T) {
	d, err := Decode([]byte(`{"id": "plain", "tiles": ["00", "00"], "entry": {"x": 0, "y": 0}}`))
	require.NoError(t, err)
	assert.Len(t, d.TriggerGrid, 4)
	assert.Len(t, d.ActionGrid, 4)
	assert.Len(t, d.NPCSpawnGrid, 4)
	require.NoError(t, Validate(d))
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"bad json", `{`},
		{"missing id", `{"tiles": ["0"]}`},
		{"no rows", `{"id": "x"}`},
		{"bad code", `{"id": "x", "tiles": ["0?"]}`},
		{"bad table key", `{"id": "x", "tiles": ["0"], "triggers": {"zero": "warp"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.json))
			assert.Error(t, err)
		})
	}
}

func TestDecodeRaggedRows(t *testing.T) {
	tests := []struct {
		name  string
		json  string
		field string
	}{
		{"short row", `{"id": "r", "tiles": ["000", "00"], "entry": {"x": 0, "y": 0}}`, "tiles"},
		{"same total", `{"id": "r", "tiles": ["1111", "11", "111111"], "entry": {"x": 0, "y": 0}}`, "tiles"},
		{"trigger rows", `{"id": "r", "tiles": ["00", "00"], "trigger_tiles": ["000", "0"], "entry": {"x": 0, "y": 0}}`, "trigger_tiles"},
		{"missing action row", `{"id": "r", "tiles": ["00", "00"], "action_tiles": ["00"], "entry": {"x": 0, "y": 0}}`, "action_tiles"},
		{"npc rows", `{"id": "r", "tiles": ["00", "00"], "npc_tiles": ["d  ", " "], "entry": {"x": 0, "y": 0}}`, "npc_tiles"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.json))
			var defErr *DefinitionError
			require.True(t, errors.As(err, &defErr), "got %v", err)
			assert.Equal(t, tt.field, defErr.Field)
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.json"), []byte(sampleMap), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	c, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"sample"}, c.IDs())
}

func TestLoadDirEmpty(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	assert.ErrorIs(t, err, ErrNoMaps)
}

func TestLoadShippedMaps(t *testing.T) {
	c, err := LoadDir(filepath.Join("..", "..", "assets", "maps"))
	require.NoError(t, err)
	assert.Equal(t, []string{"cave", "world"}, c.IDs())

	world, _ := c.Get("world")
	ref, ok := world.TriggerAt(12, 0)
	require.True(t, ok)
	assert.Equal(t, WarpBehavior, ref.Name)
	assert.Equal(t, "cave", ref.Param("map"))
}

func TestDefaultDefinitionIsValid(t *testing.T) {
	d := DefaultDefinition()
	require.NoError(t, Validate(d))
	assert.False(t, Tile(TileCodeAt(d, 0, 0)).Walkable)
	assert.True(t, Tile(TileCodeAt(d, d.Entry.X, d.Entry.Y)).Walkable)
}

func TestEncodeRoundTrip(t *testing.T) {
	d, err := Decode([]byte(sampleMap))
	require.NoError(t, err)

	data, err := Encode(d)
	require.NoError(t, err)
	again, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, d, again)
}

func TestEncodeOmitsEmptyLayers(t *testing.T) {
	d := Blank("plain", 3, 2)
	data, err := Encode(d)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"000"`)
	assert.NotContains(t, s, "trigger_tiles")
	assert.NotContains(t, s, "npc_tiles")
	assert.NotContains(t, s, "hooks")
}

func TestEncodeRejectsWideCodes(t *testing.T) {
	d := Blank("plain", 2, 2)
	d.TileGrid[3] = 36
	_, err := Encode(d)
	var defErr *DefinitionError
	assert.ErrorAs(t, err, &defErr)
}

func TestEncodeRejectsUnwritableSpawnKeys(t *testing.T) {
	for _, key := range []string{"dog", " ", "."} {
		d := Blank("plain", 3, 2)
		d.NPCSpawnGrid[1] = key
		d.NPCTemplates[key] = NPCTemplate{Kind: "dog"}
		_, err := Encode(d)
		var defErr *DefinitionError
		require.True(t, errors.As(err, &defErr), "key %q", key)
		assert.Equal(t, "npc_tiles", defErr.Field)
	}
}
