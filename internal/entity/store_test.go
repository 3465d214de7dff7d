package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridrealm/internal/maps"
)

func TestCreateAppliesKindDefaults(t *testing.T) {
	s := NewStore(nil)

	tests := []struct {
		kind       string
		props      map[string]any
		glyph      rune
		solid      bool
		controlled bool
		layer      Layer
	}{
		{KindTile, map[string]any{"code": maps.TileWall}, '#', true, false, LayerTile},
		{KindTile, map[string]any{"code": maps.TileGrass}, '.', false, false, LayerTile},
		{KindPlayer, nil, '@', true, true, LayerPlayer},
		{KindDog, nil, 'd', true, false, LayerUnit},
		{KindChest, nil, '$', true, false, LayerItem},
		{KindProjectile, nil, '*', false, false, LayerProjectile},
		{"ghost", map[string]any{"glyph": "G", "solid": true}, 'G', true, false, LayerUnit},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			e := s.Create(tt.kind, tt.props)
			assert.NotZero(t, e.ID)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.glyph, e.Glyph)
			assert.Equal(t, tt.solid, e.Solid)
			assert.Equal(t, tt.controlled, e.Controlled)
			assert.Equal(t, tt.layer, e.Layer)
		})
	}
}

func TestCreateCopiesProps(t *testing.T) {
	s := NewStore(nil)
	props := map[string]any{"ai": "random", "action": "talk"}

	a := s.Create(KindNPC, props)
	b := s.Create(KindNPC, props)
	a.Set("ai", "idle")

	assert.Equal(t, "random", b.String("ai"))
	assert.Equal(t, "random", props["ai"])
	assert.Equal(t, "talk", a.Action.Name)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestEntitiesFilters(t *testing.T) {
	s := NewStore(nil)
	a := s.Create(KindNPC, nil)
	a.SetCell(1, 2, 10, 5)
	a.OwnerMap = "world"
	b := s.Create(KindNPC, nil)
	b.SetCell(1, 2, 10, 5)
	b.OwnerMap = "cave"
	c := s.Create(KindNPC, nil)
	c.SetCell(3, 3, 10, 5)
	c.OwnerMap = "world"
	s.Add(a, b, c)

	assert.Equal(t, []*Entity{a, b, c}, s.Entities())
	assert.Equal(t, []*Entity{a, b}, s.Entities(AtCell(1, 2)))
	assert.Equal(t, []*Entity{a, c}, s.Entities(OwnedBy("world")))
	assert.Equal(t, []*Entity{a}, s.Entities(OwnedBy("world"), AtCell(1, 2)))
	assert.Empty(t, s.Entities(AtCell(9, 9)))
	assert.Equal(t, 10, a.RenderX)
	assert.Equal(t, 10, a.RenderY)
}

func TestRemoveAndSetEntities(t *testing.T) {
	s := NewStore(nil)
	a := s.Create(KindNPC, nil)
	b := s.Create(KindNPC, nil)
	s.Add(a, b)

	require.True(t, s.Remove(a))
	assert.False(t, s.Remove(a))
	assert.Equal(t, 1, s.Len())

	s.SetEntities([]*Entity{a})
	assert.Equal(t, []*Entity{a}, s.Entities())
}

func TestControlled(t *testing.T) {
	s := NewStore(nil)
	assert.Nil(t, s.Controlled())

	s.Add(s.Create(KindNPC, nil))
	p := s.Create(KindPlayer, nil)
	s.Add(p)
	assert.Same(t, p, s.Controlled())
}

func TestPropAccessors(t *testing.T) {
	e := &Entity{}
	e.Set("n", float64(7))
	e.Set("flag", true)
	e.Set("s", "x")

	assert.Equal(t, 7, e.Int("n"))
	assert.Equal(t, 0, e.Int("missing"))
	assert.True(t, e.Bool("flag"))
	assert.Equal(t, "x", e.String("s"))
	assert.Equal(t, "", e.String("n"))
}

func TestRecordOmitsEmptyAction(t *testing.T) {
	s := NewStore(nil)

	dog := s.Create(KindDog, nil)
	data, err := json.Marshal(dog.Record())
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"action"`)

	chest := s.Create(KindChest, nil)
	chest.Action.Params = map[string]string{"item": "key"}
	data, err = json.Marshal(chest.Record())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"action":{"name":"open-chest","params":{"item":"key"}}`)

	var rec Record
	require.NoError(t, json.Unmarshal(data, &rec))
	back, err := FromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, chest.Action, back.Action)
	assert.True(t, back.HasAction())
}
