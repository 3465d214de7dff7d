package entity

import (
	"github.com/oklog/ulid/v2"

	"gridrealm/internal/maps"
)

// Layer orders entities for drawing; higher layers draw on top.
type Layer int

const (
	LayerTile Layer = iota
	LayerItem
	LayerUnit
	LayerPlayer
	LayerProjectile
)

// Entity is anything positioned on the active map.
type Entity struct {
	ID   ulid.ULID
	Kind string

	GridX, GridY     int
	RenderX, RenderY int // GridX*cellWidth, GridY*cellHeight

	// OwnerMap is the map the entity belongs to. Empty for entities that
	// follow the session across maps, like the controlled player.
	OwnerMap string

	Persistent bool // survives unload as a snapshot
	Solid      bool // blocks movement into its cell
	Controlled bool // movement fires ambient triggers
	MapTile    bool // terrain instantiated from the tile grid

	Layer  Layer
	Glyph  rune
	Fg     int // ANSI color code
	Facing maps.Facing

	// Action names the behavior run when another entity interacts with
	// this one. Empty means none.
	Action maps.BehaviorRef

	// Props is the entity's custom state (AI state, inventory, dialogue).
	Props map[string]any
}

// SetCell moves the entity to (x, y) and refreshes the render projection.
func (e *Entity) SetCell(x, y, cellW, cellH int) {
	e.GridX = x
	e.GridY = y
	e.RenderX = x * cellW
	e.RenderY = y * cellH
}

// At reports whether the entity occupies (x, y).
func (e *Entity) At(x, y int) bool {
	return e.GridX == x && e.GridY == y
}

// HasAction reports whether the entity declares an interaction behavior.
func (e *Entity) HasAction() bool {
	return e.Action.Name != ""
}

// String returns the prop value for key, or "" if absent or not a string.
func (e *Entity) String(key string) string {
	s, _ := e.Props[key].(string)
	return s
}

// Int returns the prop value for key as an int. JSON numbers decode as
// float64 and are truncated.
func (e *Entity) Int(key string) int {
	switch v := e.Props[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Bool returns the prop value for key as a bool.
func (e *Entity) Bool(key string) bool {
	b, _ := e.Props[key].(bool)
	return b
}

// Set stores a prop value.
func (e *Entity) Set(key string, v any) {
	if e.Props == nil {
		e.Props = make(map[string]any)
	}
	e.Props[key] = v
}

// View is a read-only copy of the fields renderers need.
type View struct {
	ID         string
	Kind       string
	X, Y       int
	Glyph      rune
	Fg         int
	Layer      Layer
	Facing     maps.Facing
	Controlled bool
}

// View returns a read-only copy of the entity.
func (e *Entity) View() View {
	return View{
		ID:         e.ID.String(),
		Kind:       e.Kind,
		X:          e.GridX,
		Y:          e.GridY,
		Glyph:      e.Glyph,
		Fg:         e.Fg,
		Layer:      e.Layer,
		Facing:     e.Facing,
		Controlled: e.Controlled,
	}
}
