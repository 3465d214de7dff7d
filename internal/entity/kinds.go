package entity

import (
	"fmt"
	"unicode/utf8"

	"gridrealm/internal/maps"
)

// Factory fills in the kind-specific defaults of a freshly created entity.
type Factory func(e *Entity)

// Kinds maps kind identifiers to factories.
type Kinds struct {
	factories map[string]Factory
}

// NewKinds returns an empty kind table.
func NewKinds() *Kinds {
	return &Kinds{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for kind.
func (k *Kinds) Register(kind string, f Factory) {
	k.factories[kind] = f
}

// Has reports whether kind is registered.
func (k *Kinds) Has(kind string) bool {
	_, ok := k.factories[kind]
	return ok
}

// Tile kinds and the built-in unit kinds.
const (
	KindTile       = "tile"
	KindPlayer     = "player"
	KindNPC        = "npc"
	KindDog        = "dog"
	KindChest      = "chest"
	KindProjectile = "projectile"
)

// DefaultKinds returns the built-in kinds.
func DefaultKinds() *Kinds {
	k := NewKinds()
	k.Register(KindTile, func(e *Entity) {
		td := maps.Tile(e.Int("code"))
		e.MapTile = true
		e.Layer = LayerTile
		e.Glyph = td.Char
		e.Fg = td.Fg
		e.Solid = !td.Walkable
	})
	k.Register(KindPlayer, func(e *Entity) {
		e.Layer = LayerPlayer
		e.Glyph = '@'
		e.Fg = maps.ResolveColor("bright_white")
		e.Solid = true
		e.Controlled = true
		e.Facing = maps.FacingDown
	})
	k.Register(KindNPC, func(e *Entity) {
		e.Layer = LayerUnit
		e.Glyph = 'N'
		e.Fg = maps.ResolveColor("bright_cyan")
		e.Solid = true
	})
	k.Register(KindDog, func(e *Entity) {
		e.Layer = LayerUnit
		e.Glyph = 'd'
		e.Fg = maps.ResolveColor("yellow")
		e.Solid = true
	})
	k.Register(KindChest, func(e *Entity) {
		e.Layer = LayerItem
		e.Glyph = '$'
		e.Fg = maps.ResolveColor("bright_yellow")
		e.Solid = true
		e.Action = maps.BehaviorRef{Name: "open-chest"}
	})
	k.Register(KindProjectile, func(e *Entity) {
		e.Layer = LayerProjectile
		e.Glyph = '*'
		e.Fg = maps.ResolveColor("bright_red")
	})
	return k
}

// build creates an entity of kind with a private copy of props. Unknown
// kinds get a generic unit. A few props override the kind defaults:
// glyph, color, solid, action.
func (k *Kinds) build(kind string, props map[string]any) *Entity {
	e := &Entity{Kind: kind, Props: cloneProps(props)}

	if f, ok := k.factories[kind]; ok {
		f(e)
	} else {
		e.Layer = LayerUnit
		e.Glyph = '?'
		e.Fg = 37
	}

	if g := e.String("glyph"); g != "" {
		e.Glyph, _ = utf8.DecodeRuneInString(g)
	}
	if c := e.String("color"); c != "" {
		e.Fg = maps.ResolveColor(c)
	}
	if v, ok := e.Props["solid"].(bool); ok {
		e.Solid = v
	}
	if a := e.String("action"); a != "" {
		e.Action = maps.BehaviorRef{Name: a}
	}
	return e
}

// cloneProps deep-copies nested maps and slices so entities built from
// the same template never share mutable state.
func cloneProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneProps(t)
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = cloneValue(x)
		}
		return out
	}
	return v
}

// String implements fmt.Stringer for log output.
func (l Layer) String() string {
	switch l {
	case LayerTile:
		return "tile"
	case LayerItem:
		return "item"
	case LayerUnit:
		return "unit"
	case LayerPlayer:
		return "player"
	case LayerProjectile:
		return "projectile"
	}
	return fmt.Sprintf("layer(%d)", int(l))
}
