package maps

import (
	"encoding/json"
	"fmt"
)

// HookEnterMap is the lifecycle event fired after a map finished loading.
const HookEnterMap = "onEnterMap"

// WarpBehavior is the behavior name that moves the controlled entity to
// another map. Loaders validate its target parameters across the catalog.
const WarpBehavior = "warp"

// Facing is the direction an entity looks at.
type Facing string

const (
	FacingNone  Facing = ""
	FacingUp    Facing = "up"
	FacingDown  Facing = "down"
	FacingLeft  Facing = "left"
	FacingRight Facing = "right"
)

// Delta returns the unit step for the facing direction.
func (f Facing) Delta() (int, int) {
	switch f {
	case FacingUp:
		return 0, -1
	case FacingDown:
		return 0, 1
	case FacingLeft:
		return -1, 0
	case FacingRight:
		return 1, 0
	}
	return 0, 0
}

// Dimensions is the size of a map in cells.
type Dimensions struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Cells returns rows*cols.
func (d Dimensions) Cells() int {
	return d.Rows * d.Cols
}

// EntryPoint is where the controlled entity is placed on load.
type EntryPoint struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Facing Facing `json:"facing,omitempty"`
}

// BehaviorRef names a registered behavior plus optional parameters.
// In map files it is either a bare string or {"name": ..., "params": {...}}.
type BehaviorRef struct {
	Name   string            `json:"name"`
	Params map[string]string `json:"params,omitempty"`
}

// UnmarshalJSON accepts both the string and the object form.
func (r *BehaviorRef) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*r = BehaviorRef{Name: name}
		return nil
	}
	type plain BehaviorRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("behavior ref: %w", err)
	}
	*r = BehaviorRef(p)
	return nil
}

// Param returns a parameter value, or "" when absent.
func (r BehaviorRef) Param(key string) string {
	return r.Params[key]
}

// NPCTemplate describes the entity spawned for an NPC spawn code.
type NPCTemplate struct {
	Kind  string         `json:"kind"`
	Props map[string]any `json:"props,omitempty"`
}

// Definition is one named map: terrain, trigger, action and NPC spawn
// layers of identical shape, plus the lookup tables that give the codes
// meaning. Definitions are read-only once registered in a Catalog.
type Definition struct {
	ID         string
	Title      string
	Background string
	Dims       Dimensions

	TileGrid     []int
	TriggerGrid  []int    // 0 = no trigger
	ActionGrid   []int    // 0 = no map-level action
	NPCSpawnGrid []string // "" = no spawn

	Triggers     map[int]BehaviorRef
	Actions      map[int]BehaviorRef
	NPCTemplates map[string]NPCTemplate
	Entry        EntryPoint
	Hooks        map[string]BehaviorRef
}

// InBounds reports whether (x, y) is a cell of the map.
func (d *Definition) InBounds(x, y int) bool {
	return x >= 0 && x < d.Dims.Cols && y >= 0 && y < d.Dims.Rows
}

// Index maps a cell to its row-major grid index. Callers check bounds;
// an out-of-range cell is a programming error and panics.
func Index(d *Definition, x, y int) int {
	if !d.InBounds(x, y) {
		panic(fmt.Sprintf("maps: cell (%d,%d) outside %q (%dx%d)", x, y, d.ID, d.Dims.Cols, d.Dims.Rows))
	}
	return x + y*d.Dims.Cols
}

// TileCodeAt returns the terrain code at (x, y).
func TileCodeAt(d *Definition, x, y int) int {
	return d.TileGrid[Index(d, x, y)]
}

// TriggerCodeAt returns the trigger code at (x, y).
func TriggerCodeAt(d *Definition, x, y int) int {
	return d.TriggerGrid[Index(d, x, y)]
}

// ActionCodeAt returns the map-level action code at (x, y).
func ActionCodeAt(d *Definition, x, y int) int {
	return d.ActionGrid[Index(d, x, y)]
}

// NPCSpawnCodeAt returns the NPC spawn code at (x, y).
func NPCSpawnCodeAt(d *Definition, x, y int) string {
	return d.NPCSpawnGrid[Index(d, x, y)]
}

// TriggerAt resolves the trigger behavior at (x, y).
func (d *Definition) TriggerAt(x, y int) (BehaviorRef, bool) {
	code := TriggerCodeAt(d, x, y)
	if code == 0 {
		return BehaviorRef{}, false
	}
	ref, ok := d.Triggers[code]
	return ref, ok
}

// ActionAt resolves the map-level action behavior at (x, y).
func (d *Definition) ActionAt(x, y int) (BehaviorRef, bool) {
	code := ActionCodeAt(d, x, y)
	if code == 0 {
		return BehaviorRef{}, false
	}
	ref, ok := d.Actions[code]
	return ref, ok
}

// NPCAt resolves the NPC template spawned at (x, y).
func (d *Definition) NPCAt(x, y int) (NPCTemplate, bool) {
	code := NPCSpawnCodeAt(d, x, y)
	if code == "" {
		return NPCTemplate{}, false
	}
	tpl, ok := d.NPCTemplates[code]
	return tpl, ok
}

// Hook returns the behavior declared for a lifecycle event.
func (d *Definition) Hook(event string) (BehaviorRef, bool) {
	ref, ok := d.Hooks[event]
	return ref, ok
}
