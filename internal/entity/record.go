package entity

import (
	"fmt"

	"github.com/oklog/ulid/v2"

	"gridrealm/internal/maps"
)

// Record is the serialized form of an entity, used when snapshots leave
// the process.
type Record struct {
	ID         string            `json:"id"`
	Kind       string            `json:"kind"`
	X          int               `json:"x"`
	Y          int               `json:"y"`
	OwnerMap   string            `json:"owner_map,omitempty"`
	Persistent bool              `json:"persistent,omitempty"`
	Solid      bool              `json:"solid,omitempty"`
	Layer      Layer             `json:"layer"`
	Glyph      string            `json:"glyph,omitempty"`
	Fg         int               `json:"fg,omitempty"`
	Facing     maps.Facing       `json:"facing,omitempty"`
	Action     *maps.BehaviorRef `json:"action,omitempty"`
	Props      map[string]any    `json:"props,omitempty"`
}

// Record returns the serialized form of e.
func (e *Entity) Record() Record {
	props := cloneProps(e.Props)
	var glyph string
	if e.Glyph != 0 {
		glyph = string(e.Glyph)
	}
	var action *maps.BehaviorRef
	if e.Action.Name != "" {
		ref := e.Action
		ref.Params = cloneParams(ref.Params)
		action = &ref
	}
	return Record{
		ID:         e.ID.String(),
		Kind:       e.Kind,
		X:          e.GridX,
		Y:          e.GridY,
		OwnerMap:   e.OwnerMap,
		Persistent: e.Persistent,
		Solid:      e.Solid,
		Layer:      e.Layer,
		Glyph:      glyph,
		Fg:         e.Fg,
		Facing:     e.Facing,
		Action:     action,
		Props:      props,
	}
}

// FromRecord rebuilds an entity from its serialized form. Render
// coordinates are refreshed when the entity is placed.
func FromRecord(r Record) (*Entity, error) {
	id, err := ulid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("entity %q: %w", r.ID, err)
	}
	e := &Entity{
		ID:         id,
		Kind:       r.Kind,
		GridX:      r.X,
		GridY:      r.Y,
		OwnerMap:   r.OwnerMap,
		Persistent: r.Persistent,
		Solid:      r.Solid,
		Layer:      r.Layer,
		Fg:         r.Fg,
		Facing:     r.Facing,
		Props:      cloneProps(r.Props),
	}
	if r.Action != nil {
		e.Action = *r.Action
		e.Action.Params = cloneParams(r.Action.Params)
	}
	for _, g := range r.Glyph {
		e.Glyph = g
		break
	}
	return e, nil
}

func cloneParams(params map[string]string) map[string]string {
	if params == nil {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
