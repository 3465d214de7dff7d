package maps

import (
	"errors"
	"sort"
	"strconv"
)

// Catalog is the immutable registry of map definitions. It holds its own
// copies; the *Definition values handed out by Get and Lookup are shared
// between callers and must be treated as read-only.
type Catalog struct {
	defs map[string]*Definition
}

// NewCatalog validates every definition and indexes a copy of it by id,
// so later changes to the arguments do not reach the catalog.
// Any problem is reported as one or more joined *DefinitionError.
func NewCatalog(defs ...*Definition) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]*Definition, len(defs))}
	var errs []error
	for _, d := range defs {
		if err := Validate(d); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, exists := c.defs[d.ID]; exists {
			errs = append(errs, definitionErrorf(d.ID, "id", "duplicate map id"))
			continue
		}
		c.defs[d.ID] = d.Clone()
	}
	if err := c.validateWarps(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

// Get returns the definition registered under id.
func (c *Catalog) Get(id string) (*Definition, bool) {
	d, ok := c.defs[id]
	return d, ok
}

// Lookup is Get with an *UnknownMapError for missing ids.
func (c *Catalog) Lookup(id string) (*Definition, error) {
	d, ok := c.defs[id]
	if !ok {
		return nil, &UnknownMapError{MapID: id}
	}
	return d, nil
}

// IDs returns the registered map ids in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.defs))
	for id := range c.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered maps.
func (c *Catalog) Len() int {
	return len(c.defs)
}

// Validate checks the shape invariants of a single definition.
func Validate(d *Definition) error {
	if d == nil {
		return &DefinitionError{Reason: "nil definition"}
	}
	if d.ID == "" {
		return &DefinitionError{Field: "id", Reason: "empty map id"}
	}
	if d.Dims.Rows <= 0 || d.Dims.Cols <= 0 {
		return definitionErrorf(d.ID, "dimensions", "invalid size %dx%d", d.Dims.Cols, d.Dims.Rows)
	}

	var errs []error
	want := d.Dims.Cells()
	grids := []struct {
		name string
		n    int
	}{
		{"tiles", len(d.TileGrid)},
		{"triggers_grid", len(d.TriggerGrid)},
		{"actions_grid", len(d.ActionGrid)},
		{"npcs_grid", len(d.NPCSpawnGrid)},
	}
	for _, g := range grids {
		if g.n != want {
			errs = append(errs, definitionErrorf(d.ID, g.name, "has %d cells, expected %d", g.n, want))
		}
	}
	if len(errs) > 0 {
		// Code checks below index the grids.
		return errors.Join(errs...)
	}

	for i, code := range d.TileGrid {
		if _, ok := LookupTile(code); !ok {
			errs = append(errs, definitionErrorf(d.ID, "tiles", "unknown tile code %d at %s", code, cellName(d, i)))
		}
	}
	for i, code := range d.TriggerGrid {
		if code == 0 {
			continue
		}
		if ref, ok := d.Triggers[code]; !ok || ref.Name == "" {
			errs = append(errs, definitionErrorf(d.ID, "triggers", "code %d at %s has no behavior", code, cellName(d, i)))
		}
	}
	for i, code := range d.ActionGrid {
		if code == 0 {
			continue
		}
		if ref, ok := d.Actions[code]; !ok || ref.Name == "" {
			errs = append(errs, definitionErrorf(d.ID, "actions", "code %d at %s has no behavior", code, cellName(d, i)))
		}
	}
	for i, code := range d.NPCSpawnGrid {
		if code == "" {
			continue
		}
		if tpl, ok := d.NPCTemplates[code]; !ok || tpl.Kind == "" {
			errs = append(errs, definitionErrorf(d.ID, "npcs", "spawn code %q at %s has no template", code, cellName(d, i)))
		}
	}
	for event, ref := range d.Hooks {
		if ref.Name == "" {
			errs = append(errs, definitionErrorf(d.ID, "hooks", "event %q has no behavior", event))
		}
	}
	if !d.InBounds(d.Entry.X, d.Entry.Y) {
		errs = append(errs, definitionErrorf(d.ID, "entry", "(%d,%d) is outside the map", d.Entry.X, d.Entry.Y))
	}
	return errors.Join(errs...)
}

// validateWarps checks that every warp reference targets a registered map
// and a cell inside it.
func (c *Catalog) validateWarps() error {
	var errs []error
	for _, id := range c.IDs() {
		d := c.defs[id]
		check := func(table string, code int, ref BehaviorRef) {
			if ref.Name != WarpBehavior {
				return
			}
			target, ok := c.defs[ref.Param("map")]
			if !ok {
				errs = append(errs, definitionErrorf(id, table, "code %d warps to unknown map %q", code, ref.Param("map")))
				return
			}
			x, errX := strconv.Atoi(ref.Param("x"))
			y, errY := strconv.Atoi(ref.Param("y"))
			if errX != nil || errY != nil {
				return // warp falls back to the target's entry point
			}
			if !target.InBounds(x, y) {
				errs = append(errs, definitionErrorf(id, table, "code %d warps outside %q at (%d,%d)", code, target.ID, x, y))
			}
		}
		for code, ref := range d.Triggers {
			check("triggers", code, ref)
		}
		for code, ref := range d.Actions {
			check("actions", code, ref)
		}
	}
	return errors.Join(errs...)
}

func cellName(d *Definition, i int) string {
	return "(" + strconv.Itoa(i%d.Dims.Cols) + "," + strconv.Itoa(i/d.Dims.Cols) + ")"
}
