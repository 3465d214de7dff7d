package game

import (
	"errors"

	"go.uber.org/zap"

	"gridrealm/internal/behavior"
	"gridrealm/internal/entity"
	"gridrealm/internal/maps"
	"gridrealm/internal/mapstate"
)

// ErrNotLoaded is returned by introspection calls while no map is active.
var ErrNotLoaded = errors.New("no map loaded")

// State is the lifecycle state of a Runtime.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	}
	return "unknown"
}

// Default cell size in render units.
const (
	DefaultCellWidth  = 10
	DefaultCellHeight = 5
)

// RuntimeConfig wires a Runtime to its collaborators. Nil fields get
// fresh defaults; Catalog is required.
type RuntimeConfig struct {
	Catalog    *maps.Catalog
	Cache      *mapstate.Cache
	Store      *entity.Store
	Behaviors  *behavior.Registry
	CellWidth  int
	CellHeight int
	Logger     *zap.Logger
	// Announce receives messages behaviors show to the player.
	Announce func(text string)
}

// Runtime owns the single active map of a game session. It loads and
// unloads maps, places entities, validates movement and dispatches
// triggers and actions. It is not safe for concurrent use: every call,
// including behaviors calling back into it, runs on the session loop.
type Runtime struct {
	catalog   *maps.Catalog
	cache     *mapstate.Cache
	store     *entity.Store
	behaviors *behavior.Registry
	log       *zap.Logger
	announce  func(string)

	cellW, cellH int

	state  State
	active *maps.Definition
}

var _ behavior.Host = (*Runtime)(nil)

// NewRuntime creates an unloaded runtime.
func NewRuntime(cfg RuntimeConfig) *Runtime {
	r := &Runtime{
		catalog:   cfg.Catalog,
		cache:     cfg.Cache,
		store:     cfg.Store,
		behaviors: cfg.Behaviors,
		log:       cfg.Logger,
		announce:  cfg.Announce,
		cellW:     cfg.CellWidth,
		cellH:     cfg.CellHeight,
	}
	if r.cache == nil {
		r.cache = mapstate.NewCache()
	}
	if r.store == nil {
		r.store = entity.NewStore(nil)
	}
	if r.behaviors == nil {
		r.behaviors = behavior.Builtins()
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	if r.cellW <= 0 {
		r.cellW = DefaultCellWidth
	}
	if r.cellH <= 0 {
		r.cellH = DefaultCellHeight
	}
	return r
}

// State returns the lifecycle state.
func (r *Runtime) State() State {
	return r.state
}

// ActiveDefinition returns the loaded map, or ErrNotLoaded.
func (r *Runtime) ActiveDefinition() (*maps.Definition, error) {
	if r.active == nil {
		return nil, ErrNotLoaded
	}
	return r.active, nil
}

// ActiveMap implements behavior.Host.
func (r *Runtime) ActiveMap() (*maps.Definition, error) {
	return r.ActiveDefinition()
}

// Entities implements behavior.Host.
func (r *Runtime) Entities() *entity.Store {
	return r.store
}

// Cache returns the per-map snapshot cache.
func (r *Runtime) Cache() *mapstate.Cache {
	return r.cache
}

// Logger implements behavior.Host.
func (r *Runtime) Logger() *zap.Logger {
	return r.log
}

// Announce implements behavior.Host.
func (r *Runtime) Announce(text string) {
	if r.announce != nil {
		r.announce(text)
		return
	}
	r.log.Info("announce", zap.String("text", text))
}

// Load makes mapID the active map. The id is resolved before anything is
// torn down: an unknown id returns *maps.UnknownMapError and leaves the
// current map untouched. On success the previous map is unloaded, terrain
// and NPCs are instantiated (NPCs come from the snapshot cache when the
// map was visited before), the controlled entity is placed at entry or
// the map's default entry point without firing triggers, and finally the
// onEnterMap hook runs. The hook sees a fully committed map and may itself
// call Load.
func (r *Runtime) Load(mapID string, entry *maps.EntryPoint) error {
	def, err := r.catalog.Lookup(mapID)
	if err != nil {
		r.log.Warn("load failed", zap.String("map", mapID), zap.Error(err))
		return err
	}

	r.Unload()
	r.state = StateLoading

	snapshot, restored := r.cache.Restore(def.ID)
	fresh := r.instantiate(def, !restored)
	for _, e := range snapshot {
		e.SetCell(e.GridX, e.GridY, r.cellW, r.cellH)
	}
	r.store.Add(fresh...)
	r.store.Add(snapshot...)

	r.active = def
	r.state = StateLoaded

	at := def.Entry
	if entry != nil {
		if def.InBounds(entry.X, entry.Y) {
			at = *entry
		} else {
			r.log.Warn("entry point outside map, using default",
				zap.String("map", def.ID), zap.Int("x", entry.X), zap.Int("y", entry.Y))
		}
	}
	controlled := r.store.Controlled()
	if controlled != nil {
		// Entry placement is unconditional; a solid occupant only shares the cell.
		if r.blocked(controlled, at.X, at.Y) {
			r.log.Warn("entry cell is blocked",
				zap.String("map", def.ID), zap.Int("x", at.X), zap.Int("y", at.Y))
		}
		controlled.SetCell(at.X, at.Y, r.cellW, r.cellH)
		if at.Facing != maps.FacingNone {
			controlled.Facing = at.Facing
		}
	}

	r.log.Debug("map loaded",
		zap.String("map", def.ID),
		zap.Int("entities", len(fresh)+len(snapshot)),
		zap.Bool("restored", restored),
	)

	if ref, ok := def.Hook(maps.HookEnterMap); ok {
		r.dispatch(behavior.KindLifecycle, ref, behavior.Event{
			Entity: controlled,
			X:      at.X,
			Y:      at.Y,
			MapID:  def.ID,
			Options: map[string]any{
				"entry":    at,
				"restored": restored,
			},
		})
	}
	return nil
}

// instantiate builds one terrain entity per cell and, when spawnNPCs is
// set, the NPCs of the spawn grid.
func (r *Runtime) instantiate(def *maps.Definition, spawnNPCs bool) []*entity.Entity {
	out := make([]*entity.Entity, 0, def.Dims.Cells())
	var npcs []*entity.Entity
	for y := 0; y < def.Dims.Rows; y++ {
		for x := 0; x < def.Dims.Cols; x++ {
			tile := r.store.Create(entity.KindTile, map[string]any{"code": maps.TileCodeAt(def, x, y)})
			tile.OwnerMap = def.ID
			tile.SetCell(x, y, r.cellW, r.cellH)
			out = append(out, tile)

			if !spawnNPCs {
				continue
			}
			tpl, ok := def.NPCAt(x, y)
			if !ok {
				continue
			}
			npc := r.store.Create(tpl.Kind, tpl.Props)
			npc.OwnerMap = def.ID
			npc.Persistent = true
			npc.SetCell(x, y, r.cellW, r.cellH)
			npcs = append(npcs, npc)
		}
	}
	return append(out, npcs...)
}

// Unload tears down the active map. Persistent entities it owns are saved
// to the snapshot cache, replacing the previous snapshot, and every entity
// it owns leaves the live collection. Entities owned by no map or by
// another map are untouched. Unload without an active map is a no-op.
func (r *Runtime) Unload() {
	if r.active == nil {
		return
	}
	id := r.active.ID

	all := r.store.Entities()
	keep := make([]*entity.Entity, 0, len(all))
	var persisted []*entity.Entity
	for _, e := range all {
		switch {
		case e.OwnerMap != id:
			keep = append(keep, e)
		case e.Persistent:
			persisted = append(persisted, e)
		}
	}
	r.cache.Save(id, persisted)
	r.store.SetEntities(keep)

	r.active = nil
	r.state = StateUnloaded
	r.log.Debug("map unloaded", zap.String("map", id), zap.Int("persisted", len(persisted)))
}

// MoveEntity moves e to (x, y). A move out of bounds or into a cell held
// by a solid entity is rejected without any change. When the controlled
// entity lands on a cell, the cell's trigger runs unless opts.Quiet.
func (r *Runtime) MoveEntity(e *entity.Entity, x, y int, opts behavior.MoveOptions) bool {
	def := r.active
	if def == nil || !def.InBounds(x, y) || r.blocked(e, x, y) {
		return false
	}
	e.SetCell(x, y, r.cellW, r.cellH)

	if !e.Controlled || opts.Quiet {
		return true
	}
	if ref, ok := def.TriggerAt(x, y); ok {
		r.dispatch(behavior.KindTrigger, ref, behavior.Event{Entity: e, X: x, Y: y, MapID: def.ID})
	}
	return true
}

// blocked reports whether a solid entity other than mover holds (x, y).
func (r *Runtime) blocked(mover *entity.Entity, x, y int) bool {
	for _, e := range r.store.Entities(entity.AtCell(x, y)) {
		if e != mover && e.Solid {
			return true
		}
	}
	return false
}

// ResolveAction runs the interaction at (x, y) on behalf of invoker. A
// map-level action on the cell wins and suppresses any entity-level
// action there. Otherwise the first occupant declaring an action runs it
// with itself as the event target. It reports whether a behavior ran.
func (r *Runtime) ResolveAction(invoker *entity.Entity, x, y int) bool {
	def := r.active
	if def == nil || !def.InBounds(x, y) {
		return false
	}

	ev := behavior.Event{Entity: invoker, X: x, Y: y, MapID: def.ID}
	if ref, ok := def.ActionAt(x, y); ok {
		if r.dispatch(behavior.KindAction, ref, ev) {
			return true
		}
	}

	for _, occupant := range r.store.Entities(entity.AtCell(x, y)) {
		if !occupant.HasAction() {
			continue
		}
		ev.Target = occupant
		if r.dispatch(behavior.KindAction, occupant.Action, ev) {
			return true
		}
	}
	return false
}

// dispatch runs the behavior named by ref. A name with no registered
// handler is a no-op; handler errors are logged, never returned, since
// they fire from player input.
func (r *Runtime) dispatch(kind behavior.Kind, ref maps.BehaviorRef, ev behavior.Event) bool {
	f, ok := r.behaviors.Lookup(kind, ref.Name)
	if !ok {
		r.log.Debug("behavior not registered", zap.Stringer("kind", kind), zap.String("name", ref.Name))
		return false
	}
	ev.Kind = kind
	ev.Name = ref.Name
	ev.Params = ref.Params
	if err := f(r, ev); err != nil {
		r.log.Warn("behavior failed",
			zap.Stringer("kind", kind),
			zap.String("name", ref.Name),
			zap.String("map", ev.MapID),
			zap.Int("x", ev.X),
			zap.Int("y", ev.Y),
			zap.Error(err),
		)
	}
	return true
}
