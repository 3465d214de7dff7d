// Package behavior holds the named handlers that map data refers to by
// string: triggers fired on entry to a cell, actions fired on interaction,
// and lifecycle hooks. Map definitions only carry the names; the registry
// a runtime is configured with gives them meaning.
package behavior

import (
	"go.uber.org/zap"

	"gridrealm/internal/entity"
	"gridrealm/internal/maps"
)

// MoveOptions tunes Host.MoveEntity.
type MoveOptions struct {
	// Quiet suppresses ambient triggers for this move.
	Quiet bool
}

// Host is what a behavior may do to the running world.
type Host interface {
	// ActiveMap returns the loaded definition, or game.ErrNotLoaded.
	ActiveMap() (*maps.Definition, error)
	// Load switches to another map. entry nil means the map's default.
	Load(mapID string, entry *maps.EntryPoint) error
	// MoveEntity tries to move e and reports whether it moved.
	MoveEntity(e *entity.Entity, x, y int, opts MoveOptions) bool
	// Entities is the live entity collection.
	Entities() *entity.Store
	// Announce shows a message to the player.
	Announce(text string)
	// Logger returns the session logger.
	Logger() *zap.Logger
}

// Kind tells which table a behavior was dispatched from.
type Kind int

const (
	KindTrigger Kind = iota
	KindAction
	KindLifecycle
)

func (k Kind) String() string {
	switch k {
	case KindTrigger:
		return "trigger"
	case KindAction:
		return "action"
	case KindLifecycle:
		return "lifecycle"
	}
	return "unknown"
}

// Event is the call payload handed to a behavior.
type Event struct {
	Kind   Kind
	Name   string
	Params map[string]string

	// Entity is the mover for triggers, the invoker for actions and the
	// controlled entity for lifecycle hooks.
	Entity *entity.Entity
	// Target is the occupying entity of an entity-level action.
	Target *entity.Entity

	X, Y  int
	MapID string

	// Options is the lifecycle payload (entry point, restored flag).
	Options map[string]any
}

// Param returns a behavior parameter, or "" when absent.
func (ev Event) Param(key string) string {
	return ev.Params[key]
}

// Func is a behavior handler.
type Func func(h Host, ev Event) error

// Registry resolves behavior names per table.
type Registry struct {
	triggers map[string]Func
	actions  map[string]Func
	hooks    map[string]Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		triggers: make(map[string]Func),
		actions:  make(map[string]Func),
		hooks:    make(map[string]Func),
	}
}

// RegisterTrigger adds a trigger handler.
func (r *Registry) RegisterTrigger(name string, f Func) {
	r.triggers[name] = f
}

// RegisterAction adds an action handler.
func (r *Registry) RegisterAction(name string, f Func) {
	r.actions[name] = f
}

// RegisterHook adds a lifecycle handler.
func (r *Registry) RegisterHook(name string, f Func) {
	r.hooks[name] = f
}

// Trigger resolves a trigger name.
func (r *Registry) Trigger(name string) (Func, bool) {
	f, ok := r.triggers[name]
	return f, ok
}

// Action resolves an action name.
func (r *Registry) Action(name string) (Func, bool) {
	f, ok := r.actions[name]
	return f, ok
}

// Hook resolves a lifecycle hook name.
func (r *Registry) Hook(name string) (Func, bool) {
	f, ok := r.hooks[name]
	return f, ok
}

// Lookup resolves name in the table for kind.
func (r *Registry) Lookup(kind Kind, name string) (Func, bool) {
	switch kind {
	case KindTrigger:
		return r.Trigger(name)
	case KindAction:
		return r.Action(name)
	case KindLifecycle:
		return r.Hook(name)
	}
	return nil, false
}
