package behavior

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"gridrealm/internal/entity"
	"gridrealm/internal/maps"
)

// Builtins returns a registry with the stock behaviors.
func Builtins() *Registry {
	r := NewRegistry()
	r.RegisterTrigger(maps.WarpBehavior, Warp)
	r.RegisterAction(maps.WarpBehavior, Warp)
	r.RegisterTrigger("message", Sign)
	r.RegisterAction("sign", Sign)
	r.RegisterAction("talk", Talk)
	r.RegisterAction("open-chest", OpenChest)
	r.RegisterHook("announce-map", AnnounceMap)
	r.RegisterTrigger("log", Log)
	r.RegisterAction("log", Log)
	r.RegisterHook("log", Log)
	return r
}

// Warp loads the map named by the "map" param. "x" and "y" select the
// entry cell, otherwise the target's default entry point is used.
func Warp(h Host, ev Event) error {
	target := ev.Param("map")
	if target == "" {
		return fmt.Errorf("warp: missing map param")
	}
	var entry *maps.EntryPoint
	x, errX := strconv.Atoi(ev.Param("x"))
	y, errY := strconv.Atoi(ev.Param("y"))
	if errX == nil && errY == nil {
		entry = &maps.EntryPoint{X: x, Y: y, Facing: maps.Facing(ev.Param("facing"))}
	}
	if err := h.Load(target, entry); err != nil {
		return fmt.Errorf("warp to %q: %w", target, err)
	}
	return nil
}

// Sign announces the "text" param.
func Sign(h Host, ev Event) error {
	if text := ev.Param("text"); text != "" {
		h.Announce(text)
	}
	return nil
}

// Talk announces the occupant's "line" prop, prefixed with its "name".
func Talk(h Host, ev Event) error {
	if ev.Target == nil {
		return nil
	}
	line := ev.Target.String("line")
	if line == "" {
		return nil
	}
	if name := ev.Target.String("name"); name != "" {
		line = name + ": " + line
	}
	h.Announce(line)
	return nil
}

// OpenChest hands the chest's item to the invoker once. An occupying chest
// entity keeps its own opened flag; a map-level chest is remembered on the
// invoker, keyed by map and cell.
func OpenChest(h Host, ev Event) error {
	if ev.Entity == nil {
		return nil
	}
	var (
		item   string
		holder *entity.Entity
		key    string
	)
	if ev.Target != nil {
		holder, key = ev.Target, "opened"
		item = ev.Target.String("item")
	} else {
		holder, key = ev.Entity, fmt.Sprintf("chest:%s:%d:%d", ev.MapID, ev.X, ev.Y)
		item = ev.Param("item")
	}
	if holder.Bool(key) {
		h.Announce("The chest is empty.")
		return nil
	}
	holder.Set(key, true)
	if item == "" {
		h.Announce("The chest is empty.")
		return nil
	}
	GiveItem(ev.Entity, item)
	h.Announce("You found a " + item + ".")
	return nil
}

// GiveItem appends item to e's "inventory" prop.
func GiveItem(e *entity.Entity, item string) {
	inv, _ := e.Props["inventory"].([]any)
	e.Set("inventory", append(inv, item))
}

// Inventory returns the item names in e's "inventory" prop.
func Inventory(e *entity.Entity) []string {
	inv, _ := e.Props["inventory"].([]any)
	out := make([]string, 0, len(inv))
	for _, v := range inv {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// AnnounceMap announces the title of the map just entered.
func AnnounceMap(h Host, ev Event) error {
	def, err := h.ActiveMap()
	if err != nil {
		return err
	}
	h.Announce("Entered " + def.Title + ".")
	return nil
}

// Log writes the event to the session logger.
func Log(h Host, ev Event) error {
	h.Logger().Info("behavior",
		zap.Stringer("kind", ev.Kind),
		zap.String("map", ev.MapID),
		zap.Int("x", ev.X),
		zap.Int("y", ev.Y),
		zap.Any("params", ev.Params),
	)
	return nil
}
