package game

import (
	"gridrealm/internal/behavior"
	"gridrealm/internal/entity"
	"gridrealm/internal/maps"
)

// AIRandom is the "ai" prop value of NPCs that wander.
const AIRandom = "random"

var wanderDirs = []maps.Facing{maps.FacingUp, maps.FacingDown, maps.FacingLeft, maps.FacingRight}

// wander advances every wandering NPC on the active map. Each keeps its
// tick counter in the aiTicks prop and steps to a random neighbor cell
// once it reaches thinkSpeed. Blocked steps are skipped.
func (s *Session) wander() {
	def, err := s.rt.ActiveDefinition()
	if err != nil {
		return
	}
	for _, e := range s.store.Entities(entity.OwnedBy(def.ID)) {
		if e.MapTile || e.Controlled || e.String("ai") != AIRandom {
			continue
		}
		speed := e.Int("thinkSpeed")
		if speed <= 0 {
			speed = DefaultThinkSpeed
		}
		ticks := e.Int("aiTicks") + 1
		if ticks < speed {
			e.Set("aiTicks", ticks)
			continue
		}
		e.Set("aiTicks", 0)

		// One extra slot means stand still this time.
		n := s.rng.IntN(len(wanderDirs) + 1)
		if n == len(wanderDirs) {
			continue
		}
		dir := wanderDirs[n]
		e.Facing = dir
		dx, dy := dir.Delta()
		s.rt.MoveEntity(e, e.GridX+dx, e.GridY+dy, behavior.MoveOptions{Quiet: true})
	}
}
