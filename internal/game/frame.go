package game

import (
	"sort"

	"gridrealm/internal/entity"
	"gridrealm/internal/maps"
)

// Cell is one terrain cell as drawn.
type Cell struct {
	Glyph rune
	Fg    int
}

// Frame is a read-only snapshot of a session, published once per tick for
// rendering.
type Frame struct {
	Tick       uint64
	MapID      string
	Title      string
	Cols       int
	Rows       int
	Terrain    []Cell        // row-major, Cols*Rows
	Units      []entity.View // non-terrain entities, lowest layer first
	Player     entity.View
	PlayerName string
	Message    string
}

// At returns the terrain cell at (x, y).
func (f *Frame) At(x, y int) Cell {
	return f.Terrain[x+y*f.Cols]
}

// buildFrame snapshots the active map. It returns false while no map is
// loaded.
func (s *Session) buildFrame() (Frame, bool) {
	def, err := s.rt.ActiveDefinition()
	if err != nil {
		return Frame{}, false
	}
	f := Frame{
		Tick:    s.tick,
		MapID:   def.ID,
		Title:   def.Title,
		Cols:    def.Dims.Cols,
		Rows:    def.Dims.Rows,
		Terrain: make([]Cell, def.Dims.Cells()),
		Player:  s.hero.View(),

		PlayerName: s.Name,
	}
	if s.messageTTL > 0 {
		f.Message = s.message
	}
	for _, e := range s.store.Entities() {
		if !def.InBounds(e.GridX, e.GridY) {
			continue
		}
		if e.MapTile {
			f.Terrain[maps.Index(def, e.GridX, e.GridY)] = Cell{Glyph: e.Glyph, Fg: e.Fg}
			continue
		}
		f.Units = append(f.Units, e.View())
	}
	sort.SliceStable(f.Units, func(i, j int) bool {
		return f.Units[i].Layer < f.Units[j].Layer
	})
	return f, true
}
