package entity

import (
	"github.com/oklog/ulid/v2"
)

// Filter selects entities in Store.Entities.
type Filter func(*Entity) bool

// AtCell matches entities occupying (x, y).
func AtCell(x, y int) Filter {
	return func(e *Entity) bool { return e.At(x, y) }
}

// OwnedBy matches entities belonging to mapID.
func OwnedBy(mapID string) Filter {
	return func(e *Entity) bool { return e.OwnerMap == mapID }
}

// Store is the live entity collection of one game session. It is not safe
// for concurrent use; the session loop is its only user.
type Store struct {
	kinds    *Kinds
	entities []*Entity
}

// NewStore creates an empty store using kinds to build entities.
func NewStore(kinds *Kinds) *Store {
	if kinds == nil {
		kinds = DefaultKinds()
	}
	return &Store{kinds: kinds}
}

// Entities returns the entities matching every filter, in insertion order.
// The returned slice is a copy; the entities are shared.
func (s *Store) Entities(filters ...Filter) []*Entity {
	out := make([]*Entity, 0, len(s.entities))
next:
	for _, e := range s.entities {
		for _, f := range filters {
			if !f(e) {
				continue next
			}
		}
		out = append(out, e)
	}
	return out
}

// Create builds a new entity of kind from props. The entity is not added.
func (s *Store) Create(kind string, props map[string]any) *Entity {
	e := s.kinds.build(kind, props)
	e.ID = ulid.Make()
	return e
}

// Add appends entities to the collection.
func (s *Store) Add(es ...*Entity) {
	s.entities = append(s.entities, es...)
}

// Remove deletes e by identity. It reports whether e was present.
func (s *Store) Remove(e *Entity) bool {
	for i, x := range s.entities {
		if x == e {
			s.entities = append(s.entities[:i], s.entities[i+1:]...)
			return true
		}
	}
	return false
}

// SetEntities replaces the whole collection.
func (s *Store) SetEntities(es []*Entity) {
	s.entities = append([]*Entity(nil), es...)
}

// Controlled returns the controlled entity, or nil if there is none.
func (s *Store) Controlled() *Entity {
	for _, e := range s.entities {
		if e.Controlled {
			return e
		}
	}
	return nil
}

// Len returns the number of live entities.
func (s *Store) Len() int {
	return len(s.entities)
}
