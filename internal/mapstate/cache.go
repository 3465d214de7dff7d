package mapstate

import (
	"errors"
	"fmt"

	"gridrealm/internal/entity"
)

// Cache keeps the persisted entities of every map unloaded during a
// session. A snapshot replaces the previous one for the same map and is
// never evicted, so re-entering a map reproduces its last-seen state.
type Cache struct {
	snapshots map[string][]*entity.Entity
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{snapshots: make(map[string][]*entity.Entity)}
}

// Save stores entities as the snapshot for mapID, replacing any earlier
// one. The entities are kept by reference.
func (c *Cache) Save(mapID string, entities []*entity.Entity) {
	c.snapshots[mapID] = append([]*entity.Entity(nil), entities...)
}

// Restore returns the snapshot for mapID without clearing it. The bool is
// false when the map was never saved.
func (c *Cache) Restore(mapID string) ([]*entity.Entity, bool) {
	s, ok := c.snapshots[mapID]
	if !ok {
		return nil, false
	}
	return append([]*entity.Entity(nil), s...), true
}

// Has reports whether a snapshot exists for mapID.
func (c *Cache) Has(mapID string) bool {
	_, ok := c.snapshots[mapID]
	return ok
}

// Maps returns the number of maps with a snapshot.
func (c *Cache) Maps() int {
	return len(c.snapshots)
}

// Export serializes every snapshot.
func (c *Cache) Export() map[string][]entity.Record {
	out := make(map[string][]entity.Record, len(c.snapshots))
	for mapID, es := range c.snapshots {
		recs := make([]entity.Record, len(es))
		for i, e := range es {
			recs[i] = e.Record()
		}
		out[mapID] = recs
	}
	return out
}

// Import replaces the snapshots of the maps present in recs. Entities
// that cannot be decoded are reported and skipped.
func (c *Cache) Import(recs map[string][]entity.Record) error {
	var errs []error
	for mapID, rs := range recs {
		es := make([]*entity.Entity, 0, len(rs))
		for _, r := range rs {
			e, err := entity.FromRecord(r)
			if err != nil {
				errs = append(errs, fmt.Errorf("map %q: %w", mapID, err))
				continue
			}
			es = append(es, e)
		}
		c.snapshots[mapID] = es
	}
	return errors.Join(errs...)
}
