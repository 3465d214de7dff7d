// Package persistence stores player sessions between connections.
package persistence

import (
	"context"
	"errors"
	"fmt"

	"gridrealm/internal/config"
	"gridrealm/internal/entity"
	"gridrealm/internal/maps"
)

// ErrNotFound is returned when no session is stored under a name.
var ErrNotFound = errors.New("session not found")

// SessionRecord is everything needed to resume a player: where they stood
// and the last-seen state of every map they visited.
type SessionRecord struct {
	Name      string                     `json:"name"`
	MapID     string                     `json:"map_id"`
	X         int                        `json:"x"`
	Y         int                        `json:"y"`
	Facing    maps.Facing                `json:"facing,omitempty"`
	Player    *entity.Record             `json:"player,omitempty"`
	Snapshots map[string][]entity.Record `json:"snapshots,omitempty"`
}

// Storage defines the interface for session persistence.
type Storage interface {
	SaveSession(ctx context.Context, rec *SessionRecord) error
	LoadSession(ctx context.Context, name string) (*SessionRecord, error)
	Close() error
}

// Open creates the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverJSON:
		return NewJSONStore(cfg.Path)
	case config.DriverPostgres:
		return NewPostgresStore(ctx, cfg.DSN)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
