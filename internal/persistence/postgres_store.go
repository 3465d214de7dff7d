package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"gridrealm/internal/entity"
	"gridrealm/internal/maps"
)

// PostgresStore persists sessions in a PostgreSQL table. Map snapshots
// and the player entity are stored as JSONB.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to dsn and creates the schema if needed.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		name TEXT PRIMARY KEY,
		map_id TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		facing TEXT NOT NULL DEFAULT '',
		player JSONB,
		snapshots JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *PostgresStore) SaveSession(ctx context.Context, rec *SessionRecord) error {
	player, err := json.Marshal(rec.Player)
	if err != nil {
		return fmt.Errorf("marshal player %q: %w", rec.Name, err)
	}
	snapshots := rec.Snapshots
	if snapshots == nil {
		snapshots = map[string][]entity.Record{}
	}
	snapJSON, err := json.Marshal(snapshots)
	if err != nil {
		return fmt.Errorf("marshal snapshots %q: %w", rec.Name, err)
	}

	const query = `
	INSERT INTO sessions (name, map_id, x, y, facing, player, snapshots)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (name)
	DO UPDATE SET
		map_id = $2, x = $3, y = $4, facing = $5,
		player = $6, snapshots = $7,
		updated_at = NOW()
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.Name, rec.MapID, rec.X, rec.Y, string(rec.Facing),
		string(player), string(snapJSON))
	if err != nil {
		return fmt.Errorf("save session %q: %w", rec.Name, err)
	}
	return nil
}

func (s *PostgresStore) LoadSession(ctx context.Context, name string) (*SessionRecord, error) {
	const query = `SELECT name, map_id, x, y, facing, player, snapshots FROM sessions WHERE name = $1`

	var (
		rec       SessionRecord
		facing    string
		player    sql.NullString
		snapshots string
	)
	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&rec.Name, &rec.MapID, &rec.X, &rec.Y, &facing, &player, &snapshots,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", name, err)
	}
	rec.Facing = maps.Facing(facing)

	if player.Valid && player.String != "null" {
		if err := json.Unmarshal([]byte(player.String), &rec.Player); err != nil {
			return nil, fmt.Errorf("unmarshal player %q: %w", name, err)
		}
	}
	if err := json.Unmarshal([]byte(snapshots), &rec.Snapshots); err != nil {
		return nil, fmt.Errorf("unmarshal snapshots %q: %w", name, err)
	}
	return &rec, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
