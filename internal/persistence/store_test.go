package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridrealm/internal/config"
	"gridrealm/internal/entity"
	"gridrealm/internal/maps"
)

func sampleRecord(t *testing.T) *SessionRecord {
	t.Helper()
	s := entity.NewStore(nil)
	hero := s.Create(entity.KindPlayer, map[string]any{"inventory": []any{"lantern"}})
	dog := s.Create(entity.KindDog, map[string]any{"aiTicks": 4})
	dog.OwnerMap = "cave"
	dog.Persistent = true
	dog.SetCell(3, 4, 1, 1)

	player := hero.Record()
	return &SessionRecord{
		Name:   "alice",
		MapID:  "cave",
		X:      5,
		Y:      6,
		Facing: maps.FacingLeft,
		Player: &player,
		Snapshots: map[string][]entity.Record{
			"cave":  {dog.Record()},
			"world": {},
		},
	}
}

func testStorage(t *testing.T, open func(t *testing.T) Storage) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		s := open(t)
		_, err := s.LoadSession(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("round trip", func(t *testing.T) {
		s := open(t)
		rec := sampleRecord(t)
		require.NoError(t, s.SaveSession(ctx, rec))

		got, err := s.LoadSession(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "cave", got.MapID)
		assert.Equal(t, 5, got.X)
		assert.Equal(t, 6, got.Y)
		assert.Equal(t, maps.FacingLeft, got.Facing)
		require.NotNil(t, got.Player)
		assert.Equal(t, rec.Player.ID, got.Player.ID)
		require.Len(t, got.Snapshots["cave"], 1)
		assert.Equal(t, rec.Snapshots["cave"][0].ID, got.Snapshots["cave"][0].ID)
		assert.Equal(t, 3, got.Snapshots["cave"][0].X)
		assert.Contains(t, got.Snapshots, "world")

		dog, err := entity.FromRecord(got.Snapshots["cave"][0])
		require.NoError(t, err)
		assert.Equal(t, 4, dog.Int("aiTicks"))
	})

	t.Run("overwrite", func(t *testing.T) {
		s := open(t)
		rec := sampleRecord(t)
		require.NoError(t, s.SaveSession(ctx, rec))
		rec.MapID = "world"
		rec.X = 1
		require.NoError(t, s.SaveSession(ctx, rec))

		got, err := s.LoadSession(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "world", got.MapID)
		assert.Equal(t, 1, got.X)
	})

	t.Run("isolated from caller", func(t *testing.T) {
		s := open(t)
		rec := sampleRecord(t)
		require.NoError(t, s.SaveSession(ctx, rec))
		rec.X = 99
		rec.Snapshots["cave"][0].X = 99

		got, err := s.LoadSession(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 5, got.X)
		assert.Equal(t, 3, got.Snapshots["cave"][0].X)
	})
}

func TestMemoryStore(t *testing.T) {
	testStorage(t, func(t *testing.T) Storage {
		s := NewMemoryStore()
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestJSONStore(t *testing.T) {
	testStorage(t, func(t *testing.T) Storage {
		s, err := NewJSONStore(filepath.Join(t.TempDir(), "db", "sessions.json"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestJSONStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.json")

	s, err := NewJSONStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveSession(ctx, sampleRecord(t)))
	require.NoError(t, s.Close())

	again, err := NewJSONStore(path)
	require.NoError(t, err)
	got, err := again.LoadSession(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "cave", got.MapID)
}

func TestJSONStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := NewJSONStore(path)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StorageConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, config.StorageConfig{Driver: config.DriverJSON, Path: filepath.Join(t.TempDir(), "s.json")})
	require.NoError(t, err)
	assert.IsType(t, &JSONStore{}, s)

	_, err = Open(ctx, config.StorageConfig{Driver: "redis"})
	assert.Error(t, err)
}
