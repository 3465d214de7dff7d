package game

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridrealm/internal/behavior"
	"gridrealm/internal/entity"
	"gridrealm/internal/maps"
	"gridrealm/internal/persistence"
)

func townMaps(t *testing.T) *maps.Catalog {
	t.Helper()
	town := maps.Blank("town", 6, 6)
	town.Title = "Town"
	town.Entry = maps.EntryPoint{X: 1, Y: 1, Facing: maps.FacingDown}
	town.ActionGrid[maps.Index(town, 1, 2)] = 1
	town.Actions[1] = maps.BehaviorRef{Name: "sign", Params: map[string]string{"text": "Welcome."}}
	town.TriggerGrid[maps.Index(town, 4, 1)] = 1
	town.Triggers[1] = maps.BehaviorRef{Name: maps.WarpBehavior, Params: map[string]string{"map": "field", "x": "0", "y": "0"}}

	field := maps.Blank("field", 3, 3)
	field.NPCSpawnGrid[maps.Index(field, 2, 2)] = "d"
	field.NPCTemplates["d"] = maps.NPCTemplate{Kind: entity.KindDog, Props: map[string]any{"ai": AIRandom, "thinkSpeed": 5}}

	catalog, err := maps.NewCatalog(town, field)
	require.NoError(t, err)
	return catalog
}

func sessionConfig(t *testing.T) SessionConfig {
	return SessionConfig{
		Catalog:  townMaps(t),
		StartMap: "town",
		TickRate: 20,
		Rand:     rand.New(rand.NewPCG(1, 2)),
	}
}

func newTestSession(t *testing.T, cfg SessionConfig) *Session {
	t.Helper()
	s, err := NewSession(cfg, "alice", nil)
	require.NoError(t, err)
	return s
}

// lastFrame drains the frame channel and returns the newest frame.
func lastFrame(t *testing.T, s *Session) Frame {
	t.Helper()
	var (
		f   Frame
		got bool
	)
	for {
		select {
		case next := <-s.frames:
			f, got = next, true
		default:
			require.True(t, got, "no frame published")
			return f
		}
	}
}

func dogOf(t *testing.T, s *Session) *entity.Entity {
	t.Helper()
	for _, e := range s.store.Entities(entity.OwnedBy("field")) {
		if e.Kind == entity.KindDog {
			return e
		}
	}
	t.Fatal("no dog on field")
	return nil
}

func TestNewSessionLoadsStartMap(t *testing.T) {
	s := newTestSession(t, sessionConfig(t))
	def, err := s.Runtime().ActiveDefinition()
	require.NoError(t, err)
	assert.Equal(t, "town", def.ID)
	assert.Equal(t, 1, s.Player().GridX)
	assert.Equal(t, 1, s.Player().GridY)
	assert.Equal(t, "alice", s.Player().String("name"))
	assert.NotEmpty(t, s.ID)
}

func TestNewSessionUnknownStartMap(t *testing.T) {
	cfg := sessionConfig(t)
	cfg.StartMap = "nowhere"
	_, err := NewSession(cfg, "alice", nil)
	var unknown *maps.UnknownMapError
	assert.ErrorAs(t, err, &unknown)
}

func TestSessionMoveCooldown(t *testing.T) {
	cfg := sessionConfig(t)
	cfg.MoveRepeat = 0.15 // three ticks at 20/s
	s := newTestSession(t, cfg)

	s.Input(ActionRight)
	s.Input(ActionRight)
	s.step()
	assert.Equal(t, 2, s.Player().GridX, "second move waits for the cooldown")
	assert.Equal(t, maps.FacingRight, s.Player().Facing)

	for i := 0; i < 2; i++ {
		s.Input(ActionRight)
		s.step()
		assert.Equal(t, 2, s.Player().GridX)
	}
	s.Input(ActionRight)
	s.step()
	assert.Equal(t, 3, s.Player().GridX)
}

func TestSessionBlockedMoveKeepsCooldownFree(t *testing.T) {
	cfg := sessionConfig(t)
	cfg.MoveRepeat = 1
	s := newTestSession(t, cfg)
	require.NoError(t, s.Runtime().Load("town", &maps.EntryPoint{X: 0, Y: 0}))

	s.Input(ActionUp) // into the top edge
	s.Input(ActionRight)
	s.Input(ActionRight)
	s.step()
	assert.Equal(t, 1, s.Player().GridX)
	assert.Equal(t, 0, s.Player().GridY)
	assert.Equal(t, maps.FacingRight, s.Player().Facing)
}

// stepFrame runs one tick and returns the frame it published.
func stepFrame(t *testing.T, s *Session) Frame {
	t.Helper()
	for len(s.frames) > 0 {
		<-s.frames
	}
	s.step()
	return lastFrame(t, s)
}

func TestSessionActAnnounces(t *testing.T) {
	s := newTestSession(t, sessionConfig(t))
	s.Input(ActionAct)
	f := stepFrame(t, s)
	assert.Equal(t, "Welcome.", f.Message)
	assert.Equal(t, "Town", f.Title)

	ttl := SecsToTicks(MessageDuration, 20)
	for i := 1; i < ttl-1; i++ {
		s.step()
	}
	assert.Equal(t, "Welcome.", stepFrame(t, s).Message)
	assert.Empty(t, stepFrame(t, s).Message)
}

func TestSessionWarp(t *testing.T) {
	s := newTestSession(t, sessionConfig(t))
	for i := 0; i < 3; i++ {
		s.Input(ActionRight)
	}
	f := stepFrame(t, s)
	assert.Equal(t, "field", f.MapID)
	assert.Equal(t, 0, f.Player.X)
	assert.Equal(t, 0, f.Player.Y)
	assert.Len(t, f.Terrain, 9)
	require.Len(t, f.Units, 2)
	assert.Equal(t, entity.KindDog, f.Units[0].Kind, "units are ordered by layer")
	assert.True(t, f.Units[1].Controlled)
}

func TestSessionWander(t *testing.T) {
	s := newTestSession(t, sessionConfig(t))
	require.NoError(t, s.Runtime().Load("field", nil))
	dog := dogOf(t, s)

	for i := 0; i < 3; i++ {
		s.step()
	}
	assert.Equal(t, 3, dog.Int("aiTicks"))
	assert.Equal(t, 2, dog.GridX)
	assert.Equal(t, 2, dog.GridY)

	for i := 0; i < 50; i++ {
		s.step()
		def, err := s.Runtime().ActiveDefinition()
		require.NoError(t, err)
		require.True(t, def.InBounds(dog.GridX, dog.GridY))
	}
	assert.Less(t, dog.Int("aiTicks"), 5)
}

func TestSessionRunQuit(t *testing.T) {
	s := newTestSession(t, sessionConfig(t))
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	s.Input(ActionQuit)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop")
	}

	for range s.Frames() {
	}
}

func TestSessionRunCancel(t *testing.T) {
	s := newTestSession(t, sessionConfig(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	f, ok := <-s.Frames()
	require.True(t, ok)
	assert.Equal(t, "town", f.MapID)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop")
	}
}

func TestSessionRecordAndResume(t *testing.T) {
	cfg := sessionConfig(t)
	s := newTestSession(t, cfg)
	behavior.GiveItem(s.Player(), "lantern")
	require.NoError(t, s.Runtime().Load("field", &maps.EntryPoint{X: 1, Y: 0, Facing: maps.FacingLeft}))
	dog := dogOf(t, s)
	require.True(t, s.Runtime().MoveEntity(dog, 2, 1, behavior.MoveOptions{}))

	rec := s.Record()
	assert.Equal(t, "field", rec.MapID)
	assert.Equal(t, 1, rec.X)
	assert.Equal(t, 0, rec.Y)
	assert.Equal(t, maps.FacingLeft, rec.Facing)
	assert.Len(t, rec.Snapshots["field"], 1)
	assert.Contains(t, rec.Snapshots, "town")

	back, err := NewSession(cfg, "alice", rec)
	require.NoError(t, err)
	def, err := back.Runtime().ActiveDefinition()
	require.NoError(t, err)
	assert.Equal(t, "field", def.ID)
	assert.Equal(t, 1, back.Player().GridX)
	assert.Equal(t, 0, back.Player().GridY)
	assert.True(t, back.Player().Controlled)
	assert.Equal(t, []string{"lantern"}, behavior.Inventory(back.Player()))

	again := dogOf(t, back)
	assert.Equal(t, dog.ID, again.ID)
	assert.Equal(t, 2, again.GridX)
	assert.Equal(t, 1, again.GridY)
	assert.Len(t, back.store.Entities(entity.OwnedBy("field")), 10, "no second dog")
}

func TestSessionResumeMissingMap(t *testing.T) {
	cfg := sessionConfig(t)
	s, err := NewSession(cfg, "alice", &persistence.SessionRecord{Name: "alice", MapID: "gone", X: 2, Y: 2})
	require.NoError(t, err)
	def, err := s.Runtime().ActiveDefinition()
	require.NoError(t, err)
	assert.Equal(t, "town", def.ID)
}

func TestSessionsRegistry(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewMemoryStore()
	cfg := sessionConfig(t)
	reg := NewSessions(cfg, store)

	first, err := reg.Open(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", first.Name)

	dup, err := reg.Open(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice_2", dup.Name)
	assert.Equal(t, 2, reg.Online())

	require.NoError(t, reg.Close(ctx, dup))
	_, err = store.LoadSession(ctx, "alice")
	assert.ErrorIs(t, err, persistence.ErrNotFound, "duplicates are not saved")

	require.True(t, first.Runtime().MoveEntity(first.Player(), 2, 1, behavior.MoveOptions{}))
	require.NoError(t, reg.Close(ctx, first))
	assert.Zero(t, reg.Online())

	resumed, err := reg.Open(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", resumed.Name)
	assert.Equal(t, 2, resumed.Player().GridX)
	assert.Equal(t, 1, resumed.Player().GridY)
}

func TestSessionsOpenFailureFreesName(t *testing.T) {
	cfg := sessionConfig(t)
	cfg.StartMap = "nowhere"
	reg := NewSessions(cfg, nil)

	_, err := reg.Open(context.Background(), "bob")
	require.Error(t, err)
	assert.Zero(t, reg.Online())
}

func TestParseAction(t *testing.T) {
	tests := map[string]Action{
		"up":        ActionUp,
		"move left": ActionLeft,
		" Right ":   ActionRight,
		"act":       ActionAct,
		"interact":  ActionAct,
		"quit":      ActionQuit,
		"dance":     ActionNone,
		"":          ActionNone,
		"move down": ActionDown,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseAction(in), in)
	}
}

func TestKeyAction(t *testing.T) {
	tests := map[rune]Action{
		'w':  ActionUp,
		'A':  ActionLeft,
		's':  ActionDown,
		'D':  ActionRight,
		' ':  ActionAct,
		'\r': ActionAct,
		'E':  ActionAct,
		'q':  ActionQuit,
		0x03: ActionQuit,
		'x':  ActionNone,
	}
	for r, want := range tests {
		assert.Equal(t, want, KeyAction(r), "%q", r)
	}
}

func TestSecsToTicks(t *testing.T) {
	assert.Equal(t, 0, SecsToTicks(0, 20))
	assert.Equal(t, 1, SecsToTicks(0.01, 20))
	assert.Equal(t, 3, SecsToTicks(0.15, 20))
	assert.Equal(t, 80, SecsToTicks(4, 20))
}
