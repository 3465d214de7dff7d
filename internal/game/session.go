package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"gridrealm/internal/behavior"
	"gridrealm/internal/entity"
	"gridrealm/internal/maps"
	"gridrealm/internal/persistence"
)

// SessionConfig holds what every session of a server shares.
type SessionConfig struct {
	Catalog    *maps.Catalog
	Behaviors  *behavior.Registry
	Kinds      *entity.Kinds
	StartMap   string
	CellWidth  int
	CellHeight int
	TickRate   int
	MoveRepeat float64 // seconds
	Logger     *zap.Logger
	// Rand drives NPC wandering. Nil seeds a fresh source per session.
	Rand *rand.Rand
}

// Session is one player's game: a runtime with its own entity store and
// snapshot cache, driven by a tick loop. All game state is confined to
// the goroutine running Run; other goroutines talk to it through Input
// and Frames.
type Session struct {
	ID   string
	Name string // effective player name
	User string // login name, set by Sessions

	rt    *Runtime
	store *entity.Store
	hero  *entity.Entity
	log   *zap.Logger
	rng   *rand.Rand

	inputCh chan Action
	frames  chan Frame

	tickRate     int
	moveDelay    int
	cooldown     int
	tick         uint64
	message      string
	messageTTL   int
	messageTicks int

	quit      bool
	closeOnce sync.Once
}

// NewSession creates a session for name and loads its first map. A non-nil
// rec resumes a stored session: its map snapshots are restored and the
// player is placed where it left off. A stored map that no longer exists
// falls back to the start map.
func NewSession(cfg SessionConfig, name string, rec *persistence.SessionRecord) (*Session, error) {
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultTickRate
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	id := ulid.Make().String()
	s := &Session{
		ID:           id,
		Name:         name,
		store:        entity.NewStore(cfg.Kinds),
		log:          cfg.Logger.With(zap.String("session", id), zap.String("player", name)),
		rng:          cfg.Rand,
		inputCh:      make(chan Action, InputChanSize),
		frames:       make(chan Frame, 2),
		tickRate:     cfg.TickRate,
		moveDelay:    SecsToTicks(cfg.MoveRepeat, cfg.TickRate),
		messageTicks: SecsToTicks(MessageDuration, cfg.TickRate),
	}
	s.rt = NewRuntime(RuntimeConfig{
		Catalog:    cfg.Catalog,
		Store:      s.store,
		Behaviors:  cfg.Behaviors,
		CellWidth:  cfg.CellWidth,
		CellHeight: cfg.CellHeight,
		Logger:     s.log,
		Announce:   s.announce,
	})

	if err := s.restore(rec); err != nil {
		return nil, err
	}
	if s.hero == nil {
		s.hero = s.store.Create(entity.KindPlayer, map[string]any{"name": name})
	}
	s.store.Add(s.hero)

	if rec != nil && rec.MapID != "" {
		err := s.rt.Load(rec.MapID, &maps.EntryPoint{X: rec.X, Y: rec.Y, Facing: rec.Facing})
		if err == nil {
			return s, nil
		}
		s.log.Warn("stored map unavailable, using start map", zap.String("map", rec.MapID), zap.Error(err))
	}
	if err := s.rt.Load(cfg.StartMap, nil); err != nil {
		return nil, fmt.Errorf("load start map: %w", err)
	}
	return s, nil
}

func (s *Session) restore(rec *persistence.SessionRecord) error {
	if rec == nil {
		return nil
	}
	if err := s.rt.Cache().Import(rec.Snapshots); err != nil {
		s.log.Warn("some stored entities were skipped", zap.Error(err))
	}
	if rec.Player == nil {
		return nil
	}
	hero, err := entity.FromRecord(*rec.Player)
	if err != nil {
		return fmt.Errorf("restore player %q: %w", rec.Name, err)
	}
	hero.Controlled = true
	hero.OwnerMap = ""
	s.hero = hero
	return nil
}

// Runtime returns the session's map runtime. It must only be used from
// the goroutine running Run, or before Run starts.
func (s *Session) Runtime() *Runtime {
	return s.rt
}

// Player returns the controlled entity, with the same restriction as
// Runtime.
func (s *Session) Player() *entity.Entity {
	return s.hero
}

// Frames returns the channel frames are published on. It is closed when
// Run returns.
func (s *Session) Frames() <-chan Frame {
	return s.frames
}

// Input queues a command for the next tick. Commands are dropped when
// the queue is full.
func (s *Session) Input(a Action) {
	select {
	case s.inputCh <- a:
	default:
		s.log.Debug("input dropped", zap.Stringer("action", a))
	}
}

// Run drives the session until ctx is cancelled or the player quits.
func (s *Session) Run(ctx context.Context) error {
	defer s.closeOnce.Do(func() { close(s.frames) })

	ticker := time.NewTicker(time.Second / time.Duration(s.tickRate))
	defer ticker.Stop()

	s.publish()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			s.step()
			if s.quit {
				return nil
			}
		}
	}
}

// step advances the session by one tick.
func (s *Session) step() {
	s.tick++
	if s.cooldown > 0 {
		s.cooldown--
	}
	if s.messageTTL > 0 {
		s.messageTTL--
	}

	// Drain all pending input.
drain:
	for {
		select {
		case a := <-s.inputCh:
			s.handle(a)
			if s.quit {
				return
			}
		default:
			break drain
		}
	}

	s.wander()
	s.publish()
}

func (s *Session) handle(a Action) {
	switch {
	case a == ActionQuit:
		s.quit = true
	case a == ActionAct:
		dx, dy := s.hero.Facing.Delta()
		s.rt.ResolveAction(s.hero, s.hero.GridX+dx, s.hero.GridY+dy)
	case a.IsMove():
		if s.cooldown > 0 {
			return
		}
		facing := a.Facing()
		s.hero.Facing = facing
		dx, dy := facing.Delta()
		if s.rt.MoveEntity(s.hero, s.hero.GridX+dx, s.hero.GridY+dy, behavior.MoveOptions{}) {
			s.cooldown = s.moveDelay
		}
	}
}

// publish sends the current frame without blocking. A consumer that has
// not taken the previous frames misses this one.
func (s *Session) publish() {
	f, ok := s.buildFrame()
	if !ok {
		return
	}
	select {
	case s.frames <- f:
	default:
	}
}

func (s *Session) announce(text string) {
	s.message = text
	s.messageTTL = s.messageTicks
	s.log.Debug("announce", zap.String("text", text))
}

// Record captures the session for storage: position, the player entity
// and the snapshot of every visited map, the active one included. It must
// not be called while Run is executing.
func (s *Session) Record() *persistence.SessionRecord {
	player := s.hero.Record()
	rec := &persistence.SessionRecord{
		Name:      s.Name,
		X:         s.hero.GridX,
		Y:         s.hero.GridY,
		Facing:    s.hero.Facing,
		Player:    &player,
		Snapshots: s.rt.Cache().Export(),
	}
	if def, err := s.rt.ActiveDefinition(); err == nil {
		rec.MapID = def.ID
		live := make([]entity.Record, 0)
		for _, e := range s.store.Entities(entity.OwnedBy(def.ID)) {
			if e.Persistent {
				live = append(live, e.Record())
			}
		}
		rec.Snapshots[def.ID] = live
	}
	return rec
}
