package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"

	"gridrealm/internal/persistence"
)

// Sessions tracks the online players of a server. The username is the
// player identity: a returning player resumes from storage, and a name
// already online gets a numeric suffix.
type Sessions struct {
	cfg     SessionConfig
	storage persistence.Storage
	log     *zap.Logger

	mu     deadlock.Mutex
	online map[string]*Session // keyed by effective name
}

// NewSessions creates a registry. storage may be nil, in which case
// sessions are not persisted.
func NewSessions(cfg SessionConfig, storage persistence.Storage) *Sessions {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	// Sessions run concurrently; each seeds its own source.
	cfg.Rand = nil
	return &Sessions{
		cfg:     cfg,
		storage: storage,
		log:     cfg.Logger,
		online:  make(map[string]*Session),
	}
}

// Open starts a session for username. Stored state is looked up under the
// username even when the effective name got a suffix.
func (r *Sessions) Open(ctx context.Context, username string) (*Session, error) {
	rec, err := r.load(ctx, username)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	name := username
	for i := 2; r.online[name] != nil; i++ {
		name = fmt.Sprintf("%s_%d", username, i)
	}
	// Reserve the name while the session is built.
	r.online[name] = &Session{}
	r.mu.Unlock()

	sess, err := NewSession(r.cfg, name, rec)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		delete(r.online, name)
		return nil, err
	}
	sess.User = username
	r.online[name] = sess
	r.log.Info("session opened", zap.String("player", name), zap.String("session", sess.ID), zap.Bool("resumed", rec != nil))
	return sess, nil
}

func (r *Sessions) load(ctx context.Context, username string) (*persistence.SessionRecord, error) {
	if r.storage == nil {
		return nil, nil
	}
	rec, err := r.storage.LoadSession(ctx, username)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", username, err)
	}
	return rec, nil
}

// Close saves sess and removes it from the registry. Only sessions that
// own the base username are saved, so a duplicate login does not
// overwrite the first session's progress. Close must be called after the
// session's Run has returned.
func (r *Sessions) Close(ctx context.Context, sess *Session) error {
	r.mu.Lock()
	if r.online[sess.Name] == sess {
		delete(r.online, sess.Name)
	}
	r.mu.Unlock()
	r.log.Info("session closed", zap.String("player", sess.Name), zap.String("session", sess.ID))

	if r.storage == nil || sess.Name != sess.User {
		return nil
	}
	if err := r.storage.SaveSession(ctx, sess.Record()); err != nil {
		return fmt.Errorf("save session %q: %w", sess.User, err)
	}
	return nil
}

// Online returns the number of open sessions.
func (r *Sessions) Online() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.online)
}
