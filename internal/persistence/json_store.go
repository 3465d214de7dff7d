package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSONStore persists sessions to a single local JSON file.
type JSONStore struct {
	filePath string
	mu       sync.RWMutex
	data     *jsonData
}

type jsonData struct {
	Sessions map[string]*SessionRecord `json:"sessions"`
}

// NewJSONStore opens filePath, creating it when it does not exist.
func NewJSONStore(filePath string) (*JSONStore, error) {
	s := &JSONStore{
		filePath: filePath,
		data:     &jsonData{Sessions: make(map[string]*SessionRecord)},
	}

	raw, err := os.ReadFile(filePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if dir := filepath.Dir(filePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create json store dir: %w", err)
			}
		}
		if err := s.flush(); err != nil {
			return nil, fmt.Errorf("create json store file: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("read json store: %w", err)
	default:
		if err := json.Unmarshal(raw, s.data); err != nil {
			return nil, fmt.Errorf("decode json store %s: %w", filePath, err)
		}
		if s.data.Sessions == nil {
			s.data.Sessions = make(map[string]*SessionRecord)
		}
	}
	return s, nil
}

// flush writes the whole file. Callers hold mu or own s exclusively.
func (s *JSONStore) flush() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.filePath)
}

func (s *JSONStore) SaveSession(_ context.Context, rec *SessionRecord) error {
	// Round-trip through JSON so the stored record shares nothing with
	// the caller's.
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session %q: %w", rec.Name, err)
	}
	var cp SessionRecord
	if err := json.Unmarshal(raw, &cp); err != nil {
		return fmt.Errorf("encode session %q: %w", rec.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Sessions[rec.Name] = &cp
	if err := s.flush(); err != nil {
		return fmt.Errorf("save session %q: %w", rec.Name, err)
	}
	return nil
}

func (s *JSONStore) LoadSession(_ context.Context, name string) (*SessionRecord, error) {
	s.mu.RLock()
	rec, ok := s.data.Sessions[name]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("load session %q: %w", name, err)
	}
	var out SessionRecord
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("load session %q: %w", name, err)
	}
	return &out, nil
}

// Close is a no-op; every save is flushed immediately.
func (s *JSONStore) Close() error {
	return nil
}
