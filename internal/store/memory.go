package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ahietala/whodunit/internal/errors"
	"github.com/ahietala/whodunit/internal/game"
)

// MemoryStore keeps sessions in process memory. Sessions are copied on the
// way in and out so callers never share mutable state through the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, session *game.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "marshal session")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = payload
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*game.Session, error) {
	s.mu.RLock()
	payload, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, game.ErrSessionNotFound
	}
	var session game.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, errors.Wrap(err, "unmarshal session")
	}
	return &session, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
