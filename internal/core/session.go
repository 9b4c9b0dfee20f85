package core

import (
	"sync"

	"github.com/google/uuid"

	"citabot/pkg"
)

// SessionStore owns the live conversations.  It hands each turn exclusive
// access to its session, so the engine itself needs no locking: turns on
// the same session are serialized, turns on different sessions run in
// parallel.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	mu      sync.Mutex
	session *pkg.Session
}

// NewSessionStore constructs an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*sessionEntry)}
}

// Create registers a new conversation in the identification phase and
// returns its id.
func (s *SessionStore) Create() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &sessionEntry{
		session: &pkg.Session{ID: id, Phase: pkg.PhaseAwaitingID},
	}
	s.mu.Unlock()
	return id
}

// Turn runs fn with exclusive access to the session.  Returns
// pkg.ErrSessionNotFound for unknown ids.
func (s *SessionStore) Turn(id string, fn func(*pkg.Session) (string, error)) (string, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return "", pkg.ErrSessionNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.session)
}

// Delete tears a conversation down.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}
