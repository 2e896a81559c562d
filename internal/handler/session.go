package handler

import (
	"sync"

	"github.com/xenking/commerce-core/internal/domain/cart"
)

// SessionStore maps anonymous session ids to their cart sessions. Sessions
// themselves are not locked; the store assumes one in-flight request per
// session, matching the engine's single-writer-per-order model.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*cart.MemorySession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*cart.MemorySession)}
}

// Get returns the session for the given id, creating it on first use.
func (s *SessionStore) Get(id string) *cart.MemorySession {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		session = cart.NewMemorySession()
		s.sessions[id] = session
	}
	return session
}
