// Package session maps opaque tokens to logged-in identities for the web
// frontend. Sessions live only as long as the process: there is no
// persistence, no expiry and no renewal.
package session

import (
	"sync"

	"github.com/google/uuid"
)

// Service is the session lifecycle the frontend depends on.
type Service interface {
	// Create registers a new session for identity and returns its token.
	Create(identity string) string

	// Lookup resolves a token to its identity. The second return is
	// false for unknown tokens.
	Lookup(token string) (string, bool)

	// Destroy removes a session. Destroying an absent token is a no-op.
	Destroy(token string)
}

// MemoryStore implements Service with a mutex-guarded map. Tokens are
// random UUIDs and assumed globally unique.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]string
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]string),
	}
}

func (s *MemoryStore) Create(identity string) string {
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = identity
	return token
}

func (s *MemoryStore) Lookup(token string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.sessions[token]
	return identity, ok
}

func (s *MemoryStore) Destroy(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}
