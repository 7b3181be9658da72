package identity

import (
	"context"
	"sync"
	"time"
)

// Store persists sessions between requests. Implementations must return
// ErrSessionNotFound for unknown or expired IDs.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, session *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Close() error
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// MemoryStore is an in-process session store. It is the default when no
// Redis address is configured; sessions do not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryEntry)}
}

// Get returns the stored session or ErrSessionNotFound.
func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, ErrSessionNotFound
	}
	session := entry.session
	return &session, nil
}

// Put stores a copy of the session under its ID.
func (s *MemoryStore) Put(_ context.Context, session *Session, ttl time.Duration) error {
	s.mu.Lock()
	s.sessions[session.ID] = memoryEntry{session: *session, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

// Delete removes the session. Deleting an unknown ID is not an error.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
