package router

import (
	"context"
	"sync"
)

// SessionStore holds the unclear-turn counter per session.
type SessionStore interface {
	// MarkUnclear records an unclear turn and returns the counter value it found. A counter
	// of 0 becomes 1; a counter of 1 or more is left unchanged. The read and the write are
	// atomic per session.
	MarkUnclear(ctx context.Context, sessionID string) (previous int, err error)
	// Reset removes the counter. Resetting an unknown session is not an error.
	Reset(ctx context.Context, sessionID string) error
}

// MemorySessionStore keeps counters in a mutex-protected map. It never fails.
type MemorySessionStore struct {
	mu       sync.Mutex
	counters map[string]int
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{counters: make(map[string]int)}
}

func (s *MemorySessionStore) MarkUnclear(_ context.Context, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.counters[sessionID]
	if previous == 0 {
		s.counters[sessionID] = 1
	}
	return previous, nil
}

// Count returns the current counter, 0 when absent.
func (s *MemorySessionStore) Count(_ context.Context, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[sessionID], nil
}

func (s *MemorySessionStore) Reset(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, sessionID)
	return nil
}

// Len returns the number of tracked sessions.
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}
