package conversation

import (
	"context"
	"sync"
)

// SessionStore keeps per-chat dialogue state. The in-memory implementation
// below is the default; the interface leaves room for a persistent one.
type SessionStore interface {
	Get(ctx context.Context, chatID int64) (Session, bool, error)
	Put(ctx context.Context, chatID int64, s Session) error
	Delete(ctx context.Context, chatID int64) error
}

// MemoryStore is a process-local session store. Sessions do not survive a
// restart, which matches the dialogue's throwaway nature.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]Session
}

// NewMemoryStore returns an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]Session)}
}

func (s *MemoryStore) Get(_ context.Context, chatID int64) (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[chatID]
	return session, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, chatID int64, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[chatID] = session
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
	return nil
}
