package store

import (
	"context"
	"sync"

	"github.com/line-dify-relay/server/internal/relay/model"
)

// MemoryStore keeps conversation handles in a process-local map. State is
// lost on restart; concurrent Set calls for the same user are
// last-write-wins.
type MemoryStore struct {
	mu      sync.RWMutex
	handles map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{handles: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handles[userID], nil
}

func (s *MemoryStore) Set(_ context.Context, userID, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if handle == "" {
		delete(s.handles, userID)
		return nil
	}
	s.handles[userID] = handle
	return nil
}

var _ model.ConversationStore = (*MemoryStore)(nil)
