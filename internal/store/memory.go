package store

import (
	"context"
	"encoding/json"
	"sync"

	"briefcraft/internal/brief"
)

// MemoryStore is an in-memory BriefStore used by tests and dry runs.
// Briefs round-trip through JSON so callers get the same copy semantics
// as the SQLite store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*brief.Brief, error) {
	s.mu.RLock()
	doc, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var b brief.Brief
	if err := json.Unmarshal(doc, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *MemoryStore) Put(_ context.Context, b *brief.Brief) error {
	doc, err := json.Marshal(b)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[b.ID] = doc
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.docs, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	return ids, nil
}
