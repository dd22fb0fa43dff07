package profile

import (
	"context"
	"sync"
)

// MemStore is an in-process Store
type MemStore struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemStore makes empty in-process store
func NewMemStore() *MemStore {
	return &MemStore{items: map[string]string{}}
}

// GetItem returns value by key
func (s *MemStore) GetItem(_ context.Context, key string) (value string, found bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, found = s.items[key]
	return value, found, nil
}

// SetItem sets value by key, overwriting the previous one
func (s *MemStore) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}
