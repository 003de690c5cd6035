package storage

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// MemoryReceiptStore keeps receipts in process memory and never evicts them.
// It is meant for tests; the server archives to S3 or not at all.
type MemoryReceiptStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryReceiptStore creates an empty store
func NewMemoryReceiptStore() *MemoryReceiptStore {
	return &MemoryReceiptStore{objects: make(map[string][]byte)}
}

func (s *MemoryReceiptStore) Put(_ context.Context, key, _ string, body []byte) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = slices.Clone(body)
	return nil
}

func (s *MemoryReceiptStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return slices.Clone(body), nil
}

// Keys returns the stored keys in sorted order
func (s *MemoryReceiptStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
