// Package memory implements the slot store in process memory.
package memory

import (
	"context"
	"sync"

	"github.com/moneyney/moneyney-backend/internal/domain"
)

// Store is a goroutine-safe in-memory slot store
type Store struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

var _ domain.BatchStore = (*Store)(nil)

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{slots: make(map[string][]byte)}
}

// Get returns a copy of the slot value
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.slots[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set stores a copy of the value
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes the slot
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.slots, key)
	return nil
}

// WriteBatch applies every write under one lock
func (s *Store) WriteBatch(_ context.Context, writes []domain.SlotWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range writes {
		if w.Value == nil {
			delete(s.slots, w.Key)
			continue
		}
		s.slots[w.Key] = append([]byte(nil), w.Value...)
	}
	return nil
}
