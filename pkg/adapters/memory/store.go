package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/aretw0/cadence/pkg/domain"
)

// Store implements ports.SettingsStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]string
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store, optionally seeded with values.
func NewStore(seed map[string]string) *Store {
	s := &Store{data: make(map[string]string, len(seed))}
	maps.Copy(s.data, seed)
	return s
}

// Get returns the stored value.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return "", domain.ErrSettingNotFound
	}
	return v, nil
}

// Set stores a value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// Delete removes a value.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// All returns a copy of every setting.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.data), nil
}
