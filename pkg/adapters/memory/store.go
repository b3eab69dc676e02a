package memory

import (
	"context"
	"sync"

	"github.com/aretw0/covenant/pkg/domain"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.StateRecord
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.StateRecord),
	}
}

// Save copies the record so later mutation by the caller does not leak in.
func (s *Store) Save(ctx context.Context, account string, rec *domain.StateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[account] = rec.Clone()
	return nil
}

// Load returns a copy of the stored record.
func (s *Store) Load(ctx context.Context, account string) (*domain.StateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[account]
	if !ok {
		return nil, domain.ErrStateNotFound
	}
	return rec.Clone(), nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, account)
	return nil
}

// List returns accounts with state.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]string, 0, len(s.data))
	for id := range s.data {
		accounts = append(accounts, id)
	}
	return accounts, nil
}
