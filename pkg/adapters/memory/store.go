package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/pagebuilder/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]string
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]string),
	}
}

// Save keeps the snapshot in memory.
func (s *Store) Save(ctx context.Context, documentID string, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[documentID] = raw
	return nil
}

// Load retrieves the snapshot from memory.
func (s *Store) Load(ctx context.Context, documentID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.data[documentID]
	if !ok {
		return "", domain.ErrDocumentNotFound
	}
	return raw, nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, documentID)
	return nil
}

// List returns stored document IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	documents := make([]string, 0, len(s.data))
	for id := range s.data {
		documents = append(documents, id)
	}
	sort.Strings(documents)
	return documents, nil
}
