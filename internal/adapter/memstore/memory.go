package memstore

import (
	"sync"

	"medcite/internal/domain"
)

// MemoryStore keeps a saved index in process memory. Saved entries are copied
// so later changes by the caller do not leak into the stored state.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	entries   []domain.IndexEntry
	saves     int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) SaveIndex(dimension int, entries []domain.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.entries = copyEntries(entries)
	s.saves++
	return nil
}

func (s *MemoryStore) LoadIndex() (int, []domain.IndexEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension, copyEntries(s.entries), nil
}

// Saves reports how many times SaveIndex has been called.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func (s *MemoryStore) Close() error {
	return nil
}

func copyEntries(entries []domain.IndexEntry) []domain.IndexEntry {
	out := make([]domain.IndexEntry, len(entries))
	for i, e := range entries {
		vec := make([]float32, len(e.Vector))
		copy(vec, e.Vector)
		out[i] = domain.IndexEntry{Vector: vec, Chunk: e.Chunk}
	}
	return out
}
