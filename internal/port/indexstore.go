package port

import "medcite/internal/domain"

// IndexStore persists the entries of a vector index.
type IndexStore interface {
	// SaveIndex replaces the persisted index with entries, atomically.
	SaveIndex(dimension int, entries []domain.IndexEntry) error

	// LoadIndex returns the persisted dimension and entries in insertion order.
	// An index that was never saved yields dimension 0 and no entries.
	LoadIndex() (int, []domain.IndexEntry, error)

	Close() error
}
