package vectorindex

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"medcite/internal/domain"
	"medcite/internal/port"
)

// Index is an append-only, in-memory vector index ranked by cosine similarity.
// Search is brute force over all entries. Concurrent searches are safe;
// Add and Persist are meant for a single writer.
type Index struct {
	mu        sync.RWMutex
	dimension int
	entries   []domain.IndexEntry
	ids       map[string]struct{}
	store     port.IndexStore
}

// New creates an empty index. store may be nil for an index that is never persisted.
func New(store port.IndexStore) *Index {
	return &Index{store: store}
}

// Load opens the index persisted in store.
func Load(store port.IndexStore) (*Index, error) {
	dimension, entries, err := store.LoadIndex()
	if err != nil {
		return nil, err
	}

	idx := &Index{store: store}
	if len(entries) == 0 {
		return idx, nil
	}
	if err := idx.Add(entries); err != nil {
		return nil, domain.NewError(domain.KindCorruptIndex, err, "stored entries are inconsistent")
	}
	if dimension != idx.dimension {
		return nil, domain.NewError(domain.KindCorruptIndex, nil,
			"stored dimension %d does not match entry dimension %d", dimension, idx.dimension)
	}
	return idx, nil
}

// Add appends entries. The first vector ever added fixes the index dimension.
// If any vector disagrees with it, nothing is added.
func (idx *Index) Add(entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	dimension := idx.dimension
	if dimension == 0 {
		dimension = len(entries[0].Vector)
	}
	if dimension == 0 {
		return domain.NewError(domain.KindDimensionMismatch, nil, "entry 0 has an empty vector")
	}
	for i, e := range entries {
		if len(e.Vector) != dimension {
			return domain.NewError(domain.KindDimensionMismatch, nil,
				"entry %d: expected dimension %d, got %d", i, dimension, len(e.Vector))
		}
	}

	if idx.ids == nil {
		idx.ids = make(map[string]struct{}, len(entries))
	}
	for _, e := range entries {
		vec := make([]float32, len(e.Vector))
		copy(vec, e.Vector)
		idx.entries = append(idx.entries, domain.IndexEntry{Vector: vec, Chunk: e.Chunk})
		idx.ids[e.Chunk.ID] = struct{}{}
	}
	idx.dimension = dimension
	return nil
}

// Search returns the min(k, Len()) entries most similar to query, best first.
// Equal scores keep insertion order. An empty index yields an empty result.
func (idx *Index) Search(query []float32, k int) ([]domain.ScoredChunk, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.entries) == 0 {
		return []domain.ScoredChunk{}, nil
	}
	if len(query) != idx.dimension {
		return nil, domain.NewError(domain.KindDimensionMismatch, nil,
			"query: expected dimension %d, got %d", idx.dimension, len(query))
	}

	scores := make([]domain.ScoredChunk, len(idx.entries))
	for i, e := range idx.entries {
		scores[i] = domain.ScoredChunk{
			Chunk: e.Chunk,
			Score: CosineSimilarity(query, e.Vector),
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}

// Persist writes the whole index to its store in one step.
func (idx *Index) Persist() error {
	if idx.store == nil {
		return fmt.Errorf("index has no backing store")
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.store.SaveIndex(idx.dimension, idx.entries)
}

// Dimension returns the established vector dimension, or 0 before the first Add.
func (idx *Index) Dimension() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dimension
}

func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Contains reports whether a chunk with the given ID has been added.
func (idx *Index) Contains(chunkID string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.ids[chunkID]
	return ok
}

// Entries returns a copy of all entries in insertion order.
func (idx *Index) Entries() []domain.IndexEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]domain.IndexEntry, len(idx.entries))
	for i, e := range idx.entries {
		vec := make([]float32, len(e.Vector))
		copy(vec, e.Vector)
		out[i] = domain.IndexEntry{Vector: vec, Chunk: e.Chunk}
	}
	return out
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Zero vectors have similarity 0 with everything.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
