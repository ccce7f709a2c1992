package retriever

import (
	"fmt"

	"medcite/internal/adapter/vectorindex"
	"medcite/internal/domain"
	"medcite/internal/port"
)

// SemanticRetriever ranks indexed chunks by cosine similarity to the embedded question.
// The embedder must be the one the index was built with.
type SemanticRetriever struct {
	embedder port.Embedder
	index    *vectorindex.Index
}

func NewSemanticRetriever(embedder port.Embedder, index *vectorindex.Index) *SemanticRetriever {
	return &SemanticRetriever{
		embedder: embedder,
		index:    index,
	}
}

func (r *SemanticRetriever) Retrieve(question string, k int) ([]domain.ScoredChunk, error) {
	if r.embedder == nil || r.index == nil {
		return nil, fmt.Errorf("semantic retrieval not available: embedder or index not configured")
	}
	if k < 1 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	if r.index.Len() == 0 {
		return []domain.ScoredChunk{}, nil
	}

	embeddings, err := r.embedder.Embed([]string{question})
	if err != nil {
		return nil, domain.NewError(domain.KindEmbedding, err, "embed question")
	}
	if len(embeddings) != 1 {
		return nil, domain.NewError(domain.KindEmbedding, nil,
			"expected 1 question vector, got %d", len(embeddings))
	}

	results, err := r.index.Search(embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return results, nil
}
