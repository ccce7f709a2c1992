package port

import "medcite/internal/domain"

// Retriever returns the chunks most relevant to a question.
type Retriever interface {
	// Retrieve returns at most k chunks ranked by descending relevance.
	Retrieve(question string, k int) ([]domain.ScoredChunk, error)
}
