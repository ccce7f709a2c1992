package usecase

import (
	"strings"

	"medcite/internal/domain"
	"medcite/internal/port"
)

// RetrieveUseCase handles search-only operations.
type RetrieveUseCase struct {
	retriever         port.Retriever
	minScoreThreshold float64 // Filter results below this score (0 = disabled)
}

// NewRetrieveUseCase creates a new retrieve use case.
func NewRetrieveUseCase(retriever port.Retriever, minScoreThreshold float64) *RetrieveUseCase {
	return &RetrieveUseCase{
		retriever:         retriever,
		minScoreThreshold: minScoreThreshold,
	}
}

// Retrieve searches for the topK chunks most relevant to question.
func (u *RetrieveUseCase) Retrieve(question string, topK int) ([]domain.ScoredChunk, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.NewError(domain.KindInvalidQuery, nil, "question is empty")
	}

	results, err := u.retriever.Retrieve(question, topK)
	if err != nil {
		return nil, err
	}

	if u.minScoreThreshold > 0 {
		results = u.filterByThreshold(results)
	}
	return results, nil
}

// filterByThreshold removes results below the minimum score threshold.
func (u *RetrieveUseCase) filterByThreshold(results []domain.ScoredChunk) []domain.ScoredChunk {
	filtered := make([]domain.ScoredChunk, 0, len(results))
	for _, r := range results {
		if r.Score >= u.minScoreThreshold {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// ScoredChunkResult is a simplified result for CLI output.
type ScoredChunkResult struct {
	Source  string  `json:"source"`
	Ordinal int     `json:"ordinal"`
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
}

// ToResults converts scored chunks to CLI results.
func ToResults(chunks []domain.ScoredChunk) []ScoredChunkResult {
	results := make([]ScoredChunkResult, len(chunks))
	for i, c := range chunks {
		results[i] = ScoredChunkResult{
			Source:  c.Chunk.Source(),
			Ordinal: c.Chunk.Ordinal,
			Score:   c.Score,
			Text:    c.Chunk.Content,
		}
	}
	return results
}
