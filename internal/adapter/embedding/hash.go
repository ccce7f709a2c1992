package embedding

import (
	"fmt"
	"hash/fnv"
	"math"

	"medcite/internal/adapter/analyzer"
)

// HashEmbedder maps text to a signed, L2-normalised bag of hashed terms.
// It needs no model or network, is deterministic, and places texts that
// share terms close together.
type HashEmbedder struct {
	dimension      int
	maxInputTokens int
	tokenizer      *analyzer.Tokenizer
}

// NewHashEmbedder creates a hashing embedder. maxInputTokens > 0 makes Embed
// reject longer inputs the way a model with a context limit would.
func NewHashEmbedder(dimension, maxInputTokens int, tokenizer *analyzer.Tokenizer) (*HashEmbedder, error) {
	if dimension < 1 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}
	if tokenizer == nil {
		tokenizer = analyzer.NewTokenizer()
	}
	return &HashEmbedder{
		dimension:      dimension,
		maxInputTokens: maxInputTokens,
		tokenizer:      tokenizer,
	}, nil
}

func (e *HashEmbedder) Embed(texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.embedOne(text)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		embeddings[i] = vec
	}
	return embeddings, nil
}

func (e *HashEmbedder) embedOne(text string) ([]float32, error) {
	if e.maxInputTokens > 0 {
		if n := e.tokenizer.CountTokens(text); n > e.maxInputTokens {
			return nil, fmt.Errorf("input has %d tokens, limit is %d", n, e.maxInputTokens)
		}
	}

	acc := make([]float64, e.dimension)
	for _, term := range e.tokenizer.Tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(term))
		sum := h.Sum32()

		sign := 1.0
		if sum>>31 == 1 {
			sign = -1.0
		}
		acc[sum%uint32(e.dimension)] += sign
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, e.dimension)
	if norm == 0 {
		return vec, nil
	}
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec, nil
}

func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashEmbedder) ModelName() string {
	return fmt.Sprintf("feature-hash-%d", e.dimension)
}
