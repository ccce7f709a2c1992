package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UnknownSource is reported for chunks that lost their provenance.
const UnknownSource = "Unknown"

// chunkNamespace scopes chunk identifiers generated by NewChunk.
var chunkNamespace = uuid.MustParse("7c1e4b52-3f0a-4d2e-9a61-5b8f2d7c9e10")

// Document is one extracted source document.
type Document struct {
	SourceID string
	Text     string
}

// Chunk is a retrievable unit of document text.
type Chunk struct {
	ID       string
	SourceID string
	Ordinal  int
	Content  string
}

// NewChunk builds a chunk with a deterministic identifier derived from its
// source, position and content. Empty content is rejected.
func NewChunk(sourceID string, ordinal int, content string) (Chunk, error) {
	if strings.TrimSpace(content) == "" {
		return Chunk{}, fmt.Errorf("chunk %d of %q has empty content", ordinal, sourceID)
	}
	key := fmt.Sprintf("%s\x00%d\x00%s", sourceID, ordinal, content)
	return Chunk{
		ID:       uuid.NewSHA1(chunkNamespace, []byte(key)).String(),
		SourceID: sourceID,
		Ordinal:  ordinal,
		Content:  content,
	}, nil
}

// Source returns the chunk's source id, or UnknownSource when it is missing.
func (c Chunk) Source() string {
	if strings.TrimSpace(c.SourceID) == "" {
		return UnknownSource
	}
	return c.SourceID
}

// IndexEntry is the persisted unit of the vector index.
type IndexEntry struct {
	Vector []float32
	Chunk  Chunk
}

type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// AnswerBundle is the result of answering one question.
// Sources is a set; its order carries no meaning. RAGContext keeps rank order.
type AnswerBundle struct {
	Answer     string   `json:"answer"`
	Sources    []string `json:"sources"`
	RAGContext []string `json:"ragContext"`
}

// NewAnswerBundle packages a generated answer with the chunks it was grounded on.
func NewAnswerBundle(answer string, retrieved []ScoredChunk) AnswerBundle {
	bundle := AnswerBundle{
		Answer:     answer,
		Sources:    make([]string, 0, len(retrieved)),
		RAGContext: make([]string, 0, len(retrieved)),
	}
	seen := make(map[string]struct{}, len(retrieved))
	for _, sc := range retrieved {
		bundle.RAGContext = append(bundle.RAGContext, sc.Chunk.Content)
		src := sc.Chunk.Source()
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		bundle.Sources = append(bundle.Sources, src)
	}
	return bundle
}
