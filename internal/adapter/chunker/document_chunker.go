package chunker

import (
	"strings"

	"medcite/internal/domain"
)

// DocumentChunker treats each document as a single chunk.
type DocumentChunker struct{}

func NewDocumentChunker() *DocumentChunker {
	return &DocumentChunker{}
}

// Chunk returns one chunk holding the whole document text, or none when the
// document has no text.
func (c *DocumentChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return nil, nil
	}
	chunk, err := domain.NewChunk(doc.SourceID, 0, doc.Text)
	if err != nil {
		return nil, err
	}
	return []domain.Chunk{chunk}, nil
}
