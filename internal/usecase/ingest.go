package usecase

import (
	"fmt"

	"github.com/charmbracelet/log"

	"medcite/internal/adapter/vectorindex"
	"medcite/internal/domain"
	"medcite/internal/port"
)

// ProgressFunc is called after each document is ingested.
type ProgressFunc func(done, total int, sourceID string)

// IngestUseCase turns documents into indexed, embedded chunks.
type IngestUseCase struct {
	chunker  port.Chunker
	embedder port.Embedder
	index    *vectorindex.Index
	logger   *log.Logger
}

// NewIngestUseCase creates a new ingest use case.
func NewIngestUseCase(
	chunker port.Chunker,
	embedder port.Embedder,
	index *vectorindex.Index,
	logger *log.Logger,
) *IngestUseCase {
	return &IngestUseCase{
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

// IngestResult contains the results of an ingestion run.
type IngestResult struct {
	DocumentsProcessed int
	DocumentsEmpty     int
	ChunksAdded        int
	ChunksSkipped      int
}

// Ingest chunks, embeds and indexes docs, then persists the index once.
// Chunks already present in the index are skipped. On any error the run
// stops and the persisted index is left as it was.
func (u *IngestUseCase) Ingest(docs []domain.Document, progress ProgressFunc) (*IngestResult, error) {
	result := &IngestResult{}

	for i, doc := range docs {
		added, skipped, err := u.ingestDocument(doc)
		if err != nil {
			return nil, err
		}

		if added+skipped == 0 {
			result.DocumentsEmpty++
			u.logger.Warn("document has no text", "source", doc.SourceID)
		} else {
			result.DocumentsProcessed++
			u.logger.Debug("ingested document", "source", doc.SourceID, "chunks", added, "skipped", skipped)
		}
		result.ChunksAdded += added
		result.ChunksSkipped += skipped

		if progress != nil {
			progress(i+1, len(docs), doc.SourceID)
		}
	}

	if err := u.index.Persist(); err != nil {
		return nil, fmt.Errorf("failed to persist index: %w", err)
	}

	u.logger.Info("ingestion complete",
		"documents", result.DocumentsProcessed,
		"empty", result.DocumentsEmpty,
		"chunks", result.ChunksAdded,
		"skipped", result.ChunksSkipped,
		"entries", u.index.Len(),
	)
	return result, nil
}

// ingestDocument embeds all new chunks of doc in a single batch.
func (u *IngestUseCase) ingestDocument(doc domain.Document) (added, skipped int, err error) {
	chunks, err := u.chunker.Chunk(doc)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to chunk %s: %w", doc.SourceID, err)
	}

	fresh := make([]domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if u.index.Contains(c.ID) {
			skipped++
			continue
		}
		fresh = append(fresh, c)
	}
	if len(fresh) == 0 {
		return 0, skipped, nil
	}

	texts := make([]string, len(fresh))
	for i, c := range fresh {
		texts[i] = c.Content
	}

	vectors, err := u.embedder.Embed(texts)
	if err != nil {
		return 0, 0, domain.NewError(domain.KindEmbedding, err, "document %s", doc.SourceID)
	}
	if len(vectors) != len(fresh) {
		return 0, 0, domain.NewError(domain.KindEmbedding, nil,
			"document %s: expected %d vectors, got %d", doc.SourceID, len(fresh), len(vectors))
	}

	entries := make([]domain.IndexEntry, len(fresh))
	for i, c := range fresh {
		entries[i] = domain.IndexEntry{Vector: vectors[i], Chunk: c}
	}
	if err := u.index.Add(entries); err != nil {
		return 0, 0, fmt.Errorf("failed to index %s: %w", doc.SourceID, err)
	}

	return len(fresh), skipped, nil
}
