package retriever

import (
	"errors"
	"testing"

	"medcite/internal/adapter/embedding"
	"medcite/internal/adapter/vectorindex"
	"medcite/internal/domain"
)

type stubEmbedder struct {
	vectors [][]float32
	err     error
	calls   int
}

func (s *stubEmbedder) Embed(texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors, nil
}

func (s *stubEmbedder) Dimension() int    { return 2 }
func (s *stubEmbedder) ModelName() string { return "stub" }

func mustChunk(t *testing.T, source, content string) domain.Chunk {
	t.Helper()
	c, err := domain.NewChunk(source, 0, content)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func buildIndex(t *testing.T, emb *embedding.HashEmbedder, docs map[string]string, order []string) *vectorindex.Index {
	t.Helper()
	idx := vectorindex.New(nil)
	for _, src := range order {
		vecs, err := emb.Embed([]string{docs[src]})
		if err != nil {
			t.Fatal(err)
		}
		entry := domain.IndexEntry{Vector: vecs[0], Chunk: mustChunk(t, src, docs[src])}
		if err := idx.Add([]domain.IndexEntry{entry}); err != nil {
			t.Fatal(err)
		}
	}
	return idx
}

func TestSemanticRetrieverRanksRelevantChunkFirst(t *testing.T) {
	emb, err := embedding.NewHashEmbedder(384, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	docs := map[string]string{
		"doc1.pdf": "Aspirin reduces fever.",
		"doc2.pdf": "Ibuprofen reduces inflammation.",
	}
	idx := buildIndex(t, emb, docs, []string{"doc2.pdf", "doc1.pdf"})

	r := NewSemanticRetriever(emb, idx)
	results, err := r.Retrieve("What reduces fever?", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.SourceID != "doc1.pdf" {
		t.Errorf("expected doc1.pdf first, got %s", results[0].Chunk.SourceID)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("results not ordered by score: %v >= %v", results[1].Score, results[0].Score)
	}

	top, err := r.Retrieve("What reduces fever?", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 1 || top[0].Chunk.Content != "Aspirin reduces fever." {
		t.Errorf("unexpected top-1 result: %+v", top)
	}
}

func TestSemanticRetrieverEmptyIndex(t *testing.T) {
	stub := &stubEmbedder{}
	r := NewSemanticRetriever(stub, vectorindex.New(nil))

	results, err := r.Retrieve("anything", 3)
	if err != nil {
		t.Fatalf("empty index should not fail: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil result, got %#v", results)
	}
	if stub.calls != 0 {
		t.Errorf("embedder should not be called for an empty index, got %d calls", stub.calls)
	}
}

func TestSemanticRetrieverEmbeddingFailure(t *testing.T) {
	idx := vectorindex.New(nil)
	if err := idx.Add([]domain.IndexEntry{{Vector: []float32{1, 0}, Chunk: mustChunk(t, "a", "alpha")}}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		emb  *stubEmbedder
	}{
		{"backend error", &stubEmbedder{err: errors.New("connection refused")}},
		{"no vectors", &stubEmbedder{vectors: [][]float32{}}},
		{"too many vectors", &stubEmbedder{vectors: [][]float32{{1, 0}, {0, 1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSemanticRetriever(tt.emb, idx).Retrieve("q", 1)
			if !errors.Is(err, domain.ErrEmbedding) {
				t.Errorf("expected ErrEmbedding, got %v", err)
			}
		})
	}
}

func TestSemanticRetrieverDimensionMismatch(t *testing.T) {
	idx := vectorindex.New(nil)
	if err := idx.Add([]domain.IndexEntry{{Vector: []float32{1, 0, 0}, Chunk: mustChunk(t, "a", "alpha")}}); err != nil {
		t.Fatal(err)
	}

	_, err := NewSemanticRetriever(&stubEmbedder{vectors: [][]float32{{1, 0}}}, idx).Retrieve("q", 1)
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSemanticRetrieverRejectsNonPositiveK(t *testing.T) {
	r := NewSemanticRetriever(&stubEmbedder{}, vectorindex.New(nil))
	if _, err := r.Retrieve("q", 0); err == nil {
		t.Error("expected error for k=0")
	}
}
