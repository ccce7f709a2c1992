package usecase

import (
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"medcite/internal/domain"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}

type stubEmbedder struct {
	dim     int
	failOn  string
	short   bool
	calls   int
	batches [][]string
}

func (s *stubEmbedder) Embed(texts []string) ([][]float32, error) {
	s.calls++
	s.batches = append(s.batches, texts)

	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if s.failOn != "" && strings.Contains(text, s.failOn) {
			return nil, errors.New("embedding backend unavailable")
		}
		vec := make([]float32, s.dim)
		vec[len(text)%s.dim] = 1
		out = append(out, vec)
	}
	if s.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int    { return s.dim }
func (s *stubEmbedder) ModelName() string { return "stub-embedder" }

type stubGenerator struct {
	answer  string
	err     error
	calls   int
	prompts []string
}

func (g *stubGenerator) Generate(prompt string) (string, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func (g *stubGenerator) ModelName() string { return "stub-generator" }

type stubRetriever struct {
	results []domain.ScoredChunk
	err     error
	calls   int
	lastK   int
}

func (r *stubRetriever) Retrieve(question string, k int) ([]domain.ScoredChunk, error) {
	r.calls++
	r.lastK = k
	if r.err != nil {
		return nil, r.err
	}
	if k < len(r.results) {
		return r.results[:k], nil
	}
	return r.results, nil
}

func scored(source, content string, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{SourceID: source, Content: content},
		Score: score,
	}
}
