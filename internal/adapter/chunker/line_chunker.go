package chunker

import (
	"strings"

	"medcite/internal/adapter/analyzer"
	"medcite/internal/domain"
)

// LineChunker groups consecutive lines into chunks of at most maxTokens
// estimated tokens, repeating roughly overlap tokens between neighbours.
type LineChunker struct {
	maxTokens int
	overlap   int
	tokenizer *analyzer.Tokenizer
}

func NewLineChunker(maxTokens, overlap int, tokenizer *analyzer.Tokenizer) *LineChunker {
	if maxTokens <= 0 {
		maxTokens = 256
	}
	if overlap < 0 {
		overlap = 0
	}
	if tokenizer == nil {
		tokenizer = analyzer.NewTokenizer()
	}
	return &LineChunker{
		maxTokens: maxTokens,
		overlap:   overlap,
		tokenizer: tokenizer,
	}
}

func (c *LineChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return nil, nil
	}
	lines := strings.Split(doc.Text, "\n")

	var chunks []domain.Chunk
	startLine := 0

	for startLine < len(lines) {
		endLine := startLine
		currentTokens := 0
		var chunkText strings.Builder

		for endLine < len(lines) {
			lineTokens := c.tokenizer.CountTokens(lines[endLine])
			if currentTokens > 0 && currentTokens+lineTokens > c.maxTokens {
				break
			}
			if endLine > startLine {
				chunkText.WriteString("\n")
			}
			chunkText.WriteString(lines[endLine])
			currentTokens += lineTokens
			endLine++
		}

		text := chunkText.String()
		if strings.TrimSpace(text) != "" {
			chunk, err := domain.NewChunk(doc.SourceID, len(chunks), text)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, chunk)
		}

		if endLine >= len(lines) {
			break
		}

		newStart := endLine - c.overlapLines(lines, startLine, endLine)
		if newStart <= startLine {
			newStart = startLine + 1
		}
		startLine = newStart
	}

	return chunks, nil
}

func (c *LineChunker) overlapLines(lines []string, start, end int) int {
	if c.overlap == 0 {
		return 0
	}

	n := 0
	tokens := 0
	for i := end - 1; i > start && tokens < c.overlap; i-- {
		tokens += c.tokenizer.CountTokens(lines[i])
		n++
	}
	return n
}
