package usecase

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"medcite/internal/domain"
)

//go:embed templates/answer_prompt.txt
var answerPromptTemplate string

// PromptBuilder renders the grounded prompt the generator sees.
type PromptBuilder struct {
	tmpl *template.Template
}

type promptData struct {
	Context  string
	Question string
}

// NewPromptBuilder parses the embedded answer template.
func NewPromptBuilder() (*PromptBuilder, error) {
	tmpl, err := template.New("answer").Parse(answerPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}
	return &PromptBuilder{tmpl: tmpl}, nil
}

// Build places the chunk contents in rank order, separated by blank lines,
// ahead of the question. No chunks renders an empty context section.
func (b *PromptBuilder) Build(question string, chunks []domain.ScoredChunk) (string, error) {
	passages := make([]string, len(chunks))
	for i, c := range chunks {
		passages[i] = c.Chunk.Content
	}

	var sb strings.Builder
	err := b.tmpl.Execute(&sb, promptData{
		Context:  strings.Join(passages, "\n\n"),
		Question: question,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return sb.String(), nil
}
