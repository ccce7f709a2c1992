package usecase

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"medcite/internal/domain"
	"medcite/internal/port"
)

// DefaultTopK is the number of chunks retrieved for an answer.
const DefaultTopK = 3

// AnswerUseCase runs the question-answering pipeline:
// retrieve, build the grounded prompt, generate, bundle.
type AnswerUseCase struct {
	retriever port.Retriever
	prompts   *PromptBuilder
	generator port.Generator
	topK      int
	logger    *log.Logger
}

// NewAnswerUseCase creates a new answer use case. topK < 1 selects DefaultTopK.
func NewAnswerUseCase(
	retriever port.Retriever,
	prompts *PromptBuilder,
	generator port.Generator,
	topK int,
	logger *log.Logger,
) *AnswerUseCase {
	if topK < 1 {
		topK = DefaultTopK
	}
	return &AnswerUseCase{
		retriever: retriever,
		prompts:   prompts,
		generator: generator,
		topK:      topK,
		logger:    logger,
	}
}

// Answer answers question from the indexed corpus.
func (u *AnswerUseCase) Answer(question string) (domain.AnswerBundle, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.AnswerBundle{}, domain.NewError(domain.KindInvalidQuery, nil, "question is empty")
	}

	retrieved, err := u.retriever.Retrieve(question, u.topK)
	if err != nil {
		return domain.AnswerBundle{}, fmt.Errorf("retrieval failed: %w", err)
	}
	if len(retrieved) == 0 {
		u.logger.Warn("no context retrieved, generating without grounding", "question_len", len(question))
	}

	prompt, err := u.prompts.Build(question, retrieved)
	if err != nil {
		return domain.AnswerBundle{}, err
	}

	answer, err := u.generator.Generate(prompt)
	if err != nil {
		return domain.AnswerBundle{}, domain.NewError(domain.KindGeneration, err, "model %s", u.generator.ModelName())
	}

	bundle := domain.NewAnswerBundle(answer, retrieved)
	u.logger.Debug("answered question", "chunks", len(retrieved), "sources", len(bundle.Sources))
	return bundle, nil
}

// Prompt renders the grounded prompt for question without calling the generator.
func (u *AnswerUseCase) Prompt(question string) (string, []domain.ScoredChunk, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, domain.NewError(domain.KindInvalidQuery, nil, "question is empty")
	}

	retrieved, err := u.retriever.Retrieve(question, u.topK)
	if err != nil {
		return "", nil, fmt.Errorf("retrieval failed: %w", err)
	}

	prompt, err := u.prompts.Build(question, retrieved)
	if err != nil {
		return "", nil, err
	}
	return prompt, retrieved, nil
}
