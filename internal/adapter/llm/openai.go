package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Options controls sampling for chat completions.
type Options struct {
	Temperature float32
	TopP        float32
	MaxTokens   int
	Timeout     time.Duration
}

// OpenAIGenerator answers prompts through an OpenAI-compatible chat completions API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	opts   Options
}

func NewOpenAIGenerator(apiKeyEnv, model string, opts Options) (*OpenAIGenerator, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	return NewOpenAICompatibleGenerator(apiKey, model, "https://api.openai.com/v1", opts)
}

func NewOllamaGenerator(model, baseURL string, opts Options) (*OpenAIGenerator, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	return NewOpenAICompatibleGenerator("ollama", model, baseURL, opts)
}

func NewOpenAICompatibleGenerator(apiKey, model, baseURL string, opts Options) (*OpenAIGenerator, error) {
	if model == "" {
		return nil, fmt.Errorf("generation model is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		opts:   opts,
	}, nil
}

// Generate sends prompt as a single user message. The call is not retried.
func (g *OpenAIGenerator) Generate(prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), g.opts.Timeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: g.opts.Temperature,
		TopP:        g.opts.TopP,
		MaxTokens:   g.opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("model returned an empty completion")
	}
	return content, nil
}

func (g *OpenAIGenerator) ModelName() string {
	return g.model
}
