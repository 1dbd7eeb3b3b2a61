package capability

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIGenerator serves OpenAI and any OpenAI-compatible endpoint (Groq, Ollama).
type OpenAIGenerator struct {
	name   string
	opts   Options
	client *openai.Client
}

// NewOpenAIGenerator builds a chat-completions generator. name labels logs and errors.
func NewOpenAIGenerator(name string, opts Options) *OpenAIGenerator {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &OpenAIGenerator{
		name:   name,
		opts:   opts,
		client: openai.NewClientWithConfig(cfg),
	}
}

func (g *OpenAIGenerator) Name() string { return g.name }

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt, system string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:       g.opts.Model,
		Messages:    messages,
		Temperature: float32(g.opts.Temperature),
		MaxTokens:   g.opts.MaxTokens,
	}

	var text string
	err := withRetry(ctx, g.opts.MaxRetries, g.opts.Backoff, func(ctx context.Context) error {
		attemptCtx, cancel := g.opts.attemptContext(ctx)
		defer cancel()

		resp, callErr := g.client.CreateChatCompletion(attemptCtx, req)
		if callErr != nil {
			return g.normalize(callErr)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("%s returned no choices", g.name)
		}
		text = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", backendError(ctx, g.name, err)
	}
	return text, nil
}

// normalize lifts HTTP status codes out of go-openai's error types.
func (g *OpenAIGenerator) normalize(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &statusError{Backend: g.name, Status: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &statusError{Backend: g.name, Status: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return err
}
