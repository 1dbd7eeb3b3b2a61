package capability

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicGenerator uses the Messages API.
type AnthropicGenerator struct {
	opts   Options
	client *anthropic.Client
}

func NewAnthropicGenerator(opts Options) *AnthropicGenerator {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		// retries are handled by withRetry
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := anthropic.NewClient(reqOpts...)
	return &AnthropicGenerator{opts: opts, client: &client}
}

func (g *AnthropicGenerator) Name() string { return "anthropic" }

func (g *AnthropicGenerator) Generate(ctx context.Context, prompt, system string) (string, error) {
	maxTokens := g.opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.opts.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(g.opts.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	var text string
	err := withRetry(ctx, g.opts.MaxRetries, g.opts.Backoff, func(ctx context.Context) error {
		attemptCtx, cancel := g.opts.attemptContext(ctx)
		defer cancel()

		msg, callErr := g.client.Messages.New(attemptCtx, params)
		if callErr != nil {
			var apiErr *anthropic.Error
			if errors.As(callErr, &apiErr) {
				return &statusError{Backend: g.Name(), Status: apiErr.StatusCode, Body: apiErr.Error()}
			}
			return callErr
		}

		var b strings.Builder
		for _, block := range msg.Content {
			if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
				b.WriteString(tb.Text)
			}
		}
		if b.Len() == 0 {
			return fmt.Errorf("anthropic response had no text blocks")
		}
		text = b.String()
		return nil
	})
	if err != nil {
		return "", backendError(ctx, g.Name(), err)
	}
	return text, nil
}
