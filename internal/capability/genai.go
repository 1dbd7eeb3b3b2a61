package capability

import (
	"context"
	"strings"

	apphttp "support-router/internal/common/http"
)

const genAIGeneratePath = "/api/ai/generate"

// GenAIGenerator talks to the internal GenAI gateway over plain HTTP. Per-attempt deadlines
// come from the context, so the client itself has no timeout.
type GenAIGenerator struct {
	opts   Options
	client *apphttp.Client
}

func NewGenAIGenerator(opts Options) *GenAIGenerator {
	return &GenAIGenerator{
		opts:   opts,
		client: apphttp.NewClient(0),
	}
}

func (g *GenAIGenerator) Name() string { return "genai" }

type genAIRequest struct {
	Prompt      string  `json:"prompt"`
	System      string  `json:"system,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature"`
}

type genAIResponse struct {
	Text string `json:"text"`
}

func (g *GenAIGenerator) Generate(ctx context.Context, prompt, system string) (string, error) {
	req := genAIRequest{
		Prompt:      prompt,
		System:      system,
		MaxTokens:   g.opts.MaxTokens,
		Temperature: g.opts.Temperature,
	}

	var text string
	err := withRetry(ctx, g.opts.MaxRetries, g.opts.Backoff, func(ctx context.Context) error {
		attemptCtx, cancel := g.opts.attemptContext(ctx)
		defer cancel()

		out, callErr := g.call(attemptCtx, req)
		if callErr != nil {
			return callErr
		}
		text = out
		return nil
	})
	if err != nil {
		return "", backendError(ctx, g.Name(), err)
	}
	return text, nil
}

func (g *GenAIGenerator) call(ctx context.Context, req genAIRequest) (string, error) {
	url := strings.TrimRight(g.opts.BaseURL, "/") + genAIGeneratePath
	var headers map[string]string
	if g.opts.APIKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + g.opts.APIKey}
	}

	var out genAIResponse
	if err := g.client.PostJSON(ctx, url, headers, req, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}
