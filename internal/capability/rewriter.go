package capability

import (
	"context"
	"fmt"
	"strings"
)

// TextRewriter uses a Generator for conversational rewrites.
type TextRewriter struct {
	gen Generator
}

func NewTextRewriter(gen Generator) *TextRewriter {
	return &TextRewriter{gen: gen}
}

// Rewrite returns the trimmed generated text. Blank output is an ErrEmptyOutput failure.
func (r *TextRewriter) Rewrite(ctx context.Context, prompt, instruction string) (string, error) {
	out, err := r.gen.Generate(ctx, prompt, instruction)
	if err != nil {
		return "", fmt.Errorf("rewrite: %w", err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("rewrite: %w", ErrEmptyOutput)
	}
	return out, nil
}
