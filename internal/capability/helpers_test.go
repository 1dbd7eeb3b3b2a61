package capability

import (
	"context"
	"sync"
	"time"
)

// ==========================
// Test Doubles
// ==========================

type generateCall struct {
	Prompt string
	System string
}

type fakeGenerator struct {
	mu      sync.Mutex
	outputs []string
	errs    []error
	calls   []generateCall
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Generate(_ context.Context, prompt, system string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := len(f.calls)
	f.calls = append(f.calls, generateCall{Prompt: prompt, System: system})

	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	out := ""
	if i < len(f.outputs) {
		out = f.outputs[i]
	}
	return out, err
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testOptions(baseURL string) Options {
	return Options{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Model:       "test-model",
		Timeout:     2 * time.Second,
		MaxRetries:  2,
		Temperature: 0.3,
		MaxTokens:   200,
		Backoff:     Backoff{Base: time.Millisecond, Max: 5 * time.Millisecond},
	}
}
