package capability

import (
	"fmt"

	"support-router/internal/common/config"
)

// NewGenerator builds the generator for a named backend.
func NewGenerator(backend string, b config.BackendConfig) (Generator, error) {
	opts := OptionsFromConfig(b)

	switch backend {
	case config.BackendGenAI:
		if opts.BaseURL == "" {
			return nil, fmt.Errorf("genai backend needs a base_url")
		}
		return NewGenAIGenerator(opts), nil
	case config.BackendOpenAI, config.BackendGroq:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("%s backend needs an api key", backend)
		}
		return NewOpenAIGenerator(backend, opts), nil
	case config.BackendOllama:
		// Ollama ignores the key but go-openai always sends one.
		if opts.APIKey == "" {
			opts.APIKey = "ollama"
		}
		return NewOpenAIGenerator(backend, opts), nil
	case config.BackendAnthropic:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("anthropic backend needs an api key")
		}
		return NewAnthropicGenerator(opts), nil
	default:
		return nil, fmt.Errorf("unknown capability backend %q", backend)
	}
}
