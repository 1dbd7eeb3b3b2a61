package capability

import (
	"context"
	"time"

	"support-router/internal/common/config"
)

// Backoff bounds the delay between retried backend calls.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

var DefaultBackoff = Backoff{Base: 100 * time.Millisecond, Max: 2 * time.Second}

// Options configures one backend.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration // per attempt
	MaxRetries  int
	Temperature float64
	MaxTokens   int
	Backoff     Backoff
}

func OptionsFromConfig(b config.BackendConfig) Options {
	return Options{
		BaseURL:     b.BaseURL,
		APIKey:      b.APIKey,
		Model:       b.Model,
		Timeout:     config.GetDuration(b.Timeout),
		MaxRetries:  b.MaxRetries,
		Temperature: b.Temperature,
		MaxTokens:   b.MaxTokens,
		Backoff:     DefaultBackoff,
	}
}

// attemptContext applies the per-attempt timeout when one is set.
func (o Options) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.Timeout)
}
