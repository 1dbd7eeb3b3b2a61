// internal/workers/customer-service/route-query/config.go
package routequery

import (
	"time"

	"support-router/internal/common/config"
)

type Config struct {
	Timeout    time.Duration
	MaxRetries int
}

// LoadConfig reads the worker section for TaskType, defaulting the timeout to 30s.
func LoadConfig(cfg *config.Config) *Config {
	out := &Config{Timeout: 30 * time.Second}
	if cfg == nil {
		return out
	}
	wc := config.GetWorkerConfig(cfg, TaskType)
	if wc.Timeout > 0 {
		out.Timeout = config.GetDuration(wc.Timeout)
	}
	out.MaxRetries = wc.MaxRetries
	return out
}
