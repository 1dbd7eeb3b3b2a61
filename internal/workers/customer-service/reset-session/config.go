// internal/workers/customer-service/reset-session/config.go
package resetsession

import (
	"time"

	"support-router/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	out := &Config{Timeout: 10 * time.Second}
	if cfg == nil {
		return out
	}
	if wc := config.GetWorkerConfig(cfg, TaskType); wc.Timeout > 0 {
		out.Timeout = config.GetDuration(wc.Timeout)
	}
	return out
}
