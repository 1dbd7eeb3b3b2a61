package database

import (
	"context"
	"fmt"
	"time"

	"support-router/internal/common/logger"
)

// Connect calls op until it succeeds, doubling the delay between attempts.
func Connect(ctx context.Context, name string, attempts int, initialDelay time.Duration, log logger.Logger, op func(context.Context) error) error {
	var err error
	delay := initialDelay

	for i := 0; i < attempts; i++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		log.Warn(name+" failed, retrying", map[string]interface{}{
			"error":       err.Error(),
			"attempt":     i + 1,
			"maxAttempts": attempts,
			"nextRetryIn": delay.String(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled: %w", name, ctx.Err())
		}
		delay *= 2
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
}
