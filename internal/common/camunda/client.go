// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"support-router/internal/common/config"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/sethvargo/go-retry"
)

// Client wraps the Zeebe gRPC client with a connection check and health probe.
type Client struct {
	client         zbc.Client
	requestTimeout time.Duration
}

// RetryConfig bounds the initial connection attempts.
type RetryConfig struct {
	MaxRetries uint64
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = RetryConfig{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   10 * time.Second,
}

// NewClient connects to the gateway and waits for a topology answer, retrying transient
// failures.
func NewClient(ctx context.Context, cfg config.CamundaConfig, rc RetryConfig) (*Client, error) {
	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{
		client:         zeebeClient,
		requestTimeout: config.GetDuration(cfg.RequestTimeout),
	}
	if c.requestTimeout <= 0 {
		c.requestTimeout = 10 * time.Second
	}

	backoff := retry.WithCappedDuration(rc.MaxDelay, retry.WithMaxRetries(rc.MaxRetries, retry.NewExponential(rc.BaseDelay)))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.HealthCheck(ctx); err != nil {
			if IsRetryableZeebeError(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", cfg.BrokerAddress, err)
	}
	return c, nil
}

// Zeebe returns the raw client for job workers.
func (c *Client) Zeebe() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck asks the gateway for its topology.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// IsRetryableZeebeError reports whether err looks like a transient transport failure.
func IsRetryableZeebeError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
