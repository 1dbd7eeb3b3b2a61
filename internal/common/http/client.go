// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"
	"time"
)

const maxErrorBody = 1024

// Client posts JSON to internal gateways. A zero timeout leaves deadlines to the context.
type Client struct {
	httpClient *nethttp.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &nethttp.Client{
			Timeout: timeout,
		},
	}
}

// StatusError is a non-2xx answer. Body holds at most the first KiB of the response.
type StatusError struct {
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("POST %s returned status %d: %s", e.URL, e.Status, body)
}

// HTTPStatus lets callers classify the failure without importing this package.
func (e *StatusError) HTTPStatus() int {
	return e.Status
}

func (c *Client) Do(req *nethttp.Request) (*nethttp.Response, error) {
	return c.httpClient.Do(req)
}

// PostJSON encodes in, sends it to url and decodes a 2xx body into out. out may be nil.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{URL: url, Status: resp.StatusCode, Body: string(msg)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
