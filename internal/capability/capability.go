// Package capability adapts text-generation backends into the two operations the router
// needs: structured intent classification and best-effort conversational rewrite.
package capability

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	apperrors "support-router/internal/common/errors"
	"support-router/internal/models"

	"github.com/sethvargo/go-retry"
)

var (
	// ErrUnavailable covers unreachable backends and error responses.
	ErrUnavailable = errors.New("CAPABILITY_UNAVAILABLE")
	// ErrTimeout is returned when a backend call runs out of time.
	ErrTimeout = errors.New("CAPABILITY_TIMEOUT")
	// ErrParse is returned when classifier output does not fit the expected shape.
	ErrParse = errors.New("CLASSIFICATION_PARSE_FAILED")
	// ErrEmptyOutput is returned when a backend answers with blank text.
	ErrEmptyOutput = errors.New("CAPABILITY_EMPTY_OUTPUT")
)

// Generator turns a prompt and optional system instruction into text.
type Generator interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
	Name() string
}

// Classifier produces a typed classification for a query.
type Classifier interface {
	Classify(ctx context.Context, query, instruction string) (models.ClassificationResult, error)
}

// Rewriter rephrases text. Callers treat every failure as "keep the original".
type Rewriter interface {
	Rewrite(ctx context.Context, prompt, instruction string) (string, error)
}

// IsCapabilityError reports whether err is one of the failure kinds defined by this package.
func IsCapabilityError(err error) bool {
	return errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrParse) ||
		errors.Is(err, ErrEmptyOutput)
}

// backendError tags err with the sentinel and the structured error for backend.
func backendError(ctx context.Context, backend string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, apperrors.NewCapabilityTimeoutError(backend, err))
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, apperrors.NewCapabilityUnavailableError(backend, err))
}

// statusError is a non-2xx answer from a backend.
type statusError struct {
	Backend string
	Status  int
	Body    string
}

func (e *statusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Backend, e.Status, body)
}

func retryableStatus(status int) bool {
	return status == 429 || status >= 500
}

// isTransient decides whether an attempt is worth repeating.
func isTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var se *statusError
	if errors.As(err, &se) {
		return retryableStatus(se.Status)
	}
	var withStatus interface{ HTTPStatus() int }
	if errors.As(err, &withStatus) {
		return retryableStatus(withStatus.HTTPStatus())
	}
	return false
}

// withRetry runs attempt up to maxRetries+1 times with exponential backoff on transient errors.
func withRetry(ctx context.Context, maxRetries int, policy Backoff, attempt func(ctx context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	b := retry.WithMaxRetries(uint64(maxRetries), retry.NewExponential(policy.Base))
	if policy.Max > 0 {
		b = retry.WithCappedDuration(policy.Max, b)
	}

	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := attempt(ctx)
		if isTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
