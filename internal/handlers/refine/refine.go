// Package refine turns factual handler answers into conversational replies when a rewriter is
// available, falling back to the factual text on any failure.
package refine

import (
	"context"
	"errors"
	"strings"

	"support-router/internal/capability"
	apperrors "support-router/internal/common/errors"
	"support-router/internal/common/logger"
	"support-router/internal/common/metrics"
)

// Result is either the rewritten text (Rewritten=true) or the original factual text.
type Result struct {
	Text      string
	Rewritten bool
}

// Template holds the fixed wording for one handler's rewrite call.
type Template struct {
	Name        string // metrics / log label
	Instruction string
	AnswerLabel string // "Factual answer" or "Order status"
}

// Refiner asks a rewriter for a conversational rephrasing. A nil rewriter disables rewriting.
type Refiner struct {
	rewriter capability.Rewriter
	template Template
	logger   logger.Logger
}

func New(rewriter capability.Rewriter, template Template, log logger.Logger) *Refiner {
	return &Refiner{
		rewriter: rewriter,
		template: template,
		logger: log.With(map[string]interface{}{
			"component": "refine",
			"handler":   template.Name,
		}),
	}
}

// Enabled reports whether a rewriter is configured.
func (r *Refiner) Enabled() bool {
	return r != nil && r.rewriter != nil
}

func (r *Refiner) prompt(query, factual string) string {
	var b strings.Builder
	b.WriteString(`Customer asked: "`)
	b.WriteString(query)
	b.WriteString("\"\n\n")
	b.WriteString(r.template.AnswerLabel)
	b.WriteString(": ")
	b.WriteString(factual)
	b.WriteString("\n\nRewrite this as a single, friendly response. Give ONLY ONE response, nothing else:")
	return b.String()
}

// Refine never fails. Every rewrite error resolves to the factual text.
func (r *Refiner) Refine(ctx context.Context, query, factual string) Result {
	original := Result{Text: factual}
	if !r.Enabled() {
		return original
	}

	text, err := r.rewriter.Rewrite(ctx, r.prompt(query, factual), r.template.Instruction)
	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = capability.ErrEmptyOutput
		}
	}
	if err != nil {
		r.logFallback(err)
		metrics.RewriteFallbacks.WithLabelValues(r.template.Name, fallbackReason(err)).Inc()
		return original
	}

	return Result{Text: text, Rewritten: true}
}

func (r *Refiner) logFallback(err error) {
	fields := map[string]interface{}{
		"error": apperrors.NewRewriteFailedError(err).Error(),
	}
	if capability.IsCapabilityError(err) || errors.Is(err, context.DeadlineExceeded) {
		r.logger.Warn("rewrite failed, using factual answer", fields)
		return
	}
	r.logger.Error("unexpected rewrite failure, using factual answer", fields)
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, capability.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, capability.ErrEmptyOutput):
		return "empty"
	case errors.Is(err, capability.ErrUnavailable):
		return "unavailable"
	default:
		return "other"
	}
}
