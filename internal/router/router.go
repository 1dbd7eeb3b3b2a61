// Package router classifies customer queries, gates them on confidence, dispatches them to
// intent handlers and escalates sessions that stay unclear.
package router

import (
	"context"
	"time"

	"support-router/internal/capability"
	apperrors "support-router/internal/common/errors"
	"support-router/internal/common/logger"
	"support-router/internal/common/metrics"
	"support-router/internal/common/observability"
	"support-router/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Handler produces the answer for one intent. hint carries the extracted order id for
// order-status queries and is empty otherwise.
type Handler interface {
	Handle(ctx context.Context, query, hint string) models.HandlerOutcome
}

// Notifier is told about every escalation. Its errors never change the response.
type Notifier interface {
	NotifyEscalation(ctx context.Context, event models.EscalationEvent) error
}

type Router struct {
	classifier capability.Classifier
	handlers   map[models.Intent]Handler
	sessions   SessionStore
	threshold  float64
	notifier   Notifier
	obs        *observability.Observability
	logger     logger.Logger
	now        func() time.Time
}

type Option func(*Router)

func WithHandler(intent models.Intent, h Handler) Option {
	return func(r *Router) { r.handlers[intent] = h }
}

func WithSessionStore(store SessionStore) Option {
	return func(r *Router) { r.sessions = store }
}

// WithThreshold ignores values outside (0, 1].
func WithThreshold(threshold float64) Option {
	return func(r *Router) {
		if threshold > 0 && threshold <= 1 {
			r.threshold = threshold
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(r *Router) { r.notifier = n }
}

func WithObservability(o *observability.Observability) Option {
	return func(r *Router) { r.obs = o }
}

// New builds a router with an in-memory session store and the default threshold unless
// options say otherwise. Intents without a handler escalate.
func New(classifier capability.Classifier, log logger.Logger, opts ...Option) *Router {
	r := &Router{
		classifier: classifier,
		handlers:   make(map[models.Intent]Handler),
		sessions:   NewMemorySessionStore(),
		threshold:  DefaultConfidenceThreshold,
		logger:     log.With(map[string]interface{}{"component": "router"}),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Threshold returns the confidence cutoff in use.
func (r *Router) Threshold() float64 {
	return r.threshold
}

// Route never fails: every error path resolves to a clarification, a handler message or an
// escalation.
func (r *Router) Route(ctx context.Context, query, sessionID string) models.FinalResponse {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	start := r.now()

	ctx, span := r.obs.StartSpan(ctx, "router.Route", attribute.String("session.id", sessionID))
	defer span.End()

	resp, outcome := r.route(ctx, query, sessionID)

	span.SetAttributes(
		attribute.String("route.intent", resp.Intent.String()),
		attribute.String("route.outcome", outcome),
		attribute.Bool("route.escalated", resp.Escalated),
	)
	if resp.Escalated {
		span.SetStatus(codes.Error, "escalated")
	}

	metrics.QueriesRouted.WithLabelValues(resp.Intent.String(), outcome).Inc()
	r.obs.RecordRoute(ctx, resp.Intent.String(), outcome, r.now().Sub(start))
	return resp
}

func (r *Router) route(ctx context.Context, query, sessionID string) (models.FinalResponse, string) {
	log := r.logger.With(map[string]interface{}{"sessionId": sessionID})

	classification, err := r.classify(ctx, query)
	if err != nil {
		log.Warn("classification failed", map[string]interface{}{
			"error":    err.Error(),
			"category": apperrors.GetErrorCategory(apperrors.Normalize(err).Code),
		})
		return r.escalate(ctx, query, sessionID, ReasonClassificationFailed), outcomeEscalated
	}

	log.Debug("query classified", map[string]interface{}{
		"intent":     classification.Intent,
		"confidence": classification.Confidence,
		"reasoning":  classification.Reasoning,
	})

	if classification.Intent == models.IntentUnclear || classification.Confidence < r.threshold {
		return r.handleUnclear(ctx, log, query, sessionID, classification)
	}

	handler, ok := r.handlers[classification.Intent]
	if !ok {
		log.Warn("no handler registered for intent", map[string]interface{}{"intent": classification.Intent})
		return r.escalate(ctx, query, sessionID, ReasonNoHandler), outcomeEscalated
	}

	hint := ""
	if classification.Intent == models.IntentOrderStatus {
		hint = classification.Entity(models.EntityOrderID)
	}

	_, span := r.obs.StartSpan(ctx, "router.Dispatch", attribute.String("intent", classification.Intent.String()))
	outcome := handler.Handle(ctx, query, hint)
	span.End()

	resp := models.FinalResponse{
		Query:      query,
		Intent:     classification.Intent,
		Confidence: classification.Confidence,
	}

	switch {
	case outcome.NeedsClarification:
		resp.Response = outcome.Message
		return resp, outcomeNeedsClarification
	case !outcome.Success:
		resp.Response = outcome.Message
		if classification.Intent == models.IntentFAQ {
			resp.Response = FAQFallbackMessage
		}
		return resp, outcomeNotFound
	default:
		resp.Response = outcome.Message
		return resp, outcomeAnswered
	}
}

func (r *Router) classify(ctx context.Context, query string) (models.ClassificationResult, error) {
	ctx, span := r.obs.StartSpan(ctx, "router.Classify")
	defer span.End()

	start := time.Now()
	result, err := r.classifier.Classify(ctx, query, RoutingInstruction)
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "classification failed")
	}
	metrics.ClassificationDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	return result, err
}

// handleUnclear returns a clarification on the first unclear turn and escalates afterwards.
func (r *Router) handleUnclear(ctx context.Context, log logger.Logger, query, sessionID string, c models.ClassificationResult) (models.FinalResponse, string) {
	previous, err := r.sessions.MarkUnclear(ctx, sessionID)
	if err != nil {
		log.Error("session store failed, escalating", map[string]interface{}{
			"error": apperrors.NewSessionStoreFailedError(sessionID, err).Error(),
		})
		return r.escalate(ctx, query, sessionID, ReasonSessionStoreFailed), outcomeEscalated
	}

	if previous >= 1 {
		return r.escalate(ctx, query, sessionID, ReasonRepeatedUnclear), outcomeEscalated
	}

	log.Info("asking for clarification", map[string]interface{}{
		"intent":     c.Intent,
		"confidence": c.Confidence,
	})
	return models.FinalResponse{
		Query:      query,
		Intent:     models.IntentUnclear,
		Confidence: c.Confidence,
		Response:   ClarificationMessage,
	}, outcomeClarify
}

func (r *Router) escalate(ctx context.Context, query, sessionID, reason string) models.FinalResponse {
	metrics.Escalations.WithLabelValues(reason).Inc()
	r.logger.Info("escalating to human support", map[string]interface{}{
		"sessionId": sessionID,
		"reason":    reason,
	})

	if r.notifier != nil {
		event := models.EscalationEvent{
			TicketID:   uuid.New().String(),
			SessionID:  sessionID,
			Query:      query,
			Reason:     reason,
			OccurredAt: r.now().UTC(),
		}
		if err := r.notifier.NotifyEscalation(ctx, event); err != nil {
			r.logger.Warn("escalation notification failed", map[string]interface{}{
				"ticketId": event.TicketID,
				"error":    err.Error(),
			})
		}
	}

	return models.FinalResponse{
		Query:      query,
		Intent:     models.IntentUnclear,
		Confidence: 0.0,
		Response:   EscalationMessage,
		Escalated:  true,
	}
}

// ResetSession clears the session's unclear counter. Memory stores never fail; the Redis
// store returns transport errors.
func (r *Router) ResetSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	if err := r.sessions.Reset(ctx, sessionID); err != nil {
		return apperrors.NewSessionStoreFailedError(sessionID, err)
	}
	r.logger.Debug("session reset", map[string]interface{}{"sessionId": sessionID})
	return nil
}
