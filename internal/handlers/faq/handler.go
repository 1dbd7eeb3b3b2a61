// internal/handlers/faq/handler.go
package faq

import (
	"context"
	"strings"

	"support-router/internal/common/logger"
	"support-router/internal/handlers/refine"
	"support-router/internal/models"
)

type topic struct {
	name     string
	keywords []string
	answer   string
}

// Handler answers store-policy questions from a knowledge base by keyword overlap.
type Handler struct {
	topics  []topic
	refiner *refine.Refiner
	logger  logger.Logger
}

// NewHandler snapshots kb. refiner may be nil.
func NewHandler(kb *models.KnowledgeBase, refiner *refine.Refiner, log logger.Logger) *Handler {
	topics := make([]topic, 0, kb.Len())
	if kb != nil {
		for _, t := range kb.Topics {
			keywords := append([]string(nil), t.Keywords...)
			topics = append(topics, topic{name: t.Name, keywords: keywords, answer: t.Answer})
		}
	}

	return &Handler{
		topics:  topics,
		refiner: refiner,
		logger: log.With(map[string]interface{}{
			"handler": Name,
		}),
	}
}

// Match returns the best-scoring topic. Only the query is lower-cased; keywords are compared as
// loaded. Ties keep the earlier topic; ok is false when nothing scored above zero.
func (h *Handler) Match(query string) (name, answer string, ok bool) {
	q := strings.ToLower(query)

	best := -1
	bestScore := 0
	for i, t := range h.topics {
		score := 0
		for _, kw := range t.keywords {
			if strings.Contains(q, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}

	if best < 0 {
		return "", "", false
	}
	return h.topics[best].name, h.topics[best].answer, true
}

// Handle ignores the hint.
func (h *Handler) Handle(ctx context.Context, query, _ string) models.HandlerOutcome {
	name, answer, ok := h.Match(query)
	if !ok {
		h.logger.Debug("no topic matched", nil)
		return models.HandlerOutcome{Success: false, Message: NoMatchMessage}
	}

	res := h.refiner.Refine(ctx, query, answer)
	h.logger.Debug("topic matched", map[string]interface{}{
		"topic":     name,
		"rewritten": res.Rewritten,
	})

	return models.HandlerOutcome{
		Success: true,
		Message: res.Text,
		Data:    map[string]interface{}{"topic": name},
	}
}
