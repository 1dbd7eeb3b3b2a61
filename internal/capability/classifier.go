package capability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"support-router/internal/common/logger"
	"support-router/internal/models"
)

const responseFormat = `Respond with a JSON object with these fields:
- intent: string (one of: "faq", "order_status", "unclear")
- confidence: number (0.0 to 1.0)
- entities: object (e.g. {"order_id": "ORD-12345"})
- reasoning: string (brief explanation)

Example response:
{"intent": "faq", "confidence": 0.95, "entities": {}, "reasoning": "Query asks about store hours"}

IMPORTANT: Return ONLY the JSON object with intent/confidence/entities/reasoning. No schema, no markdown, no explanations.`

// StructuredClassifier asks a Generator for a JSON classification and parses it.
type StructuredClassifier struct {
	gen    Generator
	logger logger.Logger
}

func NewStructuredClassifier(gen Generator, log logger.Logger) *StructuredClassifier {
	return &StructuredClassifier{
		gen: gen,
		logger: log.With(map[string]interface{}{
			"component": "classifier",
			"backend":   gen.Name(),
		}),
	}
}

func buildClassificationPrompt(query string) string {
	var b strings.Builder
	b.WriteString("Query: ")
	b.WriteString(query)
	b.WriteString("\n\n")
	b.WriteString(responseFormat)
	return b.String()
}

func (c *StructuredClassifier) Classify(ctx context.Context, query, instruction string) (models.ClassificationResult, error) {
	start := time.Now()

	raw, err := c.gen.Generate(ctx, buildClassificationPrompt(query), instruction)
	if err != nil {
		c.logger.Warn("classification call failed", map[string]interface{}{
			"error":    err.Error(),
			"duration": time.Since(start).String(),
		})
		return models.ClassificationResult{}, fmt.Errorf("classify: %w", err)
	}

	result, err := ParseClassification(raw)
	if err != nil {
		c.logger.Warn("classification output rejected", map[string]interface{}{
			"error":     err.Error(),
			"rawLength": len(raw),
		})
		return models.ClassificationResult{}, err
	}

	c.logger.Debug("query classified", map[string]interface{}{
		"intent":     result.Intent,
		"confidence": result.Confidence,
		"entities":   len(result.Entities),
		"duration":   time.Since(start).String(),
	})
	return result, nil
}
