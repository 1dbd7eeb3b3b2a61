package capability

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "support-router/internal/common/errors"
	"support-router/internal/common/validation"
	"support-router/internal/models"
)

var classificationSchema = validation.MustCompile("classification", `{
  "type": "object",
  "required": ["intent", "confidence", "reasoning"],
  "properties": {
    "intent": {"type": "string", "minLength": 1},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "entities": {
      "type": ["object", "null"],
      "additionalProperties": {"type": ["string", "null"]}
    },
    "reasoning": {"type": "string"}
  }
}`)

// ExtractJSON pulls the JSON object out of model output that may carry code fences or prose.
func ExtractJSON(raw string) (string, error) {
	text := strings.TrimSpace(raw)

	if i := strings.Index(text, "```json"); i >= 0 {
		text = text[i+len("```json"):]
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
	} else if i := strings.Index(text, "```"); i >= 0 {
		text = text[i+3:]
		if j := strings.Index(text, "```"); j >= 0 {
			text = text[:j]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in model output")
	}
	return strings.TrimSpace(text[start : end+1]), nil
}

type rawClassification struct {
	Intent     string             `json:"intent"`
	Confidence float64            `json:"confidence"`
	Entities   map[string]*string `json:"entities"`
	Reasoning  string             `json:"reasoning"`
}

// ParseClassification turns raw model output into a ClassificationResult.
// Every failure wraps ErrParse. Null entity values are dropped.
func ParseClassification(raw string) (models.ClassificationResult, error) {
	doc, err := ExtractJSON(raw)
	if err != nil {
		return models.ClassificationResult{}, parseError(err)
	}

	if err := classificationSchema.ValidateBytes([]byte(doc)); err != nil {
		return models.ClassificationResult{}, parseError(err)
	}

	var rc rawClassification
	if err := json.Unmarshal([]byte(doc), &rc); err != nil {
		return models.ClassificationResult{}, parseError(err)
	}

	intent, err := models.ParseIntent(rc.Intent)
	if err != nil {
		return models.ClassificationResult{}, parseError(err)
	}

	entities := make(map[string]string, len(rc.Entities))
	for k, v := range rc.Entities {
		if v != nil {
			entities[k] = *v
		}
	}

	return models.ClassificationResult{
		Intent:     intent,
		Confidence: rc.Confidence,
		Entities:   entities,
		Reasoning:  rc.Reasoning,
	}, nil
}

func parseError(err error) error {
	return fmt.Errorf("%w: %w", ErrParse, apperrors.NewClassificationParseFailedError(err))
}
