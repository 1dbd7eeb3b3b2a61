package capability

import (
	"context"
	"errors"
	"strings"
	"testing"

	"support-router/internal/common/logger"
	"support-router/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredClassifier_Classify(t *testing.T) {
	gen := &fakeGenerator{outputs: []string{
		"```json\n{\"intent\": \"ORDER_STATUS\", \"confidence\": 0.92, \"entities\": {\"order_id\": \"ORD-12345\"}, \"reasoning\": \"has id\"}\n```",
	}}
	c := NewStructuredClassifier(gen, logger.NewTestLogger(t))

	result, err := c.Classify(context.Background(), "Where is ORD-12345?", "route it")

	require.NoError(t, err)
	assert.Equal(t, models.IntentOrderStatus, result.Intent)
	assert.InDelta(t, 0.92, result.Confidence, 1e-9)
	assert.Equal(t, "ORD-12345", result.Entity(models.EntityOrderID))

	require.Equal(t, 1, gen.callCount())
	assert.True(t, strings.HasPrefix(gen.calls[0].Prompt, "Query: Where is ORD-12345?\n\n"))
	assert.Contains(t, gen.calls[0].Prompt, "Return ONLY the JSON object")
	assert.Equal(t, "route it", gen.calls[0].System)
}

func TestStructuredClassifier_GeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{errs: []error{ErrTimeout}}
	c := NewStructuredClassifier(gen, logger.NewTestLogger(t))

	_, err := c.Classify(context.Background(), "hi", "route it")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestStructuredClassifier_UnparseableOutput(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"prose", "I think this is an FAQ."},
		{"unknown intent", `{"intent": "refund", "confidence": 0.8, "reasoning": "x"}`},
		{"confidence out of range", `{"intent": "faq", "confidence": 1.4, "reasoning": "x"}`},
		{"missing reasoning", `{"intent": "faq", "confidence": 0.8}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewStructuredClassifier(&fakeGenerator{outputs: []string{tt.output}}, logger.NewNoOpLogger())
			_, err := c.Classify(context.Background(), "q", "i")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse))
		})
	}
}
