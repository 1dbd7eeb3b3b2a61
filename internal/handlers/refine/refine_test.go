package refine

import (
	"context"
	"errors"
	"testing"

	"support-router/internal/capability"
	"support-router/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubRewriter struct {
	text        string
	err         error
	prompt      string
	instruction string
	calls       int
}

func (s *stubRewriter) Rewrite(_ context.Context, prompt, instruction string) (string, error) {
	s.calls++
	s.prompt = prompt
	s.instruction = instruction
	return s.text, s.err
}

var testTemplate = Template{
	Name:        "faq",
	Instruction: "be friendly",
	AnswerLabel: "Factual answer",
}

func TestRefine_NoRewriter(t *testing.T) {
	r := New(nil, testTemplate, logger.NewNoOpLogger())

	res := r.Refine(context.Background(), "hours?", "9-5")

	assert.False(t, r.Enabled())
	assert.Equal(t, Result{Text: "9-5"}, res)
}

func TestRefine_Rewritten(t *testing.T) {
	rw := &stubRewriter{text: "  We're open 9 to 5!  "}
	r := New(rw, testTemplate, logger.NewTestLogger(t))

	res := r.Refine(context.Background(), "What are your hours?", "Mon-Fri 9-5")

	assert.Equal(t, Result{Text: "We're open 9 to 5!", Rewritten: true}, res)
	assert.Equal(t, "be friendly", rw.instruction)
	assert.Equal(t,
		"Customer asked: \"What are your hours?\"\n\nFactual answer: Mon-Fri 9-5\n\nRewrite this as a single, friendly response. Give ONLY ONE response, nothing else:",
		rw.prompt)
}

func TestRefine_FallsBack(t *testing.T) {
	tests := []struct {
		name string
		text string
		err  error
	}{
		{"unavailable", "", capability.ErrUnavailable},
		{"timeout", "", capability.ErrTimeout},
		{"deadline", "", context.DeadlineExceeded},
		{"blank output", "   ", nil},
		{"unexpected error", "", errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(&stubRewriter{text: tt.text, err: tt.err}, testTemplate, logger.NewNoOpLogger())
			res := r.Refine(context.Background(), "q", "factual")
			assert.Equal(t, Result{Text: "factual"}, res)
		})
	}
}

func TestRefine_LogsFallbackAtWarn(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := New(&stubRewriter{err: capability.ErrTimeout}, testTemplate, logger.NewZapAdapter(zap.New(core)))

	r.Refine(context.Background(), "q", "factual")

	entries := logs.FilterMessage("rewrite failed, using factual answer").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestFallbackReason(t *testing.T) {
	assert.Equal(t, "timeout", fallbackReason(capability.ErrTimeout))
	assert.Equal(t, "empty", fallbackReason(capability.ErrEmptyOutput))
	assert.Equal(t, "unavailable", fallbackReason(capability.ErrUnavailable))
	assert.Equal(t, "other", fallbackReason(errors.New("x")))
}
