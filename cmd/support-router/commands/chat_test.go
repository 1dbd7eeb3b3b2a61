package commands

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"support-router/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatRouter struct {
	queries  []string
	sessions []string
	resets   []string
	resetErr error
}

func (r *fakeChatRouter) Route(_ context.Context, query, sessionID string) models.FinalResponse {
	r.queries = append(r.queries, query)
	r.sessions = append(r.sessions, sessionID)
	return models.FinalResponse{Query: query, Intent: models.IntentFAQ, Confidence: 0.9, Response: "answer to " + query}
}

func (r *fakeChatRouter) ResetSession(_ context.Context, sessionID string) error {
	r.resets = append(r.resets, sessionID)
	return r.resetErr
}

func TestRunChat(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantQueries []string
		wantOutput  []string
	}{
		{
			name:        "quit ends the loop",
			input:       "What are your hours?\nquit\nignored\n",
			wantQueries: []string{"What are your hours?"},
			wantOutput:  []string{"Bot: answer to What are your hours?", "[Intent: faq, Confidence: 0.90]", "Goodbye!"},
		},
		{
			name:        "quit words ignore case",
			input:       "EXIT\n",
			wantQueries: nil,
			wantOutput:  []string{"Goodbye!"},
		},
		{
			name:        "blank lines are skipped",
			input:       "\n   \nhello\nq\n",
			wantQueries: []string{"hello"},
		},
		{
			name:        "end of input stops cleanly",
			input:       "  padded query  ",
			wantQueries: []string{"padded query"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeChatRouter{}
			var out bytes.Buffer

			err := runChat(context.Background(), r, "main-session", strings.NewReader(tt.input), &out)
			require.NoError(t, err)

			assert.Equal(t, tt.wantQueries, r.queries)
			for _, want := range tt.wantOutput {
				assert.Contains(t, out.String(), want)
			}
			for _, s := range r.sessions {
				assert.Equal(t, "main-session", s)
			}
		})
	}
}

func TestRunChat_Reset(t *testing.T) {
	r := &fakeChatRouter{}
	var out bytes.Buffer

	require.NoError(t, runChat(context.Background(), r, "s1", strings.NewReader("/reset\nq\n"), &out))

	assert.Equal(t, []string{"s1"}, r.resets)
	assert.Empty(t, r.queries)
	assert.Contains(t, out.String(), "Session reset.")
}

func TestRunChat_ResetFailure(t *testing.T) {
	r := &fakeChatRouter{resetErr: errors.New("redis down")}
	var out bytes.Buffer

	require.NoError(t, runChat(context.Background(), r, "s1", strings.NewReader("/reset\nq\n"), &out))

	assert.Contains(t, out.String(), "Could not reset session: redis down")
}

func TestBanner(t *testing.T) {
	var out bytes.Buffer
	banner(&out, "ollama", "qwen2.5:3b")

	assert.Contains(t, out.String(), "Customer Service Bot")
	assert.Contains(t, out.String(), "Using: ollama (qwen2.5:3b)")
}
