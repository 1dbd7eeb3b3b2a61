package router

import (
	"context"
	"errors"
	"sync"
	"testing"

	"support-router/internal/capability"
	"support-router/internal/common/logger"
	"support-router/internal/handlers/faq"
	"support-router/internal/handlers/order"
	"support-router/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Doubles
// ==========================

type classifyResult struct {
	result models.ClassificationResult
	err    error
}

// scriptedClassifier returns results in order and repeats the last one.
type scriptedClassifier struct {
	mu           sync.Mutex
	script       []classifyResult
	calls        int
	instructions []string
}

func (c *scriptedClassifier) Classify(_ context.Context, _ string, instruction string) (models.ClassificationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.instructions = append(c.instructions, instruction)
	i := c.calls
	if i >= len(c.script) {
		i = len(c.script) - 1
	}
	c.calls++
	return c.script[i].result, c.script[i].err
}

func classifyAs(intent models.Intent, confidence float64, entities map[string]string) *scriptedClassifier {
	return &scriptedClassifier{script: []classifyResult{{
		result: models.ClassificationResult{Intent: intent, Confidence: confidence, Entities: entities},
	}}}
}

type recordingHandler struct {
	mu      sync.Mutex
	outcome models.HandlerOutcome
	hints   []string
}

func (h *recordingHandler) Handle(_ context.Context, _ string, hint string) models.HandlerOutcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hints = append(h.hints, hint)
	return h.outcome
}

func (h *recordingHandler) callCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.hints)
}

type failingStore struct{ err error }

func (s failingStore) MarkUnclear(context.Context, string) (int, error) { return 0, s.err }
func (s failingStore) Reset(context.Context, string) error              { return s.err }

var _ SessionStore = failingStore{}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.EscalationEvent
	err    error
}

func (n *recordingNotifier) NotifyEscalation(_ context.Context, e models.EscalationEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return n.err
}

func testKnowledgeBase() *models.KnowledgeBase {
	return &models.KnowledgeBase{Topics: []models.Topic{
		{Name: "hours", Keywords: []string{"hours", "open", "close"}, Answer: "We're open Mon-Fri 9AM-9PM, Sat-Sun 10AM-6PM."},
		{Name: "returns", Keywords: []string{"return", "refund"}, Answer: "30-day returns with receipt."},
	}}
}

func testOrderBook() models.OrderBook {
	return models.OrderBook{
		"ORD-12345": {
			OrderID:  "ORD-12345",
			Status:   "shipped",
			Items:    []models.OrderItem{{Name: "Laptop", Fields: map[string]interface{}{"name": "Laptop"}}},
			Tracking: "1Z999",
		},
	}
}

func newTestRouter(t *testing.T, c capability.Classifier, opts ...Option) *Router {
	t.Helper()
	log := logger.NewTestLogger(t)
	base := []Option{
		WithHandler(models.IntentFAQ, faq.NewHandler(testKnowledgeBase(), nil, log)),
		WithHandler(models.IntentOrderStatus, order.NewHandler(testOrderBook(), nil, log)),
	}
	return New(c, log, append(base, opts...)...)
}

// ==========================
// Scenarios
// ==========================

func TestRoute_StoreHours(t *testing.T) {
	c := classifyAs(models.IntentFAQ, 0.92, map[string]string{})
	r := newTestRouter(t, c)

	resp := r.Route(context.Background(), "What are your store hours?", "s1")

	assert.Equal(t, models.FinalResponse{
		Query:      "What are your store hours?",
		Intent:     models.IntentFAQ,
		Confidence: 0.92,
		Response:   "We're open Mon-Fri 9AM-9PM, Sat-Sun 10AM-6PM.",
	}, resp)
	assert.Equal(t, []string{RoutingInstruction}, c.instructions)
}

func TestRoute_OrderStatus(t *testing.T) {
	c := classifyAs(models.IntentOrderStatus, 0.95, map[string]string{models.EntityOrderID: "ORD-12345"})
	r := newTestRouter(t, c)

	resp := r.Route(context.Background(), "Where is ORD-12345?", "s1")

	assert.Equal(t, "Order ORD-12345 (Laptop) is shipped. Tracking: 1Z999.", resp.Response)
	assert.Equal(t, models.IntentOrderStatus, resp.Intent)
	assert.Equal(t, 0.95, resp.Confidence)
	assert.False(t, resp.Escalated)
}

func TestRoute_UnknownOrder(t *testing.T) {
	c := classifyAs(models.IntentOrderStatus, 0.9, map[string]string{models.EntityOrderID: "ORD-99999"})
	r := newTestRouter(t, c)

	resp := r.Route(context.Background(), "Where is ORD-99999?", "s1")

	assert.Contains(t, resp.Response, "ORD-99999")
	assert.Contains(t, resp.Response, "support@store.com")
	assert.False(t, resp.Escalated)
}

func TestRoute_HiTwiceEscalates(t *testing.T) {
	c := classifyAs(models.IntentUnclear, 0.3, nil)
	r := newTestRouter(t, c)
	ctx := context.Background()

	first := r.Route(ctx, "hi", "s1")
	assert.False(t, first.Escalated)
	assert.Equal(t, ClarificationMessage, first.Response)
	assert.Equal(t, models.IntentUnclear, first.Intent)
	assert.Equal(t, 0.3, first.Confidence)

	second := r.Route(ctx, "hi", "s1")
	assert.Equal(t, models.FinalResponse{
		Query:      "hi",
		Intent:     models.IntentUnclear,
		Confidence: 0.0,
		Response:   EscalationMessage,
		Escalated:  true,
	}, second)
}

// ==========================
// Gating and escalation properties
// ==========================

func TestRoute_LowConfidenceNeverDispatches(t *testing.T) {
	for _, intent := range []models.Intent{models.IntentFAQ, models.IntentOrderStatus} {
		for _, conf := range []float64{0.0, 0.3, 0.5, 0.69, 0.6999} {
			h := &recordingHandler{outcome: models.HandlerOutcome{Success: true, Message: "answer"}}
			r := New(classifyAs(intent, conf, nil), logger.NewNoOpLogger(), WithHandler(intent, h))

			resp := r.Route(context.Background(), "q", "s")

			assert.Equal(t, 0, h.callCount(), "intent %s confidence %v", intent, conf)
			assert.Equal(t, models.IntentUnclear, resp.Intent)
			assert.Equal(t, conf, resp.Confidence)
			assert.Equal(t, ClarificationMessage, resp.Response)
		}
	}
}

func TestRoute_ThresholdIsInclusive(t *testing.T) {
	h := &recordingHandler{outcome: models.HandlerOutcome{Success: true, Message: "answer"}}
	r := New(classifyAs(models.IntentFAQ, 0.70, nil), logger.NewNoOpLogger(), WithHandler(models.IntentFAQ, h))

	resp := r.Route(context.Background(), "q", "s")

	assert.Equal(t, 1, h.callCount())
	assert.Equal(t, "answer", resp.Response)
}

func TestRoute_UnclearIntentWithHighConfidence(t *testing.T) {
	r := newTestRouter(t, classifyAs(models.IntentUnclear, 0.99, nil))
	resp := r.Route(context.Background(), "hmm", "s1")
	assert.Equal(t, ClarificationMessage, resp.Response)
	assert.Equal(t, 0.99, resp.Confidence)
}

func TestRoute_ResetRestoresClarification(t *testing.T) {
	ctx := context.Background()
	r := newTestRouter(t, classifyAs(models.IntentUnclear, 0.2, nil))

	r.Route(ctx, "hi", "s1")
	require.True(t, r.Route(ctx, "hi", "s1").Escalated)

	require.NoError(t, r.ResetSession(ctx, "s1"))
	require.NoError(t, r.ResetSession(ctx, "s1"))

	resp := r.Route(ctx, "hi", "s1")
	assert.False(t, resp.Escalated)
	assert.Equal(t, ClarificationMessage, resp.Response)
}

func TestRoute_CounterNotClearedAfterEscalation(t *testing.T) {
	ctx := context.Background()
	r := newTestRouter(t, classifyAs(models.IntentUnclear, 0.2, nil))

	r.Route(ctx, "hi", "s1")
	r.Route(ctx, "hi", "s1")
	assert.True(t, r.Route(ctx, "hello?", "s1").Escalated)
}

func TestRoute_ConfidentTurnDoesNotClearCounter(t *testing.T) {
	ctx := context.Background()
	c := &scriptedClassifier{script: []classifyResult{
		{result: models.ClassificationResult{Intent: models.IntentUnclear, Confidence: 0.2}},
		{result: models.ClassificationResult{Intent: models.IntentFAQ, Confidence: 0.9}},
		{result: models.ClassificationResult{Intent: models.IntentUnclear, Confidence: 0.2}},
	}}
	r := newTestRouter(t, c)

	assert.False(t, r.Route(ctx, "hi", "s1").Escalated)
	assert.False(t, r.Route(ctx, "store hours?", "s1").Escalated)
	assert.True(t, r.Route(ctx, "hmm", "s1").Escalated)
}

func TestRoute_SessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	r := newTestRouter(t, classifyAs(models.IntentUnclear, 0.2, nil))

	r.Route(ctx, "hi", "alice")
	assert.False(t, r.Route(ctx, "hi", "bob").Escalated)
	assert.True(t, r.Route(ctx, "hi", "alice").Escalated)
}

func TestRoute_EmptySessionUsesDefault(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	r := newTestRouter(t, classifyAs(models.IntentUnclear, 0.2, nil), WithSessionStore(store))

	r.Route(ctx, "hi", "")
	count, _ := store.Count(ctx, DefaultSessionID)
	assert.Equal(t, 1, count)
}

func TestRoute_ClassificationFailureEscalatesWithoutSessionState(t *testing.T) {
	for _, err := range []error{capability.ErrParse, capability.ErrUnavailable, capability.ErrTimeout, errors.New("boom")} {
		t.Run(err.Error(), func(t *testing.T) {
			ctx := context.Background()
			store := NewMemorySessionStore()
			c := &scriptedClassifier{script: []classifyResult{{err: err}}}
			r := newTestRouter(t, c, WithSessionStore(store))

			resp := r.Route(ctx, "hours?", "s1")

			assert.True(t, resp.Escalated)
			assert.Equal(t, EscalationMessage, resp.Response)
			assert.Equal(t, 0.0, resp.Confidence)
			assert.Equal(t, 0, store.Len())
		})
	}
}

func TestRoute_SessionStoreFailureEscalates(t *testing.T) {
	r := newTestRouter(t, classifyAs(models.IntentUnclear, 0.2, nil), WithSessionStore(failingStore{err: errors.New("redis down")}))

	resp := r.Route(context.Background(), "hi", "s1")

	assert.True(t, resp.Escalated)
	assert.Error(t, r.ResetSession(context.Background(), "s1"))
}

func TestRoute_IntentWithoutHandlerEscalates(t *testing.T) {
	r := New(classifyAs(models.IntentOrderStatus, 0.9, nil), logger.NewNoOpLogger())
	resp := r.Route(context.Background(), "ORD-12345", "s1")
	assert.True(t, resp.Escalated)
}

// ==========================
// Outcome mapping
// ==========================

func TestRoute_OutcomeMapping(t *testing.T) {
	tests := []struct {
		name    string
		intent  models.Intent
		outcome models.HandlerOutcome
		want    string
	}{
		{"success", models.IntentFAQ, models.HandlerOutcome{Success: true, Message: "answer"}, "answer"},
		{"faq failure uses fallback", models.IntentFAQ, models.HandlerOutcome{Message: "no topic"}, FAQFallbackMessage},
		{"order failure passes message", models.IntentOrderStatus, models.HandlerOutcome{Message: "Order ORD-1 not found"}, "Order ORD-1 not found"},
		{"clarification passes message", models.IntentOrderStatus, models.HandlerOutcome{Message: order.MissingIDMessage, NeedsClarification: true}, order.MissingIDMessage},
		{"faq clarification passes message", models.IntentFAQ, models.HandlerOutcome{Message: "which one?", NeedsClarification: true}, "which one?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &recordingHandler{outcome: tt.outcome}
			r := New(classifyAs(tt.intent, 0.8, nil), logger.NewNoOpLogger(), WithHandler(tt.intent, h))

			resp := r.Route(context.Background(), "q", "s")

			assert.Equal(t, tt.want, resp.Response)
			assert.Equal(t, tt.intent, resp.Intent)
			assert.Equal(t, 0.8, resp.Confidence)
			assert.False(t, resp.Escalated)
		})
	}
}

func TestRoute_HintOnlyForOrderStatus(t *testing.T) {
	entities := map[string]string{models.EntityOrderID: "ORD-12345"}

	faqHandler := &recordingHandler{outcome: models.HandlerOutcome{Success: true, Message: "a"}}
	New(classifyAs(models.IntentFAQ, 0.9, entities), logger.NewNoOpLogger(), WithHandler(models.IntentFAQ, faqHandler)).
		Route(context.Background(), "q", "s")
	assert.Equal(t, []string{""}, faqHandler.hints)

	orderHandler := &recordingHandler{outcome: models.HandlerOutcome{Success: true, Message: "a"}}
	New(classifyAs(models.IntentOrderStatus, 0.9, entities), logger.NewNoOpLogger(), WithHandler(models.IntentOrderStatus, orderHandler)).
		Route(context.Background(), "q", "s")
	assert.Equal(t, []string{"ORD-12345"}, orderHandler.hints)
}

func TestRoute_MissingOrderIDDoesNotTouchSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	r := newTestRouter(t, classifyAs(models.IntentOrderStatus, 0.9, nil), WithSessionStore(store))

	resp := r.Route(ctx, "where's my order", "s1")

	assert.Equal(t, order.MissingIDMessage, resp.Response)
	assert.False(t, resp.Escalated)
	assert.Equal(t, 0, store.Len())
}

// ==========================
// Options, notifications, concurrency
// ==========================

func TestWithThreshold(t *testing.T) {
	assert.Equal(t, DefaultConfidenceThreshold, New(nil, logger.NewNoOpLogger()).Threshold())
	assert.Equal(t, 0.5, New(nil, logger.NewNoOpLogger(), WithThreshold(0.5)).Threshold())
	assert.Equal(t, DefaultConfidenceThreshold, New(nil, logger.NewNoOpLogger(), WithThreshold(0)).Threshold())
	assert.Equal(t, DefaultConfidenceThreshold, New(nil, logger.NewNoOpLogger(), WithThreshold(1.5)).Threshold())
}

func TestRoute_NotifiesEscalations(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{err: errors.New("ses throttled")}
	r := newTestRouter(t, classifyAs(models.IntentUnclear, 0.1, nil), WithNotifier(n))

	r.Route(ctx, "hi", "s1")
	resp := r.Route(ctx, "hi again", "s1")

	assert.True(t, resp.Escalated)
	assert.Equal(t, EscalationMessage, resp.Response)
	require.Len(t, n.events, 1)
	assert.Equal(t, "s1", n.events[0].SessionID)
	assert.Equal(t, "hi again", n.events[0].Query)
	assert.Equal(t, ReasonRepeatedUnclear, n.events[0].Reason)
	assert.NotEmpty(t, n.events[0].TicketID)
}

func TestRoute_ConcurrentUnclearSameSession(t *testing.T) {
	r := newTestRouter(t, classifyAs(models.IntentUnclear, 0.1, nil))

	const n = 20
	results := make([]models.FinalResponse, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Route(context.Background(), "hi", "shared")
		}(i)
	}
	wg.Wait()

	clarifications := 0
	for _, resp := range results {
		if !resp.Escalated {
			clarifications++
		}
	}
	assert.Equal(t, 1, clarifications)
}

func TestRoute_RedisBackedSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	store := NewRedisSessionStore(client, "", 0)
	first := newTestRouter(t, classifyAs(models.IntentUnclear, 0.1, nil), WithSessionStore(store))
	second := newTestRouter(t, classifyAs(models.IntentUnclear, 0.1, nil), WithSessionStore(store))

	assert.False(t, first.Route(ctx, "hi", "s1").Escalated)
	assert.True(t, second.Route(ctx, "hi", "s1").Escalated)

	require.NoError(t, second.ResetSession(ctx, "s1"))
	assert.False(t, first.Route(ctx, "hi", "s1").Escalated)
}
