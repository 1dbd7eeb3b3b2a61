package router

// DefaultConfidenceThreshold is the cutoff below which a classification is treated as unclear.
const DefaultConfidenceThreshold = 0.70

// DefaultSessionID is used when a caller does not name a session.
const DefaultSessionID = "default"

// RoutingInstruction is the fixed instruction sent with every classification request.
const RoutingInstruction = `You are a customer service intent classifier.

Classify queries into:
- FAQ: Questions about store hours, returns, shipping, payment, contact
- ORDER_STATUS: Order tracking questions (look for order IDs like ORD-XXXXX)
- UNCLEAR: Vague or ambiguous queries

Extract entities:
- order_id: Order number if present (ORD-XXXXX)

Provide:
- intent: The classification
- confidence: 0.0 to 1.0
- entities: Extracted data
- reasoning: Why you chose this`

const (
	ClarificationMessage = "Could you clarify? Are you asking about:\n• Store policies (hours, returns, shipping)?\n• Order status (provide order ID: ORD-XXXXX)?"

	EscalationMessage = "Let me connect you with support:\n• Email: support@store.com\n• Phone: 1-800-SHOP-NOW"

	FAQFallbackMessage = "I don't have that info. I can help with: hours, returns, shipping, payment, contact."
)

// Escalation reasons, used as log fields and metric labels.
const (
	ReasonClassificationFailed = "classification_failed"
	ReasonRepeatedUnclear      = "repeated_unclear"
	ReasonSessionStoreFailed   = "session_store_failed"
	ReasonNoHandler            = "no_handler"
)

// Route outcomes, used as metric labels.
const (
	outcomeAnswered           = "answered"
	outcomeNotFound           = "not_found"
	outcomeNeedsClarification = "needs_clarification"
	outcomeClarify            = "clarify"
	outcomeEscalated          = "escalated"
)
