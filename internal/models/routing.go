package models

import "time"

// EntityOrderID is the only entity key the router reads.
const EntityOrderID = "order_id"

// ClassificationResult is what the classifier capability returns for one query.
type ClassificationResult struct {
	Intent     Intent            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Entities   map[string]string `json:"entities"`
	Reasoning  string            `json:"reasoning"`
}

// Entity returns the named entity or "" when absent.
func (c ClassificationResult) Entity(key string) string {
	if c.Entities == nil {
		return ""
	}
	return c.Entities[key]
}

// HandlerOutcome is produced by a handler and consumed immediately by the router.
// NeedsClarification implies !Success.
type HandlerOutcome struct {
	Success            bool                   `json:"success"`
	Message            string                 `json:"message"`
	Data               map[string]interface{} `json:"data,omitempty"`
	NeedsClarification bool                   `json:"needsClarification"`
}

// FinalResponse is the router's only output.
type FinalResponse struct {
	Query      string  `json:"query"`
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Response   string  `json:"response"`
	Escalated  bool    `json:"escalated"`
}

// EscalationEvent describes one handoff to human support.
type EscalationEvent struct {
	TicketID   string    `json:"ticketId"`
	SessionID  string    `json:"sessionId"`
	Query      string    `json:"query"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurredAt"`
}
