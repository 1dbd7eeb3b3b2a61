package order

import (
	"regexp"

	"support-router/internal/handlers/refine"
)

const (
	Name = "order_status"

	MissingIDMessage = "Please provide your order ID (format: ORD-12345)."

	notFoundFormat = "Order %s not found. Please verify your order number or contact support@store.com."

	rewriteInstruction = "You are a friendly customer service bot. Convert the order status into a natural, conversational response. Return ONLY the final response - no options, no variations, just one single answer."
)

// orderIDPattern is applied to the upper-cased query, so matching is case-insensitive. It has no
// word boundaries: "ORD-123456" yields "ORD-12345".
var orderIDPattern = regexp.MustCompile(`ORD-\d{5}`)

// RewriteTemplate is the fixed wording used when rephrasing order status messages.
var RewriteTemplate = refine.Template{
	Name:        Name,
	Instruction: rewriteInstruction,
	AnswerLabel: "Order status",
}
