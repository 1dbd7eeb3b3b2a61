package faq

import "support-router/internal/handlers/refine"

const (
	Name = "faq"

	NoMatchMessage = "I don't have information about that. I can help with: store hours, returns, shipping, payment, or contact info."

	rewriteInstruction = "You are a friendly customer service bot. Convert the factual answer into a natural, conversational response. Return ONLY the final response - no options, no variations, just one single answer."
)

// RewriteTemplate is the fixed wording used when rephrasing knowledge base answers.
var RewriteTemplate = refine.Template{
	Name:        Name,
	Instruction: rewriteInstruction,
	AnswerLabel: "Factual answer",
}
