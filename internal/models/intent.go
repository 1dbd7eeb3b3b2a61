package models

import (
	"fmt"
	"strings"
)

// Intent is the classified purpose of a customer query.
type Intent string

const (
	IntentFAQ         Intent = "faq"
	IntentOrderStatus Intent = "order_status"
	IntentUnclear     Intent = "unclear"
)

// Intents lists every intent in reporting order.
var Intents = []Intent{IntentFAQ, IntentOrderStatus, IntentUnclear}

// ParseIntent accepts any casing and surrounding whitespace.
func ParseIntent(s string) (Intent, error) {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case IntentFAQ:
		return IntentFAQ, nil
	case IntentOrderStatus:
		return IntentOrderStatus, nil
	case IntentUnclear:
		return IntentUnclear, nil
	default:
		return "", fmt.Errorf("unknown intent %q", s)
	}
}

func (i Intent) String() string {
	return string(i)
}
