package types

import "math"

// Intent is the AI-classified category of a customer message
type Intent string

const (
	IntentSales        Intent = "sales"
	IntentShipping     Intent = "shipping"
	IntentPromotion    Intent = "promotion"
	IntentOrderSupport Intent = "order_support"
	IntentPayment      Intent = "payment"
	IntentStoreInfo    Intent = "store_info"
	IntentChitchat     Intent = "chitchat"
	IntentOther        Intent = "other"
)

// ParseIntent maps a string to an Intent, defaulting to other
func ParseIntent(value string) Intent {
	switch Intent(value) {
	case IntentSales, IntentShipping, IntentPromotion, IntentOrderSupport,
		IntentPayment, IntentStoreInfo, IntentChitchat, IntentOther:
		return Intent(value)
	default:
		return IntentOther
	}
}

// RoutingDecision is the per-message record of AI intent classification and
// handoff determination. Created once per inbound customer message and
// immutable thereafter.
type RoutingDecision struct {
	ConversationID   string        `json:"conversationId"`
	MessageID        string        `json:"messageId,omitempty"`
	Intent           Intent        `json:"intent"`
	Confidence       float64       `json:"confidence"` // 0-1, 3 decimal places
	NeedHandoff      bool          `json:"needHandoff"`
	SuggestHandoff   bool          `json:"suggestHandoff"`
	HandoffReason    HandoffReason `json:"handoffReason,omitempty"` // set only when a trigger fired
	AIResponse       string        `json:"aiResponse,omitempty"`
	ToolsUsed        []string      `json:"toolsUsed,omitempty"`
	ProcessingTimeMs int           `json:"processingTimeMs"`
}

// RoundConfidence normalizes a confidence value to 3 decimal places
func RoundConfidence(c float64) float64 {
	return math.Round(c*1000) / 1000
}

// FallbackDecision is the safe default when classification fails or times
// out: the message is treated as other intent with no handoff so delivery
// is never blocked on the AI dependency.
func FallbackDecision(conversationID string) RoutingDecision {
	return RoutingDecision{
		ConversationID: conversationID,
		Intent:         IntentOther,
		Confidence:     0,
		NeedHandoff:    false,
		SuggestHandoff: false,
	}
}
