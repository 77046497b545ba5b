package classifier

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/starshop/chatdesk/internal/types"
)

// Confidence thresholds for the handoff triggers
const (
	hardHandoffThreshold = 0.65 // below this the AI must hand off
	softHandoffThreshold = 0.80 // below this the AI offers a handoff
)

// PII patterns that force a handoff regardless of intent. Card numbers,
// phone numbers and emails must never flow through the AI pipeline.
var (
	cardPattern  = regexp.MustCompile(`\b(?:\d[ -]?){13,19}\b`)
	phonePattern = regexp.MustCompile(`\b\+?\d{2,3}[ -]?\d{3,4}[ -]?\d{4}\b`)
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

// Phrases where the customer explicitly asks for a person
var explicitRequestPhrases = []string{
	"human", "real person", "speak to someone", "talk to someone",
	"staff", "agent", "representative", "manager",
}

// intentKeywords scores each intent by keyword hits
var intentKeywords = map[types.Intent][]string{
	types.IntentSales:        {"buy", "bouquet", "roses", "tulips", "lilies", "flowers", "price", "cost", "arrangement", "wedding"},
	types.IntentShipping:     {"shipping", "deliver", "delivery", "ship", "arrive", "when will"},
	types.IntentPromotion:    {"discount", "coupon", "promo", "sale", "deal", "offer"},
	types.IntentOrderSupport: {"order", "tracking", "track", "cancel", "change my order", "wrong", "missing", "damaged", "wilted"},
	types.IntentPayment:      {"refund", "charge", "charged", "payment", "billing", "invoice", "pay", "card declined", "double charged"},
	types.IntentStoreInfo:    {"hours", "open", "location", "address", "store", "pickup"},
	types.IntentChitchat:     {"hi", "hello", "hey", "thanks", "thank you", "bye"},
}

// Canned replies per intent, used until a staff member takes over
var intentReplies = map[types.Intent]string{
	types.IntentSales:        "We have fresh seasonal bouquets starting at $25. Would you like to see our spring collection?",
	types.IntentShipping:     "Standard delivery takes 1-2 business days within the city, same-day before 2pm.",
	types.IntentPromotion:    "Our spring sale runs all month: 15% off bouquets over $40 with code SPRING15.",
	types.IntentOrderSupport: "I can help with your order. Could you share your order number?",
	types.IntentPayment:      "I'm sorry about the payment trouble. Let me get someone to look into this for you.",
	types.IntentStoreInfo:    "We're open Monday to Saturday, 9am to 7pm, at 12 Blossom Street.",
	types.IntentChitchat:     "Hello! How can I help you with flowers today?",
	types.IntentOther:        "Let me see how I can help with that.",
}

// KeywordClassifier scores messages against keyword lists. It is the
// default engine when no external model is wired up.
type KeywordClassifier struct{}

// NewKeywordClassifier creates a keyword-based classifier
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify runs the trigger checks in severity order, then intent scoring
func (c *KeywordClassifier) Classify(ctx context.Context, conversationID, message, conversationContext string) (types.RoutingDecision, error) {
	start := time.Now()
	lower := strings.ToLower(message)

	decision := types.RoutingDecision{
		ConversationID: conversationID,
	}

	// PII check comes first: it overrides every other outcome
	if containsPII(message) {
		decision.Intent = scoreIntent(lower)
		decision.Confidence = 1
		decision.NeedHandoff = true
		decision.HandoffReason = types.ReasonPIIDetected
		decision.AIResponse = "For your security, I'll connect you with a staff member to handle these details."
		decision.ProcessingTimeMs = int(time.Since(start).Milliseconds())
		return decision, nil
	}

	if containsExplicitRequest(lower) {
		decision.Intent = types.IntentOther
		decision.Confidence = 1
		decision.NeedHandoff = true
		decision.HandoffReason = types.ReasonExplicitRequest
		decision.AIResponse = "Of course, I'll connect you with one of our staff right away."
		decision.ProcessingTimeMs = int(time.Since(start).Milliseconds())
		return decision, nil
	}

	intent, confidence := scoreIntentWithConfidence(lower)
	decision.Intent = intent
	decision.Confidence = types.RoundConfidence(confidence)
	decision.AIResponse = intentReplies[intent]

	switch {
	case intent == types.IntentPayment:
		decision.NeedHandoff = true
		decision.HandoffReason = types.ReasonPaymentIssue
	case intent == types.IntentOrderSupport:
		decision.NeedHandoff = true
		decision.HandoffReason = types.ReasonOrderInquiry
	case decision.Confidence < hardHandoffThreshold:
		decision.NeedHandoff = true
		decision.HandoffReason = types.ReasonLowConfidence
		decision.AIResponse = "I want to make sure you get the right answer, so I'm bringing in a staff member."
	case decision.Confidence < softHandoffThreshold:
		decision.SuggestHandoff = true
		decision.HandoffReason = types.ReasonComplexQuery
		decision.AIResponse += " If you'd prefer, I can also connect you with our staff."
	}

	decision.ProcessingTimeMs = int(time.Since(start).Milliseconds())
	return decision, nil
}

func containsPII(message string) bool {
	return cardPattern.MatchString(message) ||
		phonePattern.MatchString(message) ||
		emailPattern.MatchString(message)
}

func containsExplicitRequest(lower string) bool {
	for _, phrase := range explicitRequestPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func scoreIntent(lower string) types.Intent {
	intent, _ := scoreIntentWithConfidence(lower)
	return intent
}

// scoreIntentWithConfidence picks the intent with the most keyword hits.
// Confidence grows with hit count and shrinks for long messages that
// matched little.
func scoreIntentWithConfidence(lower string) (types.Intent, float64) {
	bestIntent := types.IntentOther
	bestHits := 0

	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		words[w] = true
	}

	for intent, keywords := range intentKeywords {
		hits := 0
		for _, kw := range keywords {
			// Single words match on word boundaries, phrases by substring
			if strings.Contains(kw, " ") {
				if strings.Contains(lower, kw) {
					hits++
				}
			} else if words[kw] {
				hits++
			}
		}
		if hits > bestHits || (hits == bestHits && hits > 0 && intent < bestIntent) {
			bestIntent = intent
			bestHits = hits
		}
	}

	if bestHits == 0 {
		return types.IntentOther, 0.3
	}

	confidence := 0.6 + 0.15*float64(bestHits)
	if confidence > 0.95 {
		confidence = 0.95
	}
	if len(strings.Fields(lower)) > 30 && bestHits < 2 {
		confidence -= 0.1
	}
	return bestIntent, confidence
}
