package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/starshop/chatdesk/internal/types"
)

func classify(t *testing.T, message string) types.RoutingDecision {
	t.Helper()
	decision, err := NewKeywordClassifier().Classify(context.Background(), "conv-1", message, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return decision
}

func TestPIIForcesHandoff(t *testing.T) {
	cases := []struct {
		name    string
		message string
	}{
		{"card number", "my card is 4111 1111 1111 1111 can you check"},
		{"email", "reach me at rose.fan@example.com please"},
		{"phone", "call me on +41 079 123 4567"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := classify(t, tc.message)
			if !decision.NeedHandoff {
				t.Error("expected handoff for PII")
			}
			if decision.HandoffReason != types.ReasonPIIDetected {
				t.Errorf("expected pii_detected, got %s", decision.HandoffReason)
			}
		})
	}
}

func TestExplicitRequestForcesHandoff(t *testing.T) {
	decision := classify(t, "I want to talk to a real person please")
	if !decision.NeedHandoff || decision.HandoffReason != types.ReasonExplicitRequest {
		t.Errorf("expected explicit_request handoff, got %+v", decision)
	}
}

func TestPaymentIntentForcesHandoff(t *testing.T) {
	decision := classify(t, "I was charged twice for my refund on the billing")
	if decision.Intent != types.IntentPayment {
		t.Errorf("expected payment intent, got %s", decision.Intent)
	}
	if !decision.NeedHandoff || decision.HandoffReason != types.ReasonPaymentIssue {
		t.Errorf("expected payment_issue handoff, got %+v", decision)
	}
}

func TestOrderIntentForcesHandoff(t *testing.T) {
	decision := classify(t, "my order arrived damaged and the tracking is wrong")
	if decision.Intent != types.IntentOrderSupport {
		t.Errorf("expected order_support intent, got %s", decision.Intent)
	}
	if !decision.NeedHandoff || decision.HandoffReason != types.ReasonOrderInquiry {
		t.Errorf("expected order_inquiry handoff, got %+v", decision)
	}
}

func TestUnrecognizedMessageLowConfidenceHandoff(t *testing.T) {
	decision := classify(t, "zzz qqq xyzzy")
	if decision.Confidence >= 0.65 {
		t.Errorf("expected confidence below hard threshold, got %.3f", decision.Confidence)
	}
	if !decision.NeedHandoff || decision.HandoffReason != types.ReasonLowConfidence {
		t.Errorf("expected low_confidence handoff, got %+v", decision)
	}
}

func TestMidConfidenceSuggestsHandoff(t *testing.T) {
	// One sales keyword hit lands between the thresholds
	decision := classify(t, "something about a bouquet maybe")
	if decision.Intent != types.IntentSales {
		t.Errorf("expected sales intent, got %s", decision.Intent)
	}
	if decision.NeedHandoff {
		t.Error("expected no forced handoff")
	}
	if !decision.SuggestHandoff {
		t.Errorf("expected suggested handoff at confidence %.3f", decision.Confidence)
	}
	if decision.HandoffReason != types.ReasonComplexQuery {
		t.Errorf("expected complex_query reason for soft trigger, got %s", decision.HandoffReason)
	}
}

func TestStrongSalesMatchNoHandoff(t *testing.T) {
	decision := classify(t, "what is the price to buy a roses bouquet for a wedding")
	if decision.Intent != types.IntentSales {
		t.Errorf("expected sales intent, got %s", decision.Intent)
	}
	if decision.NeedHandoff || decision.SuggestHandoff {
		t.Errorf("expected confident AI handling, got %+v", decision)
	}
	if decision.AIResponse == "" {
		t.Error("expected an AI reply")
	}
}

type slowClassifier struct {
	delay time.Duration
}

func (s *slowClassifier) Classify(ctx context.Context, conversationID, message, conversationContext string) (types.RoutingDecision, error) {
	select {
	case <-ctx.Done():
		return types.RoutingDecision{}, ctx.Err()
	case <-time.After(s.delay):
		return types.RoutingDecision{ConversationID: conversationID, Intent: types.IntentSales, Confidence: 0.9}, nil
	}
}

type failingClassifier struct{}

func (failingClassifier) Classify(ctx context.Context, conversationID, message, conversationContext string) (types.RoutingDecision, error) {
	return types.RoutingDecision{}, errors.New("model unavailable")
}

func TestTimeoutReturnsFallback(t *testing.T) {
	c := WithTimeout(&slowClassifier{delay: time.Second}, 10*time.Millisecond, zerolog.Nop())

	decision, err := c.Classify(context.Background(), "conv-1", "hello", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Intent != types.IntentOther || decision.NeedHandoff || decision.SuggestHandoff {
		t.Errorf("expected fallback decision, got %+v", decision)
	}
	if decision.ConversationID != "conv-1" {
		t.Errorf("expected conversation id preserved, got %s", decision.ConversationID)
	}
}

func TestErrorReturnsFallback(t *testing.T) {
	c := WithTimeout(failingClassifier{}, time.Second, zerolog.Nop())

	decision, err := c.Classify(context.Background(), "conv-1", "hello", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Intent != types.IntentOther || decision.NeedHandoff {
		t.Errorf("expected fallback decision, got %+v", decision)
	}
}

func TestFastEngineWinsWithinBudget(t *testing.T) {
	c := WithTimeout(&slowClassifier{delay: time.Millisecond}, time.Second, zerolog.Nop())

	decision, err := c.Classify(context.Background(), "conv-1", "hello", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Intent != types.IntentSales {
		t.Errorf("expected engine decision, got %+v", decision)
	}
}
