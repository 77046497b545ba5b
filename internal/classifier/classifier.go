// Package classifier decides, per inbound customer message, what the
// customer wants and whether the conversation should leave the AI and go
// to a human. The keyword engine stands in for an LLM call; the timeout
// wrapper guarantees message delivery never blocks on it.
package classifier

import (
	"context"

	"github.com/starshop/chatdesk/internal/types"
)

// Classifier produces a routing decision for one customer message.
// conversationContext carries the recent transcript for disambiguation.
type Classifier interface {
	Classify(ctx context.Context, conversationID, message, conversationContext string) (types.RoutingDecision, error)
}
