package events

import (
	"github.com/starshop/chatdesk/internal/types"
)

// Publisher delivers conversation and queue events to the transport layer.
// The chat transport (websocket hub) and the Kafka mirror both implement it.
type Publisher interface {
	PublishConversation(event types.ConversationEvent)
	PublishHandoffQueued(event types.HandoffQueuedEvent)
}

// Nop is a Publisher that drops everything, used in tests and when no
// transport is configured.
type Nop struct{}

func (Nop) PublishConversation(types.ConversationEvent)   {}
func (Nop) PublishHandoffQueued(types.HandoffQueuedEvent) {}

// Fanout publishes each event to every wrapped publisher
type Fanout []Publisher

func (f Fanout) PublishConversation(event types.ConversationEvent) {
	for _, p := range f {
		p.PublishConversation(event)
	}
}

func (f Fanout) PublishHandoffQueued(event types.HandoffQueuedEvent) {
	for _, p := range f {
		p.PublishHandoffQueued(event)
	}
}
