package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/starshop/chatdesk/internal/types"
)

// HubPublisher adapts the dashboard hub to the events.Publisher interface
// so conversation and queue updates reach every connected dashboard.
type HubPublisher struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewHubPublisher creates a publisher backed by the dashboard hub
func NewHubPublisher(hub *Hub, logger zerolog.Logger) *HubPublisher {
	return &HubPublisher{
		hub:    hub,
		logger: logger.With().Str("component", "hub_publisher").Logger(),
	}
}

// PublishConversation broadcasts a conversation event
func (p *HubPublisher) PublishConversation(event types.ConversationEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to marshal conversation event")
		return
	}
	p.hub.Broadcast(data)
}

// PublishHandoffQueued broadcasts a handoff-queued event
func (p *HubPublisher) PublishHandoffQueued(event types.HandoffQueuedEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to marshal handoff event")
		return
	}
	p.hub.Broadcast(data)
}
