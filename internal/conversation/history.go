package conversation

import (
	"strings"
	"sync"

	"github.com/starshop/chatdesk/internal/types"
)

// historyDepth is how many recent messages are kept per conversation for
// building the ai_context snapshot handed to staff.
const historyDepth = 20

// History keeps the recent messages of each conversation in memory
type History struct {
	messages map[string][]types.ChatMessage // conversationID -> recent messages
	mu       sync.RWMutex
}

// NewHistory creates an empty history cache
func NewHistory() *History {
	return &History{
		messages: make(map[string][]types.ChatMessage),
	}
}

// Add appends a message to the conversation's ring, evicting the oldest
// once the depth limit is reached.
func (h *History) Add(msg types.ChatMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ring := append(h.messages[msg.ConversationID], msg)
	if len(ring) > historyDepth {
		ring = ring[len(ring)-historyDepth:]
	}
	h.messages[msg.ConversationID] = ring
}

// Recent returns copies of the conversation's recent messages
func (h *History) Recent(conversationID string) []types.ChatMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ring := h.messages[conversationID]
	out := make([]types.ChatMessage, len(ring))
	copy(out, ring)
	return out
}

// ContextSnapshot renders the recent exchange as a plain-text transcript
// for the handoff queue's ai_context field.
func (h *History) ContextSnapshot(conversationID string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ring := h.messages[conversationID]
	if len(ring) == 0 {
		return ""
	}

	var b strings.Builder
	for _, msg := range ring {
		if msg.AIGenerated {
			b.WriteString("ai: ")
		} else {
			b.WriteString("customer: ")
		}
		b.WriteString(msg.Content)
		b.WriteByte('\n')
	}
	return b.String()
}

// Drop removes a conversation's history, used when it is resolved
func (h *History) Drop(conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.messages, conversationID)
}
