package types

import "time"

// ConversationStatus represents the lifecycle state of a conversation
type ConversationStatus string

const (
	ConversationOpen     ConversationStatus = "open"     // AI handling, no staff yet
	ConversationAssigned ConversationStatus = "assigned" // staff actively engaged
	ConversationClosed   ConversationStatus = "closed"   // resolved
)

// ConversationPriority represents the urgency level of a conversation
type ConversationPriority string

const (
	PriorityLow    ConversationPriority = "low"
	PriorityNormal ConversationPriority = "normal"
	PriorityHigh   ConversationPriority = "high"
	PriorityUrgent ConversationPriority = "urgent"
)

// ParsePriority maps a string to a ConversationPriority, defaulting to normal
func ParsePriority(value string) ConversationPriority {
	switch ConversationPriority(value) {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return ConversationPriority(value)
	default:
		return PriorityNormal
	}
}

// Conversation represents a customer support conversation
type Conversation struct {
	ID              string               `json:"id"`
	CustomerID      string               `json:"customerId"`
	AssignedStaffID string               `json:"assignedStaffId,omitempty"` // empty when unassigned
	Status          ConversationStatus   `json:"status"`
	Priority        ConversationPriority `json:"priority"`
	LastMessageAt   time.Time            `json:"lastMessageAt"`
	ClosedAt        *time.Time           `json:"closedAt,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
}

// IsOpen reports whether the conversation is awaiting AI handling
func (c *Conversation) IsOpen() bool { return c.Status == ConversationOpen }

// IsAssigned reports whether a staff member owns the conversation
func (c *Conversation) IsAssigned() bool { return c.Status == ConversationAssigned }

// IsClosed reports whether the conversation has been resolved
func (c *Conversation) IsClosed() bool { return c.Status == ConversationClosed }

// ChatMessage is a single message inside a conversation
type ChatMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Content        string    `json:"content"`
	AIGenerated    bool      `json:"aiGenerated"`
	SentAt         time.Time `json:"sentAt"`
}
