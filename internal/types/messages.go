package types

import "time"

// Conversation event names broadcast to dashboards and chat clients
const (
	EventQueued       = "queued"
	EventAssigned     = "assigned"
	EventClosed       = "closed"
	EventReopened     = "reopened"
	EventReturnedToAI = "returned_to_ai"
	EventAIReply      = "ai_reply"
	EventStaffReply   = "staff_reply"
	EventSystemNotice = "system_notice"
)

// ConversationEvent is broadcast whenever a conversation changes state
type ConversationEvent struct {
	Type         string       `json:"type"` // always "conversation_update"
	Event        string       `json:"event"`
	Conversation Conversation `json:"conversation"`
	Message      string       `json:"message,omitempty"` // AI/system text, if any
	Timestamp    time.Time    `json:"timestamp"`
}

// HandoffQueuedEvent notifies staff dashboards of a new queue entry
type HandoffQueuedEvent struct {
	Type           string        `json:"type"` // always "handoff_queued"
	ConversationID string        `json:"conversationId"`
	Priority       int           `json:"priority"`
	Reason         HandoffReason `json:"reason"`
	Tags           []string      `json:"tags,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
}

// AssignmentNotice is sent to the chosen staff member over their socket
type AssignmentNotice struct {
	Type           string        `json:"type"` // always "assignment"
	ConversationID string        `json:"conversationId"`
	Reason         HandoffReason `json:"reason"`
	Priority       int           `json:"priority"`
	Timestamp      time.Time     `json:"timestamp"`
}

// StaffCheckIn is sent when a staff member first connects their socket
type StaffCheckIn struct {
	Type          string      `json:"type"` // "check_in"
	StaffID       string      `json:"staffId"`
	Status        StaffStatus `json:"status"`
	MaxWorkload   int         `json:"maxWorkload,omitempty"`
	StatusMessage string      `json:"statusMessage,omitempty"`
}

// StaffHeartbeat is sent from a staff socket periodically
type StaffHeartbeat struct {
	Type      string    `json:"type"` // "heartbeat"
	StaffID   string    `json:"staffId"`
	Timestamp time.Time `json:"timestamp"`
}

// StaffStatusChange is sent when a staff member changes their status
type StaffStatusChange struct {
	Type          string      `json:"type"` // "status_change"
	StaffID       string      `json:"staffId"`
	Status        StaffStatus `json:"status"`
	StatusMessage string      `json:"statusMessage,omitempty"`
}

// DashboardSnapshot is the periodic full-state frame broadcast to
// dashboard clients.
type DashboardSnapshot struct {
	Type           string          `json:"type"` // always "dashboard_snapshot"
	Timestamp      time.Time       `json:"timestamp"`
	QueueStats     HandoffStats    `json:"queueStats"`
	Waiting        []HandoffEntry  `json:"waiting"`
	Staff          []StaffPresence `json:"staff"`
	OnlineCount    int             `json:"onlineCount"`
	AvailableCount int             `json:"availableCount"`
}

// ServerAck is sent back to a staff socket as acknowledgment
type ServerAck struct {
	Type    string `json:"type"` // "ack"
	StaffID string `json:"staffId"`
}
