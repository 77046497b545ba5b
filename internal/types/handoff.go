package types

import "time"

// HandoffReason explains why a conversation was handed from AI to staff
type HandoffReason string

const (
	ReasonLowConfidence   HandoffReason = "low_confidence"
	ReasonPIIDetected     HandoffReason = "pii_detected"
	ReasonOrderInquiry    HandoffReason = "order_inquiry"
	ReasonPaymentIssue    HandoffReason = "payment_issue"
	ReasonExplicitRequest HandoffReason = "explicit_request"
	ReasonAIError         HandoffReason = "ai_error"
	ReasonComplexQuery    HandoffReason = "complex_query"
)

// ParseHandoffReason maps a string to a HandoffReason, defaulting to complex_query
func ParseHandoffReason(value string) HandoffReason {
	switch HandoffReason(value) {
	case ReasonLowConfidence, ReasonPIIDetected, ReasonOrderInquiry,
		ReasonPaymentIssue, ReasonExplicitRequest, ReasonAIError, ReasonComplexQuery:
		return HandoffReason(value)
	default:
		return ReasonComplexQuery
	}
}

// reasonPriorities ranks handoff reasons by severity for queue ordering
var reasonPriorities = map[HandoffReason]int{
	ReasonPaymentIssue:    8,
	ReasonExplicitRequest: 7,
	ReasonOrderInquiry:    6,
	ReasonPIIDetected:     5,
	ReasonAIError:         4,
	ReasonLowConfidence:   3,
	ReasonComplexQuery:    3,
}

// PriorityForReason returns the queue priority derived from a handoff reason
func PriorityForReason(reason HandoffReason) int {
	if p, ok := reasonPriorities[reason]; ok {
		return p
	}
	return 5
}

// conversationBumps raises the derived queue priority for customers whose
// conversation itself is marked urgent or high.
var conversationBumps = map[ConversationPriority]int{
	PriorityUrgent: 2,
	PriorityHigh:   1,
}

// QueuePriority combines the handoff reason severity with the
// conversation's own priority.
func QueuePriority(reason HandoffReason, priority ConversationPriority) int {
	return PriorityForReason(reason) + conversationBumps[priority]
}

// reasonTags maps handoff reasons to dashboard tags
var reasonTags = map[HandoffReason][]string{
	ReasonPaymentIssue:    {"payment", "urgent"},
	ReasonOrderInquiry:    {"order", "support"},
	ReasonPIIDetected:     {"personal_info"},
	ReasonLowConfidence:   {"complex"},
	ReasonComplexQuery:    {"complex", "advanced"},
	ReasonExplicitRequest: {"customer_request"},
	ReasonAIError:         {"technical"},
}

// TagsForReason returns the dashboard tags for a handoff reason
func TagsForReason(reason HandoffReason) []string {
	tags := reasonTags[reason]
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

// HandoffEntry represents a conversation waiting for or assigned to staff.
// Exactly one of waiting/assigned/resolved holds at a time, derived from
// AssignedAt and ResolvedAt rather than stored.
type HandoffEntry struct {
	ConversationID  string        `json:"conversationId"`
	Priority        int           `json:"priority"`
	Reason          HandoffReason `json:"reason"`
	Tags            []string      `json:"tags,omitempty"`
	CustomerMessage string        `json:"customerMessage,omitempty"` // snapshot at enqueue time
	AIContext       string        `json:"aiContext,omitempty"`       // snapshot at enqueue time
	EnqueuedAt      time.Time     `json:"enqueuedAt"`
	AssignedAt      *time.Time    `json:"assignedAt,omitempty"`
	AssignedToStaff string        `json:"assignedToStaff,omitempty"`
	ResolvedAt      *time.Time    `json:"resolvedAt,omitempty"`
	WaitTimeSeconds int           `json:"waitTimeSeconds,omitempty"`
}

// IsWaiting reports whether the entry has not yet been picked up
func (e *HandoffEntry) IsWaiting() bool { return e.AssignedAt == nil && e.ResolvedAt == nil }

// IsAssigned reports whether a staff member owns the entry
func (e *HandoffEntry) IsAssigned() bool { return e.AssignedAt != nil && e.ResolvedAt == nil }

// IsResolved reports whether the entry has been closed out
func (e *HandoffEntry) IsResolved() bool { return e.ResolvedAt != nil }

// HandoffStats summarizes queue state for dashboards
type HandoffStats struct {
	WaitingCount    int     `json:"waitingCount"`
	AssignedCount   int     `json:"assignedCount"`
	ResolvedCount   int     `json:"resolvedCount"`
	AvgWaitSeconds  float64 `json:"avgWaitSeconds"`
	LongestWaitSecs float64 `json:"longestWaitSecs"`
}
