package handoff

import "fmt"

// NoStaffAvailableError is returned when assignment finds no eligible
// staff. Non-fatal: the entry stays queued and is retried by the dispatch
// loop or on the next presence change.
type NoStaffAvailableError struct {
	ConversationID string
}

func (e *NoStaffAvailableError) Error() string {
	return fmt.Sprintf("no staff available for conversation %s", e.ConversationID)
}

// AlreadyAssignedError is returned when a manual claim loses the race for
// an entry another staff member already took.
type AlreadyAssignedError struct {
	ConversationID string
	StaffID        string // who holds the entry
}

func (e *AlreadyAssignedError) Error() string {
	return fmt.Sprintf("conversation %s already assigned to %s", e.ConversationID, e.StaffID)
}

// NotQueuedError is returned when an operation expects a queue entry that
// does not exist.
type NotQueuedError struct {
	ConversationID string
}

func (e *NotQueuedError) Error() string {
	return fmt.Sprintf("conversation %s is not in the handoff queue", e.ConversationID)
}
