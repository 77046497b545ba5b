package handoff

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/starshop/chatdesk/internal/conversation"
	"github.com/starshop/chatdesk/internal/events"
	"github.com/starshop/chatdesk/internal/metrics"
	"github.com/starshop/chatdesk/internal/presence"
	"github.com/starshop/chatdesk/internal/types"
)

// StaffNotifier delivers an assignment notice to a staff member's socket.
// The websocket staff hub implements it; tests use fakes.
type StaffNotifier interface {
	NotifyAssignment(staffID string, notice types.AssignmentNotice)
}

// NopNotifier drops assignment notices
type NopNotifier struct{}

func (NopNotifier) NotifyAssignment(string, types.AssignmentNotice) {}

// Manager owns the handoff queue and coordinates assignment across the
// queue, the conversation store and the presence tracker. An assignment is
// three mutations (workload reservation, conversation assign, entry mark)
// that must land together; the manager mutex serializes them and a failed
// middle step rolls back the reservation.
type Manager struct {
	queue    *Queue
	convs    *conversation.Store
	tracker  *presence.Tracker
	strategy SelectionStrategy
	notifier StaffNotifier
	events   events.Publisher
	logger   zerolog.Logger
	mu       sync.Mutex
}

// NewManager creates a handoff manager with the given collaborators
func NewManager(convs *conversation.Store, tracker *presence.Tracker, strategy SelectionStrategy, notifier StaffNotifier, publisher events.Publisher, logger zerolog.Logger) *Manager {
	return &Manager{
		queue:    NewQueue(),
		convs:    convs,
		tracker:  tracker,
		strategy: strategy,
		notifier: notifier,
		events:   publisher,
		logger:   logger.With().Str("component", "handoff_manager").Logger(),
	}
}

// Enqueue puts a conversation into the handoff queue and announces it.
// Priority derives from the reason severity plus a bump for urgent or high
// priority conversations. Idempotent per conversation: a second trigger
// only upgrades the existing entry.
func (m *Manager) Enqueue(conversationID string, reason types.HandoffReason, customerMessage, aiContext string) types.HandoffEntry {
	priority := types.PriorityForReason(reason)
	if conv, err := m.convs.Get(conversationID); err == nil {
		priority = types.QueuePriority(reason, conv.Priority)
	}

	m.mu.Lock()
	entry, created := m.queue.Enqueue(conversationID, reason, priority, customerMessage, aiContext)
	snapshot := *entry
	m.mu.Unlock()

	if created {
		metrics.Get().RecordHandoffQueued()
		m.logger.Info().
			Str("conversation_id", conversationID).
			Str("reason", string(reason)).
			Int("priority", snapshot.Priority).
			Msg("conversation queued for handoff")

		m.events.PublishHandoffQueued(types.HandoffQueuedEvent{
			Type:           "handoff_queued",
			ConversationID: conversationID,
			Priority:       snapshot.Priority,
			Reason:         snapshot.Reason,
			Tags:           snapshot.Tags,
			Timestamp:      time.Now(),
		})
	}
	return snapshot
}

// TryAssign attempts to auto-assign a waiting entry to the best available
// staff member. Returns the chosen staff id, or NoStaffAvailableError when
// nobody can take it (the entry stays waiting).
func (m *Manager) TryAssign(conversationID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.queue.Get(conversationID)
	if !ok || entry.IsResolved() {
		return "", &NotQueuedError{ConversationID: conversationID}
	}
	if entry.IsAssigned() {
		return "", &AlreadyAssignedError{ConversationID: conversationID, StaffID: entry.AssignedToStaff}
	}

	staffID := m.strategy.SelectStaff(*entry, m.tracker.Available())
	if staffID == "" {
		return "", &NoStaffAvailableError{ConversationID: conversationID}
	}

	if err := m.assignLocked(entry, staffID); err != nil {
		return "", err
	}
	return staffID, nil
}

// Claim lets a staff member take a waiting entry manually. Loses cleanly
// when someone else got there first.
func (m *Manager) Claim(conversationID, staffID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.queue.Get(conversationID)
	if !ok || entry.IsResolved() {
		return &NotQueuedError{ConversationID: conversationID}
	}
	if entry.IsAssigned() {
		if entry.AssignedToStaff == staffID {
			return nil
		}
		metrics.Get().RecordClaimConflict()
		return &AlreadyAssignedError{ConversationID: conversationID, StaffID: entry.AssignedToStaff}
	}

	return m.assignLocked(entry, staffID)
}

// assignLocked performs the three assignment mutations. Caller holds m.mu.
// Order matters: the workload reservation comes first so a concurrent
// assignment cannot overcommit the staff member, and it is rolled back if
// the conversation transition fails.
func (m *Manager) assignLocked(entry *types.HandoffEntry, staffID string) error {
	if err := m.tracker.IncrementWorkload(staffID); err != nil {
		return err
	}

	conv, err := m.convs.Assign(entry.ConversationID, staffID)
	if err != nil {
		m.tracker.DecrementWorkload(staffID)
		return err
	}

	m.queue.MarkAssigned(entry.ConversationID, staffID)
	metrics.Get().RecordAssignment()

	m.logger.Info().
		Str("conversation_id", entry.ConversationID).
		Str("staff_id", staffID).
		Str("strategy", m.strategy.Name()).
		Msg("conversation assigned")

	m.notifier.NotifyAssignment(staffID, types.AssignmentNotice{
		Type:           "assignment",
		ConversationID: entry.ConversationID,
		Reason:         entry.Reason,
		Priority:       entry.Priority,
		Timestamp:      time.Now(),
	})
	m.events.PublishConversation(types.ConversationEvent{
		Type:         "conversation_update",
		Event:        types.EventAssigned,
		Conversation: conv,
		Timestamp:    time.Now(),
	})
	return nil
}

// DispatchWaiting walks the waiting queue in priority order and assigns
// what it can. Stops early once staff capacity runs out. Returns the
// number of entries assigned.
func (m *Manager) DispatchWaiting() int {
	assigned := 0
	for _, entry := range m.Waiting() {
		if _, err := m.TryAssign(entry.ConversationID); err != nil {
			var noStaff *NoStaffAvailableError
			if errors.As(err, &noStaff) {
				break
			}
			continue
		}
		assigned++
	}
	return assigned
}

// Resolve closes out the queue entry for a finished conversation and
// releases the assigned staff member's workload slot. Safe to call when
// the conversation was never queued.
func (m *Manager) Resolve(conversationID string) *types.HandoffEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.queue.Get(conversationID)
	if !ok || entry.IsResolved() {
		return nil
	}

	staffID := entry.AssignedToStaff
	resolved := m.queue.Resolve(conversationID)
	if staffID != "" {
		m.tracker.DecrementWorkload(staffID)
	}
	metrics.Get().RecordResolution()

	m.logger.Info().
		Str("conversation_id", conversationID).
		Int("wait_seconds", resolved.WaitTimeSeconds).
		Msg("handoff resolved")
	return resolved
}

// ReleaseIfQuiet hands an assigned conversation back to the AI: the queue
// entry is resolved, the staff slot freed and the conversation reopened for
// classification. The release is skipped (returning false) when message
// activity on the conversation is newer than the cutoff, so a customer who
// spoke up just as the return timer fired keeps their staff member.
func (m *Manager) ReleaseIfQuiet(conversationID string, cutoff time.Time) (types.Conversation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, err := m.convs.Get(conversationID)
	if err != nil {
		return types.Conversation{}, false, err
	}
	if conv.LastMessageAt.After(cutoff) {
		return conv, false, nil
	}

	conv, err = m.convs.ClearAssignment(conversationID)
	if err != nil {
		return types.Conversation{}, false, err
	}

	if entry, ok := m.queue.Get(conversationID); ok && !entry.IsResolved() {
		staffID := entry.AssignedToStaff
		m.queue.Resolve(conversationID)
		if staffID != "" {
			m.tracker.DecrementWorkload(staffID)
		}
	}
	return conv, true, nil
}

// Entry returns a copy of the queue entry for a conversation
func (m *Manager) Entry(conversationID string) (types.HandoffEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.queue.Get(conversationID)
	if !ok {
		return types.HandoffEntry{}, false
	}
	return *entry, true
}

// Waiting returns the waiting entries in dispatch order
func (m *Manager) Waiting() []types.HandoffEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Waiting()
}

// AssignedTo returns the unresolved entries held by a staff member
func (m *Manager) AssignedTo(staffID string) []types.HandoffEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.AssignedTo(staffID)
}

// Stats summarizes the queue
func (m *Manager) Stats() types.HandoffStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Stats()
}

// Wipe clears all unresolved entries, used by the admin API
func (m *Manager) Wipe() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Wipe()
}
