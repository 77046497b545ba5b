package handoff

import (
	"sort"
	"time"

	"github.com/starshop/chatdesk/internal/types"
)

// Queue holds handoff entries keyed by conversation id. One entry per
// conversation at most; resolved entries stay for stats until replaced by
// a fresh handoff. Not safe for concurrent use on its own; the Manager
// serializes access.
type Queue struct {
	entries map[string]*types.HandoffEntry
}

// NewQueue creates an empty handoff queue
func NewQueue() *Queue {
	return &Queue{
		entries: make(map[string]*types.HandoffEntry),
	}
}

// Enqueue adds a conversation to the queue. If an unresolved entry already
// exists, no duplicate is created: priority and reason are upgraded only
// when the new trigger is more severe. A resolved entry is replaced.
// Returns the entry and whether it was newly created.
func (q *Queue) Enqueue(conversationID string, reason types.HandoffReason, priority int, customerMessage, aiContext string) (*types.HandoffEntry, bool) {
	existing, ok := q.entries[conversationID]
	if ok && !existing.IsResolved() {
		if priority > existing.Priority {
			existing.Priority = priority
			existing.Reason = reason
			existing.Tags = types.TagsForReason(reason)
		}
		return existing, false
	}

	entry := &types.HandoffEntry{
		ConversationID:  conversationID,
		Priority:        priority,
		Reason:          reason,
		Tags:            types.TagsForReason(reason),
		CustomerMessage: customerMessage,
		AIContext:       aiContext,
		EnqueuedAt:      time.Now(),
	}
	q.entries[conversationID] = entry
	return entry, true
}

// Get returns the entry for a conversation, if any
func (q *Queue) Get(conversationID string) (*types.HandoffEntry, bool) {
	entry, ok := q.entries[conversationID]
	return entry, ok
}

// NextWaiting returns the highest-priority waiting entry, FIFO by enqueue
// time within equal priority. Returns nil when nothing is waiting.
func (q *Queue) NextWaiting() *types.HandoffEntry {
	waiting := q.Waiting()
	if len(waiting) == 0 {
		return nil
	}
	return q.entries[waiting[0].ConversationID]
}

// Waiting returns copies of all waiting entries in dispatch order
func (q *Queue) Waiting() []types.HandoffEntry {
	out := make([]types.HandoffEntry, 0)
	for _, entry := range q.entries {
		if entry.IsWaiting() {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].EnqueuedAt.Before(out[j].EnqueuedAt)
	})
	return out
}

// AssignedTo returns copies of the unresolved entries held by a staff member
func (q *Queue) AssignedTo(staffID string) []types.HandoffEntry {
	out := make([]types.HandoffEntry, 0)
	for _, entry := range q.entries {
		if entry.IsAssigned() && entry.AssignedToStaff == staffID {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EnqueuedAt.Before(out[j].EnqueuedAt)
	})
	return out
}

// MarkAssigned records the assignment on the entry
func (q *Queue) MarkAssigned(conversationID, staffID string) {
	if entry, ok := q.entries[conversationID]; ok {
		now := time.Now()
		entry.AssignedAt = &now
		entry.AssignedToStaff = staffID
	}
}

// ClearAssignment puts an assigned entry back to waiting, used to roll
// back a failed assignment and for return-to-AI.
func (q *Queue) ClearAssignment(conversationID string) {
	if entry, ok := q.entries[conversationID]; ok && entry.IsAssigned() {
		entry.AssignedAt = nil
		entry.AssignedToStaff = ""
	}
}

// Resolve stamps ResolvedAt and computes the wait time since enqueue.
// Returns the resolved entry, or nil when there is nothing to resolve.
func (q *Queue) Resolve(conversationID string) *types.HandoffEntry {
	entry, ok := q.entries[conversationID]
	if !ok || entry.IsResolved() {
		return nil
	}

	now := time.Now()
	entry.ResolvedAt = &now
	entry.WaitTimeSeconds = int(now.Sub(entry.EnqueuedAt).Seconds())
	return entry
}

// Remove deletes the entry outright, used by admin wipe
func (q *Queue) Remove(conversationID string) {
	delete(q.entries, conversationID)
}

// Wipe clears all unresolved entries, returning the count removed
func (q *Queue) Wipe() int {
	removed := 0
	for id, entry := range q.entries {
		if !entry.IsResolved() {
			delete(q.entries, id)
			removed++
		}
	}
	return removed
}

// Stats summarizes the queue for dashboards
func (q *Queue) Stats() types.HandoffStats {
	stats := types.HandoffStats{}
	var waitSum float64
	now := time.Now()

	for _, entry := range q.entries {
		switch {
		case entry.IsWaiting():
			stats.WaitingCount++
			wait := now.Sub(entry.EnqueuedAt).Seconds()
			if wait > stats.LongestWaitSecs {
				stats.LongestWaitSecs = wait
			}
		case entry.IsAssigned():
			stats.AssignedCount++
		default:
			stats.ResolvedCount++
			waitSum += float64(entry.WaitTimeSeconds)
		}
	}
	if stats.ResolvedCount > 0 {
		stats.AvgWaitSeconds = waitSum / float64(stats.ResolvedCount)
	}
	return stats
}
