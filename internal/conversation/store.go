package conversation

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/starshop/chatdesk/internal/types"
)

// InvalidStateError is returned when a lifecycle transition is not legal
// for the conversation's current status.
type InvalidStateError struct {
	ConversationID string
	Status         types.ConversationStatus
	Op             string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("conversation %s: cannot %s while %s", e.ConversationID, e.Op, e.Status)
}

// ErrNotFound is returned when a conversation id is unknown
type ErrNotFound struct {
	ConversationID string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("conversation %s not found", e.ConversationID)
}

// Store is the in-memory authority for conversation lifecycle state.
// All transitions run under the store mutex so per-conversation mutations
// are serialized.
type Store struct {
	conversations map[string]*types.Conversation
	mu            sync.RWMutex
}

// NewStore creates an empty conversation store
func NewStore() *Store {
	return &Store{
		conversations: make(map[string]*types.Conversation),
	}
}

// Create starts a new open conversation for a customer
func (s *Store) Create(customerID string, priority types.ConversationPriority) *types.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	conv := &types.Conversation{
		ID:            uuid.New().String(),
		CustomerID:    customerID,
		Status:        types.ConversationOpen,
		Priority:      priority,
		LastMessageAt: now,
		CreatedAt:     now,
	}
	s.conversations[conv.ID] = conv
	return conv
}

// Get returns a copy of the conversation, or ErrNotFound
func (s *Store) Get(id string) (types.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return types.Conversation{}, &ErrNotFound{ConversationID: id}
	}
	return *conv, nil
}

// Assign transfers the conversation to a staff member. Legal from open
// (first assignment) and assigned (reassignment). A closed conversation
// must be reopened first.
func (s *Store) Assign(id, staffID string) (types.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return types.Conversation{}, &ErrNotFound{ConversationID: id}
	}
	if conv.Status == types.ConversationClosed {
		return types.Conversation{}, &InvalidStateError{ConversationID: id, Status: conv.Status, Op: "assign"}
	}

	conv.AssignedStaffID = staffID
	conv.Status = types.ConversationAssigned
	return *conv, nil
}

// Close resolves the conversation and stamps ClosedAt. Re-closing a closed
// conversation is a no-op, not an error.
func (s *Store) Close(id string) (types.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return types.Conversation{}, &ErrNotFound{ConversationID: id}
	}
	if conv.Status == types.ConversationClosed {
		return *conv, nil
	}

	now := time.Now()
	conv.Status = types.ConversationClosed
	conv.ClosedAt = &now
	return *conv, nil
}

// Reopen returns a closed conversation to staff attention. It goes back to
// assigned, not open, so the next message reaches the staff member rather
// than the AI.
func (s *Store) Reopen(id string) (types.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return types.Conversation{}, &ErrNotFound{ConversationID: id}
	}
	if conv.Status != types.ConversationClosed {
		return types.Conversation{}, &InvalidStateError{ConversationID: id, Status: conv.Status, Op: "reopen"}
	}

	conv.Status = types.ConversationAssigned
	conv.ClosedAt = nil
	return *conv, nil
}

// ClearAssignment hands the conversation back to AI: the staff reference is
// cleared and the next inbound message routes through classification again.
func (s *Store) ClearAssignment(id string) (types.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return types.Conversation{}, &ErrNotFound{ConversationID: id}
	}
	if conv.Status != types.ConversationAssigned {
		return types.Conversation{}, &InvalidStateError{ConversationID: id, Status: conv.Status, Op: "clear assignment"}
	}

	conv.AssignedStaffID = ""
	conv.Status = types.ConversationOpen
	return *conv, nil
}

// TouchMessage records message activity on the conversation
func (s *Store) TouchMessage(id string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.conversations[id]; ok {
		conv.LastMessageAt = at
	}
}

// SetNotes updates the free-form staff notes on a conversation
func (s *Store) SetNotes(id, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return &ErrNotFound{ConversationID: id}
	}
	conv.Notes = notes
	return nil
}

// All returns copies of every conversation
func (s *Store) All() []types.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		out = append(out, *conv)
	}
	return out
}

// Count returns the number of tracked conversations
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}
