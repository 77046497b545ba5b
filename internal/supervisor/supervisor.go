// Package supervisor orchestrates the life of a customer message: AI
// classification, handoff triggering, assignment, and the delayed return
// of quiet conversations back to the AI.
package supervisor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/starshop/chatdesk/internal/classifier"
	"github.com/starshop/chatdesk/internal/conversation"
	"github.com/starshop/chatdesk/internal/events"
	"github.com/starshop/chatdesk/internal/handoff"
	"github.com/starshop/chatdesk/internal/metrics"
	"github.com/starshop/chatdesk/internal/storage"
	"github.com/starshop/chatdesk/internal/types"
)

// MessageResult tells the chat API what happened to an inbound message
type MessageResult struct {
	Conversation    types.Conversation     `json:"conversation"`
	Message         types.ChatMessage      `json:"message"`
	Decision        *types.RoutingDecision `json:"decision,omitempty"` // nil when routed straight to staff
	RoutedToStaff   bool                   `json:"routedToStaff"`
	Queued          bool                   `json:"queued"`
	AssignedStaffID string                 `json:"assignedStaffId,omitempty"`
	AIResponse      string                 `json:"aiResponse,omitempty"`
}

// Supervisor wires the conversation store, classifier and handoff manager
// together. It also owns the return-to-AI timers: one pending timer per
// conversation at most, replaced on reschedule and cancelled by customer
// activity.
type Supervisor struct {
	convs      *conversation.Store
	history    *conversation.History
	manager    *handoff.Manager
	classifier classifier.Classifier
	store      storage.Store
	events     events.Publisher
	logger     zerolog.Logger

	returnDelay time.Duration

	mu             sync.Mutex
	pendingReturns map[string]*pendingReturn // conversationID -> armed timer
}

// pendingReturn is an armed return-to-AI timer. The scheduling timestamp
// is the cutoff for the quiet check when the timer fires: any message
// activity after it wins over the return.
type pendingReturn struct {
	timer       *time.Timer
	scheduledAt time.Time
}

// New creates a supervisor
func New(convs *conversation.Store, history *conversation.History, manager *handoff.Manager, cls classifier.Classifier, store storage.Store, publisher events.Publisher, returnDelay time.Duration, logger zerolog.Logger) *Supervisor {
	return &Supervisor{
		convs:          convs,
		history:        history,
		manager:        manager,
		classifier:     cls,
		store:          store,
		events:         publisher,
		logger:         logger.With().Str("component", "supervisor").Logger(),
		returnDelay:    returnDelay,
		pendingReturns: make(map[string]*pendingReturn),
	}
}

// StartConversation opens a new conversation for a customer
func (s *Supervisor) StartConversation(customerID string, priority types.ConversationPriority) types.Conversation {
	conv := s.convs.Create(customerID, priority)
	s.logger.Info().
		Str("conversation_id", conv.ID).
		Str("customer_id", customerID).
		Msg("conversation started")
	return *conv
}

// HandleCustomerMessage is the main inbound path. Assigned conversations
// go straight to the staff member; everything else is classified and the
// handoff triggers are evaluated before the AI response goes out, so a
// queued conversation is already visible to staff when the customer reads
// the AI's answer.
func (s *Supervisor) HandleCustomerMessage(ctx context.Context, conversationID, senderID, content string) (MessageResult, error) {
	conv, err := s.convs.Get(conversationID)
	if err != nil {
		return MessageResult{}, err
	}

	metrics.Get().RecordMessageReceived()

	// Customer activity keeps the conversation with its staff member
	s.CancelReturnToAI(conversationID)

	msg := types.ChatMessage{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		SentAt:         time.Now(),
	}
	s.history.Add(msg)
	s.convs.TouchMessage(conversationID, msg.SentAt)

	// A message on a closed conversation reopens it to the staff side
	if conv.IsClosed() {
		reopened, err := s.convs.Reopen(conversationID)
		if err != nil {
			return MessageResult{}, err
		}
		s.publishEvent(types.EventReopened, reopened, "")
		conv = reopened
	}

	if conv.IsAssigned() {
		s.publishEvent(types.EventStaffReply, conv, content)
		return MessageResult{Conversation: conv, Message: msg, RoutedToStaff: true}, nil
	}

	decision, err := s.classifier.Classify(ctx, conversationID, content, s.history.ContextSnapshot(conversationID))
	if err != nil {
		// Classifier wrappers fall back internally; a raw engine error
		// still must not block delivery.
		decision = types.FallbackDecision(conversationID)
	}
	decision.MessageID = msg.ID
	go s.persistDecision(decision)

	result := MessageResult{
		Conversation: conv,
		Message:      msg,
		Decision:     &decision,
		AIResponse:   decision.AIResponse,
	}

	if decision.NeedHandoff || decision.SuggestHandoff {
		s.manager.Enqueue(conversationID, decision.HandoffReason, content, s.history.ContextSnapshot(conversationID))
		result.Queued = true
	}

	// Hard triggers get pushed to staff immediately; soft ones stay queued
	// for the dispatcher or a manual claim.
	if decision.NeedHandoff {
		staffID, err := s.manager.TryAssign(conversationID)
		if err == nil {
			result.AssignedStaffID = staffID
			if refreshed, gerr := s.convs.Get(conversationID); gerr == nil {
				result.Conversation = refreshed
			}
		} else {
			var noStaff *handoff.NoStaffAvailableError
			if !errors.As(err, &noStaff) {
				s.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("auto-assign failed")
			}
		}
	}

	if decision.AIResponse != "" {
		reply := types.ChatMessage{
			ID:             uuid.New().String(),
			ConversationID: conversationID,
			SenderID:       "ai",
			Content:        decision.AIResponse,
			AIGenerated:    true,
			SentAt:         time.Now(),
		}
		s.history.Add(reply)
		s.publishEvent(types.EventAIReply, result.Conversation, decision.AIResponse)
	}

	return result, nil
}

// HandleStaffReply records an outbound staff message
func (s *Supervisor) HandleStaffReply(conversationID, staffID, content string) (types.ChatMessage, error) {
	conv, err := s.convs.Get(conversationID)
	if err != nil {
		return types.ChatMessage{}, err
	}
	if !conv.IsAssigned() {
		return types.ChatMessage{}, &conversation.InvalidStateError{ConversationID: conversationID, Status: conv.Status, Op: "reply"}
	}

	msg := types.ChatMessage{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       staffID,
		Content:        content,
		SentAt:         time.Now(),
	}
	s.history.Add(msg)
	s.convs.TouchMessage(conversationID, msg.SentAt)
	s.publishEvent(types.EventStaffReply, conv, content)
	return msg, nil
}

// Claim lets a staff member take a queued conversation manually
func (s *Supervisor) Claim(conversationID, staffID string) error {
	return s.manager.Claim(conversationID, staffID)
}

// CloseConversation resolves the conversation and its queue entry, and
// archives the handoff for reporting.
func (s *Supervisor) CloseConversation(conversationID string) (types.Conversation, error) {
	s.CancelReturnToAI(conversationID)

	conv, err := s.convs.Close(conversationID)
	if err != nil {
		return types.Conversation{}, err
	}

	if resolved := s.manager.Resolve(conversationID); resolved != nil {
		go s.persistHandoff(*resolved)
	}
	s.history.Drop(conversationID)
	s.publishEvent(types.EventClosed, conv, "")
	return conv, nil
}

// Reopen brings a closed conversation back to its staff member
func (s *Supervisor) Reopen(conversationID string) (types.Conversation, error) {
	conv, err := s.convs.Reopen(conversationID)
	if err != nil {
		return types.Conversation{}, err
	}
	s.publishEvent(types.EventReopened, conv, "")
	return conv, nil
}

// QueueReturnToAI schedules the conversation to go back to the AI after
// the grace period. A second call replaces the pending timer rather than
// stacking a duplicate.
func (s *Supervisor) QueueReturnToAI(conversationID string) error {
	conv, err := s.convs.Get(conversationID)
	if err != nil {
		return err
	}
	if !conv.IsAssigned() {
		return &conversation.InvalidStateError{ConversationID: conversationID, Status: conv.Status, Op: "return to ai"}
	}

	s.mu.Lock()
	if existing, ok := s.pendingReturns[conversationID]; ok {
		existing.timer.Stop()
	}
	s.pendingReturns[conversationID] = &pendingReturn{
		timer: time.AfterFunc(s.returnDelay, func() {
			s.fireReturnToAI(conversationID)
		}),
		scheduledAt: time.Now(),
	}
	s.mu.Unlock()

	metrics.Get().RecordReturnScheduled()
	s.logger.Info().
		Str("conversation_id", conversationID).
		Dur("delay", s.returnDelay).
		Msg("return to AI scheduled")
	return nil
}

// CancelReturnToAI disarms a pending return timer. Returns whether a
// timer was pending.
func (s *Supervisor) CancelReturnToAI(conversationID string) bool {
	s.mu.Lock()
	pending, ok := s.pendingReturns[conversationID]
	if ok {
		pending.timer.Stop()
		delete(s.pendingReturns, conversationID)
	}
	s.mu.Unlock()

	if ok {
		metrics.Get().RecordReturnCancelled()
		s.logger.Info().Str("conversation_id", conversationID).Msg("return to AI cancelled")
	}
	return ok
}

// fireReturnToAI runs when the grace period elapses. The check-and-clear
// under the mutex means a timer cancelled after firing was scheduled but
// before this runs is a no-op. The quiet check itself happens inside the
// manager lock, against the scheduling timestamp, so a customer message
// landing between this check and the release still wins.
func (s *Supervisor) fireReturnToAI(conversationID string) {
	s.mu.Lock()
	pending, ok := s.pendingReturns[conversationID]
	delete(s.pendingReturns, conversationID)
	s.mu.Unlock()

	if !ok {
		return
	}

	conv, released, err := s.manager.ReleaseIfQuiet(conversationID, pending.scheduledAt)
	if err != nil {
		s.logger.Warn().Err(err).Str("conversation_id", conversationID).Msg("return to AI failed")
		return
	}
	if !released {
		metrics.Get().RecordReturnCancelled()
		s.logger.Info().Str("conversation_id", conversationID).Msg("return to AI skipped, customer spoke up")
		return
	}

	metrics.Get().RecordReturnCompleted()
	s.logger.Info().Str("conversation_id", conversationID).Msg("conversation returned to AI")
	s.publishEvent(types.EventReturnedToAI, conv, "")
}

// PendingReturns reports how many return timers are armed
func (s *Supervisor) PendingReturns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pendingReturns)
}

// Shutdown disarms every pending timer
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, pending := range s.pendingReturns {
		pending.timer.Stop()
		delete(s.pendingReturns, id)
	}
}

func (s *Supervisor) publishEvent(event string, conv types.Conversation, message string) {
	s.events.PublishConversation(types.ConversationEvent{
		Type:         "conversation_update",
		Event:        event,
		Conversation: conv,
		Message:      message,
		Timestamp:    time.Now(),
	})
}

func (s *Supervisor) persistDecision(decision types.RoutingDecision) {
	record := types.RoutingDecisionRecord{
		ConversationID:   decision.ConversationID,
		DecisionID:       uuid.New().String(),
		MessageID:        decision.MessageID,
		Intent:           string(decision.Intent),
		Confidence:       decision.Confidence,
		NeedHandoff:      decision.NeedHandoff,
		SuggestHandoff:   decision.SuggestHandoff,
		HandoffReason:    string(decision.HandoffReason),
		AIResponse:       decision.AIResponse,
		ToolsUsed:        decision.ToolsUsed,
		ProcessingTimeMs: decision.ProcessingTimeMs,
		DecidedAt:        time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.store.SaveRoutingDecision(record); err != nil {
		s.logger.Error().Err(err).Str("conversation_id", decision.ConversationID).Msg("failed to persist routing decision")
	}
}

func (s *Supervisor) persistHandoff(entry types.HandoffEntry) {
	record := types.HandoffRecord{
		DateKey:         entry.EnqueuedAt.UTC().Format("2006-01-02"),
		ConversationID:  entry.ConversationID,
		Priority:        entry.Priority,
		Reason:          string(entry.Reason),
		Tags:            entry.Tags,
		AssignedToStaff: entry.AssignedToStaff,
		EnqueuedAt:      entry.EnqueuedAt.UTC().Format(time.RFC3339),
		WaitTimeSeconds: entry.WaitTimeSeconds,
	}
	if entry.AssignedAt != nil {
		record.AssignedAt = entry.AssignedAt.UTC().Format(time.RFC3339)
	}
	if entry.ResolvedAt != nil {
		record.ResolvedAt = entry.ResolvedAt.UTC().Format(time.RFC3339)
	}
	if err := s.store.SaveHandoffRecord(record); err != nil {
		s.logger.Error().Err(err).Str("conversation_id", entry.ConversationID).Msg("failed to persist handoff record")
	}
}
