package conversation

import (
	"errors"
	"testing"
	"time"

	"github.com/starshop/chatdesk/internal/types"
)

func TestCreateStartsOpen(t *testing.T) {
	store := NewStore()
	conv := store.Create("customer-1", types.PriorityNormal)

	if conv.Status != types.ConversationOpen {
		t.Errorf("expected open status, got %s", conv.Status)
	}
	if conv.AssignedStaffID != "" {
		t.Errorf("expected no assigned staff, got %s", conv.AssignedStaffID)
	}
	if conv.ClosedAt != nil {
		t.Error("expected nil ClosedAt on a new conversation")
	}
}

func TestAssignFromOpen(t *testing.T) {
	store := NewStore()
	conv := store.Create("customer-1", types.PriorityNormal)

	got, err := store.Assign(conv.ID, "staff-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != types.ConversationAssigned {
		t.Errorf("expected assigned status, got %s", got.Status)
	}
	if got.AssignedStaffID != "staff-1" {
		t.Errorf("expected staff-1, got %s", got.AssignedStaffID)
	}
}

func TestReassignWhileAssigned(t *testing.T) {
	store := NewStore()
	conv := store.Create("customer-1", types.PriorityNormal)

	if _, err := store.Assign(conv.ID, "staff-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := store.Assign(conv.ID, "staff-2")
	if err != nil {
		t.Fatalf("reassignment should be legal: %v", err)
	}
	if got.AssignedStaffID != "staff-2" {
		t.Errorf("expected staff-2, got %s", got.AssignedStaffID)
	}
}

func TestAssignClosedFails(t *testing.T) {
	store := NewStore()
	conv := store.Create("customer-1", types.PriorityNormal)
	if _, err := store.Close(conv.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := store.Assign(conv.ID, "staff-1")
	var invalid *InvalidStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	store := NewStore()
	conv := store.Create("customer-1", types.PriorityNormal)

	first, err := store.Close(conv.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ClosedAt == nil {
		t.Fatal("expected ClosedAt to be stamped")
	}

	second, err := store.Close(conv.ID)
	if err != nil {
		t.Fatalf("re-close should be a no-op: %v", err)
	}
	if !second.ClosedAt.Equal(*first.ClosedAt) {
		t.Errorf("expected identical ClosedAt, got %v vs %v", second.ClosedAt, first.ClosedAt)
	}
}

func TestReopenOnlyFromClosed(t *testing.T) {
	store := NewStore()
	conv := store.Create("customer-1", types.PriorityNormal)

	var invalid *InvalidStateError
	if _, err := store.Reopen(conv.ID); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStateError reopening open conversation, got %v", err)
	}

	if _, err := store.Assign(conv.ID, "staff-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Reopen(conv.ID); !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStateError reopening assigned conversation, got %v", err)
	}

	if _, err := store.Close(conv.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := store.Reopen(conv.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != types.ConversationAssigned {
		t.Errorf("reopen should return to assigned, got %s", got.Status)
	}
	if got.ClosedAt != nil {
		t.Error("expected ClosedAt cleared after reopen")
	}
}

func TestStatusInvariants(t *testing.T) {
	store := NewStore()
	conv := store.Create("customer-1", types.PriorityHigh)

	check := func(c types.Conversation) {
		t.Helper()
		if (c.Status == types.ConversationAssigned) != (c.AssignedStaffID != "") {
			t.Errorf("assigned invariant violated: status=%s staff=%q", c.Status, c.AssignedStaffID)
		}
		if (c.Status == types.ConversationClosed) != (c.ClosedAt != nil) {
			t.Errorf("closed invariant violated: status=%s closedAt=%v", c.Status, c.ClosedAt)
		}
	}

	check(*conv)

	c, _ := store.Assign(conv.ID, "staff-1")
	check(c)
	c, _ = store.Close(conv.ID)
	check(c)
	c, _ = store.Reopen(conv.ID)
	check(c)
	c, _ = store.ClearAssignment(conv.ID)
	check(c)
}

func TestClearAssignmentReturnsToOpen(t *testing.T) {
	store := NewStore()
	conv := store.Create("customer-1", types.PriorityNormal)
	if _, err := store.Assign(conv.ID, "staff-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.ClearAssignment(conv.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != types.ConversationOpen {
		t.Errorf("expected open, got %s", got.Status)
	}
	if got.AssignedStaffID != "" {
		t.Errorf("expected cleared staff, got %s", got.AssignedStaffID)
	}
}

func TestGetUnknownConversation(t *testing.T) {
	store := NewStore()
	_, err := store.Get("missing")
	var notFound *ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTouchMessage(t *testing.T) {
	store := NewStore()
	conv := store.Create("customer-1", types.PriorityNormal)

	at := time.Now().Add(5 * time.Minute)
	store.TouchMessage(conv.ID, at)

	got, err := store.Get(conv.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.LastMessageAt.Equal(at) {
		t.Errorf("expected LastMessageAt %v, got %v", at, got.LastMessageAt)
	}
}

func TestHistoryRingAndSnapshot(t *testing.T) {
	h := NewHistory()

	h.Add(types.ChatMessage{ConversationID: "c1", Content: "hello", SenderID: "customer-1"})
	h.Add(types.ChatMessage{ConversationID: "c1", Content: "hi there", AIGenerated: true})

	recent := h.Recent("c1")
	if len(recent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(recent))
	}

	snapshot := h.ContextSnapshot("c1")
	if snapshot != "customer: hello\nai: hi there\n" {
		t.Errorf("unexpected snapshot: %q", snapshot)
	}

	// Ring must cap at historyDepth
	for i := 0; i < historyDepth*2; i++ {
		h.Add(types.ChatMessage{ConversationID: "c1", Content: "x"})
	}
	if got := len(h.Recent("c1")); got != historyDepth {
		t.Errorf("expected ring capped at %d, got %d", historyDepth, got)
	}

	h.Drop("c1")
	if len(h.Recent("c1")) != 0 {
		t.Error("expected empty history after drop")
	}
}
