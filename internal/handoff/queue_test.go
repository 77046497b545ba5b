package handoff

import (
	"testing"
	"time"

	"github.com/starshop/chatdesk/internal/types"
)

func TestEnqueueOrdersByPriorityThenFIFO(t *testing.T) {
	q := NewQueue()

	q.Enqueue("conv-low", types.ReasonLowConfidence, 3, "", "")
	q.Enqueue("conv-payment", types.ReasonPaymentIssue, 8, "", "")
	q.Enqueue("conv-order", types.ReasonOrderInquiry, 6, "", "")

	waiting := q.Waiting()
	if len(waiting) != 3 {
		t.Fatalf("expected 3 waiting, got %d", len(waiting))
	}
	want := []string{"conv-payment", "conv-order", "conv-low"}
	for i, id := range want {
		if waiting[i].ConversationID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, waiting[i].ConversationID)
		}
	}
}

func TestEnqueueFIFOWithinEqualPriority(t *testing.T) {
	q := NewQueue()

	first, _ := q.Enqueue("conv-1", types.ReasonLowConfidence, 3, "", "")
	// Force distinct enqueue times; map iteration must not decide the order
	second, _ := q.Enqueue("conv-2", types.ReasonComplexQuery, 3, "", "")
	second.EnqueuedAt = first.EnqueuedAt.Add(time.Millisecond)

	waiting := q.Waiting()
	if waiting[0].ConversationID != "conv-1" || waiting[1].ConversationID != "conv-2" {
		t.Errorf("expected FIFO order conv-1, conv-2; got %s, %s",
			waiting[0].ConversationID, waiting[1].ConversationID)
	}
}

func TestEnqueueIdempotentUpgradesOnly(t *testing.T) {
	q := NewQueue()

	entry, created := q.Enqueue("conv-1", types.ReasonLowConfidence, 3, "help", "")
	if !created {
		t.Fatal("expected first enqueue to create an entry")
	}
	firstEnqueuedAt := entry.EnqueuedAt

	// Lower-severity repeat trigger: no change
	again, created := q.Enqueue("conv-1", types.ReasonComplexQuery, 3, "", "")
	if created {
		t.Error("expected no new entry for queued conversation")
	}
	if again.Reason != types.ReasonLowConfidence {
		t.Errorf("expected reason kept, got %s", again.Reason)
	}

	// Higher-severity trigger upgrades priority and reason in place
	upgraded, created := q.Enqueue("conv-1", types.ReasonPaymentIssue, 8, "", "")
	if created {
		t.Error("expected upgrade, not a new entry")
	}
	if upgraded.Priority != 8 || upgraded.Reason != types.ReasonPaymentIssue {
		t.Errorf("expected upgraded entry, got priority=%d reason=%s", upgraded.Priority, upgraded.Reason)
	}
	if !upgraded.EnqueuedAt.Equal(firstEnqueuedAt) {
		t.Error("expected original enqueue time preserved on upgrade")
	}
	if len(q.Waiting()) != 1 {
		t.Errorf("expected single entry, got %d", len(q.Waiting()))
	}
}

func TestEnqueueAfterResolveCreatesFreshEntry(t *testing.T) {
	q := NewQueue()

	q.Enqueue("conv-1", types.ReasonLowConfidence, 3, "", "")
	q.MarkAssigned("conv-1", "staff-1")
	q.Resolve("conv-1")

	entry, created := q.Enqueue("conv-1", types.ReasonPaymentIssue, 8, "", "")
	if !created {
		t.Fatal("expected fresh entry after resolution")
	}
	if entry.IsResolved() || entry.AssignedToStaff != "" {
		t.Error("expected fresh entry to be waiting")
	}
}

func TestResolveComputesWaitTime(t *testing.T) {
	q := NewQueue()

	entry, _ := q.Enqueue("conv-1", types.ReasonOrderInquiry, 6, "", "")
	entry.EnqueuedAt = time.Now().Add(-42 * time.Second)

	resolved := q.Resolve("conv-1")
	if resolved == nil {
		t.Fatal("expected resolved entry")
	}
	if resolved.WaitTimeSeconds < 41 || resolved.WaitTimeSeconds > 43 {
		t.Errorf("expected wait around 42s, got %d", resolved.WaitTimeSeconds)
	}

	// Second resolve is a no-op
	if q.Resolve("conv-1") != nil {
		t.Error("expected nil on double resolve")
	}
}

func TestClearAssignmentReturnsEntryToWaiting(t *testing.T) {
	q := NewQueue()

	q.Enqueue("conv-1", types.ReasonLowConfidence, 3, "", "")
	q.MarkAssigned("conv-1", "staff-1")

	if len(q.Waiting()) != 0 {
		t.Fatal("expected no waiting entries while assigned")
	}

	q.ClearAssignment("conv-1")

	waiting := q.Waiting()
	if len(waiting) != 1 || waiting[0].AssignedToStaff != "" {
		t.Errorf("expected entry back to waiting, got %+v", waiting)
	}
}

func TestStats(t *testing.T) {
	q := NewQueue()

	q.Enqueue("conv-waiting", types.ReasonLowConfidence, 3, "", "")

	q.Enqueue("conv-assigned", types.ReasonOrderInquiry, 6, "", "")
	q.MarkAssigned("conv-assigned", "staff-1")

	q.Enqueue("conv-resolved", types.ReasonPaymentIssue, 8, "", "")
	q.MarkAssigned("conv-resolved", "staff-1")
	q.Resolve("conv-resolved")

	stats := q.Stats()
	if stats.WaitingCount != 1 || stats.AssignedCount != 1 || stats.ResolvedCount != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
