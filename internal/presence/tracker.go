package presence

import (
	"fmt"
	"sync"
	"time"

	"github.com/starshop/chatdesk/internal/types"
)

// ErrWorkloadFull is returned when an increment would exceed max workload
type ErrWorkloadFull struct {
	StaffID string
}

func (e *ErrWorkloadFull) Error() string {
	return fmt.Sprintf("staff %s is at max workload", e.StaffID)
}

// Tracker maintains the presence row of every staff member. Rows are
// created on first check-in and never deleted, only marked offline. All
// mutations run under the tracker mutex so concurrent workload updates
// from different conversations cannot lose writes.
type Tracker struct {
	staff map[string]*types.StaffPresence // staffID -> presence row
	mu    sync.RWMutex
}

// NewTracker creates an empty presence tracker
func NewTracker() *Tracker {
	return &Tracker{
		staff: make(map[string]*types.StaffPresence),
	}
}

// CheckIn marks a staff member online and available, creating the row on
// first contact.
func (t *Tracker) CheckIn(staffID string) types.StaffPresence {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	row, ok := t.staff[staffID]
	if !ok {
		row = &types.StaffPresence{
			StaffID:     staffID,
			MaxWorkload: types.DefaultMaxWorkload,
		}
		t.staff[staffID] = row
	}

	row.Online = true
	row.Status = types.StaffAvailable
	row.LastSeenAt = now
	row.LastActivityAt = now
	return *row
}

// CheckOut marks a staff member offline. The workload count is kept:
// assigned conversations stay assigned until closed or returned to AI.
func (t *Tracker) CheckOut(staffID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if row, ok := t.staff[staffID]; ok {
		row.Online = false
		row.Status = types.StaffOffline
		row.LastSeenAt = time.Now()
	}
}

// Heartbeat refreshes the staff member's last-seen timestamp
func (t *Tracker) Heartbeat(staffID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if row, ok := t.staff[staffID]; ok {
		row.LastSeenAt = time.Now()
		if row.Online && row.Status == types.StaffAway {
			row.Status = types.StaffAvailable
		}
	}
}

// SetStatus updates the staff member's declared status and optional message
func (t *Tracker) SetStatus(staffID string, status types.StaffStatus, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.staff[staffID]
	if !ok {
		return
	}
	row.Status = status
	row.StatusMessage = message
	row.LastSeenAt = time.Now()
	if status == types.StaffOffline {
		row.Online = false
	} else {
		row.Online = true
	}
}

// SetMaxWorkload updates a staff member's conversation capacity
func (t *Tracker) SetMaxWorkload(staffID string, max int) {
	if max < 1 {
		max = 1
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if row, ok := t.staff[staffID]; ok {
		row.MaxWorkload = max
	}
}

// IncrementWorkload reserves one unit of capacity for an assignment.
// Fails when the staff member is already at max so the 0 <= workload <=
// max_workload invariant holds under concurrent assignment.
func (t *Tracker) IncrementWorkload(staffID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.staff[staffID]
	if !ok {
		return fmt.Errorf("staff %s has no presence row", staffID)
	}
	if row.Workload >= row.MaxWorkload {
		return &ErrWorkloadFull{StaffID: staffID}
	}

	row.Workload++
	row.LastActivityAt = time.Now()
	return nil
}

// DecrementWorkload releases one unit of capacity, flooring at zero
func (t *Tracker) DecrementWorkload(staffID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.staff[staffID]
	if !ok {
		return
	}
	if row.Workload > 0 {
		row.Workload--
	}
	row.LastActivityAt = time.Now()
}

// Get returns a copy of the staff member's presence row
func (t *Tracker) Get(staffID string) (types.StaffPresence, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	row, ok := t.staff[staffID]
	if !ok {
		return types.StaffPresence{}, false
	}
	return *row, true
}

// Available returns copies of every staff row that can take a conversation
func (t *Tracker) Available() []types.StaffPresence {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]types.StaffPresence, 0)
	for _, row := range t.staff {
		if row.IsAvailable() {
			out = append(out, *row)
		}
	}
	return out
}

// All returns copies of every presence row
func (t *Tracker) All() []types.StaffPresence {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]types.StaffPresence, 0, len(t.staff))
	for _, row := range t.staff {
		out = append(out, *row)
	}
	return out
}

// SetAllOffline marks every staff member offline, used on shutdown
func (t *Tracker) SetAllOffline() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, row := range t.staff {
		row.Online = false
		row.Status = types.StaffOffline
	}
}

// MarkStaleAway flags online staff as away when no heartbeat arrived
// within the threshold. Returns the number of rows changed.
func (t *Tracker) MarkStaleAway(threshold time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-threshold)
	changed := 0
	for _, row := range t.staff {
		if row.Online && row.Status == types.StaffAvailable && row.LastSeenAt.Before(cutoff) {
			row.Status = types.StaffAway
			changed++
		}
	}
	return changed
}

// Counts returns how many staff are online and how many are available
func (t *Tracker) Counts() (online, available int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, row := range t.staff {
		if row.Online {
			online++
		}
		if row.IsAvailable() {
			available++
		}
	}
	return
}
