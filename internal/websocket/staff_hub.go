package websocket

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
	"github.com/starshop/chatdesk/internal/metrics"
	"github.com/starshop/chatdesk/internal/presence"
	"github.com/starshop/chatdesk/internal/types"
)

// StaffHub maintains the active staff WebSocket connections, keyed by
// staff id, and feeds presence signals into the tracker. It also carries
// assignment notices back to the chosen staff member's socket.
type StaffHub struct {
	// Registered staff clients
	staff map[string]*StaffClient // staffID -> client

	// Register requests from staff clients
	register chan *StaffClient

	// Unregister requests from staff clients
	unregister chan *StaffClient

	// Heartbeat messages from staff
	heartbeat chan *types.StaffHeartbeat

	// Status change messages from staff
	statusChange chan *types.StaffStatusChange

	// Check-in messages
	checkIn chan *types.StaffCheckIn

	// Mutex to protect staff map
	mu sync.RWMutex

	// Logger
	logger zerolog.Logger

	// Presence tracker
	tracker *presence.Tracker
}

// NewStaffHub creates a new StaffHub
func NewStaffHub(tracker *presence.Tracker, logger zerolog.Logger) *StaffHub {
	return &StaffHub{
		staff:        make(map[string]*StaffClient),
		register:     make(chan *StaffClient),
		unregister:   make(chan *StaffClient),
		heartbeat:    make(chan *types.StaffHeartbeat, 1000),
		statusChange: make(chan *types.StaffStatusChange, 500),
		checkIn:      make(chan *types.StaffCheckIn, 100),
		logger:       logger,
		tracker:      tracker,
	}
}

// Run starts the hub's main loop
func (h *StaffHub) Run() {
	m := metrics.Get()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// Remove existing client with same staffID if any
			if existing, ok := h.staff[client.staffID]; ok {
				existing.Close()
				delete(h.staff, client.staffID)
			}
			h.staff[client.staffID] = client
			h.mu.Unlock()

			m.RecordWebSocketConnect()

			h.logger.Debug().
				Str("staff_id", client.staffID).
				Int("total_staff", len(h.staff)).
				Msg("staff connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if existing, ok := h.staff[client.staffID]; ok && existing == client {
				delete(h.staff, client.staffID)
				client.Close()
				h.tracker.CheckOut(client.staffID)
				m.RecordWebSocketDisconnect()

				h.logger.Debug().
					Str("staff_id", client.staffID).
					Int("total_staff", len(h.staff)).
					Msg("staff disconnected")
			}
			h.mu.Unlock()

		case ci := <-h.checkIn:
			h.tracker.CheckIn(ci.StaffID)
			if ci.MaxWorkload > 0 {
				h.tracker.SetMaxWorkload(ci.StaffID, ci.MaxWorkload)
			}
			if ci.Status != "" && ci.Status != types.StaffAvailable {
				h.tracker.SetStatus(ci.StaffID, ci.Status, ci.StatusMessage)
			}

		case hb := <-h.heartbeat:
			h.tracker.Heartbeat(hb.StaffID)

		case sc := <-h.statusChange:
			h.tracker.SetStatus(sc.StaffID, sc.Status, sc.StatusMessage)
		}
	}
}

// NotifyAssignment sends an assignment notice to the staff member's socket
func (h *StaffHub) NotifyAssignment(staffID string, notice types.AssignmentNotice) {
	data, err := json.Marshal(notice)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal assignment notice")
		return
	}
	if !h.SendToStaff(staffID, data) {
		h.logger.Warn().
			Str("staff_id", staffID).
			Str("conversation_id", notice.ConversationID).
			Msg("assignment notice not delivered, staff socket absent")
	}
}

// StaffCount returns the number of connected staff
func (h *StaffHub) StaffCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.staff)
}

// SendToStaff sends a message to a specific staff member
func (h *StaffHub) SendToStaff(staffID string, message []byte) bool {
	h.mu.RLock()
	client, ok := h.staff[staffID]
	h.mu.RUnlock()

	if !ok {
		return false
	}

	return client.safeSend(message)
}

// Disconnect closes a staff member's socket, used by the admin API
func (h *StaffHub) Disconnect(staffID string) bool {
	h.mu.Lock()
	client, ok := h.staff[staffID]
	if ok {
		delete(h.staff, staffID)
		client.Close()
		h.tracker.CheckOut(staffID)
		metrics.Get().RecordWebSocketDisconnect()
		h.logger.Info().Str("staff_id", staffID).Msg("staff force-disconnected")
	}
	h.mu.Unlock()

	return ok
}
