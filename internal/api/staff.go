package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/starshop/chatdesk/internal/handoff"
	"github.com/starshop/chatdesk/internal/presence"
	"github.com/starshop/chatdesk/internal/supervisor"
	"github.com/starshop/chatdesk/internal/types"
)

// StaffHandler provides the staff-facing queue and presence endpoints
type StaffHandler struct {
	sup     *supervisor.Supervisor
	manager *handoff.Manager
	tracker *presence.Tracker
	logger  zerolog.Logger
}

// NewStaffHandler creates a new StaffHandler
func NewStaffHandler(sup *supervisor.Supervisor, manager *handoff.Manager, tracker *presence.Tracker, logger zerolog.Logger) *StaffHandler {
	return &StaffHandler{
		sup:     sup,
		manager: manager,
		tracker: tracker,
		logger:  logger.With().Str("component", "staff_handler").Logger(),
	}
}

// CheckIn handles POST /api/staff/{staffId}/checkin
func (h *StaffHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	staffID := chi.URLParam(r, "staffId")

	var req struct {
		MaxWorkload int `json:"maxWorkload,omitempty"`
	}
	// Body is optional
	json.NewDecoder(r.Body).Decode(&req)

	row := h.tracker.CheckIn(staffID)
	if req.MaxWorkload > 0 {
		h.tracker.SetMaxWorkload(staffID, req.MaxWorkload)
		row, _ = h.tracker.Get(staffID)
	}

	// Fresh capacity may drain the queue
	h.manager.DispatchWaiting()

	writeJSON(w, http.StatusOK, row)
}

// CheckOut handles POST /api/staff/{staffId}/checkout
func (h *StaffHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	staffID := chi.URLParam(r, "staffId")
	h.tracker.CheckOut(staffID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "checked out"})
}

// Heartbeat handles POST /api/staff/{staffId}/heartbeat
func (h *StaffHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	staffID := chi.URLParam(r, "staffId")
	h.tracker.Heartbeat(staffID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

// SetStatus handles POST /api/staff/{staffId}/status
func (h *StaffHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	staffID := chi.URLParam(r, "staffId")

	var req struct {
		Status        string `json:"status"`
		StatusMessage string `json:"statusMessage,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	status := types.ParseStaffStatus(req.Status)
	h.tracker.SetStatus(staffID, status, req.StatusMessage)

	if status == types.StaffAvailable {
		h.manager.DispatchWaiting()
	}

	row, _ := h.tracker.Get(staffID)
	writeJSON(w, http.StatusOK, row)
}

// GetQueue handles GET /api/staff/queue
func (h *StaffHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"waiting": h.manager.Waiting(),
		"stats":   h.manager.Stats(),
	})
}

// Claim handles POST /api/staff/{staffId}/claim/{conversationId}
func (h *StaffHandler) Claim(w http.ResponseWriter, r *http.Request) {
	staffID := chi.URLParam(r, "staffId")
	conversationID := chi.URLParam(r, "conversationId")

	if err := h.sup.Claim(conversationID, staffID); err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info().
		Str("staff_id", staffID).
		Str("conversation_id", conversationID).
		Msg("conversation claimed via API")

	writeJSON(w, http.StatusOK, map[string]string{
		"message":        "conversation claimed",
		"conversationId": conversationID,
		"staffId":        staffID,
	})
}

// GetAssignments handles GET /api/staff/{staffId}/assignments
func (h *StaffHandler) GetAssignments(w http.ResponseWriter, r *http.Request) {
	staffID := chi.URLParam(r, "staffId")
	writeJSON(w, http.StatusOK, h.manager.AssignedTo(staffID))
}

// Reply handles POST /api/staff/{staffId}/conversations/{conversationId}/reply
func (h *StaffHandler) Reply(w http.ResponseWriter, r *http.Request) {
	staffID := chi.URLParam(r, "staffId")
	conversationID := chi.URLParam(r, "conversationId")

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		http.Error(w, `{"error":"content is required"}`, http.StatusBadRequest)
		return
	}

	msg, err := h.sup.HandleStaffReply(conversationID, staffID, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// CloseConversation handles POST /api/conversations/{conversationId}/close
func (h *StaffHandler) CloseConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationId")

	conv, err := h.sup.CloseConversation(conversationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// ReopenConversation handles POST /api/conversations/{conversationId}/reopen
func (h *StaffHandler) ReopenConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationId")

	conv, err := h.sup.Reopen(conversationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// ReturnToAI handles POST /api/conversations/{conversationId}/return
// The conversation goes back to the AI after the grace period unless the
// customer speaks up first.
func (h *StaffHandler) ReturnToAI(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationId")

	if err := h.sup.QueueReturnToAI(conversationID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message":        "return to AI scheduled",
		"conversationId": conversationID,
	})
}

// CancelReturnToAI handles DELETE /api/conversations/{conversationId}/return
func (h *StaffHandler) CancelReturnToAI(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationId")

	cancelled := h.sup.CancelReturnToAI(conversationID)
	writeJSON(w, http.StatusOK, map[string]any{
		"cancelled":      cancelled,
		"conversationId": conversationID,
	})
}

// GetRoster handles GET /api/staff/roster
func (h *StaffHandler) GetRoster(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.All())
}
