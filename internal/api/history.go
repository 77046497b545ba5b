package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/starshop/chatdesk/internal/storage"
	"github.com/starshop/chatdesk/internal/types"
)

// HistoryHandler provides REST endpoints for persisted routing decisions
// and resolved handoffs.
type HistoryHandler struct {
	store  storage.Store
	logger zerolog.Logger
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(store storage.Store, logger zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{
		store:  store,
		logger: logger.With().Str("component", "history_handler").Logger(),
	}
}

// GetDecisions returns the routing decisions made for a conversation
// GET /api/conversations/{conversationId}/decisions
func (h *HistoryHandler) GetDecisions(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationId")
	if conversationID == "" {
		http.Error(w, "conversationId is required", http.StatusBadRequest)
		return
	}

	records, err := h.store.GetRoutingDecisions(conversationID)
	if err != nil {
		h.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to get routing decisions")
		http.Error(w, "failed to retrieve decisions", http.StatusInternalServerError)
		return
	}

	if records == nil {
		records = []types.RoutingDecisionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// GetHandoffs returns the resolved handoffs for a date
// GET /api/handoffs?date=YYYY-MM-DD
func (h *HistoryHandler) GetHandoffs(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "date query parameter is required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	records, err := h.store.GetHandoffRecords(date)
	if err != nil {
		h.logger.Error().Err(err).Str("date", date).Msg("failed to get handoff records")
		http.Error(w, "failed to retrieve handoffs", http.StatusInternalServerError)
		return
	}

	if records == nil {
		records = []types.HandoffRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// GetStaffHandoffs returns the handoffs a staff member handled on a date
// GET /api/staff/{staffId}/handoffs?date=YYYY-MM-DD
func (h *HistoryHandler) GetStaffHandoffs(w http.ResponseWriter, r *http.Request) {
	staffID := chi.URLParam(r, "staffId")
	if staffID == "" {
		http.Error(w, "staffId is required", http.StatusBadRequest)
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "date query parameter is required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	records, err := h.store.GetStaffHandoffsByDate(staffID, date)
	if err != nil {
		h.logger.Error().Err(err).
			Str("staff_id", staffID).
			Str("date", date).
			Msg("failed to get staff handoffs")
		http.Error(w, "failed to retrieve handoffs", http.StatusInternalServerError)
		return
	}

	if records == nil {
		records = []types.HandoffRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
