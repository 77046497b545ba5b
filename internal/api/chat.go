package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/starshop/chatdesk/internal/conversation"
	"github.com/starshop/chatdesk/internal/supervisor"
	"github.com/starshop/chatdesk/internal/types"
)

// ChatHandler provides the customer-facing chat endpoints
type ChatHandler struct {
	sup     *supervisor.Supervisor
	convs   *conversation.Store
	history *conversation.History
	logger  zerolog.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(sup *supervisor.Supervisor, convs *conversation.Store, history *conversation.History, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		sup:     sup,
		convs:   convs,
		history: history,
		logger:  logger.With().Str("component", "chat_handler").Logger(),
	}
}

// CreateConversation handles POST /api/conversations
func (h *ChatHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID string `json:"customerId"`
		Priority   string `json:"priority,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.CustomerID == "" {
		http.Error(w, `{"error":"customerId is required"}`, http.StatusBadRequest)
		return
	}

	conv := h.sup.StartConversation(req.CustomerID, types.ParsePriority(req.Priority))
	writeJSON(w, http.StatusCreated, conv)
}

// SendMessage handles POST /api/conversations/{conversationId}/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationId")

	var req struct {
		SenderID string `json:"senderId"`
		Content  string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		http.Error(w, `{"error":"content is required"}`, http.StatusBadRequest)
		return
	}

	result, err := h.sup.HandleCustomerMessage(r.Context(), conversationID, req.SenderID, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetConversation handles GET /api/conversations/{conversationId}
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationId")

	conv, err := h.convs.Get(conversationID)
	if err != nil {
		writeError(w, err)
		return
	}

	messages := h.history.Recent(conversationID)
	if messages == nil {
		messages = []types.ChatMessage{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversation": conv,
		"messages":     messages,
	})
}
