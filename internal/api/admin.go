package api

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/starshop/chatdesk/internal/auth"
	"github.com/starshop/chatdesk/internal/conversation"
	"github.com/starshop/chatdesk/internal/handoff"
	"github.com/starshop/chatdesk/internal/presence"
	"github.com/starshop/chatdesk/internal/storage"
	"github.com/starshop/chatdesk/internal/supervisor"
)

// AdminHandler handles operational endpoints: stats, queue wipes and
// storage truncation.
type AdminHandler struct {
	convs   *conversation.Store
	manager *handoff.Manager
	tracker *presence.Tracker
	sup     *supervisor.Supervisor
	store   storage.Store
	logger  zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(convs *conversation.Store, manager *handoff.Manager, tracker *presence.Tracker, sup *supervisor.Supervisor, store storage.Store, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		convs:   convs,
		manager: manager,
		tracker: tracker,
		sup:     sup,
		store:   store,
		logger:  logger,
	}
}

// RequireAdmin middleware — only admin role allowed
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.GetUserFromContext(r.Context())
		if !ok || !auth.HasRole(claims, "admin") {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"error":"admin role required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSupervisorOrAdmin middleware — supervisor or admin role allowed
func RequireSupervisorOrAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.GetUserFromContext(r.Context())
		if !ok || (claims.Role != "admin" && claims.Role != "supervisor") {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"error":"supervisor or admin role required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetStats handles GET /api/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	online, available := h.tracker.Counts()

	writeJSON(w, http.StatusOK, map[string]any{
		"queue":          h.manager.Stats(),
		"conversations":  h.convs.Count(),
		"staffOnline":    online,
		"staffAvailable": available,
		"pendingReturns": h.sup.PendingReturns(),
	})
}

// WipeQueue handles POST /api/admin/queue/wipe
func (h *AdminHandler) WipeQueue(w http.ResponseWriter, r *http.Request) {
	cleared := h.manager.Wipe()

	h.logger.Info().Int("cleared", cleared).Msg("handoff queue wiped via admin")

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "handoff queue wiped",
		"cleared": cleared,
	})
}

// ResetMemory clears backend in-memory state (presence + handoff queue)
func (h *AdminHandler) ResetMemory(w http.ResponseWriter, r *http.Request) {
	h.tracker.SetAllOffline()
	cleared := h.manager.Wipe()
	h.sup.Shutdown()

	h.logger.Info().Int("cleared", cleared).Msg("backend memory reset")

	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "backend memory reset",
		"entriesCleared": cleared,
	})
}

// WipeDynamo truncates all DynamoDB tables
func (h *AdminHandler) WipeDynamo(w http.ResponseWriter, r *http.Request) {
	if err := h.store.TruncateAll(); err != nil {
		h.logger.Error().Err(err).Msg("failed to truncate DynamoDB tables")
		http.Error(w, fmt.Sprintf(`{"error":"failed to truncate: %s"}`, err), http.StatusInternalServerError)
		return
	}

	h.logger.Info().Msg("DynamoDB tables truncated")

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "DynamoDB tables truncated",
	})
}
