package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// staffUpgrader is the WebSocket upgrader for staff connections
var staffUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Staff sockets come from the dashboard behind auth
		return true
	},
}

// StaffHandler handles WebSocket upgrade requests from staff
type StaffHandler struct {
	hub    *StaffHub
	logger zerolog.Logger
}

// NewStaffHandler creates a new StaffHandler
func NewStaffHandler(hub *StaffHub, logger zerolog.Logger) *StaffHandler {
	return &StaffHandler{
		hub:    hub,
		logger: logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests from staff
func (h *StaffHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := staffUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to upgrade staff connection")
		return
	}

	// Create new staff client
	client := NewStaffClient(h.hub, conn, h.logger)

	// Register client with hub
	h.hub.register <- client

	// Start client pumps
	client.Start()
}
