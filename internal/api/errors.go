package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/starshop/chatdesk/internal/conversation"
	"github.com/starshop/chatdesk/internal/handoff"
	"github.com/starshop/chatdesk/internal/presence"
)

// writeError maps domain errors to HTTP status codes with a JSON body
func writeError(w http.ResponseWriter, err error) {
	var (
		notFound        *conversation.ErrNotFound
		invalidState    *conversation.InvalidStateError
		notQueued       *handoff.NotQueuedError
		alreadyAssigned *handoff.AlreadyAssignedError
		noStaff         *handoff.NoStaffAvailableError
		workloadFull    *presence.ErrWorkloadFull
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &notFound), errors.As(err, &notQueued):
		status = http.StatusNotFound
	case errors.As(err, &invalidState), errors.As(err, &alreadyAssigned), errors.As(err, &workloadFull):
		status = http.StatusConflict
	case errors.As(err, &noStaff):
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
