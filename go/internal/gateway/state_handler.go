package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/stagecue/stagecue/go/internal/room"
)

// StateHandler serves room snapshots over REST for late-join hydration and
// reconnect recovery.
type StateHandler struct {
	directory RoomDirectory
}

// NewStateHandler creates a state handler.
func NewStateHandler(directory RoomDirectory) *StateHandler {
	return &StateHandler{directory: directory}
}

// HandleRoomState returns the room snapshot with remaining times computed
// at request instant.
func (h *StateHandler) HandleRoomState(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		http.Error(w, "room_id is required", http.StatusBadRequest)
		return
	}

	rm, err := h.directory.GetRoom(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to load room state")
		http.Error(w, "failed to load room state", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rm.Snapshot()); err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to encode room state")
	}
}

// RegisterStateRoutes registers the state routes.
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/state/room", h.HandleRoomState)
}
