package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/stagecue/stagecue/go/internal/room"
)

// RoomHandler serves the room lifecycle REST surface: create and delete.
type RoomHandler struct {
	directory RoomDirectory
}

// NewRoomHandler creates a room lifecycle handler.
func NewRoomHandler(directory RoomDirectory) *RoomHandler {
	return &RoomHandler{directory: directory}
}

type createRoomRequest struct {
	AdminID string `json:"admin_id"`
}

type createRoomResponse struct {
	RoomID string `json:"room_id"`
}

// HandleCreateRoom allocates a new room for the given admin.
func (h *RoomHandler) HandleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	if req.AdminID == "" {
		http.Error(w, "admin_id is required", http.StatusBadRequest)
		return
	}

	rm, err := h.directory.CreateRoom(r.Context(), req.AdminID)
	if err != nil {
		log.Error().Err(err).Str("admin_id", req.AdminID).Msg("failed to create room")
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(createRoomResponse{RoomID: rm.ID()}); err != nil {
		log.Error().Err(err).Msg("failed to encode create room response")
	}
}

// HandleDeleteRoom removes a room entirely.
func (h *RoomHandler) HandleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		http.Error(w, "room_id is required", http.StatusBadRequest)
		return
	}

	if err := h.directory.DeleteRoom(r.Context(), roomID); err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to delete room")
		http.Error(w, "failed to delete room", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegisterRoomRoutes registers the room lifecycle routes.
func (h *RoomHandler) RegisterRoomRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/rooms", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.HandleCreateRoom(w, r)
		case http.MethodDelete:
			h.HandleDeleteRoom(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}
