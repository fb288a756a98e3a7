package gateway

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/stagecue/stagecue/go/internal/room/events"
)

// WebSocketHandler upgrades subscribers into a room's connection pool and
// runs the join/leave flow.
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	directory         RoomDirectory
}

// NewWebSocketHandler creates a websocket handler.
func NewWebSocketHandler(cm *ConnectionManager, directory RoomDirectory) *WebSocketHandler {
	return &WebSocketHandler{connectionManager: cm, directory: directory}
}

// HandleRoomConnection joins a subscriber to a room. The room must exist;
// the subscriber immediately receives a full room state snapshot so late
// joiners hydrate without waiting for the next tick.
func (h *WebSocketHandler) HandleRoomConnection(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		http.Error(w, "room_id is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	rm, err := h.directory.GetRoom(ctx, roomID)
	if err != nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	// In production the user id comes from the session; anonymous viewers
	// are allowed.
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous"
	}
	role := r.URL.Query().Get("role")
	if role != "admin" || userID != rm.AdminID() {
		role = "client"
	}

	conn, err := h.connectionManager.UpgradeConnection(w, r, userID, role, roomID)
	if err != nil {
		log.Error().Err(err).
			Str("room_id", roomID).
			Str("user_id", userID).
			Msg("failed to upgrade websocket connection")
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
		return
	}

	rm.AddClient(conn.ID, role)

	// Everyone in the room sees the membership change; the snapshot also
	// hydrates the joiner.
	event, err := newLocalEvent(roomID, events.TypeRoomState, events.RoomStatePayload{Room: rm.Snapshot()})
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to build room state event")
		return
	}
	h.connectionManager.BroadcastToRoom(roomID, event)
}

// HandleConnectionStats reports active connection counts.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	totalConnections, activeRooms := h.connectionManager.Stats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"total_connections":` + strconv.Itoa(totalConnections) + `,"active_rooms":` + strconv.Itoa(activeRooms) + `}`))
}

// RegisterRoutes registers the websocket routes.
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/room", h.HandleRoomConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
