package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hallway-live/room-service/internal/config"
	"github.com/hallway-live/room-service/internal/hub"
	"github.com/hallway-live/room-service/internal/room"
	"github.com/hallway-live/room-service/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades websocket requests and routes each connection to the
// actor owning the requested room.
type WSHandler struct {
	hub   *hub.Hub
	rooms *room.Registry
	wsCfg config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, rooms *room.Registry, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:   h,
		rooms: rooms,
		wsCfg: wsCfg,
	}
}

// HandleWebSocket serves GET /room/ws?room=<id>.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		http.Error(w, "missing room parameter", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger := log.Ctx(r.Context())
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), conn, h.wsCfg)
	actor := h.rooms.Get(roomID)

	go client.WritePump()

	// Attach + snapshot happen inside the actor loop, so the "all" event
	// is the first frame this client observes.
	actor.Connect(client)

	go client.ReadPump(
		func(data []byte) { actor.Message(client.ID(), data) },
		func() { actor.Close(client.ID()) },
	)
}

// RegisterRoutes wires the handler's endpoints onto the mux.
func (h *WSHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/room/ws", h.HandleWebSocket)
}
