package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ble-atlas/internal/models"
)

// writeWait bounds each broadcast write so one wedged peer cannot
// stall the mutation path that triggered the broadcast.
const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The visualization layer runs on a different origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans each freshly computed snapshot out to connected
// visualization clients.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*websocket.Conn
	logger  zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*websocket.Conn),
		logger:  logger,
	}
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	clientID := uuid.NewString()

	h.mu.Lock()
	h.clients[clientID] = conn
	h.mu.Unlock()

	h.logger.Info().
		Str("client_id", clientID).
		Str("remote", r.RemoteAddr).
		Msg("Websocket client connected")

	// Reader loop only exists to detect disconnects; clients never
	// send anything meaningful.
	go func() {
		defer h.remove(clientID)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends the snapshot to every connected client. Wired into
// the engine's update hook.
func (h *Hub) Broadcast(snapshot *models.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(snapshot); err != nil {
			h.logger.Debug().Err(err).
				Str("client_id", id).
				Msg("Dropping websocket client")
			conn.Close()
			delete(h.clients, id)
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) remove(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, ok := h.clients[clientID]; ok {
		conn.Close()
		delete(h.clients, clientID)
		h.logger.Info().Str("client_id", clientID).Msg("Websocket client disconnected")
	}
}
