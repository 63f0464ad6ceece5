package handlers

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/crickline/scoring-service/internal/wsclient"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Scoreboard viewers connect from anywhere
		return true
	},
}

// HandleWebSocket upgrades HTTP connections to WebSocket viewer sessions
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "live updates unavailable", nil)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		fmt.Printf("[WS] upgrade error: %v\n", err)
		return
	}

	clientID := uuid.New().String()
	c := wsclient.NewClient(clientID, conn, h.hub)

	h.hub.Register(c)

	// Use the handler context, not the request context: the request ends
	// when this function returns but the connection lives on.
	go c.WritePump(h.wsCtx)
	go c.ReadPump(h.wsCtx)

	fmt.Printf("[WS] connection established: %s\n", clientID)
}

// HandleMetrics returns hub metrics
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{})
		return
	}
	respondJSON(w, http.StatusOK, h.hub.GetMetrics())
}
