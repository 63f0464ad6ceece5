package hub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/crickline/scoring-service/internal/wsclient"
	"github.com/crickline/scoring-service/pkg/models"
)

// Hub maintains the set of active viewer clients and fans change
// notifications out to them
type Hub struct {
	// Registered clients
	clients   map[*wsclient.Client]bool
	clientsMu sync.RWMutex

	// Inbound notifications from the stream consumer
	broadcast chan models.ChangeNotification

	// Register requests from clients
	register chan *wsclient.Client

	// Unregister requests from clients
	unregister chan *wsclient.Client

	// Metrics
	totalConnections int64
	totalMessages    int64
	metricsMu        sync.Mutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*wsclient.Client]bool),
		broadcast:  make(chan models.ChangeNotification, 1000),
		register:   make(chan *wsclient.Client),
		unregister: make(chan *wsclient.Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	fmt.Println("[Hub] Started")

	go h.reportMetrics(ctx)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case n := <-h.broadcast:
			h.broadcastChange(n)
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *wsclient.Client) {
	h.register <- c
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *wsclient.Client) {
	h.unregister <- c
}

// Broadcast queues a change notification for fan-out. Notifications carry
// ids only, so dropping one under pressure costs a viewer nothing but a
// later re-fetch.
func (h *Hub) Broadcast(n models.ChangeNotification) {
	select {
	case h.broadcast <- n:
	default:
		fmt.Println("[Hub] Broadcast buffer full, dropping notification")
	}
}

func (h *Hub) registerClient(c *wsclient.Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	h.incrementTotalConnections()

	fmt.Printf("[Hub] client %s connected (total: %d)\n", c.ID, len(h.clients))
}

func (h *Hub) unregisterClient(c *wsclient.Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
		fmt.Printf("[Hub] client %s disconnected (total: %d)\n", c.ID, len(h.clients))
	}
}

// broadcastChange sends a notification to every client whose filter allows it
func (h *Hub) broadcastChange(n models.ChangeNotification) {
	h.clientsMu.RLock()
	clients := make([]*wsclient.Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	message := models.ServerMessage{
		Type:      models.MessageTypeChange,
		Payload:   n,
		Timestamp: time.Now(),
	}

	sent := 0
	dropped := 0

	for _, c := range clients {
		if !c.GetFilter().Allows(n) {
			continue
		}

		if c.TrySend(message) {
			sent++
		} else {
			dropped++
			// Client buffer full - they're too slow, disconnect them
			fmt.Printf("[Hub] client %s buffer full, disconnecting\n", c.ID)
			go h.Unregister(c)
		}
	}

	if sent > 0 {
		h.incrementTotalMessages()
	}

	if dropped > 0 {
		fmt.Printf("[Hub] Dropped %d notifications (slow clients)\n", dropped)
	}
}

// GetMetrics returns hub metrics
func (h *Hub) GetMetrics() map[string]interface{} {
	h.clientsMu.RLock()
	activeClients := len(h.clients)
	h.clientsMu.RUnlock()

	h.metricsMu.Lock()
	totalConnections := h.totalConnections
	totalMessages := h.totalMessages
	h.metricsMu.Unlock()

	return map[string]interface{}{
		"active_clients":     activeClients,
		"total_connections":  totalConnections,
		"total_messages":     totalMessages,
		"broadcast_capacity": cap(h.broadcast),
		"broadcast_usage":    len(h.broadcast),
	}
}

// GetClientCount returns the number of active clients
func (h *Hub) GetClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// shutdown closes all client connections
func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	fmt.Printf("[Hub] Shutting down (%d active clients)\n", len(h.clients))

	for c := range h.clients {
		close(c.Send)
		delete(h.clients, c)
	}
}

// reportMetrics periodically reports hub metrics
func (h *Hub) reportMetrics(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics := h.GetMetrics()
			fmt.Printf("[Hub] Metrics: clients=%d total_connections=%d messages=%d\n",
				metrics["active_clients"],
				metrics["total_connections"],
				metrics["total_messages"])
		}
	}
}

func (h *Hub) incrementTotalConnections() {
	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()
	h.totalConnections++
}

func (h *Hub) incrementTotalMessages() {
	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()
	h.totalMessages++
}
