package events

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// Hub maintains the set of connected admin consoles and pushes enrollment
// events to them
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Channel for events to broadcast
	broadcast chan *EnrollmentEvent

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for concurrent access to clients map
	mu sync.RWMutex

	// Logger for Hub operations
	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan *EnrollmentEvent, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

// Run starts the hub, handling client registrations and broadcasts
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// registerClient registers a new client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	h.logger.Info().
		Int64("userID", client.userID).
		Str("addr", client.conn.RemoteAddr().String()).
		Msg("Admin console connected")
}

// unregisterClient unregisters a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)

		h.logger.Info().
			Int64("userID", client.userID).
			Str("addr", client.conn.RemoteAddr().String()).
			Msg("Admin console disconnected")
	}
}

// broadcastEvent pushes an event to every connected client. A client whose
// send buffer is full is dropped inline; routing it through the unregister
// channel would block forever because Run is the only receiver.
func (h *Hub) broadcastEvent(event *EnrollmentEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("action", event.Action).Msg("Failed to marshal event for broadcast")
		return
	}

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			delete(h.clients, client)
			close(client.send)

			h.logger.Warn().
				Int64("userID", client.userID).
				Msg("Dropping slow admin console")
		}
	}

	h.logger.Debug().
		Str("action", event.Action).
		Int("clientCount", len(h.clients)).
		Msg("Event broadcasted to admin consoles")
}

// BroadcastEvent queues an event for delivery to all connected clients
func (h *Hub) BroadcastEvent(event *EnrollmentEvent) {
	h.broadcast <- event
}

// ClientCount returns the number of connected admin consoles
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
