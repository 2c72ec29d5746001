package websocket

import (
	"log/slog"
	"sync"

	"github.com/devcorner/tvdash/internal/core/domain"
	"github.com/devcorner/tvdash/internal/core/ports"
)

// Hub maintains the set of active Clients and pushes dashboard events to
// them. A client may subscribe to specific dashboards; clients with no
// subscriptions receive every event, which is what an unattended TV screen
// wants by default.
type Hub struct {
	// clients holds every active connection
	clients map[*Client]bool

	// rooms maps dashboard names to subscribed clients
	rooms map[string]map[*Client]bool

	// Broadcast channel for events
	broadcast chan domain.Event

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// mu protects the clients and rooms maps
	mu sync.RWMutex

	// logger for the hub
	logger *slog.Logger
}

// Ensure Hub implements the EventBroadcaster interface.
var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan domain.Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Broadcast queues an event for delivery to connected screens.
// This method implements the ports.EventBroadcaster interface.
func (h *Hub) Broadcast(event domain.Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event",
			"event_type", event.Type,
			"dashboard", event.Dashboard,
		)
	}
}

// Run starts the hub's event loop. This MUST be run as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// registerClient adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	h.logger.Info("client registered",
		"remote_addr", client.RemoteAddr(),
		"total_connections", len(h.clients),
	)
}

// unregisterClient removes a client from the hub and all rooms
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	for _, dashboard := range client.GetSubscriptions() {
		if room, ok := h.rooms[dashboard]; ok {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, dashboard)
			}
		}
	}

	client.CloseSend()

	h.logger.Info("client unregistered",
		"remote_addr", client.RemoteAddr(),
		"total_connections", len(h.clients),
	)
}

// broadcastEvent sends an event to every client interested in its dashboard:
// clients subscribed to it plus clients with no subscriptions at all.
func (h *Hub) broadcastEvent(event domain.Event) {
	h.mu.RLock()
	recipients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		if client.WantsDashboard(event.Dashboard) {
			recipients = append(recipients, client)
		}
	}
	h.mu.RUnlock()

	h.logger.Debug("broadcasting event",
		"event_type", event.Type,
		"dashboard", event.Dashboard,
		"client_count", len(recipients),
	)

	for _, client := range recipients {
		select {
		case client.Send <- event:
			// Successfully queued
		default:
			// Client's send buffer is full, unregister them
			h.logger.Warn("client send buffer full, unregistering",
				"remote_addr", client.RemoteAddr(),
			)
			h.Unregister <- client
		}
	}
}

// subscribeClient adds a client to a dashboard's room
func (h *Hub) subscribeClient(client *Client, dashboard string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[dashboard] == nil {
		h.rooms[dashboard] = make(map[*Client]bool)
	}
	h.rooms[dashboard][client] = true
	client.AddSubscription(dashboard)

	h.logger.Debug("client subscribed to dashboard",
		"remote_addr", client.RemoteAddr(),
		"dashboard", dashboard,
	)
}

// unsubscribeClient removes a client from a dashboard's room
func (h *Hub) unsubscribeClient(client *Client, dashboard string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[dashboard]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, dashboard)
		}
	}
	client.RemoveSubscription(dashboard)

	h.logger.Debug("client unsubscribed from dashboard",
		"remote_addr", client.RemoteAddr(),
		"dashboard", dashboard,
	)
}

// GetClientCount returns the total number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetClientsInRoom returns the number of clients subscribed to a dashboard
func (h *Hub) GetClientsInRoom(dashboard string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, ok := h.rooms[dashboard]; ok {
		return len(room)
	}
	return 0
}
