package websocket

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"baton/types"
)

// Hub interface defines the methods for managing WebSocket connections
type Hub interface {
	Run()
	BroadcastEvent(event types.EventMessage)
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
}

// hub maintains the set of active clients and fans events out to them by
// topic
type hub struct {
	// Registered clients mapped by topic
	clients map[string]map[*Client]bool

	// Broadcast channel for events heading to a topic's clients. Buffered
	// so producers that burst, like the scan worker's per-slot progress,
	// do not lose events while the loop is mid-dispatch.
	broadcast chan types.EventMessage

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mu  sync.RWMutex
	log *logrus.Entry
}

// NewHub creates a new WebSocket hub
func NewHub() Hub {
	return &hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan types.EventMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        logrus.WithField("component", "hub"),
	}
}

// Run starts the hub's main event loop
func (h *hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.topic] == nil {
				h.clients[client.topic] = make(map[*Client]bool)
			}
			h.clients[client.topic][client] = true
			h.mu.Unlock()
			h.log.Infof("client %s subscribed to %s", client.id, client.topic)

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.topic]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.topic)
					}
				}
			}
			h.mu.Unlock()
			h.log.Infof("client %s left %s", client.id, client.topic)

		case event := <-h.broadcast:
			h.mu.RLock()
			// Send to the event's own topic
			if clients, ok := h.clients[event.Topic]; ok {
				for client := range clients {
					select {
					case client.send <- event:
					default:
						close(client.send)
						delete(clients, client)
					}
				}
				if len(clients) == 0 {
					delete(h.clients, event.Topic)
				}
			}

			// Also send to "all" subscribers
			if allClients, ok := h.clients[types.TopicAll]; ok {
				for client := range allClients {
					select {
					case client.send <- event:
					default:
						close(client.send)
						delete(allClients, client)
					}
				}
				if len(allClients) == 0 {
					delete(h.clients, types.TopicAll)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastEvent hands an event to the hub loop, stamping it on the way in.
// Events are dropped rather than blocking the producer once the backlog is
// full; beat streams tolerate gaps.
func (h *hub) BroadcastEvent(event types.EventMessage) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case h.broadcast <- event:
	default:
		h.log.Warnf("broadcast channel full, dropping %s event", event.Topic)
	}
}

// RegisterClient registers a new client with the hub
func (h *hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient unregisters a client from the hub
func (h *hub) UnregisterClient(client *Client) {
	h.unregister <- client
}
