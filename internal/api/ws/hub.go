package ws

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/wonny/prism/internal/contracts"
	"github.com/wonny/prism/pkg/logger"
	"github.com/wonny/prism/pkg/metrics"
)

// eventConnected greets a client right after the upgrade
const eventConnected = "connected"

// Hub broadcasts pipeline progress events to connected WebSocket
// clients. It implements contracts.ProgressSink, so the orchestrator
// can publish straight into it.
type Hub struct {
	logger   *logger.Logger
	upgrader websocket.Upgrader

	register   chan *client
	unregister chan *client
	broadcast  chan contracts.ProgressEvent
	done       chan struct{}

	clients map[*client]bool
}

// NewHub creates a new hub. Call Run in a goroutine before serving.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger: log.Component("ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan contracts.ProgressEvent, 64),
		done:       make(chan struct{}),
		clients:    make(map[*client]bool),
	}
}

// Run processes registrations and broadcasts until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			metrics.WebSocketConnections.Inc()
			h.logger.WithField("clients", len(h.clients)).Debug("Client connected")

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.logger.WithField("clients", len(h.clients)).Debug("Client disconnected")
			}

		case event := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- event:
				default:
					// slow consumer, disconnect it
					h.drop(c)
				}
			}

		case <-h.done:
			for c := range h.clients {
				h.drop(c)
			}
			return
		}
	}
}

// Stop disconnects all clients and terminates Run
func (h *Hub) Stop() {
	close(h.done)
}

// Publish implements contracts.ProgressSink. It never blocks; events
// are dropped when the broadcast buffer is full.
func (h *Hub) Publish(event contracts.ProgressEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.WithField("type", event.Type).Debug("Broadcast buffer full, dropping event")
	}
}

// ServeWS upgrades an HTTP request to a WebSocket connection
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan contracts.ProgressEvent, 16),
	}
	c.send <- contracts.ProgressEvent{Type: eventConnected}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// drop removes a client from the set. Only Run may call this.
func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	metrics.WebSocketConnections.Dec()
}
