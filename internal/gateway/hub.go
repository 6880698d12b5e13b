package gateway

import (
	"log"
	"sync"

	"quotefeed/internal/feed"
	"quotefeed/internal/quotes"
	"quotefeed/internal/store"

	"github.com/gorilla/websocket"
)

// Hub manages WebSocket clients. Each client holds at most one live
// subscription on the shared broadcast topic; the hub only tracks
// connections so batches can be fanned out and shutdown is clean.
type Hub struct {
	store    *store.Store
	topic    *feed.Topic
	resolver *quotes.Resolver

	mu      sync.RWMutex
	clients map[*Client]bool

	// OnClientCount is called with the new client count on connect and
	// disconnect (metrics hook).
	OnClientCount func(n int)
}

// NewHub creates a Hub over the given store, topic and resolver.
func NewHub(st *store.Store, topic *feed.Topic, resolver *quotes.Resolver) *Hub {
	return &Hub{
		store:    st,
		topic:    topic,
		resolver: resolver,
		clients:  make(map[*Client]bool),
	}
}

// HandleWSRequest registers an upgraded WebSocket connection and starts its
// read/write pumps.
func (h *Hub) HandleWSRequest(conn *websocket.Conn) {
	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}

	conn.EnableWriteCompression(true)

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	log.Printf("[gateway] ws client connected (%d total)", count)
	if h.OnClientCount != nil {
		h.OnClientCount(count)
	}

	go client.writePump()
	go client.readPump()
}

// RemoveClient removes a client from the hub and closes its send channel.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	close(c.send)
	h.mu.Unlock()

	if h.OnClientCount != nil {
		h.OnClientCount(count)
	}
}

// trySend queues a message for a client without blocking. A full send buffer
// drops the message; the live feed prefers staleness over backpressure.
// Returns false if the client is gone or its buffer was full.
func (h *Hub) trySend(c *Client, msg []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[c] {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every client connection so the pumps unwind.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c.conn)
	}
	h.mu.RUnlock()
	for _, conn := range conns {
		conn.Close()
	}
}
