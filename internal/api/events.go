package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"organtour/pkg/event"
)

const (
	clientBuffer = 32
	writeWait    = 5 * time.Second
	pingInterval = 30 * time.Second
)

// EventHub streams bus events to websocket clients on GET /api/events. Each client
// first receives a hello message carrying its id. A client that falls behind by more
// than its buffer is disconnected rather than slowing down the publisher.
type EventHub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*hubClient
	closed  bool
	wg      sync.WaitGroup

	unsubscribe func()
}

type hubClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// HelloMessage is the first frame sent to a client.
type HelloMessage struct {
	Type   string `json:"type"`
	Client string `json:"client"`
}

// NewEventHub subscribes a hub to every event on bus.
func NewEventHub(bus *event.Bus) *EventHub {
	h := &EventHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The exhibit API is served on the local network to the kiosk UI.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*hubClient),
	}
	h.unsubscribe = bus.Subscribe(h.broadcast)
	return h
}

func (h *EventHub) broadcast(ev event.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		slog.Error("EventHub: failed to encode event", "type", ev.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slog.Warn("EventHub: client too slow, disconnecting", "client", c.id)
			h.removeLocked(c)
		}
	}
}

// ServeHTTP upgrades the request and blocks until the client goes away.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("EventHub: upgrade failed", "error", err)
		return
	}

	c := &hubClient{id: uuid.NewString(), conn: conn, send: make(chan []byte, clientBuffer)}
	hello, _ := json.Marshal(HelloMessage{Type: "hello", Client: c.id})
	c.send <- hello

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c.id] = c
	h.wg.Add(2)
	h.mu.Unlock()

	slog.Debug("EventHub: client connected", "client", c.id, "remote", r.RemoteAddr)
	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop discards client frames; it exists to notice disconnects.
func (h *EventHub) readLoop(c *hubClient) {
	defer h.wg.Done()
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			slog.Debug("EventHub: client disconnected", "client", c.id, "error", err)
			return
		}
	}
}

func (h *EventHub) writeLoop(c *hubClient) {
	defer h.wg.Done()
	defer c.conn.Close()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(c)
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

func (h *EventHub) remove(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

// removeLocked closes c's queue once; the writer then sends a close frame and exits.
func (h *EventHub) removeLocked(c *hubClient) {
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	close(c.send)
}

// Clients returns the number of connected clients.
func (h *EventHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client, stops listening to the bus and waits for the client
// goroutines to exit.
func (h *EventHub) Close() {
	h.unsubscribe()

	h.mu.Lock()
	h.closed = true
	for _, c := range h.clients {
		h.removeLocked(c)
	}
	h.mu.Unlock()

	h.wg.Wait()
}
