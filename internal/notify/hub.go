package notify

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event names pushed to connected clients.
const (
	EventAssignTask    = "assigntask"
	EventUpdateTask    = "updatetask"
	EventDeleteTask    = "deletetask"
	EventNotifyComment = "notifycomment"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 16
)

// Envelope is the wire frame for every push.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub fans events out to websocket clients. Delivery is fire and forget:
// a slow or gone client is dropped, never waited on.
type Hub struct {
	logger  *slog.Logger
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// Client is one registered websocket connection owned by a user. A user
// may hold several connections, one per device.
type Client struct {
	UserID uuid.UUID
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte

	mu     sync.Mutex
	closed bool
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{logger: logger, clients: map[*Client]struct{}{}}
}

// Register adopts an upgraded connection and starts its pumps. The read
// pump only watches for the peer closing.
func (h *Hub) Register(userID uuid.UUID, conn *websocket.Conn) *Client {
	c := &Client{UserID: userID, hub: h, conn: conn, send: make(chan []byte, sendBufferSize)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	go c.writePump()
	go c.readPump()
	h.logger.Info("websocket client registered", "user_id", userID)
	return c
}

func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.close()
		h.logger.Info("websocket client dropped", "user_id", c.UserID)
	}
}

// BroadcastAll pushes an event to every connected client.
func (h *Hub) BroadcastAll(event string, data any) {
	h.push(event, data, func(*Client) bool { return true })
}

// SendToUser pushes an event to every connection owned by one user.
func (h *Hub) SendToUser(userID uuid.UUID, event string, data any) {
	h.push(event, data, func(c *Client) bool { return c.UserID == userID })
}

func (h *Hub) push(event string, data any, match func(*Client) bool) {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Error("marshal push payload", "event", event, "error", err)
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if match(c) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range targets {
		if !c.enqueue(payload) {
			// Buffer full means the client stopped reading.
			h.drop(c)
		}
	}
}

// ClientCount reports the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (c *Client) writePump() {
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			c.hub.drop(c)
			return
		}
	}
}

func (c *Client) readPump() {
	defer c.hub.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	c.conn.Close()
}
