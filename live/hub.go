// Package live pushes cashier views to connected websocket clients.
package live

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yeremiapane/siparist/utils"
)

// Event types
const (
	EventOrders       = "orders"
	EventPasswords    = "passwords"
	EventBillRequests = "bill_requests"
	EventArchives     = "archives"
	EventNewOrder     = "new_order"
	EventNewBill      = "new_bill_request"
	EventDailyReset   = "daily_reset"
)

const writeWait = 5 * time.Second

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type client struct {
	conn *websocket.Conn
	role string
	mu   sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub menampung semua koneksi kasir. State events are remembered and replayed
// to every client that connects later, so a fresh screen is never empty.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*client
	state   map[string][]byte
	order   []string
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		state:   make(map[string][]byte),
	}
}

// Register adds conn and sends it the current state. Broadcasts wait until
// the replay is written so the client never sees state go backwards.
func (h *Hub) Register(conn *websocket.Conn, role string) {
	c := &client{conn: conn, role: role}
	c.mu.Lock()

	h.mu.Lock()
	h.clients[conn] = c
	replay := make([][]byte, 0, len(h.order))
	for _, event := range h.order {
		replay = append(replay, h.state[event])
	}
	h.mu.Unlock()

	var err error
	for _, data := range replay {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err = conn.WriteMessage(websocket.TextMessage, data); err != nil {
			break
		}
	}
	c.mu.Unlock()

	if err != nil {
		utils.ErrorLogger.Printf("live: replay to %s client failed: %v", role, err)
		h.Unregister(conn)
		return
	}
	utils.InfoLogger.WithField("role", role).Info("live client connected")
}

// Unregister removes conn and closes it.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		_ = conn.Close()
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// SetState broadcasts a state event and remembers it for later clients.
func (h *Hub) SetState(event string, data interface{}) {
	payload, ok := encode(event, data)
	if !ok {
		return
	}
	h.mu.Lock()
	if _, seen := h.state[event]; !seen {
		h.order = append(h.order, event)
	}
	h.state[event] = payload
	h.mu.Unlock()
	h.send(payload)
}

// Broadcast sends a one-off event to the clients connected right now.
func (h *Hub) Broadcast(event string, data interface{}) {
	payload, ok := encode(event, data)
	if !ok {
		return
	}
	h.send(payload)
}

func encode(event string, data interface{}) ([]byte, bool) {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		utils.ErrorLogger.Printf("live: marshal %s failed: %v", event, err)
		return nil, false
	}
	return payload, true
}

func (h *Hub) send(payload []byte) {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		if err := c.write(payload); err != nil {
			utils.ErrorLogger.Printf("live: send to %s client failed: %v", c.role, err)
			h.Unregister(c.conn)
		}
	}
}
