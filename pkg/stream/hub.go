package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/waypoint/pkg/router"
)

// MessageType is the type of a hub message.
type MessageType string

const (
	MessageState  MessageType = "state"
	MessageCancel MessageType = "cancel"
	MessageError  MessageType = "error"
)

// Message is sent to websocket clients.
type Message struct {
	Type  MessageType   `json:"type"`
	To    *router.State `json:"to,omitempty"`
	From  *router.State `json:"from,omitempty"`
	Code  router.Code   `json:"code,omitempty"`
	Error string        `json:"error,omitempty"`
}

// client serializes writes to one connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub connects websocket clients to a router. Clients receive a state message on
// connect and after every committed transition, and cancel and error messages for
// failed transitions. Text frames from clients are applied as requests; a failing
// request is answered with an error message to that client only.
type Hub struct {
	router   *router.Router
	sink     *Sink
	logger   *slog.Logger
	clients  map[*client]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader

	ids hubListeners
}

type hubListeners struct {
	state, cancel, errs router.ListenerID
}

// NewHub creates a hub and attaches it to r. A nil logger means slog.Default().
func NewHub(r *router.Router, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		router:  r,
		sink:    NewSink(r, logger),
		logger:  logger,
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	r.Use(h)
	return h
}

// Attach registers the hub's listeners on r.
func (h *Hub) Attach(r *router.Router) {
	h.ids = hubListeners{
		state: r.AddListener(func(to, from *router.State) {
			h.Broadcast(Message{Type: MessageState, To: to, From: from})
		}),
		cancel: r.OnTransitionCancel(func(to, from *router.State) {
			h.Broadcast(Message{Type: MessageCancel, To: to, From: from})
		}),
		errs: r.OnTransitionError(func(to, from *router.State, err error) {
			h.Broadcast(Message{Type: MessageError, To: to, From: from, Code: router.CodeOf(err), Error: err.Error()})
		}),
	}
}

// ServeHTTP upgrades the connection and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	if state := h.router.State(); state != nil {
		h.send(c, Message{Type: MessageState, To: state})
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		req, err := ParseRequest(data)
		if err == nil {
			err = h.sink.Apply(req)
		}
		if err != nil {
			h.logger.Warn("websocket request failed", "error", err)
			h.send(c, Message{Type: MessageError, Error: err.Error()})
		}
	}

	h.remove(c)
}

// Broadcast sends a message to all clients. Clients that cannot be written to are
// dropped.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("encode hub message", "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(data); err != nil {
			h.remove(c)
		}
	}
}

func (h *Hub) send(c *client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := c.write(data); err != nil {
		h.remove(c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close removes the hub's listeners and closes all client connections.
func (h *Hub) Close() {
	h.router.RemoveListener(h.ids.state)
	h.router.OffTransitionCancel(h.ids.cancel)
	h.router.OffTransitionError(h.ids.errs)

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
		delete(h.clients, c)
	}
}
