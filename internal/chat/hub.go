package chat

import (
	"encoding/json"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// Envelope frames every websocket message in both directions
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound events
const (
	EventMessage     = "message"
	EventGetUsers    = "getUsers"
	EventGetMessages = "getMessages"
)

// Outbound events
const (
	EventUsers    = "users"
	EventMessages = "messages"
	EventError    = "error"
)

// PresenceUser is the public view of a connected user
type PresenceUser struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Message is one chat line between two users
type Message struct {
	From int64     `json:"from"`
	To   int64     `json:"to"`
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

type inbound struct {
	client   *Client
	envelope Envelope
}

// Hub owns all chat state: connected clients and in-memory message
// history. A single goroutine mutates the maps, so no locks are needed;
// everything reaches it through channels.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	quit       chan struct{}

	clients map[int64]*Client
	history map[[2]int64][]Message
	logger  *zap.Logger
}

// NewHub creates an idle hub; call Run to start it
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, 64),
		quit:       make(chan struct{}),
		clients:    make(map[int64]*Client),
		history:    make(map[[2]int64][]Message),
		logger:     util.GetLogger(),
	}
}

// Register hands a freshly upgraded connection to the hub
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.quit:
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

// Run processes hub events until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		case in := <-h.inbound:
			h.dispatch(in)
		case <-h.quit:
			for _, c := range h.clients {
				c.closed = true
				close(c.send)
			}
			h.clients = make(map[int64]*Client)
			util.ChatConnectedUsers.Set(0)
			return
		}
	}
}

// Stop disconnects every client and ends the run loop
func (h *Hub) Stop() {
	close(h.quit)
}

func (h *Hub) addClient(c *Client) {
	// A second connection for the same user replaces the first
	if prev, ok := h.clients[c.userID]; ok {
		prev.closed = true
		close(prev.send)
	} else {
		util.ChatConnectedUsers.Inc()
	}
	h.clients[c.userID] = c

	h.logger.Debug("Chat user connected", zap.Int64("user_id", c.userID), zap.String("role", c.role))
	h.broadcastUsers()
}

func (h *Hub) removeClient(c *Client) {
	cur, ok := h.clients[c.userID]
	if !ok || cur != c {
		return
	}
	delete(h.clients, c.userID)
	c.closed = true
	close(c.send)
	util.ChatConnectedUsers.Dec()

	h.logger.Debug("Chat user disconnected", zap.Int64("user_id", c.userID))
	h.broadcastUsers()
}

func (h *Hub) dispatch(in inbound) {
	switch in.envelope.Event {
	case EventMessage:
		h.handleMessage(in.client, in.envelope.Data)
	case EventGetUsers:
		h.sendTo(in.client, EventUsers, h.visibleUsers(in.client))
	case EventGetMessages:
		h.handleGetMessages(in.client, in.envelope.Data)
	default:
		h.sendError(in.client, "unknown event")
	}
}

func (h *Hub) handleMessage(c *Client, data json.RawMessage) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil || msg.To == 0 || msg.Text == "" {
		h.sendError(c, "malformed message")
		return
	}
	msg.From = c.userID
	msg.Time = time.Now()

	// Members may only talk to staff
	if c.role != models.RoleAdmin {
		peer, online := h.clients[msg.To]
		if !online || peer.role != models.RoleAdmin {
			h.sendError(c, "recipient unavailable")
			return
		}
	}

	key := convKey(msg.From, msg.To)
	h.history[key] = append(h.history[key], msg)

	if peer, online := h.clients[msg.To]; online {
		h.sendTo(peer, EventMessage, msg)
	}
	h.sendTo(c, EventMessage, msg)
}

func (h *Hub) handleGetMessages(c *Client, data json.RawMessage) {
	var req struct {
		With int64 `json:"with"`
	}
	if err := json.Unmarshal(data, &req); err != nil || req.With == 0 {
		h.sendError(c, "malformed request")
		return
	}
	msgs := h.history[convKey(c.userID, req.With)]
	if msgs == nil {
		msgs = []Message{}
	}
	h.sendTo(c, EventMessages, msgs)
}

// visibleUsers returns who the caller can start a conversation with:
// staff see everyone online, everyone else sees only staff.
func (h *Hub) visibleUsers(c *Client) []PresenceUser {
	users := make([]PresenceUser, 0, len(h.clients))
	for id, peer := range h.clients {
		if id == c.userID {
			continue
		}
		if c.role != models.RoleAdmin && peer.role != models.RoleAdmin {
			continue
		}
		users = append(users, PresenceUser{ID: peer.userID, Name: peer.name, Role: peer.role})
	}
	return users
}

func (h *Hub) broadcastUsers() {
	for _, c := range h.clients {
		h.sendTo(c, EventUsers, h.visibleUsers(c))
	}
}

func (h *Hub) sendTo(c *Client, event string, payload interface{}) {
	// Frames may still be queued for a client the hub already dropped
	if c.closed {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to encode chat payload", zap.Error(err))
		return
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return
	}
	select {
	case c.send <- frame:
	default:
		// Slow consumer; drop the connection rather than block the hub
		h.removeClient(c)
	}
}

func (h *Hub) sendError(c *Client, reason string) {
	h.sendTo(c, EventError, map[string]string{"reason": reason})
}

func convKey(a, b int64) [2]int64 {
	if a > b {
		a, b = b, a
	}
	return [2]int64{a, b}
}
