package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/monopoly-game/game/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outbound messages buffered per client before it is dropped.
	sendBuffer = 256
)

// Outbound event names
const (
	EventStateUpdate = "state_update"
	EventError       = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origins are enforced by the CORS layer in front of the router
		return true
	},
}

// ActionApplier applies one player action to a session
type ActionApplier interface {
	ApplyAction(ctx context.Context, sessionID string, action engine.Action) (*engine.ActionResult, error)
}

// ActionRequest is an inbound frame from a client
type ActionRequest struct {
	Action   engine.ActionKind `json:"action"`
	PlayerID string            `json:"player_id,omitempty"`
	Data     map[string]any    `json:"data,omitempty"`
}

// Message is an outbound frame
type Message struct {
	SessionID string            `json:"session_id"`
	Event     string            `json:"event"`
	PlayerID  string            `json:"player_id,omitempty"`
	Action    engine.ActionKind `json:"action,omitempty"`
	Applied   *bool             `json:"applied,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Error     string            `json:"error,omitempty"`
	GameState *engine.GameState `json:"game_state,omitempty"`
	Events    []engine.Event    `json:"events,omitempty"`
	Data      any               `json:"data,omitempty"`

	// target restricts delivery to one client
	target *Client
}

// Client is one websocket connection bound to a session and, optionally, a seat
type Client struct {
	id        string
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	playerID  string
}

// Hub maintains the set of active clients per session and fans messages out.
// The sessions map is only mutated by the Run goroutine.
type Hub struct {
	// Registered clients by session ID
	sessions map[string]map[*Client]bool
	mu       sync.RWMutex

	// Outbound messages, delivered by Run
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	done    chan struct{}
	applier ActionApplier
	logger  *zap.Logger
}

// NewHub creates a new WebSocket hub. applier may be nil for a broadcast-only hub.
func NewHub(applier ActionApplier, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		applier:    applier,
		logger:     logger,
	}
}

// Run starts the hub's event loop and returns when ctx is cancelled, after
// closing every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// ServeWS upgrades the request and attaches the connection to sessionID.
// playerID is the default actor for inbound actions that omit one.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID, playerID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		id:        uuid.NewString(),
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		sessionID: sessionID,
		playerID:  playerID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// BroadcastToSession sends a state snapshot to all clients in a session
func (h *Hub) BroadcastToSession(sessionID string, state *engine.GameState) {
	h.enqueue(&Message{
		SessionID: sessionID,
		Event:     EventStateUpdate,
		GameState: state,
	})
}

// BroadcastResult sends an action result, applied or not, to all clients in a session
func (h *Hub) BroadcastResult(sessionID string, action engine.Action, result *engine.ActionResult) {
	h.enqueue(resultMessage(sessionID, action, result))
}

// BroadcastEvent sends a custom event to all clients in a session
func (h *Hub) BroadcastEvent(sessionID string, event string, data any) {
	h.enqueue(&Message{
		SessionID: sessionID,
		Event:     event,
		Data:      data,
	})
}

// ClientCount returns the number of clients attached to a session
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionKey(sessionID)])
}

// sessionKey folds ids the same way the session manager does
func sessionKey(sessionID string) string {
	return strings.ToLower(sessionID)
}

func resultMessage(sessionID string, action engine.Action, result *engine.ActionResult) *Message {
	applied := result.Applied
	return &Message{
		SessionID: sessionID,
		Event:     EventStateUpdate,
		PlayerID:  action.PlayerID,
		Action:    action.Type,
		Applied:   &applied,
		Reason:    result.Reason,
		GameState: result.State,
		Events:    result.Events,
	}
}

// enqueue hands a message to Run; it is dropped once the hub has stopped
func (h *Hub) enqueue(message *Message) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// registerClient adds a client to a session
func (h *Hub) registerClient(client *Client) {
	key := sessionKey(client.sessionID)
	h.mu.Lock()
	if h.sessions[key] == nil {
		h.sessions[key] = make(map[*Client]bool)
	}
	h.sessions[key][client] = true
	total := len(h.sessions[key])
	h.mu.Unlock()

	h.logger.Debug("client registered",
		zap.String("session", client.sessionID),
		zap.String("client", client.id),
		zap.Int("clients", total))
}

// unregisterClient removes a client from a session and closes its send queue
func (h *Hub) unregisterClient(client *Client) {
	key := sessionKey(client.sessionID)
	h.mu.Lock()
	clients, ok := h.sessions[key]
	if !ok || !clients[client] {
		h.mu.Unlock()
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.sessions, key)
	}
	remaining := len(clients)
	h.mu.Unlock()

	h.logger.Debug("client unregistered",
		zap.String("session", client.sessionID),
		zap.String("client", client.id),
		zap.Int("clients", remaining))
}

// deliver encodes a message once and queues it on every matching client.
// Clients whose queue is full are dropped.
func (h *Hub) deliver(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", zap.Error(err))
		return
	}

	h.mu.RLock()
	var stalled []*Client
	for client := range h.sessions[sessionKey(message.SessionID)] {
		if message.target != nil && message.target != client {
			continue
		}
		select {
		case client.send <- data:
		default:
			stalled = append(stalled, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range stalled {
		h.logger.Warn("dropping slow websocket client",
			zap.String("session", client.sessionID),
			zap.String("client", client.id))
		h.unregisterClient(client)
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for sessionID, clients := range h.sessions {
		for client := range clients {
			close(client.send)
		}
		delete(h.sessions, sessionID)
	}
}

// handleFrame applies an inbound action and broadcasts the outcome. Decoding
// and lookup failures are reported to the sender only.
func (c *Client) handleFrame(raw []byte) {
	var req ActionRequest
	if err := json.Unmarshal(raw, &req); err != nil || req.Action == "" {
		c.reply("invalid action frame")
		return
	}
	if c.hub.applier == nil {
		c.reply("actions are not accepted on this connection")
		return
	}

	action := engine.Action{
		Type:     req.Action,
		PlayerID: req.PlayerID,
		Data:     req.Data,
	}
	if action.PlayerID == "" {
		action.PlayerID = c.playerID
	}

	result, err := c.hub.applier.ApplyAction(context.Background(), c.sessionID, action)
	if err != nil {
		c.reply(err.Error())
		return
	}
	c.hub.BroadcastResult(c.sessionID, action, result)
}

func (c *Client) reply(errMsg string) {
	c.hub.enqueue(&Message{
		SessionID: c.sessionID,
		Event:     EventError,
		Error:     errMsg,
		target:    c,
	})
}

// readPump pumps inbound frames to the applier until the connection closes
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read failed", zap.String("client", c.id), zap.Error(err))
			}
			return
		}
		c.handleFrame(raw)
	}
}

// writePump pumps messages from the hub to the WebSocket connection, one frame per message
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
