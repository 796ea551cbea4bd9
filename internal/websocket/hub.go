package notifyws

import (
	"context"
	"encoding/json"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/saeid-a/CounselPracticeBack/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Hub tracks the open browser connections of each user. All map access happens on
// the Run goroutine.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	push       chan *envelope
	done       chan struct{}
}

type envelope struct {
	userID  string
	payload []byte
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

// Message is the frame written to browsers.
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp string          `json:"timestamp"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		push:       make(chan *envelope, 256),
		done:       make(chan struct{}),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for userID, set := range h.clients {
				for client := range set {
					close(client.send)
				}
				delete(h.clients, userID)
			}
			return
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			h.remove(client)
		case item := <-h.push:
			h.sendToUser(item.userID, item.payload)
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// PushToUser queues a notification frame for every open connection of the user.
// true only means the frame was queued; a user with no open connection gets nothing.
// It reports false when the queue is full and the frame was dropped.
func (h *Hub) PushToUser(userID string, messageType string, data any) bool {
	encoded, err := encodeMessage(messageType, data)
	if err != nil {
		logger.Logger.WithError(err).Warn("notification hub encode message")
		return false
	}
	select {
	case h.push <- &envelope{userID: userID, payload: encoded}:
		return true
	default:
		return false
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, exists := set[client]; exists {
		delete(set, client)
		close(client.send)
	}
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
}

func (h *Hub) sendToUser(userID string, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

func encodeMessage(messageType string, data any) ([]byte, error) {
	message := Message{
		Type:      messageType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		message.Data = raw
	}
	return json.Marshal(message)
}

// ReadPump keeps the connection alive and answers "ping" frames. Browsers never send
// notifications here; anything else gets an error frame.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			writeError(c, "invalid message payload")
			continue
		}
		if incoming.Type != "ping" {
			writeError(c, "unsupported message type")
			continue
		}
		if encoded, err := encodeMessage("pong", nil); err == nil {
			c.trySend(encoded)
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) trySend(payload []byte) {
	defer func() {
		// send may already be closed by the hub.
		_ = recover()
	}()
	select {
	case c.send <- payload:
	default:
	}
}

func writeError(client *Client, message string) {
	payload, err := json.Marshal(Message{
		Type:      "error",
		Error:     message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	client.trySend(payload)
}
