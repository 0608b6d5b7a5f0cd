package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Client represents a websocket connection and its channel subscriptions.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	userID   int
	channels map[string]bool
	closed   bool // guarded by hub.mu
}

// Hub manages channel subscriptions and broadcasts. Clients hold one
// socket and subscribe to any number of channels they are allowed to join.
type Hub struct {
	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription

	mu sync.RWMutex
	// Map of channel name to set of subscribed clients
	clientsByChannel map[string]map[*Client]bool
}

type subscription struct {
	client  *Client
	channel string
}

// Event is the wire shape of every broadcast frame.
type Event struct {
	Channel string      `json:"channel"`
	Event   string      `json:"event"`
	Data    interface{} `json:"data"`
}

// NewHub creates and starts a new Hub loop.
func NewHub() *Hub {
	h := &Hub{
		register:         make(chan *Client),
		unregister:       make(chan *Client),
		subscribe:        make(chan subscription),
		unsubscribe:      make(chan subscription),
		clientsByChannel: make(map[string]map[*Client]bool),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			_ = c // connection-level registration happens per channel
		case c := <-h.unregister:
			h.mu.Lock()
			for name := range c.channels {
				h.dropLocked(name, c)
			}
			if !c.closed {
				c.closed = true
				close(c.send)
			}
			h.mu.Unlock()
		case s := <-h.subscribe:
			h.mu.Lock()
			set, ok := h.clientsByChannel[s.channel]
			if !ok {
				set = make(map[*Client]bool)
				h.clientsByChannel[s.channel] = set
			}
			set[s.client] = true
			s.client.channels[s.channel] = true
			h.mu.Unlock()
		case s := <-h.unsubscribe:
			h.mu.Lock()
			h.dropLocked(s.channel, s.client)
			delete(s.client.channels, s.channel)
			h.mu.Unlock()
		}
	}
}

func (h *Hub) dropLocked(channel string, c *Client) {
	if set, ok := h.clientsByChannel[channel]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clientsByChannel, channel)
		}
	}
}

// Broadcast delivers an event to every subscriber of a channel. Slow
// clients are dropped rather than allowed to block the fan-out.
func (h *Hub) Broadcast(channel, event string, data interface{}) error {
	if h == nil {
		return nil
	}
	payload, err := json.Marshal(Event{Channel: channel, Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("marshal broadcast event: %w", err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clientsByChannel[channel]
	if !ok {
		return nil
	}
	for c := range set {
		select {
		case c.send <- payload:
		default:
			// Backpressure: drop and disconnect slow clients
			if !c.closed {
				c.closed = true
				close(c.send)
			}
			delete(set, c)
			delete(c.channels, channel)
		}
	}
	if len(set) == 0 {
		delete(h.clientsByChannel, channel)
	}
	return nil
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// clientFrame is what subscribers send over the socket.
type clientFrame struct {
	Action  string `json:"action"` // subscribe | unsubscribe
	Channel string `json:"channel"`
}

// ServeWS upgrades the connection for an authenticated user and processes
// subscribe/unsubscribe frames, enforcing the channel authorization
// contract before any join. Caller must authenticate and set userId.
func ServeWS(h *Hub, membership Membership) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt("userId")
		if userID == 0 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		serve(h, c, userID, membership, nil)
	}
}

// ServeSessionWS upgrades an anonymous connection scoped to one session
// channel. The session identifier itself is the access secret, so there is
// no subscriber-identity check.
func ServeSessionWS(h *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")
		if sessionID == "" {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		auto := SessionChannel(sessionID)
		serve(h, c, 0, nil, &auto)
	}
}

func serve(h *Hub, c *gin.Context, userID int, membership Membership, autoChannel *string) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "err", err)
		return
	}
	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 256),
		userID:   userID,
		channels: make(map[string]bool),
	}
	h.register <- client
	if autoChannel != nil {
		h.subscribe <- subscription{client: client, channel: *autoChannel}
	}

	// Reader goroutine: subscription frames only
	go func() {
		defer func() {
			h.unregister <- client
			_ = conn.Close()
		}()
		conn.SetReadLimit(1024)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		})
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var frame clientFrame
			if err := json.Unmarshal(msg, &frame); err != nil {
				continue
			}
			switch frame.Action {
			case "subscribe":
				ch := ParseChannel(frame.Channel)
				if !CanJoin(client.userID, ch, membership) {
					continue
				}
				h.subscribe <- subscription{client: client, channel: frame.Channel}
			case "unsubscribe":
				h.unsubscribe <- subscription{client: client, channel: frame.Channel}
			}
		}
	}()

	// Writer loop (same goroutine)
	for msg := range client.send {
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}
