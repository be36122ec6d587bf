package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"invoicehub/internal/logger"
	"invoicehub/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Message is the envelope pushed to browsers
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type ownerMessage struct {
	ownerID uuid.UUID
	payload []byte
}

// Client represents a single connected WebSocket session of one owner
type Client struct {
	Hub     *Hub
	OwnerID uuid.UUID
	Conn    *websocket.Conn
	Send    chan []byte
}

// Hub fans out owner-scoped events to that owner's connected sessions only
type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	broadcast  chan ownerMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub initializes a new WS Hub instance
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan ownerMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID]map[*Client]bool),
	}
}

// Run starts the dispatch loop. It returns after Stop.
func (h *Hub) Run() {
	log := logger.WithComponent("websocket")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.OwnerID] == nil {
				h.clients[client.OwnerID] = make(map[*Client]bool)
			}
			h.clients[client.OwnerID][client] = true
			h.mu.Unlock()
			log.Debug().Str("owner_id", client.OwnerID.String()).Msg("websocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			log.Debug().Str("owner_id", client.OwnerID.String()).Msg("websocket client disconnected")
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[msg.ownerID] {
				select {
				case client.Send <- msg.payload:
				default:
					// slow consumer
					h.remove(client)
				}
			}
			h.mu.Unlock()
		case <-h.done:
			h.mu.Lock()
			for _, set := range h.clients {
				for client := range set {
					h.remove(client)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop terminates Run and closes every session.
func (h *Hub) Stop() {
	close(h.done)
}

// remove must be called with mu held
func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.OwnerID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.Send)
	if len(set) == 0 {
		delete(h.clients, client.OwnerID)
	}
}

// Publish queues an event for every session of ownerID. It never blocks the caller.
func (h *Hub) Publish(ownerID uuid.UUID, event string, data interface{}) {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		log := logger.WithComponent("websocket")
		log.Error().Err(err).Str("event", event).Msg("failed to encode websocket event")
		return
	}
	select {
	case h.broadcast <- ownerMessage{ownerID: ownerID, payload: payload}:
	default:
		log := logger.WithComponent("websocket")
		log.Warn().Str("event", event).Msg("websocket broadcast queue full, event dropped")
	}
}

// Connected returns the number of open sessions for ownerID.
func (h *Hub) Connected(ownerID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[ownerID])
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only drains control frames; clients never send events.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		_ = c.Conn.Close()
	}()
	c.Conn.SetReadLimit(512)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log := logger.WithComponent("websocket")
				log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
	}
}

// ServeWs authenticates the token query param and attaches the connection to its owner.
func ServeWs(hub *Hub, c *gin.Context, secret []byte, allowedOrigins []string) {
	log := logger.WithComponent("websocket")

	tokenString := c.Query("token")
	if tokenString == "" {
		log.Warn().Msg("websocket connection rejected: missing token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	ownerID, err := middleware.ParseOwnerToken(tokenString, secret)
	if err != nil {
		log.Warn().Err(err).Msg("websocket connection rejected: invalid token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	up := upgrader
	up.CheckOrigin = originChecker(allowedOrigins)
	conn, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	client := &Client{Hub: hub, OwnerID: ownerID, Conn: conn, Send: make(chan []byte, 256)}
	select {
	case hub.register <- client:
	case <-hub.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
