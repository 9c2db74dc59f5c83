package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"aura/logger"
	"aura/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	maxMessageSize = 512
	sendBuffer     = 256
)

// Manager fans events out to the live connections of each user. A user may
// hold several connections (tabs, devices).
type Manager struct {
	clients    map[string]map[*Client]bool
	deliver    chan delivery
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	origins    map[string]bool
}

type Client struct {
	conn    *websocket.Conn
	userID  string
	send    chan []byte
	pong    chan struct{}
	manager *Manager
}

type delivery struct {
	userID  string
	message []byte
}

type envelope struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

// NewManager accepts browser connections from the given origins and from the
// API's own host.
func NewManager(origins ...string) *Manager {
	m := &Manager{
		clients:    make(map[string]map[*Client]bool),
		deliver:    make(chan delivery, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		origins:    make(map[string]bool, len(origins)),
	}
	for _, o := range origins {
		m.origins[strings.TrimSuffix(o, "/")] = true
	}
	m.upgrader = websocket.Upgrader{
		CheckOrigin:     m.checkOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	return m
}

// Start runs the hub until ctx is cancelled, then closes every connection.
func (m *Manager) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(m.done)
			m.mu.Lock()
			for userID, conns := range m.clients {
				for client := range conns {
					close(client.send)
				}
				delete(m.clients, userID)
			}
			m.mu.Unlock()
			return

		case client := <-m.register:
			m.mu.Lock()
			if m.clients[client.userID] == nil {
				m.clients[client.userID] = make(map[*Client]bool)
			}
			m.clients[client.userID][client] = true
			m.mu.Unlock()
			logger.Log.WithField("userId", client.userID).Debug("websocket client registered")

		case client := <-m.unregister:
			m.remove(client)
			logger.Log.WithField("userId", client.userID).Debug("websocket client unregistered")

		case d := <-m.deliver:
			m.mu.RLock()
			var stale []*Client
			for client := range m.clients[d.userID] {
				select {
				case client.send <- d.message:
				default:
					stale = append(stale, client)
				}
			}
			m.mu.RUnlock()
			for _, client := range stale {
				m.remove(client)
			}
		}
	}
}

func (m *Manager) remove(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conns, ok := m.clients[client.userID]
	if !ok || !conns[client] {
		return
	}
	delete(conns, client)
	close(client.send)
	if len(conns) == 0 {
		delete(m.clients, client.userID)
	}
}

// Notify queues an event for every connection of userID. Events for users
// without a live connection are dropped.
func (m *Manager) Notify(userID, event string, payload map[string]interface{}) {
	msg, err := json.Marshal(envelope{Type: event, Payload: payload})
	if err != nil {
		logger.Log.WithError(err).Error("marshal websocket event")
		return
	}

	select {
	case m.deliver <- delivery{userID: userID, message: msg}:
	default:
		logger.Log.WithFields(logrus.Fields{"userId": userID, "event": event}).Warn("websocket queue full, event dropped")
	}
}

// ConnectedUsers is the number of users with at least one live connection.
func (m *Manager) ConnectedUsers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// checkOrigin lets through clients that send no Origin (non-browser), the
// configured CORS origins and same-host pages.
func (m *Manager) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if m.origins[strings.TrimSuffix(origin, "/")] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	logger.Log.WithField("origin", origin).Warn("websocket origin rejected")
	return false
}

// Handler upgrades an authenticated request. It must run behind
// middleware.JWTAuthMiddleware so the caller's id is in the context.
func (m *Manager) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middleware.ContextUserID)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		conn, err := m.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Log.WithError(err).Warn("websocket upgrade failed")
			return
		}

		client := &Client{
			conn:    conn,
			userID:  userID,
			send:    make(chan []byte, sendBuffer),
			pong:    make(chan struct{}, 1),
			manager: m,
		}
		client.enqueue(envelope{
			Type: "connected",
			Payload: map[string]interface{}{
				"userId": userID,
				"time":   time.Now().Unix(),
			},
		})

		select {
		case m.register <- client:
		case <-m.done:
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}

// enqueue must only be called before the client is registered; afterwards
// the hub owns send and may close it.
func (c *Client) enqueue(e envelope) {
	msg, err := json.Marshal(e)
	if err != nil {
		logger.Log.WithError(err).Error("marshal websocket event")
		return
	}
	c.send <- msg
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.manager.unregister <- c:
		case <-c.manager.done:
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
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.WithError(err).WithField("userId", c.userID).Warn("websocket read error")
			}
			break
		}

		var in envelope
		if err := json.Unmarshal(message, &in); err != nil {
			continue
		}

		// clients only ever talk to keep the connection alive
		if in.Type == "ping" {
			select {
			case c.pong <- struct{}{}:
			default:
			}
		}
	}
}

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
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-c.pong:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(envelope{Type: "pong", Payload: map[string]interface{}{"time": time.Now().Unix()}}); err != nil {
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
