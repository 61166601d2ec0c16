// Package live pushes new notifications to the websocket connections of their account.
package live

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/tasktrack-dev/tasktrack/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type Event struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// client serializes writes; gorilla connections allow one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func (c *client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

type Hub struct {
	mu       sync.RWMutex
	clients  map[uint]map[*client]struct{}
	upgrader websocket.Upgrader
}

func NewHub(allowedOrigins []string) *Hub {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return &Hub{
		clients: make(map[uint]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Publish sends a notification event to every open connection of accountID.
// Connections that fail to receive it are dropped.
func (h *Hub) Publish(accountID uint, payload any) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients[accountID]))
	for c := range h.clients[accountID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(Event{Type: "notification", Data: payload}); err != nil {
			logging.Logger.WithField("account_id", accountID).Warnf("failed to push notification: %v", err)
			h.remove(accountID, c)
			c.conn.Close()
		}
	}
}

func (h *Hub) Connections(accountID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[accountID])
}

func (h *Hub) add(accountID uint, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[accountID] == nil {
		h.clients[accountID] = make(map[*client]struct{})
	}
	h.clients[accountID][c] = struct{}{}
}

func (h *Hub) remove(accountID uint, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[accountID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.clients, accountID)
		}
	}
}

// Serve upgrades the request and blocks until the connection closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, accountID uint) {
	log := logging.Logger.WithFields(logrus.Fields{"account_id": accountID})

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn}

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Warnf("failed to set initial read deadline: %v", err)
		conn.Close()
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	h.add(accountID, c)
	defer func() {
		h.remove(accountID, c)
		conn.Close()
		log.Debug("websocket connection closed")
	}()

	if err := c.write(Event{Type: "connected", Message: "WebSocket connection established"}); err != nil {
		log.Warnf("failed to send welcome message: %v", err)
		return
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := c.ping(); err != nil {
					log.Debugf("ping failed: %v", err)
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("websocket error: %v", err)
			}
			return
		}
	}
}
