package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	"barterhub-server/internal/chat"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origin checks handled by the CORS layer
	},
}

// Hub fans conversation change events out to two kinds of consumers:
// websocket clients that joined a conversation topic, and in-process
// subscriptions handed to chat sessions. Topics look like "trade:42" or
// "support:7".
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client

	mu   sync.RWMutex
	subs map[string]map[*subscription]bool
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subs:       make(map[string]map[*subscription]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logrus.WithField("user_id", client.userID).Debug("WebSocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			logrus.WithField("user_id", client.userID).Debug("WebSocket client disconnected")
		}
	}
}

type subscription struct {
	hub   *Hub
	topic string
	ch    chan chat.ChangeEvent
	once  sync.Once
}

func (s *subscription) Events() <-chan chat.ChangeEvent { return s.ch }

func (s *subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		if set, ok := s.hub.subs[s.topic]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.hub.subs, s.topic)
			}
		}
		s.hub.mu.Unlock()
		close(s.ch)
	})
}

// Subscribe returns a change feed scoped to one conversation topic. The
// caller must Close it; events are dropped rather than blocking the hub if
// the consumer falls behind.
func (h *Hub) Subscribe(topic string) chat.Subscription {
	sub := &subscription{hub: h, topic: topic, ch: make(chan chat.ChangeEvent, 64)}
	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*subscription]bool)
	}
	h.subs[topic][sub] = true
	h.mu.Unlock()
	return sub
}

// Publish delivers one change event to every subscriber and joined
// websocket client of the topic.
func (h *Hub) Publish(topic string, ev chat.ChangeEvent) {
	h.mu.RLock()
	for sub := range h.subs[topic] {
		select {
		case sub.ch <- ev:
		default:
			logrus.WithField("topic", topic).Warn("dropping change event for slow subscriber")
		}
	}
	h.mu.RUnlock()

	payload, err := json.Marshal(ev)
	if err != nil {
		logrus.WithError(err).Error("failed to marshal change event")
		return
	}
	h.broadcastToTopic(topic, payload)
}

func (h *Hub) broadcastToTopic(topic string, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if client.topic != topic {
			continue
		}
		select {
		case client.send <- message:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// BroadcastToUser pushes a payload to every connection a user holds,
// regardless of joined topic (used for notifications).
func (h *Hub) BroadcastToUser(userID uint, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if client.userID != userID {
			continue
		}
		select {
		case client.send <- message:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// HandleWebSocket upgrades the request and starts the client pumps. The
// auth middleware must already have set user_id.
func HandleWebSocket(hub *Hub, c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("WebSocket upgrade failed")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		conn.Close()
		return
	}

	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID.(uint),
	}

	hub.register <- client

	go client.writePump()
	go client.readPump()
}
