package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	writeWait  = 10 * time.Second

	maxMessageSize = 64 * 1024
)

// Client is one websocket connection. A client may join exactly one
// conversation topic at a time; joining another replaces the previous one.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint
	topic  string
}

type inboundFrame struct {
	Type  string `json:"type"` // join_conversation, typing, stop_typing
	Topic string `json:"topic"`
}

type typingFrame struct {
	Type     string `json:"type"`
	Topic    string `json:"topic"`
	UserID   uint   `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
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
				logrus.WithError(err).Warn("WebSocket read error")
			}
			break
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			logrus.WithError(err).Debug("ignoring malformed websocket frame")
			continue
		}

		switch frame.Type {
		case "join_conversation":
			c.topic = frame.Topic
		case "typing", "stop_typing":
			out := typingFrame{
				Type:     "typing",
				Topic:    frame.Topic,
				UserID:   c.userID,
				IsTyping: frame.Type == "typing",
			}
			if payload, err := json.Marshal(out); err == nil {
				c.hub.broadcastToTopic(frame.Topic, payload)
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
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithError(err).Warn("WebSocket write error")
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
