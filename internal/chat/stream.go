package chat

import (
	"context"
	"time"
)

type EventType string

const (
	EventInsert       EventType = "insert"
	EventStatusChange EventType = "status_change"
)

// Message is the view of a trade or support message a session works with.
// IDs are strings so a provisional client-side ID ("temp-...") and a
// server-assigned ID can live in the same list until the persist resolves.
type Message struct {
	ID             string     `json:"id"`
	ConversationID uint       `json:"conversation_id"`
	SenderID       uint       `json:"sender_id"`
	SenderType     string     `json:"sender_type"` // user, support
	Kind           string     `json:"kind"`
	Text           string     `json:"text"`
	Category       *string    `json:"category,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	Pending        bool       `json:"pending"`
}

// ChangeEvent is one notification from the store's change feed.
type ChangeEvent struct {
	Type    EventType `json:"type"`
	Message *Message  `json:"message,omitempty"`
	Status  string    `json:"status,omitempty"` // conversation status on status_change
}

// MessageStore persists messages and conversation status updates for a
// session. Implementations wrap the relational store.
type MessageStore interface {
	InsertMessage(ctx context.Context, msg Message) (Message, error)
	SetConversationStatus(ctx context.Context, conversationID uint, status string) error
}

// Subscription is one live change feed scoped to a single conversation.
type Subscription interface {
	Events() <-chan ChangeEvent
	Close()
}

// Stream hands out per-conversation subscriptions. Topics name the
// conversation kind and ID, e.g. "trade:42" or "support:7".
type Stream interface {
	Subscribe(topic string) Subscription
}
