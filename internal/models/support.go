package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	SupportStatusOpen   = "open"
	SupportStatusClosed = "closed"
)

// Message kinds. Closure is a structured kind rather than a recognized phrase
// so user text can never flip a ticket closed by accident.
const (
	MessageKindUserText      = "user_text"
	MessageKindSystemWelcome = "system_welcome"
	MessageKindSystemClosure = "system_closure"
)

const (
	SenderTypeUser    = "user"
	SenderTypeSupport = "support"
)

type SupportConversation struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"not null;index"`
	Subject   string         `json:"subject" gorm:"not null"`
	Status    string         `json:"status" gorm:"default:open"` // open, closed
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	User      User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

type SupportMessage struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	ConversationID uint           `json:"conversation_id" gorm:"not null;index"`
	SenderID       uint           `json:"sender_id" gorm:"not null"`
	SenderType     string         `json:"sender_type" gorm:"default:user"` // user, support
	Message        string         `json:"message" gorm:"not null"`
	Kind           string         `json:"kind" gorm:"default:user_text"` // user_text, system_welcome, system_closure
	Category       *string        `json:"category,omitempty"`            // required on the first message and after a reopen
	IsRead         bool           `json:"is_read" gorm:"default:false"`
	CreatedAt      time.Time      `json:"created_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}
