package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TradeStatusPending   = "pending"
	TradeStatusAccepted  = "accepted"
	TradeStatusRejected  = "rejected"
	TradeStatusCancelled = "cancelled"
	TradeStatusCompleted = "completed"
)

type TradeConversation struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	RequesterID       uint           `json:"requester_id" gorm:"not null;index"`
	OwnerID           uint           `json:"owner_id" gorm:"not null;index"`
	RequesterItemID   uint           `json:"requester_item_id" gorm:"not null"`
	RequesterItemIDs  []uint         `json:"requester_item_ids" gorm:"serializer:json"` // multi-item offers
	OwnerItemID       uint           `json:"owner_item_id" gorm:"not null"`
	Status            string         `json:"status" gorm:"default:pending"` // pending, accepted, rejected, cancelled, completed
	RequesterAccepted bool           `json:"requester_accepted" gorm:"default:false"`
	OwnerAccepted     bool           `json:"owner_accepted" gorm:"default:false"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-" gorm:"index"`
	Requester         User           `json:"requester,omitempty" gorm:"foreignKey:RequesterID"`
	Owner             User           `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	RequesterItem     Item           `json:"requester_item,omitempty" gorm:"foreignKey:RequesterItemID"`
	OwnerItem         Item           `json:"owner_item,omitempty" gorm:"foreignKey:OwnerItemID"`
}

func (t *TradeConversation) HasUser(userID uint) bool {
	return t.RequesterID == userID || t.OwnerID == userID
}

func (t *TradeConversation) OtherUserID(userID uint) (uint, bool) {
	if t.RequesterID == userID {
		return t.OwnerID, true
	}
	if t.OwnerID == userID {
		return t.RequesterID, true
	}
	return 0, false
}

// Terminal reports whether no further status transition is permitted.
func (t *TradeConversation) Terminal() bool {
	switch t.Status {
	case TradeStatusRejected, TradeStatusCancelled, TradeStatusCompleted:
		return true
	}
	return false
}

type TradeMessage struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	ConversationID uint           `json:"conversation_id" gorm:"not null;index"`
	SenderID       uint           `json:"sender_id" gorm:"not null"`
	Message        string         `json:"message" gorm:"not null"`
	Kind           string         `json:"kind" gorm:"default:user_text"` // user_text, system_welcome
	IsRead         bool           `json:"is_read" gorm:"default:false"`
	ReadAt         *time.Time     `json:"read_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
	Sender         User           `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
}
