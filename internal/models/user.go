package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Email        string         `json:"email" gorm:"uniqueIndex;not null"`
	Username     string         `json:"username" gorm:"uniqueIndex;not null"`
	PasswordHash string         `json:"-" gorm:"not null"`
	FullName     string         `json:"full_name" gorm:"not null"`
	Bio          *string        `json:"bio,omitempty"`
	AvatarURL    *string        `json:"avatar_url,omitempty"`
	Location     *string        `json:"location,omitempty"` // "lat,lng"
	IsActive     bool           `json:"is_active" gorm:"default:true"`
	IsOnline     bool           `json:"is_online" gorm:"default:false"`
	LastSeen     *time.Time     `json:"last_seen,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// PublicProfile is the slice of a user joined onto match and trade responses.
type PublicProfile struct {
	ID        uint    `json:"id"`
	Username  string  `json:"username"`
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
	}
}

type BlockedUser struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	BlockerID uint      `json:"blocker_id" gorm:"not null;uniqueIndex:idx_blocker_blocked"`
	BlockedID uint      `json:"blocked_id" gorm:"not null;uniqueIndex:idx_blocker_blocked"`
	CreatedAt time.Time `json:"created_at"`
	Blocker   User      `json:"blocker,omitempty" gorm:"foreignKey:BlockerID"`
	Blocked   User      `json:"blocked,omitempty" gorm:"foreignKey:BlockedID"`
}

type FriendRequest struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	SenderID   uint      `json:"sender_id" gorm:"not null;uniqueIndex:idx_friend_pair"`
	ReceiverID uint      `json:"receiver_id" gorm:"not null;uniqueIndex:idx_friend_pair"`
	Status     string    `json:"status" gorm:"default:pending"` // pending, accepted, declined
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Sender     User      `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
	Receiver   User      `json:"receiver,omitempty" gorm:"foreignKey:ReceiverID"`
}

type Report struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ReporterID  uint      `json:"reporter_id" gorm:"not null"`
	ReportedID  uint      `json:"reported_id" gorm:"not null"`
	Reason      string    `json:"reason" gorm:"not null"`
	Description *string   `json:"description,omitempty"`
	Status      string    `json:"status" gorm:"default:pending"` // pending, reviewed, resolved, dismissed
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Reporter    User      `json:"reporter,omitempty" gorm:"foreignKey:ReporterID"`
	Reported    User      `json:"reported,omitempty" gorm:"foreignKey:ReportedID"`
}

type Notification struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null"`
	Type      string    `json:"type" gorm:"not null"` // match, trade, message, support
	Title     string    `json:"title" gorm:"not null"`
	Body      string    `json:"body" gorm:"not null"`
	Data      string    `json:"data" gorm:"type:jsonb"`
	IsRead    bool      `json:"is_read" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
