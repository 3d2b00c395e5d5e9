package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ItemStatusDraft     = "draft"
	ItemStatusPublished = "published"
)

type Item struct {
	ID                    uint           `json:"id" gorm:"primaryKey"`
	OwnerID               uint           `json:"owner_id" gorm:"not null;index"`
	Name                  string         `json:"name" gorm:"not null"`
	Description           string         `json:"description"`
	Category              string         `json:"category" gorm:"not null;index"`
	Condition             string         `json:"condition" gorm:"not null"` // new, like_new, good, fair, worn
	Tags                  []string       `json:"tags" gorm:"serializer:json"`
	PriceRangeMin         int            `json:"price_range_min"`
	PriceRangeMax         int            `json:"price_range_max"`
	LookingForCategories  []string       `json:"looking_for_categories" gorm:"serializer:json"`
	LookingForConditions  []string       `json:"looking_for_conditions" gorm:"serializer:json"`
	LookingForDescription string         `json:"looking_for_description"`
	LookingForPriceRanges []string       `json:"looking_for_price_ranges" gorm:"serializer:json"`
	Status                string         `json:"status" gorm:"default:draft"` // draft, published
	IsAvailable           bool           `json:"is_available" gorm:"default:true"`
	IsHidden              bool           `json:"is_hidden" gorm:"default:false"`
	Photos                []ItemPhoto    `json:"photos,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `json:"-" gorm:"index"`
	Owner                 User           `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

type ItemPhoto struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	ItemID    uint           `json:"item_id" gorm:"not null;index"`
	URL       string         `json:"url" gorm:"not null"`
	IsPrimary bool           `json:"is_primary" gorm:"default:false"`
	Order     int            `json:"order" gorm:"default:0"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

type LikedItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_user_liked_item"`
	ItemID    uint      `json:"item_id" gorm:"not null;uniqueIndex:idx_user_liked_item"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Item      Item      `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

// Rejection records a dismissed match candidate. MyItemID nil means the user
// never wants to see ItemID again regardless of which of their items is being
// matched; non-nil scopes the rejection to that single pairing.
type Rejection struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	ItemID    uint      `json:"item_id" gorm:"not null;index"`
	MyItemID  *uint     `json:"my_item_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MutualMatch is a confirmed bidirectional interest between two specific
// items. Once a row exists the match engine never surfaces either item as a
// candidate for the other again.
type MutualMatch struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	User1ID     uint      `json:"user1_id" gorm:"not null;index"`
	User1ItemID uint      `json:"user1_item_id" gorm:"not null;index"`
	User2ID     uint      `json:"user2_id" gorm:"not null;index"`
	User2ItemID uint      `json:"user2_item_id" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`
	User1       User      `json:"user1,omitempty" gorm:"foreignKey:User1ID"`
	User2       User      `json:"user2,omitempty" gorm:"foreignKey:User2ID"`
	User1Item   Item      `json:"user1_item,omitempty" gorm:"foreignKey:User1ItemID"`
	User2Item   Item      `json:"user2_item,omitempty" gorm:"foreignKey:User2ItemID"`
}

func (m *MutualMatch) HasItem(itemID uint) bool {
	return m.User1ItemID == itemID || m.User2ItemID == itemID
}

// OtherItemID returns the counterpart item of a pair, given one side.
func (m *MutualMatch) OtherItemID(itemID uint) (uint, bool) {
	if m.User1ItemID == itemID {
		return m.User2ItemID, true
	}
	if m.User2ItemID == itemID {
		return m.User1ItemID, true
	}
	return 0, false
}
