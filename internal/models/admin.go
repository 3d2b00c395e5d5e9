package models

import (
	"time"

	"gorm.io/gorm"
)

type Admin struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Email        string         `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string         `json:"-" gorm:"not null"`
	FullName     string         `json:"full_name" gorm:"not null"`
	Role         string         `json:"role" gorm:"not null"` // super_admin, moderator, support
	IsActive     bool           `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

type Analytics struct {
	TotalUsers      int64     `json:"total_users"`
	ActiveUsers     int64     `json:"active_users"`
	TotalItems      int64     `json:"total_items"`
	PublishedItems  int64     `json:"published_items"`
	TotalMatches    int64     `json:"total_matches"`
	MatchesToday    int64     `json:"matches_today"`
	TotalTrades     int64     `json:"total_trades"`
	CompletedTrades int64     `json:"completed_trades"`
	OpenTickets     int64     `json:"open_tickets"`
	PendingReports  int64     `json:"pending_reports"`
	Date            time.Time `json:"date"`
}
