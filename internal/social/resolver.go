package social

import (
	"context"
	"fmt"

	"barterhub-server/internal/models"

	"gorm.io/gorm"
)

// Resolver answers block and friendship questions for a viewing user. The
// blocked set is bidirectional: users the viewer blocked and users who
// blocked the viewer are treated identically.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

func (r *Resolver) BlockedIDSet(ctx context.Context, userID uint) (map[uint]bool, error) {
	var rows []models.BlockedUser
	if err := r.db.WithContext(ctx).
		Where("blocker_id = ? OR blocked_id = ?", userID, userID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch block rows: %w", err)
	}

	set := make(map[uint]bool, len(rows))
	for _, row := range rows {
		if row.BlockerID == userID {
			set[row.BlockedID] = true
		} else {
			set[row.BlockerID] = true
		}
	}
	return set, nil
}

func (r *Resolver) IsBlockedEither(ctx context.Context, userA, userB uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.BlockedUser{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			userA, userB, userB, userA).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check block state: %w", err)
	}
	return count > 0, nil
}

func (r *Resolver) FriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var rows []models.FriendRequest
	if err := r.db.WithContext(ctx).
		Where("(sender_id = ? OR receiver_id = ?) AND status = ?", userID, userID, "accepted").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch friendships: %w", err)
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		if row.SenderID == userID {
			ids = append(ids, row.ReceiverID)
		} else {
			ids = append(ids, row.SenderID)
		}
	}
	return ids, nil
}
