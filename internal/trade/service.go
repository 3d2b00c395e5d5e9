package trade

import (
	"context"
	"errors"
	"fmt"

	"barterhub-server/internal/models"
	"barterhub-server/internal/social"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrItemUnavailable = errors.New("item is not available for trading")
	ErrSelfTrade       = errors.New("cannot propose a trade against your own item")
	ErrBlocked         = errors.New("trading is not possible between these users")
	ErrDuplicateTrade  = errors.New("a pending trade for these items already exists")
)

// Service owns the trade conversation state machine: creation, per-party
// acceptance, terminal transitions and the completion sweep.
type Service struct {
	db       *gorm.DB
	resolver *social.Resolver
	log      *logrus.Entry
}

func NewService(db *gorm.DB) *Service {
	return &Service{
		db:       db,
		resolver: social.NewResolver(db),
		log:      logrus.WithField("component", "trade_service"),
	}
}

type CreateRequest struct {
	OwnerItemID      uint   `json:"owner_item_id" binding:"required"`
	RequesterItemIDs []uint `json:"requester_item_ids" binding:"required,min=1"`
	Message          string `json:"message"`
}

// Create opens a pending conversation for an explicit trade request. The
// first requester item is the primary one; extras ride along as a
// multi-item offer.
func (s *Service) Create(ctx context.Context, requesterID uint, req CreateRequest) (*models.TradeConversation, error) {
	var ownerItem models.Item
	if err := s.db.WithContext(ctx).First(&ownerItem, req.OwnerItemID).Error; err != nil {
		return nil, fmt.Errorf("failed to load target item: %w", err)
	}
	if ownerItem.OwnerID == requesterID {
		return nil, ErrSelfTrade
	}
	if ownerItem.Status != models.ItemStatusPublished || !ownerItem.IsAvailable || ownerItem.IsHidden {
		return nil, ErrItemUnavailable
	}

	blocked, err := s.resolver.IsBlockedEither(ctx, requesterID, ownerItem.OwnerID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrBlocked
	}

	var requesterItems []models.Item
	if err := s.db.WithContext(ctx).
		Where("id IN ? AND owner_id = ?", req.RequesterItemIDs, requesterID).
		Find(&requesterItems).Error; err != nil {
		return nil, fmt.Errorf("failed to load offered items: %w", err)
	}
	if len(requesterItems) != len(req.RequesterItemIDs) {
		return nil, fmt.Errorf("%w: offered items must belong to the requester", ErrItemUnavailable)
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.TradeConversation{}).
		Where("requester_item_id = ? AND owner_item_id = ? AND status = ?",
			req.RequesterItemIDs[0], req.OwnerItemID, models.TradeStatusPending).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing trades: %w", err)
	}
	if existing > 0 {
		return nil, ErrDuplicateTrade
	}

	return s.insert(ctx, requesterID, ownerItem, requesterItems[0], req.RequesterItemIDs, req.Message)
}

// CreateFromMatch opens a conversation directly from a mutual match,
// skipping item selection: the matched pair is the proposed exchange.
func (s *Service) CreateFromMatch(ctx context.Context, userID, matchID uint) (*models.TradeConversation, error) {
	var match models.MutualMatch
	if err := s.db.WithContext(ctx).First(&match, matchID).Error; err != nil {
		return nil, fmt.Errorf("failed to load mutual match: %w", err)
	}

	var myItemID, theirItemID uint
	switch userID {
	case match.User1ID:
		myItemID, theirItemID = match.User1ItemID, match.User2ItemID
	case match.User2ID:
		myItemID, theirItemID = match.User2ItemID, match.User1ItemID
	default:
		return nil, ErrNotParticipant
	}

	var ownerItem, myItem models.Item
	if err := s.db.WithContext(ctx).First(&ownerItem, theirItemID).Error; err != nil {
		return nil, fmt.Errorf("failed to load matched item: %w", err)
	}
	if err := s.db.WithContext(ctx).First(&myItem, myItemID).Error; err != nil {
		return nil, fmt.Errorf("failed to load own matched item: %w", err)
	}

	return s.insert(ctx, userID, ownerItem, myItem, []uint{myItemID}, "")
}

func (s *Service) insert(ctx context.Context, requesterID uint, ownerItem, requesterItem models.Item, requesterItemIDs []uint, message string) (*models.TradeConversation, error) {
	conv := models.TradeConversation{
		RequesterID:      requesterID,
		OwnerID:          ownerItem.OwnerID,
		RequesterItemID:  requesterItem.ID,
		RequesterItemIDs: requesterItemIDs,
		OwnerItemID:      ownerItem.ID,
		Status:           models.TradeStatusPending,
	}

	opening := OpeningMessage(requesterItem.Name, ownerItem.Name)
	if message != "" {
		opening = opening + " " + message
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conv).Error; err != nil {
			return fmt.Errorf("failed to create trade conversation: %w", err)
		}
		welcome := models.TradeMessage{
			ConversationID: conv.ID,
			SenderID:       requesterID,
			Message:        opening,
			Kind:           models.MessageKindSystemWelcome,
		}
		if err := tx.Create(&welcome).Error; err != nil {
			return fmt.Errorf("failed to create opening message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"trade_id":     conv.ID,
		"requester_id": conv.RequesterID,
		"owner_id":     conv.OwnerID,
	}).Info("Trade conversation created")
	return &conv, nil
}

// Accept records the calling party's acceptance. Only the caller's own flag
// column is written, so concurrent accepts by both parties cannot clobber
// each other; the status promotion is guarded by the current status.
func (s *Service) Accept(ctx context.Context, conversationID, userID uint) (*models.TradeConversation, error) {
	var conv models.TradeConversation
	if err := s.db.WithContext(ctx).First(&conv, conversationID).Error; err != nil {
		return nil, fmt.Errorf("failed to load trade conversation: %w", err)
	}

	if err := ApplyAccept(&conv, userID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"status": conv.Status}
	if userID == conv.RequesterID {
		updates["requester_accepted"] = true
	} else {
		updates["owner_accepted"] = true
	}

	if err := s.db.WithContext(ctx).Model(&models.TradeConversation{}).
		Where("id = ? AND status NOT IN ?", conversationID, terminalStatuses()).
		Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to persist acceptance: %w", err)
	}
	return &conv, nil
}

// Reject moves the conversation to its rejected terminal state. See
// ApplyReject for the reject-over-cancel tie-break.
func (s *Service) Reject(ctx context.Context, conversationID, userID uint) (*models.TradeConversation, error) {
	return s.terminate(ctx, conversationID, userID, ApplyReject, nil)
}

// Cancel moves a pending conversation to cancelled.
func (s *Service) Cancel(ctx context.Context, conversationID, userID uint) (*models.TradeConversation, error) {
	return s.terminate(ctx, conversationID, userID, ApplyCancel, []string{models.TradeStatusPending})
}

func (s *Service) terminate(ctx context.Context, conversationID, userID uint, apply func(*models.TradeConversation, uint) error, fromStatuses []string) (*models.TradeConversation, error) {
	var conv models.TradeConversation
	if err := s.db.WithContext(ctx).First(&conv, conversationID).Error; err != nil {
		return nil, fmt.Errorf("failed to load trade conversation: %w", err)
	}

	if err := apply(&conv, userID); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.TradeConversation{}).Where("id = ?", conversationID)
	if fromStatuses != nil {
		query = query.Where("status IN ?", fromStatuses)
	} else {
		query = query.Where("status NOT IN ?", terminalStatuses())
	}
	if err := query.Update("status", conv.Status).Error; err != nil {
		return nil, fmt.Errorf("failed to persist status: %w", err)
	}
	return &conv, nil
}

// RunCompletionSweep promotes every accepted conversation with both flags set
// to completed. The predicate lives in the WHERE clause, so the sweep is
// idempotent and safe to run concurrently from multiple clients.
func (s *Service) RunCompletionSweep(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.TradeConversation{}).
		Where("status = ? AND requester_accepted = ? AND owner_accepted = ?",
			models.TradeStatusAccepted, true, true).
		Update("status", models.TradeStatusCompleted)
	if result.Error != nil {
		return 0, fmt.Errorf("completion sweep failed: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		s.log.WithField("promoted", result.RowsAffected).Info("Completion sweep promoted trades")
	}
	return result.RowsAffected, nil
}

// Summary is one row of the conversation list.
type Summary struct {
	Conversation models.TradeConversation `json:"conversation"`
	LastActivity string                   `json:"last_activity"`
	UnreadCount  int64                    `json:"unread_count"`
}

// ListForUser runs the completion sweep opportunistically, then returns the
// user's conversations with derived activity lines and unread counts.
func (s *Service) ListForUser(ctx context.Context, userID uint) ([]Summary, error) {
	if _, err := s.RunCompletionSweep(ctx); err != nil {
		// Sweep failure should not hide the list.
		s.log.WithError(err).Warn("completion sweep failed during list")
	}

	var convs []models.TradeConversation
	if err := s.db.WithContext(ctx).
		Preload("Requester").Preload("Owner").
		Preload("RequesterItem").Preload("OwnerItem").
		Where("requester_id = ? OR owner_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&convs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch trade conversations: %w", err)
	}

	summaries := make([]Summary, 0, len(convs))
	for i := range convs {
		conv := convs[i]

		var last models.TradeMessage
		var lastPtr *models.TradeMessage
		if err := s.db.WithContext(ctx).
			Where("conversation_id = ?", conv.ID).
			Order("created_at DESC").
			First(&last).Error; err == nil {
			lastPtr = &last
		}

		var unread int64
		s.db.WithContext(ctx).Model(&models.TradeMessage{}).
			Where("conversation_id = ? AND sender_id != ? AND is_read = ?", conv.ID, userID, false).
			Count(&unread)

		summaries = append(summaries, Summary{
			Conversation: conv,
			LastActivity: LastActivity(&conv, lastPtr, userID),
			UnreadCount:  unread,
		})
	}
	return summaries, nil
}

func terminalStatuses() []string {
	return []string{models.TradeStatusRejected, models.TradeStatusCancelled, models.TradeStatusCompleted}
}
