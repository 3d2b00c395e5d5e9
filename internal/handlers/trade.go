package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"barterhub-server/internal/chat"
	"barterhub-server/internal/models"
	"barterhub-server/internal/trade"
	"barterhub-server/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type TradeHandler struct {
	db      *gorm.DB
	service *trade.Service
	hub     *websocket.Hub
}

func NewTradeHandler(db *gorm.DB, service *trade.Service, hub *websocket.Hub) *TradeHandler {
	return &TradeHandler{db: db, service: service, hub: hub}
}

func (h *TradeHandler) Create(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req trade.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, err := h.service.Create(c.Request.Context(), userID.(uint), req)
	if err != nil {
		h.writeTradeError(c, err)
		return
	}

	h.notifyCounterpart(conv, userID.(uint), "New trade request", "You received a new trade request")
	c.JSON(http.StatusCreated, gin.H{"conversation": conv})
}

func (h *TradeHandler) CreateFromMatch(c *gin.Context) {
	userID, _ := c.Get("user_id")

	matchID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid match ID"})
		return
	}

	conv, err := h.service.CreateFromMatch(c.Request.Context(), userID.(uint), uint(matchID))
	if err != nil {
		h.writeTradeError(c, err)
		return
	}

	h.notifyCounterpart(conv, userID.(uint), "New trade request", "A trade was started from your match")
	c.JSON(http.StatusCreated, gin.H{"conversation": conv})
}

func (h *TradeHandler) List(c *gin.Context) {
	userID, _ := c.Get("user_id")

	summaries, err := h.service.ListForUser(c.Request.Context(), userID.(uint))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch trades"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

func (h *TradeHandler) Accept(c *gin.Context) {
	h.transition(c, h.service.Accept, "The other party accepted the trade")
}

func (h *TradeHandler) Reject(c *gin.Context) {
	h.transition(c, h.service.Reject, "The other party rejected the trade")
}

func (h *TradeHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel, "The other party cancelled the trade")
}

type transitionFunc func(ctx context.Context, conversationID, userID uint) (*models.TradeConversation, error)

func (h *TradeHandler) transition(c *gin.Context, apply transitionFunc, body string) {
	userID, _ := c.Get("user_id")
	uid := userID.(uint)

	conversationID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}

	conv, err := apply(c.Request.Context(), uint(conversationID), uid)
	if err != nil {
		h.writeTradeError(c, err)
		return
	}

	h.hub.Publish(tradeTopic(conv.ID), chat.ChangeEvent{
		Type:   chat.EventStatusChange,
		Status: conv.Status,
	})
	h.notifyCounterpart(conv, uid, "Trade update", body)

	c.JSON(http.StatusOK, gin.H{"conversation": conv})
}

func (h *TradeHandler) GetMessages(c *gin.Context) {
	conv, ok := h.participantConversation(c)
	if !ok {
		return
	}
	userID, _ := c.Get("user_id")

	var messages []models.TradeMessage
	if err := h.db.Preload("Sender").
		Where("conversation_id = ?", conv.ID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	// Mark the counterpart's messages read on open.
	now := time.Now()
	h.db.Model(&models.TradeMessage{}).
		Where("conversation_id = ? AND sender_id != ? AND is_read = ?", conv.ID, userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})

	c.JSON(http.StatusOK, gin.H{"conversation": conv, "messages": messages})
}

type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *TradeHandler) SendMessage(c *gin.Context) {
	conv, ok := h.participantConversation(c)
	if !ok {
		return
	}
	userID, _ := c.Get("user_id")
	uid := userID.(uint)

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg := models.TradeMessage{
		ConversationID: conv.ID,
		SenderID:       uid,
		Message:        req.Message,
		Kind:           models.MessageKindUserText,
	}
	if err := h.db.Create(&msg).Error; err != nil {
		logrus.WithError(err).Error("failed to create trade message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	h.hub.Publish(tradeTopic(conv.ID), chat.ChangeEvent{
		Type: chat.EventInsert,
		Message: &chat.Message{
			ID:             strconv.FormatUint(uint64(msg.ID), 10),
			ConversationID: msg.ConversationID,
			SenderID:       msg.SenderID,
			SenderType:     models.SenderTypeUser,
			Kind:           msg.Kind,
			Text:           msg.Message,
			CreatedAt:      msg.CreatedAt,
		},
	})
	h.notifyCounterpart(conv, uid, "New message", req.Message)

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

func (h *TradeHandler) participantConversation(c *gin.Context) (*models.TradeConversation, bool) {
	userID, _ := c.Get("user_id")

	conversationID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return nil, false
	}

	var conv models.TradeConversation
	if err := h.db.
		Preload("Requester").Preload("Owner").
		Preload("RequesterItem").Preload("OwnerItem").
		First(&conv, conversationID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return nil, false
	}
	if !conv.HasUser(userID.(uint)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a participant"})
		return nil, false
	}
	return &conv, true
}

func (h *TradeHandler) notifyCounterpart(conv *models.TradeConversation, actorID uint, title, body string) {
	otherID, ok := conv.OtherUserID(actorID)
	if !ok {
		return
	}

	notification := models.Notification{
		UserID: otherID,
		Type:   "trade",
		Title:  title,
		Body:   body,
		Data:   fmt.Sprintf(`{"conversation_id": %d}`, conv.ID),
	}
	if err := h.db.Create(&notification).Error; err != nil {
		logrus.WithError(err).Warn("failed to create trade notification")
	}
}

func (h *TradeHandler) writeTradeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, trade.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a participant"})
	case errors.Is(err, trade.ErrSelfTrade):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot trade with yourself"})
	case errors.Is(err, trade.ErrItemUnavailable):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Item is not available for trading"})
	case errors.Is(err, trade.ErrBlocked):
		c.JSON(http.StatusForbidden, gin.H{"error": "Trading is not possible between these users"})
	case errors.Is(err, trade.ErrDuplicateTrade):
		c.JSON(http.StatusConflict, gin.H{"error": "A pending trade for these items already exists"})
	case errors.Is(err, trade.ErrAlreadyAccepted):
		c.JSON(http.StatusConflict, gin.H{"error": "Already accepted"})
	case errors.Is(err, trade.ErrTerminalStatus):
		c.JSON(http.StatusConflict, gin.H{"error": "Trade is already finalized"})
	default:
		logrus.WithError(err).Error("trade operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Trade operation failed"})
	}
}

func tradeTopic(conversationID uint) string {
	return "trade:" + strconv.FormatUint(uint64(conversationID), 10)
}
