package handlers

import (
	"context"
	"net/http"
	"strconv"

	"barterhub-server/internal/chat"
	"barterhub-server/internal/models"
	"barterhub-server/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type SupportHandler struct {
	db    *gorm.DB
	store *SupportStore
	hub   *websocket.Hub
}

func NewSupportHandler(db *gorm.DB, hub *websocket.Hub) *SupportHandler {
	return &SupportHandler{db: db, store: NewSupportStore(db), hub: hub}
}

// SupportStore is the gorm-backed chat.MessageStore for support tickets.
// HTTP sends and chat sessions both persist through it.
type SupportStore struct {
	db *gorm.DB
}

func NewSupportStore(db *gorm.DB) *SupportStore {
	return &SupportStore{db: db}
}

func (s *SupportStore) InsertMessage(ctx context.Context, msg chat.Message) (chat.Message, error) {
	row := models.SupportMessage{
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		SenderType:     msg.SenderType,
		Message:        msg.Text,
		Kind:           msg.Kind,
		Category:       msg.Category,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return chat.Message{}, err
	}

	msg.ID = strconv.FormatUint(uint64(row.ID), 10)
	msg.CreatedAt = row.CreatedAt
	msg.Pending = false
	return msg, nil
}

func (s *SupportStore) SetConversationStatus(ctx context.Context, conversationID uint, status string) error {
	return s.db.WithContext(ctx).Model(&models.SupportConversation{}).
		Where("id = ?", conversationID).
		Update("status", status).Error
}

type CreateTicketRequest struct {
	Subject  string `json:"subject" binding:"required"`
	Message  string `json:"message" binding:"required"`
	Category string `json:"category" binding:"required"`
}

// CreateTicket opens a conversation with a welcome line, then the user's
// first message. The category tag is mandatory on ticket creation.
func (h *SupportHandler) CreateTicket(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uint)

	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv := models.SupportConversation{
		UserID:  uid,
		Subject: req.Subject,
		Status:  models.SupportStatusOpen,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conv).Error; err != nil {
			return err
		}
		welcome := models.SupportMessage{
			ConversationID: conv.ID,
			SenderID:       uid,
			SenderType:     models.SenderTypeSupport,
			Message:        "Hi! Thanks for reaching out. A member of our team will reply here shortly.",
			Kind:           models.MessageKindSystemWelcome,
		}
		if err := tx.Create(&welcome).Error; err != nil {
			return err
		}
		first := models.SupportMessage{
			ConversationID: conv.ID,
			SenderID:       uid,
			SenderType:     models.SenderTypeUser,
			Message:        req.Message,
			Kind:           models.MessageKindUserText,
			Category:       &req.Category,
		}
		return tx.Create(&first).Error
	})
	if err != nil {
		logrus.WithError(err).Error("failed to create support ticket")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create ticket"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"conversation": conv})
}

func (h *SupportHandler) ListTickets(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var convs []models.SupportConversation
	if err := h.db.
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&convs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tickets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

func (h *SupportHandler) GetMessages(c *gin.Context) {
	conv, ok := h.ownTicket(c)
	if !ok {
		return
	}

	var messages []models.SupportMessage
	if err := h.db.
		Where("conversation_id = ?", conv.ID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	h.db.Model(&models.SupportMessage{}).
		Where("conversation_id = ? AND sender_type = ? AND is_read = ?",
			conv.ID, models.SenderTypeSupport, false).
		Update("is_read", true)

	c.JSON(http.StatusOK, gin.H{"conversation": conv, "messages": messages})
}

type SupportMessageRequest struct {
	Message  string  `json:"message" binding:"required"`
	Category *string `json:"category"`
}

// SendMessage appends a user message. Writing into a closed ticket reopens
// it, and a reopening message must carry a category tag, same as the first
// message of a fresh ticket.
func (h *SupportHandler) SendMessage(c *gin.Context) {
	conv, ok := h.ownTicket(c)
	if !ok {
		return
	}
	userID, _ := c.Get("user_id")
	uid := userID.(uint)

	var req SupportMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reopening := conv.Status == models.SupportStatusClosed
	if reopening && (req.Category == nil || *req.Category == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category required to reopen a ticket"})
		return
	}

	msg, err := h.store.InsertMessage(c.Request.Context(), chat.Message{
		ConversationID: conv.ID,
		SenderID:       uid,
		SenderType:     models.SenderTypeUser,
		Kind:           models.MessageKindUserText,
		Text:           req.Message,
		Category:       req.Category,
	})
	if err != nil {
		logrus.WithError(err).Error("failed to create support message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	h.hub.Publish(supportTopic(conv.ID), chat.ChangeEvent{Type: chat.EventInsert, Message: &msg})

	if reopening {
		if err := h.store.SetConversationStatus(c.Request.Context(), conv.ID, models.SupportStatusOpen); err != nil {
			logrus.WithError(err).Error("failed to reopen support ticket")
		} else {
			conv.Status = models.SupportStatusOpen
			h.hub.Publish(supportTopic(conv.ID), chat.ChangeEvent{
				Type:   chat.EventStatusChange,
				Status: models.SupportStatusOpen,
			})
		}
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg, "conversation": conv})
}

// Admin side.

func (h *SupportHandler) AdminListTickets(c *gin.Context) {
	status := c.DefaultQuery("status", models.SupportStatusOpen)

	var convs []models.SupportConversation
	if err := h.db.Preload("User").
		Where("status = ?", status).
		Order("updated_at ASC").
		Find(&convs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tickets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

func (h *SupportHandler) AdminReply(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uint)

	conversationID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}

	var conv models.SupportConversation
	if err := h.db.First(&conv, conversationID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
		return
	}

	var req SupportMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.store.InsertMessage(c.Request.Context(), chat.Message{
		ConversationID: conv.ID,
		SenderID:       uid,
		SenderType:     models.SenderTypeSupport,
		Kind:           models.MessageKindUserText,
		Text:           req.Message,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	h.hub.Publish(supportTopic(conv.ID), chat.ChangeEvent{Type: chat.EventInsert, Message: &msg})
	h.notifyTicketOwner(&conv, "Support replied", req.Message)

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// CloseTicket resolves a ticket. The closure is a structured system message,
// so clients flip to the closed view when it arrives; user text can never
// trigger this.
func (h *SupportHandler) CloseTicket(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uint)

	conversationID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return
	}

	var conv models.SupportConversation
	if err := h.db.First(&conv, conversationID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
		return
	}
	if conv.Status == models.SupportStatusClosed {
		c.JSON(http.StatusConflict, gin.H{"error": "Ticket already closed"})
		return
	}

	msg, err := h.store.InsertMessage(c.Request.Context(), chat.Message{
		ConversationID: conv.ID,
		SenderID:       uid,
		SenderType:     models.SenderTypeSupport,
		Kind:           models.MessageKindSystemClosure,
		Text:           "This ticket has been resolved. Reply here to reopen it.",
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to close ticket"})
		return
	}
	if err := h.store.SetConversationStatus(c.Request.Context(), conv.ID, models.SupportStatusClosed); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to close ticket"})
		return
	}

	h.hub.Publish(supportTopic(conv.ID), chat.ChangeEvent{Type: chat.EventInsert, Message: &msg})
	h.hub.Publish(supportTopic(conv.ID), chat.ChangeEvent{
		Type:   chat.EventStatusChange,
		Status: models.SupportStatusClosed,
	})
	h.notifyTicketOwner(&conv, "Ticket resolved", "Your support ticket was resolved")

	conv.Status = models.SupportStatusClosed
	c.JSON(http.StatusOK, gin.H{"conversation": conv})
}

func (h *SupportHandler) ownTicket(c *gin.Context) (*models.SupportConversation, bool) {
	userID, _ := c.Get("user_id")

	conversationID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation ID"})
		return nil, false
	}

	var conv models.SupportConversation
	if err := h.db.First(&conv, conversationID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
		return nil, false
	}
	if conv.UserID != userID.(uint) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your ticket"})
		return nil, false
	}
	return &conv, true
}

func (h *SupportHandler) notifyTicketOwner(conv *models.SupportConversation, title, body string) {
	notification := models.Notification{
		UserID: conv.UserID,
		Type:   "support",
		Title:  title,
		Body:   body,
		Data:   `{"conversation_id": ` + strconv.FormatUint(uint64(conv.ID), 10) + `}`,
	}
	if err := h.db.Create(&notification).Error; err != nil {
		logrus.WithError(err).Warn("failed to create support notification")
	}
}

func supportTopic(conversationID uint) string {
	return "support:" + strconv.FormatUint(uint64(conversationID), 10)
}
