package handlers

import (
	"net/http"
	"strconv"

	"barterhub-server/internal/models"
	"barterhub-server/internal/social"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type UserHandler struct {
	db       *gorm.DB
	resolver *social.Resolver
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db, resolver: social.NewResolver(db)}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name"`
	Bio      *string `json:"bio"`
	Location *string `json:"location" binding:"omitempty,latlng"` // "lat,lng"
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Bio != nil {
		updates["bio"] = req.Bio
	}
	if req.Location != nil {
		updates["location"] = req.Location
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	var user models.User
	h.db.First(&user, userID)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var user models.User
	if err := h.db.Where("id = ? AND is_active = ?", targetID, true).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}

func (h *UserHandler) BlockUser(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uint)

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	if uint(targetID) == uid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot block yourself"})
		return
	}

	block := models.BlockedUser{BlockerID: uid, BlockedID: uint(targetID)}
	if err := h.db.Where(&block).FirstOrCreate(&block).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to block user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"blocked": true})
}

func (h *UserHandler) UnblockUser(c *gin.Context) {
	userID, _ := c.Get("user_id")

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if err := h.db.Where("blocker_id = ? AND blocked_id = ?", userID, targetID).
		Delete(&models.BlockedUser{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unblock user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"blocked": false})
}

func (h *UserHandler) SendFriendRequest(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uint)

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	if uint(targetID) == uid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot friend yourself"})
		return
	}

	blocked, err := h.resolver.IsBlockedEither(c.Request.Context(), uid, uint(targetID))
	if err != nil || blocked {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot send friend request"})
		return
	}

	var existing models.FriendRequest
	if err := h.db.Where(
		"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		uid, targetID, targetID, uid,
	).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Friend request already exists"})
		return
	}

	request := models.FriendRequest{SenderID: uid, ReceiverID: uint(targetID), Status: "pending"}
	if err := h.db.Create(&request).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send friend request"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": request})
}

func (h *UserHandler) RespondFriendRequest(c *gin.Context) {
	userID, _ := c.Get("user_id")

	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	var req struct {
		Accept bool `json:"accept"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var request models.FriendRequest
	if err := h.db.Where("id = ? AND receiver_id = ? AND status = ?",
		requestID, userID, "pending").First(&request).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Friend request not found"})
		return
	}

	status := "declined"
	if req.Accept {
		status = "accepted"
	}
	if err := h.db.Model(&request).Update("status", status).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update friend request"})
		return
	}

	request.Status = status
	c.JSON(http.StatusOK, gin.H{"request": request})
}

func (h *UserHandler) GetFriends(c *gin.Context) {
	userID, _ := c.Get("user_id")

	friendIDs, err := h.resolver.FriendIDs(c.Request.Context(), userID.(uint))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch friends"})
		return
	}
	if len(friendIDs) == 0 {
		c.JSON(http.StatusOK, gin.H{"friends": []models.PublicProfile{}})
		return
	}

	var users []models.User
	if err := h.db.Where("id IN ? AND is_active = ?", friendIDs, true).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch friends"})
		return
	}

	friends := make([]models.PublicProfile, 0, len(users))
	for i := range users {
		friends = append(friends, users[i].Public())
	}

	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

type ReportRequest struct {
	ReportedID  uint    `json:"reported_id" binding:"required"`
	Reason      string  `json:"reason" binding:"required"`
	Description *string `json:"description"`
}

func (h *UserHandler) ReportUser(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report := models.Report{
		ReporterID:  userID.(uint),
		ReportedID:  req.ReportedID,
		Reason:      req.Reason,
		Description: req.Description,
	}
	if err := h.db.Create(&report).Error; err != nil {
		logrus.WithError(err).Error("failed to create report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit report"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"report": report})
}

func (h *UserHandler) GetNotifications(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var notifications []models.Notification
	if err := h.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(100).
		Find(&notifications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

func (h *UserHandler) MarkNotificationsRead(c *gin.Context) {
	userID, _ := c.Get("user_id")

	if err := h.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notifications marked read"})
}
