package handlers

import (
	"net/http"
	"strconv"
	"time"

	"barterhub-server/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdminHandler struct {
	db *gorm.DB
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage := 50

	var users []models.User
	var total int64
	h.db.Model(&models.User{}).Count(&total)
	if err := h.db.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "total": total, "page": page})
}

type UpdateUserStatusRequest struct {
	IsActive bool `json:"is_active"`
}

func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.db.Model(&models.User{}).Where("id = ?", targetID).Update("is_active", req.IsActive)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User updated"})
}

func (h *AdminHandler) ListReports(c *gin.Context) {
	status := c.DefaultQuery("status", "pending")

	var reports []models.Report
	if err := h.db.Preload("Reporter").Preload("Reported").
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&reports).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reports"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

type UpdateReportRequest struct {
	Status string `json:"status" binding:"required,oneof=reviewed resolved dismissed"`
}

func (h *AdminHandler) UpdateReport(c *gin.Context) {
	reportID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	var req UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.db.Model(&models.Report{}).Where("id = ?", reportID).Update("status", req.Status)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update report"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Report updated"})
}

func (h *AdminHandler) GetAnalytics(c *gin.Context) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	analytics := models.Analytics{Date: now}
	h.db.Model(&models.User{}).Count(&analytics.TotalUsers)
	h.db.Model(&models.User{}).Where("is_active = ?", true).Count(&analytics.ActiveUsers)
	h.db.Model(&models.Item{}).Count(&analytics.TotalItems)
	h.db.Model(&models.Item{}).Where("status = ?", models.ItemStatusPublished).Count(&analytics.PublishedItems)
	h.db.Model(&models.MutualMatch{}).Count(&analytics.TotalMatches)
	h.db.Model(&models.MutualMatch{}).Where("created_at >= ?", startOfDay).Count(&analytics.MatchesToday)
	h.db.Model(&models.TradeConversation{}).Count(&analytics.TotalTrades)
	h.db.Model(&models.TradeConversation{}).Where("status = ?", models.TradeStatusCompleted).Count(&analytics.CompletedTrades)
	h.db.Model(&models.SupportConversation{}).Where("status = ?", models.SupportStatusOpen).Count(&analytics.OpenTickets)
	h.db.Model(&models.Report{}).Where("status = ?", "pending").Count(&analytics.PendingReports)

	c.JSON(http.StatusOK, gin.H{"analytics": analytics})
}
