package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"barterhub-server/internal/config"
	"barterhub-server/internal/models"
	"barterhub-server/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ItemHandler struct {
	db      *gorm.DB
	storage *services.StorageService
	cfg     *config.Config
}

type ItemRequest struct {
	Name                  string   `json:"name" binding:"required"`
	Description           string   `json:"description"`
	Category              string   `json:"category" binding:"required"`
	Condition             string   `json:"condition" binding:"required,oneof=new like_new good fair worn"`
	Tags                  []string `json:"tags"`
	PriceRangeMin         int      `json:"price_range_min"`
	PriceRangeMax         int      `json:"price_range_max"`
	LookingForCategories  []string `json:"looking_for_categories"`
	LookingForConditions  []string `json:"looking_for_conditions"`
	LookingForDescription string   `json:"looking_for_description"`
	LookingForPriceRanges []string `json:"looking_for_price_ranges"`
}

func NewItemHandler(db *gorm.DB, storage *services.StorageService, cfg *config.Config) *ItemHandler {
	return &ItemHandler{db: db, storage: storage, cfg: cfg}
}

func (h *ItemHandler) Create(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := models.Item{
		OwnerID:               userID.(uint),
		Name:                  req.Name,
		Description:           req.Description,
		Category:              req.Category,
		Condition:             req.Condition,
		Tags:                  req.Tags,
		PriceRangeMin:         req.PriceRangeMin,
		PriceRangeMax:         req.PriceRangeMax,
		LookingForCategories:  req.LookingForCategories,
		LookingForConditions:  req.LookingForConditions,
		LookingForDescription: req.LookingForDescription,
		LookingForPriceRanges: req.LookingForPriceRanges,
		Status:                models.ItemStatusDraft,
		IsAvailable:           true,
	}

	if err := h.db.Create(&item).Error; err != nil {
		logrus.WithError(err).Error("failed to create item")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create item"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"item": item})
}

func (h *ItemHandler) List(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var items []models.Item
	if err := h.db.Preload("Photos").
		Where("owner_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *ItemHandler) Get(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	var item models.Item
	if err := h.db.Preload("Photos").Preload("Owner").First(&item, itemID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

func (h *ItemHandler) Update(c *gin.Context) {
	item, ok := h.ownedItem(c)
	if !ok {
		return
	}

	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := models.Item{
		Name:                  req.Name,
		Description:           req.Description,
		Category:              req.Category,
		Condition:             req.Condition,
		Tags:                  req.Tags,
		PriceRangeMin:         req.PriceRangeMin,
		PriceRangeMax:         req.PriceRangeMax,
		LookingForCategories:  req.LookingForCategories,
		LookingForConditions:  req.LookingForConditions,
		LookingForDescription: req.LookingForDescription,
		LookingForPriceRanges: req.LookingForPriceRanges,
	}

	if err := h.db.Model(item).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

func (h *ItemHandler) Delete(c *gin.Context) {
	item, ok := h.ownedItem(c)
	if !ok {
		return
	}

	if err := h.db.Delete(item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item deleted"})
}

// Publish makes a draft item visible to the match engine.
func (h *ItemHandler) Publish(c *gin.Context) {
	item, ok := h.ownedItem(c)
	if !ok {
		return
	}

	if err := h.db.Model(item).Update("status", models.ItemStatusPublished).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish item"})
		return
	}

	item.Status = models.ItemStatusPublished
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// SetHidden toggles the item out of other users' match results without
// unpublishing it.
func (h *ItemHandler) SetHidden(c *gin.Context) {
	item, ok := h.ownedItem(c)
	if !ok {
		return
	}

	var req struct {
		Hidden bool `json:"hidden"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.Model(item).Update("is_hidden", req.Hidden).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update item"})
		return
	}

	item.IsHidden = req.Hidden
	c.JSON(http.StatusOK, gin.H{"item": item})
}

func (h *ItemHandler) UploadPhoto(c *gin.Context) {
	item, ok := h.ownedItem(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Photo file required"})
		return
	}
	defer file.Close()

	if header.Size > h.cfg.MaxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	allowed := false
	for _, t := range h.cfg.AllowedImageTypes {
		if t == contentType {
			allowed = true
			break
		}
	}
	if !allowed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported image type"})
		return
	}

	filename := fmt.Sprintf("items/%d/%s_%d", item.ID, uuid.New().String(), time.Now().Unix())
	url, err := h.storage.UploadFile(c.Request.Context(), file, filename, contentType)
	if err != nil {
		logrus.WithError(err).Error("failed to upload item photo")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload photo"})
		return
	}

	var count int64
	h.db.Model(&models.ItemPhoto{}).Where("item_id = ?", item.ID).Count(&count)

	photo := models.ItemPhoto{
		ItemID:    item.ID,
		URL:       url,
		IsPrimary: count == 0,
		Order:     int(count),
	}
	if err := h.db.Create(&photo).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save photo"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"photo": photo})
}

func (h *ItemHandler) DeletePhoto(c *gin.Context) {
	item, ok := h.ownedItem(c)
	if !ok {
		return
	}

	photoID, err := strconv.ParseUint(c.Param("photo_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid photo ID"})
		return
	}

	var photo models.ItemPhoto
	if err := h.db.Where("id = ? AND item_id = ?", photoID, item.ID).First(&photo).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Photo not found"})
		return
	}

	if err := h.storage.DeleteFile(c.Request.Context(), photo.URL); err != nil {
		logrus.WithError(err).Warn("failed to delete photo from storage")
	}
	if err := h.db.Delete(&photo).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete photo"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Photo deleted"})
}

// ownedItem loads the path item and enforces ownership; writes the error
// response itself on failure.
func (h *ItemHandler) ownedItem(c *gin.Context) (*models.Item, bool) {
	userID, _ := c.Get("user_id")

	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return nil, false
	}

	var item models.Item
	if err := h.db.First(&item, itemID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return nil, false
	}
	if item.OwnerID != userID.(uint) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your item"})
		return nil, false
	}
	return &item, true
}
