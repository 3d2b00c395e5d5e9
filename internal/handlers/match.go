package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"barterhub-server/internal/matching"
	"barterhub-server/internal/models"
	"barterhub-server/internal/redis"
	"barterhub-server/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type MatchHandler struct {
	db     *gorm.DB
	engine *matching.Engine
	redis  *redis.Client
	hub    *websocket.Hub
}

func NewMatchHandler(db *gorm.DB, engine *matching.Engine, redisClient *redis.Client, hub *websocket.Hub) *MatchHandler {
	return &MatchHandler{db: db, engine: engine, redis: redisClient, hub: hub}
}

// GetMatchesForItem runs the match engine for one of the caller's items.
// radius is in miles; 0 or absent means nationwide.
func (h *MatchHandler) GetMatchesForItem(c *gin.Context) {
	userID, _ := c.Get("user_id")

	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	var item models.Item
	if err := h.db.Where("id = ? AND owner_id = ?", itemID, userID).First(&item).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	radius := matching.RadiusNationwide
	if raw := c.Query("radius"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			radius = parsed
		}
	}

	candidates := h.engine.FindMatches(c.Request.Context(), &item, userID.(uint), radius)
	if candidates == nil {
		candidates = []matching.Candidate{}
	}

	c.JSON(http.StatusOK, gin.H{"matches": candidates})
}

type LikeRequest struct {
	ItemID   uint `json:"item_id" binding:"required"`
	MyItemID uint `json:"my_item_id" binding:"required"`
}

// LikeItem records interest in a candidate item. When the candidate's owner
// already liked the caller's selected item the pair graduates to a mutual
// match: the row is inserted, both users are notified, and neither item
// surfaces for the other in future match runs.
func (h *MatchHandler) LikeItem(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uint)

	var req LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var target models.Item
	if err := h.db.First(&target, req.ItemID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}
	if target.OwnerID == uid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot like your own item"})
		return
	}

	var myItem models.Item
	if err := h.db.Where("id = ? AND owner_id = ?", req.MyItemID, uid).First(&myItem).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Own item not found"})
		return
	}

	like := models.LikedItem{UserID: uid, ItemID: req.ItemID}
	if err := h.db.Where(&like).FirstOrCreate(&like).Error; err != nil {
		logrus.WithError(err).Error("failed to record like")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record like"})
		return
	}

	// Reverse interest check: the item we are matching from first, then any
	// other published item of ours the counterpart liked.
	pairedItem := myItem
	var reverse models.LikedItem
	err := h.db.Where("user_id = ? AND item_id = ?", target.OwnerID, myItem.ID).First(&reverse).Error
	if err != nil {
		err = h.db.
			Joins("JOIN items ON items.id = liked_items.item_id").
			Where("liked_items.user_id = ? AND items.owner_id = ? AND items.status = ?",
				target.OwnerID, uid, models.ItemStatusPublished).
			First(&reverse).Error
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"liked": true, "mutual_match": nil})
			return
		}
		if err := h.db.First(&pairedItem, reverse.ItemID).Error; err != nil {
			c.JSON(http.StatusOK, gin.H{"liked": true, "mutual_match": nil})
			return
		}
	}

	match, err := h.materializeMatch(c, uid, pairedItem, target)
	if err != nil {
		logrus.WithError(err).Error("failed to materialize mutual match")
		c.JSON(http.StatusOK, gin.H{"liked": true, "mutual_match": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": true, "mutual_match": match})
}

func (h *MatchHandler) materializeMatch(c *gin.Context, userID uint, myItem, theirItem models.Item) (*models.MutualMatch, error) {
	var existing models.MutualMatch
	err := h.db.Where(
		"(user1_item_id = ? AND user2_item_id = ?) OR (user1_item_id = ? AND user2_item_id = ?)",
		myItem.ID, theirItem.ID, theirItem.ID, myItem.ID,
	).First(&existing).Error
	if err == nil {
		return &existing, nil
	}

	match := models.MutualMatch{
		User1ID:     userID,
		User1ItemID: myItem.ID,
		User2ID:     theirItem.OwnerID,
		User2ItemID: theirItem.ID,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&match).Error; err != nil {
			return err
		}
		for _, n := range []models.Notification{
			{
				UserID: userID,
				Type:   "match",
				Title:  "It's a match!",
				Body:   fmt.Sprintf("%s matched with your %s", theirItem.Name, myItem.Name),
				Data:   fmt.Sprintf(`{"match_id": %d}`, match.ID),
			},
			{
				UserID: theirItem.OwnerID,
				Type:   "match",
				Title:  "It's a match!",
				Body:   fmt.Sprintf("%s matched with your %s", myItem.Name, theirItem.Name),
				Data:   fmt.Sprintf(`{"match_id": %d}`, match.ID),
			},
		} {
			if err := tx.Create(&n).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if h.redis != nil {
		payload, _ := json.Marshal(match)
		key := fmt.Sprintf("match:%d:%d", myItem.ID, theirItem.ID)
		if err := h.redis.Set(c.Request.Context(), key, payload, 0); err != nil {
			logrus.WithError(err).Warn("failed to cache mutual match")
		}
	}

	if payload, err := json.Marshal(gin.H{"type": "mutual_match", "match": match}); err == nil {
		h.hub.BroadcastToUser(userID, payload)
		h.hub.BroadcastToUser(theirItem.OwnerID, payload)
	}

	logrus.WithFields(logrus.Fields{
		"match_id": match.ID,
		"user1_id": match.User1ID,
		"user2_id": match.User2ID,
	}).Info("Mutual match created")
	return &match, nil
}

func (h *MatchHandler) UnlikeItem(c *gin.Context) {
	userID, _ := c.Get("user_id")

	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	if err := h.db.Where("user_id = ? AND item_id = ?", userID, itemID).
		Delete(&models.LikedItem{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove like"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": false})
}

type RejectRequest struct {
	ItemID   uint  `json:"item_id" binding:"required"`
	MyItemID *uint `json:"my_item_id"` // nil rejects the item globally
}

// RejectCandidate dismisses a candidate from future match runs, scoped to a
// single pairing or globally.
func (h *MatchHandler) RejectCandidate(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uint)

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.MyItemID != nil {
		var mine models.Item
		if err := h.db.Where("id = ? AND owner_id = ?", *req.MyItemID, uid).First(&mine).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Own item not found"})
			return
		}
	}

	rejection := models.Rejection{UserID: uid, ItemID: req.ItemID, MyItemID: req.MyItemID}
	if err := h.db.Create(&rejection).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record rejection"})
		return
	}

	if h.redis != nil && req.MyItemID != nil {
		if err := h.redis.Del(c.Request.Context(), matching.CacheKey(uid, *req.MyItemID)); err != nil {
			logrus.WithError(err).Warn("failed to invalidate match cache")
		}
	}

	c.JSON(http.StatusOK, gin.H{"rejected": true})
}

// GetMutualMatches lists the caller's mutual matches with both items and the
// counterpart profile preloaded.
func (h *MatchHandler) GetMutualMatches(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uint)

	var matches []models.MutualMatch
	if err := h.db.
		Preload("User1").Preload("User2").
		Preload("User1Item").Preload("User1Item.Photos").
		Preload("User2Item").Preload("User2Item.Photos").
		Where("user1_id = ? OR user2_id = ?", uid, uid).
		Order("created_at DESC").
		Find(&matches).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch matches"})
		return
	}

	type matchView struct {
		ID        uint                 `json:"id"`
		MyItem    models.Item          `json:"my_item"`
		TheirItem models.Item          `json:"their_item"`
		OtherUser models.PublicProfile `json:"other_user"`
		CreatedAt string               `json:"created_at"`
	}

	views := make([]matchView, 0, len(matches))
	for i := range matches {
		m := matches[i]
		view := matchView{ID: m.ID, CreatedAt: m.CreatedAt.Format("2006-01-02T15:04:05Z07:00")}
		if m.User1ID == uid {
			view.MyItem = m.User1Item
			view.TheirItem = m.User2Item
			view.OtherUser = m.User2.Public()
		} else {
			view.MyItem = m.User2Item
			view.TheirItem = m.User1Item
			view.OtherUser = m.User1.Public()
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, gin.H{"matches": views})
}
