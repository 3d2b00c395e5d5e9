package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"barterhub-server/internal/config"
	"barterhub-server/internal/models"
	"barterhub-server/internal/redis"
	"barterhub-server/internal/social"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Engine computes bidirectional item matches. Every exclusion (blocks,
// existing mutual matches, rejections in either direction) is applied before
// scoring, so the result set only shrinks as the viewer interacts with it.
//
// The engine fails open: any store error is logged and yields an empty
// result rather than an error to the caller.
type Engine struct {
	db       *gorm.DB
	redis    *redis.Client
	resolver *social.Resolver
	cfg      *config.Config
	log      *logrus.Entry
}

func NewEngine(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Engine {
	return &Engine{
		db:       db,
		redis:    redisClient,
		resolver: social.NewResolver(db),
		cfg:      cfg,
		log:      logrus.WithField("component", "match_engine"),
	}
}

// FindMatches returns the ordered match candidates for the selected item,
// with exclusions computed on behalf of viewerID. radiusMiles of
// RadiusNationwide disables geographic filtering.
func (e *Engine) FindMatches(ctx context.Context, selected *models.Item, viewerID uint, radiusMiles float64) []Candidate {
	if viewerID == 0 {
		return nil
	}

	blocked, err := e.resolver.BlockedIDSet(ctx, viewerID)
	if err != nil {
		e.log.WithError(err).Error("failed to resolve blocked users")
		return nil
	}

	var ownersInRange []uint
	if radiusMiles > RadiusNationwide {
		ownersInRange, err = e.ownersWithinRadius(ctx, viewerID, radiusMiles)
		if err != nil {
			e.log.WithError(err).Error("failed to resolve in-range owners")
			return nil
		}
		// Short-circuit: nobody in range, skip the candidate scan.
		if len(ownersInRange) == 0 {
			return nil
		}
	}

	candidates, err := e.fetchCandidates(ctx, selected, blocked, ownersInRange)
	if err != nil {
		e.log.WithError(err).Error("failed to fetch candidate items")
		return nil
	}

	matchedItems, err := e.matchedItemIDs(ctx, selected.ID)
	if err != nil {
		e.log.WithError(err).Error("failed to fetch mutual matches")
		return nil
	}

	rejectedByMe, err := e.myRejections(ctx, viewerID, selected.ID)
	if err != nil {
		e.log.WithError(err).Error("failed to fetch viewer rejections")
		return nil
	}

	rejectionsOfSel, err := e.rejectionsOfItem(ctx, selected.ID)
	if err != nil {
		e.log.WithError(err).Error("failed to fetch rejections of selected item")
		return nil
	}

	result := SelectMatches(selected, candidates, Exclusions{
		BlockedUsers:    blocked,
		MatchedItems:    matchedItems,
		RejectedByMe:    rejectedByMe,
		RejectionsOfSel: rejectionsOfSel,
	}, e.cfg.MatchResultLimit)

	e.cacheResult(ctx, viewerID, selected.ID, result)
	return result
}

// ownersWithinRadius computes the set of user IDs whose parsed profile
// coordinates fall within radiusMiles of the viewer. Fails closed when the
// viewer has no resolvable location.
func (e *Engine) ownersWithinRadius(ctx context.Context, viewerID uint, radiusMiles float64) ([]uint, error) {
	var viewer models.User
	if err := e.db.WithContext(ctx).Select("id", "location").First(&viewer, viewerID).Error; err != nil {
		return nil, fmt.Errorf("failed to load viewer: %w", err)
	}
	if viewer.Location == nil {
		return nil, nil
	}
	vLat, vLng, ok := ParseLatLng(*viewer.Location)
	if !ok {
		return nil, nil
	}

	var users []models.User
	if err := e.db.WithContext(ctx).
		Select("id", "location").
		Where("id != ? AND location IS NOT NULL AND is_active = ?", viewerID, true).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load user locations: %w", err)
	}

	var inRange []uint
	for _, u := range users {
		lat, lng, ok := ParseLatLng(*u.Location)
		if !ok {
			continue
		}
		if HaversineMiles(vLat, vLng, lat, lng) <= radiusMiles {
			inRange = append(inRange, u.ID)
		}
	}
	return inRange, nil
}

func (e *Engine) fetchCandidates(ctx context.Context, selected *models.Item, blocked map[uint]bool, ownersInRange []uint) ([]models.Item, error) {
	query := e.db.WithContext(ctx).
		Preload("Owner").
		Preload("Photos").
		Where("owner_id != ? AND is_available = ? AND is_hidden = ? AND status = ?",
			selected.OwnerID, true, false, models.ItemStatusPublished)

	if len(blocked) > 0 {
		ids := make([]uint, 0, len(blocked))
		for id := range blocked {
			ids = append(ids, id)
		}
		query = query.Where("owner_id NOT IN ?", ids)
	}
	if ownersInRange != nil {
		query = query.Where("owner_id IN ?", ownersInRange)
	}

	var candidates []models.Item
	if err := query.Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	return candidates, nil
}

// matchedItemIDs collects the counterpart item of every mutual match the
// selected item participates in. Those items have graduated to actionable
// matches and must never resurface as candidates.
func (e *Engine) matchedItemIDs(ctx context.Context, itemID uint) (map[uint]bool, error) {
	var matches []models.MutualMatch
	if err := e.db.WithContext(ctx).
		Where("user1_item_id = ? OR user2_item_id = ?", itemID, itemID).
		Find(&matches).Error; err != nil {
		return nil, fmt.Errorf("failed to query mutual matches: %w", err)
	}

	set := make(map[uint]bool, len(matches))
	for i := range matches {
		if other, ok := matches[i].OtherItemID(itemID); ok {
			set[other] = true
		}
	}
	return set, nil
}

// myRejections returns the item IDs the viewer dismissed for this selected
// item, including global rejections (my_item_id IS NULL).
func (e *Engine) myRejections(ctx context.Context, viewerID, selectedItemID uint) (map[uint]bool, error) {
	var rows []models.Rejection
	if err := e.db.WithContext(ctx).
		Where("user_id = ? AND (my_item_id IS NULL OR my_item_id = ?)", viewerID, selectedItemID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query viewer rejections: %w", err)
	}

	set := make(map[uint]bool, len(rows))
	for _, row := range rows {
		set[row.ItemID] = true
	}
	return set, nil
}

// rejectionsOfItem returns rejections of the selected item by other users,
// keyed by (owner, scoped item). A zero scoped item marks a global
// rejection.
func (e *Engine) rejectionsOfItem(ctx context.Context, selectedItemID uint) (map[RejectionKey]bool, error) {
	var rows []models.Rejection
	if err := e.db.WithContext(ctx).
		Where("item_id = ?", selectedItemID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query rejections of item: %w", err)
	}

	set := make(map[RejectionKey]bool, len(rows))
	for _, row := range rows {
		key := RejectionKey{OwnerID: row.UserID}
		if row.MyItemID != nil {
			key.ScopedItemID = *row.MyItemID
		}
		set[key] = true
	}
	return set, nil
}

// cacheResult stores the surfaced item IDs per viewer and item. Best-effort;
// a cache failure is logged and ignored.
func (e *Engine) cacheResult(ctx context.Context, viewerID, itemID uint, result []Candidate) {
	if e.redis == nil {
		return
	}

	ids := make([]uint, len(result))
	for i, c := range result {
		ids[i] = c.Item.ID
	}
	payload, err := json.Marshal(ids)
	if err != nil {
		return
	}

	if err := e.redis.Set(ctx, CacheKey(viewerID, itemID), payload, e.cfg.MatchCacheTTL); err != nil {
		e.log.WithError(err).Warn("failed to cache match results")
	}
}

// CacheKey names the cached surfaced-ID list for one viewer and item.
// Handlers invalidate it when an interaction shrinks the result set.
func CacheKey(viewerID, itemID uint) string {
	return "matches:" + strconv.FormatUint(uint64(viewerID), 10) + ":" + strconv.FormatUint(uint64(itemID), 10)
}
