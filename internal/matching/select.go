package matching

import (
	"sort"

	"barterhub-server/internal/models"
)

// Candidate is an item surfaced by the engine, joined with its owner's
// public profile for display.
type Candidate struct {
	Item  models.Item          `json:"item"`
	Owner models.PublicProfile `json:"owner"`
	Score int                  `json:"score"`
}

// RejectionKey identifies a rejection of the selected item by a candidate
// owner. ScopedItemID zero means the rejection is global for that owner.
type RejectionKey struct {
	OwnerID      uint
	ScopedItemID uint
}

// Exclusions holds the precomputed sets a single FindMatches call filters
// against.
type Exclusions struct {
	BlockedUsers    map[uint]bool
	MatchedItems    map[uint]bool
	RejectedByMe    map[uint]bool
	RejectionsOfSel map[RejectionKey]bool
}

// SelectMatches is the pure core of the engine: given the selected item and
// pre-fetched candidates, it applies the exclusion sets, keeps only
// candidates with confirmed two-sided interest, scores them, orders newest
// first (score breaks created_at ties) and truncates to limit.
func SelectMatches(selected *models.Item, candidates []models.Item, excl Exclusions, limit int) []Candidate {
	matched := make([]Candidate, 0, len(candidates))

	for i := range candidates {
		candidate := &candidates[i]

		if candidate.OwnerID == selected.OwnerID {
			continue
		}
		if excl.BlockedUsers[candidate.OwnerID] {
			continue
		}
		if excl.MatchedItems[candidate.ID] {
			continue
		}
		if excl.RejectedByMe[candidate.ID] {
			continue
		}
		if excl.RejectionsOfSel[RejectionKey{OwnerID: candidate.OwnerID}] ||
			excl.RejectionsOfSel[RejectionKey{OwnerID: candidate.OwnerID, ScopedItemID: candidate.ID}] {
			continue
		}

		viewerOK, viewerScore := ViewerInterested(selected, candidate)
		if !viewerOK {
			continue
		}
		ownerOK, ownerScore := OwnerInterested(selected, candidate)
		if !ownerOK {
			continue
		}

		matched = append(matched, Candidate{
			Item:  *candidate,
			Owner: candidate.Owner.Public(),
			Score: viewerScore + ownerScore + mutualBonus,
		})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		ti, tj := matched[i].Item.CreatedAt, matched[j].Item.CreatedAt
		if ti.Equal(tj) {
			return matched[i].Score > matched[j].Score
		}
		return ti.After(tj)
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}
