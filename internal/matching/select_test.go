package matching

import (
	"fmt"
	"testing"
	"time"

	"barterhub-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyExclusions() Exclusions {
	return Exclusions{
		BlockedUsers:    map[uint]bool{},
		MatchedItems:    map[uint]bool{},
		RejectedByMe:    map[uint]bool{},
		RejectionsOfSel: map[RejectionKey]bool{},
	}
}

// mutualPair returns a selected item and a candidate where interest is
// confirmed in both directions.
func mutualPair() (*models.Item, models.Item) {
	selected := &models.Item{
		ID:                   1,
		OwnerID:              10,
		Category:             "Sports",
		LookingForCategories: []string{"Electronics"},
	}
	candidate := models.Item{
		ID:                   2,
		OwnerID:              20,
		Category:             "Electronics",
		LookingForCategories: []string{"Sports"},
	}
	return selected, candidate
}

func TestMutualInterestScoresWithBonus(t *testing.T) {
	selected, candidate := mutualPair()

	result := SelectMatches(selected, []models.Item{candidate}, emptyExclusions(), 50)
	require.Len(t, result, 1)
	// viewer category (3) + owner category (5) + mutual bonus (10)
	assert.Equal(t, 18, result[0].Score)
	assert.Equal(t, uint(2), result[0].Item.ID)
}

func TestOneSidedInterestExcluded(t *testing.T) {
	selected, candidate := mutualPair()

	// Candidate owner no longer wants anything the selected item offers.
	candidate.LookingForCategories = []string{"Furniture"}
	result := SelectMatches(selected, []models.Item{candidate}, emptyExclusions(), 50)
	assert.Empty(t, result)

	// And the reverse: only the owner side is interested.
	selected2, candidate2 := mutualPair()
	selected2.LookingForCategories = []string{"Furniture"}
	result = SelectMatches(selected2, []models.Item{candidate2}, emptyExclusions(), 50)
	assert.Empty(t, result)
}

func TestBlockedOwnerExcluded(t *testing.T) {
	selected, candidate := mutualPair()

	excl := emptyExclusions()
	excl.BlockedUsers[candidate.OwnerID] = true

	result := SelectMatches(selected, []models.Item{candidate}, excl, 50)
	assert.Empty(t, result)
}

func TestAlreadyMatchedItemExcluded(t *testing.T) {
	selected, candidate := mutualPair()

	excl := emptyExclusions()
	excl.MatchedItems[candidate.ID] = true

	result := SelectMatches(selected, []models.Item{candidate}, excl, 50)
	assert.Empty(t, result)
}

func TestGlobalRejectionByViewerExcluded(t *testing.T) {
	selected, candidate := mutualPair()

	// A global rejection (my_item_id NULL) lands in RejectedByMe for every
	// selected item, so the candidate disappears here too.
	excl := emptyExclusions()
	excl.RejectedByMe[candidate.ID] = true

	result := SelectMatches(selected, []models.Item{candidate}, excl, 50)
	assert.Empty(t, result)
}

func TestGlobalRejectionByCandidateOwnerExcluded(t *testing.T) {
	selected, candidate := mutualPair()

	excl := emptyExclusions()
	excl.RejectionsOfSel[RejectionKey{OwnerID: candidate.OwnerID}] = true

	result := SelectMatches(selected, []models.Item{candidate}, excl, 50)
	assert.Empty(t, result)
}

func TestScopedRejectionByCandidateOwner(t *testing.T) {
	selected, candidate := mutualPair()

	// Rejection scoped to a different item of theirs does not exclude.
	excl := emptyExclusions()
	excl.RejectionsOfSel[RejectionKey{OwnerID: candidate.OwnerID, ScopedItemID: 999}] = true
	result := SelectMatches(selected, []models.Item{candidate}, excl, 50)
	assert.Len(t, result, 1)

	// Scoped to this exact candidate it does.
	excl.RejectionsOfSel[RejectionKey{OwnerID: candidate.OwnerID, ScopedItemID: candidate.ID}] = true
	result = SelectMatches(selected, []models.Item{candidate}, excl, 50)
	assert.Empty(t, result)
}

func TestOwnItemsNeverSurface(t *testing.T) {
	selected, candidate := mutualPair()
	candidate.OwnerID = selected.OwnerID

	result := SelectMatches(selected, []models.Item{candidate}, emptyExclusions(), 50)
	assert.Empty(t, result)
}

func TestOrderingNewestFirstScoreBreaksTies(t *testing.T) {
	selected, _ := mutualPair()

	now := time.Now()
	older := models.Item{
		ID: 2, OwnerID: 20, Category: "Electronics",
		LookingForCategories: []string{"Sports"},
		CreatedAt:            now.Add(-time.Hour),
	}
	newer := models.Item{
		ID: 3, OwnerID: 21, Category: "Electronics",
		LookingForCategories: []string{"Sports"},
		CreatedAt:            now,
	}
	// Same timestamp as newer but higher score via condition match.
	newerStronger := models.Item{
		ID: 4, OwnerID: 22, Category: "Electronics", Condition: "good",
		LookingForCategories: []string{"Sports"},
		CreatedAt:            now,
	}
	selected.LookingForConditions = []string{"good"}

	result := SelectMatches(selected, []models.Item{older, newer, newerStronger}, emptyExclusions(), 50)
	require.Len(t, result, 3)
	assert.Equal(t, uint(4), result[0].Item.ID)
	assert.Equal(t, uint(3), result[1].Item.ID)
	assert.Equal(t, uint(2), result[2].Item.ID)
}

func TestResultTruncatedToLimit(t *testing.T) {
	selected, _ := mutualPair()

	var candidates []models.Item
	for i := 0; i < 60; i++ {
		candidates = append(candidates, models.Item{
			ID:                   uint(100 + i),
			OwnerID:              uint(200 + i),
			Category:             "Electronics",
			LookingForCategories: []string{"Sports"},
			CreatedAt:            time.Now().Add(time.Duration(-i) * time.Minute),
		})
	}

	result := SelectMatches(selected, candidates, emptyExclusions(), 50)
	assert.Len(t, result, 50)
}

func TestOwnerProfileJoined(t *testing.T) {
	selected, candidate := mutualPair()
	candidate.Owner = models.User{ID: 20, Username: "swapper", FullName: "Sam Swapper"}

	result := SelectMatches(selected, []models.Item{candidate}, emptyExclusions(), 50)
	require.Len(t, result, 1)
	assert.Equal(t, "swapper", result[0].Owner.Username)
}

func TestExclusionSymmetryAcrossBothDirections(t *testing.T) {
	// If A blocked B, running the engine from either side must exclude the
	// other party's items once the blocked set is bidirectional.
	itemA := &models.Item{ID: 1, OwnerID: 10, Category: "Sports", LookingForCategories: []string{"Electronics"}}
	itemB := &models.Item{ID: 2, OwnerID: 20, Category: "Electronics", LookingForCategories: []string{"Sports"}}

	for name, pair := range map[string]struct {
		selected  *models.Item
		candidate models.Item
	}{
		"a_views_b": {itemA, *itemB},
		"b_views_a": {itemB, *itemA},
	} {
		excl := emptyExclusions()
		excl.BlockedUsers[pair.candidate.OwnerID] = true
		result := SelectMatches(pair.selected, []models.Item{pair.candidate}, excl, 50)
		assert.Empty(t, result, fmt.Sprintf("direction %s", name))
	}
}
