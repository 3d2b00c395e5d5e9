package matching

import (
	"strings"

	"barterhub-server/internal/models"
)

// Scoring weights. The viewer direction scores the candidate against the
// selected item's wishlist; the owner direction scores the selected item
// against the candidate's wishlist with heavier weights. A confirmed
// two-sided match earns a fixed bonus on top.
const (
	viewerCategoryWeight  = 3
	viewerConditionWeight = 2
	viewerKeywordWeight   = 1

	ownerCategoryWeight  = 5
	ownerConditionWeight = 3
	ownerKeywordWeight   = 2

	mutualBonus = 10

	minKeywordLength = 3
)

// ViewerInterested reports whether the candidate satisfies the selected
// item's looking-for criteria, and the score contribution if so.
func ViewerInterested(selected, candidate *models.Item) (bool, int) {
	return directionScore(
		selected.LookingForCategories,
		selected.LookingForConditions,
		selected.LookingForDescription,
		candidate,
		viewerCategoryWeight, viewerConditionWeight, viewerKeywordWeight,
	)
}

// OwnerInterested reports whether the candidate's owner would want the
// selected item, judged by the candidate's own looking-for criteria.
func OwnerInterested(selected, candidate *models.Item) (bool, int) {
	return directionScore(
		candidate.LookingForCategories,
		candidate.LookingForConditions,
		candidate.LookingForDescription,
		selected,
		ownerCategoryWeight, ownerConditionWeight, ownerKeywordWeight,
	)
}

func directionScore(categories, conditions []string, description string, target *models.Item, catW, condW, kwW int) (bool, int) {
	interested := false
	score := 0

	if containsFold(categories, target.Category) {
		interested = true
		score += catW
	}
	if containsFold(conditions, target.Condition) {
		interested = true
		score += condW
	}
	if keywordHit(description, target) {
		interested = true
		score += kwW
	}

	return interested, score
}

// keywordHit tokenizes the free-text wishlist description on whitespace and
// looks for any token (longer than two characters) as a substring of the
// target's name or description. Only the first hit counts.
func keywordHit(description string, target *models.Item) bool {
	if description == "" {
		return false
	}

	name := strings.ToLower(target.Name)
	desc := strings.ToLower(target.Description)

	for _, word := range strings.Fields(strings.ToLower(description)) {
		if len(word) < minKeywordLength {
			continue
		}
		if strings.Contains(name, word) || strings.Contains(desc, word) {
			return true
		}
	}
	return false
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
