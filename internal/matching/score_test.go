package matching

import (
	"testing"

	"barterhub-server/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestViewerInterestedByCategory(t *testing.T) {
	selected := &models.Item{
		Category:             "Sports",
		LookingForCategories: []string{"Electronics"},
	}
	candidate := &models.Item{Category: "Electronics"}

	ok, score := ViewerInterested(selected, candidate)
	assert.True(t, ok)
	assert.Equal(t, 3, score)
}

func TestViewerInterestedByCondition(t *testing.T) {
	selected := &models.Item{LookingForConditions: []string{"like_new"}}
	candidate := &models.Item{Category: "Books", Condition: "like_new"}

	ok, score := ViewerInterested(selected, candidate)
	assert.True(t, ok)
	assert.Equal(t, 2, score)
}

func TestViewerInterestedByKeyword(t *testing.T) {
	selected := &models.Item{LookingForDescription: "vintage camera gear"}
	candidate := &models.Item{
		Name:        "Polaroid camera",
		Description: "Working instant camera from the 80s",
	}

	ok, score := ViewerInterested(selected, candidate)
	assert.True(t, ok)
	assert.Equal(t, 1, score)
}

func TestKeywordFirstHitOnly(t *testing.T) {
	// Both "camera" and "gear" match, but only the first hit counts.
	selected := &models.Item{LookingForDescription: "camera gear"}
	candidate := &models.Item{Name: "Camera gear bundle"}

	ok, score := ViewerInterested(selected, candidate)
	assert.True(t, ok)
	assert.Equal(t, 1, score)
}

func TestShortKeywordsIgnored(t *testing.T) {
	selected := &models.Item{LookingForDescription: "an op it"}
	candidate := &models.Item{Name: "Laptop", Description: "opit anop"}

	ok, _ := ViewerInterested(selected, candidate)
	assert.False(t, ok)
}

func TestOwnerInterestedUsesHeavierWeights(t *testing.T) {
	selected := &models.Item{Category: "Sports", Condition: "good"}
	candidate := &models.Item{
		LookingForCategories: []string{"Sports"},
		LookingForConditions: []string{"good"},
	}

	ok, score := OwnerInterested(selected, candidate)
	assert.True(t, ok)
	assert.Equal(t, 5+3, score)
}

func TestCaseInsensitiveCategoryMatch(t *testing.T) {
	selected := &models.Item{LookingForCategories: []string{"electronics"}}
	candidate := &models.Item{Category: "Electronics"}

	ok, _ := ViewerInterested(selected, candidate)
	assert.True(t, ok)
}

func TestNoInterestNoMatch(t *testing.T) {
	selected := &models.Item{LookingForCategories: []string{"Electronics"}}
	candidate := &models.Item{Category: "Furniture", Condition: "worn"}

	ok, score := ViewerInterested(selected, candidate)
	assert.False(t, ok)
	assert.Zero(t, score)
}
