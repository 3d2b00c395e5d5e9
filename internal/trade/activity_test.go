package trade

import (
	"testing"
	"time"

	"barterhub-server/internal/models"

	"github.com/stretchr/testify/assert"
)

func activityConv() models.TradeConversation {
	return models.TradeConversation{
		ID:            1,
		RequesterID:   10,
		OwnerID:       20,
		Status:        models.TradeStatusPending,
		RequesterItem: models.Item{Name: "Mountain Bike"},
		OwnerItem:     models.Item{Name: "Record Player"},
	}
}

func TestCompletedOverridesEverything(t *testing.T) {
	conv := activityConv()
	conv.Status = models.TradeStatusCompleted
	last := &models.TradeMessage{Message: "see you saturday", CreatedAt: time.Now()}

	assert.Equal(t, "Trade Completed", LastActivity(&conv, last, conv.RequesterID))
}

func TestPlaceholderWhenNoMessages(t *testing.T) {
	conv := activityConv()
	assert.Equal(t, "Trading Mountain Bike for Record Player", LastActivity(&conv, nil, conv.RequesterID))
}

func TestLastMessageShownWhenNewerThanUpdate(t *testing.T) {
	conv := activityConv()
	conv.Status = models.TradeStatusAccepted
	conv.OwnerAccepted = true
	conv.UpdatedAt = time.Now().Add(-time.Hour)
	last := &models.TradeMessage{Message: "deal!", CreatedAt: time.Now()}

	assert.Equal(t, "deal!", LastActivity(&conv, last, conv.RequesterID))
}

func TestAcceptLineWhenUpdateIsNewest(t *testing.T) {
	conv := activityConv()
	conv.Status = models.TradeStatusAccepted
	conv.OwnerAccepted = true
	conv.UpdatedAt = time.Now()
	last := &models.TradeMessage{Message: "deal!", CreatedAt: time.Now().Add(-time.Minute)}

	assert.Equal(t, "You accepted the trade", LastActivity(&conv, last, conv.OwnerID))
	assert.Equal(t, "They accepted the trade", LastActivity(&conv, last, conv.RequesterID))
}

func TestNoAcceptFlagShowsMessageEvenIfUpdateNewer(t *testing.T) {
	conv := activityConv()
	conv.UpdatedAt = time.Now()
	last := &models.TradeMessage{Message: "thinking about it", CreatedAt: time.Now().Add(-time.Minute)}

	assert.Equal(t, "thinking about it", LastActivity(&conv, last, conv.RequesterID))
}
