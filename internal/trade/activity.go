package trade

import (
	"fmt"

	"barterhub-server/internal/models"
)

// LastActivity derives the conversation list's activity line for a viewer.
//
// Completed trades always read "Trade Completed". Otherwise, if the
// conversation record was touched at least as recently as the newest message
// and an acceptance flag is set, the accept wins the line; failing that, the
// literal last message is shown, or a synthesized placeholder when nothing
// has been said yet.
func LastActivity(c *models.TradeConversation, last *models.TradeMessage, viewerID uint) string {
	if c.Status == models.TradeStatusCompleted {
		return "Trade Completed"
	}

	anyAccepted := c.RequesterAccepted || c.OwnerAccepted
	if anyAccepted && (last == nil || !c.UpdatedAt.Before(last.CreatedAt)) {
		if viewerAccepted(c, viewerID) {
			return "You accepted the trade"
		}
		return "They accepted the trade"
	}

	if last != nil {
		return last.Message
	}
	return fmt.Sprintf("Trading %s for %s", c.RequesterItem.Name, c.OwnerItem.Name)
}

func viewerAccepted(c *models.TradeConversation, viewerID uint) bool {
	switch viewerID {
	case c.RequesterID:
		return c.RequesterAccepted
	case c.OwnerID:
		return c.OwnerAccepted
	}
	return false
}

// OpeningMessage is the system-authored first message summarizing the
// proposed exchange.
func OpeningMessage(requesterItemName, ownerItemName string) string {
	return fmt.Sprintf("Hi! I'm interested in trading my item (%s) for your %s. Let me know if you'd like to swap!",
		requesterItemName, ownerItemName)
}
