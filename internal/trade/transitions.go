package trade

import (
	"errors"
	"fmt"

	"barterhub-server/internal/models"
)

var (
	ErrNotParticipant  = errors.New("user is not a party to this trade")
	ErrTerminalStatus  = errors.New("trade is already in a terminal status")
	ErrAlreadyAccepted = errors.New("user has already accepted this trade")
)

// ApplyAccept sets the calling party's acceptance flag on the in-memory
// conversation. The first acceptance promotes a pending conversation to
// accepted; the second party's acceptance leaves status alone and arms the
// completion sweep.
func ApplyAccept(c *models.TradeConversation, userID uint) error {
	if !c.HasUser(userID) {
		return ErrNotParticipant
	}
	if c.Terminal() {
		return fmt.Errorf("%w: %s", ErrTerminalStatus, c.Status)
	}

	switch userID {
	case c.RequesterID:
		if c.RequesterAccepted {
			return ErrAlreadyAccepted
		}
		c.RequesterAccepted = true
	case c.OwnerID:
		if c.OwnerAccepted {
			return ErrAlreadyAccepted
		}
		c.OwnerAccepted = true
	}

	if c.Status == models.TradeStatusPending {
		c.Status = models.TradeStatusAccepted
	}
	return nil
}

// ApplyReject moves a pending conversation to rejected. Rejects take
// precedence over cancels: a reject only requires that the conversation has
// not reached a terminal status, so a simultaneous cancel that lost the race
// becomes a no-op instead of overwriting the rejection.
func ApplyReject(c *models.TradeConversation, userID uint) error {
	if !c.HasUser(userID) {
		return ErrNotParticipant
	}
	if c.Terminal() {
		return fmt.Errorf("%w: %s", ErrTerminalStatus, c.Status)
	}
	c.Status = models.TradeStatusRejected
	return nil
}

// ApplyCancel moves a pending conversation to cancelled. Only the pending
// state may be cancelled; anything else (including a just-applied reject)
// refuses the transition.
func ApplyCancel(c *models.TradeConversation, userID uint) error {
	if !c.HasUser(userID) {
		return ErrNotParticipant
	}
	if c.Status != models.TradeStatusPending {
		return fmt.Errorf("%w: %s", ErrTerminalStatus, c.Status)
	}
	c.Status = models.TradeStatusCancelled
	return nil
}

// ShouldComplete reports whether the completion sweep may promote the
// conversation. Only an accepted conversation with both flags set qualifies,
// which makes the promotion monotonic and safe to re-apply.
func ShouldComplete(c *models.TradeConversation) bool {
	return c.Status == models.TradeStatusAccepted && c.RequesterAccepted && c.OwnerAccepted
}

// SweepCandidates returns the IDs of conversations the sweep should promote
// to completed. Already-completed rows are skipped, so running the sweep
// twice is a no-op.
func SweepCandidates(convs []models.TradeConversation) []uint {
	var ids []uint
	for i := range convs {
		if ShouldComplete(&convs[i]) {
			ids = append(ids, convs[i].ID)
		}
	}
	return ids
}
