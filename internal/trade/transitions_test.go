package trade

import (
	"testing"

	"barterhub-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingConv() models.TradeConversation {
	return models.TradeConversation{
		ID:          1,
		RequesterID: 10,
		OwnerID:     20,
		Status:      models.TradeStatusPending,
	}
}

func TestFirstAcceptPromotesToAccepted(t *testing.T) {
	conv := pendingConv()

	require.NoError(t, ApplyAccept(&conv, conv.OwnerID))
	assert.Equal(t, models.TradeStatusAccepted, conv.Status)
	assert.True(t, conv.OwnerAccepted)
	assert.False(t, conv.RequesterAccepted)
}

func TestSecondAcceptSetsOwnFlagOnly(t *testing.T) {
	conv := pendingConv()
	require.NoError(t, ApplyAccept(&conv, conv.OwnerID))
	require.NoError(t, ApplyAccept(&conv, conv.RequesterID))

	assert.Equal(t, models.TradeStatusAccepted, conv.Status)
	assert.True(t, conv.OwnerAccepted)
	assert.True(t, conv.RequesterAccepted)
}

func TestAcceptByStranger(t *testing.T) {
	conv := pendingConv()
	assert.ErrorIs(t, ApplyAccept(&conv, 999), ErrNotParticipant)
}

func TestDoubleAcceptBySameParty(t *testing.T) {
	conv := pendingConv()
	require.NoError(t, ApplyAccept(&conv, conv.OwnerID))
	assert.ErrorIs(t, ApplyAccept(&conv, conv.OwnerID), ErrAlreadyAccepted)
}

func TestAcceptAfterTerminalRefused(t *testing.T) {
	for _, status := range []string{
		models.TradeStatusRejected,
		models.TradeStatusCancelled,
		models.TradeStatusCompleted,
	} {
		conv := pendingConv()
		conv.Status = status
		assert.ErrorIs(t, ApplyAccept(&conv, conv.OwnerID), ErrTerminalStatus, status)
	}
}

func TestRejectFromPending(t *testing.T) {
	conv := pendingConv()
	require.NoError(t, ApplyReject(&conv, conv.OwnerID))
	assert.Equal(t, models.TradeStatusRejected, conv.Status)
}

func TestCancelFromPending(t *testing.T) {
	conv := pendingConv()
	require.NoError(t, ApplyCancel(&conv, conv.RequesterID))
	assert.Equal(t, models.TradeStatusCancelled, conv.Status)
}

func TestRejectWinsOverCancel(t *testing.T) {
	// Owner rejects; the requester's racing cancel observes the terminal
	// status and becomes a refused no-op.
	conv := pendingConv()
	require.NoError(t, ApplyReject(&conv, conv.OwnerID))
	assert.ErrorIs(t, ApplyCancel(&conv, conv.RequesterID), ErrTerminalStatus)
	assert.Equal(t, models.TradeStatusRejected, conv.Status)
}

func TestCancelAfterAcceptRefused(t *testing.T) {
	conv := pendingConv()
	require.NoError(t, ApplyAccept(&conv, conv.OwnerID))
	assert.Error(t, ApplyCancel(&conv, conv.RequesterID))
	assert.Equal(t, models.TradeStatusAccepted, conv.Status)
}

func TestShouldCompleteRequiresBothFlags(t *testing.T) {
	conv := pendingConv()
	conv.Status = models.TradeStatusAccepted

	conv.RequesterAccepted = true
	assert.False(t, ShouldComplete(&conv))

	conv.RequesterAccepted = false
	conv.OwnerAccepted = true
	assert.False(t, ShouldComplete(&conv))

	conv.RequesterAccepted = true
	assert.True(t, ShouldComplete(&conv))
}

func TestShouldCompleteOnlyFromAccepted(t *testing.T) {
	conv := pendingConv()
	conv.RequesterAccepted = true
	conv.OwnerAccepted = true

	for _, status := range []string{
		models.TradeStatusPending,
		models.TradeStatusRejected,
		models.TradeStatusCancelled,
		models.TradeStatusCompleted,
	} {
		conv.Status = status
		assert.False(t, ShouldComplete(&conv), status)
	}
}

func TestSweepCandidatesIdempotent(t *testing.T) {
	ready := pendingConv()
	ready.Status = models.TradeStatusAccepted
	ready.RequesterAccepted = true
	ready.OwnerAccepted = true

	halfway := pendingConv()
	halfway.ID = 2
	halfway.Status = models.TradeStatusAccepted
	halfway.RequesterAccepted = true

	done := pendingConv()
	done.ID = 3
	done.Status = models.TradeStatusCompleted
	done.RequesterAccepted = true
	done.OwnerAccepted = true

	convs := []models.TradeConversation{ready, halfway, done}
	assert.Equal(t, []uint{1}, SweepCandidates(convs))

	// Promote and re-run: nothing left to do.
	convs[0].Status = models.TradeStatusCompleted
	assert.Empty(t, SweepCandidates(convs))
}
