package chat

import (
	"testing"
	"time"

	"barterhub-server/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDuplicateByID(t *testing.T) {
	now := time.Now()
	held := []Message{{ID: "msg-42", Text: "Hello", SenderID: 1, CreatedAt: now}}

	incoming := Message{ID: "msg-42", Text: "Hello", SenderID: 1, CreatedAt: now.Add(5 * time.Second)}
	assert.True(t, isDuplicate(held, incoming))
}

func TestDuplicateByContentProximity(t *testing.T) {
	// The push raced ahead of the insert response: the held copy still has
	// its temp ID but the content and sender line up within the window.
	now := time.Now()
	held := []Message{{
		ID: "temp-1700000000", Text: "Hello",
		SenderID: 1, SenderType: models.SenderTypeUser,
		CreatedAt: now, Pending: true,
	}}

	incoming := Message{
		ID: "msg-42", Text: "Hello",
		SenderID: 1, SenderType: models.SenderTypeUser,
		CreatedAt: now.Add(200 * time.Millisecond),
	}
	assert.True(t, isDuplicate(held, incoming))
}

func TestNotDuplicateOutsideWindow(t *testing.T) {
	now := time.Now()
	held := []Message{{
		ID: "msg-41", Text: "Hello",
		SenderID: 1, SenderType: models.SenderTypeUser,
		CreatedAt: now,
	}}

	// Same text sent again later is a genuine repeat, not a duplicate.
	incoming := Message{
		ID: "msg-42", Text: "Hello",
		SenderID: 1, SenderType: models.SenderTypeUser,
		CreatedAt: now.Add(3 * time.Second),
	}
	assert.False(t, isDuplicate(held, incoming))
}

func TestNotDuplicateDifferentSender(t *testing.T) {
	now := time.Now()
	held := []Message{{
		ID: "msg-41", Text: "ok",
		SenderID: 1, SenderType: models.SenderTypeUser,
		CreatedAt: now,
	}}

	incoming := Message{
		ID: "msg-42", Text: "ok",
		SenderID: 2, SenderType: models.SenderTypeUser,
		CreatedAt: now,
	}
	assert.False(t, isDuplicate(held, incoming))
}

func TestNotDuplicateDifferentSenderType(t *testing.T) {
	now := time.Now()
	held := []Message{{
		ID: "msg-41", Text: "ok",
		SenderID: 1, SenderType: models.SenderTypeUser,
		CreatedAt: now,
	}}

	incoming := Message{
		ID: "msg-42", Text: "ok",
		SenderID: 1, SenderType: models.SenderTypeSupport,
		CreatedAt: now,
	}
	assert.False(t, isDuplicate(held, incoming))
}
