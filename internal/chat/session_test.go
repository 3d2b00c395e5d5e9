package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"barterhub-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusUpdate struct {
	conversationID uint
	status         string
}

type fakeStore struct {
	mu            sync.Mutex
	nextID        int
	insertErr     error
	inserted      []Message
	statusUpdates []statusUpdate
}

func (f *fakeStore) InsertMessage(ctx context.Context, msg Message) (Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return Message{}, f.insertErr
	}
	f.nextID++
	msg.ID = fmt.Sprintf("msg-%d", f.nextID)
	msg.Pending = false
	f.inserted = append(f.inserted, msg)
	return msg, nil
}

func (f *fakeStore) SetConversationStatus(ctx context.Context, conversationID uint, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusUpdates = append(f.statusUpdates, statusUpdate{conversationID, status})
	return nil
}

type fakeSub struct {
	topic  string
	ch     chan ChangeEvent
	mu     sync.Mutex
	closed bool
}

func (s *fakeSub) Events() <-chan ChangeEvent { return s.ch }

func (s *fakeSub) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSub) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeStream struct {
	mu   sync.Mutex
	subs []*fakeSub
}

func (f *fakeStream) Subscribe(topic string) Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &fakeSub{topic: topic, ch: make(chan ChangeEvent, 8)}
	f.subs = append(f.subs, sub)
	return sub
}

func newTradeSession(store *fakeStore, stream *fakeStream) *Session {
	return NewSession(store, stream, Options{UserID: 1})
}

func newSupportSession(store *fakeStore, stream *fakeStream) *Session {
	return NewSession(store, stream, Options{UserID: 1, Support: true})
}

func TestOptimisticSendConfirmsInPlace(t *testing.T) {
	store := &fakeStore{}
	stream := &fakeStream{}
	sess := newTradeSession(store, stream)
	defer sess.Close()

	sess.Open(7, "trade:7", "", nil)
	sess.SetInput("Hello")
	require.NoError(t, sess.Send(context.Background(), nil))

	msgs := sess.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "msg-1", msgs[0].ID)
	assert.Equal(t, "Hello", msgs[0].Text)
	assert.False(t, msgs[0].Pending)
	assert.Empty(t, sess.Input())
}

func TestRealtimePushAfterConfirmIsDeduplicated(t *testing.T) {
	store := &fakeStore{}
	stream := &fakeStream{}
	sess := newTradeSession(store, stream)
	defer sess.Close()

	sess.Open(7, "trade:7", "", nil)
	sess.SetInput("Hello")
	require.NoError(t, sess.Send(context.Background(), nil))

	// The change feed re-delivers the row the session just confirmed.
	confirmed := store.inserted[0]
	stream.subs[0].ch <- ChangeEvent{Type: EventInsert, Message: &confirmed}

	// Give the consumer a moment, then verify exactly one copy survived.
	assert.Eventually(t, func() bool {
		return len(sess.Messages()) == 1
	}, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, sess.Messages(), 1)
}

func TestCounterpartMessageAppended(t *testing.T) {
	store := &fakeStore{}
	stream := &fakeStream{}
	sess := newTradeSession(store, stream)
	defer sess.Close()

	sess.Open(7, "trade:7", "", nil)
	stream.subs[0].ch <- ChangeEvent{Type: EventInsert, Message: &Message{
		ID: "msg-9", ConversationID: 7, SenderID: 2,
		SenderType: models.SenderTypeUser, Text: "is it still available?",
		CreatedAt: time.Now(),
	}}

	assert.Eventually(t, func() bool {
		msgs := sess.Messages()
		return len(msgs) == 1 && msgs[0].ID == "msg-9"
	}, time.Second, 10*time.Millisecond)
}

func TestFailedSendRollsBackAndRestoresInput(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("network down")}
	stream := &fakeStream{}
	sess := newTradeSession(store, stream)
	defer sess.Close()

	sess.Open(7, "trade:7", "", nil)
	sess.SetInput("important message")
	err := sess.Send(context.Background(), nil)

	require.Error(t, err)
	assert.Empty(t, sess.Messages())
	assert.Equal(t, "important message", sess.Input())
}

func TestEmptyMessageRejected(t *testing.T) {
	sess := newTradeSession(&fakeStore{}, &fakeStream{})
	defer sess.Close()

	sess.Open(7, "trade:7", "", nil)
	assert.ErrorIs(t, sess.Send(context.Background(), nil), ErrEmptyMessage)
}

func TestSupportFirstMessageRequiresCategory(t *testing.T) {
	store := &fakeStore{}
	sess := newSupportSession(store, &fakeStream{})
	defer sess.Close()

	sess.Open(3, "support:3", models.SupportStatusOpen, nil)
	sess.SetInput("my uploads are failing")

	err := sess.Send(context.Background(), nil)
	assert.ErrorIs(t, err, ErrCategoryMissing)
	assert.Empty(t, sess.Messages())

	category := "Technical Issue"
	require.NoError(t, sess.Send(context.Background(), &category))
	require.Len(t, sess.Messages(), 1)
	require.NotNil(t, sess.Messages()[0].Category)
	assert.Equal(t, "Technical Issue", *sess.Messages()[0].Category)
}

func TestSupportFollowupNeedsNoCategory(t *testing.T) {
	store := &fakeStore{}
	sess := newSupportSession(store, &fakeStream{})
	defer sess.Close()

	prior := Message{
		ID: "msg-1", ConversationID: 3, SenderID: 1,
		SenderType: models.SenderTypeUser, Kind: models.MessageKindUserText,
		Text: "my uploads are failing", CreatedAt: time.Now().Add(-time.Minute),
	}
	sess.Open(3, "support:3", models.SupportStatusOpen, []Message{prior})
	sess.SetInput("any update?")

	assert.NoError(t, sess.Send(context.Background(), nil))
}

func TestUserMessageReopensClosedTicket(t *testing.T) {
	store := &fakeStore{}
	sess := newSupportSession(store, &fakeStream{})
	defer sess.Close()

	prior := Message{
		ID: "msg-1", ConversationID: 3, SenderID: 1,
		SenderType: models.SenderTypeUser, Kind: models.MessageKindUserText,
		Text: "original issue", CreatedAt: time.Now().Add(-time.Hour),
	}
	sess.Open(3, "support:3", models.SupportStatusClosed, []Message{prior})
	sess.SetInput("it broke again")

	// First message after a close needs a fresh category.
	assert.ErrorIs(t, sess.Send(context.Background(), nil), ErrCategoryMissing)

	category := "Technical Issue"
	require.NoError(t, sess.Send(context.Background(), &category))

	assert.Equal(t, models.SupportStatusOpen, sess.Status())
	require.Len(t, store.statusUpdates, 1)
	assert.Equal(t, statusUpdate{3, models.SupportStatusOpen}, store.statusUpdates[0])
}

func TestSystemClosureClosesTicketLocally(t *testing.T) {
	store := &fakeStore{}
	stream := &fakeStream{}
	sess := newSupportSession(store, stream)
	defer sess.Close()

	sess.Open(3, "support:3", models.SupportStatusOpen, nil)
	stream.subs[0].ch <- ChangeEvent{Type: EventInsert, Message: &Message{
		ID: "msg-5", ConversationID: 3, SenderID: 99,
		SenderType: models.SenderTypeSupport, Kind: models.MessageKindSystemClosure,
		Text: "This ticket has been closed.", CreatedAt: time.Now(),
	}}

	assert.Eventually(t, func() bool {
		return sess.Status() == models.SupportStatusClosed
	}, time.Second, 10*time.Millisecond)
}

func TestUserTypedClosurePhraseDoesNotCloseTicket(t *testing.T) {
	store := &fakeStore{}
	stream := &fakeStream{}
	sess := newSupportSession(store, stream)
	defer sess.Close()

	sess.Open(3, "support:3", models.SupportStatusOpen, nil)
	stream.subs[0].ch <- ChangeEvent{Type: EventInsert, Message: &Message{
		ID: "msg-6", ConversationID: 3, SenderID: 1,
		SenderType: models.SenderTypeUser, Kind: models.MessageKindUserText,
		Text: "This ticket has been closed.", CreatedAt: time.Now(),
	}}

	assert.Eventually(t, func() bool {
		return len(sess.Messages()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, models.SupportStatusOpen, sess.Status())
}

func TestSwitchingConversationTearsDownSubscription(t *testing.T) {
	store := &fakeStore{}
	stream := &fakeStream{}
	sess := newTradeSession(store, stream)
	defer sess.Close()

	sess.Open(7, "trade:7", "", nil)
	sess.Open(8, "trade:8", "", nil)

	require.Len(t, stream.subs, 2)
	assert.True(t, stream.subs[0].isClosed())
	assert.False(t, stream.subs[1].isClosed())

	// An event for the old conversation never reaches the new thread.
	stream.subs[1].ch <- ChangeEvent{Type: EventInsert, Message: &Message{
		ID: "msg-1", ConversationID: 7, SenderID: 2,
		SenderType: models.SenderTypeUser, Text: "stale", CreatedAt: time.Now(),
	}}
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, sess.Messages())
}

func TestRapidSendsKeepOrder(t *testing.T) {
	store := &fakeStore{}
	sess := newTradeSession(store, &fakeStream{})
	defer sess.Close()

	sess.Open(7, "trade:7", "", nil)
	for _, text := range []string{"one", "two", "three"} {
		sess.SetInput(text)
		require.NoError(t, sess.Send(context.Background(), nil))
	}

	msgs := sess.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Text)
	assert.Equal(t, "two", msgs[1].Text)
	assert.Equal(t, "three", msgs[2].Text)
}
