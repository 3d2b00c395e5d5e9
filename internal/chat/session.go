package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"barterhub-server/internal/models"

	"github.com/sirupsen/logrus"
)

var (
	ErrEmptyMessage    = errors.New("message text must not be empty")
	ErrCategoryMissing = errors.New("a category is required on the first message of a conversation")
	ErrNoConversation  = errors.New("no conversation is active in this session")
)

// Session owns the message list for one open conversation and merges three
// sources without duplication: the initial bulk fetch, optimistic local
// sends, and the realtime change feed. One subscription is held per active
// conversation; switching conversations tears the old one down so stale
// events can never leak into the wrong thread.
type Session struct {
	store  Store
	stream Stream
	log    *logrus.Entry

	// Support sessions enforce the category-tag rule and track open/closed.
	support bool
	userID  uint

	mu             sync.Mutex
	conversationID uint
	topic          string
	status         string
	reopened       bool
	messages       []Message
	input          string
	sub            Subscription
	done           chan struct{}
}

// Store is the slice of the relationship store a session needs.
type Store = MessageStore

type Options struct {
	UserID  uint
	Support bool
}

func NewSession(store Store, stream Stream, opts Options) *Session {
	return &Session{
		store:   store,
		stream:  stream,
		support: opts.Support,
		userID:  opts.UserID,
		log:     logrus.WithField("component", "chat_session"),
	}
}

// Open makes the given conversation active: any previous subscription is
// closed first, then the initial messages are loaded and a fresh
// subscription is consumed until the next Open or Close.
func (s *Session) Open(conversationID uint, topic, status string, initial []Message) {
	s.mu.Lock()
	s.teardownLocked()

	s.conversationID = conversationID
	s.topic = topic
	s.status = status
	s.reopened = false
	s.messages = append([]Message(nil), initial...)

	s.sub = s.stream.Subscribe(topic)
	s.done = make(chan struct{})
	go s.consume(s.sub, s.done)
	s.mu.Unlock()
}

// Close tears down the active subscription, if any.
func (s *Session) Close() {
	s.mu.Lock()
	s.teardownLocked()
	s.conversationID = 0
	s.mu.Unlock()
}

func (s *Session) teardownLocked() {
	if s.sub != nil {
		s.sub.Close()
		s.sub = nil
	}
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
}

func (s *Session) consume(sub Subscription, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			s.handleEvent(ev)
		}
	}
}

func (s *Session) handleEvent(ev ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Type {
	case EventInsert:
		if ev.Message == nil || ev.Message.ConversationID != s.conversationID {
			return
		}
		if isDuplicate(s.messages, *ev.Message) {
			return
		}
		s.messages = append(s.messages, *ev.Message)

		// A structured closure from the support side closes the ticket
		// locally. User-typed text can never trip this.
		if s.support &&
			ev.Message.Kind == models.MessageKindSystemClosure &&
			ev.Message.SenderType == models.SenderTypeSupport {
			s.status = models.SupportStatusClosed
		}
	case EventStatusChange:
		if ev.Status != "" {
			s.status = ev.Status
		}
	}
}

// SetInput models the message input field so a failed send can restore what
// the user had typed.
func (s *Session) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
}

func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Send runs the optimistic send protocol for the current input: append a
// provisional message and clear the input immediately, then persist. On
// success the provisional entry is replaced in place by the server row; on
// failure it is removed and the input restored verbatim.
//
// For support conversations a category is required on the first message and
// on the first message after a reopen, and a user message sent while the
// ticket is closed reopens it both locally and in the store.
func (s *Session) Send(ctx context.Context, category *string) error {
	s.mu.Lock()
	if s.conversationID == 0 {
		s.mu.Unlock()
		return ErrNoConversation
	}
	text := s.input
	if text == "" {
		s.mu.Unlock()
		return ErrEmptyMessage
	}
	if s.support && s.needsCategoryLocked() && category == nil {
		s.mu.Unlock()
		return ErrCategoryMissing
	}

	wasClosed := s.support && s.status == models.SupportStatusClosed

	provisional := Message{
		ID:             tempID(),
		ConversationID: s.conversationID,
		SenderID:       s.userID,
		SenderType:     models.SenderTypeUser,
		Kind:           models.MessageKindUserText,
		Text:           text,
		Category:       category,
		CreatedAt:      time.Now(),
		Pending:        true,
	}
	s.messages = append(s.messages, provisional)
	s.input = ""
	if wasClosed {
		// Display as reopened immediately; the store update follows.
		s.status = models.SupportStatusOpen
		s.reopened = true
	}
	s.mu.Unlock()

	saved, err := s.store.InsertMessage(ctx, provisional)
	if err != nil {
		s.rollback(provisional.ID, text, wasClosed)
		return fmt.Errorf("failed to send message: %w", err)
	}

	s.confirm(provisional.ID, saved)

	s.mu.Lock()
	// The first message after a reopen has now been delivered with its
	// category, so the requirement is satisfied.
	s.reopened = false
	s.mu.Unlock()

	if wasClosed {
		if err := s.store.SetConversationStatus(ctx, provisional.ConversationID, models.SupportStatusOpen); err != nil {
			// The message made it through; the reopen will be retried by
			// the next send. Keep local state open.
			s.log.WithError(err).Warn("failed to persist conversation reopen")
		}
	}
	return nil
}

// confirm swaps the provisional message for the server row, preserving its
// position so rapid consecutive sends keep their send order.
func (s *Session) confirm(tempID string, saved Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == tempID {
			saved.Pending = false
			s.messages[i] = saved
			return
		}
	}
	// Already replaced by the realtime push racing the response; make sure
	// the canonical row is not duplicated.
	if !isDuplicate(s.messages, saved) {
		s.messages = append(s.messages, saved)
	}
}

func (s *Session) rollback(tempID, text string, wasClosed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == tempID {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			break
		}
	}
	s.input = text
	if wasClosed {
		s.status = models.SupportStatusClosed
		s.reopened = false
	}
}

// needsCategoryLocked reports whether the next user message must carry a
// category tag: the very first message of the conversation, or the first
// one after a reopen.
func (s *Session) needsCategoryLocked() bool {
	if s.reopened {
		return true
	}
	if s.status == models.SupportStatusClosed {
		// The send below will reopen; it needs a category.
		return true
	}
	for i := range s.messages {
		if s.messages[i].SenderType == models.SenderTypeUser && s.messages[i].Kind == models.MessageKindUserText {
			return false
		}
	}
	return true
}

// Messages returns a snapshot of the ordered message list.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func tempID() string {
	return fmt.Sprintf("temp-%d", time.Now().UnixNano())
}
