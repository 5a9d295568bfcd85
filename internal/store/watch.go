package store

import (
	"sync"

	"github.com/google/uuid"

	"github.com/kaamsetu/kaamsetu-api/internal/models"
)

type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

type MessageEvent struct {
	Kind    ChangeKind     `json:"kind"`
	Message models.Message `json:"message"`
}

type ChatEvent struct {
	Kind ChangeKind  `json:"kind"`
	Chat models.Chat `json:"chat"`
}

// MessageSub is a live handle on one chat's message stream. Events are
// dropped rather than blocking the store when the consumer lags.
type MessageSub struct {
	C chan MessageEvent

	chatID string
	reg    *watchRegistry
	once   sync.Once
}

func (sub *MessageSub) Unsubscribe() {
	sub.once.Do(func() { sub.reg.dropMessageSub(sub) })
}

// ChatSub is a live handle on a user's chat list.
type ChatSub struct {
	C chan ChatEvent

	userID uuid.UUID
	reg    *watchRegistry
	once   sync.Once
}

func (sub *ChatSub) Unsubscribe() {
	sub.once.Do(func() { sub.reg.dropChatSub(sub) })
}

// watchRegistry keeps the live subscriptions, in the same shape as the
// websocket hub: a mutex-guarded map per key, non-blocking sends.
type watchRegistry struct {
	mu          sync.RWMutex
	messageSubs map[string]map[*MessageSub]bool
	chatSubs    map[uuid.UUID]map[*ChatSub]bool
}

func newWatchRegistry() *watchRegistry {
	return &watchRegistry{
		messageSubs: make(map[string]map[*MessageSub]bool),
		chatSubs:    make(map[uuid.UUID]map[*ChatSub]bool),
	}
}

// WatchMessages subscribes to change events for one chat. The caller
// owns the subscription and must Unsubscribe when the view goes away.
func (s *Store) WatchMessages(chatID string) *MessageSub {
	sub := &MessageSub{
		C:      make(chan MessageEvent, 64),
		chatID: chatID,
		reg:    s.watch,
	}
	s.watch.mu.Lock()
	if s.watch.messageSubs[chatID] == nil {
		s.watch.messageSubs[chatID] = make(map[*MessageSub]bool)
	}
	s.watch.messageSubs[chatID][sub] = true
	s.watch.mu.Unlock()
	return sub
}

// WatchChats subscribes to chat-list change events for one user.
func (s *Store) WatchChats(userID uuid.UUID) *ChatSub {
	sub := &ChatSub{
		C:      make(chan ChatEvent, 64),
		userID: userID,
		reg:    s.watch,
	}
	s.watch.mu.Lock()
	if s.watch.chatSubs[userID] == nil {
		s.watch.chatSubs[userID] = make(map[*ChatSub]bool)
	}
	s.watch.chatSubs[userID][sub] = true
	s.watch.mu.Unlock()
	return sub
}

func (r *watchRegistry) dropMessageSub(sub *MessageSub) {
	r.mu.Lock()
	if subs := r.messageSubs[sub.chatID]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(r.messageSubs, sub.chatID)
		}
	}
	r.mu.Unlock()
	close(sub.C)
}

func (r *watchRegistry) dropChatSub(sub *ChatSub) {
	r.mu.Lock()
	if subs := r.chatSubs[sub.userID]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(r.chatSubs, sub.userID)
		}
	}
	r.mu.Unlock()
	close(sub.C)
}

func (r *watchRegistry) publishMessage(ev MessageEvent) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for sub := range r.messageSubs[ev.Message.ChatID] {
		select {
		case sub.C <- ev:
		default:
			// consumer is behind, skip instead of blocking the write path
		}
	}
}

func (r *watchRegistry) publishChat(ev ChatEvent) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, userID := range []uuid.UUID{ev.Chat.ParticipantA, ev.Chat.ParticipantB} {
		for sub := range r.chatSubs[userID] {
			select {
			case sub.C <- ev:
			default:
			}
		}
	}
}
