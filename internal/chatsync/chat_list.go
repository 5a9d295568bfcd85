package chatsync

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/kaamsetu/kaamsetu-api/internal/models"
	"github.com/kaamsetu/kaamsetu-api/internal/store"
)

// ProfileLookup resolves a batch of user ids to profiles. Satisfied by
// store.Store.GetUsersByIDs.
type ProfileLookup func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)

// ChatListView mirrors one user's chat list, ordered descending by
// last-message time, together with an id->profile table for the other
// participant of each chat.
type ChatListView struct {
	userID uuid.UUID

	chats    []models.Chat
	index    map[string]bool
	profiles map[uuid.UUID]models.User

	// pending collects participant ids seen in a batch of events so
	// one lookup can resolve them all.
	pending map[uuid.UUID]bool
}

func NewChatListView(userID uuid.UUID) *ChatListView {
	v := &ChatListView{userID: userID}
	v.Reset()
	return v
}

// Reset clears the mirror and the profile table, as done before a
// re-subscribe.
func (v *ChatListView) Reset() {
	v.chats = nil
	v.index = make(map[string]bool)
	v.profiles = make(map[uuid.UUID]models.User)
	v.pending = make(map[uuid.UUID]bool)
}

// Load replaces the mirror with a full snapshot and queues every other
// participant for profile resolution.
func (v *ChatListView) Load(chats []models.Chat) {
	v.Reset()
	for _, c := range chats {
		v.apply(store.ChatEvent{Kind: store.ChangeAdded, Chat: c})
	}
}

// Apply merges one change event.
func (v *ChatListView) Apply(ev store.ChatEvent) {
	v.apply(ev)
}

func (v *ChatListView) apply(ev store.ChatEvent) {
	switch ev.Kind {
	case store.ChangeAdded:
		if v.index[ev.Chat.ID] {
			return
		}
		v.index[ev.Chat.ID] = true
		v.chats = append(v.chats, ev.Chat)
		other := ev.Chat.Other(v.userID)
		if _, known := v.profiles[other]; !known {
			v.pending[other] = true
		}

	case store.ChangeModified:
		for i := range v.chats {
			if v.chats[i].ID == ev.Chat.ID {
				v.chats[i] = ev.Chat
				break
			}
		}

	case store.ChangeRemoved:
		for i := range v.chats {
			if v.chats[i].ID == ev.Chat.ID {
				v.chats = append(v.chats[:i], v.chats[i+1:]...)
				delete(v.index, ev.Chat.ID)
				break
			}
		}
	}
	v.sortByLastMessage()
}

// ResolveProfiles drains the pending set through one batched lookup
// and merges the results into the profile table.
func (v *ChatListView) ResolveProfiles(ctx context.Context, lookup ProfileLookup) error {
	if len(v.pending) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(v.pending))
	for id := range v.pending {
		ids = append(ids, id)
	}
	found, err := lookup(ctx, ids)
	if err != nil {
		return err
	}
	for id, u := range found {
		v.profiles[id] = u
	}
	v.pending = make(map[uuid.UUID]bool)
	return nil
}

func (v *ChatListView) sortByLastMessage() {
	sort.SliceStable(v.chats, func(i, j int) bool {
		return v.chats[i].LastMessageAt.After(v.chats[j].LastMessageAt)
	})
}

func (v *ChatListView) Len() int { return len(v.chats) }

// Chats returns a copy of the ordered mirror.
func (v *ChatListView) Chats() []models.Chat {
	out := make([]models.Chat, len(v.chats))
	copy(out, v.chats)
	return out
}

// Profile returns the resolved profile for a participant, if known.
func (v *ChatListView) Profile(id uuid.UUID) (models.User, bool) {
	u, ok := v.profiles[id]
	return u, ok
}
