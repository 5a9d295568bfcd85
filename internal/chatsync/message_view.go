// Package chatsync reconciles incremental change events into ordered
// local mirrors. The structures are plain merges with no transport or
// storage dependency; the websocket layer drives them.
package chatsync

import (
	"sort"

	"github.com/google/uuid"

	"github.com/kaamsetu/kaamsetu-api/internal/models"
	"github.com/kaamsetu/kaamsetu-api/internal/store"
)

// MessageView is a live mirror of one chat's messages, ordered
// ascending by creation time.
type MessageView struct {
	messages []models.Message
	index    map[uuid.UUID]bool
}

func NewMessageView() *MessageView {
	return &MessageView{index: make(map[uuid.UUID]bool)}
}

// Load replaces the mirror with a full snapshot, e.g. the initial
// fetch before the first change event arrives.
func (v *MessageView) Load(msgs []models.Message) {
	v.messages = append(v.messages[:0], msgs...)
	v.index = make(map[uuid.UUID]bool, len(msgs))
	for _, m := range msgs {
		v.index[m.ID] = true
	}
	v.sortByTime()
}

// Apply merges one change event. A duplicate "added" for an id already
// present is dropped, which absorbs replayed deliveries.
func (v *MessageView) Apply(ev store.MessageEvent) {
	switch ev.Kind {
	case store.ChangeAdded:
		if v.index[ev.Message.ID] {
			return
		}
		v.index[ev.Message.ID] = true
		v.messages = append(v.messages, ev.Message)
		v.sortByTime()

	case store.ChangeModified:
		for i := range v.messages {
			if v.messages[i].ID == ev.Message.ID {
				v.messages[i] = ev.Message
				break
			}
		}

	case store.ChangeRemoved:
		for i := range v.messages {
			if v.messages[i].ID == ev.Message.ID {
				v.messages = append(v.messages[:i], v.messages[i+1:]...)
				delete(v.index, ev.Message.ID)
				break
			}
		}
	}
}

func (v *MessageView) sortByTime() {
	sort.SliceStable(v.messages, func(i, j int) bool {
		return v.messages[i].CreatedAt.Before(v.messages[j].CreatedAt)
	})
}

func (v *MessageView) Len() int { return len(v.messages) }

func (v *MessageView) Empty() bool { return len(v.messages) == 0 }

// Messages returns a copy of the ordered mirror.
func (v *MessageView) Messages() []models.Message {
	out := make([]models.Message, len(v.messages))
	copy(out, v.messages)
	return out
}
