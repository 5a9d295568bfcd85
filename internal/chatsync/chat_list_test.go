package chatsync

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kaamsetu/kaamsetu-api/internal/models"
	"github.com/kaamsetu/kaamsetu-api/internal/store"
)

func chatBetween(me, other uuid.UUID, lastAt time.Time) models.Chat {
	pa, pb := me, other
	if pb.String() < pa.String() {
		pa, pb = pb, pa
	}
	return models.Chat{
		ID:            models.ChatIDFor(me, other),
		ParticipantA:  pa,
		ParticipantB:  pb,
		LastMessageAt: lastAt,
	}
}

func TestChatListViewOrdering(t *testing.T) {
	me := uuid.New()
	v := NewChatListView(me)
	base := time.Now()

	old := chatBetween(me, uuid.New(), base.Add(-time.Hour))
	recent := chatBetween(me, uuid.New(), base)
	v.Load([]models.Chat{old, recent})

	got := v.Chats()
	if len(got) != 2 || got[0].ID != recent.ID {
		t.Fatalf("chats not ordered by last message: %+v", got)
	}

	// a new message in the old chat moves it to the top
	old.LastMessage = "are you free tomorrow"
	old.LastMessageAt = base.Add(time.Minute)
	v.Apply(store.ChatEvent{Kind: store.ChangeModified, Chat: old})

	got = v.Chats()
	if got[0].ID != old.ID || got[0].LastMessage != "are you free tomorrow" {
		t.Fatalf("modified chat not promoted: %+v", got)
	}
}

func TestChatListViewDuplicateAddedDropped(t *testing.T) {
	me := uuid.New()
	v := NewChatListView(me)
	c := chatBetween(me, uuid.New(), time.Now())

	v.Apply(store.ChatEvent{Kind: store.ChangeAdded, Chat: c})
	v.Apply(store.ChatEvent{Kind: store.ChangeAdded, Chat: c})

	if v.Len() != 1 {
		t.Fatalf("len = %d after duplicate adds, want 1", v.Len())
	}
}

func TestChatListViewResolveProfiles(t *testing.T) {
	me := uuid.New()
	other1 := uuid.New()
	other2 := uuid.New()
	v := NewChatListView(me)

	v.Load([]models.Chat{
		chatBetween(me, other1, time.Now()),
		chatBetween(me, other2, time.Now().Add(-time.Minute)),
	})

	var lookups int
	lookup := func(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
		lookups++
		out := make(map[uuid.UUID]models.User, len(ids))
		for _, id := range ids {
			out[id] = models.User{ID: id, Name: "resolved"}
		}
		return out, nil
	}

	if err := v.ResolveProfiles(context.Background(), lookup); err != nil {
		t.Fatalf("ResolveProfiles: %v", err)
	}
	if lookups != 1 {
		t.Fatalf("lookups = %d, want one batched call", lookups)
	}
	for _, id := range []uuid.UUID{other1, other2} {
		if _, ok := v.Profile(id); !ok {
			t.Fatalf("profile %s not resolved", id)
		}
	}
	if _, ok := v.Profile(me); ok {
		t.Fatal("own profile should not be in the table")
	}

	// nothing pending, no second call
	if err := v.ResolveProfiles(context.Background(), lookup); err != nil {
		t.Fatalf("ResolveProfiles: %v", err)
	}
	if lookups != 1 {
		t.Fatalf("lookups = %d after drain, want 1", lookups)
	}
}

func TestChatListViewReset(t *testing.T) {
	me := uuid.New()
	v := NewChatListView(me)
	v.Load([]models.Chat{chatBetween(me, uuid.New(), time.Now())})

	v.Reset()
	if v.Len() != 0 {
		t.Fatalf("len = %d after reset", v.Len())
	}

	// the same chat id is accepted again after a reset
	c := chatBetween(me, uuid.New(), time.Now())
	v.Apply(store.ChatEvent{Kind: store.ChangeAdded, Chat: c})
	if v.Len() != 1 {
		t.Fatalf("len = %d", v.Len())
	}
}
