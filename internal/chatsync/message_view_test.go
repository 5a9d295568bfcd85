package chatsync

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kaamsetu/kaamsetu-api/internal/models"
	"github.com/kaamsetu/kaamsetu-api/internal/store"
)

func msgAt(text string, at time.Time) models.Message {
	return models.Message{ID: uuid.New(), Text: text, CreatedAt: at}
}

func added(m models.Message) store.MessageEvent {
	return store.MessageEvent{Kind: store.ChangeAdded, Message: m}
}

func TestMessageViewDuplicateAddedDropped(t *testing.T) {
	v := NewMessageView()
	m := msgAt("hello", time.Now())

	v.Apply(added(m))
	v.Apply(added(m)) // replayed delivery
	v.Apply(added(m))

	if v.Len() != 1 {
		t.Fatalf("len = %d after duplicate adds, want 1", v.Len())
	}
}

func TestMessageViewOrdering(t *testing.T) {
	v := NewMessageView()
	base := time.Now()

	second := msgAt("second", base.Add(2*time.Second))
	first := msgAt("first", base.Add(time.Second))
	third := msgAt("third", base.Add(3*time.Second))

	// out of order on purpose
	v.Apply(added(second))
	v.Apply(added(third))
	v.Apply(added(first))

	got := v.Messages()
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Text != want {
			t.Fatalf("position %d = %q, want %q", i, got[i].Text, want)
		}
	}
}

func TestMessageViewLoadThenApply(t *testing.T) {
	v := NewMessageView()
	base := time.Now()

	a := msgAt("a", base)
	b := msgAt("b", base.Add(time.Second))
	v.Load([]models.Message{b, a})

	if v.Empty() || v.Len() != 2 {
		t.Fatalf("after load: len = %d", v.Len())
	}

	// the snapshot's last element may be replayed as an event
	v.Apply(added(b))
	if v.Len() != 2 {
		t.Fatalf("replayed snapshot tail duplicated: len = %d", v.Len())
	}

	c := msgAt("c", base.Add(2*time.Second))
	v.Apply(added(c))
	got := v.Messages()
	if got[len(got)-1].Text != "c" {
		t.Fatalf("tail = %q, want c", got[len(got)-1].Text)
	}
}

func TestMessageViewModified(t *testing.T) {
	v := NewMessageView()
	m := msgAt("draft", time.Now())
	v.Apply(added(m))

	m.Text = "final"
	v.Apply(store.MessageEvent{Kind: store.ChangeModified, Message: m})

	got := v.Messages()
	if len(got) != 1 || got[0].Text != "final" {
		t.Fatalf("messages = %+v", got)
	}
}

func TestMessageViewRemoved(t *testing.T) {
	v := NewMessageView()
	keep := msgAt("keep", time.Now())
	drop := msgAt("drop", time.Now().Add(time.Second))
	v.Load([]models.Message{keep, drop})

	v.Apply(store.MessageEvent{Kind: store.ChangeRemoved, Message: drop})
	got := v.Messages()
	if len(got) != 1 || got[0].Text != "keep" {
		t.Fatalf("messages = %+v", got)
	}

	// removing it again is a no-op
	v.Apply(store.MessageEvent{Kind: store.ChangeRemoved, Message: drop})
	if v.Len() != 1 {
		t.Fatalf("len = %d", v.Len())
	}

	// and the id can come back
	v.Apply(added(drop))
	if v.Len() != 2 {
		t.Fatalf("re-added message missing: len = %d", v.Len())
	}
}
