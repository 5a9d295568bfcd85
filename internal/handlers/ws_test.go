package handlers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kaamsetu/kaamsetu-api/internal/chatsync"
	"github.com/kaamsetu/kaamsetu-api/internal/models"
	"github.com/kaamsetu/kaamsetu-api/internal/realtime"
	"github.com/kaamsetu/kaamsetu-api/internal/store"
)

func newWSTestStore(t *testing.T) *store.Store {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// One connection keeps every session on the same in-memory database.
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := gdb.AutoMigrate(
		&models.User{}, &models.Job{}, &models.Bid{},
		&models.Chat{}, &models.Message{}, &models.Notification{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store.New(gdb)
}

func wsTestUser(t *testing.T, st *store.Store, name string) *models.User {
	t.Helper()
	email := name + "@example.com"
	u := &models.User{Name: name, Email: &email, Role: models.RoleLabour, IsActive: true}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

// Disconnecting while chat events are still being delivered must never
// write to the channel the hub closes on unregister.
func TestWSSessionTeardownWithEventsInFlight(t *testing.T) {
	st := newWSTestStore(t)
	ctx := context.Background()

	a := wsTestUser(t, st, "anil")
	b := wsTestUser(t, st, "banu")
	chat, err := st.CreateChat(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}

	client := &realtime.Client{ID: "conn-1", UserID: a.ID, Send: make(chan []byte, 4)}
	session := &wsSession{
		store:    st,
		client:   client,
		userID:   a.ID,
		chatView: chatsync.NewChatListView(a.ID),
	}
	session.startChatList()
	session.join(chat.ID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			msg := &models.Message{
				ChatID:     chat.ID,
				SenderID:   b.ID,
				ReceiverID: a.ID,
				Text:       fmt.Sprintf("message %d", i),
			}
			if err := st.SendMessage(ctx, msg); err != nil {
				t.Errorf("SendMessage: %v", err)
				return
			}
		}
	}()

	// disconnect mid-stream, in the order the handler's defer runs: the
	// session is torn down, then the hub closes the send channel
	time.Sleep(5 * time.Millisecond)
	session.teardown()
	close(client.Send)
	<-done

	// stragglers after the close are dropped, not sent
	session.send(fiber.Map{"type": "chat_list"})
}

func TestWSSessionLeaveIsIdempotent(t *testing.T) {
	st := newWSTestStore(t)
	ctx := context.Background()

	a := wsTestUser(t, st, "chitra")
	b := wsTestUser(t, st, "dinesh")
	chat, err := st.CreateChat(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}

	client := &realtime.Client{ID: "conn-2", UserID: a.ID, Send: make(chan []byte, 16)}
	session := &wsSession{
		store:    st,
		client:   client,
		userID:   a.ID,
		chatView: chatsync.NewChatListView(a.ID),
	}
	session.join(chat.ID)
	session.leave()
	session.leave()
	session.teardown()
	session.teardown()
}
