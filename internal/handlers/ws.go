package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/kaamsetu/kaamsetu-api/internal/chatsync"
	"github.com/kaamsetu/kaamsetu-api/internal/middleware"
	"github.com/kaamsetu/kaamsetu-api/internal/models"
	"github.com/kaamsetu/kaamsetu-api/internal/realtime"
	"github.com/kaamsetu/kaamsetu-api/internal/store"
	"github.com/kaamsetu/kaamsetu-api/internal/utils"
)

// wsSession holds one connection's live state: the hub registration,
// the chat-list subscription, and at most one joined chat. Everything
// is torn down when the socket closes, so no subscription outlives its
// connection.
type wsSession struct {
	store  *store.Store
	client *realtime.Client
	userID uuid.UUID

	mu       sync.Mutex
	closed   bool
	chatSub  *store.ChatSub
	chatView *chatsync.ChatListView
	msgSub   *store.MessageSub
	msgView  *chatsync.MessageView
}

// wsUserID validates the session token and returns the caller's id.
func (h *ChatHandler) wsUserID(tokenStr string) (uuid.UUID, error) {
	if tokenStr == "" {
		return uuid.Nil, errors.New("missing token")
	}
	claims, err := utils.ParseSession(h.JWTSecret, tokenStr)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.UserID()
}

func (s *wsSession) send(v interface{}) {
	s.mu.Lock()
	s.sendLocked(v)
	s.mu.Unlock()
}

// sendLocked writes to the client channel. Callers hold s.mu, which
// orders every write before teardown flips closed; after that the hub
// owns the channel and may close it.
func (s *wsSession) sendLocked(v interface{}) {
	if s.closed {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Println("ws: marshal error:", err)
		return
	}
	select {
	case s.client.Send <- b:
	default:
		// slow consumer, drop
	}
}

// WebSocketHandler serves /ws/chat. The client authenticates with the
// session cookie (or a token query param for app clients), receives its
// live chat list, and may join one chat at a time with
// {"action":"join","chat_id":...}.
func (h *ChatHandler) WebSocketHandler(c *websocket.Conn) {
	tokenStr := c.Cookies(middleware.CookieName)
	if tokenStr == "" {
		tokenStr = c.Query("token")
	}
	userID, err := h.wsUserID(tokenStr)
	if err != nil {
		log.Println("ws: auth failed:", err)
		c.Close()
		return
	}
	if _, err := h.Store.GetUser(context.Background(), userID); err != nil {
		log.Println("ws: unknown user:", userID)
		c.Close()
		return
	}

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Send:   make(chan []byte, 256),
	}
	h.Hub.RegisterClient(client)

	session := &wsSession{
		store:    h.Store,
		client:   client,
		userID:   userID,
		chatView: chatsync.NewChatListView(userID),
	}

	defer func() {
		session.teardown()
		h.Hub.UnregisterClient(client)
		log.Printf("ws: user %s disconnected", userID)
	}()

	// writer: everything server-side goes through the send channel so
	// the connection never sees concurrent writes
	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Println("ws: write error:", err)
				return
			}
		}
	}()

	session.startChatList()

	for {
		var payload struct {
			Action string `json:"action"`
			ChatID string `json:"chat_id"`
		}
		if err := c.ReadJSON(&payload); err != nil {
			break
		}

		switch payload.Action {
		case "join":
			session.join(payload.ChatID)
		case "leave":
			session.leave()
		case "pong":
			// keepalive reply, nothing to do
		}
	}
}

// startChatList loads the chat-list snapshot and keeps it reconciled
// against change events.
func (s *wsSession) startChatList() {
	ctx := context.Background()

	chats, err := s.store.GetChatsForUser(ctx, s.userID)
	if err != nil {
		log.Println("ws: load chats failed:", err)
		s.send(fiber.Map{"type": "error", "message": "Failed to load chats"})
		return
	}

	s.mu.Lock()
	s.chatView.Load(chats)
	if err := s.chatView.ResolveProfiles(ctx, s.store.GetUsersByIDs); err != nil {
		log.Println("ws: resolve profiles failed:", err)
	}
	s.chatSub = s.store.WatchChats(s.userID)
	sub := s.chatSub
	s.sendChatListLocked()
	s.mu.Unlock()

	go func() {
		for ev := range sub.C {
			s.mu.Lock()
			s.chatView.Apply(ev)
			if err := s.chatView.ResolveProfiles(ctx, s.store.GetUsersByIDs); err != nil {
				log.Println("ws: resolve profiles failed:", err)
			}
			s.sendChatListLocked()
			s.mu.Unlock()
		}
	}()
}

func (s *wsSession) sendChatListLocked() {
	type chatEntry struct {
		models.Chat
		Other *models.User `json:"other,omitempty"`
	}
	chats := s.chatView.Chats()
	out := make([]chatEntry, 0, len(chats))
	for _, c := range chats {
		entry := chatEntry{Chat: c}
		if u, ok := s.chatView.Profile(c.Other(s.userID)); ok {
			entry.Other = &u
		}
		out = append(out, entry)
	}
	s.sendLocked(fiber.Map{"type": "chat_list", "chats": out})
}

// join switches the session onto one chat: snapshot, then incremental
// events merged through the message view. Joining while already joined
// leaves the previous chat first.
func (s *wsSession) join(chatID string) {
	ctx := context.Background()

	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		s.send(fiber.Map{"type": "error", "message": "Chat not found"})
		return
	}
	if !chat.Has(s.userID) {
		s.send(fiber.Map{"type": "error", "message": "Access denied"})
		return
	}

	s.leave()

	msgs, err := s.store.GetMessages(ctx, chat.ID)
	if err != nil {
		log.Println("ws: load messages failed:", err)
		s.send(fiber.Map{"type": "error", "message": "Failed to load messages"})
		return
	}

	s.mu.Lock()
	s.msgView = chatsync.NewMessageView()
	s.msgView.Load(msgs)
	s.msgSub = s.store.WatchMessages(chat.ID)
	sub := s.msgSub
	view := s.msgView
	s.sendLocked(fiber.Map{
		"type":     "history",
		"chat_id":  chat.ID,
		"messages": view.Messages(),
		"empty":    view.Empty(),
	})
	s.mu.Unlock()

	go func() {
		for ev := range sub.C {
			s.mu.Lock()
			view.Apply(ev)
			s.sendLocked(fiber.Map{
				"type":    "message_event",
				"chat_id": chat.ID,
				"event":   ev,
				"count":   view.Len(),
				"empty":   view.Empty(),
			})
			s.mu.Unlock()
		}
	}()
}

func (s *wsSession) leave() {
	s.mu.Lock()
	sub := s.msgSub
	s.msgSub = nil
	s.msgView = nil
	s.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

// teardown marks the session closed before dropping the subscriptions.
// Event goroutines that already hold an event see the flag under s.mu
// and skip the write, so nothing touches the channel once the hub
// closes it.
func (s *wsSession) teardown() {
	s.mu.Lock()
	s.closed = true
	sub := s.chatSub
	s.chatSub = nil
	s.mu.Unlock()
	s.leave()
	if sub != nil {
		sub.Unsubscribe()
	}
}
