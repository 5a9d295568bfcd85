package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kaamsetu/kaamsetu-api/internal/models"
	"github.com/kaamsetu/kaamsetu-api/internal/realtime"
	"github.com/kaamsetu/kaamsetu-api/internal/store"
)

type ChatHandler struct {
	Store     *store.Store
	Hub       *realtime.Hub
	RDB       *redis.Client
	JWTSecret string
}

func NewChatHandler(s *store.Store, hub *realtime.Hub, rdb *redis.Client, jwtSecret string) *ChatHandler {
	return &ChatHandler{Store: s, Hub: hub, RDB: rdb, JWTSecret: jwtSecret}
}

// CreateOrGetChat opens the thread with another user, creating it on
// first contact. Calling it again for the same pair returns the same
// chat.
func (h *ChatHandler) CreateOrGetChat(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request"})
	}

	otherID, err := uuid.Parse(strings.TrimSpace(req.UserID))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid user ID"})
	}
	if otherID == uid {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Cannot chat with yourself"})
	}
	if _, err := h.Store.GetUser(c.Context(), otherID); err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "User not found"})
	}

	chat, err := h.Store.CreateChat(c.Context(), uid, otherID)
	if err != nil {
		log.Println("chat: create failed:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to create chat"})
	}

	return c.JSON(fiber.Map{"success": true, "data": chat})
}

type ChatOut struct {
	models.Chat
	Other *fiber.Map `json:"other,omitempty"`
}

// GetChats returns the caller's chat list, newest activity first, with
// the other participant's profile joined in. Profiles resolve through
// one batched lookup.
func (h *ChatHandler) GetChats(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	chats, err := h.Store.GetChatsForUser(c.Context(), uid)
	if err != nil {
		log.Println("chat: list failed:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch chats"})
	}

	ids := make([]uuid.UUID, 0, len(chats))
	for i := range chats {
		ids = append(ids, chats[i].Other(uid))
	}
	profiles, err := h.Store.GetUsersByIDs(c.Context(), ids)
	if err != nil {
		log.Println("chat: resolve profiles failed:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to resolve profiles"})
	}

	out := make([]ChatOut, 0, len(chats))
	for _, chat := range chats {
		entry := ChatOut{Chat: chat}
		if u, ok := profiles[chat.Other(uid)]; ok {
			entry.Other = &fiber.Map{
				"id":   u.ID,
				"name": u.Name,
				"role": u.Role,
			}
		}
		out = append(out, entry)
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}

// GetMessages returns a chat's messages oldest first.
func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	chat, err := h.Store.GetChat(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(404).JSON(fiber.Map{"success": false, "message": "Chat not found"})
		}
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch chat"})
	}
	if !chat.Has(uid) {
		return c.Status(403).JSON(fiber.Map{"success": false, "message": "Access denied"})
	}

	msgs, err := h.Store.GetMessages(c.Context(), chat.ID)
	if err != nil {
		log.Println("chat: fetch messages failed:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch messages"})
	}

	return c.JSON(fiber.Map{"success": true, "data": msgs})
}

// SendMessage appends to the thread. The store handles the
// message+preview batch; this layer fans the result out to live
// connections and the recipient's notification channel.
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Text is required"})
	}

	chat, err := h.Store.GetChat(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(404).JSON(fiber.Map{"success": false, "message": "Chat not found"})
		}
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch chat"})
	}
	if !chat.Has(uid) {
		return c.Status(403).JSON(fiber.Map{"success": false, "message": "Access denied"})
	}

	msg := models.Message{
		ChatID:     chat.ID,
		SenderID:   uid,
		ReceiverID: chat.Other(uid),
		Text:       strings.TrimSpace(req.Text),
	}
	if err := h.Store.SendMessage(c.Context(), &msg); err != nil {
		log.Println("chat: send failed:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to send message"})
	}

	h.Hub.SendToChat(chat.ParticipantA, chat.ParticipantB, fiber.Map{
		"type":    "new_message",
		"message": msg,
	})

	notif := map[string]interface{}{
		"type":      "chat_message",
		"chat_id":   chat.ID,
		"sender_id": uid.String(),
		"text":      msg.Text,
	}
	payload, _ := json.Marshal(notif)
	h.RDB.Publish(c.Context(), "notifications:"+msg.ReceiverID.String(), payload)

	return c.JSON(fiber.Map{"success": true, "data": msg})
}
