package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/kaamsetu/kaamsetu-api/internal/store"
)

type NotificationHandler struct {
	Store *store.Store
}

func NewNotificationHandler(s *store.Store) *NotificationHandler {
	return &NotificationHandler{Store: s}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	out, err := h.Store.GetNotifications(c.Context(), uid)
	if err != nil {
		log.Println("notification: list failed:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch notifications"})
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid notification ID"})
	}

	if err := h.Store.MarkNotificationRead(c.Context(), uid, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(404).JSON(fiber.Map{"success": false, "message": "Notification not found"})
		}
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to update notification"})
	}
	return c.JSON(fiber.Map{"success": true})
}
