package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/kaamsetu/kaamsetu-api/internal/middleware"
	"github.com/kaamsetu/kaamsetu-api/internal/models"
	"github.com/kaamsetu/kaamsetu-api/internal/store"
)

const otpTTL = 5 * time.Minute

// OTPHandler implements phone sign-in. Codes live in redis under
// otp:<phone> with a short TTL; the SMS gateway hookup is out of scope,
// so codes are logged server-side.
type OTPHandler struct {
	Store     *store.Store
	RDB       *redis.Client
	JWTSecret string
	Expires   int
}

func otpKey(phone string) string { return "otp:" + phone }

// otpEqual compares codes in constant time.
func otpEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (h *OTPHandler) RequestOTP(c *fiber.Ctx) error {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid body"})
	}

	phone := strings.TrimSpace(req.Phone)
	if len(phone) < 8 {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid phone number"})
	}

	code, err := generateOTP()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to generate code"})
	}

	if err := h.RDB.Set(c.Context(), otpKey(phone), code, otpTTL).Err(); err != nil {
		log.Println("otp: redis set failed:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to store code"})
	}

	// no SMS gateway wired up; operators read the code from the log
	log.Printf("otp: code for %s is %s", phone, code)

	return c.JSON(fiber.Map{"success": true, "message": "Code sent"})
}

func (h *OTPHandler) VerifyOTP(c *fiber.Ctx) error {
	var req struct {
		Phone string `json:"phone"`
		Code  string `json:"code"`
		Name  string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid body"})
	}

	phone := strings.TrimSpace(req.Phone)
	code := strings.TrimSpace(req.Code)
	if phone == "" || code == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Phone and code are required"})
	}

	stored, err := h.RDB.Get(c.Context(), otpKey(phone)).Result()
	if err != nil || !otpEqual(stored, code) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Wrong or expired code",
		})
	}
	h.RDB.Del(c.Context(), otpKey(phone))

	u, err := h.Store.GetUserByPhone(c.Context(), phone)
	if errors.Is(err, store.ErrNotFound) {
		// first sign-in creates the account; role is set later
		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = phone
		}
		u = &models.User{
			Name:     name,
			Phone:    &phone,
			IsActive: true,
		}
		if err := h.Store.CreateUser(c.Context(), u); err != nil {
			log.Println("otp: create user failed:", err)
			return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to create account"})
		}
	} else if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Server error"})
	}

	if !u.IsActive {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Account is inactive",
		})
	}

	token, err := signSession(h.JWTSecret, h.Expires, u.ID, u.Role)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to create token"})
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		MaxAge:   h.Expires * 60,
	})

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"user": fiber.Map{
				"id":    u.ID,
				"name":  u.Name,
				"phone": u.Phone,
				"role":  u.Role,
			},
			"needs_role": u.Role == "",
		},
	})
}
