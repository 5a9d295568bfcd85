package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kaamsetu/kaamsetu-api/internal/middleware"
	"github.com/kaamsetu/kaamsetu-api/internal/models"
	"github.com/kaamsetu/kaamsetu-api/internal/store"
	"github.com/kaamsetu/kaamsetu-api/internal/utils"
)

type AuthHandler struct {
	Store     *store.Store
	JWTSecret string
	Expires   int
}

type RegisterReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     string `json:"role"` // labour / agent / contractor; may be left empty and set later
}

type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func validationFail(c *fiber.Ctx, errs FieldErrors) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": false,
		"message": "Validation error",
		"errors":  errs,
	})
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
		MaxAge:   h.Expires * 60,
	})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := strings.TrimSpace(req.Phone)
	password := strings.TrimSpace(req.Password)
	role := models.Role(strings.ToLower(strings.TrimSpace(req.Role)))

	errs := FieldErrors{}
	if name == "" {
		errs.Add("name", "Name is required")
	}
	if email == "" {
		errs.Add("email", "Email is required")
	} else if !strings.Contains(email, "@") {
		errs.Add("email", "Invalid email format")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	} else if len(password) < 6 {
		errs.Add("password", "Password must be at least 6 characters")
	}
	if phone != "" && len(phone) < 8 {
		errs.Add("phone", "Invalid phone number")
	}
	if role != "" && !models.ValidRole(role) {
		errs.Add("role", "Role must be labour, agent or contractor")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	if _, err := h.Store.GetUserByEmail(c.Context(), email); err == nil {
		errs := FieldErrors{}
		errs.Add("email", "Email already registered")
		return validationFail(c, errs)
	} else if !errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Server error",
		})
	}

	if phone != "" {
		if _, err := h.Store.GetUserByPhone(c.Context(), phone); err == nil {
			errs := FieldErrors{}
			errs.Add("phone", "Phone already registered")
			return validationFail(c, errs)
		} else if !errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Server error",
			})
		}
	}

	pw, err := utils.HashPassword(password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to process password",
		})
	}

	u := models.User{
		Name:     name,
		Email:    &email,
		Password: pw,
		Role:     role,
		IsActive: true,
	}
	if phone != "" {
		u.Phone = &phone
	}
	if err := h.Store.CreateUser(c.Context(), &u); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Registration failed",
		})
	}

	token, err := signSession(h.JWTSecret, h.Expires, u.ID, u.Role)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create token",
		})
	}
	h.setSessionCookie(c, token)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Registered",
		"data": fiber.Map{
			"user": fiber.Map{
				"id":    u.ID,
				"name":  u.Name,
				"email": u.Email,
				"phone": u.Phone,
				"role":  u.Role,
			},
		},
	})
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Invalid body",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)

	errs := FieldErrors{}
	if email == "" {
		errs.Add("email", "Email is required")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	u, err := h.Store.GetUserByEmail(c.Context(), email)
	if err != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Wrong email or password",
		})
	}
	if !u.IsActive {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Account is inactive",
		})
	}
	if !utils.CheckPassword(u.Password, password) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Wrong email or password",
		})
	}

	token, err := signSession(h.JWTSecret, h.Expires, u.ID, u.Role)
	if err != nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create token",
		})
	}
	h.setSessionCookie(c, token)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Logged in",
		"data": fiber.Map{
			"user": fiber.Map{
				"id":    u.ID,
				"name":  u.Name,
				"email": u.Email,
				"role":  u.Role,
			},
		},
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   false,
		SameSite: "Lax",
	})
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out",
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	u, err := h.Store.GetUser(c.Context(), uid)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":    u.ID,
			"name":  u.Name,
			"email": u.Email,
			"phone": u.Phone,
			"role":  u.Role,
		},
	})
}

// SetRole assigns the marketplace role once, for accounts that signed
// up without one (phone OTP, Google). A fresh token is issued so the
// role lands in the session immediately.
func (h *AuthHandler) SetRole(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid body"})
	}

	role := models.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if !models.ValidRole(role) {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Role must be labour, agent or contractor",
		})
	}

	if err := h.Store.SetUserRole(c.Context(), uid, role); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return c.Status(400).JSON(fiber.Map{
				"success": false,
				"message": "Role is already set",
			})
		}
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to set role"})
	}

	token, err := signSession(h.JWTSecret, h.Expires, uid, role)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to create token"})
	}
	h.setSessionCookie(c, token)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"role": role},
	})
}
