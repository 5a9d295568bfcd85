package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/kaamsetu/kaamsetu-api/internal/award"
	"github.com/kaamsetu/kaamsetu-api/internal/config"
	"github.com/kaamsetu/kaamsetu-api/internal/db"
	"github.com/kaamsetu/kaamsetu-api/internal/handlers"
	"github.com/kaamsetu/kaamsetu-api/internal/middleware"
	"github.com/kaamsetu/kaamsetu-api/internal/models"
	"github.com/kaamsetu/kaamsetu-api/internal/notify"
	"github.com/kaamsetu/kaamsetu-api/internal/realtime"
	"github.com/kaamsetu/kaamsetu-api/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis not reachable:", err)
	}

	hub := realtime.NewHub()
	go hub.Run()

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Job{},
		&models.Bid{},
		&models.Chat{},
		&models.Message{},
		&models.Notification{},
	); err != nil {
		log.Fatal(err)
	}

	st := store.New(gdb)
	notifier := notify.New(st, rdb, hub)
	awardSvc := award.New(st, notifier)

	authH := &handlers.AuthHandler{
		Store:     st,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	otpH := &handlers.OTPHandler{
		Store:     st,
		RDB:       rdb,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	googleH := &handlers.GoogleOAuthHandler{
		Store:           st,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	jobH := handlers.NewJobHandler(st, cfg.UploadDir, cfg.AppBaseURL)
	bidH := handlers.NewBidHandler(st, awardSvc, notifier)
	chatH := handlers.NewChatHandler(st, hub, rdb, cfg.JWTSecret)
	notifH := handlers.NewNotificationHandler(st)
	reportH := handlers.NewReportHandler(st, cfg.UploadDir)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Static("/uploads", cfg.UploadDir)

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Post("/auth/otp/request", otpH.RequestOTP)
	api.Post("/auth/otp/verify", otpH.VerifyOTP)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)
	api.Get("/jobs", jobH.ListActive)
	api.Get("/jobs/:id", jobH.Get)

	// protected (JWT cookie)
	protected := api.Group("/",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/me", authH.Me)
	protected.Post("/me/role", authH.SetRole)

	// contractor
	protected.Post("/jobs",
		middleware.RequireRoles(models.RoleContractor),
		jobH.Create,
	)
	protected.Get("/contractor/jobs",
		middleware.RequireRoles(models.RoleContractor),
		jobH.Mine,
	)
	protected.Post("/jobs/:id/bids/:bidId/select",
		middleware.RequireRoles(models.RoleContractor),
		bidH.SelectWinner,
	)
	protected.Get("/jobs/:id/report",
		middleware.RequireRoles(models.RoleContractor),
		reportH.Export,
	)

	// labour / agent
	protected.Post("/jobs/:id/bids",
		middleware.RequireRoles(models.RoleLabour, models.RoleAgent),
		bidH.Create,
	)
	protected.Get("/my/bids",
		middleware.RequireRoles(models.RoleLabour, models.RoleAgent),
		bidH.Mine,
	)

	// any participant
	protected.Get("/jobs/:id/bids", bidH.ByJob)

	chat := protected.Group("/chat")
	chat.Post("/chats", chatH.CreateOrGetChat)
	chat.Get("/chats", chatH.GetChats)
	chat.Get("/chats/:id/messages", chatH.GetMessages)
	chat.Post("/chats/:id/messages", chatH.SendMessage)

	protected.Get("/notifications", notifH.List)
	protected.Patch("/notifications/:id/read", notifH.MarkRead)

	// WebSocket endpoint (auth via session cookie or token query param)
	app.Get("/ws/chat", websocket.New(chatH.WebSocketHandler))

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
