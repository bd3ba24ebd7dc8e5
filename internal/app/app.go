package app

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"chatcord-server/internal/db"
	"chatcord-server/internal/handlers"
	"chatcord-server/internal/history"
	"chatcord-server/internal/models"
	"chatcord-server/internal/presence"
	"chatcord-server/internal/rooms"
	"chatcord-server/internal/services"
	"chatcord-server/internal/session"
	"chatcord-server/internal/store"
	"chatcord-server/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func Run() {
	// Load Env
	if err := utils.LoadEnv(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Init DB
	connString := utils.GetEnv("DATABASE_URL", "")
	if connString == "" {
		// Fallback to individual vars
		connString = "postgres://" + utils.GetEnv("POSTGRES_USER", "postgres") + ":" +
			utils.GetEnv("POSTGRES_PASSWORD", "postgres") + "@" +
			utils.GetEnv("POSTGRES_HOST", "localhost") + ":" +
			utils.GetEnv("POSTGRES_PORT", "5432") + "/" +
			utils.GetEnv("POSTGRES_DB", "chatdb") + "?sslmode=disable"
	}

	if err := db.InitDB(connString); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.CloseDB()

	if err := db.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	// Stores
	userStore := store.NewPostgresUserStore(db.Pool)
	roomStore := store.NewPostgresRoomStore(db.Pool)
	messageStore := store.NewPostgresMessageStore(db.Pool)

	// Chat core
	directory := presence.NewDirectory()
	buffer := history.NewBuffer(messageStore, utils.GetEnvInt("HISTORY_LIMIT", history.DefaultLimit))
	registry := rooms.NewRegistry(roomStore, directory, buffer)
	if err := registry.Load(context.Background()); err != nil {
		log.Fatalf("Failed to load rooms: %v", err)
	}

	hub := handlers.NewHub(directory)
	controller := session.NewController(directory, registry, buffer, userStore, hub)

	// Services
	userService := services.NewUserService(userStore)

	// Fiber App
	app := fiber.New()

	// Middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// Routes
	api := app.Group("/api")

	api.Post("/auth/signup", func(c *fiber.Ctx) error {
		var req models.RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request"})
		}
		res, err := userService.Register(c.Context(), req)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUserExists):
				return c.Status(409).JSON(fiber.Map{"error": "username already taken"})
			case errors.Is(err, services.ErrWeakPassword), errors.Is(err, services.ErrInvalidCredentials):
				return c.Status(400).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(500).JSON(fiber.Map{"error": "server error"})
		}
		return c.Status(201).JSON(res)
	})

	api.Post("/auth/login", func(c *fiber.Ctx) error {
		var req models.LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request"})
		}
		res, err := userService.Login(c.Context(), req)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(res)
	})

	// Pre-flight username check: taken means currently online.
	api.Post("/username/validate", func(c *fiber.Ctx) error {
		var body struct {
			Username string `json:"username"`
		}
		if err := c.BodyParser(&body); err != nil || body.Username == "" {
			return c.Status(400).JSON(fiber.Map{"error": "Missing username"})
		}
		if u, ok := directory.FindByUsername(body.Username); ok && u.Online {
			return c.Status(409).JSON(fiber.Map{"error": "Username taken"})
		}
		return c.JSON(fiber.Map{"ok": true})
	})

	// Health Check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// WebSocket Route
	// Note: Middleware order matters. AuthMiddleware checks token.
	// WSUpgradeMiddleware checks if it's a WS request.
	app.Use("/ws", handlers.WSUpgradeMiddleware)
	app.Use("/ws", handlers.AuthMiddleware)
	app.Get("/ws", handlers.WebSocketHandler(hub, controller))

	// Start Server
	port := utils.GetEnv("PORT", "3000")
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	// Graceful Shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c // Block until signal
	log.Println("Gracefully shutting down...")
	_ = app.Shutdown()
	log.Println("Server shutdown complete")
}
