package handlers

import (
	"context"
	"log"

	"chatcord-server/internal/services"
	"chatcord-server/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// WebSocketHandler runs the read loop for one chat connection.
func WebSocketHandler(hub *Hub, ctrl *session.Controller) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		// Set by AuthMiddleware before the upgrade.
		username := c.Locals("username").(string)

		// Every connection gets its own opaque ID; the same account
		// reconnecting gets a fresh one.
		connID := uuid.New().String()

		hub.Register(connID, c)
		defer func() {
			ctrl.Disconnect(context.Background(), connID)
			hub.Unregister(connID)
			c.Close()
		}()

		for {
			msgType, msg, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("error: %v", err)
				}
				break
			}

			HandleEvent(msgType, msg, ctrl, hub, username, connID)
		}
	})
}

// WSUpgradeMiddleware upgrades the connection to WebSocket
func WSUpgradeMiddleware(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// AuthMiddleware verifies the JWT token before upgrading
func AuthMiddleware(c *fiber.Ctx) error {
	// Get token from query param `access_token` or Authorization header
	token := c.Query("access_token")
	if token == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			token = authHeader[7:]
		}
	}

	if token == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing token")
	}

	claims, err := services.ValidateToken(token)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}
	c.Locals("username", username)

	return c.Next()
}
