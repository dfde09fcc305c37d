// Package api assembles the Fiber application: REST routes over the
// conversation service plus the WebSocket upgrade endpoint for the realtime
// gateway.
package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/Serapsys/jobSite/internal/auth"
	"github.com/Serapsys/jobSite/internal/gateway"
)

func NewServer(name string, h *Handler, gw *gateway.Gateway, validator *auth.Validator, log *zap.SugaredLogger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(RequestLogger(log))

	api := app.Group("/api")
	api.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	chat := api.Group("/chat", JWTAuth(validator))
	chat.Get("/", h.ListConversations)
	chat.Post("/start", h.StartConversation)
	chat.Get("/presence/:userId", h.GetPresence)
	chat.Get("/:id", h.GetConversation)
	chat.Post("/:id/message", h.AddMessage)

	// The credential for /ws rides in the query string; the gateway validates
	// it before admitting the connection.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(gw.Handler()))

	return app
}
