package server

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/flowsmith/flowsmith/internal/controllers"
	"github.com/flowsmith/flowsmith/internal/version"
)

type HTTPServerDependencies struct {
	ChatController *controllers.ChatController
	IndexCount     func() int
}

func NewHTTPServer(deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName: "flowsmith",
	})

	router.Use(cors.New())
	router.Use(logger.New())

	router.Get("/health", func(c fiber.Ctx) error {
		payload := fiber.Map{
			"status":    "healthy",
			"service":   "flowsmith",
			"version":   version.GetVersion(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if deps.IndexCount != nil {
			payload["node_types"] = deps.IndexCount()
		}

		return c.Status(fiber.StatusOK).JSON(payload)
	})

	router.Post("/chat", deps.ChatController.Chat)
	router.Post("/chat/stream", deps.ChatController.ChatStream)

	return router
}
