package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/adam-vessey/Alpaca/internal/handlers"
)

// SetupRoutes configures the operational HTTP surface.
func SetupRoutes(app *fiber.App, healthHandler *handlers.HealthHandler, attemptsHandler *handlers.AttemptsHandler) {
	app.Get("/health", healthHandler.HealthCheck)

	api := app.Group("/api/v1")
	{
		api.Get("/attempts", attemptsHandler.GetAttempts)
	}
}
