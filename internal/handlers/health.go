package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/adam-vessey/Alpaca/internal/database"
	"github.com/adam-vessey/Alpaca/internal/rabbitmq"
)

// HealthHandler reports broker and audit-database health.
type HealthHandler struct {
	RMQ *rabbitmq.Connection
	DB  *gorm.DB // nil when the audit log is disabled
}

// NewHealthHandler creates a health handler with dependencies.
func NewHealthHandler(rmq *rabbitmq.Connection, db *gorm.DB) *HealthHandler {
	return &HealthHandler{
		RMQ: rmq,
		DB:  db,
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// HealthCheck handles the health check endpoint.
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	services := make(map[string]string)
	status := "healthy"

	if h.RMQ == nil || !h.RMQ.IsHealthy() {
		services["rabbitmq"] = "unhealthy: connection closed"
		status = "unhealthy"
	} else {
		services["rabbitmq"] = "healthy"
	}

	if h.DB != nil {
		if err := database.HealthCheck(ctx, h.DB); err != nil {
			services["database"] = "unhealthy: " + err.Error()
			status = "unhealthy"
		} else {
			services["database"] = "healthy"
		}
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
	}

	if status == "unhealthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}

	return c.JSON(response)
}
