package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/adam-vessey/Alpaca/internal/audit"
)

// AttemptsHandler exposes the dispatch-attempt audit log read-only.
type AttemptsHandler struct {
	Recorder *audit.Recorder
	Logger   *zap.Logger
}

// NewAttemptsHandler creates an attempts handler with dependencies.
func NewAttemptsHandler(recorder *audit.Recorder, logger *zap.Logger) *AttemptsHandler {
	return &AttemptsHandler{
		Recorder: recorder,
		Logger:   logger,
	}
}

// AttemptsResponse is the response structure for GET /attempts.
type AttemptsResponse struct {
	Attempts []AttemptDTO `json:"attempts"`
	HasMore  bool         `json:"has_more"`
}

// AttemptDTO is one dispatch attempt in the response.
type AttemptDTO struct {
	ID          string  `json:"id"`
	Route       string  `json:"route"`
	ResourceID  string  `json:"resource_id"`
	Method      string  `json:"method"`
	URL         string  `json:"url"`
	AttemptNo   int     `json:"attempt_no"`
	HTTPStatus  *int    `json:"http_status"`
	LatencyMs   int     `json:"latency_ms"`
	Disposition string  `json:"disposition"`
	LastError   *string `json:"last_error"`
	Timestamp   string  `json:"timestamp"`
}

// GetAttempts handles GET /attempts.
// Query parameters:
//   - limit (optional, default 25): number of attempts to return
//   - offset (optional, default 0): number of attempts to skip
func (h *AttemptsHandler) GetAttempts(c *fiber.Ctx) error {
	if h.Recorder == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "audit log is disabled",
		})
	}

	limit := 25
	if limitStr := c.Query("limit"); limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err != nil || parsedLimit <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "limit must be a positive integer",
			})
		}
		limit = parsedLimit
	}

	offset := 0
	if offsetStr := c.Query("offset"); offsetStr != "" {
		parsedOffset, err := strconv.Atoi(offsetStr)
		if err != nil || parsedOffset < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "offset must be a non-negative integer",
			})
		}
		offset = parsedOffset
	}

	attempts, hasMore, err := h.Recorder.Recent(limit, offset)
	if err != nil {
		h.Logger.Error("Failed to query dispatch attempts",
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch attempts",
		})
	}

	dtos := make([]AttemptDTO, 0, len(attempts))
	for _, attempt := range attempts {
		dtos = append(dtos, AttemptDTO{
			ID:          attempt.ID.String(),
			Route:       attempt.Route,
			ResourceID:  attempt.ResourceID,
			Method:      attempt.Method,
			URL:         attempt.URL,
			AttemptNo:   attempt.AttemptNo,
			HTTPStatus:  attempt.HTTPStatus,
			LatencyMs:   attempt.LatencyMs,
			Disposition: attempt.Disposition,
			LastError:   attempt.LastError,
			Timestamp:   attempt.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(AttemptsResponse{
		Attempts: dtos,
		HasMore:  hasMore,
	})
}
