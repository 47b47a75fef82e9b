package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hazardwatch/ticket-engine/internal/persistence"
)

// HealthHandler reports process and dependency health.
type HealthHandler struct {
	version  string
	postgres *persistence.Postgres
	redis    *persistence.Redis
}

// NewHealthHandler constructs the handler.
func NewHealthHandler(version string, postgres *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{version: version, postgres: postgres, redis: redis}
}

// Check returns liveness plus dependency reachability.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	deps := fiber.Map{}
	status := "ok"

	if h.postgres != nil && h.postgres.PoolHandle() != nil {
		if err := h.postgres.Ping(c.UserContext()); err != nil {
			deps["postgres"] = "unreachable"
			status = "degraded"
		} else {
			deps["postgres"] = "ok"
		}
	} else {
		deps["postgres"] = "in-memory"
	}

	if h.redis != nil {
		if err := h.redis.Ping(c.UserContext()); err != nil {
			deps["redis"] = "unreachable"
			status = "degraded"
		} else {
			deps["redis"] = "ok"
		}
	} else {
		deps["redis"] = "disabled"
	}

	return c.JSON(fiber.Map{
		"status":       status,
		"version":      h.version,
		"dependencies": deps,
	})
}
