package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"filevault/internal/service"
	"filevault/internal/session"
)

// HealthCheck reports readiness: checks DB connectivity only.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// Status reports the liveness of both backing stores.
func Status(db *sql.DB, sessions session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"redis": sessions.Ping(ctx) == nil,
			"db":    db.PingContext(ctx) == nil,
		})
	}
}

// Stats reports aggregate user and file counts.
func Stats(svc service.StatsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Stats(c.UserContext())
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(res)
	}
}
