package handler

import (
	"github.com/gofiber/fiber/v2"

	"filevault/internal/http/middleware"
	"filevault/internal/service"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterUser creates a new account from an email/password pair.
func RegisterUser(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		u, err := svc.Register(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":    u.ID,
			"email": u.Email,
		})
	}
}

// CurrentUser returns the account behind the request's session token.
func CurrentUser(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.Me(c.UserContext(), middleware.CallerID(c))
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"id":    u.ID,
			"email": u.Email,
		})
	}
}
