package handler

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"

	"filevault/internal/http/middleware"
	"filevault/internal/service"
)

// Connect authenticates Basic credentials (base64 "email:password") and
// returns a fresh session token.
func Connect(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email, password, ok := basicCredentials(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		}

		token, err := svc.Authenticate(c.UserContext(), email, password)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"token": token})
	}
}

// Disconnect revokes the session behind the request's token.
func Disconnect(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Logout(c.UserContext(), c.Get(middleware.TokenHeader)); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// basicCredentials decodes an "Authorization: Basic ..." header into an
// email/password pair.
func basicCredentials(header string) (email, password string, ok bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}
	email, password, ok = strings.Cut(string(decoded), ":")
	return email, password, ok
}
