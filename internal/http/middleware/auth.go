package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"filevault/internal/service"
)

const (
	// TokenHeader is the header carrying the opaque session token.
	TokenHeader = "X-Token"
	// CallerIDLocalKey is the key under which the resolved user identifier is
	// stored in Fiber's context locals.
	CallerIDLocalKey = "caller_id"
)

// Auth resolves the session token once per request and passes the caller
// identity downstream via context locals, so handlers never read headers
// themselves.
type Auth struct {
	auth service.AuthService
}

// NewAuth creates the token-resolution middleware.
func NewAuth(auth service.AuthService) *Auth {
	return &Auth{auth: auth}
}

// Require rejects requests without a valid session. Session store outages are
// surfaced as server errors, never as "unauthorized".
func (a *Auth) Require() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := a.auth.Resolve(c.UserContext(), c.Get(TokenHeader))
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				return fiber.ErrUnauthorized
			}
			return fiber.ErrInternalServerError
		}
		c.Locals(CallerIDLocalKey, userID)
		return c.Next()
	}
}

// Optional resolves the token when present but lets anonymous requests
// through; an invalid token simply downgrades the caller to anonymous.
func (a *Auth) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get(TokenHeader)
		if token == "" {
			return c.Next()
		}
		userID, err := a.auth.Resolve(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				return c.Next()
			}
			return fiber.ErrInternalServerError
		}
		c.Locals(CallerIDLocalKey, userID)
		return c.Next()
	}
}

// CallerID returns the resolved user identifier, or "" for anonymous callers.
func CallerID(c *fiber.Ctx) string {
	if v := c.Locals(CallerIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
