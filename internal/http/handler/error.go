package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"filevault/internal/http/middleware"
	"filevault/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// serviceError translates a service-layer sentinel into the standardized
// error response. Specific validation sentinels are checked before their
// broader categories so the most precise code wins.
func serviceError(c *fiber.Ctx, err error) error {
	for _, m := range serviceErrorMap {
		if errors.Is(err, m.sentinel) {
			return writeError(c, m.status, m.code, m.message)
		}
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

var serviceErrorMap = []struct {
	sentinel error
	status   int
	code     string
	message  string
}{
	{service.ErrMissingEmail, fiber.StatusBadRequest, "MISSING_EMAIL", "missing email"},
	{service.ErrMissingPassword, fiber.StatusBadRequest, "MISSING_PASSWORD", "missing password"},
	{service.ErrMissingName, fiber.StatusBadRequest, "MISSING_NAME", "missing name"},
	{service.ErrInvalidType, fiber.StatusBadRequest, "INVALID_TYPE", "missing or invalid type"},
	{service.ErrMissingData, fiber.StatusBadRequest, "MISSING_DATA", "missing data"},
	{service.ErrInvalidData, fiber.StatusBadRequest, "INVALID_DATA", "data is not valid base64"},
	{service.ErrFolderNoContent, fiber.StatusBadRequest, "FOLDER_NO_CONTENT", "a folder doesn't have content"},
	{service.ErrParentNotFound, fiber.StatusBadRequest, "PARENT_NOT_FOUND", "parent not found"},
	{service.ErrParentNotFolder, fiber.StatusBadRequest, "PARENT_NOT_FOLDER", "parent is not a folder"},
	{service.ErrAlreadyExists, fiber.StatusBadRequest, "ALREADY_EXISTS", "already exists"},
	{service.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"},
	{service.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "not found"},
	{service.ErrInvalidInput, fiber.StatusBadRequest, "INVALID_INPUT", "invalid input"},
	{service.ErrInvalidParent, fiber.StatusBadRequest, "INVALID_PARENT", "invalid parent"},
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", "unauthorized")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
