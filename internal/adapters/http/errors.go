package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/gpsart/routepainter/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errFromDomain maps domain error classes onto HTTP statuses.
func errFromDomain(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnsupportedCharacter):
		return newError(c, 400, "bad_request", err.Error())
	case errors.Is(err, domain.ErrRouteNotFound),
		errors.Is(err, domain.ErrShapeNotFound):
		return newError(c, 404, "not_found", err.Error())
	case errors.Is(err, domain.ErrNoRoute):
		return newError(c, 422, "no_route", err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		return newError(c, 429, "rate_limited", err.Error())
	case errors.Is(err, domain.ErrProviderUnavailable):
		return newError(c, 502, "provider_unavailable", err.Error())
	default:
		return errInternal(c, err.Error())
	}
}
