package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/tripfootprint/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// CoordinateDetails locates the stop behind an invalid_coordinate error.
type CoordinateDetails struct {
	Day         int    `json:"day"`
	Stop        int    `json:"stop"`
	Name        string `json:"name,omitempty"`
	Coordinates string `json:"coordinates"`
	Reason      string `json:"reason"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	return writeError(c, APIError{Status: status, Code: code, Message: message})
}

func writeError(c *fiber.Ctx, e APIError) error {
	e.RequestID, _ = c.Locals("requestid").(string)
	return c.Status(e.Status).JSON(e)
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

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, 503, "service_unavailable", msg)
}

// errFromDomain maps a service error onto the API error envelope.
func errFromDomain(c *fiber.Ctx, err error) error {
	var coordErr *domain.CoordinateError
	switch {
	case errors.As(err, &coordErr):
		return writeError(c, APIError{
			Status:  422,
			Code:    "invalid_coordinate",
			Message: err.Error(),
			Details: CoordinateDetails{
				Day:         coordErr.Day,
				Stop:        coordErr.Stop,
				Name:        coordErr.Name,
				Coordinates: coordErr.Raw,
				Reason:      coordErr.Reason,
			},
		})
	case errors.Is(err, domain.ErrUnknownTransportMode):
		return newError(c, 400, "unknown_transport_mode", err.Error())
	case errors.Is(err, domain.ErrUnknownAccommodation):
		return newError(c, 400, "unknown_accommodation", err.Error())
	case errors.Is(err, domain.ErrMissingItinerary):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, "footprint not found")
	case errors.Is(err, domain.ErrStorageUnavailable), errors.Is(err, domain.ErrMessagingUnavailable):
		return errUnavailable(c, err.Error())
	default:
		LoggerFromCtx(c.UserContext()).Error("request failed", slog.String("path", c.Path()), slog.Any("error", err))
		return errInternal(c, "internal error")
	}
}
