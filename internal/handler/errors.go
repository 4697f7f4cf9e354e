package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/payroll-backoffice/internal/domain"
	"github.com/rs/zerolog"
)

const internalErrorMessage = "Internal server error"

// ErrorHandler maps domain errors to HTTP responses. Unexpected errors are logged
// with the request-scoped logger and answered with a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	var ferr *fiber.Error

	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": verr.Fields,
		})
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": domain.ErrDuplicateIdentity.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": domain.ErrForbidden.Error()})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidID):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Resource not found"})
	case errors.As(err, &ferr):
		if ferr.Code >= fiber.StatusInternalServerError {
			zerolog.Ctx(c.UserContext()).Error().Err(err).Msg("request failed")
			return c.Status(ferr.Code).JSON(fiber.Map{"error": internalErrorMessage})
		}
		return c.Status(ferr.Code).JSON(fiber.Map{"error": ferr.Message})
	}

	zerolog.Ctx(c.UserContext()).Error().Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg("unhandled error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": internalErrorMessage})
}

func badRequest(msg string) error {
	return fiber.NewError(fiber.StatusBadRequest, msg)
}
