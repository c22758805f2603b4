// handlers/errors.go
package handlers

import (
	"errors"

	"engage-points-system/services"

	"github.com/gofiber/fiber/v2"
)

// errorResponse maps the service error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is a 500.
func errorResponse(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrInvalidArgument):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrUnavailable):
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
