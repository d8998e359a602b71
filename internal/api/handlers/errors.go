package handlers

import (
	"chef-agent-api/domain"
	"errors"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrThreadNotFound),
		errors.Is(err, domain.ErrMessageNotFound),
		errors.Is(err, domain.ErrRecipeNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrThreadBusy):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrNoPendingInterrupt),
		errors.Is(err, domain.ErrDecisionCountMismatch),
		errors.Is(err, domain.ErrInvalidDecision),
		errors.Is(err, domain.ErrRecipeInvalid):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrImageTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrImageType):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrMailDisabled):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func userID(c *fiber.Ctx) uint {
	id, _ := c.Locals("user_id").(uint)
	return id
}
