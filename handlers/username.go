package handlers

import (
	"context"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/yourusername/namecheck/models"
)

// AvailabilityChecker is the part of services.Availability the handler needs.
type AvailabilityChecker interface {
	Check(ctx context.Context, username string) (bool, error)
}

type UsernameHandler struct {
	availability AvailabilityChecker
	validator    *validator.Validate
}

func NewUsernameHandler(availability AvailabilityChecker) *UsernameHandler {
	return &UsernameHandler{availability: availability, validator: newValidator()}
}

// Available answers whether a username can still be registered.
// POST reads a JSON body, GET reads the username query parameter.
func (h *UsernameHandler) Available(c *fiber.Ctx) error {
	var req models.UsernameAvailableRequest
	if c.Method() == fiber.MethodGet {
		if err := c.QueryParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid query"})
		}
	} else if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "details": err.Error()})
	}

	available, err := h.availability.Check(c.UserContext(), req.Username)
	if err != nil {
		log.Printf("Username availability check for %q failed: %v", req.Username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check username"})
	}
	return c.JSON(models.UsernameAvailableResponse{Available: available})
}
