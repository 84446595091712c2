package Allocation

import (
	"errors"

	"Basalt/Hauling"
	"Basalt/Slack"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Handler exposes the apply-recommendation endpoint
type Handler struct {
	DB       *gorm.DB
	validate *validator.Validate
}

// NewHandler creates a new allocation handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{
		DB:       db,
		validate: validator.New(),
	}
}

// ApplyRecommendation handles POST /api/hauling/recommendation
func (h *Handler) ApplyRecommendation(c *fiber.Ctx) error {
	var rec Recommendation
	if err := c.BodyParser(&rec); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
	}
	if err := h.validate.Struct(rec); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": err.Error(),
		})
	}

	result, err := ApplyRecommendation(h.DB, rec)
	if err != nil {
		status := statusForAllocationError(err)
		payload := fiber.Map{
			"error":   "Allocation failed",
			"message": err.Error(),
		}
		if result != nil && len(result.Warnings) > 0 {
			payload["warnings"] = result.Warnings
		}
		return c.Status(status).JSON(payload)
	}

	go Slack.NotifyAllocationWarnings(result.CreatedCount, result.Warnings)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Recommendation applied",
		"data":    result,
	})
}

// statusForAllocationError maps the domain error taxonomy onto HTTP codes:
// NotFound 404, Conflict 409, ResourceExhausted 422, anything else 500
func statusForAllocationError(err error) int {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, Hauling.ErrTruckUnavailable),
		errors.Is(err, Hauling.ErrOperatorUnavailable),
		errors.Is(err, Hauling.ErrExcavatorUnavailable),
		errors.Is(err, Hauling.ErrLicenseMismatch),
		errors.Is(err, Hauling.ErrTerminalLocked),
		errors.Is(err, Hauling.ErrInvalidTransition):
		return fiber.StatusConflict
	case errors.Is(err, ErrNoTrucksAvailable),
		errors.Is(err, ErrNoExcavatorsAvailable),
		errors.Is(err, ErrNotEnoughOperators),
		errors.Is(err, ErrNoSiteResolved),
		errors.Is(err, ErrNoLoadingPoint),
		errors.Is(err, ErrNoDumpingPoint):
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}
