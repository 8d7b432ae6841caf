package controller

import (
	"github.com/gofiber/fiber/v2"

	"flagnest/models"
	"flagnest/service"
	"flagnest/utils"
)

// respondServiceError translates a domain failure into an HTTP response.
// Anything that is not a typed service error is a server fault and gets
// logged and reported as 500 without leaking detail.
func respondServiceError(c *fiber.Ctx, err error) error {
	if se, ok := service.AsError(err); ok {
		var status int
		switch se.Code {
		case service.CodeNotFound:
			status = fiber.StatusNotFound
		case service.CodeForbidden:
			status = fiber.StatusForbidden
		case service.CodeConflict:
			status = fiber.StatusConflict
		default:
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{
			"error": se.Message,
		})
	}

	utils.LogError(err, "request failed", map[string]interface{}{
		"method": c.Method(),
		"path":   c.Path(),
	})
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}

func currentUser(c *fiber.Ctx) *models.User {
	return c.Locals("user").(*models.User)
}
