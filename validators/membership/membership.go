package membershipValidator

import (
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// CreateLevel validates the admin level creation body
func CreateLevel() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Name         string  `json:"name"`
			Description  string  `json:"description"`
			Price        float64 `json:"price"`
			DurationDays int     `json:"durationDays"`
			SortOrder    int     `json:"sortOrder"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Name) == "" {
			errors["name"] = "Name is required!"
		}
		if reqData.Price < 0 {
			errors["price"] = "Price cannot be negative!"
		}
		if reqData.DurationDays <= 0 {
			errors["durationDays"] = "Duration must be greater than 0 days!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedLevel", reqData)
		return c.Next()
	}
}
