package authValidator

import (
	"lms/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

func Signup() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Name     string `json:"name" validate:"required,min=2,max=100"`
			Email    string `json:"email" validate:"required,email"`
			Mobile   string `json:"mobile" validate:"omitempty,len=10,numeric"`
			Password string `json:"password" validate:"required,min=8"`
			Role     string `json:"role" validate:"omitempty,oneof=USER TEACHER"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fieldErr := range err.(validator.ValidationErrors) {
				switch fieldErr.Field() {
				case "Name":
					errors["name"] = "Name must be between 2 and 100 characters!"
				case "Email":
					errors["email"] = "A valid email is required!"
				case "Mobile":
					errors["mobile"] = "Mobile must be a 10-digit number!"
				case "Password":
					errors["password"] = "Password must be at least 8 characters!"
				case "Role":
					errors["role"] = "Role must be USER or TEACHER!"
				}
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedSignup", reqData)
		return c.Next()
	}
}
