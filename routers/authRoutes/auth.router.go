package authRoutes

import (
	authController "lms/controllers/auth"
	"lms/middleware"
	authValidator "lms/validators/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App) {
	authGroup := app.Group("/auth")

	authGroup.Post("/signup", authValidator.Signup(), authController.Signup)
	authGroup.Post("/login", authController.Login)
	authGroup.Get("/profile", middleware.JWTMiddleware, authController.GetProfile)
	authGroup.Delete("/account", middleware.JWTMiddleware, authController.DeactivateAccount)
}
