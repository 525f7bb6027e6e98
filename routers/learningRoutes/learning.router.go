package learningRoutes

import (
	learningController "lms/controllers/learning"
	"lms/middleware"
	"lms/permissions"
	learningValidator "lms/validators/learning"

	"github.com/gofiber/fiber/v2"
)

func SetupLearningRoutes(app *fiber.App) {
	learningGroup := app.Group("/learning")

	learningGroup.Post("/course/:id/enroll", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionEnroll), learningValidator.EnrollCourse(), learningController.EnrollInCourse)
	learningGroup.Get("/enrollments", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionEnroll), learningValidator.GetUserEnrollments(), learningController.GetEnrollments)
	learningGroup.Get("/stats", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionEnroll), learningController.GetLearningStats)
	learningGroup.Patch("/:enrollment_id/progress", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionProgressUpdate), learningValidator.EnrollmentID(), learningValidator.UpdateProgress(), learningController.UpdateProgress)
	learningGroup.Patch("/:enrollment_id/time", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionProgressUpdate), learningValidator.EnrollmentID(), learningValidator.AddTimeSpent(), learningController.AddTimeSpent)
}
