package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	"lms/permissions"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up catalogue browsing plus teacher management routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/course")

	// Catalogue (published courses only)
	courseGroup.Get("/list", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionCourseView), validators.CourseList(), controllers.GetAllCourses)
	courseGroup.Get("/:id", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionCourseView), validators.CourseID(), controllers.GetCourseDetails)

	// Teacher course management
	teacherGroup := app.Group("/teacher/course")
	teacherGroup.Post("/create", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionCourseCreate), validators.CreateCourse(), controllers.CreateCourse)
	teacherGroup.Get("/list", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionCourseCreate), controllers.GetMyCourses)
	teacherGroup.Put("/:id", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionCourseUpdate), validators.CourseID(), validators.UpdateCourse(), controllers.UpdateCourse)
	teacherGroup.Delete("/:id", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionCourseDelete), validators.CourseID(), controllers.DeleteCourse)
	teacherGroup.Post("/:id/publish", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionCoursePublish), validators.CourseID(), controllers.PublishCourse)
	teacherGroup.Post("/:id/unpublish", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionCourseUnpublish), validators.CourseID(), controllers.UnpublishCourse)
	teacherGroup.Post("/:id/lesson", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionCourseUpdate), validators.CourseID(), validators.AddLesson(), controllers.AddLesson)
}
