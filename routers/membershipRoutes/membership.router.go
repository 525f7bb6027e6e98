package membershipRoutes

import (
	membershipController "lms/controllers/membership"
	"lms/middleware"
	"lms/permissions"
	membershipValidator "lms/validators/membership"

	"github.com/gofiber/fiber/v2"
)

func SetupMembershipRoutes(app *fiber.App) {
	membershipGroup := app.Group("/membership")

	membershipGroup.Get("/levels", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionMembershipPurchase), membershipController.GetLevels)
	membershipGroup.Get("/me", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionMembershipPurchase), membershipController.GetMyMembership)
	membershipGroup.Post("/renew", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionMembershipRenew), membershipController.RenewMembership)
	membershipGroup.Post("/cancel", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionMembershipCancel), membershipController.CancelMembership)

	adminGroup := membershipGroup.Group("/admin")
	adminGroup.Post("/level", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionMembershipLevelManage), membershipValidator.CreateLevel(), membershipController.AdminCreateLevel)
}
