package couponRoutes

import (
	couponController "lms/controllers/coupon"
	"lms/middleware"
	"lms/permissions"
	couponValidator "lms/validators/coupon"

	"github.com/gofiber/fiber/v2"
)

func SetupCouponRoutes(app *fiber.App) {
	couponGroup := app.Group("/coupon")

	couponGroup.Get("/mine", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionCouponView), couponController.GetMyCoupons)

	adminGroup := couponGroup.Group("/admin")
	adminGroup.Post("/create", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionCouponCreate), couponValidator.CreateCoupon(), couponController.AdminCreateCoupon)
	adminGroup.Post("/grant", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionCouponGrant), couponValidator.GrantCoupon(), couponController.AdminGrantCoupon)
}
