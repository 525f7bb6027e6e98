package orderRoutes

import (
	orderController "lms/controllers/order"
	"lms/middleware"
	"lms/permissions"
	orderValidator "lms/validators/order"

	"github.com/gofiber/fiber/v2"
)

func SetupOrderRoutes(app *fiber.App) {
	orderGroup := app.Group("/order")

	orderGroup.Post("/checkout", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionOrderCreate), orderValidator.Checkout(), orderController.Checkout)
	orderGroup.Get("/list", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionOrderCreate), orderValidator.OrderList(), orderController.GetOrders)
	orderGroup.Get("/:id", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionOrderCreate), orderValidator.OrderID(), orderController.GetOrder)
	orderGroup.Post("/:id/pay", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionOrderPay), orderValidator.OrderID(), orderValidator.Pay(), orderController.PayOrder)
	orderGroup.Post("/:id/reconcile", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionOrderPay), orderValidator.OrderID(), orderController.ReconcileOrder)
	orderGroup.Post("/:id/cancel", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionOrderCancel), orderValidator.OrderID(), orderController.CancelOrder)

	// Refunds are an admin operation
	adminGroup := orderGroup.Group("/admin")
	adminGroup.Post("/:id/refund", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionOrderRefund), orderValidator.OrderID(), orderValidator.Refund(), orderController.RefundOrder)
}
