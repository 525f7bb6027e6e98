package orderController

import (
	"context"
	"time"

	"lms/config"
	"lms/database"
	"lms/middleware"
	couponService "lms/services/coupon"
	learningService "lms/services/learning"
	membershipService "lms/services/membership"
	orderService "lms/services/order"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
)

// Provider calls get this long before the outcome is treated as unknown
const providerTimeout = 15 * time.Second

func svc() *orderService.Service {
	db := database.Database.Db
	return orderService.New(
		db,
		couponService.New(db),
		membershipService.New(db, config.AppConfig.MembershipGraceDays),
		learningService.New(db),
		utils.NewPaymentGateway(),
		time.Duration(config.AppConfig.OrderExpiryMinutes)*time.Minute,
	)
}

// Checkout creates an order from the validated cart
func Checkout(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedCheckout").(*struct {
		Items        []orderService.ItemRef `json:"items"`
		UserCouponID uint                   `json:"userCouponId"`
		Remark       string                 `json:"remark"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	order, err := svc().Create(userID, reqData.Items, reqData.UserCouponID, reqData.Remark)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Order created successfully!", order)
}

// PayOrder applies a payment; retries on a paid order are no-ops
func PayOrder(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	orderID := c.Locals("orderID").(int)

	reqData, ok := c.Locals("validatedPay").(*struct {
		Method string `json:"method"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	ctx, cancel := context.WithTimeout(c.Context(), providerTimeout)
	defer cancel()

	result, err := svc().Pay(ctx, userID, uint(orderID), reqData.Method)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	message := "Payment successful!"
	if result.AlreadyPaid {
		message = "Order already paid."
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, result)
}

// ReconcileOrder settles a pending payment attempt with the provider
func ReconcileOrder(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	orderID := c.Locals("orderID").(int)

	// The buyer check happens through Get before reconciling
	role, _ := c.Locals("role").(string)
	if _, err := svc().Get(userID, role, uint(orderID)); err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Context(), providerTimeout)
	defer cancel()

	result, err := svc().Reconcile(ctx, uint(orderID))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payment reconciled!", result)
}

// CancelOrder voids an unpaid order
func CancelOrder(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	orderID := c.Locals("orderID").(int)
	role, _ := c.Locals("role").(string)

	order, err := svc().Cancel(userID, role, uint(orderID))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Order cancelled successfully!", order)
}

// GetOrder returns one order with its items
func GetOrder(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	orderID := c.Locals("orderID").(int)
	role, _ := c.Locals("role").(string)

	order, err := svc().Get(userID, role, uint(orderID))
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Order fetched successfully!", order)
}

// GetOrders lists the caller's orders with pagination
func GetOrders(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedOrderList").(*struct {
		Page  *int `json:"page"`
		Limit *int `json:"limit"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	orders, total, err := svc().List(userID, *reqData.Page, *reqData.Limit)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch orders!", nil)
	}

	response := map[string]interface{}{
		"orders": orders,
		"pagination": map[string]interface{}{
			"total": total,
			"page":  *reqData.Page,
			"limit": *reqData.Limit,
		},
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Orders fetched successfully!", response)
}

// RefundOrder processes a (possibly partial) refund. Admin only, enforced by
// the permission middleware on the route.
func RefundOrder(c *fiber.Ctx) error {
	adminID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	orderID := c.Locals("orderID").(int)

	reqData, ok := c.Locals("validatedRefund").(*struct {
		Amount float64 `json:"amount"`
		Reason string  `json:"reason"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	order, err := svc().Refund(adminID, uint(orderID), reqData.Amount, reqData.Reason)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Refund processed successfully!", order)
}
