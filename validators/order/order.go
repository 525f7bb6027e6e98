package orderValidator

import (
	"strconv"
	"strings"

	"lms/middleware"
	orderModels "lms/models/order"
	orderService "lms/services/order"

	"github.com/gofiber/fiber/v2"
)

// OrderID validates the :id route parameter
func OrderID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		idStr := strings.TrimSpace(c.Params("id"))
		if idStr == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Order ID is required!", nil)
		}

		id, err := strconv.Atoi(idStr)
		if err != nil || id <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Order ID!", nil)
		}

		c.Locals("orderID", id)
		return c.Next()
	}
}

// Checkout validates the order creation body
func Checkout() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Items        []orderService.ItemRef `json:"items"`
			UserCouponID uint                   `json:"userCouponId"`
			Remark       string                 `json:"remark"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if len(reqData.Items) == 0 {
			errors["items"] = "At least one item is required!"
		}
		for _, item := range reqData.Items {
			switch item.Type {
			case orderModels.ItemTypeCourse:
				if item.CourseID == 0 {
					errors["items"] = "Course items need a courseId!"
				}
			case orderModels.ItemTypeMembership:
				if item.MembershipLevelID == 0 {
					errors["items"] = "Membership items need a membershipLevelId!"
				}
			default:
				errors["items"] = "Item type must be COURSE or MEMBERSHIP!"
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCheckout", reqData)
		return c.Next()
	}
}

// Pay validates the payment body
func Pay() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Method string `json:"method"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Method != orderModels.MethodBalance && reqData.Method != orderModels.MethodGateway {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"method": "Method must be BALANCE or GATEWAY!",
			})
		}

		c.Locals("validatedPay", reqData)
		return c.Next()
	}
}

// OrderList validates pagination query parameters
func OrderList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Page  *int `json:"page"`
			Limit *int `json:"limit"`
		})

		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}

		errors := make(map[string]string)

		if reqData.Page == nil || *reqData.Page < 1 {
			errors["page"] = "Page must be greater than 0!"
		}

		if reqData.Limit == nil || *reqData.Limit < 1 {
			errors["limit"] = "Limit must be greater than 0!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedOrderList", reqData)
		return c.Next()
	}
}

// Refund validates the refund body
func Refund() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Amount float64 `json:"amount"`
			Reason string  `json:"reason"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Amount <= 0 {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"amount": "Amount must be greater than 0!",
			})
		}

		c.Locals("validatedRefund", reqData)
		return c.Next()
	}
}
