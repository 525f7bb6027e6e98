package walletValidator

import (
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// Deposit validates the wallet deposit body
func Deposit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Amount         float64 `json:"amount"`
			PaymentGateway string  `json:"paymentGateway"`
			PaymentOrderID string  `json:"paymentOrderId"`
			PaymentID      string  `json:"paymentId"`
			PaymentMethod  string  `json:"paymentMethod"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.Amount <= 0 {
			errors["amount"] = "Amount must be greater than 0!"
		}
		if strings.TrimSpace(reqData.PaymentGateway) == "" {
			errors["paymentGateway"] = "Payment gateway is required!"
		}
		if strings.TrimSpace(reqData.PaymentID) == "" {
			errors["paymentId"] = "Payment ID is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedDeposit", reqData)
		return c.Next()
	}
}

// WalletHistory validates pagination params for transaction history
func WalletHistory() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Page  *int `json:"page"`
			Limit *int `json:"limit"`
		})

		page := c.QueryInt("page", 1)
		limit := c.QueryInt("limit", 10)

		errors := make(map[string]string)

		if page < 1 {
			errors["page"] = "Page must be at least 1!"
		}
		if limit < 1 || limit > 100 {
			errors["limit"] = "Limit must be between 1 and 100!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		reqData.Page = &page
		reqData.Limit = &limit

		c.Locals("validatedWalletHistory", reqData)
		return c.Next()
	}
}
