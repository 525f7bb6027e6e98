package couponValidator

import (
	"strings"
	"time"

	"lms/middleware"
	"lms/models"

	"github.com/gofiber/fiber/v2"
)

// CreateCoupon validates the admin coupon creation body
func CreateCoupon() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Code          string    `json:"code"`
			Name          string    `json:"name"`
			Description   string    `json:"description"`
			CouponType    string    `json:"couponType"`
			DiscountValue float64   `json:"discountValue"`
			MinAmount     float64   `json:"minAmount"`
			MaxDiscount   float64   `json:"maxDiscount"`
			UsageLimit    int       `json:"usageLimit"`
			PerUserLimit  int       `json:"perUserLimit"`
			CourseScope   []uint    `json:"courseScope"`
			ValidFrom     time.Time `json:"validFrom"`
			ValidUntil    time.Time `json:"validUntil"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Code) == "" {
			errors["code"] = "Code is required!"
		}
		if strings.TrimSpace(reqData.Name) == "" {
			errors["name"] = "Name is required!"
		}
		switch reqData.CouponType {
		case models.CouponTypeDiscount, models.CouponTypeAmount, models.CouponTypeFree:
		default:
			errors["couponType"] = "Coupon type must be DISCOUNT, AMOUNT or FREE!"
		}
		if reqData.DiscountValue < 0 {
			errors["discountValue"] = "Discount value cannot be negative!"
		}
		if !reqData.ValidUntil.After(reqData.ValidFrom) {
			errors["validUntil"] = "Valid until must be after valid from!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCoupon", reqData)
		return c.Next()
	}
}

// GrantCoupon validates the admin grant body
func GrantCoupon() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			UserID   uint   `json:"userId"`
			CouponID uint   `json:"couponId"`
			Source   string `json:"source"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.UserID == 0 {
			errors["userId"] = "User ID is required!"
		}
		if reqData.CouponID == 0 {
			errors["couponId"] = "Coupon ID is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedGrant", reqData)
		return c.Next()
	}
}
