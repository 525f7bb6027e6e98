package couponController

import (
	"time"

	"lms/database"
	"lms/middleware"
	"lms/models"
	couponService "lms/services/coupon"

	"github.com/gofiber/fiber/v2"
)

func svc() *couponService.Service {
	return couponService.New(database.Database.Db)
}

// AdminCreateCoupon issues a new coupon definition
func AdminCreateCoupon(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedCoupon").(*struct {
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
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	coupon, err := svc().Create(couponService.CreateParams{
		Code:          reqData.Code,
		Name:          reqData.Name,
		Description:   reqData.Description,
		CouponType:    reqData.CouponType,
		DiscountValue: reqData.DiscountValue,
		MinAmount:     reqData.MinAmount,
		MaxDiscount:   reqData.MaxDiscount,
		UsageLimit:    reqData.UsageLimit,
		PerUserLimit:  reqData.PerUserLimit,
		CourseScope:   reqData.CourseScope,
		ValidFrom:     reqData.ValidFrom,
		ValidUntil:    reqData.ValidUntil,
	})
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Coupon created successfully!", coupon)
}

// AdminGrantCoupon hands a coupon to a user
func AdminGrantCoupon(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedGrant").(*struct {
		UserID   uint   `json:"userId"`
		CouponID uint   `json:"couponId"`
		Source   string `json:"source"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	grant, err := svc().Grant(reqData.UserID, reqData.CouponID, reqData.Source)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Coupon granted successfully!", grant)
}

// GetMyCoupons lists the caller's unused coupons
func GetMyCoupons(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var grants []models.UserCoupon
	if err := database.Database.Db.Preload("Coupon").
		Where("user_id = ? AND is_used = ? AND is_deleted = ?", userID, false, false).
		Order("created_at desc").
		Find(&grants).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch coupons!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Coupons fetched successfully!", grants)
}
