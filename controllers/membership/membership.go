package membershipController

import (
	"lms/config"
	"lms/database"
	"lms/middleware"
	membershipService "lms/services/membership"

	"github.com/gofiber/fiber/v2"
)

func svc() *membershipService.Service {
	return membershipService.New(database.Database.Db, config.AppConfig.MembershipGraceDays)
}

// GetLevels lists purchasable membership levels
func GetLevels(c *fiber.Ctx) error {
	levels, err := svc().Levels()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch levels!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Levels fetched successfully!", levels)
}

// GetMyMembership returns the caller's current membership
func GetMyMembership(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	membership, err := svc().Current(userID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Membership fetched successfully!", membership)
}

// RenewMembership extends the caller's membership by its level duration.
// Extension runs from the current end, not from now, so renewing just
// before expiry loses nothing.
func RenewMembership(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	membership, err := svc().Renew(userID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Membership renewed successfully!", membership)
}

// CancelMembership turns off auto-renew; access stays until the end date
func CancelMembership(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	membership, err := svc().Cancel(userID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Auto-renew disabled. Access remains until the end date.", membership)
}

// AdminCreateLevel defines a new membership tier
func AdminCreateLevel(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLevel").(*struct {
		Name         string  `json:"name"`
		Description  string  `json:"description"`
		Price        float64 `json:"price"`
		DurationDays int     `json:"durationDays"`
		SortOrder    int     `json:"sortOrder"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	level, err := svc().CreateLevel(membershipService.LevelParams{
		Name:         reqData.Name,
		Description:  reqData.Description,
		Price:        reqData.Price,
		DurationDays: reqData.DurationDays,
		SortOrder:    reqData.SortOrder,
	})
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Level created successfully!", level)
}
