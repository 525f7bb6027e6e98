package middleware

import (
	"errors"

	"lms/services"

	"github.com/gofiber/fiber/v2"
)

// ServiceErrorResponse maps the service error taxonomy onto HTTP responses.
func ServiceErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return JsonResponse(c, fiber.StatusBadRequest, false, "Validation failed!", nil)
	case errors.Is(err, services.ErrPermissionDenied):
		return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
	case errors.Is(err, services.ErrNotFound):
		return JsonResponse(c, fiber.StatusNotFound, false, "Resource not found!", nil)
	case errors.Is(err, services.ErrAlreadyExists):
		return JsonResponse(c, fiber.StatusConflict, false, "Resource already exists!", nil)
	case errors.Is(err, services.ErrAlreadyEnrolled):
		return JsonResponse(c, fiber.StatusConflict, false, "User already enrolled in this course!", nil)
	case errors.Is(err, services.ErrStateConflict):
		return JsonResponse(c, fiber.StatusConflict, false, "Operation not valid in the current state!", nil)
	case errors.Is(err, services.ErrInvalidCoupon):
		return JsonResponse(c, fiber.StatusBadRequest, false, "Coupon is not valid for this order!", nil)
	case errors.Is(err, services.ErrInsufficientBalance):
		return JsonResponse(c, fiber.StatusBadRequest, false, "Insufficient wallet balance!", nil)
	case errors.Is(err, services.ErrAlreadyCancelled):
		return JsonResponse(c, fiber.StatusConflict, false, "Membership renewal window has closed!", nil)
	case errors.Is(err, services.ErrOutOfRange):
		return JsonResponse(c, fiber.StatusBadRequest, false, "Progress must be between 0 and 100!", nil)
	case errors.Is(err, services.ErrOutcomeUnknown):
		return JsonResponse(c, fiber.StatusAccepted, false, "Payment outcome unknown. Check the order status shortly.", nil)
	case errors.Is(err, services.ErrExternalDependency):
		return JsonResponse(c, fiber.StatusBadGateway, false, "Payment provider rejected the request. Please retry.", nil)
	default:
		return JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}
}
