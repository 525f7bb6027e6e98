package middleware

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"lms/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Paths that would flood the trail with noise
var auditSkipPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
	"/ping":    true,
	"/docs":    true,
}

// AuditLogger writes one audit_logs row per handled request. It runs after
// the handler so the authenticated user and the response status are known;
// a failed write never fails the request itself.
func AuditLogger(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodHead || c.Method() == fiber.MethodOptions {
			return c.Next()
		}
		if auditSkipPaths[c.Path()] {
			return c.Next()
		}

		start := time.Now()
		handlerErr := c.Next()

		entry := models.AuditLog{
			Action:     auditAction(c.Method(), c.Path()),
			Method:     c.Method(),
			Endpoint:   c.Path(),
			IPAddress:  c.IP(),
			UserAgent:  c.Get("User-Agent"),
			DurationMs: time.Since(start).Milliseconds(),
		}

		if userID, ok := c.Locals("userId").(uint); ok {
			entry.UserID = userID
		}
		if name, ok := c.Locals("userName").(string); ok {
			entry.Username = name
		}
		entry.ResourceType, entry.ResourceID = auditResource(c.Path())

		code := c.Response().StatusCode()
		switch {
		case code >= 500:
			entry.Status = models.AuditStatusError
		case code >= 400:
			entry.Status = models.AuditStatusFailed
		default:
			entry.Status = models.AuditStatusSuccess
		}
		if handlerErr != nil {
			entry.Status = models.AuditStatusError
			entry.ErrorMessage = handlerErr.Error()
		}

		if params := c.AllParams(); len(params) > 0 {
			if raw, err := json.Marshal(params); err == nil {
				entry.Details = raw
			}
		}

		if err := db.Create(&entry).Error; err != nil {
			log.Printf("audit log write failed: %v", err)
		}

		return handlerErr
	}
}

func auditAction(method, path string) string {
	switch {
	case strings.HasSuffix(path, "/login"), strings.HasSuffix(path, "/signup"):
		return "login"
	case strings.HasSuffix(path, "/logout"):
		return "logout"
	}
	switch method {
	case fiber.MethodPost:
		return "create"
	case fiber.MethodPut, fiber.MethodPatch:
		return "update"
	case fiber.MethodDelete:
		return "delete"
	default:
		return "view"
	}
}

// auditResource reads the leading path segments: /course/12/... yields
// ("course", "12").
func auditResource(path string) (string, string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
