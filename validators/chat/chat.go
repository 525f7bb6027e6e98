package chatValidator

import (
	"strconv"
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// CreateConversation validates the new thread body
func CreateConversation() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title     string `json:"title"`
			ModelName string `json:"modelName"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		c.Locals("validatedConversation", reqData)
		return c.Next()
	}
}

// ConversationID validates the :conversation_id path param
func ConversationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		idParam := c.Params("conversation_id")

		id, err := strconv.ParseUint(idParam, 10, 64)
		if err != nil || id == 0 {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"conversation_id": "Valid conversation ID is required!",
			})
		}

		c.Locals("validatedConversationId", uint(id))
		return c.Next()
	}
}

// SendMessage validates the chat message body
func SendMessage() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Content string `json:"content"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if strings.TrimSpace(reqData.Content) == "" {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"content": "Message content is required!",
			})
		}

		c.Locals("validatedMessage", reqData)
		return c.Next()
	}
}
