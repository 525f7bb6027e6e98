package chatController

import (
	"bufio"
	"encoding/json"
	"fmt"

	"lms/database"
	"lms/middleware"
	chatService "lms/services/chat"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
)

func svc() *chatService.Service {
	return chatService.New(database.Database.Db, utils.NewChatModelClient())
}

// CreateConversation starts a new chat thread
func CreateConversation(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedConversation").(*struct {
		Title     string `json:"title"`
		ModelName string `json:"modelName"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	conv, err := svc().CreateConversation(userID, reqData.Title, reqData.ModelName)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Conversation created successfully!", conv)
}

// GetConversations lists the caller's chat threads
func GetConversations(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	convs, err := svc().ListConversations(userID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Conversations fetched successfully!", convs)
}

// GetMessages returns all turns of one conversation
func GetMessages(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	conversationID := c.Locals("validatedConversationId").(uint)

	messages, err := svc().Messages(userID, conversationID)
	if err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Messages fetched successfully!", messages)
}

// DeleteConversation removes a chat thread
func DeleteConversation(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	conversationID := c.Locals("validatedConversationId").(uint)

	if err := svc().DeleteConversation(userID, conversationID); err != nil {
		return middleware.ServiceErrorResponse(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Conversation deleted successfully!", nil)
}

// SendMessage streams the model reply back as server-sent events. If the
// client disconnects mid-stream the partial reply is still persisted,
// marked truncated.
func SendMessage(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	conversationID := c.Locals("validatedConversationId").(uint)

	reqData, ok := c.Locals("validatedMessage").(*struct {
		Content string `json:"content"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	service := svc()
	requestCtx := c.Context()

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	requestCtx.SetBodyStreamWriter(func(w *bufio.Writer) {
		reply, err := service.Send(requestCtx, userID, conversationID, reqData.Content, func(chunk string) error {
			payload, _ := json.Marshal(fiber.Map{"content": chunk})
			if _, werr := fmt.Fprintf(w, "data: %s\n\n", payload); werr != nil {
				return werr
			}
			return w.Flush()
		})
		if err != nil {
			payload, _ := json.Marshal(fiber.Map{"error": "Stream failed!"})
			fmt.Fprintf(w, "data: %s\n\n", payload)
			w.Flush()
			return
		}

		payload, _ := json.Marshal(fiber.Map{
			"messageId": reply.ID,
			"truncated": reply.Truncated,
		})
		fmt.Fprintf(w, "data: %s\n\ndata: [DONE]\n\n", payload)
		w.Flush()
	})

	return nil
}
