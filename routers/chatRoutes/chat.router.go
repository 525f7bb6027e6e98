package chatRoutes

import (
	chatController "lms/controllers/chat"
	"lms/middleware"
	"lms/permissions"
	chatValidator "lms/validators/chat"

	"github.com/gofiber/fiber/v2"
)

func SetupChatRoutes(app *fiber.App) {
	chatGroup := app.Group("/chat")

	chatGroup.Post("/conversation", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionChatUse), chatValidator.CreateConversation(), chatController.CreateConversation)
	chatGroup.Get("/conversations", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionChatUse), chatController.GetConversations)
	chatGroup.Get("/conversation/:conversation_id/messages", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionChatUse), chatValidator.ConversationID(), chatController.GetMessages)
	chatGroup.Delete("/conversation/:conversation_id", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionChatUse), chatValidator.ConversationID(), chatController.DeleteConversation)
	chatGroup.Post("/conversation/:conversation_id/message", middleware.JWTMiddleware, middleware.RequirePermission(permissions.ActionChatUse), chatValidator.ConversationID(), chatValidator.SendMessage(), chatController.SendMessage)
}
