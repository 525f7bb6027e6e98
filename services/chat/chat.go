package chat

import (
	"context"
	"errors"
	"strings"

	chatModels "lms/models/chat"
	"lms/services"

	"gorm.io/gorm"
)

// ModelMessage is one turn sent to the model provider.
type ModelMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelClient abstracts the chat model provider. StreamCompletion calls
// onChunk for every generated piece and returns the full text; it must stop
// promptly when ctx is cancelled and return ctx.Err() alongside whatever was
// generated so far.
type ModelClient interface {
	StreamCompletion(ctx context.Context, model string, messages []ModelMessage, onChunk func(string) error) (string, error)
}

// Service is a thin conversation layer over the model provider. Persisted
// messages are never rolled back: a cancelled stream keeps the user turn and
// stores the partial assistant reply marked truncated.
type Service struct {
	db     *gorm.DB
	client ModelClient
}

func New(db *gorm.DB, client ModelClient) *Service {
	return &Service{db: db, client: client}
}

// CreateConversation starts a new chat thread.
func (s *Service) CreateConversation(userID uint, title, modelName string) (*chatModels.Conversation, error) {
	if strings.TrimSpace(title) == "" {
		title = "New conversation"
	}
	conv := chatModels.Conversation{
		UserID:    userID,
		Title:     title,
		ModelName: modelName,
	}
	if err := s.db.Create(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns the user's threads, newest first.
func (s *Service) ListConversations(userID uint) ([]chatModels.Conversation, error) {
	var convs []chatModels.Conversation
	err := s.db.Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("updated_at desc").
		Find(&convs).Error
	return convs, err
}

// Messages returns all turns of a conversation the user owns.
func (s *Service) Messages(userID, conversationID uint) ([]chatModels.Message, error) {
	if _, err := s.conversation(userID, conversationID); err != nil {
		return nil, err
	}
	var messages []chatModels.Message
	err := s.db.Where("conversation_id = ?", conversationID).
		Order("created_at asc").
		Find(&messages).Error
	return messages, err
}

// DeleteConversation soft-deletes a thread.
func (s *Service) DeleteConversation(userID, conversationID uint) error {
	conv, err := s.conversation(userID, conversationID)
	if err != nil {
		return err
	}
	return s.db.Model(&chatModels.Conversation{}).
		Where("id = ?", conv.ID).
		Update("is_deleted", true).Error
}

// Send appends the user's message, streams the model reply through onChunk
// and persists the assistant turn. Cancellation stops the stream but keeps
// everything persisted so far.
func (s *Service) Send(ctx context.Context, userID, conversationID uint, content string, onChunk func(string) error) (*chatModels.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, services.ErrValidation
	}

	conv, err := s.conversation(userID, conversationID)
	if err != nil {
		return nil, err
	}

	userMsg := chatModels.Message{
		ConversationID: conv.ID,
		Role:           chatModels.RoleUser,
		Content:        content,
	}
	if err := s.db.Create(&userMsg).Error; err != nil {
		return nil, err
	}

	history, err := s.Messages(userID, conversationID)
	if err != nil {
		return nil, err
	}
	modelMessages := make([]ModelMessage, 0, len(history))
	for _, m := range history {
		modelMessages = append(modelMessages, ModelMessage{Role: m.Role, Content: m.Content})
	}

	reply, streamErr := s.client.StreamCompletion(ctx, conv.ModelName, modelMessages, onChunk)

	// A client disconnect can surface as a chunk write error rather than a
	// cancelled context, so any interrupted stream that produced output is
	// stored as a truncated reply.
	truncated := false
	if streamErr != nil {
		if reply == "" && !errors.Is(streamErr, context.Canceled) && !errors.Is(streamErr, context.DeadlineExceeded) {
			return nil, services.ErrExternalDependency
		}
		truncated = true
	}

	assistantMsg := chatModels.Message{
		ConversationID: conv.ID,
		Role:           chatModels.RoleAssistant,
		Content:        reply,
		Truncated:      truncated,
	}
	if err := s.db.Create(&assistantMsg).Error; err != nil {
		return nil, err
	}

	return &assistantMsg, nil
}

func (s *Service) conversation(userID, conversationID uint) (*chatModels.Conversation, error) {
	var conv chatModels.Conversation
	err := s.db.Where("id = ? AND user_id = ? AND is_deleted = ?", conversationID, userID, false).
		First(&conv).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}
