package chat

import (
	"gorm.io/gorm"
)

// Message role enum values
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Conversation is a chat thread between a user and the assistant
type Conversation struct {
	gorm.Model
	UserID    uint   `gorm:"not null;index" json:"userId"`
	Title     string `gorm:"type:varchar(200)" json:"title"`
	ModelName string `gorm:"type:varchar(100)" json:"modelName"`
	IsDeleted bool   `gorm:"default:false" json:"isDeleted"`
}

// Message is a single turn within a conversation
type Message struct {
	gorm.Model
	ConversationID uint   `gorm:"not null;index" json:"conversationId"`
	Role           string `gorm:"type:varchar(20);not null" json:"role"`
	Content        string `gorm:"type:text;not null" json:"content"`
	TokenCount     int    `gorm:"default:0" json:"tokenCount"`

	// A cancelled stream keeps whatever was generated before the cut
	Truncated bool `gorm:"default:false" json:"truncated"`
}
